package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
)

// HTMLRenderer renders a self-contained HTML page with a percentile
// distribution chart.
type HTMLRenderer struct{}

// htmlData is the template input.
type htmlData struct {
	*Report
	Title     string
	ChartJSON template.JS
}

// chartPoint is one point of the distribution chart: X is 1/(1-p).
type chartPoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label"`
}

// Render implements Renderer.
func (f *HTMLRenderer) Render(w io.Writer, r *Report) error {
	if r == nil {
		return fmt.Errorf("report cannot be nil")
	}

	tmpl, err := template.New("report").Funcs(r.templateFuncs()).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	chart, err := distributionChartJSON(r.Distribution)
	if err != nil {
		return fmt.Errorf("failed to convert distribution: %w", err)
	}

	data := htmlData{Report: r, Title: r.Name, ChartJSON: template.JS(chart)}
	if data.Title == "" {
		data.Title = "Histogram"
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	_, err = buf.WriteTo(w)
	return err
}

// distributionChartJSON keeps the rows with a finite 1/(1-p).
func distributionChartJSON(rows []DistributionRow) (string, error) {
	points := make([]chartPoint, 0, len(rows))
	for _, row := range rows {
		if row.InverseTail == 0 {
			continue
		}
		points = append(points, chartPoint{
			X:     row.InverseTail,
			Y:     row.Value,
			Label: percentLabel(row.Percentile * 100),
		})
	}
	data, err := json.Marshal(points)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

func percentLabel(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64) + "%"
}

func (r *Report) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatValue":   r.formatValue,
		"formatCount":   humanize.Comma,
		"formatBytes":   func(n int) string { return humanize.IBytes(uint64(n)) },
		"percentLabel":  percentLabel,
		"fractionLabel": func(p float64) string { return percentLabel(p * 100) },
	}
}

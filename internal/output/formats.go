package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// OutputFormat represents the available output formats
type OutputFormat string

const (
	// FormatText is the default human-readable text format
	FormatText OutputFormat = "text"
	// FormatJSON outputs in JSON format
	FormatJSON OutputFormat = "json"
	// FormatYAML outputs in YAML format
	FormatYAML OutputFormat = "yaml"
	// FormatHTML outputs a standalone HTML page with a distribution chart
	FormatHTML OutputFormat = "html"
)

// ParseFormat parses a format name; the empty string is text.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML, FormatHTML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json, yaml or html)", s)
	}
}

// Renderer writes a report in one format.
type Renderer interface {
	Render(w io.Writer, r *Report) error
}

// JSONRenderer renders reports as JSON.
type JSONRenderer struct {
	Pretty bool
}

// Render implements Renderer.
func (f *JSONRenderer) Render(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	if f.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report as JSON: %w", err)
	}
	return nil
}

// YAMLRenderer renders reports as YAML.
type YAMLRenderer struct{}

// Render implements Renderer.
func (f *YAMLRenderer) Render(w io.Writer, r *Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report as YAML: %w", err)
	}
	return enc.Close()
}

// GetRenderer returns the renderer for format. Text output is colored only
// when color is true.
func GetRenderer(format OutputFormat, color bool) Renderer {
	switch format {
	case FormatJSON:
		return &JSONRenderer{Pretty: true}
	case FormatYAML:
		return &YAMLRenderer{}
	case FormatHTML:
		return &HTMLRenderer{}
	default:
		return NewTextRenderer(!color)
	}
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wesleyorama2/histo/internal/input"
	"github.com/wesleyorama2/histo/internal/metrics"
)

func newRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record [files...]",
		Short: "Record measurements into a histogram",
		Long: `Read measurements, one per line or one JSON object per line, and record
them into a histogram. Every file is read concurrently by its own writer and
the results are merged; with no files, stdin is read.

Values may be integers, decimals or durations such as "1.5ms"; durations are
converted to the profile unit. With --expected-interval, values larger than
the interval are corrected for coordinated omission.`,
		RunE: runRecord,
	}

	flags := cmd.Flags()
	flags.StringP("out", "o", "", "Output file (default: stdout)")
	flags.Bool("text", false, "Write the base64 text form instead of binary")
	flags.String("input-format", "", "Input format: lines or jsonl")
	flags.String("field", "", "gjson path of the value in jsonl input")
	flags.String("expected-interval", "", "Expected interval between samples, a number or a duration")
	flags.Bool("clamp", false, "Record out-of-range values at the nearest bound")
	flags.Duration("interval", 0, "Time-series bucket interval")
	flags.String("series", "", "Write the per-interval time series as JSON to this file")
	return cmd
}

func runRecord(cmd *cobra.Command, args []string) error {
	p, err := resolveProfile(cmd)
	if err != nil {
		return err
	}
	opts, err := p.ReaderOptions()
	if err != nil {
		return err
	}
	expected, err := p.ExpectedInterval()
	if err != nil {
		return err
	}

	eng, err := metrics.NewEngine(metrics.EngineConfig{
		Histogram:      p.Histogram,
		BucketInterval: p.Interval.GetDuration(0),
		Unit:           opts.Unit.Duration(),
		Clamp:          p.Clamp,
	})
	if err != nil {
		return err
	}

	sources := args
	if len(sources) == 0 {
		sources = []string{stdinName}
	}

	eng.Start(cmd.Context())
	g, ctx := errgroup.WithContext(cmd.Context())
	for _, src := range sources {
		src := src
		g.Go(func() error {
			return recordSource(ctx, cmd, eng, src, opts, expected)
		})
	}
	err = g.Wait()
	eng.Stop()
	if err != nil {
		return err
	}

	h := eng.Histogram()
	for name, stats := range eng.NamedStats() {
		logger.Info("recorded source", zap.String("source", name), zap.Int64("count", stats.Count), zap.Int64("max", stats.Max))
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "recorded %s values from %d source(s), %s rejected\n",
		humanize.Comma(h.TotalCount()), len(sources), humanize.Comma(eng.Rejected()))

	if series, _ := cmd.Flags().GetString("series"); series != "" {
		if err := writeSeries(series, eng.TimeSeries()); err != nil {
			return err
		}
	}

	out, _ := cmd.Flags().GetString("out")
	text, _ := cmd.Flags().GetBool("text")
	return writeHistogram(cmd, h, out, text)
}

// recordSource feeds one input through its own writer.
func recordSource(ctx context.Context, cmd *cobra.Command, eng *metrics.Engine, src string, opts input.Options, expected int64) error {
	name := "stdin"
	in := cmd.InOrStdin()
	if src != stdinName {
		f, err := os.Open(src)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		name = filepath.Base(src)
		in = f
	}

	reader, err := input.NewReader(in, opts)
	if err != nil {
		return err
	}

	w := eng.NewWriter(name)
	defer w.Close()

	err = reader.Each(func(v int64) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !w.RecordCorrected(v, expected) {
			logger.Debug("value rejected", zap.String("source", name), zap.Int("line", reader.Line()), zap.Int64("value", v))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", src, err)
	}
	return nil
}

func writeSeries(path string, buckets []*metrics.TimeBucket) error {
	data, err := json.MarshalIndent(buckets, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode time series: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write time series: %w", err)
	}
	logger.Info("wrote time series", zap.String("path", path), zap.Int("buckets", len(buckets)))
	return nil
}

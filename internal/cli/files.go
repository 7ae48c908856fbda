package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wesleyorama2/histo/internal/config"
	"github.com/wesleyorama2/histo/pkg/hdr"
)

const stdinName = "-"

// readSource returns the contents of path, or of stdin for "-".
func readSource(cmd *cobra.Command, path string) ([]byte, error) {
	if path == stdinName {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// readHistogram decodes a histogram stored either in binary form or as the
// base64 text form.
func readHistogram(cmd *cobra.Command, path string) (*hdr.Histogram, error) {
	data, err := readSource(cmd, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read histogram: %w", err)
	}

	h, err := hdr.Decode(data)
	if err != nil {
		var fromText hdr.Histogram
		if textErr := fromText.UnmarshalText(bytes.TrimSpace(data)); textErr != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		h = &fromText
	}

	logger.Debug("read histogram", zap.String("path", path), zap.Int64("count", h.TotalCount()))
	return h, nil
}

// mergeSources reads every path and adds it into one histogram. The layout
// is the profile's when the user chose one, otherwise the first file's.
// Counts the merged layout cannot represent are summed into dropped.
func mergeSources(cmd *cobra.Command, p *config.Profile, paths []string) (merged *hdr.Histogram, dropped int64, err error) {
	if len(paths) == 0 {
		paths = []string{stdinName}
	}

	if layoutChosen(cmd) {
		if merged, err = hdr.NewWithConfig(p.Histogram); err != nil {
			return nil, 0, err
		}
	}

	for _, path := range paths {
		h, err := readHistogram(cmd, path)
		if err != nil {
			return nil, 0, err
		}
		if merged == nil {
			merged = h
			continue
		}
		n, err := merged.Add(h)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", path, err)
		}
		if n > 0 {
			logger.Warn("dropped values outside the merged range", zap.String("path", path), zap.Int64("dropped", n))
		}
		dropped += n
	}
	return merged, dropped, nil
}

// writeHistogram stores h at path, or on stdout for "" and "-". The text
// form is base64 followed by a newline.
func writeHistogram(cmd *cobra.Command, h *hdr.Histogram, path string, text bool) error {
	var data []byte
	var err error
	if text {
		if data, err = h.MarshalText(); err == nil {
			data = append(data, '\n')
		}
	} else {
		data, err = h.EncodeCompressed()
	}
	if err != nil {
		return fmt.Errorf("failed to encode histogram: %w", err)
	}

	if path == "" || path == stdinName {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write histogram: %w", err)
	}
	logger.Info("wrote histogram", zap.String("path", path), zap.Int("bytes", len(data)), zap.Int64("count", h.TotalCount()))
	return nil
}

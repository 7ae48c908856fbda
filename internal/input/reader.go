// Package input reads measurements from text streams.
package input

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"
)

// Format names a supported input layout.
type Format string

const (
	// FormatLines is one value per line
	FormatLines Format = "lines"

	// FormatJSONL is one JSON document per line
	FormatJSONL Format = "jsonl"
)

// ParseFormat validates a format name. The empty string selects FormatLines.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatLines, nil
	case FormatLines, FormatJSONL:
		return f, nil
	default:
		return "", fmt.Errorf("unknown input format %q (want lines or jsonl)", s)
	}
}

// Options configures a Reader.
type Options struct {
	Format Format

	// Field is the gjson path of the value in each JSON document. Empty
	// means the whole document is the value.
	Field string

	Unit Unit
}

// LineError reports which line a value could not be read from.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// ErrMissingField is returned when a JSON document lacks the configured
// field.
var ErrMissingField = errors.New("field not found")

// Reader reads histogram values one at a time.
type Reader struct {
	opts    Options
	scanner *bufio.Scanner
	line    int
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader, opts Options) (*Reader, error) {
	format, err := ParseFormat(string(opts.Format))
	if err != nil {
		return nil, err
	}
	opts.Format = format

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &Reader{opts: opts, scanner: scanner}, nil
}

// Line returns the number of the line last read.
func (r *Reader) Line() int {
	return r.line
}

// Next returns the next value, or io.EOF when the input is exhausted. Blank
// lines and lines starting with '#' are skipped.
func (r *Reader) Next() (int64, error) {
	for r.scanner.Scan() {
		r.line++
		text := strings.TrimSpace(r.scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		v, err := r.parse(text)
		if err != nil {
			return 0, &LineError{Line: r.line, Err: err}
		}
		return v, nil
	}
	if err := r.scanner.Err(); err != nil {
		return 0, fmt.Errorf("failed to read input: %w", err)
	}
	return 0, io.EOF
}

func (r *Reader) parse(text string) (int64, error) {
	if r.opts.Format == FormatLines {
		return r.opts.Unit.Convert(text)
	}

	if !gjson.Valid(text) {
		return 0, errors.New("invalid JSON")
	}
	result := gjson.Parse(text)
	if r.opts.Field != "" {
		result = result.Get(r.opts.Field)
	}
	if !result.Exists() {
		return 0, fmt.Errorf("%w: %s", ErrMissingField, r.opts.Field)
	}

	switch result.Type {
	case gjson.Number:
		return roundValue(result.Num)
	case gjson.String:
		return r.opts.Unit.Convert(result.Str)
	default:
		return 0, fmt.Errorf("value at %q is %s, want a number or string", r.opts.Field, result.Type)
	}
}

// Each calls fn for every value in the input and stops at the first error.
func (r *Reader) Each(fn func(v int64) error) error {
	for {
		v, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(v); err != nil {
			return err
		}
	}
}

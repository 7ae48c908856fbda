package input

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Unit maps measurements onto integer histogram values. The zero Unit is
// raw: values are taken as-is and durations are rejected.
type Unit struct {
	name string
	d    time.Duration
}

var units = map[string]time.Duration{
	"ns": time.Nanosecond,
	"us": time.Microsecond,
	"µs": time.Microsecond,
	"ms": time.Millisecond,
	"s":  time.Second,
}

// ParseUnit parses "ns", "us", "ms", "s" or "raw". The empty string is raw.
func ParseUnit(s string) (Unit, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "raw" {
		return Unit{}, nil
	}
	d, ok := units[s]
	if !ok {
		return Unit{}, fmt.Errorf("unknown unit %q (want ns, us, ms, s or raw)", s)
	}
	if s == "µs" {
		s = "us"
	}
	return Unit{name: s, d: d}, nil
}

// MustParseUnit is like ParseUnit but panics on error.
func MustParseUnit(s string) Unit {
	u, err := ParseUnit(s)
	if err != nil {
		panic(err)
	}
	return u
}

// String returns the unit name.
func (u Unit) String() string {
	if u.d == 0 {
		return "raw"
	}
	return u.name
}

// Duration returns the length of one histogram unit, 0 for raw.
func (u Unit) Duration() time.Duration {
	return u.d
}

// IsRaw reports whether values carry no time unit.
func (u Unit) IsRaw() bool {
	return u.d == 0
}

// FromDuration converts d to histogram units, rounding to nearest.
func (u Unit) FromDuration(d time.Duration) (int64, error) {
	if u.IsRaw() {
		return 0, fmt.Errorf("duration %s given but values have no time unit", d)
	}
	return int64(math.Round(float64(d) / float64(u.d))), nil
}

// Format renders v, expressed in this unit, for humans.
func (u Unit) Format(v float64) string {
	if u.IsRaw() {
		return cast.ToString(math.Round(v*100) / 100)
	}
	return time.Duration(v * float64(u.d)).Round(time.Microsecond / 10).String()
}

// Convert turns a decoded measurement into histogram units. Numbers, numeric
// strings and duration strings such as "1.5ms" are accepted; fractional
// numbers are rounded.
func (u Unit) Convert(v interface{}) (int64, error) {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if f, err := cast.ToFloat64E(s); err == nil {
			return roundValue(f)
		}
		d, err := cast.ToDurationE(s)
		if err != nil {
			return 0, fmt.Errorf("%q is neither a number nor a duration", s)
		}
		return u.FromDuration(d)
	}

	if d, ok := v.(time.Duration); ok {
		return u.FromDuration(d)
	}

	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("unsupported value %v: %w", v, err)
	}
	return roundValue(f)
}

func roundValue(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0, fmt.Errorf("value %v is out of range", f)
	}
	return int64(math.Round(f)), nil
}

// Package logging is a thin wrapper of the zap logging library.
//
// Every package obtains its logger once, next to its package docstring:
//
//	var logger = logging.New("metrics")
//
// Levels are taken from HISTO_LOG_<pkg>, falling back to HISTO_LOG. The first
// letter of the value selects the level: V or D debug, I info, W warning,
// E error, F or N fatal only. Without either variable only warnings and
// errors are written, so command output stays clean.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var root = func() *zap.Logger {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.Lock(os.Stderr),
		zap.DebugLevel,
	)
	return zap.New(core)
}()

// Named creates a named logger without level initialization.
func Named(pkg string) *zap.Logger {
	return root.Named(pkg)
}

// New creates a logger initialized with the configured level of pkg.
func New(pkg string) *zap.Logger {
	return Named(pkg).WithOptions(zap.IncreaseLevel(GetLevel(pkg).al))
}

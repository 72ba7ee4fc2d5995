// Package logger builds the diagnostic logger shared by every command.
//
// Diagnostics go to stderr through zap and are handed around as a
// logr.Logger. The operator-facing run log is separate: it is part of a
// domain.Run and rendered by the presentation layer.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls the logger.
type Config struct {
	// Level is a zap level name: debug, info, warn, error. Empty means warn.
	Level string

	// Format is "console" or "json". Empty means console.
	Format string

	// Output receives the log stream. Nil means stderr.
	Output io.Writer
}

// DefaultLevel keeps diagnostics quiet unless asked for.
const DefaultLevel = "warn"

// NewZap builds the underlying zap logger.
func NewZap(cfg Config) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	name := cfg.Level
	if name == "" {
		name = DefaultLevel
	}
	if err := level.UnmarshalText([]byte(strings.ToLower(name))); err != nil {
		return nil, fmt.Errorf("cannot set logger level: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder

	var enc zapcore.Encoder
	switch strings.ToLower(cfg.Format) {
	case "", "console":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	case "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	default:
		return nil, fmt.Errorf("invalid logger format %q", cfg.Format)
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(out), level)
	return zap.New(core, zap.AddStacktrace(zapcore.DPanicLevel)), nil
}

// New builds a logr.Logger backed by zap.
func New(cfg Config) (logr.Logger, error) {
	zl, err := NewZap(cfg)
	if err != nil {
		return logr.Logger{}, err
	}
	return zapr.NewLogger(zl), nil
}

// Package logging builds the zap loggers used by the command line tools.
// Library packages accept a *zap.Logger and default to zap.NewNop.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Encoding selects the log line format.
type Encoding string

const (
	EncodingConsole Encoding = "console"
	EncodingJSON    Encoding = "json"
)

// Config describes a logger.
type Config struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// Encoding is console or json. Empty means console.
	Encoding Encoding
	// OutputPaths defaults to stderr so command output on stdout stays clean.
	OutputPaths []string
	// Name is attached to every entry.
	Name string
}

// ParseLevel converts a level name into a zap level.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return zap.InfoLevel, nil
	case "debug":
		return zap.DebugLevel, nil
	case "warn", "warning":
		return zap.WarnLevel, nil
	case "error":
		return zap.ErrorLevel, nil
	default:
		return 0, fmt.Errorf("logging: invalid level %q", level)
	}
}

// New returns a logger for cfg.
func New(cfg Config) (*zap.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	zc := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         string(EncodingConsole),
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	zc.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	zc.EncoderConfig.MessageKey = "message"
	zc.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	switch cfg.Encoding {
	case "", EncodingConsole:
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	case EncodingJSON:
		zc.Encoding = string(EncodingJSON)
	default:
		return nil, fmt.Errorf("logging: invalid encoding %q", cfg.Encoding)
	}
	if len(cfg.OutputPaths) > 0 {
		zc.OutputPaths = cfg.OutputPaths
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build logger: %w", err)
	}
	if cfg.Name != "" {
		logger = logger.Named(cfg.Name)
	}
	return logger, nil
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

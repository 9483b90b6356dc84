// Package logging builds the zap logger used by the reflect command.
package logging

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the logger flavour.
type Options struct {
	// Level is a zap level name such as "debug" or "warn". Empty means info.
	Level string
	// Development switches to the human-readable console encoder.
	Development bool
	// Output receives log lines. Nil means stderr.
	Output io.Writer
}

// New builds a logger from opts. An unknown level is an error.
func New(opts Options) (*zap.Logger, error) {
	level := zap.InfoLevel
	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	cfg := zap.NewProductionConfig()
	if opts.Development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	if opts.Output == nil {
		return cfg.Build()
	}

	// Config.Build only opens paths, so writers get their own core.
	encoder := zapcore.NewJSONEncoder(cfg.EncoderConfig)
	if cfg.Encoding == "console" {
		encoder = zapcore.NewConsoleEncoder(cfg.EncoderConfig)
	}
	core := zapcore.NewCore(encoder, zapcore.AddSync(opts.Output), cfg.Level)
	return zap.New(core), nil
}

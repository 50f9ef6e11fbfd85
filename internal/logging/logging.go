// Package logging wraps go.uber.org/zap with the construction shape of a
// production zap logger: a named encoder config, a console encoder for
// interactive runs, and a JSON encoder for machine-readable output when the
// caller asks for it (§10.1 of SPEC_FULL.md).
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Format selects the wire shape of log lines.
type Format int

const (
	// Console is the default: human-readable lines on stderr.
	Console Format = iota
	// JSON emits one JSON object per line, for machine consumption.
	JSON
)

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// New builds a zap.Logger writing to stderr in the requested format. The
// engine itself never calls this — §5 keeps C5/C6 allocation- and
// syscall-light on the hot path. The CLI builds it and hands it to the
// engine, where it carries the data-graph reader's invalid-event warnings
// and C4's out-of-order warnings. The CLI's summary lines are written to
// stdout, not through this logger.
func New(format Format) *zap.Logger {
	cfg := encoderConfig()
	var encoder zapcore.Encoder
	if format == JSON {
		encoder = zapcore.NewJSONEncoder(cfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(cfg)
	}
	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), zapcore.InfoLevel)
	return zap.New(core)
}

// Nop returns a logger that discards everything, the default for library
// callers embedding the engine without wanting console output.
func Nop() *zap.Logger {
	return zap.NewNop()
}

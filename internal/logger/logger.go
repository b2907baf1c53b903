// Package logger builds the engine's zap logger. Entries go to stderr unless
// Options.Output says otherwise, so stdout stays free for command output.
package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects level, encoding and destination
type Options struct {
	Level   string              // debug, info, warn, error; anything else means info
	Format  string              // "console" for development, otherwise JSON
	Service string              // attached as service_name when set
	Output  zapcore.WriteSyncer // nil means stderr
}

// New builds the process logger. JSON entries carry an ISO8601 "timestamp",
// the caller, and a stacktrace from error level up.
func New(o Options) *zap.Logger {
	level := parseLevel(o.Level)

	out := o.Output
	if out == nil {
		out = zapcore.Lock(os.Stderr)
	}

	var enc zapcore.Encoder
	if o.Format == "console" {
		enc = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	} else {
		ec := zap.NewProductionEncoderConfig()
		ec.TimeKey = "timestamp"
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(ec)
	}

	log := zap.New(zapcore.NewCore(enc, out, level),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.ErrorOutput(zapcore.Lock(os.Stderr)),
	)

	if o.Service != "" {
		log = log.With(zap.String("service_name", o.Service))
	}
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		log = log.With(zap.String("hostname", hostname))
	}
	return log
}

func parseLevel(s string) zapcore.Level {
	level, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || level > zapcore.ErrorLevel {
		return zapcore.InfoLevel
	}
	return level
}

// Package logging builds the diagnostic logger. Output exists only when the
// debug flag is set; otherwise every call is discarded.
package logging

import (
	"io"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a named logger writing console-encoded records to sink and a
// cleanup function to run before exit.
func New(name string, debug bool, sink io.Writer) (logr.Logger, func() error) {
	if !debug || sink == nil {
		return logr.Discard(), func() error { return nil }
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig()),
		zapcore.Lock(zapcore.AddSync(sink)),
		zapcore.DebugLevel,
	)
	zapLogger := zap.New(core)
	return zapr.NewLogger(zapLogger).WithName(name), zapLogger.Sync
}

func encoderConfig() zapcore.EncoderConfig {
	conf := zap.NewDevelopmentEncoderConfig()
	conf.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	return conf
}

// Warn records a warning. logr has no warn level, so it is an info record
// tagged with level=warn.
func Warn(l logr.Logger, msg string, keysAndValues ...any) {
	l.Info(msg, append([]any{"level", "warn"}, keysAndValues...)...)
}

// Package logging builds zap loggers for verification runs.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ariel-frischer/pactverify/internal/verifier"
)

// Structured field names shared by the engine and the CLI.
const (
	FieldProvider      = "provider"
	FieldConsumer      = "consumer"
	FieldSource        = "source"
	FieldContract      = "contract"
	FieldInteraction   = "interaction"
	FieldProviderState = "provider_state"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldStatus        = "status"
	FieldDuration      = "duration"
	FieldError         = "error"
	FieldRunID         = "run_id"
)

// ZapLevel maps a verifier log level onto zap. Trace has no zap equivalent
// and maps to debug. ok is false for LogNone.
func ZapLevel(level verifier.LogLevel) (lvl zapcore.Level, ok bool) {
	switch level {
	case verifier.LogTrace, verifier.LogDebug:
		return zapcore.DebugLevel, true
	case verifier.LogWarn:
		return zapcore.WarnLevel, true
	case verifier.LogError:
		return zapcore.ErrorLevel, true
	case verifier.LogNone:
		return zapcore.InvalidLevel, false
	default:
		return zapcore.InfoLevel, true
	}
}

// New returns a console logger writing to w (stderr when nil). LogNone yields
// a no-op logger.
func New(level verifier.LogLevel, w io.Writer) *zap.Logger {
	lvl, ok := ZapLevel(level)
	if !ok {
		return zap.NewNop()
	}
	if w == nil {
		w = os.Stderr
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encCfg.CallerKey = ""

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), lvl)
	return zap.New(core)
}

// ForRequest narrows base to the request's log level. It never lowers base's
// own threshold, and LogNone silences it.
func ForRequest(base *zap.Logger, level verifier.LogLevel) *zap.Logger {
	if base == nil {
		return zap.NewNop()
	}
	if level == "" {
		return base
	}
	lvl, ok := ZapLevel(level)
	if !ok {
		return zap.NewNop()
	}
	return base.WithOptions(zap.IncreaseLevel(lvl))
}

package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ariel-frischer/pactverify/internal/verifier"
)

func TestZapLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		level  verifier.LogLevel
		want   zapcore.Level
		wantOK bool
	}{
		"trace maps to debug": {level: verifier.LogTrace, want: zapcore.DebugLevel, wantOK: true},
		"debug":               {level: verifier.LogDebug, want: zapcore.DebugLevel, wantOK: true},
		"info":                {level: verifier.LogInfo, want: zapcore.InfoLevel, wantOK: true},
		"warn":                {level: verifier.LogWarn, want: zapcore.WarnLevel, wantOK: true},
		"error":               {level: verifier.LogError, want: zapcore.ErrorLevel, wantOK: true},
		"unset is info":       {level: "", want: zapcore.InfoLevel, wantOK: true},
		"none disables":       {level: verifier.LogNone, wantOK: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, ok := ZapLevel(tt.level)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNew_FiltersByLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(verifier.LogWarn, &buf)
	logger.Info("replaying", zap.String(FieldInteraction, "get events"))
	logger.Warn("provider state failed", zap.String(FieldProviderState, "events exist"))

	out := buf.String()
	assert.NotContains(t, out, "replaying")
	assert.Contains(t, out, "provider state failed")
	assert.Contains(t, out, "events exist")
}

func TestNew_None(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	New(verifier.LogNone, &buf).Error("boom")
	assert.Empty(t, buf.String())
}

func TestForRequest(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := New(verifier.LogDebug, &buf)

	ForRequest(base, verifier.LogError).Info("hidden")
	ForRequest(base, verifier.LogNone).Error("also hidden")
	ForRequest(base, "").Debug("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
}

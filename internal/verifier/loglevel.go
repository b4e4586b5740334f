package verifier

import (
	"fmt"
	"strings"
)

// LogLevel selects how verbosely the engine reports a verification run.
// The zero value means "engine default".
type LogLevel string

const (
	LogTrace LogLevel = "trace"
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
	LogNone  LogLevel = "none"
)

// ValidLogLevels lists every accepted log level, most verbose first.
var ValidLogLevels = []LogLevel{LogTrace, LogDebug, LogInfo, LogWarn, LogError, LogNone}

// ParseLogLevel parses a case-insensitive level name.
func ParseLogLevel(s string) (LogLevel, error) {
	level := LogLevel(strings.ToLower(strings.TrimSpace(s)))
	if level.IsValid() {
		return level, nil
	}
	return "", fmt.Errorf("%w: invalid log level %q: valid options are trace, debug, info, warn, error, none",
		ErrInvalidConfiguration, s)
}

// IsValid returns true if the level is one of ValidLogLevels.
func (l LogLevel) IsValid() bool {
	for _, valid := range ValidLogLevels {
		if l == valid {
			return true
		}
	}
	return false
}

func (l LogLevel) String() string {
	return string(l)
}

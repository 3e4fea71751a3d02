package common

import (
	"testing"

	"github.com/lni/dragonboat/v4/logger"
)

func TestInitLoggersTwice(t *testing.T) {
	for _, level := range []string{"info", "debug", "warn"} {
		if err := InitLoggers(level); err != nil {
			t.Fatalf("InitLoggers(%s) failed: %v", level, err)
		}
	}

	if err := InitLoggers("loud"); err == nil {
		t.Errorf("InitLoggers with an invalid level succeeded")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]logger.LogLevel{
		"":        logger.INFO,
		"DEBUG":   logger.DEBUG,
		"warning": logger.WARNING,
		"warn":    logger.WARNING,
		"error":   logger.ERROR,
	}
	for in, want := range tests {
		got, err := ParseLogLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLogLevel(%q) = %v, %v, want %v", in, got, err, want)
		}
	}
}

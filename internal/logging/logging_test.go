package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"info":    zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew(t *testing.T) {
	logger := New(Options{Level: "error"})
	if logger == nil {
		t.Fatal("expected logger, got nil")
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled at error level")
	}
	if !logger.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("error should be enabled at error level")
	}

	console := New(Options{Level: "debug", Console: true})
	if !console.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug should be enabled for console logger")
	}
}

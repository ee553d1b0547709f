package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSetLevel(t *testing.T) {
	defer SetLevel("info")
	SetLevel("error")
	if L().Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("info should be disabled at error level")
	}
	SetLevel("debug")
	if !L().Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("debug should be enabled")
	}
}

func TestReplace(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := Replace(zap.New(core))
	S().Infow("client_connected", "addr", "127.0.0.1:1")
	restore()
	if logs.Len() != 1 || logs.All()[0].Message != "client_connected" {
		t.Fatalf("expected captured log, got %v", logs.All())
	}
}

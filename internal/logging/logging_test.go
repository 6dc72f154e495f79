package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew_RejectsUnknownLevel(t *testing.T) {
	if _, err := New("loud", "console"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNew_JSONFormat(t *testing.T) {
	l, err := New("debug", "json")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !l.Desugar().Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("expected debug level enabled")
	}
}

func TestOrDiscard(t *testing.T) {
	if OrDiscard(nil) == nil {
		t.Fatalf("expected non-nil logger")
	}
}

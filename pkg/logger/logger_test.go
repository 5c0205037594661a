// pkg/logger/logger_test.go
package logger_test

import (
	"context"
	"testing"

	"github.com/YaganovValera/reddit-collector/pkg/logger"
)

func TestNew_InvalidLevel(t *testing.T) {
	_, err := logger.New(logger.Config{Level: "invalid"})
	if err == nil {
		t.Error("expected error for invalid level, got nil")
	}
}

func TestNew_ValidLevels(t *testing.T) {
	for _, lvl := range []string{"", "debug", "info", "warn", "error"} {
		if _, err := logger.New(logger.Config{Level: lvl, DevMode: true}); err != nil {
			t.Errorf("expected no error for level %q, got %v", lvl, err)
		}
	}
}

func TestWithContext_RequestID(t *testing.T) {
	l := logger.NewNop()
	if got := l.WithContext(context.Background()); got != l {
		t.Error("expected the same logger when ctx carries no ids")
	}

	ctx := logger.ContextWithTraceID(context.Background(), "trace-123")
	ctx = logger.ContextWithRequestID(ctx, "req-456")
	if got := l.WithContext(ctx); got == l {
		t.Error("expected an annotated logger")
	}

	rid, ok := logger.RequestIDFromContext(ctx)
	if !ok || rid != "req-456" {
		t.Errorf("RequestIDFromContext = %q, %v; want req-456, true", rid, ok)
	}
}

func TestSync_NoPanic(t *testing.T) {
	l, err := logger.New(logger.Config{Level: "info", DevMode: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Named("test").Info("message")
	l.Sync()
}

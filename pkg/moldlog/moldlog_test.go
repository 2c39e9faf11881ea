package moldlog

import (
	"context"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestOperationID_RoundTrips(t *testing.T) {
	ctx := WithOperationID(context.Background(), "op-123")
	if got := OperationID(ctx); got != "op-123" {
		t.Errorf("OperationID() = %q, want op-123", got)
	}
}

func TestOperationID_EmptyWhenUnset(t *testing.T) {
	if got := OperationID(context.Background()); got != "" {
		t.Errorf("OperationID() = %q, want empty", got)
	}
}

func TestFromContext_AttachesOperationID(t *testing.T) {
	ctx := WithOperationID(context.Background(), "op-456")
	logger := FromContext(ctx, slog.Default())
	if logger == nil {
		t.Fatal("FromContext returned nil")
	}
}

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewFanoutHandlerCollapses(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when every handler is nil")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newFanoutHandler(nil, inner); h != inner {
		t.Fatal("expected the single non-nil handler to be returned unwrapped")
	}
}

func TestFanoutHandlerRespectsPerHandlerLevels(t *testing.T) {
	var verbose, quiet bytes.Buffer
	h := newFanoutHandler(
		slog.NewTextHandler(&verbose, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&quiet, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected debug to be enabled through the verbose handler")
	}

	logger := slog.New(h).With("component", "sequencer")
	logger.Debug("detail")
	logger.Warn("problem")

	if !strings.Contains(verbose.String(), "detail") || !strings.Contains(verbose.String(), "problem") {
		t.Fatalf("verbose handler missing records: %q", verbose.String())
	}
	if strings.Contains(quiet.String(), "detail") || !strings.Contains(quiet.String(), "problem") {
		t.Fatalf("quiet handler got %q", quiet.String())
	}
	if !strings.Contains(quiet.String(), "component=sequencer") {
		t.Fatalf("expected attrs to reach every handler, got %q", quiet.String())
	}
}

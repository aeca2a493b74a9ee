package agent

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/hazyhaar/ytcopy/clipboard"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStart_RequiresURL(t *testing.T) {
	a := New(DefaultConfig(), quietLogger())
	if err := a.Start(context.Background()); err == nil {
		t.Fatal("expected error without page url")
	}
	if got := a.Snapshot().Phase; got != "idle" {
		t.Errorf("phase before start: got %q", got)
	}
}

func TestBuildWriters(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Clipboard = []ClipboardConfig{
		{Type: "stdout"},
		{Type: "webhook", URL: "http://127.0.0.1:1/hook"},
	}
	extra := clipboard.NewCallback(nil)
	a := New(cfg, quietLogger(), extra)

	writers, err := a.buildWriters(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(writers) != 3 {
		t.Fatalf("writers: got %d, want 3", len(writers))
	}
	if writers[2] != clipboard.Writer(extra) {
		t.Error("extra writer should come last")
	}
}

func TestBuildWriters_UnknownType(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Clipboard = []ClipboardConfig{{Type: "carrier-pigeon"}}
	a := New(cfg, quietLogger())
	if _, err := a.buildWriters(nil); err == nil {
		t.Fatal("expected error for unknown writer type")
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("page:\n  url: https://www.youtube.com/watch?v=x\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Browser.Mode != "headless" || cfg.Browser.XvfbDisplay != ":99" {
		t.Errorf("browser defaults: %+v", cfg.Browser)
	}
	if cfg.Page.LoadTimeout != 30*time.Second {
		t.Errorf("load timeout: %v", cfg.Page.LoadTimeout)
	}
	if len(cfg.Clipboard) != 1 || cfg.Clipboard[0].Type != "page" {
		t.Errorf("clipboard default: %+v", cfg.Clipboard)
	}
	if cfg.Timing.MaxRetries != 20 || cfg.Timing.NavigationDebounce != 500*time.Millisecond {
		t.Errorf("timing defaults: %+v", cfg.Timing)
	}
	if len(cfg.Selectors.ShowAnchors) != 4 || cfg.Selectors.ShowAnchors[0] != "#top-level-buttons-computed" {
		t.Errorf("anchors: %v", cfg.Selectors.ShowAnchors)
	}
	if cfg.Feedback.Copied != "Copied!" || cfg.Feedback.FailedColor != "#d93025" {
		t.Errorf("feedback: %+v", cfg.Feedback)
	}
}

func TestParse_Overrides(t *testing.T) {
	data := []byte(`
browser:
  mode: headful
timing:
  settle: 2s
  max_retries: 5
selectors:
  show_anchors: ["#custom"]
  transcript:
    items: [".line"]
feedback:
  copied: "OK"
clipboard:
  - type: webhook
    url: http://localhost:9000/hook
  - type: stdout
status:
  addr: 127.0.0.1:8790
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Timing.Settle != 2*time.Second || cfg.Timing.MaxRetries != 5 {
		t.Errorf("timing: %+v", cfg.Timing)
	}
	if cfg.Timing.Feedback != 2*time.Second {
		t.Errorf("unset timing not defaulted: %v", cfg.Timing.Feedback)
	}
	if len(cfg.Selectors.ShowAnchors) != 1 || cfg.Selectors.ShowAnchors[0] != "#custom" {
		t.Errorf("anchors: %v", cfg.Selectors.ShowAnchors)
	}
	if cfg.Selectors.Transcript.Items[0] != ".line" || len(cfg.Selectors.Transcript.Containers) == 0 {
		t.Errorf("transcript selectors: %+v", cfg.Selectors.Transcript)
	}
	if cfg.Feedback.Copied != "OK" || cfg.Feedback.Failed != "Error!" {
		t.Errorf("feedback: %+v", cfg.Feedback)
	}
	if cfg.Clipboard[0].Retries != 3 || cfg.Clipboard[0].Backoff != time.Second {
		t.Errorf("webhook defaults: %+v", cfg.Clipboard[0])
	}
	if cfg.Status.Addr != "127.0.0.1:8790" {
		t.Errorf("status: %+v", cfg.Status)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"mode":         "browser:\n  mode: sideways\n",
		"webhook url":  "clipboard:\n  - type: webhook\n",
		"unknown sink": "clipboard:\n  - type: fax\n",
		"yaml":         "browser: [",
	}
	for name, data := range tests {
		if _, err := Parse([]byte(data)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ytcopy.yaml")
	if err := os.WriteFile(path, []byte("page:\n  url: https://example.com/watch\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Page.URL != "https://example.com/watch" {
		t.Errorf("url: %q", cfg.Page.URL)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

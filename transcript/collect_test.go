package transcript

import (
	"context"
	"errors"
	"testing"

	"github.com/hazyhaar/ytcopy/dom"
	"github.com/hazyhaar/ytcopy/dom/htmldoc"
)

const panelHTML = `<html><body>
<ytd-engagement-panel-transcript-renderer>
  <div id="header"></div>
  <ytd-transcript-segment-list-renderer>
    <ytd-transcript-segment-renderer><div class="segment-timestamp">0:01</div><yt-formatted-string class="segment-text"> Hello </yt-formatted-string></ytd-transcript-segment-renderer>
    <ytd-transcript-segment-renderer><div class="segment-timestamp">0:02</div><yt-formatted-string class="segment-text">Hello</yt-formatted-string></ytd-transcript-segment-renderer>
    <ytd-transcript-segment-renderer><div class="segment-timestamp">0:03</div><yt-formatted-string class="segment-text">world.</yt-formatted-string></ytd-transcript-segment-renderer>
    <ytd-transcript-segment-renderer><div class="segment-timestamp">0:04</div></ytd-transcript-segment-renderer>
    <ytd-transcript-segment-renderer><div class="segment-timestamp">0:05</div><yt-formatted-string class="segment-text">i think</yt-formatted-string></ytd-transcript-segment-renderer>
  </ytd-transcript-segment-list-renderer>
</ytd-engagement-panel-transcript-renderer>
</body></html>`

func parse(t *testing.T, s string) *htmldoc.Document {
	t.Helper()
	d, err := htmldoc.ParseString(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestCollect_ReadsTextIgnoringTimestamp(t *testing.T) {
	segs, err := Collect(context.Background(), parse(t, panelHTML), DefaultSelectors())
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 5 {
		t.Fatalf("segments: got %d, want 5", len(segs))
	}
	if segs[0].Text != "Hello" {
		t.Errorf("segment 0: got %q (should be trimmed, no timestamp)", segs[0].Text)
	}
	if segs[3].Text != "" {
		t.Errorf("segment 3 has no text element, got %q", segs[3].Text)
	}
}

func TestExtract_EndToEnd(t *testing.T) {
	got, err := Extract(context.Background(), parse(t, panelHTML), DefaultSelectors())
	if err != nil {
		t.Fatal(err)
	}
	if want := "Hello world. I think"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCollect_FirstContainerWins(t *testing.T) {
	doc := parse(t, `<html><body>
<div id="segments-container"><div class="segment"><span class="text">late</span></div></div>
<ytd-transcript-body-renderer><div class="segment"><span class="text">early</span></div></ytd-transcript-body-renderer>
</body></html>`)

	got, err := Extract(context.Background(), doc, DefaultSelectors())
	if err != nil {
		t.Fatal(err)
	}
	// ytd-transcript-body-renderer is first in priority even though it comes
	// later in the document.
	if got != "early" {
		t.Fatalf("got %q, want %q", got, "early")
	}
}

func TestCollect_ItemsInDocumentOrder(t *testing.T) {
	doc := parse(t, `<html><body><div class="segment-list">
<div role="listitem"><span role="text">one</span></div>
<div class="segment"><span class="text">two</span></div>
<div role="listitem"><span role="text">three</span></div>
</div></body></html>`)

	got, err := Extract(context.Background(), doc, DefaultSelectors())
	if err != nil {
		t.Fatal(err)
	}
	if got != "one two three" {
		t.Fatalf("got %q", got)
	}
}

func TestCollect_NotFound(t *testing.T) {
	_, err := Collect(context.Background(), parse(t, `<html><body><ytd-transcript-renderer></ytd-transcript-renderer></body></html>`), DefaultSelectors())
	if !errors.Is(err, dom.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCollect_Empty(t *testing.T) {
	_, err := Collect(context.Background(), parse(t, `<html><body><div id="segments-container"><p>nothing</p></div></body></html>`), DefaultSelectors())
	if !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

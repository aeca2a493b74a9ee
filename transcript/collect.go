package transcript

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hazyhaar/ytcopy/dom"
)

// ErrEmpty is returned when the segment list holds no segment items.
var ErrEmpty = errors.New("transcript: no segments found")

// Selectors locate the segment list inside a host page. Each list is
// ordered; see Collect for how each one is applied.
type Selectors struct {
	Containers []string `yaml:"containers" json:"containers"`
	Items      []string `yaml:"items" json:"items"`
	Text       []string `yaml:"text" json:"text"`
}

// DefaultSelectors match the current watch-page markup.
func DefaultSelectors() Selectors {
	return Selectors{
		Containers: []string{
			"ytd-transcript-body-renderer",
			"ytd-transcript-segment-list-renderer",
			".segment-list",
			"#segments-container",
		},
		Items: []string{
			"ytd-transcript-segment-renderer",
			`[role="listitem"]`,
			".segment",
		},
		Text: []string{
			".segment-text",
			`[role="text"]`,
			".text",
		},
	}
}

// Collect gathers segments from root. The first container selector that
// matches wins. Items are the union of the item selectors in document
// order, and each item's text is read from the first element matching any
// text selector; the timestamp sub-element is never read.
func Collect(ctx context.Context, root dom.Querier, sel Selectors) ([]Segment, error) {
	container, _, err := dom.First(ctx, root, sel.Containers)
	if err != nil {
		return nil, fmt.Errorf("transcript: find container: %w", err)
	}
	if container == nil {
		return nil, fmt.Errorf("transcript: segment container: %w", dom.ErrNotFound)
	}

	items, err := container.QuerySelectorAll(ctx, strings.Join(sel.Items, ", "))
	if err != nil {
		return nil, fmt.Errorf("transcript: find segments: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmpty
	}

	textSel := strings.Join(sel.Text, ", ")
	segments := make([]Segment, 0, len(items))
	for _, item := range items {
		textEl, err := item.QuerySelector(ctx, textSel)
		if err != nil {
			return nil, fmt.Errorf("transcript: find segment text: %w", err)
		}
		var text string
		if textEl != nil {
			text, err = textEl.TextContent(ctx)
			if err != nil {
				return nil, fmt.Errorf("transcript: read segment text: %w", err)
			}
		}
		segments = append(segments, Segment{Text: trimSpace(text)})
	}
	return segments, nil
}

// Extract collects segments from root and normalizes them.
func Extract(ctx context.Context, root dom.Querier, sel Selectors) (string, error) {
	segments, err := Collect(ctx, root, sel)
	if err != nil {
		return "", err
	}
	return Normalize(segments), nil
}

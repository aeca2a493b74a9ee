// Package clipboard defines where a copied transcript goes. The page
// clipboard lives with the live host (dom/roddoc); this package holds the
// system clipboard, JSON-lines and webhook outputs, an in-process callback,
// and the fan-out Router that combines them.
package clipboard

import (
	"context"
	"errors"
)

// ErrRejected marks a write the target refused.
var ErrRejected = errors.New("clipboard: write rejected")

// Writer receives a transcript. Write blocks until the target has accepted
// or rejected the text.
type Writer interface {
	Write(ctx context.Context, text string) error
	Close() error
}

// Entry is the record emitted by structured writers.
type Entry struct {
	ID        string `json:"id"`
	PageURL   string `json:"page_url,omitempty"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"` // epoch milliseconds
}

package clipboard

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/hazyhaar/ytcopy/mutation"
)

// Stdout writes one JSON line per transcript to an io.Writer (default
// os.Stdout).
type Stdout struct {
	mu      sync.Mutex
	enc     *json.Encoder
	pageURL string
}

// NewStdout creates a Stdout writer. If w is nil, os.Stdout is used.
func NewStdout(w io.Writer, pageURL string) *Stdout {
	if w == nil {
		w = os.Stdout
	}
	return &Stdout{enc: json.NewEncoder(w), pageURL: pageURL}
}

func (s *Stdout) Write(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(Entry{
		ID:        mutation.NewID(),
		PageURL:   s.pageURL,
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (s *Stdout) Close() error { return nil }

package clipboard

import (
	"context"
	"fmt"
	"log/slog"
)

// Router fans a write out to every writer. One writer failing does not stop
// the others; failures are logged and the first one is returned, so the
// copy counts as failed.
type Router struct {
	writers []Writer
	logger  *slog.Logger
}

// NewRouter creates a fan-out router.
func NewRouter(logger *slog.Logger, writers ...Writer) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{writers: writers, logger: logger}
}

func (r *Router) Write(ctx context.Context, text string) error {
	if len(r.writers) == 0 {
		return fmt.Errorf("%w: no clipboard configured", ErrRejected)
	}
	var firstErr error
	for _, w := range r.writers {
		if err := w.Write(ctx, text); err != nil {
			r.logger.Warn("clipboard: write failed", "writer", fmt.Sprintf("%T", w), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (r *Router) Close() error {
	var firstErr error
	for _, w := range r.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

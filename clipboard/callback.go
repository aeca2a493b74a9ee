package clipboard

import "context"

// Func receives transcripts in-process.
type Func func(ctx context.Context, text string) error

// Callback delivers transcripts via a Go function call. A nil function
// accepts everything.
type Callback struct {
	fn Func
}

// NewCallback creates a Callback writer.
func NewCallback(fn Func) *Callback {
	return &Callback{fn: fn}
}

func (c *Callback) Write(ctx context.Context, text string) error {
	if c.fn != nil {
		return c.fn(ctx, text)
	}
	return nil
}

func (c *Callback) Close() error { return nil }

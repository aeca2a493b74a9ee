package clipboard

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
)

// System writes to the operating system clipboard of the machine running
// the process (xclip/xsel/wl-copy on Linux, pbcopy on macOS).
type System struct {
	write func(string) error
}

// NewSystem creates a System writer.
func NewSystem() *System {
	return &System{write: clipboard.WriteAll}
}

// Available reports whether a system clipboard backend was found.
func (s *System) Available() bool {
	return !clipboard.Unsupported
}

func (s *System) Write(ctx context.Context, text string) error {
	done := make(chan error, 1)
	go func() { done <- s.write(text) }()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: system: %v", ErrRejected, err)
		}
		return nil
	}
}

func (s *System) Close() error { return nil }

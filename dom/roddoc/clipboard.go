package roddoc

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/ytcopy/clipboard"
)

// Clipboard writes to the page's clipboard with navigator.clipboard. It
// grants clipboard permissions to the page origin on first use.
type Clipboard struct {
	page   *rod.Page
	logger *slog.Logger

	mu      sync.Mutex
	granted string // origin permissions were granted to
}

var _ clipboard.Writer = (*Clipboard)(nil)

// NewClipboard creates a page clipboard writer.
func NewClipboard(page *rod.Page, logger *slog.Logger) *Clipboard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Clipboard{page: page, logger: logger}
}

func (c *Clipboard) Write(ctx context.Context, text string) error {
	page := c.page.Context(ctx)
	if err := c.grant(page); err != nil {
		c.logger.Warn("roddoc: clipboard permission", "error", err)
	}

	// writeText returns a promise; Eval waits for it to settle.
	if _, err := page.Eval(`(t) => navigator.clipboard.writeText(t)`, text); err != nil {
		return fmt.Errorf("%w: %w", clipboard.ErrRejected, err)
	}
	return nil
}

func (c *Clipboard) grant(page *rod.Page) error {
	info, err := page.Info()
	if err != nil {
		return fmt.Errorf("page info: %w", err)
	}
	origin, err := originOf(info.URL)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.granted == origin {
		return nil
	}
	err = proto.BrowserGrantPermissions{
		Permissions: []proto.BrowserPermissionType{
			proto.BrowserPermissionTypeClipboardReadWrite,
			proto.BrowserPermissionTypeClipboardSanitizedWrite,
		},
		Origin: origin,
	}.Call(page.Browser())
	if err != nil {
		return fmt.Errorf("grant %s: %w", origin, err)
	}
	c.granted = origin
	return nil
}

func originOf(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse page url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("page url %q has no origin", raw)
	}
	return u.Scheme + "://" + u.Host, nil
}

func (c *Clipboard) Close() error { return nil }

package roddoc

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-rod/rod"

	"github.com/hazyhaar/ytcopy/dom"
)

var errForeignControl = errors.New("roddoc: control belongs to another document")

type element struct {
	doc *Document
	el  *rod.Element
}

func (e *element) QuerySelector(ctx context.Context, selector string) (dom.Element, error) {
	has, el, err := e.el.Context(ctx).Has(selector)
	if err != nil {
		return nil, fmt.Errorf("roddoc: query %q: %w", selector, err)
	}
	if !has {
		return nil, nil
	}
	return e.doc.wrap(el), nil
}

func (e *element) QuerySelectorAll(ctx context.Context, selector string) ([]dom.Element, error) {
	els, err := e.el.Context(ctx).Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("roddoc: query all %q: %w", selector, err)
	}
	return e.doc.wrapAll(els), nil
}

func (e *element) TextContent(ctx context.Context) (string, error) {
	v, err := e.el.Context(ctx).Property("textContent")
	if err != nil {
		return "", fmt.Errorf("roddoc: text content: %w", err)
	}
	return v.Str(), nil
}

func (e *element) ChildElementCount(ctx context.Context) (int, error) {
	v, err := e.el.Context(ctx).Property("childElementCount")
	if err != nil {
		return 0, fmt.Errorf("roddoc: child count: %w", err)
	}
	return v.Int(), nil
}

// Click dispatches a DOM click, like HTMLElement.click(). It does not move
// the mouse, so hidden host buttons can be activated too.
func (e *element) Click(ctx context.Context) error {
	if _, err := e.el.Context(ctx).Eval(`() => this.click()`); err != nil {
		return fmt.Errorf("roddoc: click: %w", err)
	}
	return nil
}

func (e *element) Append(ctx context.Context, c dom.Control) error {
	return e.insert(ctx, c, `(c) => this.appendChild(c)`)
}

func (e *element) Prepend(ctx context.Context, c dom.Control) error {
	return e.insert(ctx, c, `(c) => this.insertBefore(c, this.firstChild)`)
}

func (e *element) InsertBeforeLast(ctx context.Context, c dom.Control) error {
	return e.insert(ctx, c, `(c) => this.insertBefore(c, this.lastChild)`)
}

func (e *element) insert(ctx context.Context, c dom.Control, js string) error {
	ctl, ok := c.(*control)
	if !ok || ctl.doc != e.doc {
		return errForeignControl
	}
	if _, err := e.el.Context(ctx).Eval(js, ctl.el.Object); err != nil {
		return fmt.Errorf("roddoc: insert %s: %w", ctl.marker, err)
	}
	return nil
}

// control is a button built by the bridge. Clicks reach OnClick's handler
// through the binding, keyed by the control's data-ytcopy-id.
type control struct {
	element
	marker string
	id     string
}

func (c *control) Marker() string { return c.marker }

func (c *control) SetDisabled(ctx context.Context, disabled bool) error {
	if _, err := c.el.Context(ctx).Eval(`(v) => { this.disabled = v }`, disabled); err != nil {
		return fmt.Errorf("roddoc: set disabled: %w", err)
	}
	return nil
}

func (c *control) Label(ctx context.Context) (string, error) {
	res, err := c.el.Context(ctx).Eval(`() => (this.querySelector('span') || this).textContent`)
	if err != nil {
		return "", fmt.Errorf("roddoc: label: %w", err)
	}
	return res.Value.Str(), nil
}

func (c *control) SetLabel(ctx context.Context, text string) error {
	if _, err := c.el.Context(ctx).Eval(`(t) => { (this.querySelector('span') || this).textContent = t }`, text); err != nil {
		return fmt.Errorf("roddoc: set label: %w", err)
	}
	return nil
}

func (c *control) Background(ctx context.Context) (string, error) {
	res, err := c.el.Context(ctx).Eval(`() => this.style.backgroundColor`)
	if err != nil {
		return "", fmt.Errorf("roddoc: background: %w", err)
	}
	return res.Value.Str(), nil
}

func (c *control) SetBackground(ctx context.Context, color string) error {
	if _, err := c.el.Context(ctx).Eval(`(v) => { this.style.backgroundColor = v }`, color); err != nil {
		return fmt.Errorf("roddoc: set background: %w", err)
	}
	return nil
}

// OnClick sets the click handler. A nil fn, or a control replaced by a
// newer one with the same marker, holds no handler.
func (c *control) OnClick(fn func()) {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	if fn == nil || c.doc.live[c.marker] != c.id {
		delete(c.doc.handlers, c.id)
		return
	}
	c.doc.handlers[c.id] = fn
}

package htmldoc

import (
	"context"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/hazyhaar/ytcopy/dom"
	"github.com/hazyhaar/ytcopy/mutation"
)

var errForeignControl = errors.New("htmldoc: control belongs to another document")

type element struct {
	doc  *Document
	node *html.Node
}

func (e *element) QuerySelector(_ context.Context, selector string) (dom.Element, error) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.doc.first(e.node, selector)
}

func (e *element) QuerySelectorAll(_ context.Context, selector string) ([]dom.Element, error) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.doc.all(e.node, selector)
}

func (e *element) TextContent(context.Context) (string, error) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return goquery.NewDocumentFromNode(e.node).Text(), nil
}

func (e *element) ChildElementCount(context.Context) (int, error) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	n := 0
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			n++
		}
	}
	return n, nil
}

// Click runs the host behaviours registered for this element, or the
// control's handler when the element is an enabled control. Handlers run
// on the caller's goroutine after the document lock is released.
func (e *element) Click(context.Context) error {
	e.doc.mu.Lock()
	var fns []func()
	if c, ok := e.doc.controls[e.node]; ok {
		if !c.disabled && c.handler != nil {
			fns = append(fns, c.handler)
		}
	}
	for _, h := range e.doc.hosts {
		if h.match.Match(e.node) {
			fn := h.fn
			fns = append(fns, func() { fn(e.doc) })
		}
	}
	e.doc.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return nil
}

func (e *element) Append(_ context.Context, c dom.Control) error {
	return e.insert(c, func(parent, child *html.Node) { parent.AppendChild(child) })
}

func (e *element) Prepend(_ context.Context, c dom.Control) error {
	return e.insert(c, func(parent, child *html.Node) {
		if parent.FirstChild == nil {
			parent.AppendChild(child)
			return
		}
		parent.InsertBefore(child, parent.FirstChild)
	})
}

func (e *element) InsertBeforeLast(_ context.Context, c dom.Control) error {
	return e.insert(c, func(parent, child *html.Node) {
		if parent.LastChild == nil {
			parent.AppendChild(child)
			return
		}
		parent.InsertBefore(child, parent.LastChild)
	})
}

func (e *element) insert(c dom.Control, place func(parent, child *html.Node)) error {
	ctl, ok := c.(*control)
	if !ok || ctl.doc != e.doc {
		return errForeignControl
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if ctl.node.Parent != nil {
		ctl.node.Parent.RemoveChild(ctl.node)
	}
	place(e.node, ctl.node)
	e.doc.notifyLocked([]mutation.Record{insertRecord(ctl.node, e.node)})
	return nil
}

// control is a button created through CreateControl.
type control struct {
	element
	marker     string
	span       *html.Node
	disabled   bool
	background string
	handler    func()
}

func (c *control) Marker() string { return c.marker }

func (c *control) SetDisabled(_ context.Context, disabled bool) error {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	c.disabled = disabled
	c.node.Attr = withoutAttr(c.node.Attr, "disabled")
	if disabled {
		c.node.Attr = append(c.node.Attr, html.Attribute{Key: "disabled"})
	}
	return nil
}

// Disabled reports the control's disabled state.
func (c *control) Disabled() bool {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	return c.disabled
}

func (c *control) Label(context.Context) (string, error) {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	return goquery.NewDocumentFromNode(c.span).Text(), nil
}

func (c *control) SetLabel(_ context.Context, text string) error {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	for c.span.FirstChild != nil {
		c.span.RemoveChild(c.span.FirstChild)
	}
	c.span.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return nil
}

func (c *control) Background(context.Context) (string, error) {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	return c.background, nil
}

func (c *control) SetBackground(_ context.Context, color string) error {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	c.background = color
	c.node.Attr = withoutAttr(c.node.Attr, "style")
	if color != "" {
		c.node.Attr = append(c.node.Attr, html.Attribute{Key: "style", Val: "background-color: " + color})
	}
	return nil
}

func (c *control) OnClick(fn func()) {
	c.doc.mu.Lock()
	c.handler = fn
	c.doc.mu.Unlock()
}

func withoutAttr(attrs []html.Attribute, key string) []html.Attribute {
	out := attrs[:0]
	for _, a := range attrs {
		if !strings.EqualFold(a.Key, key) {
			out = append(out, a)
		}
	}
	return out
}

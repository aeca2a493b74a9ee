// Package htmldoc implements dom.Document over an in-memory HTML tree.
//
// It behaves like a page for the parts the reconciler relies on: selector
// lookups in document order, child-list change batches delivered
// asynchronously to one subscriber, lifecycle events, and clicks. Host
// behaviour (what a native button does when clicked, host re-renders) is
// scripted by the caller through OnHostClick, AppendHTML and Remove.
package htmldoc

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/ytcopy/dom"
	"github.com/hazyhaar/ytcopy/mutation"
)

// Document is an in-memory host page. It is safe for concurrent use.
type Document struct {
	mu       sync.Mutex
	root     *html.Node
	ready    dom.ReadyState
	controls map[*html.Node]*control
	hosts    []hostBehaviour
	sub      *subscription
	events   chan dom.Event
}

type hostBehaviour struct {
	match cascadia.Selector
	fn    func(d *Document)
}

var selectorCache sync.Map // string -> cascadia.Selector

func compile(sel string) (cascadia.Selector, error) {
	if v, ok := selectorCache.Load(sel); ok {
		return v.(cascadia.Selector), nil
	}
	s, err := cascadia.Compile(sel)
	if err != nil {
		return nil, fmt.Errorf("htmldoc: selector %q: %w", sel, err)
	}
	selectorCache.Store(sel, s)
	return s, nil
}

// New wraps a parsed HTML tree. The ready state starts as complete.
func New(root *html.Node) *Document {
	return &Document{
		root:     root,
		ready:    dom.StateComplete,
		controls: make(map[*html.Node]*control),
		events:   make(chan dom.Event, 64),
	}
}

// Parse reads a full HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("htmldoc: parse: %w", err)
	}
	return New(root), nil
}

// ParseString is Parse over a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// --- dom.Document ---

func (d *Document) QuerySelector(_ context.Context, selector string) (dom.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.first(d.root, selector)
}

func (d *Document) QuerySelectorAll(_ context.Context, selector string) ([]dom.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.all(d.root, selector)
}

func (d *Document) ReadyState(context.Context) (dom.ReadyState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ready, nil
}

func (d *Document) CreateControl(_ context.Context, spec dom.ControlSpec) (dom.Control, error) {
	if spec.Marker == "" {
		return nil, fmt.Errorf("htmldoc: control marker is required")
	}
	btn := &html.Node{
		Type:     html.ElementNode,
		Data:     "button",
		DataAtom: atom.Button,
		Attr: []html.Attribute{
			{Key: "class", Val: spec.Marker + " style-scope ytd-button-renderer"},
		},
	}
	span := &html.Node{Type: html.ElementNode, Data: "span", DataAtom: atom.Span}
	span.AppendChild(&html.Node{Type: html.TextNode, Data: spec.Label})
	btn.AppendChild(span)

	c := &control{element: element{doc: d, node: btn}, marker: spec.Marker, span: span}

	d.mu.Lock()
	d.controls[btn] = c
	d.mu.Unlock()
	return c, nil
}

func (d *Document) Subscribe(_ context.Context, fn func(mutation.Batch)) (dom.Subscription, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.body() == nil {
		return nil, dom.ErrNoBody
	}
	if d.sub != nil {
		d.sub.stop()
	}
	s := newSubscription(d, fn)
	d.sub = s
	return s, nil
}

func (d *Document) Lifecycle() <-chan dom.Event { return d.events }

// --- host scripting ---

// SetReadyState changes document.readyState.
func (d *Document) SetReadyState(rs dom.ReadyState) {
	d.mu.Lock()
	d.ready = rs
	d.mu.Unlock()
}

// Fire emits a lifecycle event. A ready event also moves the ready state to
// interactive.
func (d *Document) Fire(ev dom.Event) {
	if ev.Type == dom.EventReady {
		d.SetReadyState(dom.StateInteractive)
	}
	d.events <- ev
}

// OnHostClick registers what the host does when an element matching
// selector is clicked.
func (d *Document) OnHostClick(selector string, fn func(d *Document)) error {
	m, err := compile(selector)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.hosts = append(d.hosts, hostBehaviour{match: m, fn: fn})
	d.mu.Unlock()
	return nil
}

// AppendHTML parses fragment and appends it to every element matching
// parentSelector. It returns the number of parents written to.
func (d *Document) AppendHTML(parentSelector, fragment string) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	m, err := compile(parentSelector)
	if err != nil {
		return 0, err
	}
	parents := m.MatchAll(d.root)
	var recs []mutation.Record
	for _, p := range parents {
		nodes, err := html.ParseFragment(strings.NewReader(fragment),
			&html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body})
		if err != nil {
			return 0, fmt.Errorf("htmldoc: parse fragment: %w", err)
		}
		for _, n := range nodes {
			p.AppendChild(n)
			recs = append(recs, insertRecord(n, p))
		}
	}
	d.notifyLocked(recs)
	return len(parents), nil
}

// Remove detaches every element matching selector, the way a host
// re-render discards nodes. It returns the number removed.
func (d *Document) Remove(selector string) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	m, err := compile(selector)
	if err != nil {
		return 0, err
	}
	matches := m.MatchAll(d.root)
	var recs []mutation.Record
	for _, n := range matches {
		if n.Parent == nil {
			continue
		}
		p := n.Parent
		p.RemoveChild(n)
		recs = append(recs, mutation.Record{Op: mutation.OpRemove, Tag: n.Data, Parent: p.Data})
	}
	d.notifyLocked(recs)
	return len(recs), nil
}

// Count returns the number of elements matching selector.
func (d *Document) Count(selector string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, err := compile(selector)
	if err != nil {
		return 0
	}
	return len(m.MatchAll(d.root))
}

// Control returns the first live control carrying marker, or nil.
func (d *Document) Control(marker string) dom.Control {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, _ := d.first(d.root, "."+marker)
	if c, ok := el.(*control); ok {
		return c
	}
	return nil
}

// Subscribed reports whether a subscription is live.
func (d *Document) Subscribed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sub != nil
}

// HTML renders the current tree.
func (d *Document) HTML() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var b strings.Builder
	html.Render(&b, d.root)
	return b.String()
}

// --- internals (d.mu held) ---

func (d *Document) body() *html.Node {
	m, _ := compile("body")
	return m.MatchFirst(d.root)
}

func (d *Document) wrap(n *html.Node) dom.Element {
	if c, ok := d.controls[n]; ok {
		return c
	}
	return &element{doc: d, node: n}
}

// first returns the first descendant of scope matching selector, in document
// order. scope itself never matches, as with Element.querySelector.
func (d *Document) first(scope *html.Node, selector string) (dom.Element, error) {
	m, err := compile(selector)
	if err != nil {
		return nil, err
	}
	sel := goquery.NewDocumentFromNode(scope).FindMatcher(m)
	if sel.Length() == 0 {
		return nil, nil
	}
	return d.wrap(sel.Nodes[0]), nil
}

func (d *Document) all(scope *html.Node, selector string) ([]dom.Element, error) {
	m, err := compile(selector)
	if err != nil {
		return nil, err
	}
	sel := goquery.NewDocumentFromNode(scope).FindMatcher(m)
	out := make([]dom.Element, 0, sel.Length())
	for _, n := range sel.Nodes {
		out = append(out, d.wrap(n))
	}
	return out, nil
}

func (d *Document) notifyLocked(recs []mutation.Record) {
	if len(recs) == 0 || d.sub == nil {
		return
	}
	d.sub.push(recs)
}

func insertRecord(n, parent *html.Node) mutation.Record {
	tag := n.Data
	if n.Type == html.TextNode {
		tag = "#text"
	}
	return mutation.Record{Op: mutation.OpInsert, Tag: tag, Parent: parent.Data}
}

// --- subscription ---

type subscription struct {
	doc  *Document
	feed *mutation.Feed
}

func newSubscription(d *Document, fn func(mutation.Batch)) *subscription {
	return &subscription{doc: d, feed: mutation.NewFeed(fn)}
}

func (s *subscription) push(recs []mutation.Record) { s.feed.Push(recs) }

func (s *subscription) stop() { s.feed.Stop() }

func (s *subscription) Unsubscribe() {
	s.doc.mu.Lock()
	if s.doc.sub == s {
		s.doc.sub = nil
	}
	s.doc.mu.Unlock()
	s.stop()
}

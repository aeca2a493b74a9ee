// Package roddoc is the live dom.Document: a go-rod page driven over the
// Chrome DevTools Protocol. An injected bridge script reports structural
// mutations, lifecycle events and clicks on injected controls back through
// a Runtime binding.
package roddoc

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/ytcopy/dom"
	"github.com/hazyhaar/ytcopy/mutation"
)

//go:embed bridge.js
var bridgeJS string

const bindingName = "__ytcopy_binding"

// Options configures a Document.
type Options struct {
	// NavigationEvents are the host event names forwarded as
	// dom.EventNavigate.
	NavigationEvents []string
	// EventBuffer is the capacity of the lifecycle channel. Default: 64.
	EventBuffer int
	Logger      *slog.Logger
}

// Document implements dom.Document over a rod page.
type Document struct {
	page      *rod.Page
	logger    *slog.Logger
	navEvents []string
	events    chan dom.Event

	ctx    context.Context
	cancel context.CancelFunc

	gen    atomic.Uint64
	nextID atomic.Uint64

	mu       sync.Mutex
	sub      *subscription
	handlers map[string]func()
	live     map[string]string // marker -> id of the newest control
	remove   func() error
}

var _ dom.Document = (*Document)(nil)

// New wraps page. Call Install before navigating so the bridge is present
// in every document the page loads.
func New(page *rod.Page, opts Options) *Document {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 64
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Document{
		page:      page,
		logger:    opts.Logger,
		navEvents: opts.NavigationEvents,
		events:    make(chan dom.Event, opts.EventBuffer),
		ctx:       ctx,
		cancel:    cancel,
		handlers:  make(map[string]func()),
		live:      make(map[string]string),
	}
}

// Install registers the binding, schedules the bridge for every new
// document, injects it into the current one and starts listening.
func (d *Document) Install(ctx context.Context) error {
	page := d.page.Context(ctx)

	if err := (proto.RuntimeAddBinding{Name: bindingName}).Call(page); err != nil {
		return fmt.Errorf("roddoc: add binding: %w", err)
	}

	nav, err := json.Marshal(d.navEvents)
	if err != nil {
		return fmt.Errorf("roddoc: encode navigation events: %w", err)
	}
	remove, err := page.EvalOnNewDocument(fmt.Sprintf("(%s)(%s);", bridgeJS, nav))
	if err != nil {
		return fmt.Errorf("roddoc: register bridge: %w", err)
	}
	d.mu.Lock()
	d.remove = remove
	d.mu.Unlock()

	wait := d.page.Context(d.ctx).EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name != bindingName {
			return
		}
		d.handle(e.Payload)
	})
	go wait()

	if _, err := page.Evaluate(rod.Eval(bridgeJS, d.navEvents)); err != nil {
		return fmt.Errorf("roddoc: inject bridge: %w", err)
	}
	d.logger.Debug("roddoc: bridge installed")
	return nil
}

// Close stops listening and disconnects the page-side observer.
func (d *Document) Close() error {
	d.mu.Lock()
	if d.sub != nil {
		d.sub.stop()
		d.sub = nil
	}
	remove := d.remove
	d.remove = nil
	clear(d.handlers)
	clear(d.live)
	d.mu.Unlock()

	d.disconnect()
	d.cancel()
	if remove != nil {
		return remove()
	}
	return nil
}

// message is what the bridge sends through the binding.
type message struct {
	Op      string            `json:"op"`
	Name    string            `json:"name,omitempty"`
	ID      string            `json:"id,omitempty"`
	Gen     uint64            `json:"gen,omitempty"`
	Records []mutation.Record `json:"records,omitempty"`
}

func parseMessage(payload string) (message, error) {
	var m message
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return m, fmt.Errorf("roddoc: parse binding payload: %w", err)
	}
	return m, nil
}

func (d *Document) handle(payload string) {
	m, err := parseMessage(payload)
	if err != nil {
		d.logger.Warn("roddoc: bad binding payload", "error", err)
		return
	}

	switch m.Op {
	case "mutation":
		if m.Gen != d.gen.Load() {
			return
		}
		d.mu.Lock()
		sub := d.sub
		d.mu.Unlock()
		if sub != nil {
			sub.push(m.Records)
		}
	case "click":
		d.mu.Lock()
		fn := d.handlers[m.ID]
		d.mu.Unlock()
		if fn != nil {
			// The event loop must keep draining while the handler runs.
			go fn()
		}
	case "navigate":
		d.emit(dom.Event{Type: dom.EventNavigate, Name: m.Name})
	case "ready":
		d.emit(dom.Event{Type: dom.EventReady})
	case "unload":
		d.emit(dom.Event{Type: dom.EventUnload})
	default:
		d.logger.Debug("roddoc: unknown bridge message", "op", m.Op)
	}
}

func (d *Document) emit(ev dom.Event) {
	select {
	case d.events <- ev:
	default:
		d.logger.Warn("roddoc: lifecycle event dropped", "type", string(ev.Type), "name", ev.Name)
	}
}

// --- dom.Document ---

func (d *Document) QuerySelector(ctx context.Context, selector string) (dom.Element, error) {
	has, el, err := d.page.Context(ctx).Has(selector)
	if err != nil {
		return nil, fmt.Errorf("roddoc: query %q: %w", selector, err)
	}
	if !has {
		return nil, nil
	}
	return d.wrap(el), nil
}

func (d *Document) QuerySelectorAll(ctx context.Context, selector string) ([]dom.Element, error) {
	els, err := d.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("roddoc: query all %q: %w", selector, err)
	}
	return d.wrapAll(els), nil
}

func (d *Document) ReadyState(ctx context.Context) (dom.ReadyState, error) {
	res, err := d.page.Context(ctx).Eval(`() => document.readyState`)
	if err != nil {
		return "", fmt.Errorf("roddoc: ready state: %w", err)
	}
	return dom.ReadyState(res.Value.Str()), nil
}

func (d *Document) CreateControl(ctx context.Context, spec dom.ControlSpec) (dom.Control, error) {
	if spec.Marker == "" {
		return nil, fmt.Errorf("roddoc: control marker is required")
	}
	id := d.newControlID(spec.Marker)
	el, err := d.page.Context(ctx).ElementByJS(rod.Eval(
		`(marker, label, id) => window.__ytcopy_bridge.create(marker, label, id)`,
		spec.Marker, spec.Label, id))
	if err != nil {
		return nil, fmt.Errorf("roddoc: create control: %w", err)
	}
	return &control{element: element{doc: d, el: el}, marker: spec.Marker, id: id}, nil
}

// newControlID allocates the id of a new control with marker. Only the
// newest control of a marker is live: the handler of the one it replaces
// is released.
func (d *Document) newControlID(marker string) string {
	id := fmt.Sprintf("%s-%d", marker, d.nextID.Add(1))
	d.mu.Lock()
	if prev, ok := d.live[marker]; ok {
		delete(d.handlers, prev)
	}
	d.live[marker] = id
	d.mu.Unlock()
	return id
}

func (d *Document) Subscribe(ctx context.Context, fn func(mutation.Batch)) (dom.Subscription, error) {
	gen := d.gen.Add(1)
	res, err := d.page.Context(ctx).Eval(
		`(gen) => window.__ytcopy_bridge ? window.__ytcopy_bridge.observe(gen) : false`, gen)
	if err != nil {
		return nil, fmt.Errorf("roddoc: observe: %w", err)
	}
	if !res.Value.Bool() {
		return nil, dom.ErrNoBody
	}

	s := newSubscription(d, gen, fn)
	d.mu.Lock()
	if d.sub != nil {
		d.sub.stop()
	}
	d.sub = s
	d.mu.Unlock()
	return s, nil
}

func (d *Document) Lifecycle() <-chan dom.Event { return d.events }

func (d *Document) disconnect() {
	_, err := d.page.Eval(`() => window.__ytcopy_bridge && window.__ytcopy_bridge.disconnect()`)
	if err != nil {
		d.logger.Debug("roddoc: disconnect observer", "error", err)
	}
}

func (d *Document) wrap(el *rod.Element) dom.Element {
	return &element{doc: d, el: el}
}

func (d *Document) wrapAll(els rod.Elements) []dom.Element {
	out := make([]dom.Element, 0, len(els))
	for _, el := range els {
		out = append(out, d.wrap(el))
	}
	return out
}

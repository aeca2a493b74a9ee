// Package dom is the narrow view of a host page that the reconciler and the
// transcript pipeline work against. A host is either a live browser tab
// (dom/roddoc) or an in-memory HTML tree (dom/htmldoc).
//
// Selectors are opaque strings handed through to the host. Lookups report an
// absent element as (nil, nil); errors are reserved for host failures.
package dom

import (
	"context"
	"errors"

	"github.com/hazyhaar/ytcopy/mutation"
)

var (
	// ErrNotFound marks an expected anchor, native control or container that
	// is absent from the document.
	ErrNotFound = errors.New("dom: not found")

	// ErrNoBody is returned by Subscribe when the document has no body yet.
	ErrNoBody = errors.New("dom: document has no body")
)

// ReadyState mirrors document.readyState.
type ReadyState string

const (
	StateLoading     ReadyState = "loading"
	StateInteractive ReadyState = "interactive"
	StateComplete    ReadyState = "complete"
)

// EventType classifies host lifecycle notifications.
type EventType string

const (
	EventReady    EventType = "ready"    // DOMContentLoaded
	EventNavigate EventType = "navigate" // soft navigation lifecycle event
	EventUnload   EventType = "unload"   // beforeunload
)

// Event is a host lifecycle notification. Name carries the host event name
// for navigation events (e.g. "yt-navigate-finish").
type Event struct {
	Type EventType
	Name string
}

// Querier finds the first element matching a selector in its scope.
type Querier interface {
	QuerySelector(ctx context.Context, selector string) (Element, error)
}

// Element is a host element. Insertion is the only write this package allows
// on elements the host owns.
type Element interface {
	Querier
	QuerySelectorAll(ctx context.Context, selector string) ([]Element, error)
	TextContent(ctx context.Context) (string, error)
	ChildElementCount(ctx context.Context) (int, error)
	Click(ctx context.Context) error

	Append(ctx context.Context, c Control) error
	Prepend(ctx context.Context, c Control) error
	// InsertBeforeLast inserts c before the last child node.
	InsertBeforeLast(ctx context.Context, c Control) error
}

// Control is an element created by this process.
type Control interface {
	Element
	Marker() string
	SetDisabled(ctx context.Context, disabled bool) error
	Label(ctx context.Context) (string, error)
	SetLabel(ctx context.Context, text string) error
	Background(ctx context.Context) (string, error)
	SetBackground(ctx context.Context, color string) error
	// OnClick sets the handler run when the user activates the control.
	// A disabled control does not fire.
	OnClick(fn func())
}

// ControlSpec describes a control to create.
type ControlSpec struct {
	Marker string // unique class identifying the control kind
	Label  string
}

// Subscription is a live change subscription.
type Subscription interface {
	Unsubscribe()
}

// Document is the host page.
type Document interface {
	Querier
	QuerySelectorAll(ctx context.Context, selector string) ([]Element, error)
	ReadyState(ctx context.Context) (ReadyState, error)
	CreateControl(ctx context.Context, spec ControlSpec) (Control, error)

	// Subscribe delivers structural child-list change batches for the whole
	// body subtree to fn. Batches are not coalesced.
	Subscribe(ctx context.Context, fn func(mutation.Batch)) (Subscription, error)

	// Lifecycle returns the stream of host lifecycle notifications.
	Lifecycle() <-chan Event
}

// First walks candidates in order and returns the first existing match.
// Order encodes priority: later selectors are only tried when earlier ones
// match nothing.
func First(ctx context.Context, q Querier, candidates []string) (Element, string, error) {
	for _, sel := range candidates {
		el, err := q.QuerySelector(ctx, sel)
		if err != nil {
			return nil, sel, err
		}
		if el != nil {
			return el, sel, nil
		}
	}
	return nil, "", nil
}

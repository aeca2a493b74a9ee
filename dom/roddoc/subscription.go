package roddoc

import (
	"github.com/hazyhaar/ytcopy/mutation"
)

// subscription delivers one batch per observer callback on the page, in
// arrival order.
type subscription struct {
	doc  *Document
	gen  uint64
	feed *mutation.Feed
}

func newSubscription(d *Document, gen uint64, fn func(mutation.Batch)) *subscription {
	return &subscription{doc: d, gen: gen, feed: mutation.NewFeed(fn)}
}

func (s *subscription) push(recs []mutation.Record) { s.feed.Push(recs) }

func (s *subscription) stop() { s.feed.Stop() }

// Unsubscribe disconnects the page-side observer when this subscription is
// still the live one.
func (s *subscription) Unsubscribe() {
	d := s.doc
	d.mu.Lock()
	current := d.sub == s
	if current {
		d.sub = nil
	}
	d.mu.Unlock()
	s.stop()

	if current && d.gen.CompareAndSwap(s.gen, s.gen+1) {
		d.disconnect()
	}
}

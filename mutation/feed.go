package mutation

import (
	"sync"
	"time"
)

// Feed delivers pushed record groups to a subscriber on its own goroutine,
// one Batch per group, in push order. Seq starts at 1.
type Feed struct {
	fn func(Batch)

	mu      sync.Mutex
	pending [][]Record
	seq     uint64

	signal chan struct{}
	done   chan struct{}
	once   sync.Once
}

// NewFeed starts delivering to fn. Call Stop to end it.
func NewFeed(fn func(Batch)) *Feed {
	f := &Feed{
		fn:     fn,
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go f.loop()
	return f
}

// Push queues one group. It never blocks on the subscriber.
func (f *Feed) Push(recs []Record) {
	f.mu.Lock()
	f.pending = append(f.pending, recs)
	f.mu.Unlock()
	select {
	case f.signal <- struct{}{}:
	default:
	}
}

// Stop ends delivery and discards pending groups, like
// MutationObserver.disconnect. A batch already handed to the subscriber
// runs to completion. Stop does not wait for it.
func (f *Feed) Stop() {
	f.once.Do(func() { close(f.done) })
	f.mu.Lock()
	f.pending = nil
	f.mu.Unlock()
}

func (f *Feed) next() ([]Record, uint64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pending) == 0 {
		return nil, 0, false
	}
	recs := f.pending[0]
	f.pending = f.pending[1:]
	f.seq++
	return recs, f.seq, true
}

func (f *Feed) loop() {
	for {
		select {
		case <-f.done:
			return
		case <-f.signal:
		}
		for {
			recs, seq, ok := f.next()
			if !ok {
				break
			}
			select {
			case <-f.done:
				return
			default:
			}
			f.fn(Batch{
				ID:        NewID(),
				Seq:       seq,
				Records:   recs,
				Timestamp: time.Now().UnixMilli(),
			})
		}
	}
}

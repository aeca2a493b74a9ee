package mutation

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestBatchCounts(t *testing.T) {
	b := Batch{Records: []Record{
		{Op: OpInsert, Tag: "button", Parent: "div"},
		{Op: OpRemove, Tag: "span"},
		{Op: OpInsert, Tag: "#text"},
	}}
	if got := b.Added(); got != 2 {
		t.Errorf("Added: got %d, want 2", got)
	}
	if got := b.Removed(); got != 1 {
		t.Errorf("Removed: got %d, want 1", got)
	}
}

func TestBatchDecodeFromBridge(t *testing.T) {
	// Shape produced by the page-side observer.
	data := []byte(`{"id":"","seq":3,"records":[{"op":"insert","tag":"ytd-transcript-renderer","parent":"div"}],"timestamp":1708700000000}`)

	got, err := UnmarshalBatch(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.Seq != 3 {
		t.Errorf("Seq: got %d, want 3", got.Seq)
	}
	if len(got.Records) != 1 || got.Records[0].Op != OpInsert {
		t.Fatalf("Records: got %+v", got.Records)
	}
	if got.Records[0].Tag != "ytd-transcript-renderer" {
		t.Errorf("Tag: got %q", got.Records[0].Tag)
	}
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	if a == b {
		t.Fatalf("NewID: duplicate %q", a)
	}
	u, err := uuid.Parse(a)
	if err != nil {
		t.Fatalf("NewID: %v", err)
	}
	if u.Version() != 7 {
		t.Errorf("NewID: version %d, want 7", u.Version())
	}
}

func TestFeedDeliversInOrder(t *testing.T) {
	var mu sync.Mutex
	var got []Batch
	f := NewFeed(func(b Batch) {
		mu.Lock()
		got = append(got, b)
		mu.Unlock()
	})
	defer f.Stop()

	f.Push([]Record{{Op: OpInsert, Tag: "a"}})
	f.Push([]Record{{Op: OpRemove, Tag: "b"}})
	f.Push([]Record{{Op: OpInsert, Tag: "c"}})

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n == 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("batches: got %d, want 3", n)
		}
		time.Sleep(2 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	for i, b := range got {
		if b.Seq != uint64(i+1) {
			t.Errorf("batch %d: seq %d", i, b.Seq)
		}
		if b.ID == "" {
			t.Errorf("batch %d: empty id", i)
		}
	}
	if got[0].Records[0].Tag != "a" || got[2].Records[0].Tag != "c" {
		t.Errorf("order: %+v", got)
	}
}

func TestFeedStopDiscardsPending(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	delivered := 0
	f := NewFeed(func(Batch) {
		<-release
		mu.Lock()
		delivered++
		mu.Unlock()
	})

	f.Push([]Record{{Op: OpInsert}})
	time.Sleep(20 * time.Millisecond) // first batch is now blocked in the subscriber
	f.Push([]Record{{Op: OpInsert}})
	f.Push([]Record{{Op: OpInsert}})
	f.Stop()
	close(release)

	time.Sleep(30 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if delivered != 1 {
		t.Fatalf("delivered %d batches after Stop, want 1", delivered)
	}
}

// Package mutation defines the change notifications a host document delivers
// to its subscriber. Only structural child-list changes are reported:
// attribute and character-data mutations never reach the reconciler.
package mutation

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Op is the type of structural change observed.
type Op string

const (
	OpInsert Op = "insert" // child node added
	OpRemove Op = "remove" // child node removed
)

// Record is a single structural change.
type Record struct {
	Op     Op     `json:"op"`
	Tag    string `json:"tag,omitempty"`    // lowercase tag of the inserted/removed node, "#text" for text
	Parent string `json:"parent,omitempty"` // lowercase tag of the parent
}

// Batch is the unit delivered to a subscriber. One batch corresponds to one
// observer callback on the page: every change recorded since the previous
// delivery.
type Batch struct {
	ID        string   `json:"id"`  // UUIDv7
	Seq       uint64   `json:"seq"` // monotonically increasing per subscription
	Records   []Record `json:"records"`
	Timestamp int64    `json:"timestamp"` // epoch milliseconds at delivery
}

// Added returns the number of insert records in the batch.
func (b Batch) Added() int {
	n := 0
	for _, r := range b.Records {
		if r.Op == OpInsert {
			n++
		}
	}
	return n
}

// Removed returns the number of remove records in the batch.
func (b Batch) Removed() int {
	return len(b.Records) - b.Added()
}

// NewID returns a time-sortable batch identifier.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// MarshalBatch serialises a Batch to JSON.
func MarshalBatch(b *Batch) ([]byte, error) {
	return json.Marshal(b)
}

// UnmarshalBatch deserialises a Batch from JSON.
func UnmarshalBatch(data []byte) (*Batch, error) {
	var b Batch
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

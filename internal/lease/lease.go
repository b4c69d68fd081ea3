// Package lease grants one in-flight asynchronous operation per segment.
//
// The audio pipeline and the rewrite orchestrator both acquire a lease before
// calling out to the network. A second request against the same segment is
// rejected with ErrBusy instead of racing the first one to the final update.
package lease

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrBusy is returned when the segment already has an operation in flight.
var ErrBusy = errors.New("segment busy")

// Holder describes the operation currently holding a segment.
type Holder struct {
	SegmentID string
	Operation string
	Since     time.Time
}

// Table tracks active leases. The zero value is ready to use.
type Table struct {
	mu     sync.Mutex
	active map[string]Holder
}

// NewTable returns an empty lease table.
func NewTable() *Table {
	return &Table{}
}

// Acquire reserves segmentID for op. The returned release func is safe to
// call more than once.
func (t *Table) Acquire(segmentID, op string) (func(), error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		t.active = make(map[string]Holder)
	}
	if held, ok := t.active[segmentID]; ok {
		return nil, fmt.Errorf("%w: %s already running for segment %s", ErrBusy, held.Operation, segmentID)
	}
	t.active[segmentID] = Holder{SegmentID: segmentID, Operation: op, Since: time.Now()}

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.active, segmentID)
			t.mu.Unlock()
		})
	}, nil
}

// Held returns the holder for segmentID, if any.
func (t *Table) Held(segmentID string) (Holder, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	h, ok := t.active[segmentID]
	return h, ok
}

// Active returns a copy of all current leases.
func (t *Table) Active() []Holder {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Holder, 0, len(t.active))
	for _, h := range t.active {
		out = append(out, h)
	}
	return out
}

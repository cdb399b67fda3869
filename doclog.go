package main

import (
	"errors"
	"sync"

	"github.com/ronthekiehn/gandalf/pkg/stroke"
)

var errEmptyStroke = errors.New("stroke has no points")

// DocLog is the in-memory shared document backing a room: an ordered,
// append-only log of finalized strokes. Entries are immutable once pushed;
// they are only ever deleted (undo/clear) and possibly re-pushed as new
// entries. Strokes arrive as single objects, never array-wrapped; Push is
// the boundary that enforces the committed-stroke invariants.
type DocLog struct {
	mu      sync.RWMutex
	entries []stroke.Stroke
}

func NewDocLog() *DocLog {
	return &DocLog{}
}

// Push appends a finalized stroke. A stroke with no points is rejected.
func (d *DocLog) Push(s stroke.Stroke) error {
	if len(s.Points) == 0 {
		return errEmptyStroke
	}
	d.mu.Lock()
	d.entries = append(d.entries, s)
	d.mu.Unlock()
	return nil
}

// Delete removes the entry with the given id, reporting whether it existed.
func (d *DocLog) Delete(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, e := range d.entries {
		if e.ID == id {
			d.entries = append(d.entries[:i], d.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Clear drops every entry.
func (d *DocLog) Clear() {
	d.mu.Lock()
	d.entries = nil
	d.mu.Unlock()
}

// Snapshot returns a copy of the log in append order.
func (d *DocLog) Snapshot() []stroke.Stroke {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]stroke.Stroke(nil), d.entries...)
}

func (d *DocLog) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

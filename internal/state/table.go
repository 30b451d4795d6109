// Package state holds the concurrent mapping from a route's rate-limit
// cells to their GCRA state, keyed by (route index, limit index). It
// generalizes a single per-identifier registry to the two-dimensional key
// a route table requires, built on sync.Map so that admission of an
// already-present key never takes a lock that blocks an unrelated key.
package state

import (
	"sync"

	"github.com/haut-oss/routelimit/internal/gcra"
)

// Key identifies one (route, limit) pair's cell.
type Key struct {
	RouteIndex int
	LimitIndex int
}

// Table is a concurrent Key -> *gcra.State map with lazy insertion.
type Table struct {
	cells sync.Map // Key -> *gcra.State
}

// New returns an empty table.
func New() *Table {
	return &Table{}
}

// GetOrCreate returns the cell for key, creating and inserting a freshly
// recovered one on first use. Concurrent first-touches converge on a
// single winning cell: LoadOrStore is the map's own get-or-insert
// primitive, so there is no check-then-insert race.
func (t *Table) GetOrCreate(key Key) *gcra.State {
	if v, ok := t.cells.Load(key); ok {
		return v.(*gcra.State)
	}

	actual, _ := t.cells.LoadOrStore(key, gcra.New())

	return actual.(*gcra.State)
}

// Len returns the current number of tracked cells.
func (t *Table) Len() int {
	n := 0
	t.cells.Range(func(_, _ any) bool {
		n++
		return true
	})

	return n
}

// Cleanup removes cells that have been fully recovered for at least one
// extra window's worth of time, i.e. tat <= now - 2*window. windowOf
// reports the limit window for a key and ok=false when the key is no
// longer valid against the current route table (defensive bounds check);
// either case causes the entry to be evicted. Safe to call concurrently
// with admission.
func (t *Table) Cleanup(now uint64, windowOf func(Key) (window uint64, ok bool)) {
	t.cells.Range(func(k, v any) bool {
		key := k.(Key)
		cell := v.(*gcra.State)

		window, ok := windowOf(key)
		if !ok {
			t.cells.Delete(key)
			return true
		}

		threshold := saturatingSub(now, saturatingMul(window, 2))
		if cell.TAT() <= threshold {
			t.cells.Delete(key)
		}

		return true
	})
}

func saturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}

	return a - b
}

func saturatingMul(a, b uint64) uint64 {
	if a == 0 || b == 0 {
		return 0
	}

	product := a * b
	if product/a != b {
		return ^uint64(0)
	}

	return product
}

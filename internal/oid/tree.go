package oid

import (
	"sort"
	"sync"

	radix "github.com/armon/go-radix"
)

// Entry is one (OID, payload) pair held by a Tree. Payload is opaque to this
// package — profile.Store stores a (*profile.ProfileEntry) here.
type Entry struct {
	OID     OID
	Payload interface{}
}

// Tree is an ordered OID -> payload map supporting O(1) point lookup (via a
// radix tree keyed on the dotted string form) and binary-searched strict-
// successor / bounded-walk lookups (via a sorted index of canonical OIDs).
//
// A Tree is built once (during profile load) and then frozen: further reads
// are safe for concurrent access (each read takes the Tree's mutex, and
// nothing mutates after Freeze). Reloads build a brand new Tree and the old one is discarded, which
// gives the "copy-on-write with atomic pointer swap" behavior profile.Store
// wants without needing a persistent/structural-sharing tree implementation.
type Tree struct {
	mu     sync.RWMutex
	radix  *radix.Tree
	sorted []OID
	dirty  bool
}

// NewTree returns an empty, mutable Tree.
func NewTree() *Tree {
	return &Tree{radix: radix.New()}
}

// Insert adds or overwrites oid -> payload. Safe to call repeatedly while
// building a Tree; call Freeze (or any read) once insertion is done.
func (t *Tree) Insert(o OID, payload interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := o.String()
	if _, existed := t.radix.Insert(key, Entry{OID: o.Clone(), Payload: payload}); !existed {
		t.sorted = append(t.sorted, o.Clone())
	}
	t.dirty = true
}

// Freeze sorts the index so GetNext/BulkWalk/ListOIDs are ready for
// concurrent readers. Idempotent; safe to call more than once.
func (t *Tree) Freeze() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ensureSortedLocked()
}

func (t *Tree) ensureSortedLocked() {
	if !t.dirty {
		return
	}
	sort.Slice(t.sorted, func(i, j int) bool { return t.sorted[i].Less(t.sorted[j]) })
	t.dirty = false
}

// Get returns the payload stored at oid, or ok=false if absent.
func (t *Tree) Get(o OID) (payload interface{}, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, found := t.radix.Get(o.String())
	if !found {
		return nil, false
	}
	return v.(Entry).Payload, true
}

// GetNext returns the strict successor of oid in lexicographic order, or
// ok=false if oid is the last entry (EndOfMib).
func (t *Tree) GetNext(o OID) (next OID, payload interface{}, ok bool) {
	t.mu.Lock()
	t.ensureSortedLocked()
	idx := t.firstGreaterLocked(o)
	if idx >= len(t.sorted) {
		t.mu.Unlock()
		return nil, nil, false
	}
	found := t.sorted[idx]
	t.mu.Unlock()

	payload, ok = t.Get(found)
	return found, payload, ok
}

// BulkWalk returns up to n entries whose OID is strictly greater than start,
// in order. Used to satisfy GETBULK's repeater semantics (§4.H).
func (t *Tree) BulkWalk(start OID, n int) []Entry {
	if n <= 0 {
		return nil
	}
	t.mu.Lock()
	t.ensureSortedLocked()
	idx := t.firstGreaterLocked(start)
	end := idx + n
	if end > len(t.sorted) {
		end = len(t.sorted)
	}
	keys := append([]OID(nil), t.sorted[idx:end]...)
	t.mu.Unlock()

	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		if v, ok := t.Get(k); ok {
			out = append(out, Entry{OID: k, Payload: v})
		}
	}
	return out
}

// firstGreaterLocked returns the index of the first sorted entry strictly
// greater than o (or len(sorted) if none). Caller must hold t.mu and have
// called ensureSortedLocked.
func (t *Tree) firstGreaterLocked(o OID) int {
	return sort.Search(len(t.sorted), func(i int) bool {
		return t.sorted[i].Compare(o) > 0
	})
}

// Size returns the number of entries.
func (t *Tree) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sorted)
}

// Empty reports whether the tree holds no entries.
func (t *Tree) Empty() bool { return t.Size() == 0 }

// ListOIDs returns all OIDs in ascending order.
func (t *Tree) ListOIDs() []OID {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ensureSortedLocked()
	out := make([]OID, len(t.sorted))
	for i, o := range t.sorted {
		out[i] = o.Clone()
	}
	return out
}

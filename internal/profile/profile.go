// Package profile implements the Profile Store (spec component C): an
// immutable, shareable mapping from a device_type's walk file to an OID tree
// of typed values and simulation behaviors, plus a refcounted registry
// keyed by device_type so multiple device actors of the same type can share
// one Profile without copying it.
//
// Grounded on the teacher's internal/store/parser.go, template.go and
// dataset_store.go (multi-dataset resolution by name), adapted from a
// mutable shared OIDDatabase to an immutable Profile swapped atomically on
// reload.
package profile

import (
	"fmt"

	"github.com/debashish-mukherjee/go-snmpsim/internal/oid"
	"github.com/debashish-mukherjee/go-snmpsim/internal/walkfile"
)

// ProfileEntry is one simulated OID: its static (base) walk-file value plus
// the behavior that turns it into a time-varying one.
type ProfileEntry struct {
	OID       oid.OID
	Name      string
	Type      int32 // gosnmp.Asn1BER, kept as int32 to avoid importing gosnmp here
	BaseValue interface{}
	Behavior  Behavior
}

// Profile is one device_type's complete simulated OID space.
type Profile struct {
	DeviceType string
	Tree       *oid.Tree
	Entries    map[string]*ProfileEntry // keyed by OID.String()
}

// DuplicateOIDError reports invariant P1 (every OID in a profile is unique).
type DuplicateOIDError struct {
	DeviceType string
	OID        string
}

func (e *DuplicateOIDError) Error() string {
	return fmt.Sprintf("profile %q: duplicate OID %s", e.DeviceType, e.OID)
}

// EmptyProfileError reports invariant P2 (a profile must contain at least
// one resolvable OID to be usable by a device actor).
type EmptyProfileError struct {
	DeviceType string
}

func (e *EmptyProfileError) Error() string {
	return fmt.Sprintf("profile %q: no resolvable OIDs", e.DeviceType)
}

// Build constructs a Profile from parsed walk-file entries. Entries with a
// nil OID (unresolved MIB object, see walkfile.Entry) are skipped: they
// cannot participate in GET/GETNEXT/GETBULK traversal.
//
// Invariants enforced:
//   - P1: no two entries may resolve to the same OID.
//   - P2: the resulting profile must be non-empty.
func Build(deviceType string, parsed []walkfile.Entry) (*Profile, error) {
	tree := oid.NewTree()
	entries := make(map[string]*ProfileEntry)

	for _, pe := range parsed {
		if pe.OID == nil {
			continue
		}
		key := pe.OID.String()
		if _, dup := entries[key]; dup {
			return nil, &DuplicateOIDError{DeviceType: deviceType, OID: key}
		}

		name := pe.MIBName
		if objName, ok := walkfile.NameForOID(key); ok {
			name = objName
		}

		entry := &ProfileEntry{
			OID:       pe.OID,
			Name:      name,
			Type:      int32(pe.Type),
			BaseValue: pe.Value,
			Behavior:  analyze(name, pe.Type),
		}
		entries[key] = entry
		tree.Insert(pe.OID, entry)
	}

	if len(entries) == 0 {
		return nil, &EmptyProfileError{DeviceType: deviceType}
	}

	tree.Freeze()
	return &Profile{DeviceType: deviceType, Tree: tree, Entries: entries}, nil
}

// Get returns the entry at exactly oid.
func (p *Profile) Get(o oid.OID) (*ProfileEntry, bool) {
	v, ok := p.Tree.Get(o)
	if !ok {
		return nil, false
	}
	return v.(*ProfileEntry), true
}

// GetNext returns the strict successor entry of oid, or ok=false at the end
// of the MIB view.
func (p *Profile) GetNext(o oid.OID) (*ProfileEntry, bool) {
	_, v, ok := p.Tree.GetNext(o)
	if !ok {
		return nil, false
	}
	return v.(*ProfileEntry), true
}

// BulkWalk returns up to n entries strictly after start, in OID order.
func (p *Profile) BulkWalk(start oid.OID, n int) []*ProfileEntry {
	raw := p.Tree.BulkWalk(start, n)
	out := make([]*ProfileEntry, len(raw))
	for i, e := range raw {
		out[i] = e.Payload.(*ProfileEntry)
	}
	return out
}

// Size returns the number of resolvable OIDs in the profile.
func (p *Profile) Size() int { return p.Tree.Size() }

// Package oid implements the canonical OID representation and lexicographic
// ordering used across the simulator: an ordered sequence of non-negative
// integers, compared componentwise with "shorter is less on a common prefix".
package oid

import (
	"fmt"
	"strconv"
	"strings"
)

// OID is the canonical integer-sequence form of an object identifier.
type OID []uint32

// Parse converts a dotted string ("1.3.6.1.2.1.1.1.0" or ".1.3.6...") into
// its canonical OID form.
func Parse(s string) (OID, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), ".")
	if s == "" {
		return nil, fmt.Errorf("oid: empty string")
	}
	parts := strings.Split(s, ".")
	out := make(OID, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("oid: invalid component %q: %w", p, err)
		}
		out = append(out, uint32(n))
	}
	return out, nil
}

// MustParse is Parse but panics on error; for use with compile-time-known OIDs.
func MustParse(s string) OID {
	o, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return o
}

// String renders the dotted-decimal wire form, without a leading dot.
func (o OID) String() string {
	if len(o) == 0 {
		return ""
	}
	var b strings.Builder
	for i, c := range o {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.FormatUint(uint64(c), 10))
	}
	return b.String()
}

// Compare returns -1, 0, 1 comparing o to other componentwise; when one is a
// strict prefix of the other, the shorter OID compares less.
func (o OID) Compare(other OID) int {
	n := len(o)
	if len(other) < n {
		n = len(other)
	}
	for i := 0; i < n; i++ {
		if o[i] != other[i] {
			if o[i] < other[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(o) < len(other):
		return -1
	case len(o) > len(other):
		return 1
	default:
		return 0
	}
}

// Less reports whether o sorts strictly before other.
func (o OID) Less(other OID) bool { return o.Compare(other) < 0 }

// Equal reports whether o and other are the same sequence.
func (o OID) Equal(other OID) bool { return o.Compare(other) == 0 }

// Clone returns an independent copy of o.
func (o OID) Clone() OID {
	c := make(OID, len(o))
	copy(c, o)
	return c
}

// Append returns a new OID with extra components appended.
func (o OID) Append(extra ...uint32) OID {
	c := make(OID, 0, len(o)+len(extra))
	c = append(c, o...)
	c = append(c, extra...)
	return c
}

// Package bulk implements the Bulk Engine (spec component H): the
// GETBULK repeat/truncate algorithm layered on profile.Profile's GetNext
// and BulkWalk. Grounded on the teacher's
// internal/agent/agent.go handleGetBulkRequest, generalized from a fixed
// Zabbix-default repeater count to the spec's explicit size-bound
// truncation and named validation errors.
package bulk

import (
	"fmt"

	"github.com/gosnmp/gosnmp"

	"github.com/debashish-mukherjee/go-snmpsim/internal/oid"
	"github.com/debashish-mukherjee/go-snmpsim/internal/profile"
	"github.com/debashish-mukherjee/go-snmpsim/internal/simulate"
)

const defaultCapBytes = 1400
const wireOverheadBytes = 50

// InvalidNonRepeaters reports a negative non-repeaters count.
type InvalidNonRepeaters struct{ N int }

func (e InvalidNonRepeaters) Error() string { return fmt.Sprintf("bulk: invalid non-repeaters %d", e.N) }

// InvalidMaxRepetitions reports a negative max-repetitions count.
type InvalidMaxRepetitions struct{ M int }

func (e InvalidMaxRepetitions) Error() string {
	return fmt.Sprintf("bulk: invalid max-repetitions %d", e.M)
}

// NonRepeatersExceedsVarbinds reports N > len(varbinds).
type NonRepeatersExceedsVarbinds struct{ N, Count int }

func (e NonRepeatersExceedsVarbinds) Error() string {
	return fmt.Sprintf("bulk: non-repeaters %d exceeds %d varbinds", e.N, e.Count)
}

// TooBig reports that even the first result exceeds the configured cap.
type TooBig struct{ CapBytes int }

func (e TooBig) Error() string { return fmt.Sprintf("bulk: response exceeds %d byte cap", e.CapBytes) }

// SimulateFunc synthesizes the current wire value for a resolved profile
// entry; the caller supplies it already bound to the device's State/time/
// rng so this package stays unaware of simulation internals.
type SimulateFunc func(*profile.ProfileEntry) simulate.Value

// Run executes the GETBULK algorithm of §4.H: non_repeaters get a single
// GETNEXT each, the remaining varbinds get up to max_repetitions successive
// GETNEXT results each (concatenated per varbind, not interleaved — see
// the reference-traversal note in §4.H), and the whole result is truncated
// to fit capBytes.
func Run(prof *profile.Profile, nonRepeaters, maxRepetitions int, vars []gosnmp.SnmpPDU, simulateFn SimulateFunc, capBytes int) ([]gosnmp.SnmpPDU, error) {
	if nonRepeaters < 0 {
		return nil, InvalidNonRepeaters{N: nonRepeaters}
	}
	if maxRepetitions < 0 {
		return nil, InvalidMaxRepetitions{M: maxRepetitions}
	}
	if nonRepeaters > len(vars) {
		return nil, NonRepeatersExceedsVarbinds{N: nonRepeaters, Count: len(vars)}
	}
	if capBytes <= 0 {
		capBytes = defaultCapBytes
	}

	var out []gosnmp.SnmpPDU

	nrVars, repVars := vars[:nonRepeaters], vars[nonRepeaters:]

	for _, v := range nrVars {
		o, err := oid.Parse(v.Name)
		if err != nil {
			out = append(out, gosnmp.SnmpPDU{Name: v.Name, Type: gosnmp.EndOfMibView})
			continue
		}
		entry, ok := prof.GetNext(o)
		if !ok {
			out = append(out, gosnmp.SnmpPDU{Name: v.Name, Type: gosnmp.EndOfMibView})
			continue
		}
		val := simulateFn(entry)
		out = append(out, gosnmp.SnmpPDU{Name: entry.OID.String(), Type: val.Type, Value: val.Data})
	}

	if maxRepetitions > 0 {
		for _, v := range repVars {
			start, err := oid.Parse(v.Name)
			if err != nil {
				out = append(out, gosnmp.SnmpPDU{Name: v.Name, Type: gosnmp.EndOfMibView})
				continue
			}
			entries := prof.BulkWalk(start, maxRepetitions)
			if len(entries) == 0 {
				out = append(out, gosnmp.SnmpPDU{Name: v.Name, Type: gosnmp.EndOfMibView})
				continue
			}
			for _, entry := range entries {
				val := simulateFn(entry)
				out = append(out, gosnmp.SnmpPDU{Name: entry.OID.String(), Type: val.Type, Value: val.Data})
			}
		}
	}

	return truncateToSize(out, capBytes)
}

// truncateToSize drops trailing varbinds once the running wire-size
// estimate would exceed capBytes. Returns TooBig if even the first result
// alone exceeds the cap.
func truncateToSize(vars []gosnmp.SnmpPDU, capBytes int) ([]gosnmp.SnmpPDU, error) {
	if len(vars) == 0 {
		return vars, nil
	}

	size := wireOverheadBytes
	for i, v := range vars {
		vs := size + varbindSize(v)
		if vs > capBytes {
			if i == 0 {
				return nil, TooBig{CapBytes: capBytes}
			}
			return vars[:i], nil
		}
		size = vs
	}
	return vars, nil
}

// varbindSize estimates one varbind's on-wire size per §4.H's formula:
// len(oid-string) + 10 + value-size + 8 (the trailing +8 is fixed per-varbind
// BER sequence/header overhead, on top of the value's own encoded size).
func varbindSize(v gosnmp.SnmpPDU) int {
	base := len(v.Name) + 10 + 8

	switch v.Type {
	case gosnmp.Counter32, gosnmp.Gauge32, gosnmp.TimeTicks, gosnmp.IPAddress:
		return base + 8
	case gosnmp.Counter64:
		return base + 12
	case gosnmp.OctetString:
		if s, ok := v.Value.(string); ok {
			return base + len(s) + 4
		}
		return base + 4
	case gosnmp.Integer:
		return base + 8
	case gosnmp.ObjectIdentifier:
		if s, ok := v.Value.(string); ok {
			return base + len(s) + 4
		}
		return base + 4
	case gosnmp.NoSuchObject, gosnmp.NoSuchInstance, gosnmp.EndOfMibView:
		return base + 4
	case gosnmp.Null:
		return base + 4
	default:
		return base + 8
	}
}

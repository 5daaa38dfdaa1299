package bulk

import (
	"testing"

	"github.com/gosnmp/gosnmp"

	"github.com/debashish-mukherjee/go-snmpsim/internal/oid"
	"github.com/debashish-mukherjee/go-snmpsim/internal/profile"
	"github.com/debashish-mukherjee/go-snmpsim/internal/simulate"
	"github.com/debashish-mukherjee/go-snmpsim/internal/walkfile"
)

func testProfile(t *testing.T) *profile.Profile {
	t.Helper()
	entries := []walkfile.Entry{
		{OID: oid.MustParse("1.3.6.1.2.1.2.2.1.1.1"), Type: gosnmp.Integer, Value: 1},
		{OID: oid.MustParse("1.3.6.1.2.1.2.2.1.1.2"), Type: gosnmp.Integer, Value: 2},
		{OID: oid.MustParse("1.3.6.1.2.1.2.2.1.1.3"), Type: gosnmp.Integer, Value: 3},
		{OID: oid.MustParse("1.3.6.1.2.1.2.2.1.1.4"), Type: gosnmp.Integer, Value: 4},
	}
	p, err := profile.Build("generic", entries)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return p
}

func passthroughSimulate(e *profile.ProfileEntry) simulate.Value {
	return simulate.Value{Type: gosnmp.Integer, Data: e.BaseValue}
}

func TestRunValidatesNonRepeaters(t *testing.T) {
	p := testProfile(t)
	if _, err := Run(p, -1, 1, nil, passthroughSimulate, 1400); err == nil {
		t.Fatalf("expected InvalidNonRepeaters")
	}
}

func TestRunValidatesNonRepeatersExceedsVarbinds(t *testing.T) {
	p := testProfile(t)
	vars := []gosnmp.SnmpPDU{{Name: "1.3.6.1.2.1.2.2.1.1.1"}}
	if _, err := Run(p, 5, 1, vars, passthroughSimulate, 1400); err == nil {
		t.Fatalf("expected NonRepeatersExceedsVarbinds")
	}
}

func TestRunNonRepeatersGetSingleNext(t *testing.T) {
	p := testProfile(t)
	vars := []gosnmp.SnmpPDU{{Name: "1.3.6.1.2.1.2.2.1.1.1"}}
	out, err := Run(p, 1, 0, vars, passthroughSimulate, 1400)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out) != 1 || out[0].Name != "1.3.6.1.2.1.2.2.1.1.2" {
		t.Fatalf("expected single successor, got %+v", out)
	}
}

func TestRunRepeatersWalkUpToMax(t *testing.T) {
	p := testProfile(t)
	vars := []gosnmp.SnmpPDU{{Name: "1.3.6.1.2.1.2.2.1.1.1"}}
	out, err := Run(p, 0, 2, vars, passthroughSimulate, 1400)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 repeated entries, got %d", len(out))
	}
}

func TestRunRepeatersEndOfMibViewAtEnd(t *testing.T) {
	p := testProfile(t)
	vars := []gosnmp.SnmpPDU{{Name: "1.3.6.1.2.1.2.2.1.1.4"}}
	out, err := Run(p, 0, 3, vars, passthroughSimulate, 1400)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out) != 1 || out[0].Type != gosnmp.EndOfMibView {
		t.Fatalf("expected EndOfMibView at end of tree, got %+v", out)
	}
}

func TestRunTooBigWhenFirstResultExceedsCap(t *testing.T) {
	p := testProfile(t)
	vars := []gosnmp.SnmpPDU{{Name: "1.3.6.1.2.1.2.2.1.1.1"}}
	if _, err := Run(p, 1, 0, vars, passthroughSimulate, 10); err == nil {
		t.Fatalf("expected TooBig")
	}
}

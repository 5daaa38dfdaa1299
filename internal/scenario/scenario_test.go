package scenario

import (
	"context"
	"testing"

	"github.com/gosnmp/gosnmp"

	"github.com/debashish-mukherjee/go-snmpsim/internal/device"
	"github.com/debashish-mukherjee/go-snmpsim/internal/oid"
	"github.com/debashish-mukherjee/go-snmpsim/internal/profile"
	"github.com/debashish-mukherjee/go-snmpsim/internal/walkfile"
)

func testActors(t *testing.T, n int) []*device.Actor {
	t.Helper()
	entries := []walkfile.Entry{
		{OID: oid.MustParse("1.3.6.1.2.1.1.1.0"), Type: gosnmp.OctetString, Value: "Device"},
	}
	prof, err := profile.Build("cable_modem", entries)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	// InstallErrorCondition round-trips through the actor's loop, so each
	// actor must be running.
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	actors := make([]*device.Actor, n)
	for i := range actors {
		actors[i] = device.New(device.Info{ID: "dev", Port: 30000 + i, DeviceType: "cable_modem"}, prof, nil, int64(i+1))
		go actors[i].Run(ctx)
	}
	return actors
}

func TestRunNetworkOutageImmediateAffectsAllDevices(t *testing.T) {
	r := New(1)
	actors := testActors(t, 5)
	desc, err := r.Run(NetworkOutage, Params{Pattern: "immediate", DurationMS: 1000}, actors)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if desc.DevicesAffected != 5 {
		t.Fatalf("expected all 5 devices affected, got %d", desc.DevicesAffected)
	}
	if len(desc.ConditionsApplied) != 5 {
		t.Fatalf("expected 5 conditions applied, got %d", len(desc.ConditionsApplied))
	}
}

func TestRunTargetFractionNarrowsDeviceSet(t *testing.T) {
	r := New(1)
	actors := testActors(t, 10)
	desc, err := r.Run(HighLoad, Params{Pattern: "steady", TargetFraction: 0.3}, actors)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if desc.DevicesAffected != 3 {
		t.Fatalf("expected 3 devices affected (ceil(10*0.3)), got %d", desc.DevicesAffected)
	}
}

func TestRunUnknownScenarioErrors(t *testing.T) {
	r := New(1)
	actors := testActors(t, 1)
	_, err := r.Run(Name("bogus"), Params{}, actors)
	if _, ok := err.(UnknownScenarioError); !ok {
		t.Fatalf("expected UnknownScenarioError, got %v", err)
	}
}

func TestRunEnvironmentalScalesWithSeverity(t *testing.T) {
	r := New(1)
	actors := testActors(t, 1)
	desc, err := r.Run(Environmental, Params{Severity: Severe, EnvironmentalKind: Power, DurationMS: 500}, actors)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if desc.DevicesAffected != 1 {
		t.Fatalf("expected 1 device affected, got %d", desc.DevicesAffected)
	}
}

func TestRunAssignsDistinctScenarioIDs(t *testing.T) {
	r := New(1)
	actors := testActors(t, 1)
	d1, _ := r.Run(DeviceFlapping, Params{Pattern: "regular"}, actors)
	d2, _ := r.Run(DeviceFlapping, Params{Pattern: "regular"}, actors)
	if d1.ScenarioID == d2.ScenarioID {
		t.Fatalf("expected distinct scenario IDs, got %q twice", d1.ScenarioID)
	}
}

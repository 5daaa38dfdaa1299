package pool

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/debashish-mukherjee/go-snmpsim/internal/profile"
)

func setupStore(t *testing.T) *profile.Store {
	t.Helper()
	store := profile.NewStore()
	path := filepath.Join(t.TempDir(), "cable_modem.walk")
	contents := ".1.3.6.1.2.1.1.1.0 = STRING: \"Cable Modem\"\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := store.LoadWalkProfile("cable_modem", path); err != nil {
		t.Fatalf("LoadWalkProfile: %v", err)
	}
	return store
}

func TestConfigurePortAssignmentsRejectsOverlap(t *testing.T) {
	p := New(Config{MaxDevices: 10}, profile.NewStore())
	defer p.Stop()
	err := p.ConfigurePortAssignments([]Assignment{
		{DeviceType: "cable_modem", Range: PortRange{Start: 30000, End: 30999}},
		{DeviceType: "router", Range: PortRange{Start: 30500, End: 31000}},
	})
	if _, ok := err.(OverlappingRangesError); !ok {
		t.Fatalf("expected OverlappingRangesError, got %v", err)
	}
}

func TestConfigurePortAssignmentsRejectsEmptyRange(t *testing.T) {
	p := New(Config{MaxDevices: 10}, profile.NewStore())
	defer p.Stop()
	err := p.ConfigurePortAssignments([]Assignment{
		{DeviceType: "cable_modem", Range: PortRange{Start: 30100, End: 30000}},
	})
	if _, ok := err.(EmptyRangeError); !ok {
		t.Fatalf("expected EmptyRangeError, got %v", err)
	}
}

func TestConfigurePortAssignmentsRejectsOversizedTotal(t *testing.T) {
	p := New(Config{MaxDevices: 10}, profile.NewStore())
	defer p.Stop()
	err := p.ConfigurePortAssignments([]Assignment{
		{DeviceType: "cable_modem", Range: PortRange{Start: 1, End: 200000}},
	})
	if _, ok := err.(RangeTooLargeError); !ok {
		t.Fatalf("expected RangeTooLargeError, got %v", err)
	}
}

func TestGetOrCreateDeviceIsIdempotent(t *testing.T) {
	store := setupStore(t)
	p := New(Config{MaxDevices: 10, IdleTimeout: time.Hour}, store)
	defer p.ShutdownAllDevices()
	defer p.Stop()

	if err := p.ConfigurePortAssignments([]Assignment{
		{DeviceType: "cable_modem", Range: PortRange{Start: 30000, End: 30999}, Community: "public"},
	}); err != nil {
		t.Fatalf("ConfigurePortAssignments: %v", err)
	}

	a1, err := p.GetOrCreateDevice(30001)
	if err != nil {
		t.Fatalf("GetOrCreateDevice: %v", err)
	}
	a2, err := p.GetOrCreateDevice(30001)
	if err != nil {
		t.Fatalf("GetOrCreateDevice: %v", err)
	}
	if a1 != a2 {
		t.Fatalf("expected the same actor instance on repeated GetOrCreateDevice")
	}

	stats := p.GetStats()
	if stats.TotalDevices != 1 {
		t.Fatalf("expected 1 device, got %+v", stats)
	}
}

func TestGetOrCreateDeviceUnknownPort(t *testing.T) {
	p := New(Config{MaxDevices: 10}, profile.NewStore())
	defer p.Stop()
	if err := p.ConfigurePortAssignments([]Assignment{
		{DeviceType: "cable_modem", Range: PortRange{Start: 30000, End: 30999}},
	}); err != nil {
		t.Fatalf("ConfigurePortAssignments: %v", err)
	}
	_, err := p.GetOrCreateDevice(1)
	if _, ok := err.(UnknownPortRange); !ok {
		t.Fatalf("expected UnknownPortRange, got %v", err)
	}
}

func TestGetOrCreateDeviceRespectsMaxDevices(t *testing.T) {
	store := setupStore(t)
	p := New(Config{MaxDevices: 1, IdleTimeout: time.Hour}, store)
	defer p.ShutdownAllDevices()
	defer p.Stop()
	if err := p.ConfigurePortAssignments([]Assignment{
		{DeviceType: "cable_modem", Range: PortRange{Start: 30000, End: 30999}},
	}); err != nil {
		t.Fatalf("ConfigurePortAssignments: %v", err)
	}
	if _, err := p.GetOrCreateDevice(30001); err != nil {
		t.Fatalf("GetOrCreateDevice: %v", err)
	}
	_, err := p.GetOrCreateDevice(30002)
	if _, ok := err.(MaxDevicesReached); !ok {
		t.Fatalf("expected MaxDevicesReached, got %v", err)
	}
}

func TestShutdownDeviceRemovesFromRegistry(t *testing.T) {
	store := setupStore(t)
	p := New(Config{MaxDevices: 10, IdleTimeout: time.Hour}, store)
	defer p.Stop()
	if err := p.ConfigurePortAssignments([]Assignment{
		{DeviceType: "cable_modem", Range: PortRange{Start: 30000, End: 30999}},
	}); err != nil {
		t.Fatalf("ConfigurePortAssignments: %v", err)
	}
	if _, err := p.GetOrCreateDevice(30001); err != nil {
		t.Fatalf("GetOrCreateDevice: %v", err)
	}
	p.ShutdownDevice(30001)
	if got := p.GetStats().TotalDevices; got != 0 {
		t.Fatalf("expected 0 devices after shutdown, got %d", got)
	}
}

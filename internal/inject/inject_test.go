package inject

import (
	"math/rand"
	"testing"
	"time"
)

func TestInstallPacketLossAlwaysDrops(t *testing.T) {
	r := NewRegistry(nil)
	r.InstallPacketLoss(PacketLossConfig{LossRate: 1.0})
	d := r.Evaluate("1.3.6.1.2.1.1.1.0", rand.New(rand.NewSource(1)))
	if !d.Drop {
		t.Fatalf("expected drop with loss_rate=1.0, got %+v", d)
	}
}

func TestPacketLossRespectsTargetOIDs(t *testing.T) {
	r := NewRegistry(nil)
	r.InstallPacketLoss(PacketLossConfig{LossRate: 1.0, TargetOIDs: []string{"1.2.3"}})
	d := r.Evaluate("9.9.9", rand.New(rand.NewSource(1)))
	if d.Drop {
		t.Fatalf("expected no drop for untargeted OID, got %+v", d)
	}
}

func TestInstallSNMPErrorFires(t *testing.T) {
	r := NewRegistry(nil)
	r.InstallSNMPError(SNMPErrorConfig{ErrorKind: ErrGenErr, Probability: 1.0})
	d := r.Evaluate("1.2.3", rand.New(rand.NewSource(1)))
	if d.SNMPErrorKind != ErrGenErr {
		t.Fatalf("expected genErr, got %+v", d)
	}
}

func TestDeviceFailureTakesPriorityOverPacketLoss(t *testing.T) {
	r := NewRegistry(nil)
	r.InstallPacketLoss(PacketLossConfig{LossRate: 1.0})
	r.InstallDeviceFailure(DeviceFailureConfig{FailureType: FailureOverload, FailureProbability: 1.0})
	d := r.Evaluate("1.2.3", rand.New(rand.NewSource(1)))
	if d.DeviceFailureType != FailureOverload {
		t.Fatalf("expected device_failure to take priority, got %+v", d)
	}
}

func TestClearAllRemovesConditions(t *testing.T) {
	r := NewRegistry(nil)
	r.InstallPacketLoss(PacketLossConfig{LossRate: 1.0})
	r.ClearAll()
	d := r.Evaluate("1.2.3", rand.New(rand.NewSource(1)))
	if d.Drop {
		t.Fatalf("expected no active conditions after ClearAll")
	}
}

func TestStatisticsTrackInjections(t *testing.T) {
	r := NewRegistry(nil)
	r.InstallPacketLoss(PacketLossConfig{LossRate: 0.5})
	r.InstallTimeout(TimeoutConfig{Probability: 0.1})
	stats := r.Stats()
	if stats.TotalInjections != 2 {
		t.Fatalf("expected 2 total injections, got %d", stats.TotalInjections)
	}
	if stats.PerKindCounts[PacketLoss] != 1 || stats.PerKindCounts[Timeout] != 1 {
		t.Fatalf("unexpected per-kind counts: %+v", stats.PerKindCounts)
	}
}

func TestScheduledRecoveryEmitsEvent(t *testing.T) {
	events := make(chan RecoveryEvent, 1)
	r := NewRegistry(events)
	r.InstallDeviceFailure(DeviceFailureConfig{FailureType: FailureReboot, DurationMS: 10, RecoveryBehavior: RecoveryNormal, FailureProbability: 1.0})

	select {
	case ev := <-events:
		if ev.Behavior != RecoveryNormal {
			t.Fatalf("expected normal recovery behavior, got %v", ev.Behavior)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for scheduled recovery event")
	}
}

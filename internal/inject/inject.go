// Package inject implements the Error Injector (spec component J): a
// per-device registry of active fault conditions that the device actor
// consults on every request. Grounded on the teacher's
// internal/variation/variation.go Timeout/DropOID strategies, generalized
// from two hardcoded variations into the spec's five condition kinds with
// explicit burst/recovery scheduling.
//
// Burst/recovery transitions are one-shot delayed events, so this package
// uses stdlib time.AfterFunc rather than robfig/cron (which the rest of
// the module uses for recurring jobs — see internal/pool's idle reaper):
// cron expressions model periodic schedules, not a single fire-once delay,
// and introducing a scheduling library for a single timer would be the
// wrong tool reached for the wrong job.
package inject

import (
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

// Kind names one of the five fault condition families.
type Kind string

const (
	Timeout       Kind = "timeout"
	PacketLoss    Kind = "packet_loss"
	SNMPError     Kind = "snmp_error"
	Malformed     Kind = "malformed"
	DeviceFailure Kind = "device_failure"
)

// Phase tracks a condition's position in the latent -> burst_active ->
// recovering lifecycle (§4.J Scheduling).
type Phase string

const (
	PhaseLatent     Phase = "latent"
	PhaseBurstActive Phase = "burst_active"
	PhaseRecovering Phase = "recovering"
)

type TimeoutConfig struct {
	Probability     float64
	DurationMS      int
	BurstProbability float64
	BurstDurationMS int
	TargetOIDs      []string
}

type PacketLossConfig struct {
	LossRate       float64
	BurstLoss      bool
	BurstSize      int
	RecoveryTimeMS int
	TargetOIDs     []string
}

// SNMPErrorKind enumerates the error-status values an snmp_error condition
// may inject (§4.J).
type SNMPErrorKind string

const (
	ErrNoSuchName SNMPErrorKind = "noSuchName"
	ErrGenErr     SNMPErrorKind = "genErr"
	ErrTooBig     SNMPErrorKind = "tooBig"
	ErrBadValue   SNMPErrorKind = "badValue"
	ErrReadOnly   SNMPErrorKind = "readOnly"
)

type SNMPErrorConfig struct {
	ErrorKind   SNMPErrorKind
	Probability float64
	TargetOIDs  []string
	ErrorIndex  int
}

// Corruption enumerates malformed-frame corruption strategies.
type Corruption string

const (
	CorruptionTruncated       Corruption = "truncated"
	CorruptionInvalidBER      Corruption = "invalid_ber"
	CorruptionWrongCommunity  Corruption = "wrong_community"
	CorruptionInvalidPDUType  Corruption = "invalid_pdu_type"
	CorruptionCorruptedVarbinds Corruption = "corrupted_varbinds"
)

type MalformedConfig struct {
	Corruption  Corruption
	Probability float64
	Severity    string
	TargetOIDs  []string
}

// FailureType enumerates device_failure failure modes.
type FailureType string

const (
	FailureReboot            FailureType = "reboot"
	FailurePowerFailure      FailureType = "power_failure"
	FailureNetworkDisconnect FailureType = "network_disconnect"
	FailureFirmwareCrash     FailureType = "firmware_crash"
	FailureOverload          FailureType = "overload"
)

// RecoveryBehavior enumerates how status is restored once a device_failure
// condition clears.
type RecoveryBehavior string

const (
	RecoveryNormal        RecoveryBehavior = "normal"
	RecoveryGradual       RecoveryBehavior = "gradual"
	RecoveryResetCounters RecoveryBehavior = "reset_counters"
)

type DeviceFailureConfig struct {
	FailureType        FailureType
	DurationMS         int
	RecoveryBehavior   RecoveryBehavior
	FailureProbability float64
}

// Condition is one installed fault, with exactly one of the typed configs
// populated matching Kind.
type Condition struct {
	ID            string
	Kind          Kind
	Phase         Phase
	InstalledAt   time.Time
	Timeout       *TimeoutConfig
	PacketLoss    *PacketLossConfig
	SNMPError     *SNMPErrorConfig
	Malformed     *MalformedConfig
	DeviceFailure *DeviceFailureConfig
}

// RecoveryEvent is delivered (via the channel supplied to NewRegistry) when
// a condition's scheduled recovery fires; the device actor consumes it as
// a control message per §4.J.
type RecoveryEvent struct {
	ConditionID string
	Behavior    RecoveryBehavior
}

// Statistics accumulates injection counters for get_statistics.
type Statistics struct {
	TotalInjections int64
	PerKindCounts   map[Kind]int64
	BurstEvents     int64
	DeviceFailures  int64
	LastInjection   time.Time
}

// Registry is one device's active fault conditions.
type Registry struct {
	mu         sync.Mutex
	conditions map[string]*Condition
	nextID     uint64
	recovery   chan<- RecoveryEvent
	stats      Statistics
}

// NewRegistry returns an empty registry. recovery receives RecoveryEvent
// values when a scheduled recovery timer fires (burst timers only flip a
// condition's Phase and send nothing); pass nil to ignore recovery events
// (useful in tests).
func NewRegistry(recovery chan<- RecoveryEvent) *Registry {
	return &Registry{
		conditions: make(map[string]*Condition),
		recovery:   recovery,
		stats:      Statistics{PerKindCounts: make(map[Kind]int64)},
	}
}

func (r *Registry) nextConditionID() string {
	n := atomic.AddUint64(&r.nextID, 1)
	return fmt.Sprintf("err-%d", n)
}

func (r *Registry) install(kind Kind, c *Condition) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.nextConditionID()
	c.Kind = kind
	c.Phase = PhaseLatent
	c.InstalledAt = time.Now()
	r.conditions[c.ID] = c

	r.stats.TotalInjections++
	r.stats.PerKindCounts[kind]++
	r.stats.LastInjection = c.InstalledAt
	return c.ID
}

func (r *Registry) InstallTimeout(cfg TimeoutConfig) string {
	id := r.install(Timeout, &Condition{Timeout: &cfg})
	if cfg.BurstDurationMS > 0 {
		r.scheduleBurst(id, time.Duration(cfg.BurstDurationMS)*time.Millisecond)
	}
	return id
}

func (r *Registry) InstallPacketLoss(cfg PacketLossConfig) string {
	id := r.install(PacketLoss, &Condition{PacketLoss: &cfg})
	if cfg.RecoveryTimeMS > 0 {
		r.scheduleRecovery(id, time.Duration(cfg.RecoveryTimeMS)*time.Millisecond, RecoveryNormal)
	}
	return id
}

func (r *Registry) InstallSNMPError(cfg SNMPErrorConfig) string {
	return r.install(SNMPError, &Condition{SNMPError: &cfg})
}

func (r *Registry) InstallMalformed(cfg MalformedConfig) string {
	return r.install(Malformed, &Condition{Malformed: &cfg})
}

func (r *Registry) InstallDeviceFailure(cfg DeviceFailureConfig) string {
	id := r.install(DeviceFailure, &Condition{DeviceFailure: &cfg})
	r.mu.Lock()
	r.stats.DeviceFailures++
	r.mu.Unlock()
	if cfg.DurationMS > 0 {
		r.scheduleRecovery(id, time.Duration(cfg.DurationMS)*time.Millisecond, cfg.RecoveryBehavior)
	}
	return id
}

// scheduleBurst transitions a condition to burst_active after delay, then
// back to latent after a further equal delay (a symmetric on/off cycle).
func (r *Registry) scheduleBurst(id string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		r.mu.Lock()
		if c, ok := r.conditions[id]; ok {
			c.Phase = PhaseBurstActive
		}
		r.stats.BurstEvents++
		r.mu.Unlock()
		time.AfterFunc(delay, func() {
			r.mu.Lock()
			if c, ok := r.conditions[id]; ok {
				c.Phase = PhaseLatent
			}
			r.mu.Unlock()
		})
	})
}

// scheduleRecovery transitions a condition to recovering after delay, then
// removes it and emits a RecoveryEvent for the owning device actor.
func (r *Registry) scheduleRecovery(id string, delay time.Duration, behavior RecoveryBehavior) {
	time.AfterFunc(delay, func() {
		r.mu.Lock()
		if c, ok := r.conditions[id]; ok {
			c.Phase = PhaseRecovering
		}
		delete(r.conditions, id)
		r.mu.Unlock()

		if r.recovery != nil {
			select {
			case r.recovery <- RecoveryEvent{ConditionID: id, Behavior: behavior}:
			default:
			}
		}
	})
}

// Remove deletes a condition by id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conditions, id)
}

// ClearAll removes every installed condition.
func (r *Registry) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conditions = make(map[string]*Condition)
}

// Stats returns a snapshot of the accumulated counters.
func (r *Registry) Stats() Statistics {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := r.stats
	cp.PerKindCounts = make(map[Kind]int64, len(r.stats.PerKindCounts))
	for k, v := range r.stats.PerKindCounts {
		cp.PerKindCounts[k] = v
	}
	return cp
}

// Active returns a snapshot of the currently installed conditions.
func (r *Registry) Active() []*Condition {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Condition, 0, len(r.conditions))
	for _, c := range r.conditions {
		out = append(out, c)
	}
	return out
}

// targets reports whether oidStr is in an empty (meaning "all OIDs") or
// matching target list.
func targets(list []string, oidStr string) bool {
	if len(list) == 0 {
		return true
	}
	for _, t := range list {
		if t == oidStr {
			return true
		}
	}
	return false
}

// Decision is what the device actor should do about one incoming request,
// computed by Evaluate against the currently active conditions.
type Decision struct {
	Drop              bool
	DelayMS           int
	SNMPErrorKind     SNMPErrorKind
	SNMPErrorIndex    int
	Malformed         bool
	Corruption        Corruption
	DeviceFailureType FailureType
}

// Evaluate consults every active condition targeting oidStr (or all OIDs)
// and returns the first one to probabilistically fire, in priority order
// device_failure > packet_loss > timeout > snmp_error > malformed — a
// failed device should look failed regardless of what else is configured.
func (r *Registry) Evaluate(oidStr string, rng *rand.Rand) Decision {
	r.mu.Lock()
	conditions := make([]*Condition, 0, len(r.conditions))
	for _, c := range r.conditions {
		conditions = append(conditions, c)
	}
	r.mu.Unlock()

	for _, c := range conditions {
		if c.Kind != DeviceFailure || c.DeviceFailure == nil {
			continue
		}
		if rng.Float64() < c.DeviceFailure.FailureProbability {
			switch c.DeviceFailure.FailureType {
			case FailurePowerFailure, FailureNetworkDisconnect, FailureReboot:
				return Decision{Drop: true, DeviceFailureType: c.DeviceFailure.FailureType}
			case FailureOverload:
				return Decision{DelayMS: 2000, DeviceFailureType: c.DeviceFailure.FailureType}
			case FailureFirmwareCrash:
				return Decision{Drop: true, DeviceFailureType: c.DeviceFailure.FailureType}
			}
		}
	}

	for _, c := range conditions {
		if c.Kind != PacketLoss || c.PacketLoss == nil || !targets(c.PacketLoss.TargetOIDs, oidStr) {
			continue
		}
		rate := c.PacketLoss.LossRate
		if c.Phase == PhaseBurstActive && c.PacketLoss.BurstLoss {
			rate = 1.0
		}
		if rng.Float64() < rate {
			return Decision{Drop: true}
		}
	}

	for _, c := range conditions {
		if c.Kind != Timeout || c.Timeout == nil || !targets(c.Timeout.TargetOIDs, oidStr) {
			continue
		}
		prob := c.Timeout.Probability
		duration := c.Timeout.DurationMS
		if c.Phase == PhaseBurstActive {
			prob = c.Timeout.BurstProbability
			duration = c.Timeout.BurstDurationMS
		}
		if rng.Float64() < prob {
			return Decision{DelayMS: duration}
		}
	}

	for _, c := range conditions {
		if c.Kind != SNMPError || c.SNMPError == nil || !targets(c.SNMPError.TargetOIDs, oidStr) {
			continue
		}
		if rng.Float64() < c.SNMPError.Probability {
			return Decision{SNMPErrorKind: c.SNMPError.ErrorKind, SNMPErrorIndex: c.SNMPError.ErrorIndex}
		}
	}

	for _, c := range conditions {
		if c.Kind != Malformed || c.Malformed == nil || !targets(c.Malformed.TargetOIDs, oidStr) {
			continue
		}
		if rng.Float64() < c.Malformed.Probability {
			return Decision{Malformed: true, Corruption: c.Malformed.Corruption}
		}
	}

	return Decision{}
}

// Package scenario implements the Scenario Runner (spec component M):
// named, multi-condition fault scenarios composed purely from
// internal/inject configurations — no new invariants, per §4.M.
//
// Grounded on the teacher's internal/variation package, which already maps
// a named "strategy" string onto a concrete variation config; generalized
// here from the teacher's two fixed strategies (Timeout/DropOID) to the
// full catalogue of named scenarios, each fanning out into one or more
// device.Actor.InstallErrorCondition calls.
package scenario

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/debashish-mukherjee/go-snmpsim/internal/device"
	"github.com/debashish-mukherjee/go-snmpsim/internal/inject"
)

// Name identifies a scenario family.
type Name string

const (
	NetworkOutage     Name = "network_outage"
	SignalDegradation Name = "signal_degradation"
	HighLoad          Name = "high_load"
	DeviceFlapping    Name = "device_flapping"
	CascadingFailure  Name = "cascading_failure"
	Environmental     Name = "environmental"
)

// Severity scales environmental scenarios.
type Severity string

const (
	Mild     Severity = "mild"
	Moderate Severity = "moderate"
	Severe   Severity = "severe"
)

// EnvironmentalKind names the environmental stressor.
type EnvironmentalKind string

const (
	Weather      EnvironmentalKind = "weather"
	Power        EnvironmentalKind = "power"
	Temperature  EnvironmentalKind = "temperature"
	Interference EnvironmentalKind = "interference"
)

// Params parameterizes a scenario run. Not every field applies to every
// Name; see Run's per-scenario handling.
type Params struct {
	Pattern           string            // immediate/gradual/sporadic, steady/fluctuating/progressive, steady/bursty/cascade, regular/irregular/degrading
	Severity          Severity          // environmental only
	EnvironmentalKind EnvironmentalKind // environmental only
	GrowthFactor      float64           // cascading_failure: accepted; does not change the installed condition
	MaxShare          float64           // cascading_failure: per-device failure probability (default 1.0)
	TargetFraction    float64           // fraction of devices selected; default 1.0
	DurationMS        int               // condition lifetime where applicable
}

// Descriptor is the result of a scenario run (§4.M).
type Descriptor struct {
	ScenarioID          string
	StartTime           time.Time
	DevicesAffected     int
	ConditionsApplied   []string
	EstimatedDurationMS int
}

// UnknownScenarioError reports a Run call against an unrecognized Name.
type UnknownScenarioError struct{ Name Name }

func (e UnknownScenarioError) Error() string { return fmt.Sprintf("scenario: unknown scenario %q", e.Name) }

// Runner composes fault conditions over a set of devices, installing them
// directly on the targeted actors. Its only state is the RNG used for
// target selection and the counter behind each scenario ID.
type Runner struct {
	rng    *rand.Rand
	nextID uint64
}

// New returns a Runner seeded from seed (deterministic scenario selection
// of which devices are targeted, independent of each device's own RNG).
func New(seed int64) *Runner {
	return &Runner{rng: rand.New(rand.NewSource(seed))}
}

// Run composes and installs the named scenario's fault conditions across
// devices, returning a descriptor of what was applied.
func (r *Runner) Run(name Name, params Params, devices []*device.Actor) (Descriptor, error) {
	r.nextID++
	desc := Descriptor{
		ScenarioID: fmt.Sprintf("scn-%s-%d", name, r.nextID),
		StartTime:  time.Now(),
	}

	targets := r.selectTargets(devices, params)
	desc.DevicesAffected = len(targets)

	var apply func(a *device.Actor) (string, int)
	switch name {
	case NetworkOutage:
		apply = networkOutage(params)
	case SignalDegradation:
		apply = signalDegradation(params)
	case HighLoad:
		apply = highLoad(params)
	case DeviceFlapping:
		apply = deviceFlapping(params)
	case CascadingFailure:
		apply = cascadingFailure(params)
	case Environmental:
		apply = environmental(params)
	default:
		return Descriptor{}, UnknownScenarioError{Name: name}
	}

	maxDuration := 0
	for _, a := range targets {
		kind, durationMS := apply(a)
		desc.ConditionsApplied = append(desc.ConditionsApplied, kind)
		if durationMS > maxDuration {
			maxDuration = durationMS
		}
	}
	desc.EstimatedDurationMS = maxDuration
	return desc, nil
}

// selectTargets picks target_fraction (default 1.0) of devices, shuffled
// deterministically by the runner's own RNG.
func (r *Runner) selectTargets(devices []*device.Actor, params Params) []*device.Actor {
	fraction := params.TargetFraction
	if fraction <= 0 {
		fraction = 1.0
	}
	if fraction >= 1.0 {
		return devices
	}
	n := int(math.Ceil(float64(len(devices)) * fraction))
	if n >= len(devices) {
		return devices
	}
	shuffled := append([]*device.Actor(nil), devices...)
	r.rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	return shuffled[:n]
}

func networkOutage(params Params) func(*device.Actor) (string, int) {
	return func(a *device.Actor) (string, int) {
		switch params.Pattern {
		case "gradual":
			id := a.InstallErrorCondition(func(r *inject.Registry) string {
				return r.InstallPacketLoss(inject.PacketLossConfig{LossRate: 0.3, BurstLoss: true, RecoveryTimeMS: params.DurationMS})
			})
			return id, params.DurationMS
		case "sporadic":
			id := a.InstallErrorCondition(func(r *inject.Registry) string {
				return r.InstallPacketLoss(inject.PacketLossConfig{LossRate: 0.15})
			})
			return id, params.DurationMS
		default: // immediate
			id := a.InstallErrorCondition(func(r *inject.Registry) string {
				return r.InstallDeviceFailure(inject.DeviceFailureConfig{
					FailureType:        inject.FailureNetworkDisconnect,
					FailureProbability: 1.0,
					DurationMS:         params.DurationMS,
					RecoveryBehavior:   inject.RecoveryNormal,
				})
			})
			return id, params.DurationMS
		}
	}
}

func signalDegradation(params Params) func(*device.Actor) (string, int) {
	return func(a *device.Actor) (string, int) {
		switch params.Pattern {
		case "fluctuating":
			id := a.InstallErrorCondition(func(r *inject.Registry) string {
				return r.InstallPacketLoss(inject.PacketLossConfig{LossRate: 0.1, BurstLoss: true, BurstSize: 5})
			})
			return id, params.DurationMS
		case "progressive":
			id := a.InstallErrorCondition(func(r *inject.Registry) string {
				return r.InstallTimeout(inject.TimeoutConfig{Probability: 0.2, DurationMS: 500, BurstProbability: 0.6, BurstDurationMS: params.DurationMS})
			})
			return id, params.DurationMS
		default: // steady
			id := a.InstallErrorCondition(func(r *inject.Registry) string {
				return r.InstallSNMPError(inject.SNMPErrorConfig{ErrorKind: inject.ErrGenErr, Probability: 0.1})
			})
			return id, params.DurationMS
		}
	}
}

func highLoad(params Params) func(*device.Actor) (string, int) {
	return func(a *device.Actor) (string, int) {
		switch params.Pattern {
		case "bursty":
			id := a.InstallErrorCondition(func(r *inject.Registry) string {
				return r.InstallTimeout(inject.TimeoutConfig{Probability: 0.1, DurationMS: 200, BurstProbability: 0.9, BurstDurationMS: 3000})
			})
			return id, params.DurationMS
		case "cascade":
			id := a.InstallErrorCondition(func(r *inject.Registry) string {
				return r.InstallDeviceFailure(inject.DeviceFailureConfig{
					FailureType:        inject.FailureOverload,
					FailureProbability: 0.5,
					DurationMS:         params.DurationMS,
					RecoveryBehavior:   inject.RecoveryGradual,
				})
			})
			return id, params.DurationMS
		default: // steady
			id := a.InstallErrorCondition(func(r *inject.Registry) string {
				return r.InstallTimeout(inject.TimeoutConfig{Probability: 0.25, DurationMS: 300})
			})
			return id, params.DurationMS
		}
	}
}

func deviceFlapping(params Params) func(*device.Actor) (string, int) {
	return func(a *device.Actor) (string, int) {
		behavior := inject.RecoveryNormal
		duration := params.DurationMS
		if duration <= 0 {
			duration = 1000
		}
		switch params.Pattern {
		case "irregular":
			duration = duration / 2
		case "degrading":
			behavior = inject.RecoveryGradual
		}
		id := a.InstallErrorCondition(func(r *inject.Registry) string {
			return r.InstallDeviceFailure(inject.DeviceFailureConfig{
				FailureType:        inject.FailureReboot,
				FailureProbability: 1.0,
				DurationMS:         duration,
				RecoveryBehavior:   behavior,
			})
		})
		return id, duration
	}
}

// cascadingFailure installs one firmware_crash device failure on every
// target, with max_share as its failure probability. The share of devices
// reached is set by target_fraction alone; growth_factor does not change
// the installed condition, and there is no wave-by-wave growth.
func cascadingFailure(params Params) func(*device.Actor) (string, int) {
	share := params.MaxShare
	if share <= 0 {
		share = 1.0
	}
	growth := params.GrowthFactor
	if growth <= 0 {
		growth = 1.0
	}
	_ = growth // not used by the installed condition
	return func(a *device.Actor) (string, int) {
		id := a.InstallErrorCondition(func(r *inject.Registry) string {
			return r.InstallDeviceFailure(inject.DeviceFailureConfig{
				FailureType:        inject.FailureFirmwareCrash,
				FailureProbability: share,
				DurationMS:         params.DurationMS,
				RecoveryBehavior:   inject.RecoveryResetCounters,
			})
		})
		return id, params.DurationMS
	}
}

func severityProbability(s Severity) float64 {
	switch s {
	case Severe:
		return 0.5
	case Moderate:
		return 0.2
	default:
		return 0.05
	}
}

func environmental(params Params) func(*device.Actor) (string, int) {
	prob := severityProbability(params.Severity)
	return func(a *device.Actor) (string, int) {
		switch params.EnvironmentalKind {
		case Power:
			id := a.InstallErrorCondition(func(r *inject.Registry) string {
				return r.InstallDeviceFailure(inject.DeviceFailureConfig{
					FailureType:        inject.FailurePowerFailure,
					FailureProbability: prob,
					DurationMS:         params.DurationMS,
					RecoveryBehavior:   inject.RecoveryNormal,
				})
			})
			return id, params.DurationMS
		case Interference:
			id := a.InstallErrorCondition(func(r *inject.Registry) string {
				return r.InstallMalformed(inject.MalformedConfig{Corruption: inject.CorruptionCorruptedVarbinds, Probability: prob, Severity: string(params.Severity)})
			})
			return id, params.DurationMS
		case Temperature:
			id := a.InstallErrorCondition(func(r *inject.Registry) string {
				return r.InstallSNMPError(inject.SNMPErrorConfig{ErrorKind: inject.ErrGenErr, Probability: prob})
			})
			return id, params.DurationMS
		default: // weather
			id := a.InstallErrorCondition(func(r *inject.Registry) string {
				return r.InstallPacketLoss(inject.PacketLossConfig{LossRate: prob})
			})
			return id, params.DurationMS
		}
	}
}

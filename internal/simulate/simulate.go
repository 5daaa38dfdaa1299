// Package simulate implements the Value Simulator (spec component E):
// turning a ProfileEntry's static base value and behavior tag into a
// time-varying SNMP value, blending the Time Clock's daily/weekly factors
// with per-behavior variance models.
//
// Grounded on the teacher's internal/variation/variation.go Variation
// strategies (CounterMonotonic, RandomJitter, Step, PeriodicReset),
// generalized from a handful of fixed strategies into the spec's twelve
// named behaviors, each reading its parameters off profile.Behavior.
package simulate

import (
	"math"
	"math/rand"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/debashish-mukherjee/go-snmpsim/internal/clock"
	"github.com/debashish-mukherjee/go-snmpsim/internal/profile"
)

// Simulate synthesizes the current value of entry given the device's
// simulation state, the current time, and a per-device random source.
func Simulate(entry *profile.ProfileEntry, state *State, now time.Time, rng *rand.Rand) Value {
	key := entry.OID.String()

	switch entry.Behavior.Kind {
	case profile.TrafficCounter:
		return simulateTrafficCounter(entry, state, now, rng, key)
	case profile.PacketCounter:
		return simulatePacketCounter(entry, state, now, rng, key)
	case profile.ErrorCounter:
		return simulateErrorCounter(entry, state, now, rng, key)
	case profile.UtilizationGauge:
		return simulateUtilizationGauge(entry, state, now, rng, key)
	case profile.CPUGauge:
		return simulateCPUGauge(entry, state, now, rng, key)
	case profile.PowerGauge:
		return simulatePowerGauge(entry, state, now, rng, key)
	case profile.SNRGauge:
		return simulateSNRGauge(entry, state, now, rng, key)
	case profile.SignalGauge:
		return simulateSignalGauge(entry, state, now, rng, key)
	case profile.TemperatureGauge:
		return simulateTemperatureGauge(entry, state, now, rng, key)
	case profile.UptimeCounter:
		return simulateUptimeCounter(state, now)
	case profile.StatusEnum:
		return simulateStatusEnum(state, entry.Name)
	default: // static_value
		return Value{Type: gosnmp.Asn1BER(entry.Type), Data: entry.BaseValue}
	}
}

func varianceFactor(v profile.Variance, rng *rand.Rand) float64 {
	switch v {
	case profile.VarianceGaussian:
		return 1 + boxMuller(rng)*0.05
	case profile.VarianceBurst:
		if rng.Float64() < 0.02 {
			return 2.5 + rng.Float64()
		}
		return 0.95 + rng.Float64()*0.1
	case profile.VarianceTimeCorrelated, profile.VarianceDeviceSpecific:
		return 0.85 + rng.Float64()*0.3
	default: // uniform
		return 0.9 + rng.Float64()*0.2
	}
}

func boxMuller(rng *rand.Rand) float64 {
	u1 := rng.Float64()
	if u1 < 1e-12 {
		u1 = 1e-12
	}
	u2 := rng.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// smooth applies exponential smoothing against the state's previous_rate
// memory for key, then stores the smoothed result back.
func smooth(state *State, key string, rate float64) float64 {
	if prev, ok := state.PreviousRate[key]; ok {
		rate = prev*0.7 + rate*0.3
	}
	state.PreviousRate[key] = rate
	return rate
}

func counterBitWidth(entry *profile.ProfileEntry) int {
	if gosnmp.Asn1BER(entry.Type) == gosnmp.Counter64 {
		return 64
	}
	return 32
}

func simulateTrafficCounter(entry *profile.ProfileEntry, state *State, now time.Time, rng *rand.Rand, key string) Value {
	util := state.metric("interface_utilization", 0.5)
	rateMin, rateMax := entry.Behavior.RateMin, entry.Behavior.RateMax
	rate := rateMin + (rateMax-rateMin)*util
	rate *= clock.DailyUtilization(now) * clock.WeeklyPattern(now) * varianceFactor(entry.Behavior.Variance, rng)
	rate = smooth(state, key, rate)

	base := toUint64(entry.BaseValue)
	delta := uint64(rate * state.Uptime(now).Seconds())

	if counterBitWidth(entry) == 64 {
		v := WrapCounter64(base, delta, rng)
		state.Counters[key] = v
		return Value{Type: gosnmp.Counter64, Data: v}
	}
	v := WrapCounter32(uint32(base), delta, rng)
	state.Counters[key] = uint64(v)
	return Value{Type: gosnmp.Counter32, Data: v}
}

func simulatePacketCounter(entry *profile.ProfileEntry, state *State, now time.Time, rng *rand.Rand, key string) Value {
	daily := clock.DailyUtilization(now)
	rateMin, rateMax := entry.Behavior.RateMin, entry.Behavior.RateMax
	util := state.metric("interface_utilization", 0.5)
	rate := (rateMin + (rateMax-rateMin)*util) * daily

	if correlatedOctets, ok := state.Metrics["octets_rate_"+key]; ok {
		rate = correlatedOctets / 1024 // rough bytes-per-packet ratio
	}
	rate *= varianceFactor(profile.VarianceBurst, rng)
	rate = smooth(state, key, rate)

	base := toUint64(entry.BaseValue)
	delta := uint64(rate * state.Uptime(now).Seconds())
	v := WrapCounter32(uint32(base), delta, rng)
	state.Counters[key] = uint64(v)
	return Value{Type: gosnmp.Counter32, Data: v}
}

func simulateErrorCounter(entry *profile.ProfileEntry, state *State, now time.Time, rng *rand.Rand, key string) Value {
	util := state.metric("interface_utilization", 0.3)
	quality := state.metric("signal_quality", 1.0)
	if quality <= 0 {
		quality = 0.01
	}
	rate := (entry.Behavior.RateMin + (entry.Behavior.RateMax-entry.Behavior.RateMin)*util) / quality
	if rng.Float64() < 0.02 {
		rate *= 10
	}

	base := toUint64(entry.BaseValue)
	delta := uint64(rate * state.Uptime(now).Hours())
	v := WrapCounter32(uint32(base), delta, rng)
	state.Counters[key] = uint64(v)
	return Value{Type: gosnmp.Counter32, Data: v}
}

func simulateUtilizationGauge(entry *profile.ProfileEntry, state *State, now time.Time, rng *rand.Rand, key string) Value {
	bias := state.metric("utilization_bias", 1.0)
	base := toFloat64(entry.BaseValue)
	raw := base * clock.DailyUtilization(now) * clock.WeeklyPattern(now) * bias
	raw = smooth(state, key, raw)
	raw += (rng.Float64() - 0.5) * 2 // small jitter
	v := clamp(raw, 0, 100)
	state.Gauges[key] = v
	return Value{Type: gosnmp.Gauge32, Data: uint32(v)}
}

func simulateCPUGauge(entry *profile.ProfileEntry, state *State, now time.Time, rng *rand.Rand, key string) Value {
	base := toFloat64(entry.BaseValue)
	util := state.metric("interface_utilization", 0.3)
	blended := base*0.5 + util*100*0.3 + clock.DailyUtilization(now)*20
	if rng.Float64() < 0.01 {
		blended *= 2
	}
	v := clamp(blended+(rng.Float64()-0.5)*3, 0, 100)
	state.Gauges[key] = v
	return Value{Type: gosnmp.Gauge32, Data: uint32(v)}
}

func simulatePowerGauge(entry *profile.ProfileEntry, state *State, now time.Time, rng *rand.Rand, key string) Value {
	base := toFloat64(entry.BaseValue)
	tempFactor := 1 + clock.DailyTemperatureOffset(now)/100
	qualityFactor := state.metric("quality_factor", 1.0)
	weather := state.metric("weather", 1.0)
	min, max := entry.Behavior.Min, entry.Behavior.Max
	if min == 0 && max == 0 {
		min, max = -15, 15
	}
	v := clamp(base*tempFactor*qualityFactor*weather, min, max)
	state.Gauges[key] = v
	return Value{Type: gosnmp.Gauge32, Data: int32(v)}
}

func simulateSNRGauge(entry *profile.ProfileEntry, state *State, now time.Time, rng *rand.Rand, key string) Value {
	base := toFloat64(entry.BaseValue)
	util := state.metric("interface_utilization", 0.3)
	environment := state.metric("environment_factor", 1.0)
	noise := 0.95 + rng.Float64()*0.1
	v := clamp(base*(1-0.2*util)*environment*noise, entry.Behavior.Min, entry.Behavior.Max)
	state.Gauges[key] = v
	return Value{Type: gosnmp.Gauge32, Data: uint32(v)}
}

func simulateSignalGauge(entry *profile.ProfileEntry, state *State, now time.Time, rng *rand.Rand, key string) Value {
	base := toFloat64(entry.BaseValue)
	weather := state.metric("weather", 1.0)
	distance := state.metric("distance_factor", 1.0)
	min, max := entry.Behavior.Min, entry.Behavior.Max
	if min == 0 && max == 0 {
		min, max = 0, 100
	}
	v := clamp(base*weather*distance, min, max)
	state.Gauges[key] = v
	return Value{Type: gosnmp.Gauge32, Data: uint32(v)}
}

func simulateTemperatureGauge(entry *profile.ProfileEntry, state *State, now time.Time, rng *rand.Rand, key string) Value {
	base := toFloat64(entry.BaseValue)
	cpuUtil := state.metric("cpu_usage", 30) / 100
	v := (base + clock.DailyTemperatureOffset(now) + clock.SeasonalTemperatureOffset(now)) * (1 + 0.1*cpuUtil)
	v = clamp(v, -10, 85)
	state.Gauges[key] = v
	return Value{Type: gosnmp.Gauge32, Data: int32(v)}
}

func simulateUptimeCounter(state *State, now time.Time) Value {
	ticks := uint64(state.Uptime(now).Seconds()*100) % (1 << 32)
	return Value{Type: gosnmp.TimeTicks, Data: uint32(ticks)}
}

// simulateStatusEnum returns the trigger-written value for name if a SET
// trigger has advanced it (idle/inProgress/complete, §4.G), so a subsequent
// GET observes the state machine; otherwise it derives an ambient
// up/degraded/down status from health_score/error_rate as before.
func simulateStatusEnum(state *State, name string) Value {
	if v, ok := state.StatusVars[name]; ok {
		return Value{Type: gosnmp.Integer, Data: v}
	}

	health := state.metric("health_score", 1.0)
	errRate := state.metric("error_rate", 0.0)

	const (
		statusUp       = 1
		statusDegraded = 2
		statusDown     = 3
	)
	switch {
	case health < 0.3 || errRate > 0.5:
		return Value{Type: gosnmp.Integer, Data: statusDown}
	case health < 0.7 || errRate > 0.1:
		return Value{Type: gosnmp.Integer, Data: statusDegraded}
	default:
		return Value{Type: gosnmp.Integer, Data: statusUp}
	}
}

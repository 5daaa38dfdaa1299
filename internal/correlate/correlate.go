// Package correlate implements the Correlation Engine (spec component F):
// pure adjustment of a secondary metric's stored value in response to a
// primary metric's newly observed value, per a configured correlation rule
// list. Grounded on the teacher's internal/variation Chain variation (one
// variation's output feeding the next), generalized to the spec's five
// correlation kinds operating over named metrics in simulate.State.Metrics
// rather than chained Variation instances.
package correlate

import (
	"math"
	"math/rand"
	"time"

	"github.com/debashish-mukherjee/go-snmpsim/internal/clock"
	"github.com/debashish-mukherjee/go-snmpsim/internal/simulate"
)

// Kind names one of the five correlation shapes.
type Kind string

const (
	Positive    Kind = "positive"
	Negative    Kind = "negative"
	Threshold   Kind = "threshold"
	Exponential Kind = "exponential"
	Logarithmic Kind = "logarithmic"
)

// Rule is one (primary, secondary, kind, strength) correlation entry.
type Rule struct {
	Primary        string
	Secondary      string
	Kind           Kind
	Strength       float64 // 0..1
	ThresholdValue float64 // only used by Kind == Threshold
	ThresholdDelta float64 // step applied once primary crosses ThresholdValue
}

// bounds holds the metric-specific clamp range applied after correlation.
var bounds = map[string][2]float64{
	"error_rate":            {0, 1},
	"cpu_usage":             {0, 100},
	"interface_utilization": {0, 100},
	"signal_quality":        {0, 100},
	"temperature":           {-10, 100},
	"power_consumption":     {0, math.MaxFloat64},
	"throughput":            {0, math.MaxFloat64},
}

// isUtilizationFamily reports whether metric name should receive the
// time-of-day adjustment after correlation.
func isUtilizationFamily(name string) bool {
	return name == "interface_utilization" || name == "cpu_usage" || name == "throughput"
}

// normalize maps a raw metric value onto a common 0..100 scale so
// cross-metric correlation math (which assumes a 0..100 "percent-like"
// primary) behaves consistently regardless of the metric's native units.
func normalize(name string, raw float64) float64 {
	switch name {
	case "temperature":
		return clampFloat(raw, 0, 100)
	case "interface_utilization", "cpu_usage", "signal_quality", "error_rate":
		if raw <= 1.0 {
			return raw * 100
		}
		return clampFloat(raw, 0, 100)
	default:
		return clampFloat(raw, 0, 100)
	}
}

func clampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Apply folds primaryValue's effect into state.Metrics[secondary] for every
// rule whose Primary matches primaryMetric, returning the updated state
// (mutated in place — State is already the device actor's private memory).
func Apply(primaryMetric string, primaryValue float64, state *simulate.State, rules []Rule, now time.Time, rng *rand.Rand) *simulate.State {
	state.Metrics[primaryMetric] = primaryValue
	norm := normalize(primaryMetric, primaryValue)

	for _, rule := range rules {
		if rule.Primary != primaryMetric {
			continue
		}
		current := state.Metrics[rule.Secondary]
		updated := applyRule(rule, norm, current)

		if isUtilizationFamily(rule.Secondary) {
			updated *= 0.7 + 0.3*clock.DailyUtilization(now)/1.8
		}
		updated *= 1 + (rng.Float64()-0.5)*0.02 // ~2% noise

		if b, ok := bounds[rule.Secondary]; ok {
			updated = clampFloat(updated, b[0], b[1])
		}
		state.Metrics[rule.Secondary] = updated
	}
	return state
}

func applyRule(rule Rule, normalizedPrimary, secondary float64) float64 {
	switch rule.Kind {
	case Positive:
		return secondary * (1 + (normalizedPrimary/100-0.5)*0.2*rule.Strength)

	case Negative:
		return secondary * (1 - (normalizedPrimary/100-0.5)*0.2*rule.Strength)

	case Threshold:
		if normalizedPrimary >= rule.ThresholdValue {
			return secondary + rule.ThresholdDelta
		}
		return secondary

	case Exponential:
		if rule.Primary == "interface_utilization" && rule.Secondary == "error_rate" {
			return secondary + math.Pow(normalizedPrimary/100, 2)*5*rule.Strength
		}
		return secondary * (1 + math.Pow(normalizedPrimary/100, 2)*rule.Strength)

	case Logarithmic:
		n := normalizedPrimary / 100
		if n <= 0 {
			n = 1e-6
		}
		return secondary * (1 + rule.Strength*math.Log(n))

	default:
		return secondary
	}
}

// DefaultRules returns the standard correlation list for deviceType, per
// the device-family defaults named in §4.F.
func DefaultRules(deviceType string) []Rule {
	common := []Rule{
		{Primary: "interface_utilization", Secondary: "error_rate", Kind: Exponential, Strength: 0.6},
		{Primary: "interface_utilization", Secondary: "cpu_usage", Kind: Positive, Strength: 0.4},
	}
	switch deviceType {
	case "cable_modem", "cmts":
		return append(common,
			Rule{Primary: "signal_quality", Secondary: "error_rate", Kind: Negative, Strength: 0.5},
			Rule{Primary: "temperature", Secondary: "signal_quality", Kind: Negative, Strength: 0.2},
		)
	case "switch", "router":
		return append(common,
			Rule{Primary: "cpu_usage", Secondary: "throughput", Kind: Negative, Strength: 0.3},
		)
	case "server":
		return append(common,
			Rule{Primary: "cpu_usage", Secondary: "temperature", Kind: Positive, Strength: 0.3},
		)
	default: // mta, generic
		return common
	}
}

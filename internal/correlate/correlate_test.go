package correlate

import (
	"math/rand"
	"testing"
	"time"

	"github.com/debashish-mukherjee/go-snmpsim/internal/simulate"
)

func TestApplyPositiveCorrelationIncreasesSecondary(t *testing.T) {
	state := simulate.NewState(time.Now())
	state.Metrics["cpu_usage"] = 10
	rules := []Rule{{Primary: "interface_utilization", Secondary: "cpu_usage", Kind: Positive, Strength: 1.0}}
	rng := rand.New(rand.NewSource(1))
	// 20:00 sits in the residential peak, where the time-of-day factor
	// applied to utilization-family secondaries is close to 1.
	evening := time.Date(2026, time.July, 15, 20, 0, 0, 0, time.UTC)

	Apply("interface_utilization", 90, state, rules, evening, rng)

	if state.Metrics["cpu_usage"] <= 10 {
		t.Fatalf("expected cpu_usage to trend upward with high utilization, got %v", state.Metrics["cpu_usage"])
	}
}

func TestApplyExponentialErrorRateClampedToBounds(t *testing.T) {
	state := simulate.NewState(time.Now())
	state.Metrics["error_rate"] = 0.9
	rules := []Rule{{Primary: "interface_utilization", Secondary: "error_rate", Kind: Exponential, Strength: 1.0}}
	rng := rand.New(rand.NewSource(2))

	Apply("interface_utilization", 100, state, rules, time.Now(), rng)

	if v := state.Metrics["error_rate"]; v < 0 || v > 1 {
		t.Fatalf("error_rate must stay within [0,1], got %v", v)
	}
}

func TestApplyThresholdStepsOnlyPastThreshold(t *testing.T) {
	state := simulate.NewState(time.Now())
	state.Metrics["signal_quality"] = 50
	rules := []Rule{{Primary: "temperature", Secondary: "signal_quality", Kind: Threshold, ThresholdValue: 80, ThresholdDelta: -10}}
	rng := rand.New(rand.NewSource(3))

	Apply("temperature", 40, state, rules, time.Now(), rng)
	belowThreshold := state.Metrics["signal_quality"]

	state.Metrics["signal_quality"] = 50
	Apply("temperature", 90, state, rules, time.Now(), rng)
	aboveThreshold := state.Metrics["signal_quality"]

	if aboveThreshold >= belowThreshold {
		t.Fatalf("expected a downward step once threshold crossed: below=%v above=%v", belowThreshold, aboveThreshold)
	}
}

func TestDefaultRulesVaryByDeviceType(t *testing.T) {
	cm := DefaultRules("cable_modem")
	generic := DefaultRules("generic")
	if len(cm) <= len(generic) {
		t.Fatalf("expected cable_modem to carry extra device-specific rules over generic")
	}
}

package simulate

import "time"

// State is a device's simulation memory: the mutable counters/gauges and
// smoothing history the value simulator folds into each synthesized value.
// It corresponds to the counters/gauges/status_vars/previous_rate fields of
// the spec's DeviceState; the device actor owns exactly one State and
// mutates it only from its own single-writer loop.
type State struct {
	UptimeStart  time.Time
	Counters     map[string]uint64  // OID string -> last synthesized counter value
	Gauges       map[string]float64 // OID string -> last synthesized gauge value
	StatusVars   map[string]int
	PreviousRate map[string]float64 // OID string -> last smoothed rate (exponential smoothing memory)

	// Metrics holds the auxiliary correlated factors the simulator blends
	// in: interface_utilization, cpu_usage, signal_quality, weather,
	// distance_factor, quality_factor, temperature_factor, health_score,
	// error_rate. Populated by internal/correlate; defaults apply when a
	// key is absent.
	Metrics map[string]float64
}

// NewState returns a fresh, empty State with uptime starting at now.
func NewState(now time.Time) *State {
	return &State{
		UptimeStart:  now,
		Counters:     make(map[string]uint64),
		Gauges:       make(map[string]float64),
		StatusVars:   make(map[string]int),
		PreviousRate: make(map[string]float64),
		Metrics:      make(map[string]float64),
	}
}

// Reset implements the reboot semantics of §4.I: counters, gauges, status
// vars, and smoothing memory are cleared and uptime restarts at now.
func (s *State) Reset(now time.Time) {
	s.UptimeStart = now
	s.Counters = make(map[string]uint64)
	s.Gauges = make(map[string]float64)
	s.StatusVars = make(map[string]int)
	s.PreviousRate = make(map[string]float64)
}

// Uptime returns how long the device has been up as of now.
func (s *State) Uptime(now time.Time) time.Duration {
	if now.Before(s.UptimeStart) {
		return 0
	}
	return now.Sub(s.UptimeStart)
}

func (s *State) metric(name string, fallback float64) float64 {
	if v, ok := s.Metrics[name]; ok {
		return v
	}
	return fallback
}

package profile

import (
	"strings"

	"github.com/gosnmp/gosnmp"
)

// Kind names the value-synthesis behavior the simulator attaches to an OID.
// Grounded on the teacher's internal/variation/variation.go Variation set,
// generalized from a fixed enum of variation strategies to the spec's
// name-substring classification.
type Kind string

const (
	TrafficCounter   Kind = "traffic_counter"
	PacketCounter    Kind = "packet_counter"
	ErrorCounter     Kind = "error_counter"
	UtilizationGauge Kind = "utilization_gauge"
	CPUGauge         Kind = "cpu_gauge"
	PowerGauge       Kind = "power_gauge"
	SNRGauge         Kind = "snr_gauge"
	SignalGauge      Kind = "signal_gauge"
	TemperatureGauge Kind = "temperature_gauge"
	UptimeCounter    Kind = "uptime_counter"
	StatusEnum       Kind = "status_enum"
	StaticValue      Kind = "static_value"
)

// Variance names the noise model applied on top of a behavior's base curve.
type Variance string

const (
	VarianceUniform        Variance = "uniform"
	VarianceGaussian       Variance = "gaussian"
	VarianceBurst          Variance = "burst"
	VarianceTimeCorrelated Variance = "time_correlated"
	VarianceDeviceSpecific Variance = "device_specific"
)

// Behavior is the simulation recipe attached to a ProfileEntry.
type Behavior struct {
	Kind      Kind
	RateMin   float64
	RateMax   float64
	Min       float64
	Max       float64
	Variance  Variance
	Correlate string // name of the metric this one is correlated against, if any
}

// analyze classifies an OID into a Behavior using the name-substring rules
// of §4.C. name is the resolved MIB object name when known (empty for
// numeric entries whose OID didn't match the dictionary); typ is the wire
// type gosnmp parsed from the walk file.
func analyze(name string, typ gosnmp.Asn1BER) Behavior {
	lower := strings.ToLower(name)

	switch {
	case strings.Contains(lower, "octets"):
		return Behavior{Kind: TrafficCounter, RateMin: 1000, RateMax: 125_000_000, Variance: VarianceTimeCorrelated}

	case strings.Contains(lower, "pkts") || strings.Contains(lower, "packets"):
		return Behavior{Kind: PacketCounter, RateMin: 1, RateMax: 150_000, Variance: VarianceTimeCorrelated, Correlate: "octets"}

	case strings.Contains(lower, "error") || strings.Contains(lower, "discard") || strings.Contains(lower, "drop"):
		return Behavior{Kind: ErrorCounter, RateMin: 0, RateMax: 50, Variance: VarianceBurst, Correlate: "utilization"}

	case strings.Contains(lower, "sysuptime") || typ == gosnmp.TimeTicks:
		return Behavior{Kind: UptimeCounter, RateMin: 100, RateMax: 100, Variance: VarianceUniform}

	case strings.Contains(lower, "sigq") || strings.Contains(lower, "signalnoise"):
		return Behavior{Kind: SNRGauge, Min: 10, Max: 40, Variance: VarianceTimeCorrelated, Correlate: "utilization"}

	case strings.Contains(lower, "channelpower") || strings.Contains(lower, "txpower"):
		return Behavior{Kind: PowerGauge, Min: -15, Max: 15, Variance: VarianceDeviceSpecific, Correlate: "weather"}

	case strings.Contains(lower, "cpu") || strings.Contains(lower, "processorload"):
		return Behavior{Kind: CPUGauge, Min: 0, Max: 100, Variance: VarianceTimeCorrelated}

	case strings.Contains(lower, "temperature") || strings.Contains(lower, "temp"):
		return Behavior{Kind: TemperatureGauge, Min: -20, Max: 85, Variance: VarianceDeviceSpecific}

	case strings.Contains(lower, "status") || strings.Contains(lower, "state"):
		return Behavior{Kind: StatusEnum, Variance: VarianceUniform}

	case typ == gosnmp.Counter32 || typ == gosnmp.Counter64:
		return Behavior{Kind: TrafficCounter, RateMin: 10, RateMax: 10_000, Variance: VarianceUniform}

	case typ == gosnmp.Gauge32:
		return Behavior{Kind: UtilizationGauge, Min: 0, Max: 100, Variance: VarianceTimeCorrelated}

	default:
		return Behavior{Kind: StaticValue}
	}
}

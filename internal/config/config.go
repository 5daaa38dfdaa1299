// Package config loads the simulator's YAML configuration (§6 external
// interfaces): a global section plus a list of device_groups describing
// how many devices of each type to run and over which ports.
//
// Grounded on the teacher's internal/routing/routing.go LoadFromFile
// pattern (gopkg.in/yaml.v3 Unmarshal over a typed struct, wrapped read/
// parse errors), extended with an environment-variable overlay (SNMP_SIM_EX_*)
// since the spec requires one and the teacher's routing config never
// needed it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DeviceType enumerates the simulated device families (§6).
type DeviceType string

const (
	CableModem DeviceType = "cable_modem"
	MTA        DeviceType = "mta"
	Switch     DeviceType = "switch"
	Router     DeviceType = "router"
	CMTS       DeviceType = "cmts"
	Server     DeviceType = "server"
)

func (d DeviceType) valid() bool {
	switch d {
	case CableModem, MTA, Switch, Router, CMTS, Server:
		return true
	}
	return false
}

// PortRange is an inclusive port interval.
type PortRange struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

// ErrorInjection is a device group's baseline fault profile. Validate checks
// that each rate lies within [0,1]; nothing in this module installs these
// rates as fault conditions on the group's devices.
type ErrorInjection struct {
	PacketLossRate *float64 `yaml:"packet_loss_rate,omitempty"`
	TimeoutRate    *float64 `yaml:"timeout_rate,omitempty"`
}

// DeviceGroup configures one block of simulated devices.
type DeviceGroup struct {
	Name           string         `yaml:"name"`
	DeviceType     DeviceType     `yaml:"device_type"`
	Count          int            `yaml:"count"`
	PortRange      PortRange      `yaml:"port_range"`
	Community      string         `yaml:"community"`
	WalkFile       string         `yaml:"walk_file"`
	Behaviors      []string       `yaml:"behaviors"`
	ErrorInjection ErrorInjection `yaml:"error_injection"`
}

// Global holds process-wide settings.
type Global struct {
	MaxDevices  int    `yaml:"max_devices"`
	MaxMemoryMB int    `yaml:"max_memory_mb"`
	Host        string `yaml:"host"`
	Community   string `yaml:"community"`
}

// Config is the root document.
type Config struct {
	Global       Global        `yaml:"global"`
	DeviceGroups []DeviceGroup `yaml:"device_groups"`
}

// FieldError names the offending field for structured config errors (§6).
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string { return fmt.Sprintf("config: field %q: %s", e.Field, e.Reason) }

// Load reads, parses, applies the SNMP_SIM_EX_* environment overlay to,
// and validates the config at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	applyEnvOverlay(&cfg, os.Environ())

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverlay overlays SNMP_SIM_EX_MAX_DEVICES, SNMP_SIM_EX_MAX_MEMORY_MB,
// SNMP_SIM_EX_HOST and SNMP_SIM_EX_COMMUNITY onto cfg.Global;
// device_groups are file-only since environment variables can't express a
// list structure cleanly.
func applyEnvOverlay(cfg *Config, environ []string) {
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, "SNMP_SIM_EX_") {
			continue
		}
		field := strings.TrimPrefix(k, "SNMP_SIM_EX_")
		switch field {
		case "MAX_DEVICES":
			if n, err := strconv.Atoi(v); err == nil {
				cfg.Global.MaxDevices = n
			}
		case "MAX_MEMORY_MB":
			if n, err := strconv.Atoi(v); err == nil {
				cfg.Global.MaxMemoryMB = n
			}
		case "HOST":
			cfg.Global.Host = v
		case "COMMUNITY":
			cfg.Global.Community = v
		}
	}
}

// Validate checks every structural invariant the spec places on the
// config surface, returning the first violation found as a *FieldError.
func (c *Config) Validate() error {
	if c.Global.MaxDevices <= 0 {
		return &FieldError{Field: "global.max_devices", Reason: "must be positive"}
	}
	if c.Global.Community == "" {
		c.Global.Community = "public"
	}
	if len(c.DeviceGroups) == 0 {
		return &FieldError{Field: "device_groups", Reason: "must contain at least one group"}
	}

	seen := make(map[string]bool)
	for i, g := range c.DeviceGroups {
		field := fmt.Sprintf("device_groups[%d]", i)
		if g.Name == "" {
			return &FieldError{Field: field + ".name", Reason: "must not be empty"}
		}
		if seen[g.Name] {
			return &FieldError{Field: field + ".name", Reason: fmt.Sprintf("duplicate group name %q", g.Name)}
		}
		seen[g.Name] = true
		if !g.DeviceType.valid() {
			return &FieldError{Field: field + ".device_type", Reason: fmt.Sprintf("unrecognized device_type %q", g.DeviceType)}
		}
		if g.Count <= 0 {
			return &FieldError{Field: field + ".count", Reason: "must be positive"}
		}
		if g.PortRange.End < g.PortRange.Start {
			return &FieldError{Field: field + ".port_range", Reason: "end must be >= start"}
		}
		if g.Count > g.PortRange.End-g.PortRange.Start+1 {
			return &FieldError{Field: field + ".count", Reason: "exceeds the port_range's capacity"}
		}
		if g.WalkFile == "" {
			return &FieldError{Field: field + ".walk_file", Reason: "must not be empty"}
		}
		if r := g.ErrorInjection.PacketLossRate; r != nil && (*r < 0 || *r > 1) {
			return &FieldError{Field: field + ".error_injection.packet_loss_rate", Reason: "must be within [0,1]"}
		}
		if r := g.ErrorInjection.TimeoutRate; r != nil && (*r < 0 || *r > 1) {
			return &FieldError{Field: field + ".error_injection.timeout_rate", Reason: "must be within [0,1]"}
		}
	}
	return nil
}

// DefaultPortAssignments returns the spec's test/expectation-compatible
// default port-range -> device-type map (§6). Load and Validate do not
// consult it; each device group's ports come from its own port_range.
func DefaultPortAssignments() map[DeviceType]PortRange {
	return map[DeviceType]PortRange{
		CableModem: {Start: 30000, End: 37999},
		MTA:        {Start: 38000, End: 38499},
		Server:     {Start: 38500, End: 38999},
		Router:     {Start: 39000, End: 39499},
		Switch:     {Start: 39500, End: 39899},
		CMTS:       {Start: 39950, End: 39999},
	}
}

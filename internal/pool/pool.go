// Package pool implements the Device Pool (spec component K): the
// process-wide registry that lazily spawns one device.Actor per UDP port,
// reaps idle devices, and tiers them by access frequency.
//
// Grounded on the teacher's internal/engine/simulator.go, which already
// owns a map of per-port listeners and a context-cancellation shutdown
// path; generalized here from a fixed device list configured at startup to
// lazy, idempotent get_or_create_device driven by a port_assignments
// table, and from ad-hoc goroutines to github.com/robfig/cron/v3 for the
// periodic idle-reaper and tiering-scanner jobs (the teacher already
// depends on robfig/cron/v3 for its internal/traps periodic emission).
package pool

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/debashish-mukherjee/go-snmpsim/internal/device"
	"github.com/debashish-mukherjee/go-snmpsim/internal/metrics"
	"github.com/debashish-mukherjee/go-snmpsim/internal/pdu"
	"github.com/debashish-mukherjee/go-snmpsim/internal/profile"
)

// Tier classifies a device by recent access pattern (§4.K, optimization
// only — MUST NOT change observable SNMP behavior).
type Tier string

const (
	TierHot  Tier = "hot"
	TierWarm Tier = "warm"
	TierCold Tier = "cold"
)

// PortRange is an inclusive [Start, End] port range assigned to one
// device_type.
type PortRange struct {
	Start int
	End   int
}

func (r PortRange) size() int { return r.End - r.Start + 1 }

func (r PortRange) contains(port int) bool { return port >= r.Start && port <= r.End }

func (r PortRange) overlaps(other PortRange) bool {
	return r.Start <= other.End && other.Start <= r.End
}

// Assignment maps one device_type to its port range and default community.
type Assignment struct {
	DeviceType string
	Range      PortRange
	Community  string
}

const maxTotalRangeSize = 100000

// OverlappingRangesError reports invariant K1 violations.
type OverlappingRangesError struct {
	A, B Assignment
}

func (e OverlappingRangesError) Error() string {
	return fmt.Sprintf("pool: port ranges for %q and %q overlap", e.A.DeviceType, e.B.DeviceType)
}

// EmptyRangeError reports a zero-or-negative-size range.
type EmptyRangeError struct{ DeviceType string }

func (e EmptyRangeError) Error() string {
	return fmt.Sprintf("pool: port range for %q is empty", e.DeviceType)
}

// RangeTooLargeError reports the total configured port space exceeding the
// sanity ceiling.
type RangeTooLargeError struct{ Total int }

func (e RangeTooLargeError) Error() string {
	return fmt.Sprintf("pool: total configured port space %d exceeds %d", e.Total, maxTotalRangeSize)
}

// MaxDevicesReached reports get_or_create_device refusing to spawn beyond
// the configured ceiling.
type MaxDevicesReached struct{ Max int }

func (e MaxDevicesReached) Error() string { return fmt.Sprintf("pool: max_devices %d reached", e.Max) }

// UnknownPortRange reports a port with no matching assignment.
type UnknownPortRange struct{ Port int }

func (e UnknownPortRange) Error() string { return fmt.Sprintf("pool: port %d matches no assignment", e.Port) }

type handle struct {
	actor      *device.Actor
	cancel     context.CancelFunc
	lastAccess time.Time
	accesses   int64
	tier       Tier
}

// Stats summarizes the pool for get_stats().
type Stats struct {
	TotalDevices int
	HotCount     int
	WarmCount    int
	ColdCount    int
	MaxDevices   int
}

// Pool is the process-wide device registry.
type Pool struct {
	mu          sync.RWMutex
	registry    map[int]*handle
	assignments []Assignment
	maxDevices  int
	idleTimeout time.Duration

	profiles *profile.Store
	policies map[string]*pdu.WritePolicy

	cron *cron.Cron
}

// Config configures pool construction.
type Config struct {
	MaxDevices  int
	IdleTimeout time.Duration // default 30 minutes
}

// New returns an empty Pool bound to profiles for device construction.
func New(cfg Config, profiles *profile.Store) *Pool {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 30 * time.Minute
	}
	p := &Pool{
		registry:   make(map[int]*handle),
		maxDevices: cfg.MaxDevices,
		idleTimeout: cfg.IdleTimeout,
		profiles:   profiles,
		policies:   make(map[string]*pdu.WritePolicy),
		cron:       cron.New(),
	}
	p.cron.AddFunc("@every 5m", p.reapIdle)
	p.cron.AddFunc("@every 60s", p.rescanTiers)
	p.cron.Start()
	return p
}

// SetWritePolicy installs the SET validation surface for deviceType,
// consulted by every device of that type.
func (p *Pool) SetWritePolicy(deviceType string, policy *pdu.WritePolicy) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.policies[deviceType] = policy
}

// ConfigurePortAssignments validates and installs the port_assignments
// table (§4.K configure_port_assignments).
func (p *Pool) ConfigurePortAssignments(assignments []Assignment) error {
	total := 0
	for i, a := range assignments {
		if a.Range.size() <= 0 {
			return EmptyRangeError{DeviceType: a.DeviceType}
		}
		total += a.Range.size()
		for j := i + 1; j < len(assignments); j++ {
			if a.Range.overlaps(assignments[j].Range) {
				return OverlappingRangesError{A: a, B: assignments[j]}
			}
		}
	}
	if total > maxTotalRangeSize {
		return RangeTooLargeError{Total: total}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.assignments = assignments
	return nil
}

func (p *Pool) resolveAssignment(port int) (Assignment, bool) {
	for _, a := range p.assignments {
		if a.Range.contains(port) {
			return a, true
		}
	}
	return Assignment{}, false
}

// GetOrCreateDevice returns the device actor owning port, spawning one
// lazily on first access. Concurrent callers racing on the same unassigned
// port are idempotent: the loser reuses the winner's handle.
func (p *Pool) GetOrCreateDevice(port int) (*device.Actor, error) {
	p.mu.RLock()
	if h, ok := p.registry[port]; ok {
		h.lastAccess = time.Now()
		h.accesses++
		actor := h.actor
		p.mu.RUnlock()
		return actor, nil
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	// Re-check under the write lock: another goroutine may have won the race.
	if h, ok := p.registry[port]; ok {
		h.lastAccess = time.Now()
		h.accesses++
		return h.actor, nil
	}

	if p.maxDevices > 0 && len(p.registry) >= p.maxDevices {
		return nil, MaxDevicesReached{Max: p.maxDevices}
	}

	assignment, ok := p.resolveAssignment(port)
	if !ok {
		return nil, UnknownPortRange{Port: port}
	}

	prof, err := p.profiles.Acquire(assignment.DeviceType)
	if err != nil {
		return nil, err
	}

	info := device.Info{
		ID:         fmt.Sprintf("%s-%d", assignment.DeviceType, port),
		Port:       port,
		DeviceType: assignment.DeviceType,
		Community:  assignment.Community,
	}
	actor := device.New(info, prof, p.policies[assignment.DeviceType], rand.Int63())

	ctx, cancel := context.WithCancel(context.Background())
	go actor.Run(ctx)

	p.registry[port] = &handle{actor: actor, cancel: cancel, lastAccess: time.Now(), tier: TierHot}
	metrics.DevicesSpawned.WithLabelValues(assignment.DeviceType).Inc()
	metrics.PoolSize.Set(float64(len(p.registry)))
	return actor, nil
}

// ShutdownDevice stops and evicts the device owning port, if any.
func (p *Pool) ShutdownDevice(port int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shutdownLocked(port)
}

func (p *Pool) shutdownLocked(port int) {
	h, ok := p.registry[port]
	if !ok {
		return
	}
	h.cancel()
	delete(p.registry, port)
	if h.actor != nil {
		p.profiles.Release(h.actor.Info.DeviceType)
	}
	metrics.PoolSize.Set(float64(len(p.registry)))
}

// ShutdownAllDevices stops every device; the pool's periodic jobs keep
// running until Stop.
func (p *Pool) ShutdownAllDevices() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for port := range p.registry {
		p.shutdownLocked(port)
	}
}

// Stop halts the pool's periodic maintenance jobs (idle reaper, tiering).
func (p *Pool) Stop() {
	ctx := p.cron.Stop()
	<-ctx.Done()
}

// GetStats returns a point-in-time snapshot for get_stats().
func (p *Pool) GetStats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s := Stats{TotalDevices: len(p.registry), MaxDevices: p.maxDevices}
	for _, h := range p.registry {
		switch h.tier {
		case TierHot:
			s.HotCount++
		case TierWarm:
			s.WarmCount++
		default:
			s.ColdCount++
		}
	}
	return s
}

func (p *Pool) reapIdle() {
	cutoff := time.Now().Add(-p.idleTimeout)
	p.mu.Lock()
	defer p.mu.Unlock()
	for port, h := range p.registry {
		if h.lastAccess.Before(cutoff) {
			deviceType := h.actor.Info.DeviceType
			p.shutdownLocked(port)
			metrics.DevicesReaped.WithLabelValues(deviceType).Inc()
		}
	}
}

// rescanTiers recomputes each device's tier from its recent access
// pattern. Tiering is advisory bookkeeping only (§4.K) — it never drops or
// alters a device's SNMP behavior; devices are removed only by
// ShutdownDevice, ShutdownAllDevices and the idle reaper.
func (p *Pool) rescanTiers() {
	now := time.Now()
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, h := range p.registry {
		idle := now.Sub(h.lastAccess)
		switch {
		case idle < 2*time.Minute:
			h.tier = TierHot
		case idle < 10*time.Minute:
			h.tier = TierWarm
		default:
			h.tier = TierCold
		}
	}
}

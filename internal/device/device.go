// Package device implements the Device Actor (spec component I): a
// single-writer goroutine-per-port entity owning one device's simulation
// state, consulting the Error Injector before dispatching to the PDU
// Processor.
//
// Grounded on the teacher's internal/engine/simulator.go per-port
// goroutine model and internal/agent/agent.go's request handling, but
// replaces the teacher's mutex-guarded VirtualAgent struct with a channel-
// fed actor: DeviceState per the spec's concurrency model (§5) is "never
// touched by any other task", which a private inbox enforces structurally
// instead of by locking discipline.
package device

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/debashish-mukherjee/go-snmpsim/internal/correlate"
	"github.com/debashish-mukherjee/go-snmpsim/internal/inject"
	"github.com/debashish-mukherjee/go-snmpsim/internal/metrics"
	"github.com/debashish-mukherjee/go-snmpsim/internal/pdu"
	"github.com/debashish-mukherjee/go-snmpsim/internal/profile"
	"github.com/debashish-mukherjee/go-snmpsim/internal/simulate"
)

// Info is a device's identity, fixed for its lifetime.
type Info struct {
	ID         string
	Port       int
	DeviceType string
	Community  string
	MACAddress string
}

// Request is an incoming decoded PDU plus the channel to deliver the
// Response on, submitted by internal/netlisten.
type Request struct {
	Packet  *gosnmp.SnmpPacket
	ReplyTo chan<- Response
}

// Response is what the actor decided to do with one Request.
type Response struct {
	Packet     *gosnmp.SnmpPacket
	Drop       bool
	Malformed  bool
	Corruption inject.Corruption
}

// inboxCapacity bounds the actor's queue; a full inbox causes incoming
// datagrams for this device to be dropped (§5 Backpressure).
const inboxCapacity = 64

// Actor is one device's single-writer request loop.
type Actor struct {
	Info Info

	profile  *profile.Profile
	policy   *pdu.WritePolicy
	injector *inject.Registry
	rng      *rand.Rand
	rules    []correlate.Rule

	state *simulate.State

	inbox          chan interface{}
	recovery       chan inject.RecoveryEvent
	statusComplete chan statusCompleteEvent

	lastConditionCounts map[inject.Kind]int
}

// statusCompleteEvent carries one SET trigger's inProgress -> complete
// transition back into the owning actor, scheduled by time.AfterFunc the
// same way internal/inject schedules RecoveryEvent (§4.G "driven by
// device-local timers").
type statusCompleteEvent struct {
	statusVar string
}

// New constructs an Actor with its own inject.Registry; recovery events
// that registry schedules arrive on the actor's recovery channel and are
// applied by Run.
func New(info Info, prof *profile.Profile, policy *pdu.WritePolicy, seed int64) *Actor {
	recovery := make(chan inject.RecoveryEvent, 8)
	a := &Actor{
		Info:           info,
		profile:        prof,
		policy:         policy,
		rng:            rand.New(rand.NewSource(seed)),
		rules:          correlate.DefaultRules(info.DeviceType),
		state:          simulate.NewState(time.Now()),
		inbox:          make(chan interface{}, inboxCapacity),
		recovery:       recovery,
		statusComplete: make(chan statusCompleteEvent, 8),
	}
	a.injector = inject.NewRegistry(recovery)
	return a
}

// scheduleStatusComplete arranges for trig's status OID to advance from
// inProgress to complete after its delay, delivered back through the
// actor's own statusComplete channel so the transition is applied by the
// actor's single-writer loop rather than the timer goroutine.
func (a *Actor) scheduleStatusComplete(trig pdu.Trigger) {
	time.AfterFunc(trig.Delay, func() {
		select {
		case a.statusComplete <- statusCompleteEvent{statusVar: trig.StatusVar}:
		default:
		}
	})
}

// Submit enqueues req for processing; returns false if the inbox is full
// (the caller accounts this as a dropped/backpressured datagram).
func (a *Actor) Submit(req Request) bool {
	select {
	case a.inbox <- req:
		return true
	default:
		return false
	}
}

// control message kinds, dispatched through the same inbox as requests so
// installation and PDU processing stay strictly ordered (§5 Ordering).
type getInfoMsg struct{ reply chan Info }
type updateCounterMsg struct {
	oid   string
	delta uint64
}
type setGaugeMsg struct {
	oid   string
	value float64
}
type rebootMsg struct{ done chan struct{} }
type installErrorMsg struct {
	install func(*inject.Registry) string
	reply   chan string
}
type clearErrorsMsg struct{}

// GetInfo returns the actor's identity (round-tripped through the inbox so
// it serializes with in-flight requests, per §5 Ordering).
func (a *Actor) GetInfo() Info {
	reply := make(chan Info, 1)
	a.inbox <- getInfoMsg{reply: reply}
	return <-reply
}

// UpdateCounter nudges a counter's stored value by delta.
func (a *Actor) UpdateCounter(oid string, delta uint64) {
	a.inbox <- updateCounterMsg{oid: oid, delta: delta}
}

// SetGauge overwrites a gauge's stored value.
func (a *Actor) SetGauge(oid string, value float64) {
	a.inbox <- setGaugeMsg{oid: oid, value: value}
}

// Reboot resets counters/gauges/status/error-conditions and restarts
// uptime, blocking until applied.
func (a *Actor) Reboot() {
	done := make(chan struct{})
	a.inbox <- rebootMsg{done: done}
	<-done
}

// InstallErrorCondition installs a fault condition via install (one of the
// inject.Registry.Install* methods bound to its config) and returns the
// new condition's id.
func (a *Actor) InstallErrorCondition(install func(*inject.Registry) string) string {
	reply := make(chan string, 1)
	a.inbox <- installErrorMsg{install: install, reply: reply}
	return <-reply
}

// ClearErrorConditions removes every active fault condition.
func (a *Actor) ClearErrorConditions() {
	a.inbox <- clearErrorsMsg{}
}

// Run is the actor's main loop; it exits when ctx is cancelled.
func (a *Actor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-a.recovery:
			a.applyRecovery(ev)
		case ev := <-a.statusComplete:
			a.state.StatusVars[ev.statusVar] = pdu.StatusComplete
		case msg := <-a.inbox:
			a.dispatch(msg)
		}
	}
}

func (a *Actor) dispatch(msg interface{}) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("device %s: recovered from panic handling request: %v", a.Info.ID, r)
			if req, ok := msg.(Request); ok && req.Packet != nil {
				select {
				case req.ReplyTo <- Response{Packet: buildInjectedError(req.Packet, inject.Decision{SNMPErrorKind: inject.ErrGenErr})}:
				default:
				}
			}
		}
	}()

	switch m := msg.(type) {
	case Request:
		resp := a.handleRequest(m.Packet)
		select {
		case m.ReplyTo <- resp:
		default:
		}
	case getInfoMsg:
		m.reply <- a.Info
	case updateCounterMsg:
		a.state.Counters[m.oid] += m.delta
	case setGaugeMsg:
		a.state.Gauges[m.oid] = m.value
	case rebootMsg:
		a.state.Reset(time.Now())
		close(m.done)
	case installErrorMsg:
		m.reply <- m.install(a.injector)
		a.syncErrorConditionMetrics()
	case clearErrorsMsg:
		a.injector.ClearAll()
		a.syncErrorConditionMetrics()
	}
}

// syncErrorConditionMetrics reconciles the process-wide active-conditions
// gauge with this actor's registry, applying only the delta since its last
// sync so concurrent devices' counts accumulate rather than clobber each
// other (a plain Set would be correct for one device and wrong for N).
func (a *Actor) syncErrorConditionMetrics() {
	counts := make(map[inject.Kind]int)
	for _, c := range a.injector.Active() {
		counts[c.Kind]++
	}
	for kind, n := range counts {
		if delta := n - a.lastConditionCounts[kind]; delta != 0 {
			metrics.ActiveErrorConditions.WithLabelValues(string(kind)).Add(float64(delta))
		}
	}
	for kind, prev := range a.lastConditionCounts {
		if _, ok := counts[kind]; !ok && prev != 0 {
			metrics.ActiveErrorConditions.WithLabelValues(string(kind)).Add(float64(-prev))
		}
	}
	a.lastConditionCounts = counts
}

func (a *Actor) handleRequest(req *gosnmp.SnmpPacket) Response {
	started := time.Now()
	op := pduOpName(req.PDUType)
	defer func() {
		metrics.RequestLatencySeconds.WithLabelValues(op).Observe(time.Since(started).Seconds())
	}()

	decision := a.evaluateInjection(req)

	if decision.Drop {
		metrics.PDURequestsTotal.WithLabelValues(op, "dropped").Inc()
		return Response{Drop: true}
	}
	if decision.DelayMS > 0 {
		time.Sleep(time.Duration(decision.DelayMS) * time.Millisecond)
	}
	if decision.SNMPErrorKind != "" {
		metrics.PDURequestsTotal.WithLabelValues(op, "injected_error").Inc()
		return Response{Packet: buildInjectedError(req, decision)}
	}

	now := time.Now()
	for _, v := range req.Variables {
		if raw, ok := simulate.ToFloat64IfNumeric(v.Value); ok {
			correlate.Apply("interface_utilization", raw, a.state, a.rules, now, a.rng)
		}
	}

	respPacket, triggers, err := pdu.Process(req, a.Info.Community, a.state, a.profile, a.policy, now, a.rng)
	if err != nil {
		metrics.PDURequestsTotal.WithLabelValues(op, "auth_failure").Inc()
		return Response{Drop: true} // AuthFailure or UnsupportedVersion: no response
	}
	for _, trig := range triggers {
		a.scheduleStatusComplete(trig)
	}

	result := "ok"
	if respPacket.Error != gosnmp.NoError {
		result = "error"
	}
	metrics.PDURequestsTotal.WithLabelValues(op, result).Inc()

	if decision.Malformed {
		return Response{Packet: respPacket, Malformed: true, Corruption: decision.Corruption}
	}
	return Response{Packet: respPacket}
}

func pduOpName(t gosnmp.PDUType) string {
	switch t {
	case gosnmp.GetRequest:
		return "get"
	case gosnmp.GetNextRequest:
		return "get_next"
	case gosnmp.GetBulkRequest:
		return "get_bulk"
	case gosnmp.SetRequest:
		return "set"
	default:
		return "other"
	}
}

func (a *Actor) evaluateInjection(req *gosnmp.SnmpPacket) inject.Decision {
	if len(req.Variables) == 0 {
		d := a.injector.Evaluate("", a.rng)
		if d.SNMPErrorKind != "" && d.SNMPErrorIndex <= 0 {
			d.SNMPErrorIndex = 1
		}
		return d
	}
	for i, v := range req.Variables {
		d := a.injector.Evaluate(strings.TrimPrefix(v.Name, "."), a.rng)
		if d.Drop || d.DelayMS > 0 || d.SNMPErrorKind != "" || d.Malformed || d.DeviceFailureType != "" {
			if d.SNMPErrorKind != "" && d.SNMPErrorIndex <= 0 {
				// The injected condition didn't name an index (config default
				// is 0, not a valid SNMP error-index); default to the
				// 1-based position of the varbind that triggered it.
				d.SNMPErrorIndex = i + 1
			}
			return d
		}
	}
	return inject.Decision{}
}

func (a *Actor) applyRecovery(ev inject.RecoveryEvent) {
	defer a.syncErrorConditionMetrics()
	switch ev.Behavior {
	case inject.RecoveryNormal:
		a.state.StatusVars["adminStatus"] = 1
		a.state.StatusVars["operStatus"] = 1
	case inject.RecoveryResetCounters:
		a.state.Reset(time.Now())
	case inject.RecoveryGradual:
		a.state.StatusVars["operStatus"] = 1
		// last_change deliberately left at its current uptime value.
	}
}

func buildInjectedError(req *gosnmp.SnmpPacket, d inject.Decision) *gosnmp.SnmpPacket {
	resp := *req
	resp.PDUType = gosnmp.GetResponse
	resp.Variables = nil
	resp.ErrorIndex = uint8(d.SNMPErrorIndex)

	switch d.SNMPErrorKind {
	case inject.ErrNoSuchName:
		resp.Error = gosnmp.NoSuchName
	case inject.ErrTooBig:
		resp.Error = gosnmp.TooBig
	case inject.ErrBadValue:
		resp.Error = gosnmp.BadValue
	case inject.ErrReadOnly:
		resp.Error = gosnmp.ReadOnly
	default:
		resp.Error = gosnmp.GenErr
	}
	return &resp
}

// String implements fmt.Stringer for log-friendly identification.
func (i Info) String() string {
	return fmt.Sprintf("%s:%d(%s)", i.DeviceType, i.Port, i.ID)
}

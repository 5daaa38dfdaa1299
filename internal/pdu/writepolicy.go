package pdu

import (
	"strconv"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/debashish-mukherjee/go-snmpsim/internal/simulate"
)

// defaultCompletionDelay is used when a WritableOID trigger doesn't name its
// own CompletionDelay.
const defaultCompletionDelay = 2 * time.Second

// WritableOID describes one SET-accepting OID and its validation rule.
// Everything not listed here responds notWritable (v2c) / readOnly (v1),
// per §4.G's "restricted surface" default.
type WritableOID struct {
	Type         gosnmp.Asn1BER
	MaxLength    int  // OctetString: reject longer values with wrongLength
	EnumValues   []int // Integer: reject values outside this set with wrongValue
	IsTrigger    bool  // Integer "trigger" OID driving a status state machine
	Precondition func(*simulate.State) bool
	StatusVar    string        // status_vars key the trigger advances (idle -> inProgress -> complete)
	CompletionDelay time.Duration // delay before inProgress -> complete; defaultCompletionDelay if zero
	MarksValid   string        // status_vars key set to 1 once this OID is successfully SET; lets a later trigger's Precondition require it
}

// Trigger is a pending inProgress -> complete transition, returned by
// handleSet for the caller (the device actor) to schedule via its own
// device-local timer — the state machine itself never sleeps.
type Trigger struct {
	StatusVar string
	Delay     time.Duration
}

// WritePolicy is the per-device-type table of OIDs accepting SET, keyed by
// dotted OID string.
type WritePolicy struct {
	Writable map[string]WritableOID
}

// NewWritePolicy returns an empty policy (every SET responds notWritable).
func NewWritePolicy() *WritePolicy {
	return &WritePolicy{Writable: make(map[string]WritableOID)}
}

// Status values for the trigger state machine (§4.G).
const (
	StatusIdle       = 0
	StatusInProgress = 1
	StatusComplete   = 2
)

func handleSet(req *gosnmp.SnmpPacket, state *simulate.State, policy *WritePolicy) (*gosnmp.SnmpPacket, []Trigger) {
	v1 := req.Version == gosnmp.Version1
	notWritable := gosnmp.SNMPError(gosnmp.NotWritable)
	if v1 {
		notWritable = gosnmp.ReadOnly
	}

	type pendingSet struct {
		key string
		rule WritableOID
		val  interface{}
	}
	var pending []pendingSet

	for i, v := range req.Variables {
		key := strings.TrimPrefix(v.Name, ".")
		if policy == nil {
			return buildResponse(req, nil, notWritable, uint8(i+1)), nil
		}
		rule, ok := policy.Writable[key]
		if !ok {
			return buildResponse(req, nil, notWritable, uint8(i+1)), nil
		}

		errCode, ok := validate(rule, v, state, v1)
		if !ok {
			return buildResponse(req, nil, errCode, uint8(i+1)), nil
		}
		pending = append(pending, pendingSet{key: key, rule: rule, val: v.Value})
	}

	// All varbinds validated; apply atomically.
	vars := make([]gosnmp.SnmpPDU, 0, len(pending))
	var triggers []Trigger
	for _, p := range pending {
		if state.StatusVars == nil {
			state.StatusVars = make(map[string]int)
		}
		if p.rule.IsTrigger {
			state.StatusVars[p.rule.StatusVar] = StatusInProgress

			delay := p.rule.CompletionDelay
			if delay <= 0 {
				delay = defaultCompletionDelay
			}
			triggers = append(triggers, Trigger{StatusVar: p.rule.StatusVar, Delay: delay})
		}
		if p.rule.MarksValid != "" {
			state.StatusVars[p.rule.MarksValid] = 1
		}
		vars = append(vars, gosnmp.SnmpPDU{Name: p.key, Type: p.rule.Type, Value: p.val})
	}
	return buildResponse(req, vars, gosnmp.NoError, 0), triggers
}

func validate(rule WritableOID, v gosnmp.SnmpPDU, state *simulate.State, v1 bool) (gosnmp.SNMPError, bool) {
	wrongType := gosnmp.SNMPError(gosnmp.WrongType)
	wrongValue := gosnmp.SNMPError(gosnmp.WrongValue)
	wrongLength := gosnmp.SNMPError(gosnmp.WrongLength)
	if v1 {
		// v1 has no wrongType/wrongValue/wrongLength distinctions; everything
		// not noSuchName/readOnly collapses to badValue.
		wrongType, wrongValue, wrongLength = gosnmp.BadValue, gosnmp.BadValue, gosnmp.BadValue
	}

	switch rule.Type {
	case gosnmp.IPAddress:
		s, ok := v.Value.(string)
		if !ok {
			return wrongType, false
		}
		if !validIPv4(s) {
			return wrongValue, false
		}

	case gosnmp.OctetString:
		s, ok := v.Value.(string)
		if !ok {
			if b, okb := v.Value.([]byte); okb {
				s = string(b)
			} else {
				return wrongType, false
			}
		}
		if rule.MaxLength > 0 && len(s) > rule.MaxLength {
			return wrongLength, false
		}

	case gosnmp.Integer:
		n, ok := asInt(v.Value)
		if !ok {
			return wrongType, false
		}
		if len(rule.EnumValues) > 0 && !containsInt(rule.EnumValues, n) {
			return wrongValue, false
		}
		if rule.IsTrigger && rule.Precondition != nil && !rule.Precondition(state) {
			return wrongValue, false
		}

	default:
		return wrongType, false
	}

	return gosnmp.NoError, true
}

func validIPv4(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 255 {
			return false
		}
	}
	return true
}

func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint32:
		return int(n), true
	default:
		return 0, false
	}
}

func containsInt(set []int, v int) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

package simulate

import "github.com/gosnmp/gosnmp"

// Value is a synthesized SNMP value: a wire type tag paired with its Go
// representation. Mirrors the teacher's use of gosnmp.SnmpPDU{Type, Value}
// directly as the wire-level value carrier, rather than introducing a
// separate tagged-union type — entry.Type/Value here slot straight into a
// gosnmp.SnmpPDU when internal/pdu builds a response.
type Value struct {
	Type gosnmp.Asn1BER
	Data interface{}
}

// Exception constructors for the v2c markers used in GET/GETNEXT/GETBULK
// varbind responses (§6).
func NoSuchObject() Value   { return Value{Type: gosnmp.NoSuchObject} }
func NoSuchInstance() Value { return Value{Type: gosnmp.NoSuchInstance} }
func EndOfMibView() Value   { return Value{Type: gosnmp.EndOfMibView} }

func toUint64(v interface{}) uint64 {
	switch n := v.(type) {
	case uint64:
		return n
	case uint32:
		return uint64(n)
	case int64:
		return uint64(n)
	case int:
		return uint64(n)
	case float64:
		return uint64(n)
	default:
		return 0
	}
}

// ToFloat64IfNumeric extracts a float64 from any of the numeric Go types
// SNMP values arrive as, for callers (like the correlation engine wiring
// in internal/device) that need a generic numeric reading off a varbind
// without caring about its original wire type.
func ToFloat64IfNumeric(v interface{}) (float64, bool) {
	switch v.(type) {
	case float64, int, int32, int64, uint32, uint64:
		return toFloat64(v), true
	default:
		return 0, false
	}
}

func toFloat64(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	case uint32:
		return float64(n)
	default:
		return 0
	}
}

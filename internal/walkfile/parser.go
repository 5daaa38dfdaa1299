// Package walkfile parses snmpwalk-style text captures into typed OID
// entries. Grounded on the teacher's internal/store/parser.go and
// template.go, extended with the spec's full MIB module dictionary.
//
// The parser is pure and tolerant: malformed individual lines are dropped
// (and counted in Result.Dropped), never fail the file; lines whose MIB
// object name cannot be resolved are kept with a nil OID. Only I/O errors
// from LoadFile surface to the caller.
package walkfile

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gosnmp/gosnmp"

	"github.com/debashish-mukherjee/go-snmpsim/internal/oid"
)

// Entry is one parsed walk-file record.
type Entry struct {
	OID     oid.OID // nil when the MIB object name could not be resolved
	Raw     string  // original MIB::name.suffix or numeric OID text
	Type    gosnmp.Asn1BER
	Value   interface{}
	MIBName string
}

// Result is the output of Parse: resolved entries plus a count of lines
// that were dropped (comments/blank lines are not counted as dropped).
type Result struct {
	Entries []Entry
	Dropped int
}

// FileReadError wraps an I/O failure reading a walk file (spec §7).
type FileReadError struct {
	Path   string
	Reason error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("walkfile: read %q: %v", e.Path, e.Reason)
}
func (e *FileReadError) Unwrap() error { return e.Reason }

// LoadFile reads path and parses its contents.
func LoadFile(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, &FileReadError{Path: path, Reason: err}
	}
	return Parse(data), nil
}

// Parse parses a walk file's bytes. Pure: no I/O, no globals.
func Parse(data []byte) Result {
	var res Result
	lines := strings.Split(string(data), "\n")
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var entry *Entry
		switch {
		case strings.Contains(line, "::"):
			entry = parseNamedLine(line)
		case strings.HasPrefix(line, ".") || strings.HasPrefix(line, "1."):
			entry = parseNumericLine(line)
		default:
			entry = parseNumericLine(line)
		}

		if entry == nil {
			res.Dropped++
			continue
		}
		res.Entries = append(res.Entries, *entry)
	}
	return res
}

// parseNamedLine parses "MODULE::name[.suffix] = TYPE: value".
func parseNamedLine(line string) *Entry {
	parts := strings.SplitN(line, " = ", 2)
	if len(parts) != 2 {
		return nil
	}
	lhs := strings.TrimSpace(parts[0])
	mibParts := strings.SplitN(lhs, "::", 2)
	if len(mibParts) != 2 {
		return nil
	}
	mibName := strings.TrimSpace(mibParts[0])
	objectPart := strings.TrimSpace(mibParts[1])

	typ, val, ok := parseTypedValue(strings.TrimSpace(parts[1]))
	if !ok {
		return nil
	}

	resolved := lookupMIBOID(mibName, objectPart)
	e := &Entry{Raw: lhs, Type: typ, Value: val, MIBName: mibName}
	if resolved != "" {
		o, err := oid.Parse(resolved)
		if err == nil {
			e.OID = o
		}
	}
	return e
}

// parseNumericLine parses ".1.3.6.1.2.1.1.1.0 = TYPE: value".
func parseNumericLine(line string) *Entry {
	parts := strings.SplitN(line, " = ", 2)
	if len(parts) != 2 {
		return nil
	}
	oidStr := strings.TrimPrefix(strings.TrimSpace(parts[0]), ".")
	o, err := oid.Parse(oidStr)
	if err != nil {
		return nil
	}
	typ, val, ok := parseTypedValue(strings.TrimSpace(parts[1]))
	if !ok {
		return nil
	}
	return &Entry{OID: o, Raw: oidStr, Type: typ, Value: val}
}

// parseTypedValue extracts the SNMP type and value from the RHS of a line,
// e.g. `STRING: "Linux device"`, `Timeticks: (123) 0:00:01.23`,
// `INTEGER: up(1)`, `Counter32: 987654321`, `Hex-STRING: 00 11 22`.
func parseTypedValue(rhs string) (gosnmp.Asn1BER, interface{}, bool) {
	rhs = strings.TrimSpace(rhs)

	switch {
	case hasTypeToken(rhs, "STRING") || hasTypeToken(rhs, "OCTET STRING"):
		return gosnmp.OctetString, extractQuoted(rhs), true

	case hasTypeToken(rhs, "Hex-STRING"):
		return gosnmp.OctetString, extractHex(rhs), true

	case hasTypeToken(rhs, "INTEGER"):
		return gosnmp.Integer, extractEnumOrInt(rhs), true

	case hasTypeToken(rhs, "Timeticks"):
		return gosnmp.TimeTicks, extractParenInt(rhs), true

	case hasTypeToken(rhs, "Counter64"):
		return gosnmp.Counter64, uint64(extractTrailingInt(rhs)), true

	case hasTypeToken(rhs, "Counter32") || hasTypeToken(rhs, "Counter"):
		return gosnmp.Counter32, uint32(extractTrailingInt(rhs)), true

	case hasTypeToken(rhs, "Gauge32") || hasTypeToken(rhs, "Gauge"):
		return gosnmp.Gauge32, uint32(extractTrailingInt(rhs)), true

	case hasTypeToken(rhs, "IpAddress"):
		return gosnmp.IPAddress, extractTrailingToken(rhs), true

	case hasTypeToken(rhs, "OID") || hasTypeToken(rhs, "OBJECT IDENTIFIER"):
		return gosnmp.ObjectIdentifier, extractOIDValue(rhs), true

	default:
		return 0, nil, false
	}
}

func hasTypeToken(rhs, token string) bool {
	return strings.HasPrefix(rhs, token+":") || strings.HasPrefix(rhs, token+" ")
}

func extractQuoted(s string) string {
	start := strings.Index(s, "\"")
	end := strings.LastIndex(s, "\"")
	if start >= 0 && end > start {
		return s[start+1 : end]
	}
	return strings.TrimSpace(strings.TrimPrefix(s, "STRING:"))
}

func extractHex(s string) string {
	idx := strings.Index(s, ":")
	if idx < 0 {
		return ""
	}
	hexPart := s[idx+1:]
	hexPart = strings.ReplaceAll(hexPart, " ", "")
	return strings.ToUpper(strings.TrimSpace(hexPart))
}

// extractEnumOrInt handles both "INTEGER: 5" and "INTEGER: up(1)".
func extractEnumOrInt(s string) int {
	rest := trimAfterColon(s)
	if open := strings.Index(rest, "("); open >= 0 {
		if close := strings.Index(rest[open:], ")"); close >= 0 {
			n, err := strconv.Atoi(strings.TrimSpace(rest[open+1 : open+close]))
			if err == nil {
				return n
			}
		}
	}
	n, _ := strconv.Atoi(strings.TrimSpace(rest))
	return n
}

// extractParenInt handles "Timeticks: (123456789) 14:18:08.89" -> 123456789.
func extractParenInt(s string) uint32 {
	start := strings.Index(s, "(")
	end := strings.Index(s, ")")
	if start < 0 || end <= start {
		return 0
	}
	n, _ := strconv.ParseUint(strings.TrimSpace(s[start+1:end]), 10, 32)
	return uint32(n)
}

func trimAfterColon(s string) string {
	idx := strings.Index(s, ":")
	if idx < 0 {
		fields := strings.Fields(s)
		if len(fields) >= 2 {
			return fields[1]
		}
		return s
	}
	return s[idx+1:]
}

func extractTrailingInt(s string) int64 {
	fields := strings.Fields(trimAfterColon(s))
	if len(fields) == 0 {
		return 0
	}
	n, _ := strconv.ParseInt(fields[0], 10, 64)
	return n
}

func extractTrailingToken(s string) string {
	fields := strings.Fields(trimAfterColon(s))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// extractOIDValue handles "OID: .1.3.6.1.4.1.9.9.46.1" and the
// SNMPv2-SMI::enterprises. expansion form.
func extractOIDValue(s string) string {
	val := strings.TrimSpace(trimAfterColon(s))
	const enterprisesPrefix = "SNMPv2-SMI::enterprises."
	if strings.HasPrefix(val, enterprisesPrefix) {
		val = "1.3.6.1.4.1." + strings.TrimPrefix(val, enterprisesPrefix)
	}
	return strings.TrimPrefix(val, ".")
}

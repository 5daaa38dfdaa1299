package walkfile

import "strings"

// moduleBase gives the dotted OID prefix each known MIB module hangs off.
// Unknown modules fall through with an empty prefix, which makes
// lookupMIBOID return "" (entry kept but unresolved, per spec §4.B).
var moduleBase = map[string]string{
	"SNMPv2-MIB":            "1.3.6.1.2.1.1",
	"IF-MIB":                "1.3.6.1.2.1.2",
	"IP-MIB":                "1.3.6.1.2.1.4",
	"TCP-MIB":               "1.3.6.1.2.1.6",
	"UDP-MIB":                "1.3.6.1.2.1.7",
	"HOST-RESOURCES-MIB":    "1.3.6.1.2.1.25",
	"BRIDGE-MIB":            "1.3.6.1.2.1.17",
	"ENTITY-MIB":            "1.3.6.1.2.1.47",
	"DOCS-CABLE-DEVICE-MIB": "1.3.6.1.4.1.4491.2.1.19",
	"DOCS-IF-MIB":           "1.3.6.1.4.1.4491.2.1.20",
}

// objectOID maps well-known object names to their *absolute* numeric OID
// (table-column entries omit the trailing instance index; that index is
// re-appended by lookupMIBOID from the walk line's suffix).
var objectOID = map[string]string{
	// SNMPv2-MIB (system group)
	"sysDescr":        "1.3.6.1.2.1.1.1",
	"sysObjectID":     "1.3.6.1.2.1.1.2",
	"sysUpTime":       "1.3.6.1.2.1.1.3",
	"sysContact":      "1.3.6.1.2.1.1.4",
	"sysName":         "1.3.6.1.2.1.1.5",
	"sysLocation":     "1.3.6.1.2.1.1.6",
	"sysServices":     "1.3.6.1.2.1.1.7",
	"sysORLastChange": "1.3.6.1.2.1.1.8",

	// IF-MIB
	"ifNumber":        "1.3.6.1.2.1.2.1",
	"ifIndex":         "1.3.6.1.2.1.2.2.1.1",
	"ifDescr":         "1.3.6.1.2.1.2.2.1.2",
	"ifType":          "1.3.6.1.2.1.2.2.1.3",
	"ifMtu":           "1.3.6.1.2.1.2.2.1.4",
	"ifSpeed":         "1.3.6.1.2.1.2.2.1.5",
	"ifPhysAddress":   "1.3.6.1.2.1.2.2.1.6",
	"ifAdminStatus":   "1.3.6.1.2.1.2.2.1.7",
	"ifOperStatus":    "1.3.6.1.2.1.2.2.1.8",
	"ifLastChange":    "1.3.6.1.2.1.2.2.1.9",
	"ifInOctets":      "1.3.6.1.2.1.2.2.1.10",
	"ifInUcastPkts":   "1.3.6.1.2.1.2.2.1.11",
	"ifInDiscards":    "1.3.6.1.2.1.2.2.1.13",
	"ifInErrors":      "1.3.6.1.2.1.2.2.1.14",
	"ifOutOctets":     "1.3.6.1.2.1.2.2.1.16",
	"ifOutUcastPkts":  "1.3.6.1.2.1.2.2.1.17",
	"ifOutDiscards":   "1.3.6.1.2.1.2.2.1.19",
	"ifOutErrors":     "1.3.6.1.2.1.2.2.1.20",
	"ifName":          "1.3.6.1.2.1.31.1.1.1.1",
	"ifHighSpeed":     "1.3.6.1.2.1.31.1.1.1.15",
	"ifHCInOctets":    "1.3.6.1.2.1.31.1.1.1.6",
	"ifHCOutOctets":   "1.3.6.1.2.1.31.1.1.1.10",

	// IP-MIB
	"ipForwarding": "1.3.6.1.2.1.4.1",
	"ipInReceives": "1.3.6.1.2.1.4.3",
	"ipInDelivers": "1.3.6.1.2.1.4.9",

	// TCP-MIB
	"tcpActiveOpens": "1.3.6.1.2.1.6.5",
	"tcpCurrEstab":   "1.3.6.1.2.1.6.9",
	"tcpInSegs":      "1.3.6.1.2.1.6.10",
	"tcpOutSegs":     "1.3.6.1.2.1.6.11",

	// UDP-MIB
	"udpInDatagrams":  "1.3.6.1.2.1.7.1",
	"udpOutDatagrams": "1.3.6.1.2.1.7.4",

	// HOST-RESOURCES-MIB
	"hrSystemUptime":    "1.3.6.1.2.1.25.1.1",
	"hrProcessorLoad":   "1.3.6.1.2.1.25.3.3.1.2",
	"hrStorageUsed":     "1.3.6.1.2.1.25.2.3.1.6",
	"hrDeviceIndex":     "1.3.6.1.2.1.25.3.2.1.1",

	// BRIDGE-MIB
	"dot1dBaseNumPorts": "1.3.6.1.2.1.17.1.2",
	"dot1dStpPortState": "1.3.6.1.2.1.17.2.15.1.3",

	// ENTITY-MIB
	"entPhysicalDescr":     "1.3.6.1.2.1.47.1.1.1.1.2",
	"entPhysicalSerialNum": "1.3.6.1.2.1.47.1.1.1.1.11",

	// DOCS-IF-MIB (DOCSIS cable signal quality)
	"docsIfSigQSignalNoise":     "1.3.6.1.4.1.4491.2.1.20.1.24.1.1",
	"docsIfSigQUnerroreds":      "1.3.6.1.4.1.4491.2.1.20.1.24.1.3",
	"docsIfDownChannelPower":    "1.3.6.1.4.1.4491.2.1.20.1.2.1.4",
	"docsIfUpChannelTxTimingOffset": "1.3.6.1.4.1.4491.2.1.20.1.2.2.1",

	// DOCS-CABLE-DEVICE-MIB
	"docsDevCmStatusValue":       "1.3.6.1.4.1.4491.2.1.19.1.1.5.1",
	"docsDevCmStatusTxPower":     "1.3.6.1.4.1.4491.2.1.19.1.1.1.1",
	"docsDevCmStatusResets":      "1.3.6.1.4.1.4491.2.1.19.1.1.8.1",
}

var reverseNames = buildReverseNames()

func buildReverseNames() map[string]string {
	m := make(map[string]string, len(objectOID))
	for name, o := range objectOID {
		m[o] = name
	}
	return m
}

// NameForOID does a longest-prefix reverse lookup of a numeric OID against
// the known object dictionary, e.g. "1.3.6.1.2.1.2.2.1.10.1" -> "ifInOctets".
// Used by the profile behavior analyzer, which only sees numeric OIDs for
// lines parsed from numeric walk lines.
func NameForOID(path string) (string, bool) {
	path = strings.TrimPrefix(path, ".")
	comps := strings.Split(path, ".")
	for i := len(comps); i > 0; i-- {
		prefix := strings.Join(comps[:i], ".")
		if name, ok := reverseNames[prefix]; ok {
			return name, true
		}
	}
	return "", false
}

// lookupMIBOID resolves "MODULE::name[.index]" to an absolute numeric OID.
// Returns "" when either the module or the object name is unrecognized; the
// caller keeps the entry (with OID == nil) rather than failing the file.
func lookupMIBOID(mibName, objectPart string) string {
	if _, known := moduleBase[mibName]; !known {
		return ""
	}

	base, index, hasIndex := strings.Cut(objectPart, ".")
	oidBase, ok := objectOID[base]
	if !ok {
		return ""
	}
	if hasIndex {
		return oidBase + "." + index
	}
	return oidBase
}

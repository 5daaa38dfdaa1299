package main

import (
	"github.com/gosnmp/gosnmp"

	"github.com/debashish-mukherjee/go-snmpsim/internal/oid"
	"github.com/debashish-mukherjee/go-snmpsim/internal/pdu"
	"github.com/debashish-mukherjee/go-snmpsim/internal/simulate"
	"github.com/debashish-mukherjee/go-snmpsim/internal/walkfile"
)

// The firmware-upgrade control group is §4.G's designated set of writable
// OIDs: a server address and target filename that must be set before the
// admin trigger is accepted, and a read-only status OID exposing the
// idle -> inProgress -> complete state machine the trigger drives.
const (
	firmwareServerOID   = "1.3.6.1.4.1.9.9.1.1"
	firmwareFilenameOID = "1.3.6.1.4.1.9.9.1.2"
	firmwareTriggerOID  = "1.3.6.1.4.1.9.9.2.1"
	firmwareStatusOID   = "1.3.6.1.4.1.9.9.2.2"

	firmwareMaxFilenameLen = 64
)

// defaultFirmwareUpgradePolicy is installed for every device type so the
// firmware-upgrade control group actually accepts SET requests in the
// running simulator, not just in tests.
func defaultFirmwareUpgradePolicy() *pdu.WritePolicy {
	policy := pdu.NewWritePolicy()
	policy.Writable[firmwareServerOID] = pdu.WritableOID{
		Type:       gosnmp.IPAddress,
		MarksValid: "firmwareServerSet",
	}
	policy.Writable[firmwareFilenameOID] = pdu.WritableOID{
		Type:       gosnmp.OctetString,
		MaxLength:  firmwareMaxFilenameLen,
		MarksValid: "firmwareFilenameSet",
	}
	policy.Writable[firmwareTriggerOID] = pdu.WritableOID{
		Type:       gosnmp.Integer,
		IsTrigger:  true,
		EnumValues: []int{1},
		StatusVar:  "firmwareUpgradeStatus",
		Precondition: func(state *simulate.State) bool {
			return state.StatusVars["firmwareServerSet"] == 1 && state.StatusVars["firmwareFilenameSet"] == 1
		},
	}
	return policy
}

// defaultFirmwareUpgradeEntries seeds the matching profile OIDs so GET/
// GETNEXT resolve the control group before anything is ever SET. The
// trigger's precondition gates on firmwareServerSet/firmwareFilenameSet
// (only set by a successful SET of the two OIDs below), not on these
// placeholder values, so the initial GET-able defaults don't matter for
// precondition purposes.
func defaultFirmwareUpgradeEntries() []walkfile.Entry {
	return []walkfile.Entry{
		{OID: oid.MustParse(firmwareServerOID), Type: gosnmp.IPAddress, Value: "0.0.0.0"},
		{OID: oid.MustParse(firmwareFilenameOID), Type: gosnmp.OctetString, Value: ""},
		{OID: oid.MustParse(firmwareStatusOID), Type: gosnmp.Integer, Value: pdu.StatusIdle, MIBName: "firmwareUpgradeStatus"},
	}
}

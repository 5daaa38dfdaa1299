package pdu

import (
	"math/rand"
	"testing"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/debashish-mukherjee/go-snmpsim/internal/oid"
	"github.com/debashish-mukherjee/go-snmpsim/internal/profile"
	"github.com/debashish-mukherjee/go-snmpsim/internal/simulate"
	"github.com/debashish-mukherjee/go-snmpsim/internal/walkfile"
)

func testProfile(t *testing.T) *profile.Profile {
	t.Helper()
	entries := []walkfile.Entry{
		{OID: oid.MustParse("1.3.6.1.2.1.1.1.0"), Type: gosnmp.OctetString, Value: "Cable Modem"},
		{OID: oid.MustParse("1.3.6.1.2.1.2.2.1.1.1"), Type: gosnmp.Integer, Value: 1},
		{OID: oid.MustParse("1.3.6.1.2.1.2.2.1.1.2"), Type: gosnmp.Integer, Value: 2},
	}
	p, err := profile.Build("cable_modem", entries)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return p
}

func baseReq(pduType gosnmp.PDUType, vars []gosnmp.SnmpPDU) *gosnmp.SnmpPacket {
	return &gosnmp.SnmpPacket{
		Version:   gosnmp.Version2c,
		Community: "public",
		PDUType:   pduType,
		RequestID: 42,
		Variables: vars,
	}
}

func TestProcessRejectsBadCommunity(t *testing.T) {
	req := baseReq(gosnmp.GetRequest, []gosnmp.SnmpPDU{{Name: "1.3.6.1.2.1.1.1.0"}})
	req.Community = "wrong"
	_, _, err := Process(req, "public", simulate.NewState(time.Now()), testProfile(t), nil, time.Now(), rand.New(rand.NewSource(1)))
	if _, ok := err.(AuthFailure); !ok {
		t.Fatalf("expected AuthFailure, got %v", err)
	}
}

func TestProcessRejectsV3(t *testing.T) {
	req := baseReq(gosnmp.GetRequest, nil)
	req.Version = gosnmp.Version3
	_, _, err := Process(req, "public", simulate.NewState(time.Now()), testProfile(t), nil, time.Now(), rand.New(rand.NewSource(1)))
	if _, ok := err.(UnsupportedVersion); !ok {
		t.Fatalf("expected UnsupportedVersion, got %v", err)
	}
}

func TestProcessGetReturnsValue(t *testing.T) {
	req := baseReq(gosnmp.GetRequest, []gosnmp.SnmpPDU{{Name: "1.3.6.1.2.1.1.1.0"}})
	resp, _, err := Process(req, "public", simulate.NewState(time.Now()), testProfile(t), nil, time.Now(), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(resp.Variables) != 1 || resp.Variables[0].Value.(string) != "Cable Modem" {
		t.Fatalf("unexpected response: %+v", resp.Variables)
	}
	if resp.RequestID != 42 {
		t.Fatalf("request id not echoed: %d", resp.RequestID)
	}
}

func TestProcessGetUnknownOIDReturnsNoSuchObject(t *testing.T) {
	req := baseReq(gosnmp.GetRequest, []gosnmp.SnmpPDU{{Name: "9.9.9.9"}})
	resp, _, err := Process(req, "public", simulate.NewState(time.Now()), testProfile(t), nil, time.Now(), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if resp.Variables[0].Type != gosnmp.NoSuchObject {
		t.Fatalf("expected NoSuchObject, got %v", resp.Variables[0].Type)
	}
}

func TestProcessGetV1UnknownOIDReturnsNoSuchName(t *testing.T) {
	req := baseReq(gosnmp.GetRequest, []gosnmp.SnmpPDU{{Name: "9.9.9.9"}})
	req.Version = gosnmp.Version1
	resp, _, err := Process(req, "public", simulate.NewState(time.Now()), testProfile(t), nil, time.Now(), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if resp.Error != gosnmp.NoSuchName {
		t.Fatalf("expected noSuchName error-status, got %v", resp.Error)
	}
}

func TestProcessGetNextWalksToSuccessor(t *testing.T) {
	req := baseReq(gosnmp.GetNextRequest, []gosnmp.SnmpPDU{{Name: "1.3.6.1.2.1.2.2.1.1.1"}})
	resp, _, err := Process(req, "public", simulate.NewState(time.Now()), testProfile(t), nil, time.Now(), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if resp.Variables[0].Name != "1.3.6.1.2.1.2.2.1.1.2" {
		t.Fatalf("expected successor OID, got %s", resp.Variables[0].Name)
	}
}

func TestProcessGetBulkRejectedOnV1(t *testing.T) {
	req := baseReq(gosnmp.GetBulkRequest, []gosnmp.SnmpPDU{{Name: "1.3.6.1.2.1.2.2.1.1.1"}})
	req.Version = gosnmp.Version1
	resp, _, err := Process(req, "public", simulate.NewState(time.Now()), testProfile(t), nil, time.Now(), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if resp.Error != gosnmp.GenErr {
		t.Fatalf("expected genErr for v1 GETBULK, got %v", resp.Error)
	}
}

func TestProcessSetDefaultsToNotWritable(t *testing.T) {
	req := baseReq(gosnmp.SetRequest, []gosnmp.SnmpPDU{{Name: "1.3.6.1.2.1.1.1.0", Type: gosnmp.OctetString, Value: "x"}})
	resp, _, err := Process(req, "public", simulate.NewState(time.Now()), testProfile(t), nil, time.Now(), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if resp.Error != gosnmp.NotWritable {
		t.Fatalf("expected notWritable, got %v", resp.Error)
	}
}

func TestProcessSetValidatesIPAddress(t *testing.T) {
	policy := NewWritePolicy()
	policy.Writable["1.3.6.1.4.1.9.9.1.1"] = WritableOID{Type: gosnmp.IPAddress}
	req := baseReq(gosnmp.SetRequest, []gosnmp.SnmpPDU{{Name: "1.3.6.1.4.1.9.9.1.1", Type: gosnmp.IPAddress, Value: "999.1.1.1"}})
	resp, _, err := Process(req, "public", simulate.NewState(time.Now()), testProfile(t), policy, time.Now(), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if resp.Error != gosnmp.WrongValue {
		t.Fatalf("expected wrongValue for invalid IP, got %v", resp.Error)
	}
}

func TestProcessSetTriggerAdvancesStatus(t *testing.T) {
	policy := NewWritePolicy()
	policy.Writable["1.3.6.1.4.1.9.9.2.1"] = WritableOID{Type: gosnmp.Integer, IsTrigger: true, EnumValues: []int{1}, StatusVar: "firmwareUpgradeStatus"}
	state := simulate.NewState(time.Now())
	req := baseReq(gosnmp.SetRequest, []gosnmp.SnmpPDU{{Name: "1.3.6.1.4.1.9.9.2.1", Type: gosnmp.Integer, Value: 1}})
	resp, triggers, err := Process(req, "public", state, testProfile(t), policy, time.Now(), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if resp.Error != gosnmp.NoError {
		t.Fatalf("expected noError, got %v", resp.Error)
	}
	if state.StatusVars["firmwareUpgradeStatus"] != StatusInProgress {
		t.Fatalf("expected trigger to advance status to inProgress, got %v", state.StatusVars)
	}
	if len(triggers) != 1 || triggers[0].StatusVar != "firmwareUpgradeStatus" {
		t.Fatalf("expected one firmwareUpgradeStatus trigger, got %v", triggers)
	}
	if triggers[0].Delay != defaultCompletionDelay {
		t.Fatalf("expected default completion delay, got %v", triggers[0].Delay)
	}
}

func TestProcessSetTriggerUsesConfiguredCompletionDelay(t *testing.T) {
	policy := NewWritePolicy()
	policy.Writable["1.3.6.1.4.1.9.9.2.1"] = WritableOID{
		Type: gosnmp.Integer, IsTrigger: true, EnumValues: []int{1},
		StatusVar: "firmwareUpgradeStatus", CompletionDelay: 500 * time.Millisecond,
	}
	state := simulate.NewState(time.Now())
	req := baseReq(gosnmp.SetRequest, []gosnmp.SnmpPDU{{Name: "1.3.6.1.4.1.9.9.2.1", Type: gosnmp.Integer, Value: 1}})
	_, triggers, err := Process(req, "public", state, testProfile(t), policy, time.Now(), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(triggers) != 1 || triggers[0].Delay != 500*time.Millisecond {
		t.Fatalf("expected configured 500ms completion delay, got %v", triggers)
	}
}

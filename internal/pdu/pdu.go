// Package pdu implements the PDU Processor (spec component G): turns a
// decoded SNMP v1/v2c message into a response PDU (or a decision to drop),
// dispatching GET/GETNEXT against a device's Profile and delegating
// GETBULK to internal/bulk.
//
// Grounded directly on the teacher's internal/agent/agent.go
// handleGetRequest/handleGetNextRequest/handleGetBulkRequest/
// handleSetRequest and buildResponseFromRequest, stripped of the v3
// USM/auth machinery (out of scope) and generalized from the teacher's
// flat OID database to a profile.Profile + simulate.State pair.
package pdu

import (
	"math/rand"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/debashish-mukherjee/go-snmpsim/internal/bulk"
	"github.com/debashish-mukherjee/go-snmpsim/internal/metrics"
	"github.com/debashish-mukherjee/go-snmpsim/internal/oid"
	"github.com/debashish-mukherjee/go-snmpsim/internal/profile"
	"github.com/debashish-mukherjee/go-snmpsim/internal/simulate"
)

// AuthFailure signals the community string did not match; the caller must
// drop the packet without responding (§4.G Authentication).
type AuthFailure struct{}

func (AuthFailure) Error() string { return "pdu: community mismatch" }

// UnsupportedVersion signals an SNMPv3 (or otherwise unrecognized) message;
// v3 is explicitly out of scope and must be rejected rather than processed.
type UnsupportedVersion struct {
	Version gosnmp.SnmpVersion
}

func (e UnsupportedVersion) Error() string { return "pdu: unsupported SNMP version" }

// Process dispatches a decoded request packet and returns the response
// packet to marshal and send (plus any status-trigger transitions the
// caller must schedule), or an error (AuthFailure/UnsupportedVersion) the
// caller uses to decide to drop instead of responding.
func Process(req *gosnmp.SnmpPacket, community string, state *simulate.State, prof *profile.Profile, policy *WritePolicy, now time.Time, rng *rand.Rand) (*gosnmp.SnmpPacket, []Trigger, error) {
	if req.Version != gosnmp.Version1 && req.Version != gosnmp.Version2c {
		return nil, nil, UnsupportedVersion{Version: req.Version}
	}
	if req.Community != community {
		return nil, nil, AuthFailure{}
	}

	switch req.PDUType {
	case gosnmp.GetNextRequest:
		return handleGetNext(req, state, prof, now, rng), nil, nil
	case gosnmp.GetBulkRequest:
		if req.Version == gosnmp.Version1 {
			return buildResponse(req, nil, gosnmp.GenErr, 1), nil, nil
		}
		return handleGetBulk(req, state, prof, now, rng), nil, nil
	case gosnmp.SetRequest:
		resp, triggers := handleSet(req, state, policy)
		return resp, triggers, nil
	default: // GetRequest
		return handleGet(req, state, prof, now, rng), nil, nil
	}
}

func handleGet(req *gosnmp.SnmpPacket, state *simulate.State, prof *profile.Profile, now time.Time, rng *rand.Rand) *gosnmp.SnmpPacket {
	v1 := req.Version == gosnmp.Version1
	vars := make([]gosnmp.SnmpPDU, 0, len(req.Variables))

	for i, v := range req.Variables {
		o, err := oid.Parse(v.Name)
		if err != nil {
			vars = append(vars, gosnmp.SnmpPDU{Name: v.Name, Type: gosnmp.NoSuchObject})
			continue
		}

		entry, ok := prof.Get(o)
		if !ok {
			if v1 {
				return buildResponse(req, nil, gosnmp.NoSuchName, uint8(i+1))
			}
			vars = append(vars, gosnmp.SnmpPDU{Name: v.Name, Type: gosnmp.NoSuchObject})
			continue
		}

		val := simulate.Simulate(entry, state, now, rng)
		vars = append(vars, gosnmp.SnmpPDU{Name: v.Name, Type: val.Type, Value: val.Data})
	}

	return buildResponse(req, vars, gosnmp.NoError, 0)
}

func handleGetNext(req *gosnmp.SnmpPacket, state *simulate.State, prof *profile.Profile, now time.Time, rng *rand.Rand) *gosnmp.SnmpPacket {
	v1 := req.Version == gosnmp.Version1
	vars := make([]gosnmp.SnmpPDU, 0, len(req.Variables))

	for i, v := range req.Variables {
		o, err := oid.Parse(v.Name)
		if err != nil {
			if v1 {
				return buildResponse(req, nil, gosnmp.NoSuchName, uint8(i+1))
			}
			vars = append(vars, gosnmp.SnmpPDU{Name: v.Name, Type: gosnmp.EndOfMibView})
			continue
		}

		entry, ok := prof.GetNext(o)
		if !ok {
			if v1 {
				return buildResponse(req, nil, gosnmp.NoSuchName, uint8(i+1))
			}
			vars = append(vars, gosnmp.SnmpPDU{Name: v.Name, Type: gosnmp.EndOfMibView})
			continue
		}

		val := simulate.Simulate(entry, state, now, rng)
		vars = append(vars, gosnmp.SnmpPDU{Name: entry.OID.String(), Type: val.Type, Value: val.Data})
	}

	return buildResponse(req, vars, gosnmp.NoError, 0)
}

func handleGetBulk(req *gosnmp.SnmpPacket, state *simulate.State, prof *profile.Profile, now time.Time, rng *rand.Rand) *gosnmp.SnmpPacket {
	vars, err := bulk.Run(prof, int(req.NonRepeaters), int(req.MaxRepetitions), req.Variables, func(e *profile.ProfileEntry) simulate.Value {
		return simulate.Simulate(e, state, now, rng)
	}, 1400)

	if err != nil {
		if _, tooBig := err.(bulk.TooBig); tooBig {
			metrics.BulkTruncations.WithLabelValues(prof.DeviceType).Inc()
			return buildResponse(req, nil, gosnmp.TooBig, 0)
		}
		return buildResponse(req, nil, gosnmp.GenErr, 1)
	}
	return buildResponse(req, vars, gosnmp.NoError, 0)
}

func buildResponse(req *gosnmp.SnmpPacket, vars []gosnmp.SnmpPDU, errCode gosnmp.SNMPError, errIndex uint8) *gosnmp.SnmpPacket {
	resp := *req
	resp.PDUType = gosnmp.GetResponse
	resp.Variables = vars
	resp.Error = errCode
	resp.ErrorIndex = errIndex
	return &resp
}

package netlisten

import "github.com/debashish-mukherjee/go-snmpsim/internal/inject"

// corrupt mutates an already-marshaled SNMP response to simulate a
// malfunctioning agent, matching one of the five corruption strategies
// (§4.J). It operates on the wire bytes, never on the decoded packet, since
// a real malformed frame is a transport-level defect, not a semantic one.
func corrupt(frame []byte, kind inject.Corruption) []byte {
	if len(frame) == 0 {
		return frame
	}
	switch kind {
	case inject.CorruptionTruncated:
		cut := len(frame) / 2
		if cut == 0 {
			cut = 1
		}
		return frame[:cut]
	case inject.CorruptionInvalidBER:
		out := append([]byte(nil), frame...)
		out[0] = 0xFF // not a valid SEQUENCE tag
		return out
	case inject.CorruptionWrongCommunity:
		out := append([]byte(nil), frame...)
		// Flip bytes in the community-string region (just past the version
		// INTEGER, typically bytes 4-8) rather than re-encoding, keeping the
		// corruption at the transport layer.
		for i := 4; i < len(out) && i < 12; i++ {
			out[i] ^= 0xFF
		}
		return out
	case inject.CorruptionInvalidPDUType:
		out := append([]byte(nil), frame...)
		for i := range out {
			if out[i] >= 0xA0 && out[i] <= 0xA8 {
				out[i] = 0xBF // tag class/number outside the defined PDU range
				break
			}
		}
		return out
	case inject.CorruptionCorruptedVarbinds:
		out := append([]byte(nil), frame...)
		for i := len(out) - 1; i >= len(out)/2 && i >= 0; i-- {
			out[i] ^= 0x5A
		}
		return out
	default:
		return frame
	}
}

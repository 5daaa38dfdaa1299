package simulate

import (
	"math/bits"
	"math/rand"
)

// WrapCounter32 computes base+delta mod 2^32. When the addition actually
// overflows 32 bits, a device-family quirk may add up to 50 units of
// bounded post-wrap jitter (§4.E counter wrap invariants).
func WrapCounter32(base uint32, delta uint64, rng *rand.Rand) uint32 {
	sum := uint64(base) + delta
	wrapped := uint32(sum % (1 << 32))
	if sum >= (1 << 32) {
		wrapped = uint32((uint64(wrapped) + uint64(rng.Intn(51))) % (1 << 32))
	}
	return wrapped
}

// WrapCounter64 computes base+delta mod 2^64 using carry detection (Go's
// native uint64 arithmetic already wraps, but we need the carry bit to know
// whether to apply the bounded post-wrap jitter).
func WrapCounter64(base uint64, delta uint64, rng *rand.Rand) uint64 {
	wrapped, carry := bits.Add64(base, delta, 0)
	if carry == 1 {
		wrapped += uint64(rng.Intn(6))
	}
	return wrapped
}

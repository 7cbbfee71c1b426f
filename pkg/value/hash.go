package value

import "math"

// DoubleBits returns the raw bit pattern of f, used as the global-pool
// dedup key for V_DOUBLE constants.
func DoubleBits(f float64) uint64 { return math.Float64bits(f) }

// FNV-1a constants, matching original_source/strings.h exactly so string
// hashing (and therefore global-pool dedup and map bucket placement)
// behaves identically to the reference implementation.
const (
	fnvOffsetBasis uint64 = 0x811c9dc5
	fnvPrime       uint64 = 0x01000193
)

// HashBytes computes the FNV-1a hash of b, used for Str.Hash, global pool
// dedup and variable-name hashing.
func HashBytes(b []byte) uint64 {
	h := fnvOffsetBasis
	for _, c := range b {
		h ^= uint64(c)
		h *= fnvPrime
	}
	return h
}

// HashString is the string-argument convenience form of HashBytes.
func HashString(s string) uint64 {
	h := fnvOffsetBasis
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= fnvPrime
	}
	return h
}

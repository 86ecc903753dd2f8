package jobfit

import (
	"crypto/sha256"
	"encoding/hex"
	"unicode/utf16"
)

const fingerprintPrefix = "iv-"

// Fingerprint identifies narrative content. Identical text yields the same
// value; any edit produces a new one, which makes earlier cache entries
// unreachable.
func Fingerprint(narrative string) string {
	sum := sha256.Sum256([]byte(narrative))
	return fingerprintPrefix + hex.EncodeToString(sum[:])
}

// rollingHash is the 31-multiplier string hash over UTF-16 code units used
// for local scores and custom job ids.
func rollingHash(s string) uint32 {
	var h uint32
	for _, unit := range utf16.Encode([]rune(s)) {
		h = h*31 + uint32(unit)
	}
	return h
}

// Package util provides utility functions for the Zappy application.
package util

import (
	"math/rand/v2"
	"strings"
)

// GenerateRandomID generates a random ID with the specified prefix and hex length.
// The returned ID will be in the format: "{prefix}{hex_string}".
func GenerateRandomID(prefix string, hexLength int) string {
	return prefix + GenerateRandomHex(hexLength)
}

// GenerateRandomHex generates a random hexadecimal string of the specified length.
// Uses math/rand/v2; not for cryptographic purposes.
func GenerateRandomHex(length int) string {
	if length <= 0 {
		return ""
	}

	const hexChars = "0123456789abcdef"
	var builder strings.Builder
	builder.Grow(length)

	for i := 0; i < length; i++ {
		builder.WriteByte(hexChars[rand.IntN(16)])
	}

	return builder.String()
}

// GenerateOrderReference generates a unique payment order reference with "ord_" prefix.
func GenerateOrderReference() string {
	return GenerateRandomID("ord_", 16)
}

// RandomInRange returns a uniform random integer in [min, max].
func RandomInRange(min, max int) int {
	if max <= min {
		return min
	}
	return min + rand.IntN(max-min+1)
}

// CoinFlip returns true with probability 0.5.
func CoinFlip() bool {
	return rand.IntN(2) == 0
}

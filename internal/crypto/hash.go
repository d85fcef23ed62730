package crypto

import (
	"crypto/sha256"
	"encoding/hex"
)

// Checksum returns the hex encoded SHA-256 of data.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

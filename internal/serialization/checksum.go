package serialization

import (
	"crypto/sha256"
	"encoding/hex"
)

// ComputeChecksum computes SHA-256 checksum of data.
func ComputeChecksum(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// ValidateChecksum compares a computed checksum against a hex-encoded one.
// Returns ErrChecksumMismatch if they don't match.
func ValidateChecksum(computed [32]byte, stored string) error {
	if hex.EncodeToString(computed[:]) != stored {
		return ErrChecksumMismatch
	}
	return nil
}

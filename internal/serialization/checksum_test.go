package serialization

import (
	"errors"
	"testing"
)

func TestValidateChecksum(t *testing.T) {
	sum := ComputeChecksum([]byte("hello"))
	const hello = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"

	if err := ValidateChecksum(sum, hello); err != nil {
		t.Errorf("matching checksum: %v", err)
	}
	if err := ValidateChecksum(sum, "00"); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("mismatch: got %v", err)
	}
}

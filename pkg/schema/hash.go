package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/leapstack-labs/boardkit/pkg/core"
)

// Canonical returns the canonical JSON serialization of s. Field order is
// preserved; struct field order fixes key order, so equal schemas always
// produce identical bytes.
func Canonical(s *core.Schema) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return data, nil
}

// Hash returns the hex-encoded SHA-256 of the canonical serialization.
func Hash(s *core.Schema) (string, error) {
	data, err := Canonical(s)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

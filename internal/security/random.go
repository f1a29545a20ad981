package security

import (
	"crypto/rand"
	"encoding/hex"
)

// NewRandomString returns n cryptographically random bytes hex-encoded.
func NewRandomString(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

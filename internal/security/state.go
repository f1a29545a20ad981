package security

import (
	"crypto/hmac"
	"strings"
)

// SignState binds the OAuth state nonce to this deployment so the
// callback can detect forged or swapped values.
func SignState(state, secret string) string {
	return state + "." + signHMAC(state, secret)
}

// VerifySignedState checks the signature and returns the bare state.
func VerifySignedState(value, secret string) (string, bool) {
	state, sig, ok := strings.Cut(value, ".")
	if !ok || state == "" || sig == "" {
		return "", false
	}
	if !hmac.Equal([]byte(signHMAC(state, secret)), []byte(sig)) {
		return "", false
	}
	return state, true
}

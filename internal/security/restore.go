package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// RestoreSentinel stands in for the password field of a restore cookie.
// A restore cookie asserts "this browser was previously authenticated as
// this email"; its integrity, not its secrecy, is what the HMAC protects.
const RestoreSentinel = "remembered"

// RestorePayload is the signed triple carried by the "remember me" cookie.
type RestorePayload struct {
	User      string `json:"user"`
	LoginType string `json:"loginType"`
	Password  string `json:"password"`
}

// SignRestoreCookie encodes and signs a restore payload for the given
// email and login type. The password field always carries the sentinel.
func SignRestoreCookie(email, loginType, secret string) (string, error) {
	payload, err := json.Marshal(RestorePayload{User: email, LoginType: loginType, Password: RestoreSentinel})
	if err != nil {
		return "", err
	}
	encoded := base64.RawURLEncoding.EncodeToString(payload)
	return encoded + "." + signHMAC(encoded, secret), nil
}

// VerifyRestoreCookie checks the signature and shape of a restore cookie
// value. It fails closed on any malformation; callers must additionally
// require Password == RestoreSentinel before trusting the identity.
func VerifyRestoreCookie(value, secret string) (RestorePayload, bool) {
	var payload RestorePayload
	encoded, sig, ok := strings.Cut(value, ".")
	if !ok || encoded == "" || sig == "" {
		return payload, false
	}
	if !hmac.Equal([]byte(signHMAC(encoded, secret)), []byte(sig)) {
		return payload, false
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return payload, false
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return payload, false
	}
	if payload.User == "" {
		return RestorePayload{}, false
	}
	return payload, true
}

func signHMAC(data, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/scrypt"
)

const (
	scryptN       = 1 << 15
	scryptR       = 8
	scryptP       = 1
	scryptKeyLen  = 64
	scryptSaltLen = 32

	hashRecordLen = 2 * (scryptKeyLen + scryptSaltLen)
)

// NoPasswordHash marks accounts created without a usable password
// (trusted-identity sign-up). It can never equal a derived hash record,
// so CheckPassword against it always fails.
const NoPasswordHash = "!"

// HashPassword derives a salted hash record from a raw secret. The record
// is hex(key) followed by hex(salt), both fixed width. The salt is drawn
// fresh on every call, so equal secrets produce distinct records.
func HashPassword(password string) (string, error) {
	salt := make([]byte, scryptSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(key) + hex.EncodeToString(salt), nil
}

// CheckPassword reports whether the raw secret matches the hash record.
// Any malformed record (wrong length, non-hex content, the no-password
// sentinel) verifies false; this gates authentication and must not error.
// Both segments are compared at fixed positions so a key's hex digits can
// never validate as the prefix of a different key+salt record.
func CheckPassword(password, record string) bool {
	if len(record) != hashRecordLen {
		return false
	}
	salt, err := hex.DecodeString(record[2*scryptKeyLen:])
	if err != nil {
		return false
	}
	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return false
	}
	expected := record[:2*scryptKeyLen]
	return subtle.ConstantTimeCompare([]byte(hex.EncodeToString(key)), []byte(expected)) == 1
}

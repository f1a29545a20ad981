package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidSessionToken = errors.New("invalid session token")

// SessionClaims is the signed content of the session cookie. Subject is
// the account email; Verified is a snapshot at issue time and callers that
// gate on it must re-check the store.
type SessionClaims struct {
	Nickname string `json:"nickname"`
	Verified bool   `json:"verified"`
	Restored bool   `json:"restored"`
	jwt.RegisteredClaims
}

type SessionManager struct {
	issuer   string
	audience string
	secret   []byte
	ttl      time.Duration
}

func NewSessionManager(issuer, audience, secret string, ttl time.Duration) *SessionManager {
	return &SessionManager{issuer: issuer, audience: audience, secret: []byte(secret), ttl: ttl}
}

func (m *SessionManager) TTL() time.Duration { return m.ttl }

// Sign issues an HS256 session token for the given identity.
func (m *SessionManager) Sign(email, nickname string, verified, restored bool) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		Nickname: nickname,
		Verified: verified,
		Restored: restored,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.issuer,
			Audience:  jwt.ClaimStrings{m.audience},
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Parse validates the token signature, expiry, issuer and audience.
func (m *SessionManager) Parse(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSessionToken
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithAudience(m.audience), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidSessionToken
	}
	return claims, nil
}

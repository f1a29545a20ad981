package domain

import "time"

// Account is the single authoritative record per registered identity.
// PasswordHash holds either a derived hash record or the non-matchable
// sentinel for password-less (trusted-identity) accounts; it is never empty.
type Account struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Email        string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Nickname     string     `gorm:"size:255;not null" json:"nickname"`
	PasswordHash string     `gorm:"size:512;not null" json:"-"`
	LoginCount   int64      `gorm:"not null;default:0" json:"login_count"`
	SessionCount int64      `gorm:"not null;default:0" json:"session_count"`
	LastSession  *time.Time `json:"last_session,omitempty"`
	Verified     bool       `gorm:"not null;default:false" json:"verified"`
	VerifyToken  string     `gorm:"size:128" json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

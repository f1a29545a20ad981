package database

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"memberboard/internal/domain"
)

// MarkEmailVerified flips an account to verified without the token
// handshake. Operator escape hatch for environments without mail.
func MarkEmailVerified(db *gorm.DB, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return fmt.Errorf("email is required")
	}
	res := db.Model(&domain.Account{}).
		Where("email = ?", email).
		Updates(map[string]any{"verified": true, "verify_token": ""})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("no account found for %s", email)
	}
	return nil
}

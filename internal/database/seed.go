package database

import (
	"errors"
	"log/slog"

	"memberboard/internal/domain"
	"memberboard/internal/security"

	"gorm.io/gorm"
)

// SeedBootstrapAdmin provisions the operator account named in config.
// The account is created verified and password-less; the operator signs
// in through the trusted provider. Re-running against an existing
// account is a no-op, so deployments can seed on every boot.
func SeedBootstrapAdmin(db *gorm.DB, email, nickname string, logger *slog.Logger) error {
	if email == "" {
		return nil
	}
	account := domain.Account{
		Email:        email,
		Nickname:     nickname,
		PasswordHash: security.NoPasswordHash,
		Verified:     true,
	}
	res := db.Where("email = ?", email).FirstOrCreate(&account)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil
		}
		return res.Error
	}
	if res.RowsAffected > 0 {
		logger.Info("bootstrap admin seeded", "email", email)
	}
	return nil
}

package repository

import (
	"time"

	"memberboard/internal/domain"

	"gorm.io/gorm"
)

// AccountRepository is the persistence boundary for account records.
// Mutating methods return the number of rows affected so the service
// layer can detect lost updates; conditional writes carry their predicate
// into the UPDATE itself, the application never relies on check-then-act.
type AccountRepository interface {
	// Now returns the store clock. All session/statistics timestamps come
	// from here, not from the request host.
	Now() time.Time
	FindByEmail(email string) ([]domain.Account, error)
	Create(account *domain.Account) error
	// UpdatePasswordHash replaces the stored hash only where the current
	// hash still equals oldHash, so a concurrent rotation between the
	// credential check and this write affects zero rows instead of
	// clobbering the newer hash.
	UpdatePasswordHash(email, oldHash, newHash string) (int64, error)
	UpdateNickname(email, nickname string) (int64, error)
	// TouchSession atomically increments sessionCount, stamps lastSession
	// and, for fresh sign-ins only, increments loginCount.
	TouchSession(email string, now time.Time, restored bool) (int64, error)
	SetVerifyToken(email, token string) (int64, error)
	// ConsumeVerifyToken flips verified only on records whose currently
	// stored token equals the supplied one, clearing it in the same write.
	ConsumeVerifyToken(email, token string, now time.Time) (int64, error)
	CountAll() (int64, error)
	CountActiveBetween(from, to time.Time) (int64, error)
	// List returns all accounts ordered by id ascending with the password
	// hash stripped before the records leave the store boundary.
	List() ([]domain.Account, error)
}

type GormAccountRepository struct{ db *gorm.DB }

func NewAccountRepository(db *gorm.DB) AccountRepository { return &GormAccountRepository{db: db} }

func (r *GormAccountRepository) Now() time.Time {
	var now time.Time
	if err := r.db.Raw("SELECT CURRENT_TIMESTAMP").Scan(&now).Error; err != nil || now.IsZero() {
		return time.Now().UTC()
	}
	return now.UTC()
}

func (r *GormAccountRepository) FindByEmail(email string) ([]domain.Account, error) {
	var accounts []domain.Account
	err := r.db.Where("email = ?", email).Find(&accounts).Error
	return accounts, err
}

func (r *GormAccountRepository) Create(account *domain.Account) error {
	return r.db.Create(account).Error
}

func (r *GormAccountRepository) UpdatePasswordHash(email, oldHash, newHash string) (int64, error) {
	res := r.db.Model(&domain.Account{}).
		Where("email = ? AND password_hash = ?", email, oldHash).
		Update("password_hash", newHash)
	return res.RowsAffected, res.Error
}

func (r *GormAccountRepository) UpdateNickname(email, nickname string) (int64, error) {
	res := r.db.Model(&domain.Account{}).Where("email = ?", email).
		Update("nickname", nickname)
	return res.RowsAffected, res.Error
}

func (r *GormAccountRepository) TouchSession(email string, now time.Time, restored bool) (int64, error) {
	loginInc := 1
	if restored {
		loginInc = 0
	}
	res := r.db.Model(&domain.Account{}).Where("email = ?", email).
		Updates(map[string]any{
			"session_count": gorm.Expr("session_count + 1"),
			"login_count":   gorm.Expr("login_count + ?", loginInc),
			"last_session":  now,
		})
	return res.RowsAffected, res.Error
}

func (r *GormAccountRepository) SetVerifyToken(email, token string) (int64, error) {
	res := r.db.Model(&domain.Account{}).Where("email = ?", email).
		Update("verify_token", token)
	return res.RowsAffected, res.Error
}

func (r *GormAccountRepository) ConsumeVerifyToken(email, token string, now time.Time) (int64, error) {
	res := r.db.Model(&domain.Account{}).
		Where("email = ? AND verify_token = ? AND verify_token <> ''", email, token).
		Updates(map[string]any{"verified": true, "verify_token": "", "updated_at": now})
	return res.RowsAffected, res.Error
}

func (r *GormAccountRepository) CountAll() (int64, error) {
	var n int64
	err := r.db.Model(&domain.Account{}).Count(&n).Error
	return n, err
}

func (r *GormAccountRepository) CountActiveBetween(from, to time.Time) (int64, error) {
	var n int64
	err := r.db.Model(&domain.Account{}).
		Where("last_session >= ? AND last_session <= ?", from, to).
		Count(&n).Error
	return n, err
}

func (r *GormAccountRepository) List() ([]domain.Account, error) {
	var accounts []domain.Account
	err := r.db.Omit("password_hash").Order("id ASC").Find(&accounts).Error
	return accounts, err
}

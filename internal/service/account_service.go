package service

import (
	"errors"
	"time"

	"memberboard/internal/domain"
	"memberboard/internal/repository"
	"memberboard/internal/security"

	"gorm.io/gorm"
)

const verifyTokenBytes = 32

var (
	ErrEmailTaken       = errors.New("email already registered")
	ErrSamePassword     = errors.New("new password must differ from current password")
	ErrPasswordMismatch = errors.New("old password mismatch")
)

type UserStatistics struct {
	TotalCount    int64   `json:"totalCount"`
	TodayActive   int64   `json:"todayActive"`
	WeeklyAverage float64 `json:"weeklyAverage"`
}

// AccountService owns the account record lifecycle on top of the
// repository. It never formats user-facing text; callers translate the
// sentinel errors it returns.
type AccountService struct {
	repo repository.AccountRepository
}

func NewAccountService(repo repository.AccountRepository) *AccountService {
	return &AccountService{repo: repo}
}

// SignUp inserts a new account. An empty rawPassword creates a
// password-less record carrying the non-matchable sentinel hash
// (trusted-identity sign-up). The application-level duplicate check gives
// a friendly conflict error; the store's unique index on email is the
// authoritative defense under concurrent identical sign-ups, and a
// duplicate-key failure maps to the same conflict error.
func (s *AccountService) SignUp(email, nickname, rawPassword string, verified bool) (*domain.Account, error) {
	existing, err := s.repo.FindByEmail(email)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, ErrEmailTaken
	}

	hash := security.NoPasswordHash
	if rawPassword != "" {
		hash, err = security.HashPassword(rawPassword)
		if err != nil {
			return nil, err
		}
	}

	now := s.repo.Now()
	account := &domain.Account{
		Email:        email,
		Nickname:     nickname,
		PasswordHash: hash,
		Verified:     verified,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(account); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return account, nil
}

// SignIn reports whether the raw password matches the stored record.
// It fails closed unless exactly one account matches the email.
func (s *AccountService) SignIn(email, rawPassword string) (bool, error) {
	accounts, err := s.repo.FindByEmail(email)
	if err != nil {
		return false, err
	}
	if len(accounts) != 1 {
		return false, nil
	}
	return security.CheckPassword(rawPassword, accounts[0].PasswordHash), nil
}

// Get returns the account for an email, or nil when the store does not
// hold exactly one match.
func (s *AccountService) Get(email string) (*domain.Account, error) {
	accounts, err := s.repo.FindByEmail(email)
	if err != nil {
		return nil, err
	}
	if len(accounts) != 1 {
		return nil, nil
	}
	return &accounts[0], nil
}

// ChangePassword rotates the stored hash after checking the old
// password. The write is predicated on the checked hash still being
// current, so a rotation that raced in between leaves zero rows
// affected and reports a mismatch instead of overwriting the newer
// hash.
func (s *AccountService) ChangePassword(email, oldRaw, newRaw string) error {
	if oldRaw == newRaw {
		return ErrSamePassword
	}
	accounts, err := s.repo.FindByEmail(email)
	if err != nil {
		return err
	}
	if len(accounts) != 1 || !security.CheckPassword(oldRaw, accounts[0].PasswordHash) {
		return ErrPasswordMismatch
	}
	hash, err := security.HashPassword(newRaw)
	if err != nil {
		return err
	}
	rows, err := s.repo.UpdatePasswordHash(email, accounts[0].PasswordHash, hash)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrPasswordMismatch
	}
	return nil
}

// ChangeNickname overwrites the nickname. Empty input on either side is
// a no-op reported through the zero updated count.
func (s *AccountService) ChangeNickname(email, nickname string) (int64, error) {
	if email == "" || nickname == "" {
		return 0, nil
	}
	return s.repo.UpdateNickname(email, nickname)
}

// UpdateSession records a session-establishing event: sessionCount and
// lastSession always move, loginCount only for fresh sign-ins. The
// increment happens in a single store-side update so concurrent sessions
// for one account cannot lose counts. An unknown email is a no-op.
func (s *AccountService) UpdateSession(email string, restored bool) error {
	_, err := s.repo.TouchSession(email, s.repo.Now(), restored)
	return err
}

// IssueVerificationToken rotates the stored verification token and
// returns the fresh value. Rotation overwrites: only the latest issued
// token can validate. An unknown email yields an empty token, and so
// does an update that did not affect exactly one row.
func (s *AccountService) IssueVerificationToken(email string) (string, error) {
	accounts, err := s.repo.FindByEmail(email)
	if err != nil {
		return "", err
	}
	if len(accounts) != 1 {
		return "", nil
	}
	token, err := security.NewRandomString(verifyTokenBytes)
	if err != nil {
		return "", err
	}
	rows, err := s.repo.SetVerifyToken(email, token)
	if err != nil {
		return "", err
	}
	if rows != 1 {
		return "", nil
	}
	return token, nil
}

// ConsumeVerificationToken marks the account verified iff the supplied
// token equals the currently stored one. Stale or already-consumed
// tokens report false, never an error.
func (s *AccountService) ConsumeVerificationToken(email, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	rows, err := s.repo.ConsumeVerifyToken(email, token, s.repo.Now())
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// Statistics aggregates activity over the store clock: accounts active
// since local midnight, and the trailing 7-day active count divided by
// seven. The weekly average is intentionally unrounded; presentation
// rounding belongs to clients.
func (s *AccountService) Statistics() (UserStatistics, error) {
	now := s.repo.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	total, err := s.repo.CountAll()
	if err != nil {
		return UserStatistics{}, err
	}
	today, err := s.repo.CountActiveBetween(midnight, now)
	if err != nil {
		return UserStatistics{}, err
	}
	weekly, err := s.repo.CountActiveBetween(now.AddDate(0, 0, -7), now)
	if err != nil {
		return UserStatistics{}, err
	}
	return UserStatistics{
		TotalCount:    total,
		TodayActive:   today,
		WeeklyAverage: float64(weekly) / 7,
	}, nil
}

func (s *AccountService) List() ([]domain.Account, error) {
	return s.repo.List()
}

package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"memberboard/internal/domain"
	"memberboard/internal/observability"
	"memberboard/internal/security"
)

var (
	// ErrInvalidCredentials deliberately covers both unknown email and
	// wrong password so responses cannot be used to probe for accounts.
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrWeakPassword       = errors.New("password does not satisfy the policy")
	ErrAlreadyVerified    = errors.New("email already verified")
)

// LoginResult carries everything a transport needs to establish a
// session: the account snapshot, the signed session token and, when the
// caller asked to be remembered, a fresh restore cookie value.
type LoginResult struct {
	Account      *domain.Account
	SessionToken string
	RestoreToken string
	ExpiresAt    time.Time
}

// AuthService coordinates account state, credential checks, token
// issuance and verification mail. Handlers talk to it and to nothing
// below it.
type AuthService struct {
	accounts      *AccountService
	sessions      *security.SessionManager
	policy        *security.PolicyChecker
	notifier      EmailVerificationNotifier
	logger        *slog.Logger
	restoreSecret string
	verifyBaseURL string
}

func NewAuthService(
	accounts *AccountService,
	sessions *security.SessionManager,
	policy *security.PolicyChecker,
	notifier EmailVerificationNotifier,
	logger *slog.Logger,
	restoreSecret, verifyBaseURL string,
) *AuthService {
	return &AuthService{
		accounts:      accounts,
		sessions:      sessions,
		policy:        policy,
		notifier:      notifier,
		logger:        logger,
		restoreSecret: restoreSecret,
		verifyBaseURL: strings.TrimRight(verifyBaseURL, "/"),
	}
}

// RegisterLocal creates an unverified password account. A failed policy
// check returns the full result so clients can show every violated rule
// at once. On success a verification link goes out in the background;
// mail delivery never blocks or fails the sign-up.
func (s *AuthService) RegisterLocal(ctx context.Context, email, nickname, password, confirmation string) (*domain.Account, *security.PolicyResult, error) {
	result := s.policy.CheckWithConfirmation(password, confirmation)
	if !result.IsValid {
		return nil, &result, ErrWeakPassword
	}
	account, err := s.accounts.SignUp(email, nickname, password, false)
	if err != nil {
		return nil, nil, err
	}
	s.sendVerification(ctx, account.Email, account.Nickname)
	return account, nil, nil
}

// RegisterTrusted creates a verified password-less account for an
// identity vouched for by an external provider.
func (s *AuthService) RegisterTrusted(ctx context.Context, email, nickname string) (*domain.Account, error) {
	return s.accounts.SignUp(email, nickname, "", true)
}

// LoginLocal authenticates a password sign-in and establishes a fresh
// session. With remember set the result additionally carries a signed
// restore cookie value.
func (s *AuthService) LoginLocal(ctx context.Context, email, password string, remember bool) (*LoginResult, error) {
	ok, err := s.accounts.SignIn(email, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		observability.RecordLoginAttempt(ctx, LoginTypeLocal, "rejected")
		return nil, ErrInvalidCredentials
	}
	result, err := s.establishSession(ctx, email, LoginTypeLocal, remember, false)
	if err != nil {
		return nil, err
	}
	observability.RecordLoginAttempt(ctx, LoginTypeLocal, "accepted")
	return result, nil
}

// LoginTrusted establishes a session for an already-authenticated
// external identity. The account must exist.
func (s *AuthService) LoginTrusted(ctx context.Context, email string, remember bool) (*LoginResult, error) {
	result, err := s.establishSession(ctx, email, LoginTypeGoogle, remember, false)
	if err != nil {
		return nil, err
	}
	observability.RecordLoginAttempt(ctx, LoginTypeGoogle, "accepted")
	return result, nil
}

// Restore turns a valid restore cookie into a fresh session without a
// password round trip. The cookie must verify against the restore
// secret and carry the sentinel password; anything else fails closed.
// A successful restore bumps sessionCount but not loginCount, and the
// restore cookie is rotated so every browser visit re-signs it.
func (s *AuthService) Restore(ctx context.Context, cookieValue string) (*LoginResult, error) {
	payload, ok := security.VerifyRestoreCookie(cookieValue, s.restoreSecret)
	if !ok || payload.Password != security.RestoreSentinel {
		observability.RecordSessionRestore(ctx, "rejected")
		return nil, ErrInvalidCredentials
	}
	result, err := s.establishSession(ctx, payload.User, payload.LoginType, true, true)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			observability.RecordSessionRestore(ctx, "rejected")
		}
		return nil, err
	}
	observability.RecordSessionRestore(ctx, "accepted")
	return result, nil
}

func (s *AuthService) establishSession(ctx context.Context, email, loginType string, remember, restored bool) (*LoginResult, error) {
	account, err := s.accounts.Get(email)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.accounts.UpdateSession(email, restored); err != nil {
		return nil, err
	}
	token, err := s.sessions.Sign(account.Email, account.Nickname, account.Verified, restored)
	if err != nil {
		return nil, err
	}
	result := &LoginResult{
		Account:      account,
		SessionToken: token,
		ExpiresAt:    time.Now().Add(s.sessions.TTL()),
	}
	if remember {
		restoreToken, err := security.SignRestoreCookie(account.Email, loginType, s.restoreSecret)
		if err != nil {
			return nil, err
		}
		result.RestoreToken = restoreToken
	}
	return result, nil
}

// VerifyEmail consumes a verification token. False means the token is
// stale, already consumed or simply wrong; the caller cannot tell which.
func (s *AuthService) VerifyEmail(ctx context.Context, email, token string) (bool, error) {
	ok, err := s.accounts.ConsumeVerificationToken(email, token)
	if err != nil {
		return false, err
	}
	outcome := "rejected"
	if ok {
		outcome = "accepted"
	}
	observability.RecordEmailVerification(ctx, outcome)
	return ok, err
}

// ResendVerification issues a fresh token and mails a new link. The
// response is identical whether the email exists, is unverified or is
// unknown, so the endpoint cannot enumerate accounts.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	account, err := s.accounts.Get(email)
	if err != nil {
		return err
	}
	if account == nil || account.Verified {
		return nil
	}
	s.sendVerification(ctx, account.Email, account.Nickname)
	return nil
}

// ChangePassword validates the replacement against the policy before
// touching credentials. A policy failure returns the result alongside
// ErrWeakPassword.
func (s *AuthService) ChangePassword(ctx context.Context, email, oldPassword, newPassword string) (*security.PolicyResult, error) {
	result := s.policy.Check(newPassword)
	if !result.IsValid {
		return &result, ErrWeakPassword
	}
	return nil, s.accounts.ChangePassword(email, oldPassword, newPassword)
}

func (s *AuthService) ChangeNickname(ctx context.Context, email, nickname string) (int64, error) {
	return s.accounts.ChangeNickname(email, nickname)
}

// sendVerification issues a token and dispatches the mail off the
// request path. Failures are logged, never surfaced; the user can
// always ask for a resend.
func (s *AuthService) sendVerification(ctx context.Context, email, nickname string) {
	token, err := s.accounts.IssueVerificationToken(email)
	if err != nil || token == "" {
		if err != nil {
			s.logger.ErrorContext(ctx, "issue verification token", "email", email, "error", err)
		}
		return
	}
	notification := VerificationNotification{
		Email:           email,
		Nickname:        nickname,
		Token:           token,
		VerificationURL: s.verifyBaseURL + "/" + url.PathEscape(email) + "/" + token,
		IssuedAt:        time.Now(),
	}
	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.notifier.SendEmailVerification(sendCtx, notification); err != nil {
			s.logger.Error("send verification email", "email", email, "error", err)
			observability.RecordVerificationEmail(sendCtx, "failed")
			return
		}
		observability.RecordVerificationEmail(sendCtx, "sent")
	}()
}

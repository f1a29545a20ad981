package handler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"memberboard/internal/domain"
	"memberboard/internal/http/middleware"
	"memberboard/internal/repository"
	"memberboard/internal/security"
	"memberboard/internal/service"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testSessionSecret = "abcdefghijklmnopqrstuvwxyz123456"
	testRestoreSecret = "restore-secret-0123456789abcdef"
	testStateSecret   = "state-secret-12345"
)

type testStack struct {
	auth     *service.AuthService
	accounts *service.AccountService
	sessions *security.SessionManager
	cookies  *security.CookieManager
	notifier *captureNotifier
}

type captureNotifier struct {
	sent chan service.VerificationNotification
}

func (n *captureNotifier) SendEmailVerification(_ context.Context, notification service.VerificationNotification) error {
	n.sent <- notification
	return nil
}

func (n *captureNotifier) wait(t *testing.T) service.VerificationNotification {
	t.Helper()
	select {
	case got := <-n.sent:
		return got
	case <-time.After(2 * time.Second):
		t.Fatal("no verification mail dispatched")
		return service.VerificationNotification{}
	}
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Account{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	accounts := service.NewAccountService(repository.NewAccountRepository(db))
	sessions := security.NewSessionManager("memberboard", "memberboard-api", testSessionSecret, 15*time.Minute)
	policy := security.NewPolicyChecker(security.PolicyConfig{ExplainFailures: true})
	notifier := &captureNotifier{sent: make(chan service.VerificationNotification, 8)}
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	auth := service.NewAuthService(accounts, sessions, policy, notifier, discard, testRestoreSecret, "http://localhost:8080/api/auth/verify")

	return &testStack{
		auth:     auth,
		accounts: accounts,
		sessions: sessions,
		cookies:  security.NewCookieManager("", false, "lax"),
		notifier: notifier,
	}
}

func (s *testStack) register(t *testing.T, email, nickname, password string) *domain.Account {
	t.Helper()
	account, _, err := s.auth.RegisterLocal(context.Background(), email, nickname, password, password)
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	s.notifier.wait(t)
	return account
}

func (s *testStack) withSession(t *testing.T, r *http.Request, email, nickname string) *http.Request {
	t.Helper()
	token, err := s.sessions.Sign(email, nickname, true, false)
	if err != nil {
		t.Fatalf("sign session: %v", err)
	}
	claims, err := s.sessions.Parse(token)
	if err != nil {
		t.Fatalf("parse session: %v", err)
	}
	return r.WithContext(context.WithValue(r.Context(), middleware.SessionContextKey, claims))
}

func cookieByName(res *http.Response, name string) *http.Cookie {
	for _, c := range res.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

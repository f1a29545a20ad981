package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"memberboard/internal/domain"
	"memberboard/internal/health"
	"memberboard/internal/http/handler"
	"memberboard/internal/http/middleware"
	"memberboard/internal/http/router"
	"memberboard/internal/repository"
	"memberboard/internal/security"
	"memberboard/internal/service"
)

const (
	testSessionSecret = "abcdefghijklmnopqrstuvwxyz123456"
	testRestoreSecret = "restore-secret-0123456789abcdef"
	testStateSecret   = "state-secret-0123456789abcdef"
	testPassword      = "Sup3r!Secret"
)

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type verificationCaptureNotifier struct {
	mu     sync.Mutex
	tokens map[string]string
	sent   chan struct{}
}

func newVerificationCaptureNotifier() *verificationCaptureNotifier {
	return &verificationCaptureNotifier{tokens: map[string]string{}, sent: make(chan struct{}, 16)}
}

func (n *verificationCaptureNotifier) SendEmailVerification(_ context.Context, notification service.VerificationNotification) error {
	n.mu.Lock()
	n.tokens[notification.Email] = notification.Token
	n.mu.Unlock()
	n.sent <- struct{}{}
	return nil
}

func (n *verificationCaptureNotifier) waitToken(t *testing.T, email string) string {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		n.mu.Lock()
		token := n.tokens[email]
		n.mu.Unlock()
		if token != "" {
			return token
		}
		select {
		case <-n.sent:
		case <-deadline:
			t.Fatalf("no verification mail for %s", email)
		}
	}
}

func (n *verificationCaptureNotifier) waitRotation(t *testing.T, email, old string) string {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		n.mu.Lock()
		token := n.tokens[email]
		n.mu.Unlock()
		if token != "" && token != old {
			return token
		}
		select {
		case <-n.sent:
		case <-deadline:
			t.Fatalf("verification token for %s was not rotated", email)
		}
	}
}

type testServer struct {
	URL      string
	Client   *http.Client
	Accounts *service.AccountService
	Auth     *service.AuthService
	Notifier *verificationCaptureNotifier
	close    func()
}

type serverOptions struct {
	authRateLimitRPM int
}

func newTestServer(t *testing.T, opts ...func(*serverOptions)) *testServer {
	t.Helper()
	o := serverOptions{authRateLimitRPM: 1000}
	for _, apply := range opts {
		apply(&o)
	}

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
	cookies := security.NewCookieManager("", false, "lax")
	notifier := newVerificationCaptureNotifier()
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	auth := service.NewAuthService(accounts, sessions, policy, notifier, discard, testRestoreSecret, "http://localhost/api/auth/verify")

	deps := router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(auth, nil, cookies, 15*time.Minute, 720*time.Hour, testStateSecret),
		UserHandler:       handler.NewUserHandler(auth, accounts),
		AdminHandler:      handler.NewAdminHandler(accounts),
		SessionMiddleware: middleware.NewSessionMiddleware(sessions, cookies, auth, 720*time.Hour),
		AccountService:    accounts,
		CookieManager:     cookies,
		CORSOrigins:       []string{"http://localhost:3000"},
		BodyLimitBytes:    1 << 20,
		SignInPath:        "/sign-in",
		AuthRateLimitRPM:  o.authRateLimitRPM,
		APIRateLimitRPM:   10000,
		Readiness:         health.NewProbeRunner(time.Second, 0, health.NewDBChecker(db)),
	}
	srv := httptest.NewServer(router.NewRouter(deps))

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	ts := &testServer{URL: srv.URL, Client: client, Accounts: accounts, Auth: auth, Notifier: notifier, close: srv.Close}
	t.Cleanup(ts.close)
	return ts
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) (*http.Response, apiEnvelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var env apiEnvelope
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("decode %q: %v", raw, err)
		}
	}
	return resp, env
}

func (ts *testServer) register(t *testing.T, email, nickname string) {
	t.Helper()
	resp, env := doJSON(t, ts.Client, http.MethodPost, ts.URL+"/api/auth/register", map[string]string{
		"email":                email,
		"nickname":             nickname,
		"password":             testPassword,
		"passwordConfirmation": testPassword,
	})
	if resp.StatusCode != http.StatusCreated || !env.Success {
		t.Fatalf("register %s: status=%d success=%v", email, resp.StatusCode, env.Success)
	}
}

func (ts *testServer) login(t *testing.T, email string, remember bool) {
	t.Helper()
	resp, env := doJSON(t, ts.Client, http.MethodPost, ts.URL+"/api/auth/login", map[string]any{
		"email":    email,
		"password": testPassword,
		"remember": remember,
	})
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("login %s: status=%d success=%v", email, resp.StatusCode, env.Success)
	}
}

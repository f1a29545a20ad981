package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"memberboard/internal/http/response"
	"memberboard/internal/observability"
	"memberboard/internal/security"
	"memberboard/internal/service"
)

type AuthHandler struct {
	authSvc     *service.AuthService
	oauthSvc    *service.OAuthService
	cookieMgr   *security.CookieManager
	sessionTTL  time.Duration
	restoreTTL  time.Duration
	stateSecret string
}

func NewAuthHandler(authSvc *service.AuthService, oauthSvc *service.OAuthService, cookieMgr *security.CookieManager, sessionTTL, restoreTTL time.Duration, stateSecret string) *AuthHandler {
	return &AuthHandler{
		authSvc:     authSvc,
		oauthSvc:    oauthSvc,
		cookieMgr:   cookieMgr,
		sessionTTL:  sessionTTL,
		restoreTTL:  restoreTTL,
		stateSecret: stateSecret,
	}
}

type registerRequest struct {
	Email                string `json:"email"`
	Nickname             string `json:"nickname"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"passwordConfirmation"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "register", status, time.Since(start))
	}()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "failure"
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	if req.Email == "" || req.Nickname == "" {
		status = "failure"
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "email and nickname are required", nil)
		return
	}

	account, policyResult, err := h.authSvc.RegisterLocal(r.Context(), req.Email, req.Nickname, req.Password, req.PasswordConfirmation)
	switch {
	case errors.Is(err, service.ErrWeakPassword):
		status = "failure"
		observability.Audit(r, "auth.register.rejected", "email", req.Email, "reason", "policy")
		response.Error(w, r, http.StatusUnprocessableEntity, "WEAK_PASSWORD", "password does not satisfy the policy", policyResult)
		return
	case errors.Is(err, service.ErrEmailTaken):
		status = "failure"
		observability.Audit(r, "auth.register.rejected", "email", req.Email, "reason", "email_taken")
		response.Error(w, r, http.StatusConflict, "EMAIL_TAKEN", "email already registered", nil)
		return
	case err != nil:
		status = "failure"
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "registration failed", nil)
		return
	}

	observability.Audit(r, "auth.register.success", "email", account.Email)
	response.JSON(w, r, http.StatusCreated, account)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "login", status, time.Since(start))
	}()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "failure"
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}

	result, err := h.authSvc.LoginLocal(r.Context(), req.Email, req.Password, req.Remember)
	if err != nil {
		status = "failure"
		if errors.Is(err, service.ErrInvalidCredentials) {
			observability.Audit(r, "auth.login.rejected", "email", req.Email)
			response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "incorrect email or password", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "login failed", nil)
		return
	}

	h.establishCookies(w, result, req.Remember)
	observability.Audit(r, "auth.login.success", "email", result.Account.Email, "remember", req.Remember)

	body := map[string]any{"user": result.Account, "expiresAt": result.ExpiresAt}
	if returnTo := security.GetCookie(r, security.ReturnToCookieName); returnTo != "" {
		body["returnTo"] = returnTo
	}
	response.JSON(w, r, http.StatusOK, body)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookieMgr.ClearAuthCookies(w)
	observability.Audit(r, "auth.logout")
	response.JSON(w, r, http.StatusOK, map[string]any{"loggedOut": true})
}

// Verify consumes the emailed verification link. The email path segment
// arrives percent-encoded; unescape it explicitly before the lookup so
// addresses with plus signs or unicode survive the round trip.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	email, err := url.PathUnescape(chi.URLParam(r, "email"))
	if err != nil || email == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed email", nil)
		return
	}
	token := chi.URLParam(r, "token")

	ok, err := h.authSvc.VerifyEmail(r.Context(), email, token)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "verification failed", nil)
		return
	}
	if !ok {
		observability.Audit(r, "auth.verify.rejected", "email", email)
		response.Error(w, r, http.StatusGone, "TOKEN_INVALID", "verification link is invalid or expired", nil)
		return
	}
	observability.Audit(r, "auth.verify.success", "email", email)
	response.JSON(w, r, http.StatusOK, map[string]any{"verified": true})
}

type resendRequest struct {
	Email string `json:"email"`
}

// ResendVerification always answers 202 regardless of whether the email
// maps to an account; the endpoint must not leak membership.
func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req resendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "email is required", nil)
		return
	}
	if err := h.authSvc.ResendVerification(r.Context(), req.Email); err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "resend failed", nil)
		return
	}
	response.JSON(w, r, http.StatusAccepted, map[string]any{"accepted": true})
}

func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := security.NewRandomString(24)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to generate oauth state", nil)
		return
	}
	h.cookieMgr.SetStateCookie(w, security.SignState(state, h.stateSecret))
	observability.Audit(r, "auth.google.login.redirect")
	http.Redirect(w, r, h.oauthSvc.LoginURL(state), http.StatusFound)
}

func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "google_callback", status, time.Since(start))
	}()

	queryState := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if queryState == "" || code == "" {
		status = "failure"
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "missing state or code", nil)
		return
	}
	state, ok := security.VerifySignedState(security.GetCookie(r, security.StateCookieName), h.stateSecret)
	if !ok || state != queryState {
		status = "failure"
		observability.Audit(r, "auth.google.callback.rejected", "reason", "invalid_state")
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid oauth state", nil)
		return
	}
	// One-time state: drop it as soon as it verified.
	h.cookieMgr.ClearStateCookie(w)

	result, err := h.oauthSvc.HandleCallback(r.Context(), code, true)
	if err != nil {
		status = "failure"
		observability.Audit(r, "auth.google.callback.rejected", "reason", "exchange", "error", err.Error())
		response.Error(w, r, http.StatusUnauthorized, "OAUTH_FAILED", "google sign-in failed", nil)
		return
	}
	h.establishCookies(w, result, true)
	observability.Audit(r, "auth.login.success", "email", result.Account.Email, "provider", "google")
	response.JSON(w, r, http.StatusOK, map[string]any{"user": result.Account, "expiresAt": result.ExpiresAt})
}

func (h *AuthHandler) establishCookies(w http.ResponseWriter, result *service.LoginResult, remember bool) {
	h.cookieMgr.SetSessionCookie(w, result.SessionToken, h.sessionTTL)
	if remember && result.RestoreToken != "" {
		h.cookieMgr.SetRestoreCookie(w, result.RestoreToken, h.restoreTTL)
	}
}

package middleware

import (
	"context"
	"net/http"
	"time"

	"memberboard/internal/http/response"
	"memberboard/internal/security"
	"memberboard/internal/service"
)

type contextKey string

const SessionContextKey contextKey = "session"

// SessionRestorer re-establishes a session from a signed restore cookie.
type SessionRestorer interface {
	Restore(ctx context.Context, cookieValue string) (*service.LoginResult, error)
}

// SessionMiddleware resolves the caller's identity for every request.
// A valid session cookie wins; failing that, a valid restore cookie is
// exchanged for a fresh session transparently, with both cookies
// rewritten on the response. Requests with neither pass through
// anonymous; the Require* guards decide what anonymity costs.
type SessionMiddleware struct {
	sessions   *security.SessionManager
	cookies    *security.CookieManager
	restorer   SessionRestorer
	restoreTTL time.Duration
}

func NewSessionMiddleware(sessions *security.SessionManager, cookies *security.CookieManager, restorer SessionRestorer, restoreTTL time.Duration) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions, cookies: cookies, restorer: restorer, restoreTTL: restoreTTL}
}

func (m *SessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := security.GetCookie(r, security.SessionCookieName); raw != "" {
			if claims, err := m.sessions.Parse(raw); err == nil {
				next.ServeHTTP(w, r.WithContext(withSession(r.Context(), claims)))
				return
			}
		}
		if raw := security.GetCookie(r, security.RestoreCookieName); raw != "" && m.restorer != nil {
			if result, err := m.restorer.Restore(r.Context(), raw); err == nil {
				if claims, err := m.sessions.Parse(result.SessionToken); err == nil {
					m.cookies.SetSessionCookie(w, result.SessionToken, m.sessions.TTL())
					m.cookies.SetRestoreCookie(w, result.RestoreToken, m.restoreTTL)
					next.ServeHTTP(w, r.WithContext(withSession(r.Context(), claims)))
					return
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

func withSession(ctx context.Context, claims *security.SessionClaims) context.Context {
	return context.WithValue(ctx, SessionContextKey, claims)
}

func SessionFromContext(ctx context.Context) (*security.SessionClaims, bool) {
	c, ok := ctx.Value(SessionContextKey).(*security.SessionClaims)
	return c, ok
}

// RequireAPI guards JSON endpoints. Unauthenticated calls get a bare
// 401 with an empty body; API clients key off the status alone.
func RequireAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := SessionFromContext(r.Context()); !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePage guards browser-facing routes. Unauthenticated visits are
// bounced to the sign-in page with the original path parked in a
// short-lived cookie so sign-in can land the user back where they were.
func RequirePage(signInPath string, cookies *security.CookieManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := SessionFromContext(r.Context()); !ok {
				cookies.SetReturnToCookie(w, r.URL.RequestURI())
				http.Redirect(w, r, signInPath, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireVerified rejects accounts that have not completed the email
// handshake. The claim in the token is a snapshot at issue time, so the
// guard re-checks the store rather than trusting it.
func RequireVerified(accounts *service.AccountService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := SessionFromContext(r.Context())
			if !ok {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			account, err := accounts.Get(claims.Subject)
			if err != nil {
				response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "account lookup failed", nil)
				return
			}
			if account == nil || !account.Verified {
				response.Error(w, r, http.StatusForbidden, "VERIFICATION_REQUIRED", "email address not verified", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package security

import (
	"net/http"
	"time"
)

const (
	SessionCookieName  = "session_token"
	RestoreCookieName  = "restore_token"
	ReturnToCookieName = "return_to"
	StateCookieName    = "oauth_state"
)

type CookieManager struct {
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

func NewCookieManager(domain string, secure bool, sameSite string) *CookieManager {
	mode := http.SameSiteLaxMode
	switch sameSite {
	case "strict":
		mode = http.SameSiteStrictMode
	case "none":
		mode = http.SameSiteNoneMode
	}
	return &CookieManager{Domain: domain, Secure: secure, SameSite: mode}
}

// SetSessionCookie installs the short-lived signed session token.
func (m *CookieManager) SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   m.Domain,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: m.SameSite,
	})
}

// SetRestoreCookie installs the long-lived "remember me" cookie. It is
// scoped to the auth routes; only session restoration reads it.
func (m *CookieManager) SetRestoreCookie(w http.ResponseWriter, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     RestoreCookieName,
		Value:    value,
		Path:     "/",
		Domain:   m.Domain,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: m.SameSite,
	})
}

// SetReturnToCookie records the originally requested path so the page
// guard can redirect back after sign-in.
func (m *CookieManager) SetReturnToCookie(w http.ResponseWriter, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     ReturnToCookieName,
		Value:    path,
		Path:     "/",
		Domain:   m.Domain,
		MaxAge:   300,
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: m.SameSite,
	})
}

// SetStateCookie pins the OAuth state nonce to the browser for the
// duration of the round trip to the provider.
func (m *CookieManager) SetStateCookie(w http.ResponseWriter, state string) {
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    state,
		Path:     "/",
		Domain:   m.Domain,
		MaxAge:   600,
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: m.SameSite,
	})
}

// ClearStateCookie removes the OAuth state nonce after the callback.
func (m *CookieManager) ClearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    "",
		Path:     "/",
		Domain:   m.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: m.SameSite,
	})
}

// ClearAuthCookies removes session, restore and return-to state on
// sign-out.
func (m *CookieManager) ClearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{SessionCookieName, RestoreCookieName, ReturnToCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Domain:   m.Domain,
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   m.Secure,
			SameSite: m.SameSite,
		})
	}
}

func GetCookie(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

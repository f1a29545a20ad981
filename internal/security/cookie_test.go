package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewCookieManagerSameSiteMapping(t *testing.T) {
	if got := NewCookieManager("", true, "strict").SameSite; got != http.SameSiteStrictMode {
		t.Fatalf("strict mapping mismatch: %v", got)
	}
	if got := NewCookieManager("", true, "none").SameSite; got != http.SameSiteNoneMode {
		t.Fatalf("none mapping mismatch: %v", got)
	}
	if got := NewCookieManager("", true, "unexpected").SameSite; got != http.SameSiteLaxMode {
		t.Fatalf("default mapping mismatch: %v", got)
	}
}

func TestCookieManagerSessionAndRestoreCookies(t *testing.T) {
	mgr := NewCookieManager("example.com", true, "strict")
	rr := httptest.NewRecorder()
	mgr.SetSessionCookie(rr, "s", 15*time.Minute)
	mgr.SetRestoreCookie(rr, "r", 30*24*time.Hour)

	byName := map[string]*http.Cookie{}
	for _, c := range rr.Result().Cookies() {
		byName[c.Name] = c
	}

	session := byName[SessionCookieName]
	if session == nil || session.Path != "/" || !session.HttpOnly || !session.Secure ||
		session.Domain != "example.com" || session.MaxAge != int((15*time.Minute).Seconds()) {
		t.Fatalf("unexpected session cookie: %#v", session)
	}
	restore := byName[RestoreCookieName]
	if restore == nil || !restore.HttpOnly || restore.MaxAge != int((30*24*time.Hour).Seconds()) {
		t.Fatalf("unexpected restore cookie: %#v", restore)
	}
}

func TestCookieManagerClearAuthCookies(t *testing.T) {
	mgr := NewCookieManager("", false, "lax")
	rr := httptest.NewRecorder()
	mgr.ClearAuthCookies(rr)

	cookies := rr.Result().Cookies()
	if len(cookies) != 3 {
		t.Fatalf("expected 3 cleared cookies, got %d", len(cookies))
	}
	for _, c := range cookies {
		if c.MaxAge != -1 || c.Value != "" {
			t.Fatalf("cookie %q expected cleared value/max-age, got value=%q max_age=%d", c.Name, c.Value, c.MaxAge)
		}
	}
}

func TestGetCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "x"})

	if got := GetCookie(req, SessionCookieName); got != "x" {
		t.Fatalf("unexpected cookie value %q", got)
	}
	if got := GetCookie(req, "missing"); got != "" {
		t.Fatalf("expected empty value for missing cookie, got %q", got)
	}
}

package integration

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"testing"

	"memberboard/internal/security"
)

func restoreCookieFromJar(t *testing.T, client *http.Client, base string) *http.Cookie {
	t.Helper()
	u, err := url.Parse(base)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	for _, c := range client.Jar.Cookies(u) {
		if c.Name == security.RestoreCookieName {
			return c
		}
	}
	t.Fatal("restore cookie not set")
	return nil
}

func TestSessionRestoreFromRememberCookie(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "restore@example.com", "rita")
	ts.login(t, "restore@example.com", true)

	restore := restoreCookieFromJar(t, ts.Client, ts.URL)

	// A fresh client holding only the restore cookie stands in for a
	// browser whose short-lived session cookie has expired.
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	u, _ := url.Parse(ts.URL)
	jar.SetCookies(u, []*http.Cookie{restore})
	revisit := &http.Client{Jar: jar}

	resp, env := doJSON(t, revisit, http.MethodGet, ts.URL+"/api/user/me", nil)
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("me via restore: status=%d success=%v", resp.StatusCode, env.Success)
	}

	var hasSession bool
	for _, c := range jar.Cookies(u) {
		if c.Name == security.SessionCookieName && c.Value != "" {
			hasSession = true
		}
	}
	if !hasSession {
		t.Fatal("restore must install a fresh session cookie")
	}

	account, err := ts.Accounts.Get("restore@example.com")
	if err != nil || account == nil {
		t.Fatalf("get account: %v", err)
	}
	if account.LoginCount != 1 || account.SessionCount != 2 {
		t.Fatalf("restore must count a session but not a login: %+v", account)
	}
}

func TestSessionRestoreIgnoresForgedCookie(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "forged@example.com", "fred")

	forged, err := security.SignRestoreCookie("forged@example.com", "local", "attacker-controlled-secret-000000")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	jar, _ := cookiejar.New(nil)
	u, _ := url.Parse(ts.URL)
	jar.SetCookies(u, []*http.Cookie{{Name: security.RestoreCookieName, Value: forged}})
	client := &http.Client{Jar: jar}

	if resp, _ := doJSON(t, client, http.MethodGet, ts.URL+"/api/user/me", nil); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("forged cookie must not authenticate: status=%d", resp.StatusCode)
	}
}

func TestNoRestoreCookieWithoutRemember(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "norem@example.com", "nora")
	ts.login(t, "norem@example.com", false)

	u, _ := url.Parse(ts.URL)
	for _, c := range ts.Client.Jar.Cookies(u) {
		if c.Name == security.RestoreCookieName {
			t.Fatal("restore cookie must require remember")
		}
	}
}

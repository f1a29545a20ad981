package integration

import (
	"net/http"
	"net/url"
	"testing"
)

func verifyURL(base, email, token string) string {
	return base + "/api/auth/verify/" + url.PathEscape(email) + "/" + token
}

func TestEmailVerificationRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	email := "verify+tag@example.com"
	ts.register(t, email, "vera")
	token := ts.Notifier.waitToken(t, email)

	resp, env := doJSON(t, ts.Client, http.MethodGet, verifyURL(ts.URL, email, token), nil)
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("verify: status=%d success=%v", resp.StatusCode, env.Success)
	}

	account, err := ts.Accounts.Get(email)
	if err != nil || account == nil {
		t.Fatalf("get account: %v", err)
	}
	if !account.Verified || account.VerifyToken != "" {
		t.Fatalf("verification must flip the flag and clear the token: %+v", account)
	}

	// The token is single use.
	resp, env = doJSON(t, ts.Client, http.MethodGet, verifyURL(ts.URL, email, token), nil)
	if resp.StatusCode != http.StatusGone {
		t.Fatalf("reused token: status=%d", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Code != "TOKEN_INVALID" {
		t.Fatalf("error = %+v", env.Error)
	}
}

func TestResendInvalidatesStaleToken(t *testing.T) {
	ts := newTestServer(t)
	email := "resend@example.com"
	ts.register(t, email, "remy")
	stale := ts.Notifier.waitToken(t, email)

	resp, env := doJSON(t, ts.Client, http.MethodPost, ts.URL+"/api/auth/verify/resend", map[string]string{"email": email})
	if resp.StatusCode != http.StatusAccepted || !env.Success {
		t.Fatalf("resend: status=%d success=%v", resp.StatusCode, env.Success)
	}

	fresh := ts.Notifier.waitRotation(t, email, stale)

	if resp, _ := doJSON(t, ts.Client, http.MethodGet, verifyURL(ts.URL, email, stale), nil); resp.StatusCode != http.StatusGone {
		t.Fatalf("stale token: status=%d", resp.StatusCode)
	}
	if resp, _ := doJSON(t, ts.Client, http.MethodGet, verifyURL(ts.URL, email, fresh), nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("fresh token: status=%d", resp.StatusCode)
	}
}

func TestResendDoesNotLeakAccountExistence(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "known@example.com", "kim")
	ts.Notifier.waitToken(t, "known@example.com")

	for _, email := range []string{"known@example.com", "unknown@example.com"} {
		resp, _ := doJSON(t, ts.Client, http.MethodPost, ts.URL+"/api/auth/verify/resend", map[string]string{"email": email})
		if resp.StatusCode != http.StatusAccepted {
			t.Fatalf("resend %s: status=%d", email, resp.StatusCode)
		}
	}
}

package integration

import (
	"net/http"
	"testing"
)

func TestLoginEndpointThrottled(t *testing.T) {
	// Register also passes through the auth limiter, so the budget
	// leaves room for exactly three login attempts.
	ts := newTestServer(t, func(o *serverOptions) {
		o.authRateLimitRPM = 4
	})
	ts.register(t, "throttle@example.com", "tess")

	body := map[string]any{"email": "throttle@example.com", "password": "wrong-password"}
	var last *http.Response
	for i := 0; i < 3; i++ {
		last, _ = doJSON(t, ts.Client, http.MethodPost, ts.URL+"/api/auth/login", body)
		if last.StatusCode != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status=%d", i, last.StatusCode)
		}
	}

	last, _ = doJSON(t, ts.Client, http.MethodPost, ts.URL+"/api/auth/login", body)
	if last.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d", last.StatusCode)
	}
	if last.Header.Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}

	// The health endpoint is outside the auth limiter.
	if resp, _ := doJSON(t, ts.Client, http.MethodGet, ts.URL+"/health/live", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("health: status=%d", resp.StatusCode)
	}
}

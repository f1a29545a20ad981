package integration

import (
	"encoding/json"
	"net/http"
	"testing"
)

func (ts *testServer) verify(t *testing.T, email string) {
	t.Helper()
	token := ts.Notifier.waitToken(t, email)
	if resp, _ := doJSON(t, ts.Client, http.MethodGet, verifyURL(ts.URL, email, token), nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("verify %s: status=%d", email, resp.StatusCode)
	}
}

func TestAdminStatisticsRequiresVerifiedAccount(t *testing.T) {
	ts := newTestServer(t)
	email := "admin@example.com"
	ts.register(t, email, "ada")
	ts.login(t, email, false)

	resp, env := doJSON(t, ts.Client, http.MethodGet, ts.URL+"/api/admin/statistics", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("unverified access: status=%d", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Code != "VERIFICATION_REQUIRED" {
		t.Fatalf("error = %+v", env.Error)
	}

	ts.verify(t, email)
	// Fresh session so the endpoint re-evaluates against the store.
	ts.login(t, email, false)

	resp, env = doJSON(t, ts.Client, http.MethodGet, ts.URL+"/api/admin/statistics", nil)
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("statistics: status=%d success=%v", resp.StatusCode, env.Success)
	}

	var stats struct {
		TotalCount    int64   `json:"totalCount"`
		TodayActive   int64   `json:"todayActive"`
		WeeklyAverage float64 `json:"weeklyAverage"`
	}
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.TotalCount != 1 || stats.TodayActive != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.WeeklyAverage <= 0 {
		t.Fatalf("weekly average = %v", stats.WeeklyAverage)
	}
}

func TestAdminEndpointsRequireSession(t *testing.T) {
	ts := newTestServer(t)
	for _, path := range []string{"/api/admin/statistics", "/api/admin/users"} {
		resp, _ := doJSON(t, ts.Client, http.MethodGet, ts.URL+path, nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s: status=%d", path, resp.StatusCode)
		}
	}
}

package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/helmcode/wingman/internal/discord"
	"github.com/helmcode/wingman/internal/store"
)

// setupTestServer creates a Server with in-memory SQLite and a fake
// Discord transport.
func setupTestServer(t *testing.T) (*Server, *discord.Fake) {
	t.Helper()
	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	fake := discord.NewFake()
	srv := NewServer(Options{
		Transport:        fake,
		Tasks:            store.NewTaskRepo(db),
		Notifications:    store.NewScheduledNotificationRepo(db),
		Lounge:           store.NewLoungeRepo(db, 0),
		Settings:         store.NewSettingsRepo(db),
		SchedulerEnabled: true,
	})
	return srv, fake
}

// doRequest performs an HTTP request against the Fiber app and returns the response.
func doRequest(srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	var bodyReader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")

	resp, _ := srv.App.Test(req, -1)

	rec := httptest.NewRecorder()
	rec.Code = resp.StatusCode
	respBody, _ := io.ReadAll(resp.Body)
	rec.Body = bytes.NewBuffer(respBody)
	resp.Body.Close()
	return rec
}

// parseJSON unmarshals the response body into the target.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse response JSON: %v\nbody: %s", err, rec.Body.String())
	}
}

func TestHealthCheck(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := doRequest(srv, "GET", "/api/health", nil)
	if rec.Code != 200 {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	var health HealthResponse
	parseJSON(t, rec, &health)
	if health.Status != "ok" {
		t.Errorf("status: got %q, want 'ok'", health.Status)
	}
}

func TestAuth_HealthAlwaysUnauthenticated(t *testing.T) {
	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	srv := NewServer(Options{
		Transport:   discord.NewFake(),
		Tasks:       store.NewTaskRepo(db),
		Lounge:      store.NewLoungeRepo(db, 0),
		BearerToken: "secret",
	})

	rec := doRequest(srv, "GET", "/api/health", nil)
	if rec.Code != 200 {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
}

func TestAuth_RejectsMissingToken(t *testing.T) {
	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	srv := NewServer(Options{
		Transport:   discord.NewFake(),
		Tasks:       store.NewTaskRepo(db),
		Lounge:      store.NewLoungeRepo(db, 0),
		BearerToken: "secret",
	})

	rec := doRequest(srv, "GET", "/api/lounge", nil)
	if rec.Code != 401 {
		t.Fatalf("status: got %d, want 401", rec.Code)
	}
}

func TestAuth_AcceptsValidToken(t *testing.T) {
	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	srv := NewServer(Options{
		Transport:   discord.NewFake(),
		Tasks:       store.NewTaskRepo(db),
		Lounge:      store.NewLoungeRepo(db, 0),
		BearerToken: "secret",
	})

	req := httptest.NewRequest("GET", "/api/lounge", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err := srv.App.Test(req, -1)
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
}

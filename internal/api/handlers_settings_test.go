package api

import (
	"net/http/httptest"
	"testing"

	"github.com/helmcode/wingman/internal/discord"
	"github.com/helmcode/wingman/internal/store"
	"golang.org/x/crypto/bcrypt"
)

func TestUpdateAndGetSettings(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := doRequest(srv, "PUT", "/api/settings", UpdateSettingRequest{Key: "lounge_channel_id", Value: "chan-9"})
	if rec.Code != 200 {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	rec = doRequest(srv, "GET", "/api/settings", nil)
	if rec.Code != 200 {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	var settings []store.Setting
	parseJSON(t, rec, &settings)
	if len(settings) != 1 || settings[0].Key != "lounge_channel_id" || settings[0].Value != "chan-9" {
		t.Fatalf("unexpected settings: %+v", settings)
	}
}

func TestUpdateSettings_MissingKey(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := doRequest(srv, "PUT", "/api/settings", UpdateSettingRequest{Value: "x"})
	if rec.Code != 400 {
		t.Fatalf("status: got %d, want 400", rec.Code)
	}
}

func TestDeleteSetting(t *testing.T) {
	srv, _ := setupTestServer(t)

	doRequest(srv, "PUT", "/api/settings", UpdateSettingRequest{Key: "foo", Value: "bar"})

	rec := doRequest(srv, "DELETE", "/api/settings/foo", nil)
	if rec.Code != 204 {
		t.Fatalf("status: got %d, want 204", rec.Code)
	}

	rec = doRequest(srv, "GET", "/api/settings", nil)
	var settings []store.Setting
	parseJSON(t, rec, &settings)
	if len(settings) != 0 {
		t.Fatalf("expected setting removed, got %+v", settings)
	}
}

// TestAuth_SettingsHashTakesPrecedenceOverStaticToken proves the rotation
// path: a bcrypt hash stored under settingsBearerTokenHashKey wins over the
// static BearerToken, so rotating via PUT /api/settings takes effect without
// a restart and without needing to know the old static token.
func TestAuth_SettingsHashTakesPrecedenceOverStaticToken(t *testing.T) {
	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	settings := store.NewSettingsRepo(db)

	hash, err := bcrypt.GenerateFromPassword([]byte("rotated-secret"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword: %v", err)
	}
	if err := settings.Set(settingsBearerTokenHashKey, string(hash)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	srv := NewServer(Options{
		Transport:   discord.NewFake(),
		Tasks:       store.NewTaskRepo(db),
		Lounge:      store.NewLoungeRepo(db, 0),
		Settings:    settings,
		BearerToken: "stale-static-token",
	})

	// Old static token must now be rejected.
	req := httptest.NewRequest("GET", "/api/lounge", nil)
	req.Header.Set("Authorization", "Bearer stale-static-token")
	resp, err := srv.App.Test(req, -1)
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Fatalf("status: got %d, want 401 for stale static token", resp.StatusCode)
	}

	// Rotated token from Settings must be accepted.
	req = httptest.NewRequest("GET", "/api/lounge", nil)
	req.Header.Set("Authorization", "Bearer rotated-secret")
	resp, err = srv.App.Test(req, -1)
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status: got %d, want 200 for rotated token", resp.StatusCode)
	}
}

package api

import (
	"testing"

	"github.com/helmcode/wingman/internal/discord"
	"github.com/helmcode/wingman/internal/store"
)

func TestPostLounge(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := doRequest(srv, "POST", "/api/lounge", PostLoungeRequest{
		Message: "deployed service A",
		Label:   "session-1",
	})
	if rec.Code != 201 {
		t.Fatalf("status: got %d, want 201\nbody: %s", rec.Code, rec.Body.String())
	}

	var msg store.LoungeMessage
	parseJSON(t, rec, &msg)
	if msg.Message != "deployed service A" {
		t.Errorf("message: got %q", msg.Message)
	}
}

func TestPostLounge_MissingMessage(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := doRequest(srv, "POST", "/api/lounge", PostLoungeRequest{Label: "x"})
	if rec.Code != 400 {
		t.Fatalf("status: got %d, want 400", rec.Code)
	}
}

func TestPostLounge_ForwardsToChannelWhenConfigured(t *testing.T) {
	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	fake := discord.NewFake()
	srv := NewServer(Options{
		Transport:       fake,
		Tasks:           store.NewTaskRepo(db),
		Lounge:          store.NewLoungeRepo(db, 0),
		LoungeChannelID: "lounge-chan",
	})

	doRequest(srv, "POST", "/api/lounge", PostLoungeRequest{Message: "hi", Label: "bot"})

	if len(fake.SentChannel) != 1 {
		t.Fatalf("expected lounge post forwarded to channel, got %+v", fake.SentChannel)
	}
}

func TestGetLounge_CapsLimit(t *testing.T) {
	srv, _ := setupTestServer(t)

	for i := 0; i < 60; i++ {
		doRequest(srv, "POST", "/api/lounge", PostLoungeRequest{Message: "m", Label: "x"})
	}

	rec := doRequest(srv, "GET", "/api/lounge?limit=1000", nil)
	if rec.Code != 200 {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	var rows []store.LoungeMessage
	parseJSON(t, rec, &rows)
	if len(rows) != loungeMaxLimit {
		t.Errorf("expected limit capped at %d, got %d", loungeMaxLimit, len(rows))
	}
}

func TestGetLounge_DefaultLimit(t *testing.T) {
	srv, _ := setupTestServer(t)

	for i := 0; i < 30; i++ {
		doRequest(srv, "POST", "/api/lounge", PostLoungeRequest{Message: "m", Label: "x"})
	}

	rec := doRequest(srv, "GET", "/api/lounge", nil)
	var rows []store.LoungeMessage
	parseJSON(t, rec, &rows)
	if len(rows) != loungeDefaultLimit {
		t.Errorf("expected default limit %d, got %d", loungeDefaultLimit, len(rows))
	}
}

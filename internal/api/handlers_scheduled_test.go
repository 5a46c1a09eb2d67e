package api

import (
	"testing"
	"time"

	"github.com/helmcode/wingman/internal/store"
)

func TestCreateScheduled(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := doRequest(srv, "POST", "/api/schedule", ScheduleRequest{
		Message:     "stand up reminder",
		ScheduledAt: time.Now().Add(time.Hour).Format(time.RFC3339),
		ChannelID:   "chan-1",
	})
	if rec.Code != 201 {
		t.Fatalf("status: got %d, want 201\nbody: %s", rec.Code, rec.Body.String())
	}

	var resp ScheduleResponse
	parseJSON(t, rec, &resp)
	if resp.ID == "" {
		t.Error("expected non-empty scheduled notification id")
	}
}

func TestCreateScheduled_InvalidTime(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := doRequest(srv, "POST", "/api/schedule", ScheduleRequest{
		Message:     "bad time",
		ScheduledAt: "not-a-date",
		ChannelID:   "chan-1",
	})
	if rec.Code != 400 {
		t.Fatalf("status: got %d, want 400", rec.Code)
	}
}

func TestCreateScheduled_MissingMessage(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := doRequest(srv, "POST", "/api/schedule", ScheduleRequest{
		ScheduledAt: time.Now().Add(time.Hour).Format(time.RFC3339),
		ChannelID:   "chan-1",
	})
	if rec.Code != 400 {
		t.Fatalf("status: got %d, want 400", rec.Code)
	}
}

func TestListScheduled(t *testing.T) {
	srv, _ := setupTestServer(t)

	doRequest(srv, "POST", "/api/schedule", ScheduleRequest{
		Message:     "a",
		ScheduledAt: time.Now().Add(time.Hour).Format(time.RFC3339),
		ChannelID:   "chan-1",
	})
	doRequest(srv, "POST", "/api/schedule", ScheduleRequest{
		Message:     "b",
		ScheduledAt: time.Now().Add(2 * time.Hour).Format(time.RFC3339),
		ChannelID:   "chan-1",
	})

	rec := doRequest(srv, "GET", "/api/scheduled", nil)
	if rec.Code != 200 {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	var rows []store.ScheduledNotification
	parseJSON(t, rec, &rows)
	if len(rows) != 2 {
		t.Fatalf("rows: got %d, want 2", len(rows))
	}
}

func TestDeleteScheduled(t *testing.T) {
	srv, _ := setupTestServer(t)

	createRec := doRequest(srv, "POST", "/api/schedule", ScheduleRequest{
		Message:     "cancel me",
		ScheduledAt: time.Now().Add(time.Hour).Format(time.RFC3339),
		ChannelID:   "chan-1",
	})
	var created ScheduleResponse
	parseJSON(t, createRec, &created)

	rec := doRequest(srv, "DELETE", "/api/scheduled/"+created.ID, nil)
	if rec.Code != 204 {
		t.Fatalf("status: got %d, want 204", rec.Code)
	}
}

func TestDeleteScheduled_NotFound(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := doRequest(srv, "DELETE", "/api/scheduled/nonexistent", nil)
	if rec.Code != 404 {
		t.Fatalf("status: got %d, want 404", rec.Code)
	}
}

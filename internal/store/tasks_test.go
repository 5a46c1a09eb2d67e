package store

import (
	"testing"
	"time"
)

func TestTaskRepo_CreateRunImmediately(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	repo := NewTaskRepo(db)

	task, err := repo.Create(CreateParams{
		Name:            "daily-standup",
		Prompt:          "summarize yesterday",
		IntervalSeconds: 86400,
		ChannelID:       "chan-1",
		RunImmediately:  true,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if task.NextRunAt.After(time.Now().Add(time.Second)) {
		t.Errorf("expected next_run_at ~now when RunImmediately, got %v", task.NextRunAt)
	}
}

func TestTaskRepo_CreateDeferred(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	repo := NewTaskRepo(db)

	before := time.Now()
	task, err := repo.Create(CreateParams{
		Name:            "deferred",
		Prompt:          "p",
		IntervalSeconds: 3600,
		ChannelID:       "chan-1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !task.NextRunAt.After(before.Add(3599 * time.Second)) {
		t.Errorf("expected next_run_at one interval out, got %v", task.NextRunAt)
	}
}

func TestTaskRepo_GetDueAndAdvance(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	repo := NewTaskRepo(db)

	task, err := repo.Create(CreateParams{
		Name:            "poll",
		Prompt:          "p",
		IntervalSeconds: 30,
		ChannelID:       "chan-1",
		RunImmediately:  true,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	due, err := repo.GetDue(time.Now())
	if err != nil {
		t.Fatalf("GetDue: %v", err)
	}
	if len(due) != 1 || due[0].ID != task.ID {
		t.Fatalf("expected task to be due, got %+v", due)
	}

	// Advance next_run_at before dispatch — the invariant the master loop
	// relies on to avoid double-firing within one interval.
	if err := repo.UpdateNextRun(task.ID, task.IntervalSeconds); err != nil {
		t.Fatalf("UpdateNextRun: %v", err)
	}

	due, err = repo.GetDue(time.Now())
	if err != nil {
		t.Fatalf("GetDue: %v", err)
	}
	if len(due) != 0 {
		t.Errorf("expected task to no longer be due immediately after advancing, got %+v", due)
	}
}

func TestTaskRepo_DisabledTaskNotDue(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	repo := NewTaskRepo(db)

	task, _ := repo.Create(CreateParams{
		Name:            "disabled",
		Prompt:          "p",
		IntervalSeconds: 10,
		ChannelID:       "chan-1",
		RunImmediately:  true,
	})

	enabled := false
	if _, err := repo.Patch(task.ID, PatchParams{Enabled: &enabled}); err != nil {
		t.Fatalf("Patch: %v", err)
	}

	due, err := repo.GetDue(time.Now())
	if err != nil {
		t.Fatalf("GetDue: %v", err)
	}
	if len(due) != 0 {
		t.Errorf("expected disabled task to be excluded from due list, got %+v", due)
	}
}

func TestTaskRepo_PatchPartial(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	repo := NewTaskRepo(db)

	task, _ := repo.Create(CreateParams{
		Name:            "patchable",
		Prompt:          "original",
		IntervalSeconds: 60,
		ChannelID:       "chan-1",
	})

	newPrompt := "updated"
	updated, err := repo.Patch(task.ID, PatchParams{Prompt: &newPrompt})
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if updated.Prompt != "updated" {
		t.Errorf("expected prompt updated, got %q", updated.Prompt)
	}
	if updated.IntervalSeconds != 60 {
		t.Errorf("expected interval_seconds untouched, got %d", updated.IntervalSeconds)
	}
}

func TestTaskRepo_FiredSinceAdvancesCursor(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	repo := NewTaskRepo(db)

	task, _ := repo.Create(CreateParams{
		Name:            "polled",
		Prompt:          "p",
		IntervalSeconds: 30,
		ChannelID:       "chan-1",
		RunImmediately:  true,
	})

	before, _ := repo.FiredSince(time.Time{})
	if len(before) != 0 {
		t.Fatalf("expected no fires before dispatch, got %+v", before)
	}

	if err := repo.UpdateNextRun(task.ID, task.IntervalSeconds); err != nil {
		t.Fatalf("UpdateNextRun: %v", err)
	}

	fired, cursor := repo.FiredSince(time.Time{})
	if len(fired) != 1 || fired[0].ID != task.ID {
		t.Fatalf("expected task to show as fired, got %+v", fired)
	}

	again, _ := repo.FiredSince(cursor)
	if len(again) != 0 {
		t.Errorf("expected no repeat delivery once cursor advances past last_run_at, got %+v", again)
	}
}

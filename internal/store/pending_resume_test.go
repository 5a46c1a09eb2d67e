package store

import "testing"

func TestPendingResumeRepo_MarkGetDelete(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	repo := NewPendingResumeRepo(db, 5)

	if err := repo.Mark("thread-1", "sess-1", "self-restart", "please continue"); err != nil {
		t.Fatalf("Mark: %v", err)
	}

	rows, err := repo.GetPending()
	if err != nil {
		t.Fatalf("GetPending: %v", err)
	}
	if len(rows) != 1 || rows[0].ThreadID != "thread-1" {
		t.Fatalf("expected one pending row for thread-1, got %+v", rows)
	}

	if err := repo.Delete(rows[0].ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	rows, err = repo.GetPending()
	if err != nil {
		t.Fatalf("GetPending: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no pending rows after delete, got %d", len(rows))
	}
}

func TestPendingResumeRepo_UniquePerThread(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	repo := NewPendingResumeRepo(db, 5)

	repo.Mark("thread-1", "sess-1", "first", "")
	repo.Mark("thread-1", "sess-2", "second", "")

	rows, err := repo.GetPending()
	if err != nil {
		t.Fatalf("GetPending: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected at most one pending resume per thread, got %d", len(rows))
	}
	if rows[0].SessionID != "sess-2" {
		t.Errorf("expected the later Mark to win, got session_id %q", rows[0].SessionID)
	}
}

func TestPendingResumeRepo_TTLExpiry(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	// A negative TTL means every row is immediately considered expired.
	repo := NewPendingResumeRepo(db, -1)

	repo.Mark("thread-9", "sess-9", "self-restart", "")

	rows, err := repo.GetPending()
	if err != nil {
		t.Fatalf("GetPending: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected expired rows to be pruned, got %d", len(rows))
	}
}

func TestPendingResumeRepo_DeleteByThread(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	repo := NewPendingResumeRepo(db, 5)

	repo.Mark("thread-7", "sess-7", "self-restart", "")
	if err := repo.DeleteByThread("thread-7"); err != nil {
		t.Fatalf("DeleteByThread: %v", err)
	}

	rows, _ := repo.GetPending()
	if len(rows) != 0 {
		t.Errorf("expected row removed, got %d", len(rows))
	}
}

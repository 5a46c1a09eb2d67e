package store

import "testing"

func TestPendingAskRepo_SaveGetDelete(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	repo := NewPendingAskRepo(db)

	questions := []AskQuestion{
		{
			Header: "Which auth?",
			Options: []AskOption{
				{Label: "JWT"},
				{Label: "OAuth2"},
			},
		},
	}

	if err := repo.Save("thread-1", "sess-1", questions, 0); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.Get("thread-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("expected pending ask record")
	}

	decoded, err := got.Questions()
	if err != nil {
		t.Fatalf("Questions: %v", err)
	}
	if len(decoded) != 1 || decoded[0].Header != "Which auth?" {
		t.Errorf("unexpected decoded questions: %+v", decoded)
	}

	if err := repo.Delete("thread-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err = repo.Get("thread-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Error("expected pending ask removed after delete")
	}
}

func TestPendingAskRepo_ListAll(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	repo := NewPendingAskRepo(db)

	repo.Save("thread-a", "sess-a", []AskQuestion{{Header: "Q1"}}, 0)
	repo.Save("thread-b", "sess-b", []AskQuestion{{Header: "Q2"}}, 0)

	all, err := repo.ListAll()
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 pending asks, got %d", len(all))
	}
}

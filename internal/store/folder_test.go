package store

import "testing"

func TestFolderCreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	userID := createTestUser(t, db, "folders@example.com")
	folders := NewFolderStore(db)

	created, err := folders.Create("Work", nil, userID)
	if err != nil {
		t.Fatalf("create folder: %v", err)
	}
	if created.ID == 0 {
		t.Error("expected folder id to be set")
	}
	if created.ParentID != nil {
		t.Error("expected root folder to have nil parent")
	}

	got, err := folders.GetByID(created.ID, userID)
	if err != nil {
		t.Fatalf("get folder: %v", err)
	}
	if got == nil || got.Name != "Work" {
		t.Errorf("expected folder Work, got %+v", got)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.Before(got.CreatedAt) {
		t.Errorf("bad timestamps: created %v updated %v", got.CreatedAt, got.UpdatedAt)
	}
}

func TestFolderListSortedByName(t *testing.T) {
	db := setupTestDB(t)
	userID := createTestUser(t, db, "folders@example.com")
	folders := NewFolderStore(db)

	for _, name := range []string{"Work", "Archive", "Personal"} {
		if _, err := folders.Create(name, nil, userID); err != nil {
			t.Fatalf("create folder %q: %v", name, err)
		}
	}

	list, err := folders.List(userID)
	if err != nil {
		t.Fatalf("list folders: %v", err)
	}
	want := []string{"Archive", "Personal", "Work"}
	if len(list) != len(want) {
		t.Fatalf("expected %d folders, got %d", len(want), len(list))
	}
	for i, name := range want {
		if list[i].Name != name {
			t.Errorf("folder %d: expected %q, got %q", i, name, list[i].Name)
		}
	}
}

func TestFolderNesting(t *testing.T) {
	db := setupTestDB(t)
	userID := createTestUser(t, db, "folders@example.com")
	folders := NewFolderStore(db)

	parent, err := folders.Create("Work", nil, userID)
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	child, err := folders.Create("Drafts", &parent.ID, userID)
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	if child.ParentID == nil || *child.ParentID != parent.ID {
		t.Errorf("expected child parent %d, got %v", parent.ID, child.ParentID)
	}
}

func TestFolderRename(t *testing.T) {
	db := setupTestDB(t)
	userID := createTestUser(t, db, "folders@example.com")
	folders := NewFolderStore(db)

	folder, err := folders.Create("Drafts", nil, userID)
	if err != nil {
		t.Fatalf("create folder: %v", err)
	}

	renamed, err := folders.Rename(folder.ID, "Published", userID)
	if err != nil {
		t.Fatalf("rename folder: %v", err)
	}
	if renamed == nil || renamed.Name != "Published" {
		t.Errorf("expected renamed folder, got %+v", renamed)
	}

	missing, err := folders.Rename(9999, "Nope", userID)
	if err != nil {
		t.Fatalf("rename missing folder: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing folder, got %+v", missing)
	}
}

func TestFolderDeleteDetachesNotes(t *testing.T) {
	db := setupTestDB(t)
	userID := createTestUser(t, db, "folders@example.com")
	folders := NewFolderStore(db)
	notes := NewNoteStore(db)

	folder, err := folders.Create("Work", nil, userID)
	if err != nil {
		t.Fatalf("create folder: %v", err)
	}
	note, err := notes.Create("Meeting notes", "agenda", &folder.ID, userID)
	if err != nil {
		t.Fatalf("create note: %v", err)
	}

	if err := folders.Delete(folder.ID, userID); err != nil {
		t.Fatalf("delete folder: %v", err)
	}

	gone, err := folders.GetByID(folder.ID, userID)
	if err != nil {
		t.Fatalf("get deleted folder: %v", err)
	}
	if gone != nil {
		t.Error("expected folder to be deleted")
	}

	survivor, err := notes.GetByID(note.ID, userID)
	if err != nil {
		t.Fatalf("get note: %v", err)
	}
	if survivor == nil {
		t.Fatal("expected note to survive folder deletion")
	}
	if survivor.FolderID != nil {
		t.Errorf("expected detached note, got folder %v", survivor.FolderID)
	}
}

func TestFolderDeleteReparentsChildren(t *testing.T) {
	db := setupTestDB(t)
	userID := createTestUser(t, db, "folders@example.com")
	folders := NewFolderStore(db)

	parent, err := folders.Create("Work", nil, userID)
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	child, err := folders.Create("Drafts", &parent.ID, userID)
	if err != nil {
		t.Fatalf("create child: %v", err)
	}

	if err := folders.Delete(parent.ID, userID); err != nil {
		t.Fatalf("delete parent: %v", err)
	}

	got, err := folders.GetByID(child.ID, userID)
	if err != nil {
		t.Fatalf("get child: %v", err)
	}
	if got == nil {
		t.Fatal("expected child folder to survive")
	}
	if got.ParentID != nil {
		t.Errorf("expected child re-parented to root, got %v", got.ParentID)
	}
}

func TestFolderCrossUserIsolation(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	other := createTestUser(t, db, "other@example.com")
	folders := NewFolderStore(db)

	folder, err := folders.Create("Private", nil, owner)
	if err != nil {
		t.Fatalf("create folder: %v", err)
	}

	got, err := folders.GetByID(folder.ID, other)
	if err != nil {
		t.Fatalf("get as other user: %v", err)
	}
	if got != nil {
		t.Error("expected other user to see nothing")
	}

	renamed, err := folders.Rename(folder.ID, "Stolen", other)
	if err != nil {
		t.Fatalf("rename as other user: %v", err)
	}
	if renamed != nil {
		t.Error("expected rename by other user to miss")
	}

	if err := folders.Delete(folder.ID, other); err != nil {
		t.Fatalf("delete as other user: %v", err)
	}
	still, err := folders.GetByID(folder.ID, owner)
	if err != nil {
		t.Fatalf("get as owner: %v", err)
	}
	if still == nil {
		t.Error("expected folder to survive other user's delete")
	}
}

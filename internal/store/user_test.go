package store

import "testing"

func TestUserCreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserStore(db)

	created, err := users.Create("alice@example.com", "Alice", "hashed-password")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	byEmail, err := users.GetByEmail("alice@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail == nil || byEmail.ID != created.ID {
		t.Errorf("expected user %d, got %+v", created.ID, byEmail)
	}

	byID, err := users.GetByID(created.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if byID == nil || byID.Email != "alice@example.com" {
		t.Errorf("expected alice, got %+v", byID)
	}
}

func TestUserDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserStore(db)

	if _, err := users.Create("dup@example.com", "First", "hash"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := users.Create("dup@example.com", "Second", "hash"); err == nil {
		t.Error("expected duplicate email to fail")
	}
}

func TestUserPasswordHash(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserStore(db)

	if _, err := users.Create("alice@example.com", "Alice", "the-hash"); err != nil {
		t.Fatalf("create user: %v", err)
	}

	hash, err := users.PasswordHash("alice@example.com")
	if err != nil {
		t.Fatalf("password hash: %v", err)
	}
	if hash != "the-hash" {
		t.Errorf("expected stored hash, got %q", hash)
	}

	missing, err := users.PasswordHash("nobody@example.com")
	if err != nil {
		t.Fatalf("password hash for missing user: %v", err)
	}
	if missing != "" {
		t.Errorf("expected empty hash for missing user, got %q", missing)
	}
}

package store

import (
	"database/sql"
	"testing"

	"github.com/offnotes/offnotes/internal/database"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *sql.DB, email string) int64 {
	t.Helper()
	user, err := NewUserStore(db).Create(email, "Test User", "hash")
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user.ID
}

package store

import (
	"database/sql"
	"fmt"

	"github.com/offnotes/offnotes/internal/model"
)

const (
	searchLimit = 20
	recentLimit = 5
)

type NoteStore struct {
	db *sql.DB
}

func NewNoteStore(db *sql.DB) *NoteStore {
	return &NoteStore{db: db}
}

func scanNote(scanner interface{ Scan(...any) error }) (*model.Note, error) {
	var n model.Note
	var folderID sql.NullInt64

	err := scanner.Scan(&n.ID, &n.Title, &n.Content, &folderID, &n.UserID, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if folderID.Valid {
		n.FolderID = &folderID.Int64
	}
	return &n, nil
}

const noteCols = `id, title, content, folder_id, user_id, created_at, updated_at`

func (s *NoteStore) Create(title, content string, folderID *int64, userID int64) (*model.Note, error) {
	var fID sql.NullInt64
	if folderID != nil {
		fID = sql.NullInt64{Int64: *folderID, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO notes (title, content, folder_id, user_id) VALUES (?, ?, ?, ?)`,
		title, content, fID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id, userID)
}

// GetByID returns the note with the given id owned by userID, or nil if no
// such note exists for that owner.
func (s *NoteStore) GetByID(id, userID int64) (*model.Note, error) {
	row := s.db.QueryRow(`SELECT `+noteCols+` FROM notes WHERE id = ? AND user_id = ?`, id, userID)
	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return n, nil
}

// List returns all of the user's notes, most recently updated first.
func (s *NoteStore) List(userID int64) ([]model.Note, error) {
	rows, err := s.db.Query(
		`SELECT `+noteCols+` FROM notes WHERE user_id = ? ORDER BY updated_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	return collectNotes(rows)
}

// ListByFolder returns the user's notes directly inside the given folder,
// most recently updated first. A nil folderID selects root-level notes.
func (s *NoteStore) ListByFolder(userID int64, folderID *int64) ([]model.Note, error) {
	var rows *sql.Rows
	var err error
	if folderID == nil {
		rows, err = s.db.Query(
			`SELECT `+noteCols+` FROM notes WHERE user_id = ? AND folder_id IS NULL ORDER BY updated_at DESC, id DESC`,
			userID,
		)
	} else {
		rows, err = s.db.Query(
			`SELECT `+noteCols+` FROM notes WHERE user_id = ? AND folder_id = ? ORDER BY updated_at DESC, id DESC`,
			userID, *folderID,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("list notes by folder: %w", err)
	}
	defer rows.Close()

	return collectNotes(rows)
}

// Update overwrites title, content, and folder assignment, and refreshes
// updated_at. Returns nil if the id/owner pair does not resolve.
func (s *NoteStore) Update(id int64, title, content string, folderID *int64, userID int64) (*model.Note, error) {
	var fID sql.NullInt64
	if folderID != nil {
		fID = sql.NullInt64{Int64: *folderID, Valid: true}
	}

	result, err := s.db.Exec(
		`UPDATE notes SET title = ?, content = ?, folder_id = ?, updated_at = datetime('now') WHERE id = ? AND user_id = ?`,
		title, content, fID, id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}
	return s.GetByID(id, userID)
}

func (s *NoteStore) Delete(id, userID int64) error {
	_, err := s.db.Exec(`DELETE FROM notes WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}

// Search returns up to 20 of the user's notes whose title or content contains
// the query, case-insensitively, most recently updated first.
func (s *NoteStore) Search(userID int64, query string) ([]model.Note, error) {
	pattern := "%" + escapeLike(query) + "%"
	rows, err := s.db.Query(
		`SELECT `+noteCols+` FROM notes
		 WHERE user_id = ? AND (title LIKE ? ESCAPE '\' OR content LIKE ? ESCAPE '\')
		 ORDER BY updated_at DESC, id DESC
		 LIMIT ?`,
		userID, pattern, pattern, searchLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("search notes: %w", err)
	}
	defer rows.Close()

	return collectNotes(rows)
}

// Recent returns the user's 5 most recently updated notes, for the
// empty-query search state.
func (s *NoteStore) Recent(userID int64) ([]model.Note, error) {
	rows, err := s.db.Query(
		`SELECT `+noteCols+` FROM notes WHERE user_id = ? ORDER BY updated_at DESC, id DESC LIMIT ?`,
		userID, recentLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent notes: %w", err)
	}
	defer rows.Close()

	return collectNotes(rows)
}

func collectNotes(rows *sql.Rows) ([]model.Note, error) {
	var notes []model.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, *n)
	}
	return notes, rows.Err()
}

// escapeLike escapes LIKE metacharacters so user input matches literally.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

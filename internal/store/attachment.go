package store

import (
	"database/sql"
	"fmt"

	"github.com/offnotes/offnotes/internal/model"
)

type AttachmentStore struct {
	db *sql.DB
}

func NewAttachmentStore(db *sql.DB) *AttachmentStore {
	return &AttachmentStore{db: db}
}

func scanAttachment(scanner interface{ Scan(...any) error }) (*model.Attachment, error) {
	var a model.Attachment
	var noteID sql.NullInt64

	err := scanner.Scan(&a.ID, &noteID, &a.Filename, &a.FileURL, &a.FileSize, &a.MimeType, &a.UserID, &a.CreatedAt)
	if err != nil {
		return nil, err
	}

	if noteID.Valid {
		a.NoteID = &noteID.Int64
	}
	return &a, nil
}

const attachmentCols = `id, note_id, filename, file_url, file_size, mime_type, user_id, created_at`

func (s *AttachmentStore) Create(noteID *int64, filename, fileURL string, fileSize int64, mimeType string, userID int64) (*model.Attachment, error) {
	var nID sql.NullInt64
	if noteID != nil {
		nID = sql.NullInt64{Int64: *noteID, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO attachments (note_id, filename, file_url, file_size, mime_type, user_id) VALUES (?, ?, ?, ?, ?, ?)`,
		nID, filename, fileURL, fileSize, mimeType, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert attachment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id, userID)
}

// GetByID returns the attachment with the given id owned by userID, or nil
// if no such attachment exists for that owner.
func (s *AttachmentStore) GetByID(id, userID int64) (*model.Attachment, error) {
	row := s.db.QueryRow(`SELECT `+attachmentCols+` FROM attachments WHERE id = ? AND user_id = ?`, id, userID)
	a, err := scanAttachment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attachment: %w", err)
	}
	return a, nil
}

// ListByNote returns the attachments bound to the given note, newest first.
func (s *AttachmentStore) ListByNote(noteID, userID int64) ([]model.Attachment, error) {
	rows, err := s.db.Query(
		`SELECT `+attachmentCols+` FROM attachments WHERE note_id = ? AND user_id = ? ORDER BY created_at DESC, id DESC`,
		noteID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	return collectAttachments(rows)
}

// List returns all of the user's attachments, newest first, including
// standalone files with no note.
func (s *AttachmentStore) List(userID int64) ([]model.Attachment, error) {
	rows, err := s.db.Query(
		`SELECT `+attachmentCols+` FROM attachments WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	return collectAttachments(rows)
}

func (s *AttachmentStore) Delete(id, userID int64) error {
	_, err := s.db.Exec(`DELETE FROM attachments WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	return nil
}

func collectAttachments(rows *sql.Rows) ([]model.Attachment, error) {
	var attachments []model.Attachment
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		attachments = append(attachments, *a)
	}
	return attachments, rows.Err()
}

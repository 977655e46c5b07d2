// Package attachment binds uploaded blobs to notes and keeps the blob and
// its metadata row in step across the two stores.
package attachment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/offnotes/offnotes/internal/blob"
	"github.com/offnotes/offnotes/internal/model"
	"github.com/offnotes/offnotes/internal/store"
)

// ErrNotFound is returned when an attachment id does not resolve for the
// requesting owner.
var ErrNotFound = errors.New("attachment not found")

// Manager coordinates the blob store and the attachment metadata rows.
//
// Neither operation spans both stores transactionally. Upload writes the blob
// first; if the row insert then fails the blob is unreferenced and only
// logged. Delete removes the blob first; if that fails the row is kept so the
// caller can retry, and if the row delete then fails the row points at a
// missing blob until retried. Both states are recoverable by retrying.
type Manager struct {
	blobs  *blob.Store
	rows   *store.AttachmentStore
	logger *slog.Logger
}

func NewManager(blobs *blob.Store, rows *store.AttachmentStore, logger *slog.Logger) *Manager {
	return &Manager{blobs: blobs, rows: rows, logger: logger}
}

// Upload stores the bytes under a collision-resistant key and inserts the
// metadata row referencing the resulting URL.
func (m *Manager) Upload(ctx context.Context, body io.Reader, size int64, filename, mimeType string, noteID *int64, userID int64) (*model.Attachment, error) {
	key := blob.Key(userID, filename)

	url, err := m.blobs.Put(ctx, key, body, size, mimeType)
	if err != nil {
		return nil, fmt.Errorf("store blob: %w", err)
	}

	a, err := m.rows.Create(noteID, filename, url, size, mimeType, userID)
	if err != nil {
		// The blob is now unreferenced. Leave it; a metadata retry would
		// upload fresh bytes under a new key anyway.
		m.logger.Error("attachment row insert failed after blob upload", "key", key, "error", err)
		return nil, fmt.Errorf("insert attachment: %w", err)
	}

	return a, nil
}

// Delete removes the blob and then the metadata row. If the blob delete
// fails the row is left in place and the operation fails, so a retry can
// finish the job.
func (m *Manager) Delete(ctx context.Context, id, userID int64) error {
	a, err := m.rows.GetByID(id, userID)
	if err != nil {
		return fmt.Errorf("get attachment: %w", err)
	}
	if a == nil {
		return ErrNotFound
	}

	if err := m.blobs.Delete(ctx, a.FileURL); err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}

	if err := m.rows.Delete(id, userID); err != nil {
		m.logger.Error("attachment row delete failed after blob removal", "id", id, "error", err)
		return fmt.Errorf("delete attachment row: %w", err)
	}

	return nil
}

// DeleteForNote removes every attachment bound to the note, continuing past
// individual failures and returning the first error encountered.
func (m *Manager) DeleteForNote(ctx context.Context, noteID, userID int64) error {
	attachments, err := m.rows.ListByNote(noteID, userID)
	if err != nil {
		return fmt.Errorf("list attachments: %w", err)
	}

	var firstErr error
	for _, a := range attachments {
		if err := m.Delete(ctx, a.ID, userID); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ListByNote returns the note's attachments, newest first.
func (m *Manager) ListByNote(noteID, userID int64) ([]model.Attachment, error) {
	return m.rows.ListByNote(noteID, userID)
}

// List returns all of the user's attachments, newest first.
func (m *Manager) List(userID int64) ([]model.Attachment, error) {
	return m.rows.List(userID)
}

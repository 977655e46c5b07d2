package model

import "time"

// Attachment is the metadata row for an uploaded blob. NoteID is nil for
// standalone files that are not bound to a note.
type Attachment struct {
	ID        int64     `json:"id"`
	NoteID    *int64    `json:"note_id"`
	Filename  string    `json:"filename"`
	FileURL   string    `json:"file_url"`
	FileSize  int64     `json:"file_size"`
	MimeType  string    `json:"mime_type"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

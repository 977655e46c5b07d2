package store

import (
	"database/sql"
	"fmt"

	"github.com/offnotes/offnotes/internal/model"
)

type FolderStore struct {
	db *sql.DB
}

func NewFolderStore(db *sql.DB) *FolderStore {
	return &FolderStore{db: db}
}

func scanFolder(scanner interface{ Scan(...any) error }) (*model.Folder, error) {
	var f model.Folder
	var parentID sql.NullInt64

	err := scanner.Scan(&f.ID, &f.Name, &parentID, &f.UserID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		f.ParentID = &parentID.Int64
	}
	return &f, nil
}

const folderCols = `id, name, parent_id, user_id, created_at, updated_at`

func (s *FolderStore) Create(name string, parentID *int64, userID int64) (*model.Folder, error) {
	var pID sql.NullInt64
	if parentID != nil {
		pID = sql.NullInt64{Int64: *parentID, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO folders (name, parent_id, user_id) VALUES (?, ?, ?)`,
		name, pID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert folder: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id, userID)
}

// GetByID returns the folder with the given id owned by userID, or nil if no
// such folder exists for that owner.
func (s *FolderStore) GetByID(id, userID int64) (*model.Folder, error) {
	row := s.db.QueryRow(`SELECT `+folderCols+` FROM folders WHERE id = ? AND user_id = ?`, id, userID)
	f, err := scanFolder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get folder: %w", err)
	}
	return f, nil
}

// List returns all of the user's folders ordered by name ascending.
func (s *FolderStore) List(userID int64) ([]model.Folder, error) {
	rows, err := s.db.Query(
		`SELECT `+folderCols+` FROM folders WHERE user_id = ? ORDER BY name`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	defer rows.Close()

	var folders []model.Folder
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, *f)
	}
	return folders, rows.Err()
}

// Rename updates the folder's name and refreshes updated_at. Returns nil if
// the id/owner pair does not resolve.
func (s *FolderStore) Rename(id int64, name string, userID int64) (*model.Folder, error) {
	result, err := s.db.Exec(
		`UPDATE folders SET name = ?, updated_at = datetime('now') WHERE id = ? AND user_id = ?`,
		name, id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("rename folder: %w", err)
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

// Delete removes the folder. Contained notes are detached to the root and
// child folders re-parented to the root before the folder row is removed;
// the ordering matters because a crash mid-way must never leave a note or
// folder referencing a row that no longer exists.
func (s *FolderStore) Delete(id, userID int64) error {
	_, err := s.db.Exec(
		`UPDATE notes SET folder_id = NULL WHERE folder_id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("detach notes: %w", err)
	}

	_, err = s.db.Exec(
		`UPDATE folders SET parent_id = NULL WHERE parent_id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("reparent child folders: %w", err)
	}

	_, err = s.db.Exec(`DELETE FROM folders WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}
	return nil
}

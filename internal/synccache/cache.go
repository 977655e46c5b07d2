// Package synccache holds a client-side copy of one signed-in user's folders
// and notes. Mutations are pessimistic-then-apply: the cache marks the
// operation in flight, calls the server, and only merges the canonical result
// on success. On failure the in-flight flag clears and the cached state is
// left untouched, so the UI never renders partially applied mutations.
package synccache

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/offnotes/offnotes/internal/model"
)

// ErrBusy is returned when a mutation of the same kind is already in flight.
// The UI uses the in-flight flags to disable the affected controls, so
// hitting this means a control was not disabled in time; the caller should
// drop the intent rather than queue it.
var ErrBusy = errors.New("operation already in flight")

// Service is the server surface the cache mutates through.
type Service interface {
	ListFolders(ctx context.Context) ([]model.Folder, error)
	ListNotes(ctx context.Context) ([]model.Note, error)
	CreateFolder(ctx context.Context, name string, parentID *int64) (*model.Folder, error)
	RenameFolder(ctx context.Context, id int64, name string) (*model.Folder, error)
	DeleteFolder(ctx context.Context, id int64) error
	CreateNote(ctx context.Context, title, content string, folderID *int64) (*model.Note, error)
	UpdateNote(ctx context.Context, id int64, title, content string, folderID *int64) (*model.Note, error)
	DeleteNote(ctx context.Context, id int64) error
}

// ErrorCallback is invoked with the failed operation name whenever a
// mutation fails, so the UI can show a notification. It runs without the
// cache lock held and may call back into the cache.
type ErrorCallback func(op string, err error)

// Cache is safe for use from a single UI goroutine plus timer callbacks.
type Cache struct {
	mu  sync.Mutex
	svc Service

	folders  []model.Folder
	notes    []model.Note
	selected *model.Note

	// In-flight flags, one per operation kind. The id-valued flags hold
	// the affected entity so the UI can disable just that row.
	creatingFolder bool
	creatingNote   bool
	renamingFolder *int64
	deletingFolder *int64
	savingNote     *int64
	deletingNote   *int64

	onError ErrorCallback
}

func New(svc Service, onError ErrorCallback) *Cache {
	return &Cache{svc: svc, onError: onError}
}

func (c *Cache) fail(op string, err error) error {
	if c.onError != nil {
		c.onError(op, err)
	}
	return err
}

// Load replaces the cached collections with the server's current state.
func (c *Cache) Load(ctx context.Context) error {
	folders, err := c.svc.ListFolders(ctx)
	if err != nil {
		return c.fail("load folders", err)
	}
	notes, err := c.svc.ListNotes(ctx)
	if err != nil {
		return c.fail("load notes", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.folders = folders
	c.notes = notes
	if c.selected != nil {
		c.selected = c.findNoteLocked(c.selected.ID)
	}
	return nil
}

// Folders returns the cached folders, sorted by name ascending.
func (c *Cache) Folders() []model.Folder {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Folder, len(c.folders))
	copy(out, c.folders)
	return out
}

// Notes returns all cached notes, most recently updated first.
func (c *Cache) Notes() []model.Note {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Note, len(c.notes))
	copy(out, c.notes)
	return out
}

// FilteredNotes is the derived view for the selected folder: notes whose
// folder matches, or root-level notes when folderID is nil. It recomputes
// synchronously from the cached collection.
func (c *Cache) FilteredNotes(folderID *int64) []model.Note {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []model.Note
	for _, n := range c.notes {
		switch {
		case folderID == nil && n.FolderID == nil:
			out = append(out, n)
		case folderID != nil && n.FolderID != nil && *n.FolderID == *folderID:
			out = append(out, n)
		}
	}
	return out
}

// Select marks the cached note with the given id as the selection, or clears
// it when the id is unknown.
func (c *Cache) Select(id int64) *model.Note {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = c.findNoteLocked(id)
	return c.selected
}

// Selected returns the currently selected note, or nil.
func (c *Cache) Selected() *model.Note {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// InFlight reports the per-operation flags for UI control disabling.
type InFlight struct {
	CreatingFolder bool
	CreatingNote   bool
	RenamingFolder *int64
	DeletingFolder *int64
	SavingNote     *int64
	DeletingNote   *int64
}

func (c *Cache) InFlight() InFlight {
	c.mu.Lock()
	defer c.mu.Unlock()
	return InFlight{
		CreatingFolder: c.creatingFolder,
		CreatingNote:   c.creatingNote,
		RenamingFolder: c.renamingFolder,
		DeletingFolder: c.deletingFolder,
		SavingNote:     c.savingNote,
		DeletingNote:   c.deletingNote,
	}
}

// CreateFolder sends the intent and inserts the canonical folder on success.
func (c *Cache) CreateFolder(ctx context.Context, name string, parentID *int64) (*model.Folder, error) {
	c.mu.Lock()
	if c.creatingFolder {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.creatingFolder = true
	c.mu.Unlock()

	folder, err := c.svc.CreateFolder(ctx, name, parentID)

	c.mu.Lock()
	c.creatingFolder = false
	if err != nil {
		c.mu.Unlock()
		return nil, c.fail("create folder", err)
	}
	c.folders = append(c.folders, *folder)
	sortFolders(c.folders)
	c.mu.Unlock()
	return folder, nil
}

// RenameFolder sends the intent and replaces the cached folder on success.
func (c *Cache) RenameFolder(ctx context.Context, id int64, name string) (*model.Folder, error) {
	c.mu.Lock()
	if c.renamingFolder != nil {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.renamingFolder = &id
	c.mu.Unlock()

	folder, err := c.svc.RenameFolder(ctx, id, name)

	c.mu.Lock()
	c.renamingFolder = nil
	if err != nil {
		c.mu.Unlock()
		return nil, c.fail("rename folder", err)
	}
	for i := range c.folders {
		if c.folders[i].ID == id {
			c.folders[i] = *folder
			break
		}
	}
	sortFolders(c.folders)
	c.mu.Unlock()
	return folder, nil
}

// DeleteFolder sends the intent; on success the folder leaves the cache and
// any cached notes it contained are re-homed to the root, mirroring the
// server-side detach. Cached child folders are re-parented to the root the
// same way.
func (c *Cache) DeleteFolder(ctx context.Context, id int64) error {
	c.mu.Lock()
	if c.deletingFolder != nil {
		c.mu.Unlock()
		return ErrBusy
	}
	c.deletingFolder = &id
	c.mu.Unlock()

	err := c.svc.DeleteFolder(ctx, id)

	c.mu.Lock()
	c.deletingFolder = nil
	if err != nil {
		c.mu.Unlock()
		return c.fail("delete folder", err)
	}

	kept := c.folders[:0]
	for _, f := range c.folders {
		if f.ID == id {
			continue
		}
		if f.ParentID != nil && *f.ParentID == id {
			f.ParentID = nil
		}
		kept = append(kept, f)
	}
	c.folders = kept

	for i := range c.notes {
		if c.notes[i].FolderID != nil && *c.notes[i].FolderID == id {
			c.notes[i].FolderID = nil
		}
	}
	if c.selected != nil {
		c.selected = c.findNoteLocked(c.selected.ID)
	}
	c.mu.Unlock()
	return nil
}

// CreateNote sends the intent and prepends the canonical note on success.
func (c *Cache) CreateNote(ctx context.Context, title, content string, folderID *int64) (*model.Note, error) {
	c.mu.Lock()
	if c.creatingNote {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.creatingNote = true
	c.mu.Unlock()

	note, err := c.svc.CreateNote(ctx, title, content, folderID)

	c.mu.Lock()
	c.creatingNote = false
	if err != nil {
		c.mu.Unlock()
		return nil, c.fail("create note", err)
	}
	c.notes = append([]model.Note{*note}, c.notes...)
	c.mu.Unlock()
	return note, nil
}

// UpdateNote sends the intent and replaces the cached note with the
// canonical result on success, moving it to the front of the recency order.
// If the mutated note is selected, the selection is refreshed too.
func (c *Cache) UpdateNote(ctx context.Context, id int64, title, content string, folderID *int64) (*model.Note, error) {
	c.mu.Lock()
	if c.savingNote != nil {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.savingNote = &id
	c.mu.Unlock()

	note, err := c.svc.UpdateNote(ctx, id, title, content, folderID)

	c.mu.Lock()
	c.savingNote = nil
	if err != nil {
		c.mu.Unlock()
		return nil, c.fail("save note", err)
	}

	kept := c.notes[:0]
	for _, n := range c.notes {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	c.notes = append([]model.Note{*note}, kept...)

	if c.selected != nil && c.selected.ID == id {
		c.selected = note
	}
	c.mu.Unlock()
	return note, nil
}

// DeleteNote sends the intent and drops the cached note on success,
// clearing the selection if it pointed at the deleted note.
func (c *Cache) DeleteNote(ctx context.Context, id int64) error {
	c.mu.Lock()
	if c.deletingNote != nil {
		c.mu.Unlock()
		return ErrBusy
	}
	c.deletingNote = &id
	c.mu.Unlock()

	err := c.svc.DeleteNote(ctx, id)

	c.mu.Lock()
	c.deletingNote = nil
	if err != nil {
		c.mu.Unlock()
		return c.fail("delete note", err)
	}

	kept := c.notes[:0]
	for _, n := range c.notes {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	c.notes = kept

	if c.selected != nil && c.selected.ID == id {
		c.selected = nil
	}
	c.mu.Unlock()
	return nil
}

func (c *Cache) findNoteLocked(id int64) *model.Note {
	for i := range c.notes {
		if c.notes[i].ID == id {
			n := c.notes[i]
			return &n
		}
	}
	return nil
}

func sortFolders(folders []model.Folder) {
	sort.SliceStable(folders, func(i, j int) bool {
		return folders[i].Name < folders[j].Name
	})
}

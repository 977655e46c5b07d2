package synccache

import (
	"context"
	"sync"
	"time"
)

const saveDelay = 2 * time.Second

// AutoSaver debounces edits to one open note. Every edit restarts a single
// pending timer; when it fires the buffer is flushed through the cache,
// whose in-flight flag prevents a second save racing an earlier one. The
// buffer stays dirty until a save succeeds, so a failed flush is retried by
// the next edit or explicit Flush.
type AutoSaver struct {
	mu    sync.Mutex
	cache *Cache
	delay time.Duration
	timer *time.Timer

	noteID        int64
	folderID      *int64
	loadedTitle   string
	loadedContent string
	title         string
	content       string
	open          bool
}

func NewAutoSaver(cache *Cache) *AutoSaver {
	return &AutoSaver{cache: cache, delay: saveDelay}
}

// Open points the saver at a note, snapshotting its current fields as the
// clean state. Any pending timer for the previous note is dropped.
func (a *AutoSaver) Open(id int64, title, content string, folderID *int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopTimerLocked()
	a.noteID = id
	a.folderID = folderID
	a.loadedTitle = title
	a.loadedContent = content
	a.title = title
	a.content = content
	a.open = true
}

// Edit records the buffer contents and restarts the save timer. Edits that
// restore the loaded snapshot cancel the pending save instead.
func (a *AutoSaver) Edit(title, content string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.open {
		return
	}
	a.title = title
	a.content = content

	if !a.dirtyLocked() {
		a.stopTimerLocked()
		return
	}
	a.stopTimerLocked()
	a.timer = time.AfterFunc(a.delay, func() {
		// Best effort; a busy cache leaves the buffer dirty and the
		// next edit reschedules.
		_ = a.Flush(context.Background())
	})
}

// Dirty reports whether the buffer differs from the last saved snapshot.
func (a *AutoSaver) Dirty() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.open && a.dirtyLocked()
}

// Flush saves the buffer immediately, bypassing the timer. A clean buffer
// is a no-op. On success the saved fields become the new clean snapshot.
func (a *AutoSaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	if !a.open || !a.dirtyLocked() {
		a.mu.Unlock()
		return nil
	}
	a.stopTimerLocked()
	id, folderID := a.noteID, a.folderID
	title, content := a.title, a.content
	a.mu.Unlock()

	if _, err := a.cache.UpdateNote(ctx, id, title, content, folderID); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.open && a.noteID == id {
		a.loadedTitle = title
		a.loadedContent = content
	}
	return nil
}

// Close drops the buffer and any pending timer without saving.
func (a *AutoSaver) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopTimerLocked()
	a.open = false
}

func (a *AutoSaver) dirtyLocked() bool {
	return a.title != a.loadedTitle || a.content != a.loadedContent
}

func (a *AutoSaver) stopTimerLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

package synccache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/offnotes/offnotes/internal/model"
)

func TestAutoSaverFlushSaves(t *testing.T) {
	svc := newFakeService()
	cache := New(svc, nil)
	ctx := context.Background()

	note, err := cache.CreateNote(ctx, "draft", "", nil)
	if err != nil {
		t.Fatalf("create note: %v", err)
	}

	saver := NewAutoSaver(cache)
	saver.Open(note.ID, note.Title, note.Content, note.FolderID)
	saver.Edit("draft", "hello world")
	if !saver.Dirty() {
		t.Fatal("expected dirty buffer after edit")
	}

	if err := saver.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if saver.Dirty() {
		t.Error("buffer still dirty after successful flush")
	}
	if got := cache.Notes()[0].Content; got != "hello world" {
		t.Errorf("expected saved content, got %q", got)
	}
}

func TestAutoSaverTimerFires(t *testing.T) {
	svc := newFakeService()
	cache := New(svc, nil)
	ctx := context.Background()

	note, err := cache.CreateNote(ctx, "draft", "", nil)
	if err != nil {
		t.Fatalf("create note: %v", err)
	}

	saver := NewAutoSaver(cache)
	saver.delay = 10 * time.Millisecond
	saver.Open(note.ID, note.Title, note.Content, note.FolderID)

	// Each edit restarts the timer; only the final buffer should be saved.
	saver.Edit("draft", "h")
	saver.Edit("draft", "he")
	saver.Edit("draft", "hello")

	deadline := time.After(time.Second)
	for saver.Dirty() {
		select {
		case <-deadline:
			t.Fatal("timer never flushed the buffer")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}

	svc.mu.Lock()
	saves := svc.calls["updateNote"]
	svc.mu.Unlock()
	if saves != 1 {
		t.Errorf("expected a single save, got %d", saves)
	}
	if got := cache.Notes()[0].Content; got != "hello" {
		t.Errorf("expected final buffer saved, got %q", got)
	}
}

func TestAutoSaverRevertCancelsSave(t *testing.T) {
	svc := newFakeService()
	cache := New(svc, nil)
	ctx := context.Background()

	note, err := cache.CreateNote(ctx, "draft", "original", nil)
	if err != nil {
		t.Fatalf("create note: %v", err)
	}

	saver := NewAutoSaver(cache)
	saver.delay = 10 * time.Millisecond
	saver.Open(note.ID, note.Title, note.Content, note.FolderID)
	saver.Edit("draft", "changed")
	saver.Edit("draft", "original")

	time.Sleep(50 * time.Millisecond)
	svc.mu.Lock()
	saves := svc.calls["updateNote"]
	svc.mu.Unlock()
	if saves != 0 {
		t.Errorf("expected no save after revert, got %d", saves)
	}
}

func TestAutoSaverFailedSaveStaysDirty(t *testing.T) {
	svc := newFakeService()
	cache := New(svc, nil)
	ctx := context.Background()

	note, err := cache.CreateNote(ctx, "draft", "", nil)
	if err != nil {
		t.Fatalf("create note: %v", err)
	}

	saver := NewAutoSaver(cache)
	saver.Open(note.ID, note.Title, note.Content, note.FolderID)
	saver.Edit("draft", "unsaved")

	svc.fail["updateNote"] = errors.New("server down")
	if err := saver.Flush(ctx); err == nil {
		t.Fatal("expected flush to fail")
	}
	if !saver.Dirty() {
		t.Error("buffer marked clean after failed save")
	}

	delete(svc.fail, "updateNote")
	if err := saver.Flush(ctx); err != nil {
		t.Fatalf("retry flush: %v", err)
	}
	if saver.Dirty() {
		t.Error("buffer still dirty after successful retry")
	}
}

func TestSearcherDebounces(t *testing.T) {
	svc := newFakeService()
	cache := New(svc, nil)
	ctx := context.Background()

	if _, err := cache.CreateNote(ctx, "grocery list", "milk and eggs", nil); err != nil {
		t.Fatalf("create note: %v", err)
	}

	results := make(chan string, 1)
	var mu sync.Mutex
	var queries []string
	searcher := NewSearcher(
		func(ctx context.Context, q string) ([]model.Note, error) {
			mu.Lock()
			queries = append(queries, q)
			mu.Unlock()
			return cache.Notes(), nil
		},
		func(q string, notes []model.Note) { results <- q },
		nil,
	)
	searcher.delay = 10 * time.Millisecond

	searcher.Query("m")
	searcher.Query("mi")
	searcher.Query("milk")

	select {
	case q := <-results:
		if q != "milk" {
			t.Errorf("expected results for final query, got %q", q)
		}
	case <-time.After(time.Second):
		t.Fatal("no results delivered")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(queries) != 1 || queries[0] != "milk" {
		t.Errorf("expected a single search for the final query, got %v", queries)
	}
}

package synccache

import (
	"context"
	"sync"
	"time"

	"github.com/offnotes/offnotes/internal/model"
)

const searchDelay = 300 * time.Millisecond

// SearchFunc runs one query against the server. An empty query returns the
// recents list.
type SearchFunc func(ctx context.Context, query string) ([]model.Note, error)

// ResultsCallback receives the results for the query that produced them.
type ResultsCallback func(query string, notes []model.Note)

// Searcher debounces keystrokes into search requests. Each Query restarts
// the timer; only the most recent query's results are delivered, so a slow
// response for an earlier keystroke never overwrites a newer one.
type Searcher struct {
	mu      sync.Mutex
	search  SearchFunc
	deliver ResultsCallback
	onError ErrorCallback
	delay   time.Duration
	timer   *time.Timer
	seq     int
}

func NewSearcher(search SearchFunc, deliver ResultsCallback, onError ErrorCallback) *Searcher {
	return &Searcher{search: search, deliver: deliver, onError: onError, delay: searchDelay}
}

// Query schedules query to run after the debounce window. A newer Query
// before the window elapses drops this one.
func (s *Searcher) Query(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	seq := s.seq
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, func() {
		s.run(seq, query)
	})
}

// Cancel drops any pending query.
func (s *Searcher) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Searcher) run(seq int, query string) {
	notes, err := s.search(context.Background(), query)

	s.mu.Lock()
	stale := seq != s.seq
	s.mu.Unlock()
	if stale {
		return
	}
	if err != nil {
		if s.onError != nil {
			s.onError("search", err)
		}
		return
	}
	s.deliver(query, notes)
}

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"careercraft/jobsearch-service/internal/aggregator"
	"careercraft/jobsearch-service/internal/model"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrPageOutOfRange  = errors.New("page out of range")
)

// Searcher runs one pipeline pass. *aggregator.Aggregator implements it.
type Searcher interface {
	Search(ctx context.Context, req model.SearchRequest) model.ResultSet
}

// Session is one client's search state: the current request, the full
// filtered result set and the current page.
type Session struct {
	ID string

	searcher Searcher
	now      func() time.Time

	mu         sync.Mutex
	state      State
	generation uint64
	request    model.SearchRequest
	results    model.ResultSet
	page       int
	lastUsed   time.Time
}

// Snapshot is a consistent read of a session.
type Snapshot struct {
	ID        string              `json:"id"`
	State     State               `json:"state"`
	Request   model.SearchRequest `json:"request"`
	Total     int                 `json:"total"`
	PageCount int                 `json:"pageCount"`
	Sources   model.SourceReport  `json:"sources"`
}

// View is a snapshot plus the page the client is looking at.
type View struct {
	Snapshot
	Page aggregator.Page `json:"page"`
}

func newSession(id string, searcher Searcher, now func() time.Time) *Session {
	return &Session{
		ID:       id,
		searcher: searcher,
		now:      now,
		state:    StateIdle,
		page:     1,
		lastUsed: now(),
	}
}

// Search replaces the session's result set with the outcome of req.
//
// Runs are not cancelled: the caller's context only contributes its values,
// and each run is bounded by the per-source timeouts. When a newer search
// starts before this one finishes, this run's results are dropped and Search
// returns false.
func (s *Session) Search(ctx context.Context, req model.SearchRequest) bool {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.transition(StateSearching)
	s.request = req
	s.results = model.ResultSet{Request: req}
	s.page = 1
	s.lastUsed = s.now()
	s.mu.Unlock()

	rs := s.searcher.Search(context.WithoutCancel(ctx), req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}
	s.results = rs
	s.page = 1
	s.transition(settled(len(rs.Records)))
	return true
}

// View returns the session at page n. n == 0 means the current page; any
// other value becomes the current page when it is in range and no search is
// running.
func (s *Session) View(n int) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastUsed = s.now()
	if n == 0 {
		n = s.page
	}
	count := s.results.PageCount()
	if n < 1 || (count > 0 && n > count) {
		return View{}, fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, n, count)
	}
	// Pages are only remembered against a settled result set.
	if s.state != StateSearching {
		s.page = n
	}

	return View{
		Snapshot: s.snapshotLocked(),
		Page:     aggregator.Paginate(s.results.Records, s.results.PageSize, n),
	}, nil
}

// Snapshot returns the session state without touching the current page.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		ID:        s.ID,
		State:     s.state,
		Request:   s.request,
		Total:     len(s.results.Records),
		PageCount: s.results.PageCount(),
		Sources:   s.results.Report,
	}
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// transition must be called with s.mu held.
func (s *Session) transition(to State) {
	if !IsTransitionAllowed(s.state, to) {
		panic(fmt.Sprintf("session %s: illegal transition %s → %s", s.ID, s.state, to))
	}
	s.state = to
}

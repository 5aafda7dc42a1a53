package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"careercraft/jobsearch-service/internal/metrics"
	"careercraft/jobsearch-service/internal/model"
)

// DefaultRequest is the search a new session runs on initial load.
var DefaultRequest = model.SearchRequest{
	Query:      "software developer",
	RegionOnly: true,
	Page:       1,
}

// Manager owns every live session, keyed by a random id.
type Manager struct {
	searcher Searcher
	ttl      time.Duration
	log      *zap.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager returns a Manager; sessions idle for longer than ttl are removed
// by Sweep.
func NewManager(searcher Searcher, ttl time.Duration, log *zap.Logger, m *metrics.Metrics) *Manager {
	return &Manager{
		searcher: searcher,
		ttl:      ttl,
		log:      log.Named("session"),
		metrics:  m,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Open registers a new idle session without searching.
func (m *Manager) Open() *Session {
	s := newSession(uuid.NewString(), m.searcher, m.now)

	m.mu.Lock()
	m.sessions[s.ID] = s
	n := len(m.sessions)
	m.mu.Unlock()

	m.metrics.SetActiveSessions(n)
	m.log.Debug("session opened", zap.String("session", s.ID))
	return s
}

// Create opens a session and runs its initial search: req when given,
// DefaultRequest otherwise.
func (m *Manager) Create(ctx context.Context, req *model.SearchRequest) *Session {
	s := m.Open()
	initial := DefaultRequest
	if req != nil {
		initial = *req
	}
	s.Search(ctx, initial)
	return s
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete drops a session. Any run still in flight finishes unobserved.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	m.metrics.SetActiveSessions(n)
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns how many
// were removed.
func (m *Manager) Sweep() int {
	if m.ttl <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	removed := 0
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	if removed > 0 {
		m.metrics.SetActiveSessions(n)
		m.log.Info("expired idle sessions", zap.Int("removed", removed), zap.Int("remaining", n))
	}
	return removed
}

// Run sweeps periodically until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	if m.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(m.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

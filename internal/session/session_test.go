package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"careercraft/jobsearch-service/internal/model"
	"careercraft/jobsearch-service/internal/session"
)

// fakeSearcher returns n records for a query named "n:<count>", and can hold
// a query until released.
type fakeSearcher struct {
	mu      sync.Mutex
	hold    map[string]chan struct{}
	started chan string
	ctxErrs []error
}

func newFakeSearcher() *fakeSearcher {
	return &fakeSearcher{hold: map[string]chan struct{}{}, started: make(chan string, 16)}
}

func (f *fakeSearcher) holdQuery(q string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.hold[q] = ch
	return ch
}

func (f *fakeSearcher) Search(ctx context.Context, req model.SearchRequest) model.ResultSet {
	f.mu.Lock()
	ch := f.hold[req.Query]
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	f.mu.Unlock()

	f.started <- req.Query
	if ch != nil {
		<-ch
	}

	var n int
	fmt.Sscanf(req.Query, "n:%d", &n)
	recs := make([]model.Record, n)
	for i := range recs {
		recs[i] = model.Record{ID: fmt.Sprint(i), Title: fmt.Sprintf("%s #%d", req.Query, i), Source: model.SourceRemotive}
	}
	return model.ResultSet{
		Request:  req,
		Records:  recs,
		PageSize: 6,
		Report:   model.SourceReport{Attempted: 1, Succeeded: 1},
	}
}

func newManager(s session.Searcher) *session.Manager {
	return session.NewManager(s, time.Hour, zap.NewNop(), nil)
}

func TestSession_StartsIdle(t *testing.T) {
	s := newManager(newFakeSearcher()).Open()
	assert.Equal(t, session.StateIdle, s.State())
}

func TestSession_SearchSettlesReady(t *testing.T) {
	s := newManager(newFakeSearcher()).Open()

	assert.True(t, s.Search(context.Background(), model.SearchRequest{Query: "n:13"}))
	assert.Equal(t, session.StateReady, s.State())

	v, err := s.View(3)
	require.NoError(t, err)
	assert.Equal(t, 3, v.PageCount)
	assert.Equal(t, 13, v.Total)
	assert.Len(t, v.Page.Records, 1)

	cur, err := s.View(0)
	require.NoError(t, err)
	assert.Equal(t, 3, cur.Page.Number, "page 0 returns the current page")
}

func TestSession_SearchSettlesReadyEmpty(t *testing.T) {
	s := newManager(newFakeSearcher()).Open()
	s.Search(context.Background(), model.SearchRequest{Query: "n:0"})

	assert.Equal(t, session.StateReadyEmpty, s.State())
	v, err := s.View(1)
	require.NoError(t, err)
	assert.Empty(t, v.Page.Records)
	assert.Equal(t, 0, v.PageCount)
}

func TestSession_ViewOutOfRange(t *testing.T) {
	s := newManager(newFakeSearcher()).Open()
	s.Search(context.Background(), model.SearchRequest{Query: "n:7"})

	for _, n := range []int{-1, 3} {
		_, err := s.View(n)
		assert.True(t, errors.Is(err, session.ErrPageOutOfRange), "page %d", n)
	}
}

func TestSession_NewSearchResetsPage(t *testing.T) {
	s := newManager(newFakeSearcher()).Open()
	s.Search(context.Background(), model.SearchRequest{Query: "n:20"})
	_, err := s.View(4)
	require.NoError(t, err)

	s.Search(context.Background(), model.SearchRequest{Query: "n:20"})
	v, err := s.View(0)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Page.Number)
}

func TestSession_SearchingIsObservable(t *testing.T) {
	f := newFakeSearcher()
	release := f.holdQuery("n:3")
	s := newManager(f).Open()

	done := make(chan bool)
	go func() { done <- s.Search(context.Background(), model.SearchRequest{Query: "n:3"}) }()
	<-f.started

	assert.Equal(t, session.StateSearching, s.State())
	v, err := s.View(1)
	require.NoError(t, err)
	assert.Empty(t, v.Page.Records, "previous results are discarded while searching")

	close(release)
	assert.True(t, <-done)
	assert.Equal(t, session.StateReady, s.State())
}

func TestSession_PageChosenWhileSearchingDoesNotOutliveTheRun(t *testing.T) {
	f := newFakeSearcher()
	release := f.holdQuery("n:7")
	s := newManager(f).Open()

	done := make(chan bool)
	go func() { done <- s.Search(context.Background(), model.SearchRequest{Query: "n:7"}) }()
	<-f.started

	_, err := s.View(5)
	require.NoError(t, err, "nothing to range-check against while searching")

	close(release)
	require.True(t, <-done)

	v, err := s.View(0)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Page.Number)
	assert.Equal(t, 2, v.PageCount)
}

func TestSession_LastRequestWins(t *testing.T) {
	f := newFakeSearcher()
	releaseOld := f.holdQuery("n:9")
	s := newManager(f).Open()

	oldDone := make(chan bool)
	go func() { oldDone <- s.Search(context.Background(), model.SearchRequest{Query: "n:9"}) }()
	require.Equal(t, "n:9", <-f.started)

	assert.True(t, s.Search(context.Background(), model.SearchRequest{Query: "n:2"}))
	<-f.started

	close(releaseOld)
	assert.False(t, <-oldDone, "stale run must not be applied")

	snap := s.Snapshot()
	assert.Equal(t, "n:2", snap.Request.Query)
	assert.Equal(t, 2, snap.Total)
	assert.Equal(t, session.StateReady, snap.State)
}

func TestSession_RunIgnoresCallerCancellation(t *testing.T) {
	f := newFakeSearcher()
	s := newManager(f).Open()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Search(ctx, model.SearchRequest{Query: "n:1"})

	require.Len(t, f.ctxErrs, 1)
	assert.NoError(t, f.ctxErrs[0])
	assert.Equal(t, session.StateReady, s.State())
}

func TestManager_CreateUsesDefaults(t *testing.T) {
	m := newManager(newFakeSearcher())
	s := m.Create(context.Background(), nil)

	snap := s.Snapshot()
	assert.Equal(t, "software developer", snap.Request.Query)
	assert.True(t, snap.Request.RegionOnly)

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)
}

func TestManager_GetAndDelete(t *testing.T) {
	m := newManager(newFakeSearcher())
	s := m.Open()
	assert.Equal(t, 1, m.Len())

	require.NoError(t, m.Delete(s.ID))
	_, err := m.Get(s.ID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
	assert.ErrorIs(t, m.Delete(s.ID), session.ErrSessionNotFound)
	assert.Equal(t, 0, m.Len())
}

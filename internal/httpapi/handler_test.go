package httpapi_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"careercraft/jobsearch-service/internal/drafts"
	"careercraft/jobsearch-service/internal/httpapi"
	"careercraft/jobsearch-service/internal/model"
	"careercraft/jobsearch-service/internal/savedsearch"
	"careercraft/jobsearch-service/internal/session"
)

// fakeSearcher returns n records for a query of the form "n:<count>" and
// records the last request.
type fakeSearcher struct {
	mu   sync.Mutex
	last model.SearchRequest
}

func (f *fakeSearcher) Search(_ context.Context, req model.SearchRequest) model.ResultSet {
	f.mu.Lock()
	f.last = req
	f.mu.Unlock()

	var n int
	fmt.Sscanf(req.Query, "n:%d", &n)
	recs := make([]model.Record, n)
	for i := range recs {
		recs[i] = model.Record{
			ID:          fmt.Sprint(i),
			Title:       fmt.Sprintf("Job %d", i),
			Description: "<p>Build <b>APIs</b> &amp; tools</p>",
			Source:      model.SourceRemotive,
		}
	}
	return model.ResultSet{
		Request:  req,
		Records:  recs,
		PageSize: 6,
		Report:   model.SourceReport{Attempted: 2, Succeeded: 1, Failed: []model.Source{model.SourceJSearch}},
	}
}

type memorySearches struct {
	list []model.SavedSearch
	runs map[string][]model.SearchRun
}

func (m *memorySearches) List(context.Context) ([]model.SavedSearch, error) { return m.list, nil }

func (m *memorySearches) ListActive(context.Context) ([]model.SavedSearch, error) {
	return m.list, nil
}

func (m *memorySearches) Create(_ context.Context, s model.SavedSearch) (model.SavedSearch, error) {
	if s.Name == "" || s.Query == "" {
		return model.SavedSearch{}, savedsearch.ErrInvalid
	}
	s.ID = fmt.Sprintf("ss-%d", len(m.list)+1)
	s.CreatedAt = time.Now()
	m.list = append(m.list, s)
	return s, nil
}

func (m *memorySearches) RecordRun(_ context.Context, run model.SearchRun) error {
	m.runs[run.SavedSearchID] = append(m.runs[run.SavedSearchID], run)
	return nil
}

func (m *memorySearches) Runs(_ context.Context, id string, limit int) ([]model.SearchRun, error) {
	runs, ok := m.runs[id]
	if !ok {
		return nil, savedsearch.ErrNotFound
	}
	return runs[:min(limit, len(runs))], nil
}

type fixture struct {
	srv      *httptest.Server
	searcher *fakeSearcher
	searches *memorySearches
}

func newFixture(t *testing.T, withDB bool) *fixture {
	t.Helper()
	f := &fixture{searcher: &fakeSearcher{}}

	store, err := drafts.Load(context.Background(), drafts.NewMemoryKV())
	require.NoError(t, err)

	deps := httpapi.Deps{
		Searcher: f.searcher,
		Sessions: session.NewManager(f.searcher, time.Hour, zap.NewNop(), nil),
		Drafts:   store,
		Log:      zap.NewNop(),
		Version:  "test",
	}
	if withDB {
		f.searches = &memorySearches{runs: map[string][]model.SearchRun{}}
		deps.Searches = f.searches
	}

	h := httpapi.NewHandler(deps)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	f.srv = httptest.NewServer(h.Wrap(mux))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		_ = json.NewDecoder(resp.Body).Decode(&out)
	}
	return resp, out
}

func (f *fixture) doList(t *testing.T, method, path, body string) (*http.Response, []map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

// ── Health ────────────────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	f := newFixture(t, false)
	resp, body := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "jobsearch-service", body["service"])
	assert.Equal(t, "test", body["version"])
}

// ── One-shot search ───────────────────────────────────────────────────────────

func TestJobs_Defaults(t *testing.T) {
	f := newFixture(t, false)
	resp, body := f.do(t, http.MethodGet, "/jobs", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "software developer", f.searcher.last.Query)
	assert.True(t, f.searcher.last.RegionOnly)
	assert.Equal(t, "ready-empty", body["state"])
	assert.EqualValues(t, 0, body["pageCount"])
}

func TestJobs_PageAndFilters(t *testing.T) {
	f := newFixture(t, false)
	resp, body := f.do(t, http.MethodGet, "/jobs?q=n:13&region=false&page=3&exclude=unpaid,%20,commission", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.False(t, f.searcher.last.RegionOnly)
	assert.Equal(t, []string{"unpaid", "commission"}, f.searcher.last.Exclude)
	assert.Equal(t, "ready", body["state"])
	assert.EqualValues(t, 3, body["page"])
	assert.EqualValues(t, 3, body["pageCount"])
	assert.EqualValues(t, 13, body["total"])

	records := body["records"].([]any)
	require.Len(t, records, 1)
	assert.Equal(t, "Build APIs & tools", records[0].(map[string]any)["description"])

	sources := body["sources"].(map[string]any)
	assert.EqualValues(t, 2, sources["attempted"])
	assert.Equal(t, []any{"jsearch"}, sources["failed"])
}

func TestJobs_BadParameters(t *testing.T) {
	f := newFixture(t, false)
	for _, q := range []string{"region=maybe", "page=0", "page=x", "q=n:13&page=4"} {
		resp, body := f.do(t, http.MethodGet, "/jobs?"+q, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
		assert.NotEmpty(t, body["error"], q)
	}
}

// ── Sessions ──────────────────────────────────────────────────────────────────

func TestSessions_Lifecycle(t *testing.T) {
	f := newFixture(t, false)

	resp, body := f.do(t, http.MethodPost, "/sessions", `{"query":"n:13","regionOnly":false}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := body["sessionId"].(string)
	assert.Equal(t, "ready", body["state"])
	assert.EqualValues(t, 1, body["page"])
	assert.Len(t, body["records"], 6)

	resp, body = f.do(t, http.MethodGet, "/sessions/"+id+"?page=3", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["records"], 1)

	resp, _ = f.do(t, http.MethodGet, "/sessions/"+id+"?page=4", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = f.do(t, http.MethodPost, "/sessions/"+id+"/search", `{"query":"n:0"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ready-empty", body["state"])
	assert.EqualValues(t, 0, body["total"])

	resp, _ = f.do(t, http.MethodDelete, "/sessions/"+id, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSessions_CreateWithoutBodyUsesDefaults(t *testing.T) {
	f := newFixture(t, false)
	resp, body := f.do(t, http.MethodPost, "/sessions", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	req := body["request"].(map[string]any)
	assert.Equal(t, "software developer", req["query"])
	assert.Equal(t, true, req["regionOnly"])
}

func TestSessions_OmittedRegionOnlyDefaultsToTrue(t *testing.T) {
	f := newFixture(t, false)

	_, body := f.do(t, http.MethodPost, "/sessions", `{"query":"n:3"}`)
	assert.Equal(t, true, body["request"].(map[string]any)["regionOnly"])
	id := body["sessionId"].(string)

	_, body = f.do(t, http.MethodPost, "/sessions/"+id+"/search", `{"query":"n:2","regionOnly":false}`)
	assert.Equal(t, false, body["request"].(map[string]any)["regionOnly"])

	_, body = f.do(t, http.MethodPost, "/sessions/"+id+"/search", `{"query":"n:2"}`)
	assert.Equal(t, true, body["request"].(map[string]any)["regionOnly"])
}

func TestSessions_SearchNeedsQuery(t *testing.T) {
	f := newFixture(t, false)
	_, body := f.do(t, http.MethodPost, "/sessions", "")
	id := body["sessionId"].(string)

	resp, _ := f.do(t, http.MethodPost, "/sessions/"+id+"/search", `{"query":"  "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = f.do(t, http.MethodPost, "/sessions/"+id+"/search", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// ── Saved searches ────────────────────────────────────────────────────────────

func TestSearches_UnavailableWithoutDatabase(t *testing.T) {
	f := newFixture(t, false)
	resp, _ := f.do(t, http.MethodGet, "/searches", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestSearches_CreateListRuns(t *testing.T) {
	f := newFixture(t, true)

	resp, body := f.do(t, http.MethodPost, "/searches", `{"name":"Go India","query":"golang"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["regionOnly"], "regionOnly defaults to true")
	assert.Equal(t, true, body["isActive"], "isActive defaults to true")
	id := body["id"].(string)

	resp, _ = f.do(t, http.MethodPost, "/searches", `{"name":"","query":"golang"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, list := f.doList(t, http.MethodGet, "/searches", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, list, 1)

	require.NoError(t, f.searches.RecordRun(context.Background(), model.SearchRun{ID: "r1", SavedSearchID: id, Total: 7}))
	resp, runs := f.doList(t, http.MethodGet, "/searches/"+id+"/runs", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, runs, 1)
	assert.EqualValues(t, 7, runs[0]["total"])

	resp, _ = f.do(t, http.MethodGet, "/searches/missing/runs", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = f.do(t, http.MethodGet, "/searches/"+id+"/runs?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// ── ATS ───────────────────────────────────────────────────────────────────────

func TestATS_Score(t *testing.T) {
	f := newFixture(t, false)

	resp, body := f.do(t, http.MethodPost, "/ats/score", `{"role":"Data Analyst","text":"python and sql"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 29, body["score"])
	assert.Equal(t, []any{"python", "sql"}, body["matched"])

	resp, body = f.do(t, http.MethodPost, "/ats/score", `{"role":"data analyst","text":""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, body["error"])
}

func TestATS_Roles(t *testing.T) {
	f := newFixture(t, false)
	resp, body := f.do(t, http.MethodGet, "/ats/roles", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["roles"], 4)
}

// ── Drafts ────────────────────────────────────────────────────────────────────

func TestDrafts_SaveListDelete(t *testing.T) {
	f := newFixture(t, false)

	resp, body := f.do(t, http.MethodPost, "/drafts", `{"title":"Shipped v2","tone":"professional","includeEmojis":true}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := body["id"].(string)
	assert.NotEmpty(t, id)

	resp, list := f.doList(t, http.MethodGet, "/drafts", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, list, 1)
	assert.Equal(t, "Shipped v2", list[0]["title"])
	assert.Equal(t, true, list[0]["includeEmojis"])

	resp, _ = f.do(t, http.MethodDelete, "/drafts/"+id, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = f.do(t, http.MethodDelete, "/drafts/"+id, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// Package httpapi implements the HTTP handlers for the jobsearch service.
//
// Routes:
//
//	GET    /health                  → liveness
//	GET    /jobs                    → one-shot search, one page
//	POST   /sessions                → open a session and run its first search
//	GET    /sessions/{id}           → session snapshot at ?page=
//	POST   /sessions/{id}/search    → new search in an existing session
//	DELETE /sessions/{id}           → drop a session
//	GET    /searches                → list saved searches
//	POST   /searches                → create a saved search
//	GET    /searches/{id}/runs      → recent run counts of a saved search
//	POST   /ats/score               → score resume text against a role
//	GET    /ats/roles               → roles known to the ATS checker
//	GET    /drafts                  → list post drafts
//	POST   /drafts                  → save a post draft
//	DELETE /drafts/{id}             → remove a post draft
package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"careercraft/jobsearch-service/internal/aggregator"
	"careercraft/jobsearch-service/internal/ats"
	"careercraft/jobsearch-service/internal/drafts"
	"careercraft/jobsearch-service/internal/model"
	"careercraft/jobsearch-service/internal/savedsearch"
	"careercraft/jobsearch-service/internal/session"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	maxBodyBytes    = 1 << 20
	defaultRunLimit = 20
	maxRunLimit     = 100
)

// Searcher runs one pipeline pass. *aggregator.Aggregator implements it.
type Searcher interface {
	Search(ctx context.Context, req model.SearchRequest) model.ResultSet
}

// ─── Response types ───────────────────────────────────────────────────────────

// pageResponse is the JSON shape of every search result page.
type pageResponse struct {
	SessionID string              `json:"sessionId,omitempty"`
	State     session.State       `json:"state"`
	Request   model.SearchRequest `json:"request"`
	Page      int                 `json:"page"`
	PageSize  int                 `json:"pageSize"`
	PageCount int                 `json:"pageCount"`
	Total     int                 `json:"total"`
	Records   []model.Record      `json:"records"`
	Sources   model.SourceReport  `json:"sources"`
}

func newPageResponse(sessionID string, state session.State, req model.SearchRequest, p aggregator.Page, rep model.SourceReport) pageResponse {
	return pageResponse{
		SessionID: sessionID,
		State:     state,
		Request:   req,
		Page:      p.Number,
		PageSize:  p.Size,
		PageCount: p.Count,
		Total:     p.Total,
		Records:   displayRecords(p.Records),
		Sources:   rep,
	}
}

// ─── Handler ─────────────────────────────────────────────────────────────────

// Deps are the collaborators a Handler serves. Searches may be nil when no
// database is configured.
type Deps struct {
	Searcher Searcher
	Sessions *session.Manager
	Searches savedsearch.Repository
	Drafts   *drafts.Store
	Log      *zap.Logger
	Version  string
}

// Handler holds shared dependencies.
type Handler struct {
	searcher Searcher
	sessions *session.Manager
	searches savedsearch.Repository
	drafts   *drafts.Store
	log      *zap.Logger
	version  string
}

// NewHandler returns a configured Handler.
func NewHandler(d Deps) *Handler {
	return &Handler{
		searcher: d.Searcher,
		sessions: d.Sessions,
		searches: d.Searches,
		drafts:   d.Drafts,
		log:      d.Log.Named("http"),
		version:  d.Version,
	}
}

// RegisterRoutes mounts all jobsearch routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.health)

	mux.HandleFunc("GET /jobs", h.searchJobs)

	mux.HandleFunc("POST /sessions", h.createSession)
	mux.HandleFunc("GET /sessions/{id}", h.getSession)
	mux.HandleFunc("POST /sessions/{id}/search", h.searchSession)
	mux.HandleFunc("DELETE /sessions/{id}", h.deleteSession)

	mux.HandleFunc("GET /searches", h.listSearches)
	mux.HandleFunc("POST /searches", h.createSearch)
	mux.HandleFunc("GET /searches/{id}/runs", h.listRuns)

	mux.HandleFunc("POST /ats/score", h.scoreResume)
	mux.HandleFunc("GET /ats/roles", h.listRoles)

	mux.HandleFunc("GET /drafts", h.listDrafts)
	mux.HandleFunc("POST /drafts", h.saveDraft)
	mux.HandleFunc("DELETE /drafts/{id}", h.deleteDraft)
}

// Wrap adds request logging around next.
func (h *Handler) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	jsonOK(w, map[string]string{
		"status":  "ok",
		"service": "jobsearch-service",
		"version": h.version,
	})
}

// ─── Search ───────────────────────────────────────────────────────────────────

// searchJobs handles GET /jobs?q=&region=&page=&exclude=
func (h *Handler) searchJobs(w http.ResponseWriter, r *http.Request) {
	req, err := parseSearchQuery(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	rs := h.searcher.Search(r.Context(), req)
	page := aggregator.Paginate(rs.Records, rs.PageSize, req.Page)
	if page.Count > 0 && !page.InRange() {
		jsonError(w, "page out of range", http.StatusBadRequest)
		return
	}

	state := session.StateReady
	if len(rs.Records) == 0 {
		state = session.StateReadyEmpty
	}
	jsonOK(w, newPageResponse("", state, req, page, rs.Report))
}

func parseSearchQuery(r *http.Request) (model.SearchRequest, error) {
	q := r.URL.Query()
	req := session.DefaultRequest

	if v := strings.TrimSpace(q.Get("q")); v != "" {
		req.Query = v
	}
	if v := q.Get("region"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return req, errors.New("region must be a boolean")
		}
		req.RegionOnly = b
	}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return req, errors.New("page must be a positive integer")
		}
		req.Page = n
	}
	req.Exclude = splitTerms(q.Get("exclude"))
	return req, nil
}

// splitTerms splits a comma-separated list, dropping blanks.
func splitTerms(csv string) []string {
	var out []string
	for _, t := range strings.Split(csv, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// ─── Sessions ─────────────────────────────────────────────────────────────────

// sessionRequest is the body of POST /sessions and POST /sessions/{id}/search.
// regionOnly defaults to true, as it does everywhere else.
type sessionRequest struct {
	Query      string   `json:"query"`
	RegionOnly *bool    `json:"regionOnly"`
	Exclude    []string `json:"exclude"`
}

func (b sessionRequest) searchRequest() model.SearchRequest {
	return model.SearchRequest{
		Query:      strings.TrimSpace(b.Query),
		RegionOnly: b.RegionOnly == nil || *b.RegionOnly,
		Page:       1,
		Exclude:    b.Exclude,
	}
}

// createSession handles POST /sessions with an optional body.
func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	var req *model.SearchRequest
	var body sessionRequest
	switch err := decodeBody(w, r, &body); {
	case errors.Is(err, io.EOF):
		// no body: default search
	case err != nil:
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	default:
		sr := body.searchRequest()
		if sr.Query == "" {
			sr.Query = session.DefaultRequest.Query
		}
		req = &sr
	}

	s := h.sessions.Create(r.Context(), req)
	h.writeSession(w, s, 1, http.StatusCreated)
}

// getSession handles GET /sessions/{id}?page=
func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	n := 0
	if v := r.URL.Query().Get("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			jsonError(w, "page must be an integer", http.StatusBadRequest)
			return
		}
		n = p
		if n == 0 {
			jsonError(w, "page out of range", http.StatusBadRequest)
			return
		}
	}
	h.writeSession(w, s, n, http.StatusOK)
}

// searchSession handles POST /sessions/{id}/search. The response shows the
// session after this search settles, or the newer search that superseded it.
func (h *Handler) searchSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	var body sessionRequest
	if err := decodeBody(w, r, &body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	req := body.searchRequest()
	if req.Query == "" {
		jsonError(w, "query is required", http.StatusBadRequest)
		return
	}

	if !s.Search(r.Context(), req) {
		h.log.Debug("search superseded", zap.String("session", s.ID))
	}
	h.writeSession(w, s, 0, http.StatusOK)
}

// deleteSession handles DELETE /sessions/{id}
func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(r.PathValue("id")); err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) lookupSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.sessions.Get(r.PathValue("id"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return nil, false
	}
	return s, true
}

// writeSession renders page n of s (0 = current page).
func (h *Handler) writeSession(w http.ResponseWriter, s *session.Session, n, code int) {
	v, err := s.View(n)
	if errors.Is(err, session.ErrPageOutOfRange) {
		jsonError(w, "page out of range", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.log.Error("session view failed", zap.String("session", s.ID), zap.Error(err))
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, code, newPageResponse(v.ID, v.State, v.Request, v.Page, v.Sources))
}

// ─── Saved searches ───────────────────────────────────────────────────────────

type createSearchRequest struct {
	Name       string   `json:"name"`
	Query      string   `json:"query"`
	RegionOnly *bool    `json:"regionOnly"`
	Exclude    []string `json:"exclude"`
	IsActive   *bool    `json:"isActive"`
}

func (h *Handler) requireSearches(w http.ResponseWriter) bool {
	if h.searches == nil {
		jsonError(w, "saved searches need DATABASE_URL", http.StatusServiceUnavailable)
		return false
	}
	return true
}

// listSearches handles GET /searches
func (h *Handler) listSearches(w http.ResponseWriter, r *http.Request) {
	if !h.requireSearches(w) {
		return
	}
	list, err := h.searches.List(r.Context())
	if err != nil {
		h.log.Error("list saved searches", zap.Error(err))
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	jsonOK(w, list)
}

// createSearch handles POST /searches. regionOnly and isActive default to true.
func (h *Handler) createSearch(w http.ResponseWriter, r *http.Request) {
	if !h.requireSearches(w) {
		return
	}
	var body createSearchRequest
	if err := decodeBody(w, r, &body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	ss := model.SavedSearch{
		Name:       body.Name,
		Query:      body.Query,
		RegionOnly: body.RegionOnly == nil || *body.RegionOnly,
		Exclude:    body.Exclude,
		IsActive:   body.IsActive == nil || *body.IsActive,
	}

	created, err := h.searches.Create(r.Context(), ss)
	if errors.Is(err, savedsearch.ErrInvalid) {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.log.Error("create saved search", zap.Error(err))
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// listRuns handles GET /searches/{id}/runs?limit=
func (h *Handler) listRuns(w http.ResponseWriter, r *http.Request) {
	if !h.requireSearches(w) {
		return
	}
	limit := defaultRunLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			jsonError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxRunLimit)
	}

	runs, err := h.searches.Runs(r.Context(), r.PathValue("id"), limit)
	if errors.Is(err, savedsearch.ErrNotFound) {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("list search runs", zap.Error(err))
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	jsonOK(w, runs)
}

// ─── ATS ──────────────────────────────────────────────────────────────────────

type scoreRequest struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// scoreResume handles POST /ats/score
func (h *Handler) scoreResume(w http.ResponseWriter, r *http.Request) {
	var body scoreRequest
	if err := decodeBody(w, r, &body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	rep, err := ats.Score(body.Role, body.Text)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	jsonOK(w, rep)
}

// listRoles handles GET /ats/roles
func (h *Handler) listRoles(w http.ResponseWriter, _ *http.Request) {
	jsonOK(w, map[string][]string{"roles": ats.Roles()})
}

// ─── Drafts ───────────────────────────────────────────────────────────────────

// listDrafts handles GET /drafts
func (h *Handler) listDrafts(w http.ResponseWriter, _ *http.Request) {
	jsonOK(w, h.drafts.List())
}

// saveDraft handles POST /drafts
func (h *Handler) saveDraft(w http.ResponseWriter, r *http.Request) {
	var d drafts.Draft
	if err := decodeBody(w, r, &d); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	saved, err := h.drafts.Save(r.Context(), d)
	if err != nil {
		h.log.Error("save draft", zap.Error(err))
		jsonError(w, "could not save draft", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// deleteDraft handles DELETE /drafts/{id}
func (h *Handler) deleteDraft(w http.ResponseWriter, r *http.Request) {
	err := h.drafts.Remove(r.Context(), r.PathValue("id"))
	if errors.Is(err, drafts.ErrNotFound) {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("remove draft", zap.Error(err))
		jsonError(w, "could not remove draft", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func jsonOK(w http.ResponseWriter, v any) {
	writeJSON(w, http.StatusOK, v)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

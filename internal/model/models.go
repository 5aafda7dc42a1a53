// Package model defines shared data structures for the jobsearch service.
package model

import (
	"fmt"
	"time"
)

// Source names the provider adapter that produced a Record.
type Source string

const (
	SourceRemotive Source = "remotive"
	SourceAdzuna   Source = "adzuna"
	SourceJSearch  Source = "jsearch"
)

// Sources lists every known provider in declaration order. Later providers win
// dedup collisions against earlier ones.
var Sources = []Source{SourceRemotive, SourceAdzuna, SourceJSearch}

// ParseSource converts a raw string to a Source, returning an error for
// unknown values.
func ParseSource(s string) (Source, error) {
	src := Source(s)
	switch src {
	case SourceRemotive, SourceAdzuna, SourceJSearch:
		return src, nil
	}
	return "", fmt.Errorf("unknown source %q", s)
}

// Record is the provider-agnostic job listing every pipeline stage works on.
// Records are passed by value and never modified after normalisation.
type Record struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Source      Source `json:"source"`
}

// DedupKey is the string two records must share to be treated as the same
// listing: exact title followed by exact company.
func (r Record) DedupKey() string { return r.Title + r.Company }

// SearchRequest is one user-triggered search.
type SearchRequest struct {
	Query      string   `json:"query"`
	RegionOnly bool     `json:"regionOnly"`
	Page       int      `json:"page,omitempty"`
	Exclude    []string `json:"exclude,omitempty"` // red-flag terms, matched case-insensitively
}

// SourceReport says how many providers a run tried and which ones did not
// contribute. It is what separates "every source failed" from "no matches".
type SourceReport struct {
	Attempted int      `json:"attempted"`
	Succeeded int      `json:"succeeded"`
	Skipped   []Source `json:"skipped"` // not configured
	Failed    []Source `json:"failed"`  // configured but unavailable
}

// AllFailed reports whether at least one provider was tried and none answered.
func (r SourceReport) AllFailed() bool { return r.Attempted > 0 && r.Succeeded == 0 }

// ResultSet is the filtered outcome of one orchestration run. A new run
// produces a new ResultSet; an existing one is never updated in place.
type ResultSet struct {
	Request  SearchRequest `json:"request"`
	Records  []Record      `json:"records"`
	PageSize int           `json:"pageSize"`
	Report   SourceReport  `json:"sources"`
}

// PageCount returns ceil(len(Records) / PageSize).
func (rs ResultSet) PageCount() int { return PageCount(len(rs.Records), rs.PageSize) }

// PageCount returns the number of pages needed for total items at size per page.
func PageCount(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// SavedSearch mirrors the saved_searches table row. Saved searches are re-run
// by the scheduler to track provider health; their listings are not stored.
type SavedSearch struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Query      string    `json:"query"`
	RegionOnly bool      `json:"regionOnly"`
	Exclude    []string  `json:"exclude"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Request converts a saved search into the request the pipeline runs.
func (s SavedSearch) Request() SearchRequest {
	return SearchRequest{Query: s.Query, RegionOnly: s.RegionOnly, Page: 1, Exclude: s.Exclude}
}

// SearchRun is one row of search_runs: counts only.
type SearchRun struct {
	ID            string       `json:"id"`
	SavedSearchID string       `json:"savedSearchId"`
	Report        SourceReport `json:"sources"`
	Total         int          `json:"total"`
	RanAt         time.Time    `json:"ranAt"`
}

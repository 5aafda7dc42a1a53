package provider

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"careercraft/jobsearch-service/internal/model"
)

const (
	jsearchBaseURL = "https://jsearch.p.rapidapi.com/search"
	jsearchHost    = "jsearch.p.rapidapi.com"
)

// JSearch queries the JSearch API through RapidAPI. It needs an API key.
type JSearch struct {
	BaseURL string
	APIKey  string
	fetcher *Fetcher
}

func NewJSearch(f *Fetcher, apiKey string) *JSearch {
	return &JSearch{BaseURL: jsearchBaseURL, APIKey: apiKey, fetcher: f}
}

type jsearchResponse struct {
	Data []jsearchJob `json:"data"`
}

type jsearchJob struct {
	JobID          flexString `json:"job_id"`
	JobTitle       string     `json:"job_title"`
	EmployerName   string     `json:"employer_name"`
	JobLocation    string     `json:"job_location"`
	JobCity        string     `json:"job_city"`
	JobState       string     `json:"job_state"`
	JobCountry     string     `json:"job_country"`
	JobApplyLink   string     `json:"job_apply_link"`
	JobGoogleLink  string     `json:"job_google_link"`
	JobDescription string     `json:"job_description"`
}

// place joins the structured location parts JSearch returns when the
// free-text job_location is missing.
func (j jsearchJob) place() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{j.JobCity, j.JobState, j.JobCountry} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func (j *JSearch) Source() model.Source { return model.SourceJSearch }

func (j *JSearch) Configured() bool { return j.APIKey != "" }

func (j *JSearch) Search(ctx context.Context, q Query) ([]model.Record, bool) {
	params := url.Values{}
	params.Set("query", strings.TrimSpace(q.Text+" "+q.Location))
	params.Set("num_pages", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, j.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, false
	}
	req.Header.Set("X-RapidAPI-Key", j.APIKey)
	req.Header.Set("X-RapidAPI-Host", jsearchHost)

	var resp jsearchResponse
	if !j.fetcher.Fetch(model.SourceJSearch, req, &resp) {
		return nil, false
	}

	records := make([]model.Record, 0, len(resp.Data))
	for _, d := range resp.Data {
		records = append(records, Normalize(model.SourceJSearch, Candidates{
			ID:          []string{string(d.JobID)},
			Title:       []string{d.JobTitle},
			Company:     []string{d.EmployerName},
			Location:    []string{d.JobLocation, d.place()},
			URL:         []string{d.JobApplyLink, d.JobGoogleLink},
			Description: []string{d.JobDescription},
		}))
	}
	return records, true
}

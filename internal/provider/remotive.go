package provider

import (
	"context"
	"net/http"
	"net/url"

	"careercraft/jobsearch-service/internal/model"
)

const remotiveBaseURL = "https://remotive.com/api/remote-jobs"

// Remotive queries the keyless Remotive remote-jobs API.
type Remotive struct {
	BaseURL string
	Enabled bool
	fetcher *Fetcher
}

func NewRemotive(f *Fetcher, enabled bool) *Remotive {
	return &Remotive{BaseURL: remotiveBaseURL, Enabled: enabled, fetcher: f}
}

type remotiveResponse struct {
	Jobs []remotiveJob `json:"jobs"`
}

type remotiveJob struct {
	ID                        flexString `json:"id"`
	Slug                      string     `json:"slug"`
	URL                       string     `json:"url"`
	Title                     string     `json:"title"`
	CompanyName               string     `json:"company_name"`
	CandidateRequiredLocation string     `json:"candidate_required_location"`
	Description               string     `json:"description"`
}

func (r *Remotive) Source() model.Source { return model.SourceRemotive }

func (r *Remotive) Configured() bool { return r.Enabled }

func (r *Remotive) Search(ctx context.Context, q Query) ([]model.Record, bool) {
	params := url.Values{}
	params.Set("search", q.Text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, false
	}
	req.Header.Set("Accept", "application/json")

	var resp remotiveResponse
	if !r.fetcher.Fetch(model.SourceRemotive, req, &resp) {
		return nil, false
	}

	records := make([]model.Record, 0, len(resp.Jobs))
	for _, j := range resp.Jobs {
		records = append(records, Normalize(model.SourceRemotive, Candidates{
			ID:          []string{string(j.ID), j.Slug},
			Title:       []string{j.Title},
			Company:     []string{j.CompanyName},
			Location:    []string{j.CandidateRequiredLocation},
			URL:         []string{j.URL},
			Description: []string{j.Description},
		}))
	}
	return records, true
}

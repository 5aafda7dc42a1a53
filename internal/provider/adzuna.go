package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"careercraft/jobsearch-service/internal/model"
)

const (
	adzunaBaseURL  = "https://api.adzuna.com/v1/api/jobs"
	adzunaPageSize = 50
)

// Adzuna queries the Adzuna public API. It needs both AppID and AppKey.
type Adzuna struct {
	BaseURL string
	AppID   string
	AppKey  string
	Country string // "in", "gb", "us", …
	fetcher *Fetcher
}

// NewAdzuna constructs the adapter; country defaults to "in".
func NewAdzuna(f *Fetcher, appID, appKey, country string) *Adzuna {
	if country == "" {
		country = "in"
	}
	return &Adzuna{
		BaseURL: adzunaBaseURL,
		AppID:   appID,
		AppKey:  appKey,
		Country: country,
		fetcher: f,
	}
}

// adzunaResponse mirrors the top-level Adzuna JSON response.
type adzunaResponse struct {
	Results []adzunaResult `json:"results"`
	Count   int            `json:"count"`
}

// adzunaResult mirrors a single Adzuna job listing.
type adzunaResult struct {
	ID          flexString     `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Company     adzunaCompany  `json:"company"`
	Location    adzunaLocation `json:"location"`
	RedirectURL string         `json:"redirect_url"`
}

type adzunaCompany struct {
	DisplayName string `json:"display_name"`
}

type adzunaLocation struct {
	DisplayName string `json:"display_name"`
}

func (a *Adzuna) Source() model.Source { return model.SourceAdzuna }

func (a *Adzuna) Configured() bool { return a.AppID != "" && a.AppKey != "" }

// Search fetches the first page of results for q.Text. Adzuna scopes the
// search by country, so q.Location is not sent.
func (a *Adzuna) Search(ctx context.Context, q Query) ([]model.Record, bool) {
	params := url.Values{}
	params.Set("app_id", a.AppID)
	params.Set("app_key", a.AppKey)
	params.Set("results_per_page", strconv.Itoa(adzunaPageSize))
	params.Set("what", q.Text)

	endpoint := fmt.Sprintf("%s/%s/search/1?%s", a.BaseURL, a.Country, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false
	}
	req.Header.Set("Accept", "application/json")

	var resp adzunaResponse
	if !a.fetcher.Fetch(model.SourceAdzuna, req, &resp) {
		return nil, false
	}

	records := make([]model.Record, 0, len(resp.Results))
	for _, r := range resp.Results {
		records = append(records, Normalize(model.SourceAdzuna, Candidates{
			ID:          []string{string(r.ID)},
			Title:       []string{r.Title},
			Company:     []string{r.Company.DisplayName},
			Location:    []string{r.Location.DisplayName},
			URL:         []string{r.RedirectURL},
			Description: []string{r.Description},
		}))
	}
	return records, true
}

// Package provider implements the job listing adapters. Each adapter knows
// one provider's request and response shape and turns responses into
// model.Record values; all network calls go through the shared Fetcher.
package provider

import (
	"context"

	"careercraft/jobsearch-service/internal/model"
)

// Query is what an adapter is asked to search for.
type Query struct {
	Text     string
	Location string
}

// Adapter is one upstream provider.
//
// Search returns the provider's listings in native order, or ok == false when
// the provider was unavailable (network, status or payload failure). It never
// returns an error and never panics on bad payloads.
type Adapter interface {
	Source() model.Source
	// Configured reports whether the credentials the provider needs are
	// present. Unconfigured adapters must not be invoked.
	Configured() bool
	Search(ctx context.Context, q Query) (records []model.Record, ok bool)
}

// Settings carries the per-provider credentials and switches.
type Settings struct {
	RemotiveEnabled bool
	AdzunaAppID     string
	AdzunaAppKey    string
	AdzunaCountry   string
	RapidAPIKey     string
}

// All returns every adapter in declaration order (model.Sources). Adapters
// whose credentials are missing are still returned; the aggregator skips them.
func All(f *Fetcher, s Settings) []Adapter {
	return []Adapter{
		NewRemotive(f, s.RemotiveEnabled),
		NewAdzuna(f, s.AdzunaAppID, s.AdzunaAppKey, s.AdzunaCountry),
		NewJSearch(f, s.RapidAPIKey),
	}
}

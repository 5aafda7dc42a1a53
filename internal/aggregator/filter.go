package aggregator

import (
	"slices"
	"strings"

	"careercraft/jobsearch-service/internal/model"
)

// FilterOptions is the user-chosen filter of one search.
type FilterOptions struct {
	RegionOnly bool
	Region     string   // matched case-insensitively against Location
	Exclude    []string // red-flag terms
}

// Filter keeps records whose Location contains Region when RegionOnly is
// set, then drops records carrying a red-flag term. With neither active the
// output equals the input.
func Filter(records []model.Record, opts FilterOptions) []model.Record {
	if !opts.RegionOnly && len(opts.Exclude) == 0 {
		return slices.Clone(records)
	}

	region := strings.ToLower(opts.Region)
	out := make([]model.Record, 0, len(records))
	for _, r := range records {
		if opts.RegionOnly && !strings.Contains(strings.ToLower(r.Location), region) {
			continue
		}
		if ContainsRedFlag(r, opts.Exclude) {
			continue
		}
		out = append(out, r)
	}
	return out
}

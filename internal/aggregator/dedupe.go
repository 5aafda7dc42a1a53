package aggregator

import "careercraft/jobsearch-service/internal/model"

// Dedupe collapses records sharing a DedupKey (exact title + company). The
// last record with a key wins and takes the slot where the key first
// appeared. An empty key is a key like any other, so several records with
// neither title nor company collapse into one.
func Dedupe(records []model.Record) []model.Record {
	index := make(map[string]int, len(records))
	out := make([]model.Record, 0, len(records))
	for _, r := range records {
		key := r.DedupKey()
		if i, seen := index[key]; seen {
			out[i] = r
			continue
		}
		index[key] = len(out)
		out = append(out, r)
	}
	return out
}

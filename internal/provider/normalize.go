package provider

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"careercraft/jobsearch-service/internal/model"
)

// Candidates lists, for each canonical field, a provider's equivalent values
// in priority order. Each adapter fills it from its own typed payload.
type Candidates struct {
	ID          []string
	Title       []string
	Company     []string
	Location    []string
	URL         []string
	Description []string
}

// Normalize picks the first present value of every field. Missing fields
// become "", except ID which falls back to the URL and then to a synthesized
// "<source>-<uuid>" placeholder.
func Normalize(source model.Source, c Candidates) model.Record {
	link := firstPresent(c.URL)
	id := firstPresent(c.ID)
	if id == "" {
		id = link
	}
	if id == "" {
		id = string(source) + "-" + uuid.NewString()
	}
	return model.Record{
		ID:          id,
		Title:       firstPresent(c.Title),
		Company:     firstPresent(c.Company),
		Location:    firstPresent(c.Location),
		URL:         link,
		Description: firstPresent(c.Description),
		Source:      source,
	}
}

func firstPresent(values []string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// flexString decodes a JSON string, number or null into a string. Provider
// ids are numbers on some APIs and strings on others.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	switch {
	case raw == "null":
		*s = ""
	case strings.HasPrefix(raw, `"`):
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
	case isJSONNumber(raw):
		*s = flexString(raw)
	default:
		return fmt.Errorf("id must be a string or number, got %.32s", raw)
	}
	return nil
}

func isJSONNumber(raw string) bool {
	var n float64
	return raw != "" && (raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9')) &&
		json.Unmarshal([]byte(raw), &n) == nil
}

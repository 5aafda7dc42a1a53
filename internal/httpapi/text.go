package httpapi

import (
	"io"
	"strings"

	"golang.org/x/net/html"

	"careercraft/jobsearch-service/internal/model"
)

// plainText drops markup from s and collapses whitespace. Provider
// descriptions arrive as HTML fragments; script and style bodies are dropped.
func plainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}

	z := html.NewTokenizer(strings.NewReader(s))
	var (
		b    strings.Builder
		skip int
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				return strings.Join(strings.Fields(s), " ")
			}
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style":
				skip++
			case "br", "p", "li", "div", "h1", "h2", "h3", "h4", "tr":
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style":
				if skip > 0 {
					skip--
				}
			case "p", "li", "div", "h1", "h2", "h3", "h4", "tr":
				b.WriteByte(' ')
			}
		case html.SelfClosingTagToken:
			b.WriteByte(' ')
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

// displayRecords returns copies of records with plain-text descriptions.
func displayRecords(records []model.Record) []model.Record {
	out := make([]model.Record, len(records))
	for i, r := range records {
		r.Description = plainText(r.Description)
		out[i] = r
	}
	return out
}

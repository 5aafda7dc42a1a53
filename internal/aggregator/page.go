package aggregator

import "careercraft/jobsearch-service/internal/model"

// Page is one fixed-size slice of a result set. Number is 1-indexed.
type Page struct {
	Number  int            `json:"page"`
	Size    int            `json:"pageSize"`
	Count   int            `json:"pageCount"`
	Total   int            `json:"total"`
	Records []model.Record `json:"records"`
}

// InRange reports whether Number addresses an existing page.
func (p Page) InRange() bool { return p.Number >= 1 && p.Number <= p.Count }

// Paginate slices records into pages of size and returns page number.
// A number outside 1..Count yields an empty page; rejecting it is the
// caller's job.
func Paginate(records []model.Record, size, number int) Page {
	if size <= 0 {
		size = defaultPageSize
	}
	p := Page{
		Number:  number,
		Size:    size,
		Count:   model.PageCount(len(records), size),
		Total:   len(records),
		Records: []model.Record{},
	}
	if !p.InRange() {
		return p
	}
	start := (number - 1) * size
	end := min(start+size, len(records))
	p.Records = records[start:end:end]
	return p
}

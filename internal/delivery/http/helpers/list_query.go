package helpers

import (
	"fmt"
	"net/url"
	"strconv"

	"studyhub/internal/domain"
)

const (
	firstPage       = 1
	defaultPageSize = 20
	maxPageSize     = 100
)

// ListQuery is a parsed read-state filtered list request:
// ?checked=<bool>&page=<n>&page_size=<n>.
type ListQuery struct {
	Checked bool
	Page    domain.PaginationParams
}

// ParseListQuery parses q. A malformed checked value is an error; missing or
// out-of-range page values fall back to page 1 of 20, and page_size is capped at 100.
func ParseListQuery(q url.Values) (ListQuery, error) {
	checked, err := ParseChecked(q, false)
	if err != nil {
		return ListQuery{}, err
	}
	page := positiveInt(q.Get("page"), firstPage)
	size := min(positiveInt(q.Get("page_size"), defaultPageSize), maxPageSize)
	return ListQuery{
		Checked: checked,
		Page:    domain.PaginationParams{Page: page, PageSize: size},
	}, nil
}

// ParseChecked reads the checked flag, returning def when it is absent.
func ParseChecked(q url.Values, def bool) (bool, error) {
	s := q.Get("checked")
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("checked must be true or false, got %q", s)
	}
	return v, nil
}

func positiveInt(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v >= 1 {
		return v
	}
	return def
}

// PageMeta describes one page of a list response.
type PageMeta struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// PageMetaOf summarises res for the response body.
func PageMetaOf[T any](res *domain.PaginatedResult[T]) PageMeta {
	pages := 0
	if res.PageSize > 0 {
		pages = (res.Total + res.PageSize - 1) / res.PageSize
	}
	return PageMeta{
		Page:       res.Page,
		PageSize:   res.PageSize,
		Total:      res.Total,
		TotalPages: pages,
		HasNext:    res.Page < pages,
	}
}

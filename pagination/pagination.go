package pagination

import (
	"slices"

	"github.com/andyle182810/wpsec/apierror"
)

const (
	DefaultPage     = 1
	DefaultLastPage = 1
	DefaultPageSize = 50
	DefaultTotal    = 0
)

// Info is the paginate block returned with every API page.
//
//nolint:tagliatelle
type Info struct {
	LastPage int `json:"last_page"`
	Total    int `json:"total"`
	PerPage  int `json:"per_page"`
}

// Normalize fills missing or non-positive fields with the API defaults.
func (i Info) Normalize() Info {
	if i.LastPage < 1 {
		i.LastPage = DefaultLastPage
	}

	if i.PerPage <= 0 {
		i.PerPage = DefaultPageSize
	}

	if i.Total < 0 {
		i.Total = DefaultTotal
	}

	return i
}

// ReversePage maps a newest-first user page to the oldest-first API page.
func ReversePage(page, lastPage int) (int, error) {
	if lastPage < 1 {
		lastPage = DefaultLastPage
	}

	actual := lastPage - page + 1
	if page < 1 || actual < 1 || actual > lastPage {
		return 0, apierror.Newf(apierror.KindValidation,
			"page %d is out of range, valid range is 1 to %d", page, lastPage)
	}

	return actual, nil
}

// NeedsFill reports whether the newest page should borrow reports from the
// API page before it.
func NeedsFill(page, actualPage, count, perPage int) bool {
	return page == DefaultPage && actualPage > 1 && count < perPage
}

// NewestFirst merges an API page with the tail of the page before it and
// returns at most perPage items, newest first. Both inputs are oldest first.
func NewestFirst[T any](current, previous []T, perPage int) []T {
	needed := max(perPage-len(current), 0)
	if needed > len(previous) {
		needed = len(previous)
	}

	merged := make([]T, 0, needed+len(current))
	merged = append(merged, previous[len(previous)-needed:]...)
	merged = append(merged, current...)

	slices.Reverse(merged)

	if perPage > 0 && len(merged) > perPage {
		merged = merged[:perPage]
	}

	return merged
}

func ComputeTotals(totalCount, pageSize int) int {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (totalCount + pageSize - 1) / pageSize
	}

	return totalPages
}

package pagination

import (
	"errors"
	"net/http"
	"strconv"
)

const (
	// DefaultLimit is the number of records per page when the client
	// does not specify one.
	DefaultLimit = 10

	// MaxLimit caps the number of records per page.
	MaxLimit = 100
)

// ErrPageOutOfRange means the requested page exceeds the number of
// available pages for the collection.
var ErrPageOutOfRange = errors.New("page out of range")

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page   int `json:"page"`
	Limit  int `json:"limit"`
	Offset int `json:"-"`
}

// DefaultParams returns sensible pagination defaults.
func DefaultParams() Params {
	return Params{
		Page:   1,
		Limit:  DefaultLimit,
		Offset: 0,
	}
}

// Normalize clamps invalid values back to defaults and recomputes the
// offset. Pages and limits at or below zero fall back to defaults,
// limits above MaxLimit are capped.
func (p Params) Normalize() Params {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	p.Offset = (p.Page - 1) * p.Limit
	return p
}

// FromRequest extracts pagination parameters from an HTTP request.
// Missing or malformed values fall back to defaults.
func FromRequest(r *http.Request) Params {
	p := DefaultParams()

	if page := r.URL.Query().Get("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil {
			p.Page = v
		}
	}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		if v, err := strconv.Atoi(limit); err == nil {
			p.Limit = v
		}
	}

	return p.Normalize()
}

// Pages describes a collection's pagination state for a given request.
type Pages struct {
	TotalRecords int  `json:"totalRecords"`
	CurrentPage  int  `json:"currentPage"`
	Limit        int  `json:"limit"`
	TotalPages   int  `json:"totalPages"`
	NextPage     *int `json:"nextPage"`
	PrevPage     *int `json:"prevPage"`
}

// Calculate derives the page layout for a collection of totalRecords
// items. An empty collection has zero pages but the first page is still
// servable as an empty result. Requesting any other page beyond the last
// one returns ErrPageOutOfRange.
func Calculate(totalRecords int, params Params) (Pages, error) {
	params = params.Normalize()

	totalPages := totalRecords / params.Limit
	if totalRecords%params.Limit > 0 {
		totalPages++
	}

	if params.Page > totalPages && params.Page != 1 {
		return Pages{}, ErrPageOutOfRange
	}

	pages := Pages{
		TotalRecords: totalRecords,
		CurrentPage:  params.Page,
		Limit:        params.Limit,
		TotalPages:   totalPages,
	}

	if params.Page < totalPages {
		next := params.Page + 1
		pages.NextPage = &next
	}
	if params.Page > 1 {
		prev := params.Page - 1
		pages.PrevPage = &prev
	}

	return pages, nil
}

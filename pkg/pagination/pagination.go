package pagination

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/utafrali/wishlist/pkg/errors"
)

// Params holds one page request. A zero field means "use the default".
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// Offset returns the number of rows to skip: (page-1)*per_page.
func (p Params) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PerPage
}

// Limits bounds page sizes.
type Limits struct {
	DefaultPerPage int
	MaxPerPage     int
}

// DefaultLimits returns a default page size of 100 capped at 500.
func DefaultLimits() Limits {
	return Limits{DefaultPerPage: 100, MaxPerPage: 500}
}

// Normalize fills defaults and enforces bounds. Negative values are invalid
// input; a page size above the maximum is clamped to it. A page whose offset
// would not fit in an int is invalid input.
func (l Limits) Normalize(p Params) (Params, error) {
	if p.Page < 0 {
		return Params{}, apperrors.InvalidInput("page must be at least 1")
	}
	if p.PerPage < 0 {
		return Params{}, apperrors.InvalidInput("per_page must be at least 1")
	}
	if p.Page == 0 {
		p.Page = 1
	}
	if p.PerPage == 0 {
		p.PerPage = l.DefaultPerPage
	}
	if l.MaxPerPage > 0 && p.PerPage > l.MaxPerPage {
		p.PerPage = l.MaxPerPage
	}
	if p.PerPage > 0 && p.Page-1 > math.MaxInt/p.PerPage {
		return Params{}, apperrors.InvalidInput("page is out of range")
	}
	return p, nil
}

// FromRequest reads "page" and "per_page" from the query string. Absent
// values are left at zero; malformed or non-positive values are invalid input.
func FromRequest(r *http.Request) (Params, error) {
	q := r.URL.Query()

	page, err := parsePositive(q.Get("page"), "page")
	if err != nil {
		return Params{}, err
	}
	perPage, err := parsePositive(q.Get("per_page"), "per_page")
	if err != nil {
		return Params{}, err
	}
	return Params{Page: page, PerPage: perPage}, nil
}

func parsePositive(raw, name string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, apperrors.InvalidInput(fmt.Sprintf("%s must be a positive integer", name))
	}
	return v, nil
}

// Result is one page of items plus the metadata needed to fetch the next.
type Result[T any] struct {
	Items      []T  `json:"items"`
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// NewResult builds a Result from a page of items and the overall total.
func NewResult[T any](items []T, total int, params Params) Result[T] {
	totalPages := 0
	if params.PerPage > 0 {
		totalPages = total / params.PerPage
		if total%params.PerPage > 0 {
			totalPages++
		}
	}
	if items == nil {
		items = []T{}
	}

	return Result[T]{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		PerPage:    params.PerPage,
		TotalPages: totalPages,
		HasNext:    params.Page < totalPages,
	}
}

package shared

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/bondly/bondly/internal/platform/httpx"
)

// Limits bounds the page size accepted from clients.
type Limits struct {
	Default int
	Min     int
	Max     int
}

// DefaultLimits applies when configuration leaves limits unset.
var DefaultLimits = Limits{Default: 20, Min: 1, Max: 100}

// PageRequest is a validated page/limit pair.
type PageRequest struct {
	Page  int
	Limit int
}

// Offset returns the row offset for the page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Meta contains metadata for paginated listings.
type Meta struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// Page is one page of results.
type Page[T any] struct {
	Data []T  `json:"data"`
	Meta Meta `json:"meta"`
}

// NewMeta computes pagination metadata.
func NewMeta(page, limit, total int) Meta {
	if limit <= 0 {
		limit = DefaultLimits.Default
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return Meta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// NewPage builds a Page, never returning a nil Data slice.
func NewPage[T any](items []T, req PageRequest, total int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Data: items, Meta: NewMeta(req.Page, req.Limit, total)}
}

// ParsePageRequest reads page and limit from the query string. Missing
// values fall back to page 1 and the default limit; malformed or out of
// range values are rejected.
func ParsePageRequest(values url.Values, limits Limits) (PageRequest, error) {
	if limits.Max <= 0 {
		limits = DefaultLimits
	}
	req := PageRequest{Page: 1, Limit: limits.Default}

	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return PageRequest{}, httpx.BadRequest("page doit être un entier supérieur ou égal à 1")
		}
		req.Page = page
	}
	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < limits.Min || limit > limits.Max {
			return PageRequest{}, httpx.BadRequest(fmt.Sprintf("limit doit être compris entre %d et %d", limits.Min, limits.Max))
		}
		req.Limit = limit
	}
	return req, nil
}

// Check validates a page request built from a JSON body.
func (p PageRequest) Check(limits Limits) (PageRequest, error) {
	if limits.Max <= 0 {
		limits = DefaultLimits
	}
	if p.Page == 0 {
		p.Page = 1
	}
	if p.Limit == 0 {
		p.Limit = limits.Default
	}
	if p.Page < 1 {
		return PageRequest{}, httpx.BadRequest("page doit être un entier supérieur ou égal à 1")
	}
	if p.Limit < limits.Min || p.Limit > limits.Max {
		return PageRequest{}, httpx.BadRequest(fmt.Sprintf("limit doit être compris entre %d et %d", limits.Min, limits.Max))
	}
	return p, nil
}

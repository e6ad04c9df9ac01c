package search

import (
	"github.com/bondly/bondly/internal/classifications"
	"github.com/bondly/bondly/internal/partners"
)

// Type restricts a basic search to one entity kind.
type Type string

const (
	TypeAll             Type = "all"
	TypePartners        Type = "partners"
	TypeClassifications Type = "classifications"
)

// Results is the payload of GET /api/search.
type Results struct {
	Query           string                           `json:"query"`
	Type            Type                             `json:"type"`
	Partners        []partners.Partner               `json:"partners"`
	Classifications []classifications.Classification `json:"classifications"`
	Total           int                              `json:"total"`
}

// Filters are the advanced search filters. Only the first value of each
// list is applied.
type Filters struct {
	Status          []string `json:"status"`
	Classifications []string `json:"classifications"`
	Professions     []string `json:"professions"`
	RatingMin       *int     `json:"ratingMin"`
	RatingMax       *int     `json:"ratingMax"`
}

// AdvancedRequest is the body of POST /api/search.
type AdvancedRequest struct {
	Query     string  `json:"query"`
	Filters   Filters `json:"filters"`
	Page      int     `json:"page"`
	Limit     int     `json:"limit"`
	SortBy    string  `json:"sortBy"`
	SortOrder string  `json:"sortOrder"`
}

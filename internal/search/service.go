// Package search implements the cross-entity search endpoints.
package search

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bondly/bondly/internal/classifications"
	"github.com/bondly/bondly/internal/partners"
	"github.com/bondly/bondly/internal/platform/httpx"
	"github.com/bondly/bondly/internal/shared"
)

const minQueryLength = 2

// PartnerFinder is the part of partners.Service used by search.
type PartnerFinder interface {
	Search(ctx context.Context, term string, limit int) ([]partners.Partner, error)
	List(ctx context.Context, f partners.ListFilter) (shared.Page[partners.Partner], error)
	Limits() shared.Limits
}

// ClassificationFinder is the part of classifications.Service used by
// search.
type ClassificationFinder interface {
	Search(ctx context.Context, term string, limit int) ([]classifications.Classification, error)
}

type Service struct {
	partners        PartnerFinder
	classifications ClassificationFinder
}

func NewService(p PartnerFinder, c ClassificationFinder) *Service {
	return &Service{partners: p, classifications: c}
}

// Basic searches partners and/or classifications for q.
func (s *Service) Basic(ctx context.Context, q string, typ Type, limit int) (Results, error) {
	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) < minQueryLength {
		return Results{}, shortQuery()
	}
	if typ == "" {
		typ = TypeAll
	}
	switch typ {
	case TypeAll, TypePartners, TypeClassifications:
	default:
		return Results{}, httpx.BadRequest("Type de recherche invalide: " + string(typ))
	}
	limits := s.partners.Limits()
	if limit <= 0 {
		limit = limits.Default
	}
	if limit > limits.Max {
		limit = limits.Max
	}

	res := Results{
		Query:           q,
		Type:            typ,
		Partners:        []partners.Partner{},
		Classifications: []classifications.Classification{},
	}
	if typ != TypeClassifications {
		found, err := s.partners.Search(ctx, q, limit)
		if err != nil {
			return Results{}, err
		}
		res.Partners = found
	}
	if typ != TypePartners {
		found, err := s.classifications.Search(ctx, q, limit)
		if err != nil {
			return Results{}, err
		}
		res.Classifications = found
	}
	res.Total = len(res.Partners) + len(res.Classifications)
	return res, nil
}

// Advanced runs a filtered partner listing. The rating bounds are applied
// to the returned page only, so Meta still describes the query without
// them.
func (s *Service) Advanced(ctx context.Context, req AdvancedRequest) (shared.Page[partners.Partner], error) {
	q := strings.TrimSpace(req.Query)
	if q != "" && utf8.RuneCountInString(q) < minQueryLength {
		return shared.Page[partners.Partner]{}, shortQuery()
	}
	if err := checkRatings(req.Filters); err != nil {
		return shared.Page[partners.Partner]{}, err
	}

	page, err := s.partners.List(ctx, partners.ListFilter{
		Search:         q,
		Status:         first(req.Filters.Status),
		Classification: first(req.Filters.Classifications),
		Job:            first(req.Filters.Professions),
		SortBy:         req.SortBy,
		SortOrder:      req.SortOrder,
		Page:           shared.PageRequest{Page: req.Page, Limit: req.Limit},
	})
	if err != nil {
		return shared.Page[partners.Partner]{}, err
	}

	lo, hi := req.Filters.RatingMin, req.Filters.RatingMax
	if lo == nil && hi == nil {
		return page, nil
	}
	kept := make([]partners.Partner, 0, len(page.Data))
	for _, p := range page.Data {
		if p.Rating == nil {
			continue
		}
		if lo != nil && *p.Rating < *lo {
			continue
		}
		if hi != nil && *p.Rating > *hi {
			continue
		}
		kept = append(kept, p)
	}
	page.Data = kept
	return page, nil
}

func checkRatings(f Filters) error {
	fields := map[string]string{}
	if f.RatingMin != nil && (*f.RatingMin < 1 || *f.RatingMin > 5) {
		fields["filters.ratingMin"] = "ratingMin doit être compris entre 1 et 5"
	}
	if f.RatingMax != nil && (*f.RatingMax < 1 || *f.RatingMax > 5) {
		fields["filters.ratingMax"] = "ratingMax doit être compris entre 1 et 5"
	}
	if len(fields) == 0 && f.RatingMin != nil && f.RatingMax != nil && *f.RatingMin > *f.RatingMax {
		fields["filters.ratingMin"] = "ratingMin doit être inférieur ou égal à ratingMax"
	}
	if len(fields) > 0 {
		return httpx.NewValidationError(fields)
	}
	return nil
}

func first(values []string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func shortQuery() error {
	return httpx.BadRequest(fmt.Sprintf("La recherche doit contenir au moins %d caractères", minQueryLength))
}

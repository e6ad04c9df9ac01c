package classifications

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/bondly/bondly/internal/partners"
	"github.com/bondly/bondly/internal/platform/httpx"
	"github.com/bondly/bondly/internal/platform/repository"
	"github.com/bondly/bondly/internal/platform/validate"
	"github.com/bondly/bondly/internal/query"
)

// LabelSource lists the classification labels carried by partners.
type LabelSource interface {
	ClassificationLabels(ctx context.Context) ([]partners.LabelCount, error)
}

// Service implements classification use cases.
type Service struct {
	repo      Repository
	labels    LabelSource
	validator *validate.Validator
}

// NewService constructs a classification service.
func NewService(repo Repository, labels LabelSource, v *validate.Validator) *Service {
	return &Service{repo: repo, labels: labels, validator: v}
}

// List returns stored classifications ordered by name, optionally filtered
// by a name or label substring.
func (s *Service) List(ctx context.Context, search string) ([]Classification, error) {
	items, err := s.repo.FindAll(ctx, repository.ListOptions{
		Where:   query.New().AddSearchCondition(search, "name", "label"),
		OrderBy: "name ASC",
	})
	if err != nil {
		return nil, fmt.Errorf("list classifications: %w", err)
	}
	if items == nil {
		items = []Classification{}
	}
	return items, nil
}

// Search returns at most limit stored classifications matching term.
func (s *Service) Search(ctx context.Context, term string, limit int) ([]Classification, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []Classification{}, nil
	}
	items, err := s.repo.FindAll(ctx, repository.ListOptions{
		Where:   query.New().AddSearchCondition(term, "name", "label"),
		OrderBy: "name ASC",
		Limit:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("search classifications: %w", err)
	}
	if items == nil {
		items = []Classification{}
	}
	return items, nil
}

// Derived folds partner labels by Key. The first spelling seen, which is
// the most used one, names the entry.
func (s *Service) Derived(ctx context.Context, search string) ([]Derived, error) {
	counts, err := s.labels.ClassificationLabels(ctx)
	if err != nil {
		return nil, fmt.Errorf("derive classifications: %w", err)
	}
	needle := Key(search)

	index := make(map[string]int)
	out := []Derived{}
	for _, lc := range counts {
		key := Key(lc.Label)
		if key == "" {
			continue
		}
		if needle != "" && !strings.Contains(key, needle) {
			continue
		}
		if i, ok := index[key]; ok {
			out[i].PartnerCount += lc.Count
			continue
		}
		index[key] = len(out)
		out = append(out, Derived{ID: key, Name: lc.Label, Label: lc.Label, PartnerCount: lc.Count})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PartnerCount != out[j].PartnerCount {
			return out[i].PartnerCount > out[j].PartnerCount
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Get returns a stored classification.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Classification, error) {
	return s.repo.FindByID(ctx, id)
}

// Create stores a classification unless one with exactly the same name
// exists.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Classification, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Label != nil {
		label := strings.TrimSpace(*req.Label)
		req.Label = &label
		if label == "" {
			req.Label = nil
		}
	}
	if err := s.validator.Struct(&req); err != nil {
		return Classification{}, err
	}

	_, err := s.repo.FindByName(ctx, req.Name)
	switch {
	case err == nil:
		return Classification{}, errDuplicate
	case !errors.Is(err, httpx.ErrNotFound):
		return Classification{}, fmt.Errorf("check classification: %w", err)
	}

	c, err := s.repo.Create(ctx, req)
	if err != nil {
		return Classification{}, fmt.Errorf("create classification: %w", err)
	}
	return c, nil
}

// UpdateLabel changes the display label.
func (s *Service) UpdateLabel(ctx context.Context, id uuid.UUID, req UpdateRequest) (Classification, error) {
	req.Label.String = strings.TrimSpace(req.Label.String)
	if !req.Label.Valid || req.Label.String == "" {
		return Classification{}, httpx.NewValidationError(map[string]string{"label": "label est requis"})
	}
	if err := s.validator.Struct(&req); err != nil {
		return Classification{}, err
	}
	return s.repo.Update(ctx, id, req)
}

// Delete removes a classification no partner is linked to.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	n, err := s.repo.UsageCount(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return httpx.BadRequest(fmt.Sprintf("Classification utilisée par %d partenaire(s)", n))
	}
	return s.repo.Delete(ctx, id)
}

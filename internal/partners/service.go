package partners

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/bondly/bondly/internal/platform/httpx"
	"github.com/bondly/bondly/internal/platform/repository"
	"github.com/bondly/bondly/internal/platform/validate"
	"github.com/bondly/bondly/internal/query"
	"github.com/bondly/bondly/internal/shared"
)

// searchColumns are matched by the free-text search.
var searchColumns = []string{
	"p.first_name",
	"p.last_name",
	"(p.first_name || ' ' || p.last_name)",
	"p.email",
	"p.company",
	"p.profession",
}

var sortColumns = map[string]string{
	"firstName": "p.first_name",
	"lastName":  "p.last_name",
	"company":   "p.company",
	"rating":    "p.rating",
	"createdAt": "p.created_at",
	"updatedAt": "p.updated_at",
}

// ChangeListener is told when partner data changes so derived views can be
// refreshed.
type ChangeListener interface {
	PartnersChanged(ctx context.Context)
}

// Service implements partner use cases.
type Service struct {
	repo      Repository
	validator *validate.Validator
	listeners []ChangeListener
	limits    shared.Limits
	logger    *slog.Logger
}

// Option customises a Service.
type Option func(*Service)

// WithLimits overrides the pagination bounds.
func WithLimits(l shared.Limits) Option {
	return func(s *Service) { s.limits = l }
}

// WithListener registers a ChangeListener. Listeners run in registration order.
func WithListener(l ChangeListener) Option {
	return func(s *Service) {
		if l != nil {
			s.listeners = append(s.listeners, l)
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService constructs a partner service.
func NewService(repo Repository, v *validate.Validator, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		validator: v,
		limits:    shared.DefaultLimits,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Limits returns the pagination bounds in effect.
func (s *Service) Limits() shared.Limits {
	return s.limits
}

// List returns one page of partners matching f.
func (s *Service) List(ctx context.Context, f ListFilter) (shared.Page[Partner], error) {
	page, err := f.Page.Check(s.limits)
	if err != nil {
		return shared.Page[Partner]{}, err
	}
	orderBy, err := orderClause(f.SortBy, f.SortOrder)
	if err != nil {
		return shared.Page[Partner]{}, err
	}
	where, err := filterBuilder(f)
	if err != nil {
		return shared.Page[Partner]{}, err
	}

	total, err := s.repo.Count(ctx, where.BuildWhereClause(), where.Values())
	if err != nil {
		return shared.Page[Partner]{}, fmt.Errorf("count partners: %w", err)
	}
	items, err := s.repo.FindAll(ctx, repository.ListOptions{
		Where:   where,
		OrderBy: orderBy,
		Limit:   page.Limit,
		Offset:  page.Offset(),
	})
	if err != nil {
		return shared.Page[Partner]{}, fmt.Errorf("list partners: %w", err)
	}
	return shared.NewPage(items, page, total), nil
}

// Get returns a partner by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Partner, error) {
	return s.repo.FindByID(ctx, id)
}

// Create validates req and stores a new partner.
func (s *Service) Create(ctx context.Context, req CreatePartnerRequest) (Partner, error) {
	if err := s.validateCreate(&req); err != nil {
		return Partner{}, err
	}
	p, err := s.repo.Create(ctx, req)
	if err != nil {
		return Partner{}, fmt.Errorf("create partner: %w", err)
	}
	s.logger.Info("partner created", slog.String("id", p.ID.String()), slog.String("name", p.FullName()))
	s.changed(ctx)
	return p, nil
}

// Update applies the present fields of req. An empty request returns the
// partner unchanged.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdatePartnerRequest) (Partner, error) {
	if err := s.validateUpdate(&req); err != nil {
		return Partner{}, err
	}
	if req.Empty() {
		return s.repo.FindByID(ctx, id)
	}
	p, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return Partner{}, fmt.Errorf("update partner: %w", err)
	}
	s.changed(ctx)
	return p, nil
}

// Archive soft-deletes a partner.
func (s *Service) Archive(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("archive partner: %w", err)
	}
	s.logger.Info("partner archived", slog.String("id", id.String()))
	s.changed(ctx)
	return nil
}

// Search returns up to limit partners whose name, email, company or
// profession contains term, best rated first.
func (s *Service) Search(ctx context.Context, term string, limit int) ([]Partner, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []Partner{}, nil
	}
	if limit <= 0 || limit > s.limits.Max {
		limit = s.limits.Default
	}
	items, err := s.repo.FindAll(ctx, repository.ListOptions{
		Where:   query.New().AddSearchCondition(term, searchColumns...),
		OrderBy: "p.rating DESC NULLS LAST, p.last_name ASC",
		Limit:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("search partners: %w", err)
	}
	if items == nil {
		items = []Partner{}
	}
	return items, nil
}

// ClassificationLabels returns the labels used by non-archived partners,
// most used first.
func (s *Service) ClassificationLabels(ctx context.Context) ([]LabelCount, error) {
	labels, err := s.repo.ClassificationLabels(ctx)
	if err != nil {
		return nil, fmt.Errorf("partner classifications: %w", err)
	}
	return labels, nil
}

func (s *Service) changed(ctx context.Context) {
	for _, l := range s.listeners {
		l.PartnersChanged(ctx)
	}
}

func filterBuilder(f ListFilter) (*query.Builder, error) {
	status := strings.TrimSpace(f.Status)
	if status != "" && !Status(status).Valid() {
		return nil, httpx.BadRequest("Statut invalide: " + status)
	}
	return query.New().
		AddSearchCondition(f.Search, searchColumns...).
		AddEqualCondition("p.status", status).
		AddClassificationCondition("p.id", f.Classification).
		AddLikeCondition("p.profession", f.Job), nil
}

func orderClause(sortBy, sortOrder string) (string, error) {
	if sortBy == "" {
		sortBy = "createdAt"
	}
	column, ok := sortColumns[sortBy]
	if !ok {
		return "", httpx.BadRequest("Champ de tri invalide: " + sortBy)
	}
	dir := "DESC"
	switch strings.ToLower(sortOrder) {
	case "", "desc":
	case "asc":
		dir = "ASC"
	default:
		return "", httpx.BadRequest("Ordre de tri invalide: " + sortOrder)
	}
	return column + " " + dir + " NULLS LAST, p.id " + dir, nil
}

// Package dashboard computes the aggregate statistics shown on the home
// screen. Aggregates are cached in Redis and invalidated on partner writes.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bondly/bondly/internal/classifications"
	"github.com/bondly/bondly/internal/partners"
	"github.com/bondly/bondly/internal/platform/cache"
	"github.com/bondly/bondly/internal/platform/repository"
	"github.com/bondly/bondly/internal/query"
)

const (
	recentWindow = 30 * 24 * time.Hour

	DefaultRecentLimit = 5
	DefaultTopLimit    = 10
	maxLimit           = 50
)

// PartnerLister loads partner pages.
type PartnerLister interface {
	FindAll(ctx context.Context, opts repository.ListOptions) ([]partners.Partner, error)
}

// DerivedSource lists classifications derived from partner labels.
type DerivedSource interface {
	Derived(ctx context.Context, search string) ([]classifications.Derived, error)
}

type Service struct {
	repo     Repository
	partners PartnerLister
	derived  DerivedSource
	cache    *cache.Versioned
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, p PartnerLister, derived DerivedSource, c *cache.Versioned, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		partners: p,
		derived:  derived,
		cache:    c,
		logger:   logger,
		now:      time.Now,
	}
}

// Stats returns the directory summary.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return cached(ctx, s, "stats", s.computeStats)
}

func (s *Service) computeStats(ctx context.Context) (Stats, error) {
	var (
		stats    Stats
		byStatus map[string]int
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		byStatus, err = s.repo.CountByStatus(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.AverageRating, err = s.repo.AverageActiveRating(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.Classifications, err = s.repo.CountClassifications(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.RecentlyAdded, err = s.repo.CountCreatedSince(ctx, s.now().Add(-recentWindow))
		return err
	})
	if err := g.Wait(); err != nil {
		return Stats{}, fmt.Errorf("dashboard stats: %w", err)
	}

	for status, n := range byStatus {
		stats.TotalPartners += n
		switch partners.Status(status) {
		case partners.StatusActive:
			stats.ActivePartners = n
		case partners.StatusArchived:
			stats.ArchivedPartners = n
		case partners.StatusBlacklisted:
			stats.BlacklistedPartners = n
		}
	}
	return stats, nil
}

// Recent returns the most recently created partners that are not archived.
// It is not cached.
func (s *Service) Recent(ctx context.Context, limit int) ([]partners.Partner, error) {
	items, err := s.partners.FindAll(ctx, repository.ListOptions{
		Where:   query.New().AddNotEqualCondition("p.status", string(partners.StatusArchived)),
		OrderBy: "p.created_at DESC, p.id DESC",
		Limit:   clamp(limit, DefaultRecentLimit),
	})
	if err != nil {
		return nil, fmt.Errorf("dashboard recent: %w", err)
	}
	if items == nil {
		items = []partners.Partner{}
	}
	return items, nil
}

// Ratings returns one bucket per rating from 1 to 5.
func (s *Service) Ratings(ctx context.Context) ([]RatingBucket, error) {
	return cached(ctx, s, "ratings", s.repo.RatingDistribution)
}

// Professions returns the most common professions among active partners.
func (s *Service) Professions(ctx context.Context, limit int) ([]ProfessionCount, error) {
	limit = clamp(limit, DefaultTopLimit)
	return cached(ctx, s, "professions:"+strconv.Itoa(limit), func(ctx context.Context) ([]ProfessionCount, error) {
		return s.repo.TopProfessions(ctx, limit)
	})
}

// Classifications returns the most used derived classifications.
func (s *Service) Classifications(ctx context.Context, limit int) ([]classifications.Derived, error) {
	limit = clamp(limit, DefaultTopLimit)
	return cached(ctx, s, "classifications:"+strconv.Itoa(limit), func(ctx context.Context) ([]classifications.Derived, error) {
		all, err := s.derived.Derived(ctx, "")
		if err != nil {
			return nil, err
		}
		if len(all) > limit {
			all = all[:limit]
		}
		return all, nil
	})
}

// PartnersChanged invalidates every cached aggregate.
func (s *Service) PartnersChanged(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("dashboard cache bump failed", slog.Any("error", err))
	}
}

// Warm computes the cached aggregates with default limits.
func (s *Service) Warm(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { _, err := s.Stats(ctx); return err })
	g.Go(func() error { _, err := s.Ratings(ctx); return err })
	g.Go(func() error { _, err := s.Professions(ctx, DefaultTopLimit); return err })
	g.Go(func() error { _, err := s.Classifications(ctx, DefaultTopLimit); return err })
	return g.Wait()
}

func cached[T any](ctx context.Context, s *Service, name string, loader func(context.Context) (T, error)) (T, error) {
	var out T
	key, err := s.cache.BuildKey(ctx, name)
	if err != nil {
		s.logger.Warn("dashboard cache unavailable", slog.String("key", name), slog.Any("error", err))
		return loader(ctx)
	}
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		return loader(ctx)
	})
	return out, err
}

func clamp(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

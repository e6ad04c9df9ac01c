package dashboard

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bondly/bondly/internal/platform/repository"
)

// Repository runs the aggregate queries behind the dashboard.
type Repository interface {
	CountByStatus(ctx context.Context) (map[string]int, error)
	AverageActiveRating(ctx context.Context) (float64, error)
	CountClassifications(ctx context.Context) (int, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)
	RatingDistribution(ctx context.Context) ([]RatingBucket, error)
	TopProfessions(ctx context.Context, limit int) ([]ProfessionCount, error)
}

type pgRepository struct {
	partners        repository.Base
	classifications repository.Base
}

// NewRepository returns a PostgreSQL-backed Repository.
func NewRepository(conn repository.DBTX) Repository {
	return &pgRepository{
		partners:        repository.NewBase(conn, "partners"),
		classifications: repository.NewBase(conn, "classifications"),
	}
}

func (r *pgRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.partners.ExecuteQuery(ctx, "SELECT status, COUNT(*) FROM partners GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("dashboard: scan status: %w", err)
		}
		out[status] = n
	}
	return out, rows.Err()
}

func (r *pgRepository) AverageActiveRating(ctx context.Context) (float64, error) {
	var avg *float64
	err := r.partners.DB.QueryRow(ctx,
		"SELECT AVG(rating)::float8 FROM partners WHERE status = 'active' AND rating IS NOT NULL").Scan(&avg)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("dashboard: average rating: %w", err)
	}
	if avg == nil {
		return 0, nil
	}
	return math.Round(*avg*100) / 100, nil
}

func (r *pgRepository) CountClassifications(ctx context.Context) (int, error) {
	return r.classifications.Count(ctx, "", nil)
}

func (r *pgRepository) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	return r.partners.Count(ctx, "WHERE created_at >= $1", []any{since})
}

func (r *pgRepository) RatingDistribution(ctx context.Context) ([]RatingBucket, error) {
	rows, err := r.partners.ExecuteQuery(ctx, `
		SELECT rating, COUNT(*) FROM partners
		WHERE status = 'active' AND rating BETWEEN 1 AND 5
		GROUP BY rating`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	buckets := make([]RatingBucket, 5)
	for i := range buckets {
		buckets[i].Rating = i + 1
	}
	for rows.Next() {
		var rating, n int
		if err := rows.Scan(&rating, &n); err != nil {
			return nil, fmt.Errorf("dashboard: scan rating: %w", err)
		}
		if rating >= 1 && rating <= 5 {
			buckets[rating-1].Count = n
		}
	}
	return buckets, rows.Err()
}

func (r *pgRepository) TopProfessions(ctx context.Context, limit int) ([]ProfessionCount, error) {
	rows, err := r.partners.ExecuteQuery(ctx, `
		SELECT profession, COUNT(*) FROM partners
		WHERE status = 'active' AND profession IS NOT NULL AND profession <> ''
		GROUP BY profession
		ORDER BY COUNT(*) DESC, profession
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ProfessionCount{}
	for rows.Next() {
		var pc ProfessionCount
		if err := rows.Scan(&pc.Profession, &pc.Count); err != nil {
			return nil, fmt.Errorf("dashboard: scan profession: %w", err)
		}
		out = append(out, pc)
	}
	return out, rows.Err()
}

package classifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bondly/bondly/internal/platform/db"
	"github.com/bondly/bondly/internal/platform/httpx"
	"github.com/bondly/bondly/internal/platform/repository"
)

const columns = "id, name, label, created_at"

var (
	errNotFound  = httpx.NotFound("Classification non trouvée")
	errDuplicate = httpx.Duplicate("Une classification avec ce nom existe déjà")
)

// Repository stores classifications in the classifications table.
type Repository interface {
	repository.Repository[Classification, CreateRequest, UpdateRequest]
	FindByName(ctx context.Context, name string) (Classification, error)
	UsageCount(ctx context.Context, id uuid.UUID) (int, error)
}

type pgRepository struct {
	repository.Base
}

// NewRepository returns a PostgreSQL-backed Repository.
func NewRepository(conn repository.DBTX) Repository {
	return &pgRepository{Base: repository.NewBase(conn, "classifications")}
}

func (r *pgRepository) FindByID(ctx context.Context, id uuid.UUID) (Classification, error) {
	c, err := scanClassification(r.DB.QueryRow(ctx, "SELECT "+columns+" FROM classifications WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Classification{}, errNotFound
		}
		return Classification{}, fmt.Errorf("classifications: find %s: %w", id, err)
	}
	return c, nil
}

// FindByName matches name exactly, case included.
func (r *pgRepository) FindByName(ctx context.Context, name string) (Classification, error) {
	c, err := scanClassification(r.DB.QueryRow(ctx, "SELECT "+columns+" FROM classifications WHERE name = $1", name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Classification{}, errNotFound
		}
		return Classification{}, fmt.Errorf("classifications: find %q: %w", name, err)
	}
	return c, nil
}

func (r *pgRepository) FindAll(ctx context.Context, opts repository.ListOptions) ([]Classification, error) {
	sql, args := r.SelectPage(columns, opts)
	rows, err := r.ExecuteQuery(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Classification
	for rows.Next() {
		c, err := scanClassification(rows)
		if err != nil {
			return nil, fmt.Errorf("classifications: scan: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *pgRepository) Create(ctx context.Context, in CreateRequest) (Classification, error) {
	label := in.Name
	if in.Label != nil {
		label = *in.Label
	}
	c, err := scanClassification(r.DB.QueryRow(ctx,
		"INSERT INTO classifications (id, name, label, created_at) VALUES ($1, $2, $3, NOW()) RETURNING "+columns,
		uuid.New(), in.Name, label))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Classification{}, errDuplicate
		}
		return Classification{}, fmt.Errorf("classifications: insert: %w", err)
	}
	return c, nil
}

func (r *pgRepository) Update(ctx context.Context, id uuid.UUID, in UpdateRequest) (Classification, error) {
	c, err := scanClassification(r.DB.QueryRow(ctx,
		"UPDATE classifications SET label = $1 WHERE id = $2 RETURNING "+columns, in.Label.String, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Classification{}, errNotFound
		}
		return Classification{}, fmt.Errorf("classifications: update %s: %w", id, err)
	}
	return c, nil
}

func (r *pgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, "DELETE FROM classifications WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("classifications: delete %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return errNotFound
	}
	return nil
}

// UsageCount returns how many partners are linked to the classification.
func (r *pgRepository) UsageCount(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, "SELECT COUNT(*) FROM partner_classifications WHERE classification_id = $1", id).Scan(&n)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("classifications: usage %s: %w", id, err)
	}
	return n, nil
}

func scanClassification(row pgx.Row) (Classification, error) {
	var c Classification
	err := row.Scan(&c.ID, &c.Name, &c.Label, &c.CreatedAt)
	return c, err
}

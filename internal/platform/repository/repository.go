// Package repository defines the CRUD contract shared by the table-backed
// repositories and the Base helper they embed.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bondly/bondly/internal/query"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository is the CRUD capability every entity repository provides.
// T is the stored entity, C the create input and U the update input.
type Repository[T, C, U any] interface {
	FindByID(ctx context.Context, id uuid.UUID) (T, error)
	FindAll(ctx context.Context, opts ListOptions) ([]T, error)
	Create(ctx context.Context, input C) (T, error)
	Update(ctx context.Context, id uuid.UUID, input U) (T, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context, where string, args []any) (int, error)
}

// ListOptions selects one page of rows.
type ListOptions struct {
	Where   *query.Builder
	OrderBy string
	Limit   int
	Offset  int
}

// Base carries the table name and connection shared by concrete
// repositories. Table may include an alias, e.g. "partners p".
type Base struct {
	DB    DBTX
	Table string
}

// NewBase returns a Base bound to table.
func NewBase(db DBTX, table string) Base {
	return Base{DB: db, Table: table}
}

// Count runs SELECT COUNT(*) with the given WHERE clause. It returns 0 when
// nothing matches.
func (b Base) Count(ctx context.Context, where string, args []any) (int, error) {
	sql := "SELECT COUNT(*) FROM " + b.Table
	if where = strings.TrimSpace(where); where != "" {
		sql += " " + where
	}
	var total int
	if err := b.DB.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("repository: count %s: %w", b.Table, err)
	}
	return total, nil
}

// ExecuteQuery runs a custom parameterized query.
func (b Base) ExecuteQuery(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	rows, err := b.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: query %s: %w", b.Table, err)
	}
	return rows, nil
}

// SelectPage renders "SELECT columns FROM table WHERE ... ORDER BY ...
// LIMIT $n OFFSET $m". The caller's builder is left untouched.
func (b Base) SelectPage(columns string, opts ListOptions) (string, []any) {
	where := opts.Where.Clone()

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(columns)
	sb.WriteString(" FROM ")
	sb.WriteString(b.Table)
	if clause := where.BuildWhereClause(); clause != "" {
		sb.WriteString(" ")
		sb.WriteString(clause)
	}
	if opts.OrderBy != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(opts.OrderBy)
	}
	if opts.Limit > 0 {
		offset := opts.Offset
		if offset < 0 {
			offset = 0
		}
		ph := where.AddValues(opts.Limit, offset)
		sb.WriteString(" LIMIT ")
		sb.WriteString(ph[0])
		sb.WriteString(" OFFSET ")
		sb.WriteString(ph[1])
	}
	return sb.String(), where.Values()
}

// Package dbtest provides an in-memory stand-in for repository.DBTX so that
// repositories can be exercised without PostgreSQL.
package dbtest

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Call records one statement sent to the fake.
type Call struct {
	SQL  string
	Args []any
}

// DB records statements and answers them from the configured funcs. A nil
// func answers with no rows.
type DB struct {
	mu    sync.Mutex
	calls []Call

	QueryFunc    func(sql string, args []any) ([][]any, error)
	QueryRowFunc func(sql string, args []any) ([]any, error)
	ExecFunc     func(sql string, args []any) (string, error)

	Commits   int
	Rollbacks int
}

// Calls returns the recorded statements.
func (d *DB) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Call(nil), d.calls...)
}

func (d *DB) record(sql string, args []any) {
	d.mu.Lock()
	d.calls = append(d.calls, Call{SQL: sql, Args: append([]any(nil), args...)})
	d.mu.Unlock()
}

// Exec implements repository.DBTX.
func (d *DB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	d.record(sql, args)
	if d.ExecFunc == nil {
		return pgconn.NewCommandTag("UPDATE 1"), nil
	}
	tag, err := d.ExecFunc(sql, args)
	return pgconn.NewCommandTag(tag), err
}

// Query implements repository.DBTX.
func (d *DB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	d.record(sql, args)
	if d.QueryFunc == nil {
		return &Rows{}, nil
	}
	data, err := d.QueryFunc(sql, args)
	if err != nil {
		return nil, err
	}
	return &Rows{data: data}, nil
}

// QueryRow implements repository.DBTX.
func (d *DB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	d.record(sql, args)
	if d.QueryRowFunc == nil {
		return Row{err: pgx.ErrNoRows}
	}
	values, err := d.QueryRowFunc(sql, args)
	return Row{values: values, err: err}
}

// Begin returns a transaction that shares this fake.
func (d *DB) Begin(context.Context) (pgx.Tx, error) {
	return &Tx{db: d}, nil
}

// Tx is a pgx.Tx backed by DB. Methods not overridden here panic.
type Tx struct {
	pgx.Tx
	db *DB
}

func (t *Tx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.db.Exec(ctx, sql, args...)
}

func (t *Tx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return t.db.Query(ctx, sql, args...)
}

func (t *Tx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return t.db.QueryRow(ctx, sql, args...)
}

func (t *Tx) Commit(context.Context) error {
	t.db.mu.Lock()
	t.db.Commits++
	t.db.mu.Unlock()
	return nil
}

func (t *Tx) Rollback(context.Context) error {
	t.db.mu.Lock()
	t.db.Rollbacks++
	t.db.mu.Unlock()
	return nil
}

// Row is a single result row.
type Row struct {
	values []any
	err    error
}

// Scan copies the row values into dest.
func (r Row) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(r.values, dest)
}

// Rows iterates over a fixed result set.
type Rows struct {
	data [][]any
	pos  int
	err  error
}

func (r *Rows) Close()                                       {}
func (r *Rows) Err() error                                   { return r.err }
func (r *Rows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *Rows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *Rows) RawValues() [][]byte                          { return nil }
func (r *Rows) Conn() *pgx.Conn                              { return nil }

func (r *Rows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *Rows) Scan(dest ...any) error {
	if r.pos == 0 || r.pos > len(r.data) {
		return errors.New("dbtest: scan called without a current row")
	}
	return assign(r.data[r.pos-1], dest)
}

func (r *Rows) Values() ([]any, error) {
	if r.pos == 0 || r.pos > len(r.data) {
		return nil, errors.New("dbtest: no current row")
	}
	return r.data[r.pos-1], nil
}

func assign(values []any, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("dbtest: %d values for %d destinations", len(values), len(dest))
	}
	for i, v := range values {
		target := reflect.ValueOf(dest[i])
		if target.Kind() != reflect.Pointer || target.IsNil() {
			return fmt.Errorf("dbtest: destination %d is not a pointer", i)
		}
		elem := target.Elem()
		if v == nil {
			elem.Set(reflect.Zero(elem.Type()))
			continue
		}
		src := reflect.ValueOf(v)
		switch {
		case src.Type().AssignableTo(elem.Type()):
			elem.Set(src)
		case src.Type().ConvertibleTo(elem.Type()):
			elem.Set(src.Convert(elem.Type()))
		case elem.Kind() == reflect.Pointer && src.Type().AssignableTo(elem.Type().Elem()):
			ptr := reflect.New(elem.Type().Elem())
			ptr.Elem().Set(src)
			elem.Set(ptr)
		default:
			return fmt.Errorf("dbtest: cannot assign %T to %s", v, elem.Type())
		}
	}
	return nil
}

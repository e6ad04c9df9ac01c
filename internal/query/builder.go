// Package query composes parameterized SQL predicates for list and search
// queries.
//
// A Builder collects WHERE fragments and their positional values. Every
// placeholder is numbered from the shared value list, so values appended
// later with AddValues (LIMIT, OFFSET) keep the numbering consistent.
// Column names are trusted identifiers supplied by repository code; user
// input only ever travels as a positional value.
package query

import (
	"fmt"
	"reflect"
	"strings"
)

// Builder accumulates predicates and positional values.
type Builder struct {
	conditions []string
	values     []any
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern wraps term in % after escaping LIKE wildcards, so user
// input always matches literally.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

// AddSearchCondition matches term against any of the columns with ILIKE.
// All columns share one placeholder bound to "%term%".
func (b *Builder) AddSearchCondition(term string, columns ...string) *Builder {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return b
	}
	placeholder := b.next(containsPattern(term))
	parts := make([]string, len(columns))
	for i, column := range columns {
		parts[i] = fmt.Sprintf(`%s ILIKE %s ESCAPE '\'`, column, placeholder)
	}
	if len(parts) == 1 {
		b.conditions = append(b.conditions, parts[0])
		return b
	}
	b.conditions = append(b.conditions, "("+strings.Join(parts, " OR ")+")")
	return b
}

// AddEqualCondition appends "column = $n" when value is not empty.
func (b *Builder) AddEqualCondition(column string, value any) *Builder {
	value, ok := present(value)
	if !ok {
		return b
	}
	b.conditions = append(b.conditions, fmt.Sprintf("%s = %s", column, b.next(value)))
	return b
}

// AddNotEqualCondition appends "column <> $n" when value is not empty.
func (b *Builder) AddNotEqualCondition(column string, value any) *Builder {
	value, ok := present(value)
	if !ok {
		return b
	}
	b.conditions = append(b.conditions, fmt.Sprintf("%s <> %s", column, b.next(value)))
	return b
}

// AddLikeCondition appends a case-insensitive substring match on column.
func (b *Builder) AddLikeCondition(column, value string) *Builder {
	value = strings.TrimSpace(value)
	if value == "" {
		return b
	}
	b.conditions = append(b.conditions, fmt.Sprintf(`%s ILIKE %s ESCAPE '\'`, column, b.next(containsPattern(value))))
	return b
}

// AddClassificationCondition keeps rows linked to a classification with the
// given name, compared case-insensitively. ownerColumn is the partner id
// column of the outer query, e.g. "p.id".
func (b *Builder) AddClassificationCondition(ownerColumn, name string) *Builder {
	name = strings.TrimSpace(name)
	if name == "" || ownerColumn == "" {
		return b
	}
	b.conditions = append(b.conditions, fmt.Sprintf(
		"EXISTS (SELECT 1 FROM partner_classifications pc JOIN classifications c ON c.id = pc.classification_id WHERE pc.partner_id = %s AND LOWER(c.name) = LOWER(%s))",
		ownerColumn, b.next(name),
	))
	return b
}

// BuildWhereClause renders the accumulated predicates joined with AND. It
// returns an empty string when no predicate was added.
func (b *Builder) BuildWhereClause() string {
	if len(b.conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(b.conditions, " AND ")
}

// Values returns a copy of the positional values in placeholder order.
func (b *Builder) Values() []any {
	out := make([]any, len(b.values))
	copy(out, b.values)
	return out
}

// AddValues appends values after the predicate values and returns their
// placeholders in the same order.
func (b *Builder) AddValues(values ...any) []string {
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = b.next(v)
	}
	return placeholders
}

func (b *Builder) next(value any) string {
	b.values = append(b.values, value)
	return fmt.Sprintf("$%d", len(b.values))
}

// present dereferences pointers and reports whether value carries data.
// nil, nil pointers, blank strings and zero values are all empty.
func present(value any) (any, bool) {
	if value == nil {
		return nil, false
	}
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.String {
		s := strings.TrimSpace(rv.String())
		if s == "" {
			return nil, false
		}
		return s, true
	}
	if rv.IsZero() {
		return nil, false
	}
	return rv.Interface(), true
}

// Clone returns an independent copy of the builder.
func (b *Builder) Clone() *Builder {
	if b == nil {
		return New()
	}
	return &Builder{
		conditions: append([]string(nil), b.conditions...),
		values:     append([]any(nil), b.values...),
	}
}

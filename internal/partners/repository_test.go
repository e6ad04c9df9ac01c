package partners

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/guregu/null/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bondly/bondly/internal/platform/httpx"
	"github.com/bondly/bondly/internal/platform/repository"
	"github.com/bondly/bondly/internal/platform/repository/dbtest"
	"github.com/bondly/bondly/internal/query"
)

func partnerRow(id uuid.UUID, labels string) []any {
	ts := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	return []any{
		id, "Jeanne", "Dupont", "jeanne@acme.fr", nil, "Acme", nil,
		4, "active", []byte(labels), nil, nil, ts, ts,
	}
}

func TestRepositoryFindByID(t *testing.T) {
	id := uuid.New()
	fake := &dbtest.DB{QueryRowFunc: func(sql string, args []any) ([]any, error) {
		return partnerRow(id, `["VIP","Fournisseur"]`), nil
	}}
	repo := NewRepository(fake)

	p, err := repo.FindByID(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, id, p.ID)
	require.NotNil(t, p.Company)
	assert.Equal(t, "Acme", *p.Company)
	assert.Nil(t, p.Phone)
	require.NotNil(t, p.Rating)
	assert.Equal(t, 4, *p.Rating)
	assert.Equal(t, StatusActive, p.Status)
	assert.Equal(t, []string{"VIP", "Fournisseur"}, p.Classifications)
	assert.Equal(t, []any{id}, fake.Calls()[0].Args)
}

func TestRepositoryFindByIDNotFound(t *testing.T) {
	repo := NewRepository(&dbtest.DB{})

	_, err := repo.FindByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestRepositoryFindAllAppliesFilters(t *testing.T) {
	fake := &dbtest.DB{QueryFunc: func(sql string, args []any) ([][]any, error) {
		return [][]any{partnerRow(uuid.New(), `[]`), partnerRow(uuid.New(), ``)}, nil
	}}
	repo := NewRepository(fake)

	items, err := repo.FindAll(context.Background(), repository.ListOptions{
		Where:   query.New().AddClassificationCondition("p.id", "VIP"),
		OrderBy: "p.created_at DESC",
		Limit:   10,
		Offset:  20,
	})

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, []string{}, items[1].Classifications)
	call := fake.Calls()[0]
	assert.True(t, strings.HasPrefix(call.SQL, "SELECT p.id, p.first_name"))
	assert.Contains(t, call.SQL, "FROM partners p WHERE EXISTS (")
	assert.True(t, strings.HasSuffix(call.SQL, "ORDER BY p.created_at DESC LIMIT $2 OFFSET $3"))
	assert.Equal(t, []any{"VIP", 10, 20}, call.Args)
}

func TestRepositoryCreateSyncsClassificationsInTransaction(t *testing.T) {
	var inserted uuid.UUID
	fake := &dbtest.DB{QueryRowFunc: func(sql string, args []any) ([]any, error) {
		inserted = args[0].(uuid.UUID)
		return partnerRow(inserted, `["VIP"]`), nil
	}}
	repo := NewRepository(fake)

	p, err := repo.Create(context.Background(), CreatePartnerRequest{
		FirstName:       "Jeanne",
		LastName:        "Dupont",
		Email:           "jeanne@acme.fr",
		Status:          StatusActive,
		Classifications: []string{"VIP"},
	})

	require.NoError(t, err)
	assert.Equal(t, inserted, p.ID)
	assert.Equal(t, 1, fake.Commits)
	calls := fake.Calls()
	require.Len(t, calls, 3)
	assert.Contains(t, calls[0].SQL, "INSERT INTO partners")
	assert.Equal(t, []byte(`["VIP"]`), calls[0].Args[9])
	assert.Contains(t, calls[1].SQL, "DELETE FROM partner_classifications")
	assert.Contains(t, calls[2].SQL, "INSERT INTO partner_classifications")
	assert.Equal(t, []any{inserted, []string{"VIP"}}, calls[2].Args)
}

func TestRepositoryCreateRollsBackOnFailure(t *testing.T) {
	boom := errors.New("duplicate key")
	fake := &dbtest.DB{QueryRowFunc: func(string, []any) ([]any, error) { return nil, boom }}
	repo := NewRepository(fake)

	_, err := repo.Create(context.Background(), CreatePartnerRequest{FirstName: "A", LastName: "B", Email: "a@b.fr"})

	assert.ErrorIs(t, err, boom)
	assert.Zero(t, fake.Commits)
	assert.Equal(t, 1, fake.Rollbacks)
	assert.Len(t, fake.Calls(), 1)
}

func TestRepositoryUpdateBuildsPartialSet(t *testing.T) {
	id := uuid.New()
	fake := &dbtest.DB{QueryRowFunc: func(sql string, args []any) ([]any, error) {
		return partnerRow(id, `[]`), nil
	}}
	repo := NewRepository(fake)

	_, err := repo.Update(context.Background(), id, UpdatePartnerRequest{
		FirstName: null.StringFrom("Jeanne"),
		Company:   null.StringFrom(""),
		Rating:    null.IntFrom(3),
	})

	require.NoError(t, err)
	calls := fake.Calls()
	require.Len(t, calls, 1, "classifications untouched, no sync")
	assert.True(t, strings.HasPrefix(calls[0].SQL,
		"UPDATE partners SET first_name = $1, company = $2, rating = $3, updated_at = NOW() WHERE id = $4 RETURNING "))
	assert.Equal(t, []any{"Jeanne", nil, int64(3), id}, calls[0].Args)
	assert.Equal(t, 1, fake.Commits)
}

func TestRepositoryUpdateReplacesClassifications(t *testing.T) {
	id := uuid.New()
	fake := &dbtest.DB{QueryRowFunc: func(sql string, args []any) ([]any, error) {
		return partnerRow(id, `[]`), nil
	}}
	repo := NewRepository(fake)
	labels := []string{}

	_, err := repo.Update(context.Background(), id, UpdatePartnerRequest{Classifications: &labels})

	require.NoError(t, err)
	calls := fake.Calls()
	require.Len(t, calls, 2)
	assert.Contains(t, calls[0].SQL, "classifications = $1")
	assert.Contains(t, calls[1].SQL, "DELETE FROM partner_classifications")
}

func TestRepositoryUpdateNotFound(t *testing.T) {
	fake := &dbtest.DB{}
	repo := NewRepository(fake)

	_, err := repo.Update(context.Background(), uuid.New(), UpdatePartnerRequest{LastName: null.StringFrom("X")})

	assert.ErrorIs(t, err, httpx.ErrNotFound)
	assert.Zero(t, fake.Commits)
}

func TestRepositoryDeleteArchives(t *testing.T) {
	id := uuid.New()
	fake := &dbtest.DB{}
	repo := NewRepository(fake)

	require.NoError(t, repo.Delete(context.Background(), id))
	call := fake.Calls()[0]
	assert.Contains(t, call.SQL, "UPDATE partners SET status = $1")
	assert.Equal(t, []any{"archived", id}, call.Args)

	fake.ExecFunc = func(string, []any) (string, error) { return "UPDATE 0", nil }
	assert.ErrorIs(t, repo.Delete(context.Background(), id), httpx.ErrNotFound)
}

func TestRepositoryClassificationLabels(t *testing.T) {
	fake := &dbtest.DB{QueryFunc: func(string, []any) ([][]any, error) {
		return [][]any{{"VIP", 3}, {"Fournisseur", 1}}, nil
	}}
	repo := NewRepository(fake)

	labels, err := repo.ClassificationLabels(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []LabelCount{{Label: "VIP", Count: 3}, {Label: "Fournisseur", Count: 1}}, labels)
	assert.Contains(t, fake.Calls()[0].SQL, "jsonb_array_elements_text")
}

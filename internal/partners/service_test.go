package partners

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/guregu/null/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bondly/bondly/internal/platform/httpx"
	"github.com/bondly/bondly/internal/platform/repository"
	"github.com/bondly/bondly/internal/platform/validate"
	"github.com/bondly/bondly/internal/shared"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	mu       sync.Mutex
	partners map[uuid.UUID]Partner
	labels   []LabelCount

	lastOpts  repository.ListOptions
	lastWhere string
	lastArgs  []any
	updates   int
	finds     int

	countErr  error
	findErr   error
	createErr error
}

func newMockRepository(seed ...Partner) *mockRepository {
	m := &mockRepository{partners: make(map[uuid.UUID]Partner)}
	for _, p := range seed {
		m.partners[p.ID] = p
	}
	return m
}

func (m *mockRepository) FindByID(_ context.Context, id uuid.UUID) (Partner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finds++
	p, ok := m.partners[id]
	if !ok {
		return Partner{}, errNotFound
	}
	return p, nil
}

func (m *mockRepository) FindAll(_ context.Context, opts repository.ListOptions) ([]Partner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastOpts = opts
	if m.findErr != nil {
		return nil, m.findErr
	}
	var out []Partner
	for _, p := range m.partners {
		out = append(out, p)
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *mockRepository) Create(_ context.Context, in CreatePartnerRequest) (Partner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return Partner{}, m.createErr
	}
	now := time.Now().UTC()
	p := Partner{
		ID:              uuid.New(),
		FirstName:       in.FirstName,
		LastName:        in.LastName,
		Email:           in.Email,
		Phone:           in.Phone,
		Company:         in.Company,
		Profession:      in.Profession,
		Rating:          in.Rating,
		Status:          in.Status,
		Classifications: in.Classifications,
		Notes:           in.Notes,
		RelationHistory: in.RelationHistory,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if p.Classifications == nil {
		p.Classifications = []string{}
	}
	m.partners[p.ID] = p
	return p, nil
}

func (m *mockRepository) Update(_ context.Context, id uuid.UUID, in UpdatePartnerRequest) (Partner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.partners[id]
	if !ok {
		return Partner{}, errNotFound
	}
	m.updates++
	if in.FirstName.Valid {
		p.FirstName = in.FirstName.String
	}
	if in.LastName.Valid {
		p.LastName = in.LastName.String
	}
	if in.Email.Valid {
		p.Email = in.Email.String
	}
	if in.Company.Valid {
		p.Company = in.Company.Ptr()
		if in.Company.String == "" {
			p.Company = nil
		}
	}
	if in.Rating.Valid {
		r := int(in.Rating.Int64)
		p.Rating = &r
	}
	if in.Status.Valid {
		p.Status = Status(in.Status.String)
	}
	if in.Classifications != nil {
		p.Classifications = *in.Classifications
	}
	p.UpdatedAt = time.Now().UTC()
	m.partners[id] = p
	return p, nil
}

func (m *mockRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.partners[id]
	if !ok {
		return errNotFound
	}
	p.Status = StatusArchived
	m.partners[id] = p
	return nil
}

func (m *mockRepository) Count(_ context.Context, where string, args []any) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastWhere = where
	m.lastArgs = args
	if m.countErr != nil {
		return 0, m.countErr
	}
	return len(m.partners), nil
}

func (m *mockRepository) ClassificationLabels(context.Context) ([]LabelCount, error) {
	return m.labels, nil
}

type recordingListener struct {
	mu    sync.Mutex
	calls int
}

func (l *recordingListener) PartnersChanged(context.Context) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
}

func (l *recordingListener) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func samplePartner() Partner {
	rating := 4
	company := "Acme"
	return Partner{
		ID:              uuid.New(),
		FirstName:       "Jeanne",
		LastName:        "Dupont",
		Email:           "jeanne@acme.fr",
		Company:         &company,
		Rating:          &rating,
		Status:          StatusActive,
		Classifications: []string{"Fournisseur"},
		CreatedAt:       time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		UpdatedAt:       time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func newTestService(repo Repository, opts ...Option) *Service {
	return NewService(repo, validate.New(), opts...)
}

func validationFields(t *testing.T, err error) map[string]string {
	t.Helper()
	require.ErrorIs(t, err, httpx.ErrValidation)
	var verr *httpx.ValidationError
	require.True(t, errors.As(err, &verr))
	return verr.Fields
}

// ============================================================================
// CREATE
// ============================================================================

func TestCreateRequiresIdentityFields(t *testing.T) {
	svc := newTestService(newMockRepository())

	_, err := svc.Create(context.Background(), CreatePartnerRequest{})

	fields := validationFields(t, err)
	assert.Contains(t, fields, "firstName")
	assert.Contains(t, fields, "lastName")
	assert.Contains(t, fields, "email")
}

func TestCreateRejectsBadFormats(t *testing.T) {
	rating := 6
	phone := "not a phone"
	svc := newTestService(newMockRepository())

	_, err := svc.Create(context.Background(), CreatePartnerRequest{
		FirstName:       "Jeanne",
		LastName:        "Dupont",
		Email:           "jeanne-at-acme",
		Phone:           &phone,
		Rating:          &rating,
		Status:          "unknown",
		Classifications: []string{"VIP", "   "},
	})

	fields := validationFields(t, err)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "phone")
	assert.Contains(t, fields, "rating")
	assert.Contains(t, fields, "status")
	assert.Contains(t, fields, "classifications[1]")
}

func TestCreateNormalizesInput(t *testing.T) {
	repo := newMockRepository()
	listener := &recordingListener{}
	svc := newTestService(repo, WithListener(listener))
	blank := "   "

	p, err := svc.Create(context.Background(), CreatePartnerRequest{
		FirstName:       "  Jeanne ",
		LastName:        "Dupont",
		Email:           " Jeanne@Acme.FR ",
		Company:         &blank,
		Classifications: []string{" VIP ", "VIP", "Fournisseur"},
	})

	require.NoError(t, err)
	assert.Equal(t, "Jeanne", p.FirstName)
	assert.Equal(t, "jeanne@acme.fr", p.Email)
	assert.Nil(t, p.Company)
	assert.Equal(t, StatusActive, p.Status)
	assert.Equal(t, []string{"VIP", "Fournisseur"}, p.Classifications)
	assert.Equal(t, 1, listener.count())
}

func TestCreateWrapsRepositoryFailure(t *testing.T) {
	repo := newMockRepository()
	repo.createErr = errors.New("connection refused")
	listener := &recordingListener{}
	svc := newTestService(repo, WithListener(listener))

	_, err := svc.Create(context.Background(), CreatePartnerRequest{FirstName: "A", LastName: "B", Email: "a@b.fr"})

	require.Error(t, err)
	assert.NotErrorIs(t, err, httpx.ErrValidation)
	assert.Zero(t, listener.count())
}

// ============================================================================
// UPDATE / ARCHIVE
// ============================================================================

func TestUpdateAppliesOnlyPresentFields(t *testing.T) {
	existing := samplePartner()
	repo := newMockRepository(existing)
	listener := &recordingListener{}
	svc := newTestService(repo, WithListener(listener))

	p, err := svc.Update(context.Background(), existing.ID, UpdatePartnerRequest{
		Rating:  null.IntFrom(2),
		Company: null.StringFrom(""),
	})

	require.NoError(t, err)
	assert.Equal(t, "Jeanne", p.FirstName)
	require.NotNil(t, p.Rating)
	assert.Equal(t, 2, *p.Rating)
	assert.Nil(t, p.Company)
	assert.Equal(t, 1, listener.count())
}

func TestUpdateRejectsClearingRequiredFields(t *testing.T) {
	existing := samplePartner()
	svc := newTestService(newMockRepository(existing))

	_, err := svc.Update(context.Background(), existing.ID, UpdatePartnerRequest{
		FirstName: null.StringFrom("  "),
		Rating:    null.IntFrom(0),
		Status:    null.StringFrom("deleted"),
	})

	fields := validationFields(t, err)
	assert.Equal(t, "firstName est requis", fields["firstName"])
	assert.Contains(t, fields, "rating")
	assert.Contains(t, fields, "status")
}

func TestUpdateWithoutChangesSkipsWrite(t *testing.T) {
	existing := samplePartner()
	repo := newMockRepository(existing)
	listener := &recordingListener{}
	svc := newTestService(repo, WithListener(listener))

	p, err := svc.Update(context.Background(), existing.ID, UpdatePartnerRequest{})

	require.NoError(t, err)
	assert.Equal(t, existing.ID, p.ID)
	assert.Zero(t, repo.updates)
	assert.Zero(t, listener.count())
}

func TestUpdateMissingPartner(t *testing.T) {
	svc := newTestService(newMockRepository())

	_, err := svc.Update(context.Background(), uuid.New(), UpdatePartnerRequest{LastName: null.StringFrom("Martin")})

	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestArchiveSetsStatus(t *testing.T) {
	existing := samplePartner()
	repo := newMockRepository(existing)
	listener := &recordingListener{}
	svc := newTestService(repo, WithListener(listener))

	require.NoError(t, svc.Archive(context.Background(), existing.ID))

	got, err := svc.Get(context.Background(), existing.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusArchived, got.Status)
	assert.Equal(t, 1, listener.count())

	assert.ErrorIs(t, svc.Archive(context.Background(), uuid.New()), httpx.ErrNotFound)
}

// ============================================================================
// LIST / SEARCH
// ============================================================================

func TestListBuildsFiltersAndMeta(t *testing.T) {
	repo := newMockRepository(samplePartner(), samplePartner(), samplePartner())
	svc := newTestService(repo)

	page, err := svc.List(context.Background(), ListFilter{
		Status:    "active",
		Job:       "archi",
		SortBy:    "lastName",
		SortOrder: "asc",
		Page:      shared.PageRequest{Page: 1, Limit: 2},
	})

	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, 3, page.Meta.Total)
	assert.Equal(t, 2, page.Meta.TotalPages)
	assert.True(t, page.Meta.HasNext)
	assert.Equal(t, "WHERE p.status = $1 AND p.profession ILIKE $2 ESCAPE '\\'", repo.lastWhere)
	assert.Equal(t, []any{"active", "%archi%"}, repo.lastArgs)
	assert.Equal(t, "p.last_name ASC NULLS LAST, p.id ASC", repo.lastOpts.OrderBy)
	assert.Equal(t, 2, repo.lastOpts.Limit)
	assert.Equal(t, 0, repo.lastOpts.Offset)
}

func TestListDefaultsToNewestFirst(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	page, err := svc.List(context.Background(), ListFilter{})

	require.NoError(t, err)
	assert.NotNil(t, page.Data)
	assert.Equal(t, "", repo.lastWhere)
	assert.Equal(t, "p.created_at DESC NULLS LAST, p.id DESC", repo.lastOpts.OrderBy)
	assert.Equal(t, shared.DefaultLimits.Default, page.Meta.Limit)
}

func TestListRejectsInvalidFilters(t *testing.T) {
	svc := newTestService(newMockRepository())
	cases := map[string]ListFilter{
		"status":     {Status: "deleted"},
		"sort field": {SortBy: "password"},
		"sort order": {SortOrder: "sideways"},
		"limit":      {Page: shared.PageRequest{Page: 1, Limit: 500}},
	}
	for name, f := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.List(context.Background(), f)
			assert.ErrorIs(t, err, httpx.ErrBadRequest)
		})
	}
}

func TestListPropagatesCountFailure(t *testing.T) {
	repo := newMockRepository()
	repo.countErr = errors.New("timeout")
	svc := newTestService(repo)

	_, err := svc.List(context.Background(), ListFilter{})

	assert.ErrorIs(t, err, repo.countErr)
}

func TestSearchUsesSharedPlaceholder(t *testing.T) {
	repo := newMockRepository(samplePartner())
	svc := newTestService(repo)

	got, err := svc.Search(context.Background(), "  dup ", 5)

	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 5, repo.lastOpts.Limit)
	assert.Equal(t, []any{"%dup%"}, repo.lastOpts.Where.Values())

	empty, err := svc.Search(context.Background(), " ", 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestArchiveNotifiesEveryListener(t *testing.T) {
	existing := samplePartner()
	repo := newMockRepository(existing)
	first, second := &recordingListener{}, &recordingListener{}
	svc := newTestService(repo, WithListener(first), WithListener(nil), WithListener(second))

	require.NoError(t, svc.Archive(context.Background(), existing.ID))

	assert.Equal(t, 1, first.count())
	assert.Equal(t, 1, second.count())
}

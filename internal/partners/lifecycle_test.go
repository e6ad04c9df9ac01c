package partners

import (
	"context"
	"testing"

	"github.com/guregu/null/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/bondly/bondly/internal/platform/httpx"
	"github.com/bondly/bondly/internal/shared"
)

// PartnerLifecycleSuite walks one partner from creation to archive.
type PartnerLifecycleSuite struct {
	suite.Suite
	repo     *mockRepository
	listener *recordingListener
	service  *Service
	ctx      context.Context
}

func (s *PartnerLifecycleSuite) SetupTest() {
	s.repo = newMockRepository()
	s.listener = &recordingListener{}
	s.service = newTestService(s.repo, WithListener(s.listener))
	s.ctx = context.Background()
}

func (s *PartnerLifecycleSuite) TestCreateUpdateArchive() {
	t := s.T()

	created, err := s.service.Create(s.ctx, CreatePartnerRequest{
		FirstName:       "Jeanne",
		LastName:        "Dupont",
		Email:           "jeanne@acme.fr",
		Profession:      ptr("architecte"),
		Classifications: []string{"VIP"},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusActive, created.Status)

	updated, err := s.service.Update(s.ctx, created.ID, UpdatePartnerRequest{
		Rating:  null.IntFrom(4),
		Company: null.StringFrom("Atelier Dupont"),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Rating)
	assert.Equal(t, 4, *updated.Rating)
	assert.Equal(t, "Atelier Dupont", *updated.Company)
	assert.Equal(t, "Jeanne", updated.FirstName)

	require.NoError(t, s.service.Archive(s.ctx, created.ID))

	archived, err := s.service.Get(s.ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusArchived, archived.Status)

	page, err := s.service.List(s.ctx, ListFilter{Status: "archived", Page: shared.PageRequest{Page: 1, Limit: 10}})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Meta.Total)
	assert.Contains(t, s.repo.lastArgs, "archived")

	assert.Equal(t, 3, s.listener.count())
}

func (s *PartnerLifecycleSuite) TestArchiveTwiceStillSucceeds() {
	created, err := s.service.Create(s.ctx, CreatePartnerRequest{FirstName: "A", LastName: "B", Email: "a@b.fr"})
	s.Require().NoError(err)

	s.Require().NoError(s.service.Archive(s.ctx, created.ID))
	s.NoError(s.service.Archive(s.ctx, created.ID))
}

func (s *PartnerLifecycleSuite) TestMissingPartner() {
	created, err := s.service.Create(s.ctx, CreatePartnerRequest{FirstName: "A", LastName: "B", Email: "a@b.fr"})
	s.Require().NoError(err)
	delete(s.repo.partners, created.ID)

	_, err = s.service.Update(s.ctx, created.ID, UpdatePartnerRequest{Rating: null.IntFrom(2)})
	s.ErrorIs(err, httpx.ErrNotFound)
	s.ErrorIs(s.service.Archive(s.ctx, created.ID), httpx.ErrNotFound)
}

func TestPartnerLifecycleSuite(t *testing.T) {
	suite.Run(t, new(PartnerLifecycleSuite))
}

func ptr[T any](v T) *T {
	return &v
}

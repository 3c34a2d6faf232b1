package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"docuflow/internal/requirement/models"
	"docuflow/internal/requirement/store"
	id "docuflow/pkg/domain"
	dErrors "docuflow/pkg/domain-errors"
	"docuflow/pkg/platform/sentinel"
)

type InMemorySuite struct {
	suite.Suite
	ctx   context.Context
	store *store.InMemory
	now   time.Time
}

func TestInMemorySuite(t *testing.T) {
	suite.Run(t, new(InMemorySuite))
}

func (s *InMemorySuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewInMemory()
	s.now = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
}

func (s *InMemorySuite) newRequirement(clientID id.ClientID, due time.Time) *models.Requirement {
	req, err := models.NewRequirement(id.NewRequirementID(), clientID, id.NewDocumentTypeID(), due, s.now)
	s.Require().NoError(err)
	return req
}

func (s *InMemorySuite) TestCreateAndFind() {
	clientID := id.NewClientID()
	req := s.newRequirement(clientID, s.now.AddDate(0, 1, 0))
	s.Require().NoError(s.store.Create(s.ctx, req))

	found, err := s.store.FindByID(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(req.ID, found.ID)
	s.Equal(models.StatusPending, found.Status)
}

func (s *InMemorySuite) TestCreateDuplicateConflicts() {
	req := s.newRequirement(id.NewClientID(), s.now.AddDate(0, 1, 0))
	s.Require().NoError(s.store.Create(s.ctx, req))
	s.ErrorIs(s.store.Create(s.ctx, req), sentinel.ErrConflict)
}

func (s *InMemorySuite) TestFindMissing() {
	_, err := s.store.FindByID(s.ctx, id.NewRequirementID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemorySuite) TestUpdateMissing() {
	req := s.newRequirement(id.NewClientID(), s.now.AddDate(0, 1, 0))
	s.ErrorIs(s.store.Update(s.ctx, req), sentinel.ErrNotFound)
}

func (s *InMemorySuite) TestStoredCopyIsIsolated() {
	req := s.newRequirement(id.NewClientID(), s.now.AddDate(0, 1, 0))
	s.Require().NoError(s.store.Create(s.ctx, req))

	// Mutating the caller's copy must not leak into the store.
	req.Status = models.StatusCancelled
	found, err := s.store.FindByID(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, found.Status)

	// And mutating a returned copy must not either.
	found.Status = models.StatusCompleted
	again, err := s.store.FindByID(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, again.Status)
}

func (s *InMemorySuite) TestListByClientOrdering() {
	clientID := id.NewClientID()
	late := s.newRequirement(clientID, s.now.AddDate(0, 2, 0))
	early := s.newRequirement(clientID, s.now.AddDate(0, 0, 3))
	other := s.newRequirement(id.NewClientID(), s.now.AddDate(0, 0, 1))
	for _, req := range []*models.Requirement{late, early, other} {
		s.Require().NoError(s.store.Create(s.ctx, req))
	}

	listed, err := s.store.ListByClient(s.ctx, clientID)
	s.Require().NoError(err)
	s.Require().Len(listed, 2)
	s.Equal(early.ID, listed[0].ID)
	s.Equal(late.ID, listed[1].ID)
}

func (s *InMemorySuite) TestListByClientTiesBreakOnCreatedThenID() {
	clientID := id.NewClientID()
	due := s.now.AddDate(0, 1, 0)

	first := s.newRequirement(clientID, due)
	second, err := models.NewRequirement(id.NewRequirementID(), clientID, id.NewDocumentTypeID(), due, s.now.Add(time.Minute))
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, second))
	s.Require().NoError(s.store.Create(s.ctx, first))

	listed, err := s.store.ListByClient(s.ctx, clientID)
	s.Require().NoError(err)
	s.Require().Len(listed, 2)
	s.Equal(first.ID, listed[0].ID)
	s.Equal(second.ID, listed[1].ID)
}

func (s *InMemorySuite) TestListOpenByClientExcludesTerminal() {
	clientID := id.NewClientID()
	open := s.newRequirement(clientID, s.now.AddDate(0, 1, 0))
	done := s.newRequirement(clientID, s.now.AddDate(0, 1, 0))
	s.Require().NoError(done.MarkCompleted(s.now))
	cancelled := s.newRequirement(clientID, s.now.AddDate(0, 1, 0))
	s.Require().NoError(cancelled.Cancel(s.now))
	for _, req := range []*models.Requirement{open, done, cancelled} {
		s.Require().NoError(s.store.Create(s.ctx, req))
	}

	listed, err := s.store.ListOpenByClient(s.ctx, clientID)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(open.ID, listed[0].ID)
}

func (s *InMemorySuite) TestListDueBefore() {
	clientID := id.NewClientID()
	overdue := s.newRequirement(clientID, s.now.AddDate(0, 0, 2))
	dueLater := s.newRequirement(clientID, s.now.AddDate(0, 1, 0))
	completed := s.newRequirement(clientID, s.now.AddDate(0, 0, 1))
	s.Require().NoError(completed.MarkCompleted(s.now))
	for _, req := range []*models.Requirement{overdue, dueLater, completed} {
		s.Require().NoError(s.store.Create(s.ctx, req))
	}

	listed, err := s.store.ListDueBefore(s.ctx, s.now.AddDate(0, 0, 5))
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(overdue.ID, listed[0].ID)
}

func (s *InMemorySuite) TestListDueBeforeExcludesSameDay() {
	clientID := id.NewClientID()
	dueToday := s.newRequirement(clientID, s.now.AddDate(0, 0, 5))
	s.Require().NoError(s.store.Create(s.ctx, dueToday))

	listed, err := s.store.ListDueBefore(s.ctx, s.now.AddDate(0, 0, 5))
	s.Require().NoError(err)
	s.Empty(listed)
}

func (s *InMemorySuite) TestExecuteAppliesMutation() {
	req := s.newRequirement(id.NewClientID(), s.now.AddDate(0, 1, 0))
	s.Require().NoError(s.store.Create(s.ctx, req))

	updated, err := s.store.Execute(s.ctx, req.ID,
		func(r *models.Requirement) error { return nil },
		func(r *models.Requirement) { _ = r.MarkValidated(s.now) },
	)
	s.Require().NoError(err)
	s.Equal(models.StatusValidated, updated.Status)

	found, err := s.store.FindByID(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusValidated, found.Status)
}

func (s *InMemorySuite) TestExecuteValidationFailureLeavesStateUntouched() {
	req := s.newRequirement(id.NewClientID(), s.now.AddDate(0, 1, 0))
	s.Require().NoError(s.store.Create(s.ctx, req))

	_, err := s.store.Execute(s.ctx, req.ID,
		func(r *models.Requirement) error {
			return dErrors.New(dErrors.CodeInvalidTransition, "nope")
		},
		func(r *models.Requirement) { _ = r.MarkCompleted(s.now) },
	)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

	found, err := s.store.FindByID(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, found.Status)
}

func (s *InMemorySuite) TestExecuteMissing() {
	_, err := s.store.Execute(s.ctx, id.NewRequirementID(),
		func(r *models.Requirement) error { return nil },
		func(r *models.Requirement) {},
	)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

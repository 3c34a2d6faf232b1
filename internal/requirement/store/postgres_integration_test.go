//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"docuflow/internal/requirement/models"
	"docuflow/internal/requirement/store"
	id "docuflow/pkg/domain"
	dErrors "docuflow/pkg/domain-errors"
	"docuflow/pkg/platform/sentinel"
	"docuflow/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres  *containers.PostgresContainer
	store     *store.Postgres
	clientID  id.ClientID
	docTypeID id.DocumentTypeID
	now       time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	// Truncate in dependency order
	err := s.postgres.TruncateTables(ctx, "requirements", "document_types", "clients")
	s.Require().NoError(err)

	s.now = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	s.clientID = id.NewClientID()
	s.docTypeID = id.NewDocumentTypeID()

	_, err = s.postgres.DB.ExecContext(ctx,
		`INSERT INTO clients (id, name, compliance_email, status, created_at, updated_at)
		 VALUES ($1, $2, $3, 'active', $4, $4)`,
		uuid.UUID(s.clientID), "Acme Corp", "compliance-"+uuid.NewString()+"@acme.test", s.now)
	s.Require().NoError(err)

	_, err = s.postgres.DB.ExecContext(ctx,
		`INSERT INTO document_types (id, name, frequency, created_at, updated_at)
		 VALUES ($1, $2, 'monthly', $3, $3)`,
		uuid.UUID(s.docTypeID), "Payroll Report "+uuid.NewString(), s.now)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newRequirement(due time.Time) *models.Requirement {
	req, err := models.NewRequirement(id.NewRequirementID(), s.clientID, s.docTypeID, due, s.now)
	s.Require().NoError(err)
	return req
}

func (s *PostgresStoreSuite) TestCreateAndFindRoundTrip() {
	ctx := context.Background()
	req := s.newRequirement(s.now.AddDate(0, 1, 0))
	s.Require().NoError(s.store.Create(ctx, req))

	found, err := s.store.FindByID(ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(req.ID, found.ID)
	s.Equal(req.ClientID, found.ClientID)
	s.Equal(req.DocumentTypeID, found.DocumentTypeID)
	s.Equal(models.StatusPending, found.Status)
	s.True(req.DueDate.Equal(found.DueDate))
	s.Empty(found.BlobID)
	s.Nil(found.UploadedAt)
}

func (s *PostgresStoreSuite) TestAttachmentFieldsRoundTrip() {
	ctx := context.Background()
	req := s.newRequirement(s.now.AddDate(0, 1, 0))
	s.Require().NoError(req.AttachDocument("acme/"+req.ID.String()+"/report.pdf", s.now))
	s.Require().NoError(s.store.Create(ctx, req))

	found, err := s.store.FindByID(ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusReceived, found.Status)
	s.Equal(req.BlobID, found.BlobID)
	s.Require().NotNil(found.UploadedAt)
	s.True(req.UploadedAt.Equal(*found.UploadedAt))
}

func (s *PostgresStoreSuite) TestFindMissing() {
	_, err := s.store.FindByID(context.Background(), id.NewRequirementID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpdateMissing() {
	req := s.newRequirement(s.now.AddDate(0, 1, 0))
	s.ErrorIs(s.store.Update(context.Background(), req), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListByClientOrdering() {
	ctx := context.Background()
	late := s.newRequirement(s.now.AddDate(0, 2, 0))
	early := s.newRequirement(s.now.AddDate(0, 0, 3))
	s.Require().NoError(s.store.Create(ctx, late))
	s.Require().NoError(s.store.Create(ctx, early))

	listed, err := s.store.ListByClient(ctx, s.clientID)
	s.Require().NoError(err)
	s.Require().Len(listed, 2)
	s.Equal(early.ID, listed[0].ID)
	s.Equal(late.ID, listed[1].ID)
}

func (s *PostgresStoreSuite) TestListOpenByClientExcludesTerminal() {
	ctx := context.Background()
	open := s.newRequirement(s.now.AddDate(0, 1, 0))
	done := s.newRequirement(s.now.AddDate(0, 1, 0))
	s.Require().NoError(done.MarkCompleted(s.now))
	cancelled := s.newRequirement(s.now.AddDate(0, 1, 0))
	s.Require().NoError(cancelled.Cancel(s.now))
	for _, req := range []*models.Requirement{open, done, cancelled} {
		s.Require().NoError(s.store.Create(ctx, req))
	}

	listed, err := s.store.ListOpenByClient(ctx, s.clientID)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(open.ID, listed[0].ID)
}

func (s *PostgresStoreSuite) TestListDueBeforeStrictCutoff() {
	ctx := context.Background()
	before := s.newRequirement(s.now.AddDate(0, 0, 2))
	onCutoff := s.newRequirement(s.now.AddDate(0, 0, 5))
	s.Require().NoError(s.store.Create(ctx, before))
	s.Require().NoError(s.store.Create(ctx, onCutoff))

	listed, err := s.store.ListDueBefore(ctx, s.now.AddDate(0, 0, 5))
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(before.ID, listed[0].ID)
}

func (s *PostgresStoreSuite) TestExecuteAppliesMutation() {
	ctx := context.Background()
	req := s.newRequirement(s.now.AddDate(0, 1, 0))
	s.Require().NoError(s.store.Create(ctx, req))

	updated, err := s.store.Execute(ctx, req.ID,
		func(r *models.Requirement) error { return nil },
		func(r *models.Requirement) { _ = r.AttachDocument("blob-1", s.now) },
	)
	s.Require().NoError(err)
	s.Equal(models.StatusReceived, updated.Status)

	found, err := s.store.FindByID(ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusReceived, found.Status)
	s.Equal("blob-1", found.BlobID)
}

func (s *PostgresStoreSuite) TestExecuteValidationFailureRollsBack() {
	ctx := context.Background()
	req := s.newRequirement(s.now.AddDate(0, 1, 0))
	s.Require().NoError(s.store.Create(ctx, req))

	_, err := s.store.Execute(ctx, req.ID,
		func(r *models.Requirement) error {
			return dErrors.New(dErrors.CodeInvalidTransition, "rejected")
		},
		func(r *models.Requirement) { _ = r.MarkCompleted(s.now) },
	)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

	found, err := s.store.FindByID(ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, found.Status)
}

// TestConcurrentExecuteSerializes verifies that the FOR UPDATE lock makes
// concurrent attach attempts against one requirement apply one at a time.
func (s *PostgresStoreSuite) TestConcurrentExecuteSerializes() {
	ctx := context.Background()
	req := s.newRequirement(s.now.AddDate(0, 1, 0))
	s.Require().NoError(s.store.Create(ctx, req))

	const goroutines = 20
	var wg sync.WaitGroup
	var failures atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, err := s.store.Execute(ctx, req.ID,
				func(r *models.Requirement) error { return nil },
				func(r *models.Requirement) {
					_ = r.AttachDocument("blob", s.now.Add(time.Duration(idx)*time.Millisecond))
				},
			)
			if err != nil {
				failures.Add(1)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(0), failures.Load(), "all executes should succeed")

	found, err := s.store.FindByID(ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusReceived, found.Status)
	s.Equal("blob", found.BlobID)
}

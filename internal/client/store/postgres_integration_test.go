//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"docuflow/internal/client/models"
	"docuflow/internal/client/store"
	id "docuflow/pkg/domain"
	"docuflow/pkg/platform/sentinel"
	"docuflow/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
	now      time.Time
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
	err := s.postgres.TruncateTables(ctx, "requirements", "clients")
	s.Require().NoError(err)
	s.now = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
}

func (s *PostgresStoreSuite) newClient(name, complianceEmail string, contacts ...string) *models.Client {
	client, err := models.NewClient(id.NewClientID(), name, complianceEmail, contacts, s.now)
	s.Require().NoError(err)
	return client
}

func (s *PostgresStoreSuite) TestCreateAndFindRoundTrip() {
	ctx := context.Background()
	client := s.newClient("Acme Corp", "compliance@acme.test", "reports@acme.test", "hr@acme.test")
	s.Require().NoError(s.store.CreateIfEmailAvailable(ctx, client))

	found, err := s.store.FindByID(ctx, client.ID)
	s.Require().NoError(err)
	s.Equal(client.ID, found.ID)
	s.Equal(client.Name, found.Name)
	s.Equal(client.ComplianceEmail, found.ComplianceEmail)
	s.Equal(client.ContactEmails, found.ContactEmails)
	s.Equal(models.ClientStatusActive, found.Status)
}

// TestConcurrentCreateSameComplianceEmail verifies the unique index lets
// exactly one of many racing creates through.
func (s *PostgresStoreSuite) TestConcurrentCreateSameComplianceEmail() {
	ctx := context.Background()
	email := "compliance-" + uuid.NewString() + "@acme.test"
	const goroutines = 30

	clients := make([]*models.Client, goroutines)
	for i := range clients {
		clients[i] = s.newClient("Acme Corp", email)
	}

	var wg sync.WaitGroup
	var successes, conflicts atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(client *models.Client) {
			defer wg.Done()
			err := s.store.CreateIfEmailAvailable(ctx, client)
			if err == nil {
				successes.Add(1)
			} else if errors.Is(err, sentinel.ErrAlreadyUsed) {
				conflicts.Add(1)
			}
		}(clients[i])
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load(), "exactly one create should succeed")
	s.Equal(int32(goroutines-1), conflicts.Load())
}

func (s *PostgresStoreSuite) TestComplianceEmailCaseInsensitiveUniqueness() {
	ctx := context.Background()
	first := s.newClient("Acme Corp", "compliance@acme.test")
	s.Require().NoError(s.store.CreateIfEmailAvailable(ctx, first))

	second := s.newClient("Other Corp", "COMPLIANCE@ACME.TEST")
	s.ErrorIs(s.store.CreateIfEmailAvailable(ctx, second), sentinel.ErrAlreadyUsed)
}

func (s *PostgresStoreSuite) TestFindByContactEmailCaseInsensitive() {
	ctx := context.Background()
	client := s.newClient("Acme Corp", "compliance@acme.test", "reports@acme.test")
	s.Require().NoError(s.store.CreateIfEmailAvailable(ctx, client))

	found, err := s.store.FindByContactEmail(ctx, "REPORTS@ACME.TEST")
	s.Require().NoError(err)
	s.Equal(client.ID, found.ID)

	_, err = s.store.FindByContactEmail(ctx, "stranger@elsewhere.test")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpdatePersistsContactChanges() {
	ctx := context.Background()
	client := s.newClient("Acme Corp", "compliance@acme.test", "reports@acme.test")
	s.Require().NoError(s.store.CreateIfEmailAvailable(ctx, client))

	s.Require().NoError(client.AddContactEmail("payroll@acme.test", s.now.Add(time.Hour)))
	client.Deactivate(s.now.Add(time.Hour))
	s.Require().NoError(s.store.Update(ctx, client))

	found, err := s.store.FindByID(ctx, client.ID)
	s.Require().NoError(err)
	s.Equal(models.ClientStatusInactive, found.Status)
	s.Contains(found.ContactEmails, "payroll@acme.test")
}

func (s *PostgresStoreSuite) TestUpdateMissing() {
	client := s.newClient("Ghost Corp", "ghost@nowhere.test")
	s.ErrorIs(s.store.Update(context.Background(), client), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListOrderedByName() {
	ctx := context.Background()
	zeta := s.newClient("Zeta Ltd", "compliance@zeta.test")
	acme := s.newClient("Acme Corp", "compliance@acme.test")
	s.Require().NoError(s.store.CreateIfEmailAvailable(ctx, zeta))
	s.Require().NoError(s.store.CreateIfEmailAvailable(ctx, acme))

	listed, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(listed, 2)
	s.Equal("Acme Corp", listed[0].Name)
	s.Equal("Zeta Ltd", listed[1].Name)
}

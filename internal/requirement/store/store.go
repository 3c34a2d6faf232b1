// Package store persists requirements. Implementations are interface-driven
// so services and the processing worker stay testable against the in-memory
// variant while production runs on Postgres.
package store

import (
	"context"
	"time"

	"docuflow/internal/requirement/models"
	id "docuflow/pkg/domain"
)

// Store is the persistence contract for requirements.
//
// Update is a plain last-writer-wins row update; there is no optimistic
// concurrency token. Two worker instances matching attachments to the same
// requirement can race, which the pipeline accepts. Execute is the hook to
// grow a conditional write under if that ever changes.
type Store interface {
	Create(ctx context.Context, req *models.Requirement) error
	FindByID(ctx context.Context, reqID id.RequirementID) (*models.Requirement, error)
	Update(ctx context.Context, req *models.Requirement) error

	// ListByClient returns all requirements for a client, ordered by due
	// date ascending, then creation time, then id.
	ListByClient(ctx context.Context, clientID id.ClientID) ([]*models.Requirement, error)

	// ListOpenByClient returns the client's requirements whose status is not
	// terminal, in the same deterministic order.
	ListOpenByClient(ctx context.Context, clientID id.ClientID) ([]*models.Requirement, error)

	// ListDueBefore returns non-terminal requirements with a due date
	// strictly before the given date. Input for the overdue sweep.
	ListDueBefore(ctx context.Context, date time.Time) ([]*models.Requirement, error)

	// Execute atomically loads, validates, and mutates one requirement
	// while holding the store's lock (mutex or FOR UPDATE).
	Execute(ctx context.Context, reqID id.RequirementID, validate func(*models.Requirement) error, mutate func(*models.Requirement)) (*models.Requirement, error)
}

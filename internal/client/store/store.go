// Package store persists clients and resolves inbound senders to them.
package store

import (
	"context"

	"docuflow/internal/client/models"
	id "docuflow/pkg/domain"
)

// Store is the persistence contract for clients.
type Store interface {
	// CreateIfEmailAvailable inserts the client unless another client
	// already holds the compliance email (case-insensitive). Returns
	// sentinel.ErrAlreadyUsed on conflict.
	CreateIfEmailAvailable(ctx context.Context, client *models.Client) error

	FindByID(ctx context.Context, clientID id.ClientID) (*models.Client, error)

	// FindByContactEmail resolves an inbound sender address to the client
	// that lists it as a contact. Matching is case-insensitive. Returns
	// sentinel.ErrNotFound for unknown senders.
	FindByContactEmail(ctx context.Context, email string) (*models.Client, error)

	Update(ctx context.Context, client *models.Client) error

	// List returns all clients ordered by name, then id.
	List(ctx context.Context) ([]*models.Client, error)
}

// Package store persists document types.
package store

import (
	"context"

	"docuflow/internal/requirement/models"
	id "docuflow/pkg/domain"
)

// Store is the persistence contract for document types.
type Store interface {
	// CreateIfNameAvailable inserts the document type unless another type
	// already holds the name (case-insensitive). Returns
	// sentinel.ErrAlreadyUsed on conflict.
	CreateIfNameAvailable(ctx context.Context, docType *models.DocumentType) error

	FindByID(ctx context.Context, typeID id.DocumentTypeID) (*models.DocumentType, error)
	Update(ctx context.Context, docType *models.DocumentType) error

	// List returns all document types ordered by name, then id.
	List(ctx context.Context) ([]*models.DocumentType, error)
}

// Package service manages the document type catalog.
package service

import (
	"context"
	"errors"

	"docuflow/internal/requirement/models"
	id "docuflow/pkg/domain"
	dErrors "docuflow/pkg/domain-errors"
	"docuflow/pkg/platform/sentinel"
	"docuflow/pkg/requestcontext"
)

type DocumentTypeStore interface {
	CreateIfNameAvailable(ctx context.Context, docType *models.DocumentType) error
	FindByID(ctx context.Context, typeID id.DocumentTypeID) (*models.DocumentType, error)
	Update(ctx context.Context, docType *models.DocumentType) error
	List(ctx context.Context) ([]*models.DocumentType, error)
}

type Service struct {
	types DocumentTypeStore
}

func New(types DocumentTypeStore) *Service {
	return &Service{types: types}
}

func (s *Service) CreateDocumentType(ctx context.Context, name string, frequency models.Frequency, description string) (*models.DocumentType, error) {
	docType, err := models.NewDocumentType(id.NewDocumentTypeID(), name, frequency, description, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.types.CreateIfNameAvailable(ctx, docType); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "document type name must be unique")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create document type")
	}
	return docType, nil
}

func (s *Service) GetDocumentType(ctx context.Context, typeID id.DocumentTypeID) (*models.DocumentType, error) {
	docType, err := s.types.FindByID(ctx, typeID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "document type not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load document type")
	}
	return docType, nil
}

func (s *Service) ListDocumentTypes(ctx context.Context) ([]*models.DocumentType, error) {
	types, err := s.types.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list document types")
	}
	return types, nil
}

// UpdateDocumentType applies any of the optional field updates.
func (s *Service) UpdateDocumentType(ctx context.Context, typeID id.DocumentTypeID, name, description *string, frequency *models.Frequency) (*models.DocumentType, error) {
	docType, err := s.GetDocumentType(ctx, typeID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	if name != nil {
		if err := docType.UpdateName(*name, now); err != nil {
			return nil, err
		}
	}
	if description != nil {
		if err := docType.UpdateDescription(*description, now); err != nil {
			return nil, err
		}
	}
	if frequency != nil {
		if err := docType.UpdateFrequency(*frequency, now); err != nil {
			return nil, err
		}
	}

	if err := s.types.Update(ctx, docType); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "document type name must be unique")
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "document type not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update document type")
	}
	return docType, nil
}

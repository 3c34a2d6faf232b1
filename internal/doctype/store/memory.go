package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"docuflow/internal/requirement/models"
	id "docuflow/pkg/domain"
	"docuflow/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded document type store for tests and development.
type InMemory struct {
	mu    sync.RWMutex
	types map[id.DocumentTypeID]*models.DocumentType
}

func NewInMemory() *InMemory {
	return &InMemory{types: make(map[id.DocumentTypeID]*models.DocumentType)}
}

func (s *InMemory) CreateIfNameAvailable(_ context.Context, docType *models.DocumentType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.types[docType.ID]; exists {
		return sentinel.ErrConflict
	}
	name := strings.ToLower(docType.Name)
	for _, existing := range s.types {
		if strings.ToLower(existing.Name) == name {
			return sentinel.ErrAlreadyUsed
		}
	}
	clone := *docType
	s.types[docType.ID] = &clone
	return nil
}

func (s *InMemory) FindByID(_ context.Context, typeID id.DocumentTypeID) (*models.DocumentType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docType, ok := s.types[typeID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *docType
	return &clone, nil
}

func (s *InMemory) Update(_ context.Context, docType *models.DocumentType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.types[docType.ID]; !ok {
		return sentinel.ErrNotFound
	}
	clone := *docType
	s.types[docType.ID] = &clone
	return nil
}

func (s *InMemory) List(_ context.Context) ([]*models.DocumentType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*models.DocumentType, 0, len(s.types))
	for _, docType := range s.types {
		clone := *docType
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID.String() < result[j].ID.String()
	})
	return result, nil
}

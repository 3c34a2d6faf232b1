package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"docuflow/internal/client/models"
	id "docuflow/pkg/domain"
	"docuflow/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded client store for tests and development.
type InMemory struct {
	mu      sync.RWMutex
	clients map[id.ClientID]*models.Client
}

func NewInMemory() *InMemory {
	return &InMemory{clients: make(map[id.ClientID]*models.Client)}
}

func (s *InMemory) CreateIfEmailAvailable(_ context.Context, client *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.clients[client.ID]; exists {
		return sentinel.ErrConflict
	}
	email := strings.ToLower(client.ComplianceEmail)
	for _, existing := range s.clients {
		if strings.ToLower(existing.ComplianceEmail) == email {
			return sentinel.ErrAlreadyUsed
		}
	}
	s.clients[client.ID] = client.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, clientID id.ClientID) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	client, ok := s.clients[clientID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return client.Clone(), nil
}

func (s *InMemory) FindByContactEmail(_ context.Context, email string) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, client := range s.clients {
		if client.HasContactEmail(email) {
			return client.Clone(), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Update(_ context.Context, client *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[client.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.clients[client.ID] = client.Clone()
	return nil
}

func (s *InMemory) List(_ context.Context) ([]*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*models.Client, 0, len(s.clients))
	for _, client := range s.clients {
		result = append(result, client.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID.String() < result[j].ID.String()
	})
	return result, nil
}

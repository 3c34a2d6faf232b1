package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"docuflow/internal/requirement/models"
	id "docuflow/pkg/domain"
	"docuflow/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded requirement store for tests and development.
type InMemory struct {
	mu           sync.RWMutex
	requirements map[id.RequirementID]*models.Requirement
}

func NewInMemory() *InMemory {
	return &InMemory{requirements: make(map[id.RequirementID]*models.Requirement)}
}

func (s *InMemory) Create(_ context.Context, req *models.Requirement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requirements[req.ID]; exists {
		return sentinel.ErrConflict
	}
	s.requirements[req.ID] = req.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, reqID id.RequirementID) (*models.Requirement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requirements[reqID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return req.Clone(), nil
}

func (s *InMemory) Update(_ context.Context, req *models.Requirement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requirements[req.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.requirements[req.ID] = req.Clone()
	return nil
}

func (s *InMemory) ListByClient(_ context.Context, clientID id.ClientID) ([]*models.Requirement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*models.Requirement
	for _, req := range s.requirements {
		if req.ClientID == clientID {
			result = append(result, req.Clone())
		}
	}
	sortRequirements(result)
	return result, nil
}

func (s *InMemory) ListOpenByClient(_ context.Context, clientID id.ClientID) ([]*models.Requirement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*models.Requirement
	for _, req := range s.requirements {
		if req.ClientID == clientID && req.IsOpen() {
			result = append(result, req.Clone())
		}
	}
	sortRequirements(result)
	return result, nil
}

func (s *InMemory) ListDueBefore(_ context.Context, date time.Time) ([]*models.Requirement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cutoff := models.DateOnly(date)
	var result []*models.Requirement
	for _, req := range s.requirements {
		if req.IsOpen() && req.DueDate.Before(cutoff) {
			result = append(result, req.Clone())
		}
	}
	sortRequirements(result)
	return result, nil
}

func (s *InMemory) Execute(_ context.Context, reqID id.RequirementID, validate func(*models.Requirement) error, mutate func(*models.Requirement)) (*models.Requirement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requirements[reqID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(req); err != nil {
		return nil, err
	}
	mutate(req)
	return req.Clone(), nil
}

// sortRequirements applies the deterministic order the matching policy
// relies on: due date ascending, then creation time, then id.
func sortRequirements(reqs []*models.Requirement) {
	sort.Slice(reqs, func(i, j int) bool {
		if !reqs[i].DueDate.Equal(reqs[j].DueDate) {
			return reqs[i].DueDate.Before(reqs[j].DueDate)
		}
		if !reqs[i].CreatedAt.Equal(reqs[j].CreatedAt) {
			return reqs[i].CreatedAt.Before(reqs[j].CreatedAt)
		}
		return reqs[i].ID.String() < reqs[j].ID.String()
	})
}

// Package service orchestrates the requirement lifecycle: creation against
// active clients, admin transitions, and the overdue sweep.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	clientmodels "docuflow/internal/client/models"
	"docuflow/internal/docstore"
	reqmetrics "docuflow/internal/requirement/metrics"
	"docuflow/internal/requirement/models"
	id "docuflow/pkg/domain"
	dErrors "docuflow/pkg/domain-errors"
	"docuflow/pkg/platform/sentinel"
	"docuflow/pkg/requestcontext"
)

type RequirementStore interface {
	Create(ctx context.Context, req *models.Requirement) error
	FindByID(ctx context.Context, reqID id.RequirementID) (*models.Requirement, error)
	Update(ctx context.Context, req *models.Requirement) error
	ListByClient(ctx context.Context, clientID id.ClientID) ([]*models.Requirement, error)
	ListOpenByClient(ctx context.Context, clientID id.ClientID) ([]*models.Requirement, error)
	ListDueBefore(ctx context.Context, date time.Time) ([]*models.Requirement, error)
	Execute(ctx context.Context, reqID id.RequirementID, validate func(*models.Requirement) error, mutate func(*models.Requirement)) (*models.Requirement, error)
}

type ClientStore interface {
	FindByID(ctx context.Context, clientID id.ClientID) (*clientmodels.Client, error)
}

type DocumentTypeStore interface {
	FindByID(ctx context.Context, typeID id.DocumentTypeID) (*models.DocumentType, error)
}

// Service orchestrates requirement lifecycle management.
type Service struct {
	requirements RequirementStore
	clients      ClientStore
	docTypes     DocumentTypeStore
	storage      docstore.Storage
	logger       *slog.Logger
	metrics      *reqmetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *reqmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithStorage enables document access URLs.
func WithStorage(storage docstore.Storage) Option {
	return func(s *Service) { s.storage = storage }
}

func New(requirements RequirementStore, clients ClientStore, docTypes DocumentTypeStore, opts ...Option) *Service {
	s := &Service{requirements: requirements, clients: clients, docTypes: docTypes}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRequirement opens a new obligation. Only active clients accept new
// requirements; the referenced document type must exist.
func (s *Service) CreateRequirement(ctx context.Context, clientID id.ClientID, docTypeID id.DocumentTypeID, dueDate time.Time) (*models.Requirement, error) {
	client, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "client not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load client")
	}
	if !client.IsActive() {
		return nil, dErrors.New(dErrors.CodeConflict, "client is inactive")
	}
	if _, err := s.docTypes.FindByID(ctx, docTypeID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "document type not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load document type")
	}

	req, err := models.NewRequirement(id.NewRequirementID(), clientID, docTypeID, dueDate, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.requirements.Create(ctx, req); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create requirement")
	}
	if s.metrics != nil {
		s.metrics.RequirementsCreated.Inc()
	}
	return req, nil
}

func (s *Service) GetRequirement(ctx context.Context, reqID id.RequirementID) (*models.Requirement, error) {
	req, err := s.requirements.FindByID(ctx, reqID)
	if err != nil {
		return nil, wrapRequirementErr(err)
	}
	return req, nil
}

func (s *Service) ListByClient(ctx context.Context, clientID id.ClientID) ([]*models.Requirement, error) {
	reqs, err := s.requirements.ListByClient(ctx, clientID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list requirements")
	}
	return reqs, nil
}

func (s *Service) ListOpenByClient(ctx context.Context, clientID id.ClientID) ([]*models.Requirement, error) {
	reqs, err := s.requirements.ListOpenByClient(ctx, clientID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list open requirements")
	}
	return reqs, nil
}

func (s *Service) UpdateDueDate(ctx context.Context, reqID id.RequirementID, newDate time.Time) (*models.Requirement, error) {
	return s.transition(ctx, reqID, func(req *models.Requirement, now time.Time) error {
		return req.UpdateDueDate(newDate, now)
	})
}

func (s *Service) Cancel(ctx context.Context, reqID id.RequirementID) (*models.Requirement, error) {
	return s.transition(ctx, reqID, (*models.Requirement).Cancel)
}

func (s *Service) MarkValidated(ctx context.Context, reqID id.RequirementID) (*models.Requirement, error) {
	return s.transition(ctx, reqID, (*models.Requirement).MarkValidated)
}

func (s *Service) MarkCompleted(ctx context.Context, reqID id.RequirementID) (*models.Requirement, error) {
	return s.transition(ctx, reqID, (*models.Requirement).MarkCompleted)
}

// AttachDocument records a stored blob against the requirement and marks it
// Received. The worker calls this after a successful upload.
func (s *Service) AttachDocument(ctx context.Context, reqID id.RequirementID, blobID string) (*models.Requirement, error) {
	return s.transition(ctx, reqID, func(req *models.Requirement, now time.Time) error {
		return req.AttachDocument(blobID, now)
	})
}

// RemoveDocument clears the stored document and resets the requirement to
// Pending, whatever its current status.
func (s *Service) RemoveDocument(ctx context.Context, reqID id.RequirementID) (*models.Requirement, error) {
	now := requestcontext.Now(ctx)
	req, err := s.requirements.Execute(ctx, reqID,
		func(*models.Requirement) error { return nil },
		func(req *models.Requirement) { req.RemoveDocument(now) },
	)
	if err != nil {
		return nil, wrapRequirementErr(err)
	}
	return req, nil
}

// DocumentURL returns a short-lived access URL for the requirement's stored
// document.
func (s *Service) DocumentURL(ctx context.Context, reqID id.RequirementID) (string, error) {
	if s.storage == nil {
		return "", dErrors.New(dErrors.CodeInternal, "document storage is not configured")
	}
	req, err := s.requirements.FindByID(ctx, reqID)
	if err != nil {
		return "", wrapRequirementErr(err)
	}
	if req.BlobID == "" {
		return "", dErrors.New(dErrors.CodeNotFound, "requirement has no stored document")
	}
	url, err := s.storage.TemporaryURL(ctx, req.BlobID)
	if err != nil {
		return "", err
	}
	return url, nil
}

// SweepOverdue marks every non-terminal requirement whose due date has
// passed as Overdue. Requirements that raced into a terminal state between
// listing and marking are left untouched.
func (s *Service) SweepOverdue(ctx context.Context) (int, error) {
	now := requestcontext.Now(ctx)
	start := time.Now()

	due, err := s.requirements.ListDueBefore(ctx, now)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list due requirements")
	}

	marked := 0
	for _, candidate := range due {
		req, err := s.requirements.Execute(ctx, candidate.ID,
			func(*models.Requirement) error { return nil },
			func(req *models.Requirement) { req.MarkOverdue(now) },
		)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				continue
			}
			return marked, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark requirement overdue")
		}
		if candidate.Status != models.StatusOverdue && req.Status == models.StatusOverdue {
			marked++
		}
	}

	if s.metrics != nil {
		s.metrics.OverdueMarked.Add(float64(marked))
		s.metrics.ObserveSweep(start)
	}
	if s.logger != nil && marked > 0 {
		s.logger.InfoContext(ctx, "overdue sweep complete", "marked", marked, "candidates", len(due))
	}
	return marked, nil
}

func (s *Service) transition(ctx context.Context, reqID id.RequirementID, apply func(*models.Requirement, time.Time) error) (*models.Requirement, error) {
	now := requestcontext.Now(ctx)
	req, err := s.requirements.Execute(ctx, reqID,
		func(req *models.Requirement) error { return apply(req.Clone(), now) },
		func(req *models.Requirement) { _ = apply(req, now) },
	)
	if err != nil {
		return nil, wrapRequirementErr(err)
	}
	return req, nil
}

func wrapRequirementErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "requirement not found")
	}
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "requirement store failure")
}

// Package service orchestrates client lifecycle and sender resolution.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"docuflow/internal/client/models"
	id "docuflow/pkg/domain"
	dErrors "docuflow/pkg/domain-errors"
	"docuflow/pkg/platform/sentinel"
	pstrings "docuflow/pkg/platform/strings"
	"docuflow/pkg/requestcontext"
)

type ClientStore interface {
	CreateIfEmailAvailable(ctx context.Context, client *models.Client) error
	FindByID(ctx context.Context, clientID id.ClientID) (*models.Client, error)
	FindByContactEmail(ctx context.Context, email string) (*models.Client, error)
	Update(ctx context.Context, client *models.Client) error
	List(ctx context.Context) ([]*models.Client, error)
}

// Service orchestrates client management.
type Service struct {
	clients ClientStore
	logger  *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(clients ClientStore, opts ...Option) *Service {
	s := &Service{clients: clients}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateClient registers an organization. The compliance email must be
// unique across clients.
func (s *Service) CreateClient(ctx context.Context, name, complianceEmail string, contactEmails []string) (*models.Client, error) {
	contactEmails = pstrings.DedupeAndTrimLower(contactEmails)
	client, err := models.NewClient(id.NewClientID(), name, complianceEmail, contactEmails, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.clients.CreateIfEmailAvailable(ctx, client); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "compliance email is already in use")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create client")
	}
	return client, nil
}

func (s *Service) GetClient(ctx context.Context, clientID id.ClientID) (*models.Client, error) {
	client, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		return nil, wrapClientErr(err)
	}
	return client, nil
}

func (s *Service) ListClients(ctx context.Context) ([]*models.Client, error) {
	clients, err := s.clients.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list clients")
	}
	return clients, nil
}

// ResolveSender maps an inbound sender address to its client. Unknown
// senders return CodeNotFound; the processing worker treats that as
// skip-and-ack, not a retryable fault.
func (s *Service) ResolveSender(ctx context.Context, email string) (*models.Client, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "sender address is required")
	}
	client, err := s.clients.FindByContactEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "no client for sender %q", email)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve sender")
	}
	return client, nil
}

func (s *Service) UpdateName(ctx context.Context, clientID id.ClientID, name string) (*models.Client, error) {
	return s.mutate(ctx, clientID, func(client *models.Client) error {
		return client.UpdateName(name, requestcontext.Now(ctx))
	})
}

func (s *Service) AddContactEmail(ctx context.Context, clientID id.ClientID, email string) (*models.Client, error) {
	return s.mutate(ctx, clientID, func(client *models.Client) error {
		return client.AddContactEmail(email, requestcontext.Now(ctx))
	})
}

func (s *Service) DeactivateClient(ctx context.Context, clientID id.ClientID) (*models.Client, error) {
	return s.mutate(ctx, clientID, func(client *models.Client) error {
		client.Deactivate(requestcontext.Now(ctx))
		return nil
	})
}

func (s *Service) ActivateClient(ctx context.Context, clientID id.ClientID) (*models.Client, error) {
	return s.mutate(ctx, clientID, func(client *models.Client) error {
		client.Activate(requestcontext.Now(ctx))
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, clientID id.ClientID, apply func(*models.Client) error) (*models.Client, error) {
	client, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		return nil, wrapClientErr(err)
	}
	if err := apply(client); err != nil {
		return nil, err
	}
	if err := s.clients.Update(ctx, client); err != nil {
		return nil, wrapClientErr(err)
	}
	return client, nil
}

func wrapClientErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "client not found")
	}
	if errors.Is(err, sentinel.ErrAlreadyUsed) {
		return dErrors.New(dErrors.CodeConflict, "compliance email is already in use")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "client store failure")
}

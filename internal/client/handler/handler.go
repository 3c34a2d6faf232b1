// Package handler exposes client administration over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"docuflow/internal/client/models"
	id "docuflow/pkg/domain"
	dErrors "docuflow/pkg/domain-errors"
	"docuflow/pkg/platform/httputil"
)

// Service defines the client operations the admin surface needs.
type Service interface {
	CreateClient(ctx context.Context, name, complianceEmail string, contactEmails []string) (*models.Client, error)
	GetClient(ctx context.Context, clientID id.ClientID) (*models.Client, error)
	ListClients(ctx context.Context) ([]*models.Client, error)
	UpdateName(ctx context.Context, clientID id.ClientID, name string) (*models.Client, error)
	AddContactEmail(ctx context.Context, clientID id.ClientID, email string) (*models.Client, error)
	DeactivateClient(ctx context.Context, clientID id.ClientID) (*models.Client, error)
	ActivateClient(ctx context.Context, clientID id.ClientID) (*models.Client, error)
}

type Handler struct {
	clients Service
	logger  *slog.Logger
}

func New(clients Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{clients: clients, logger: logger}
}

// Register mounts the client routes. The caller applies the admin token
// middleware; routes here assume an authorized operator.
func (h *Handler) Register(r chi.Router) {
	r.Route("/clients", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Route("/{clientID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Put("/name", h.handleUpdateName)
			r.Post("/contact-emails", h.handleAddContactEmail)
			r.Post("/deactivate", h.handleDeactivate)
			r.Post("/activate", h.handleActivate)
		})
	})
}

type createClientRequest struct {
	Name            string   `json:"name"`
	ComplianceEmail string   `json:"compliance_email"`
	ContactEmails   []string `json:"contact_emails"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[createClientRequest](w, r)
	if !ok {
		return
	}

	client, err := h.clients.CreateClient(r.Context(), req.Name, req.ComplianceEmail, req.ContactEmails)
	if err != nil {
		h.logger.WarnContext(r.Context(), "client creation rejected", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, client)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	clients, err := h.clients.ListClients(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"clients": clients})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}
	client, err := h.clients.GetClient(r.Context(), clientID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, client)
}

type updateNameRequest struct {
	Name string `json:"name"`
}

func (h *Handler) handleUpdateName(w http.ResponseWriter, r *http.Request) {
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[updateNameRequest](w, r)
	if !ok {
		return
	}
	client, err := h.clients.UpdateName(r.Context(), clientID, req.Name)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, client)
}

type addContactEmailRequest struct {
	Email string `json:"email"`
}

func (h *Handler) handleAddContactEmail(w http.ResponseWriter, r *http.Request) {
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[addContactEmailRequest](w, r)
	if !ok {
		return
	}
	client, err := h.clients.AddContactEmail(r.Context(), clientID, req.Email)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, client)
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	h.toggleStatus(w, r, h.clients.DeactivateClient)
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	h.toggleStatus(w, r, h.clients.ActivateClient)
}

func (h *Handler) toggleStatus(w http.ResponseWriter, r *http.Request, op func(context.Context, id.ClientID) (*models.Client, error)) {
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}
	client, err := op(r.Context(), clientID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, client)
}

func (h *Handler) clientID(w http.ResponseWriter, r *http.Request) (id.ClientID, bool) {
	clientID, err := id.ParseClientID(chi.URLParam(r, "clientID"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid client id"))
		return id.ClientID{}, false
	}
	return clientID, true
}

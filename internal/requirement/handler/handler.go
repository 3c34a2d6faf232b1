// Package handler exposes requirement administration over HTTP. Attachment
// happens on the worker; the admin surface manages the rest of the
// lifecycle.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"docuflow/internal/requirement/models"
	id "docuflow/pkg/domain"
	dErrors "docuflow/pkg/domain-errors"
	"docuflow/pkg/platform/httputil"
)

// Service defines the requirement operations the admin surface needs.
type Service interface {
	CreateRequirement(ctx context.Context, clientID id.ClientID, docTypeID id.DocumentTypeID, dueDate time.Time) (*models.Requirement, error)
	GetRequirement(ctx context.Context, reqID id.RequirementID) (*models.Requirement, error)
	ListByClient(ctx context.Context, clientID id.ClientID) ([]*models.Requirement, error)
	ListOpenByClient(ctx context.Context, clientID id.ClientID) ([]*models.Requirement, error)
	UpdateDueDate(ctx context.Context, reqID id.RequirementID, newDate time.Time) (*models.Requirement, error)
	Cancel(ctx context.Context, reqID id.RequirementID) (*models.Requirement, error)
	MarkValidated(ctx context.Context, reqID id.RequirementID) (*models.Requirement, error)
	MarkCompleted(ctx context.Context, reqID id.RequirementID) (*models.Requirement, error)
	RemoveDocument(ctx context.Context, reqID id.RequirementID) (*models.Requirement, error)
	DocumentURL(ctx context.Context, reqID id.RequirementID) (string, error)
}

type Handler struct {
	requirements Service
	logger       *slog.Logger
}

func New(requirements Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{requirements: requirements, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/requirements", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Route("/{requirementID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Put("/due-date", h.handleUpdateDueDate)
			r.Post("/cancel", h.handleCancel)
			r.Post("/validate", h.handleValidate)
			r.Post("/complete", h.handleComplete)
			r.Delete("/document", h.handleRemoveDocument)
			r.Get("/document-url", h.handleDocumentURL)
		})
	})
}

type createRequirementRequest struct {
	ClientID       id.ClientID       `json:"client_id"`
	DocumentTypeID id.DocumentTypeID `json:"document_type_id"`
	DueDate        string            `json:"due_date"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[createRequirementRequest](w, r)
	if !ok {
		return
	}
	dueDate, ok := h.parseDueDate(w, req.DueDate)
	if !ok {
		return
	}

	requirement, err := h.requirements.CreateRequirement(r.Context(), req.ClientID, req.DocumentTypeID, dueDate)
	if err != nil {
		h.logger.WarnContext(r.Context(), "requirement creation rejected", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, requirement)
}

// handleList lists a client's requirements; ?open=true narrows to the ones
// still awaiting completion.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	clientID, err := id.ParseClientID(r.URL.Query().Get("client_id"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "client_id query parameter is required"))
		return
	}

	list := h.requirements.ListByClient
	if r.URL.Query().Get("open") == "true" {
		list = h.requirements.ListOpenByClient
	}
	requirements, err := list(r.Context(), clientID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"requirements": requirements})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID, ok := h.requirementID(w, r)
	if !ok {
		return
	}
	requirement, err := h.requirements.GetRequirement(r.Context(), reqID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, requirement)
}

type updateDueDateRequest struct {
	DueDate string `json:"due_date"`
}

func (h *Handler) handleUpdateDueDate(w http.ResponseWriter, r *http.Request) {
	reqID, ok := h.requirementID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[updateDueDateRequest](w, r)
	if !ok {
		return
	}
	dueDate, ok := h.parseDueDate(w, req.DueDate)
	if !ok {
		return
	}

	requirement, err := h.requirements.UpdateDueDate(r.Context(), reqID, dueDate)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, requirement)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.requirements.Cancel)
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.requirements.MarkValidated)
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.requirements.MarkCompleted)
}

func (h *Handler) handleRemoveDocument(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.requirements.RemoveDocument)
}

func (h *Handler) handleDocumentURL(w http.ResponseWriter, r *http.Request) {
	reqID, ok := h.requirementID(w, r)
	if !ok {
		return
	}
	url, err := h.requirements.DocumentURL(r.Context(), reqID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(context.Context, id.RequirementID) (*models.Requirement, error)) {
	reqID, ok := h.requirementID(w, r)
	if !ok {
		return
	}
	requirement, err := op(r.Context(), reqID)
	if err != nil {
		h.logger.WarnContext(r.Context(), "requirement transition rejected",
			"requirement_id", reqID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, requirement)
}

func (h *Handler) requirementID(w http.ResponseWriter, r *http.Request) (id.RequirementID, bool) {
	reqID, err := id.ParseRequirementID(chi.URLParam(r, "requirementID"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid requirement id"))
		return id.RequirementID{}, false
	}
	return reqID, true
}

func (h *Handler) parseDueDate(w http.ResponseWriter, raw string) (time.Time, bool) {
	dueDate, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "due_date must be YYYY-MM-DD"))
		return time.Time{}, false
	}
	return dueDate.UTC(), true
}

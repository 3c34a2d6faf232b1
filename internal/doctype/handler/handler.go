// Package handler exposes document type administration over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"docuflow/internal/requirement/models"
	id "docuflow/pkg/domain"
	dErrors "docuflow/pkg/domain-errors"
	"docuflow/pkg/platform/httputil"
)

// Service defines the document type operations the admin surface needs.
type Service interface {
	CreateDocumentType(ctx context.Context, name string, frequency models.Frequency, description string) (*models.DocumentType, error)
	GetDocumentType(ctx context.Context, typeID id.DocumentTypeID) (*models.DocumentType, error)
	ListDocumentTypes(ctx context.Context) ([]*models.DocumentType, error)
	UpdateDocumentType(ctx context.Context, typeID id.DocumentTypeID, name, description *string, frequency *models.Frequency) (*models.DocumentType, error)
}

type Handler struct {
	docTypes Service
	logger   *slog.Logger
}

func New(docTypes Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{docTypes: docTypes, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/document-types", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Get("/{typeID}", h.handleGet)
		r.Patch("/{typeID}", h.handleUpdate)
	})
}

type createDocumentTypeRequest struct {
	Name        string           `json:"name"`
	Frequency   models.Frequency `json:"frequency"`
	Description string           `json:"description"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[createDocumentTypeRequest](w, r)
	if !ok {
		return
	}
	docType, err := h.docTypes.CreateDocumentType(r.Context(), req.Name, req.Frequency, req.Description)
	if err != nil {
		h.logger.WarnContext(r.Context(), "document type creation rejected", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, docType)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	docTypes, err := h.docTypes.ListDocumentTypes(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"document_types": docTypes})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	typeID, ok := h.typeID(w, r)
	if !ok {
		return
	}
	docType, err := h.docTypes.GetDocumentType(r.Context(), typeID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, docType)
}

// updateDocumentTypeRequest carries optional fields; absent fields are left
// untouched.
type updateDocumentTypeRequest struct {
	Name        *string           `json:"name"`
	Description *string           `json:"description"`
	Frequency   *models.Frequency `json:"frequency"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	typeID, ok := h.typeID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[updateDocumentTypeRequest](w, r)
	if !ok {
		return
	}
	docType, err := h.docTypes.UpdateDocumentType(r.Context(), typeID, req.Name, req.Description, req.Frequency)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, docType)
}

func (h *Handler) typeID(w http.ResponseWriter, r *http.Request) (id.DocumentTypeID, bool) {
	typeID, err := id.ParseDocumentTypeID(chi.URLParam(r, "typeID"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid document type id"))
		return id.DocumentTypeID{}, false
	}
	return typeID, true
}

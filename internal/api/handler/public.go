package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/snapshotlabs/snapshot-api/internal/api/response"
	"github.com/snapshotlabs/snapshot-api/internal/domain"
	"github.com/snapshotlabs/snapshot-api/internal/service"
)

// PublicHandler serves shared results by slug, unauthenticated
type PublicHandler struct {
	sharingService *service.SharingService
}

// NewPublicHandler creates a new public handler
func NewPublicHandler(sharingService *service.SharingService) *PublicHandler {
	return &PublicHandler{sharingService: sharingService}
}

// Results returns the shared profile behind a public slug
func (h *PublicHandler) Results(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		response.BadRequest(w, "missing slug")
		return
	}

	profile, err := h.sharingService.PublicResults(r.Context(), slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.NotFound(w, "no shared results for this link")
			return
		}
		response.InternalError(w, "failed to load shared results")
		return
	}

	response.OK(w, profile)
}

package template

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pratoshot/pratoshot-api/internal/pkg/response"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// List handles GET /api/templates
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	templates, err := h.repo.ListActive(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list templates")
		response.InternalError(w)
		return
	}

	response.OK(w, ToListItemResponses(templates))
}

// Get handles GET /api/templates/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid template ID")
		return
	}

	t, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("template_id", id.String()).Msg("failed to get template")
		response.InternalError(w)
		return
	}
	if t == nil || !t.IsActive {
		response.Error(w, http.StatusNotFound, "TEMPLATE_NOT_FOUND", "Template not found")
		return
	}

	response.OK(w, ToDetailResponse(*t))
}

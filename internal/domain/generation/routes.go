package generation

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the generation endpoints. All routes require
// authentication, applied by the caller.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/retry", h.Retry)

	return r
}

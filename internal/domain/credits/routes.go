package credits

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the credit endpoints. All routes require authentication,
// applied by the caller.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/balance", h.GetBalance)
	r.Get("/transactions", h.ListTransactions)
	r.Post("/purchase", h.Purchase)

	return r
}

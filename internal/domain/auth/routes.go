package auth

import (
	"github.com/go-chi/chi/v5"

	"github.com/pratoshot/pratoshot-api/internal/middleware"
	"github.com/pratoshot/pratoshot-api/internal/pkg/jwt"
)

func Routes(h *Handler, jwtService *jwt.Service) chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/refresh", h.Refresh)
	r.Post("/logout", h.Logout)
	r.Post("/password-reset/request", h.RequestPasswordReset)
	r.Post("/password-reset/confirm", h.ConfirmPasswordReset)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(jwtService))
		r.Get("/me", h.Me)
	})

	return r
}

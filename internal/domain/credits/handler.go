package credits

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/pratoshot/pratoshot-api/internal/middleware"
	"github.com/pratoshot/pratoshot-api/internal/pkg/response"
	"github.com/pratoshot/pratoshot-api/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetBalance handles GET /api/credits/balance
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	balance, err := h.service.Balance(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.NotFound(w, "User not found")
			return
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to get balance")
		response.InternalError(w)
		return
	}

	response.OK(w, BalanceResponse{Balance: balance})
}

// ListTransactions handles GET /api/credits/transactions
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	txs, err := h.service.ListTransactions(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to list transactions")
		response.InternalError(w)
		return
	}

	response.OK(w, ToTransactionResponses(txs))
}

// Purchase handles POST /api/credits/purchase
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	balance, err := h.service.Purchase(r.Context(), userID, req.PackageID)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidPackage):
			response.Error(w, http.StatusBadRequest, "INVALID_PACKAGE", "Unknown credit package")
		case errors.Is(err, ErrUserNotFound):
			response.NotFound(w, "User not found")
		default:
			log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to purchase credits")
			response.InternalError(w)
		}
		return
	}

	pkg := Packages[req.PackageID]
	response.OK(w, PurchaseResponse{Balance: balance, Credits: pkg.Credits})
}

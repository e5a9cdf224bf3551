package credits

import "time"

type PurchaseRequest struct {
	PackageID string `json:"packageId" validate:"required"`
}

type BalanceResponse struct {
	Balance int `json:"balance"`
}

type PurchaseResponse struct {
	Balance int `json:"balance"`
	Credits int `json:"creditsAdded"`
}

type TransactionResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Amount      int       `json:"amount"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

func ToTransactionResponse(t Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          t.ID.String(),
		Type:        string(t.Type),
		Amount:      t.Amount,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
	}
}

func ToTransactionResponses(txs []Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, ToTransactionResponse(t))
	}
	return out
}

package credits

import (
	"time"

	"github.com/google/uuid"
)

// TxType defines supported credit transaction types.
type TxType string

const (
	TxTypeGrantFree       TxType = "GRANT_FREE"
	TxTypePurchase        TxType = "PURCHASE"
	TxTypeSpendGeneration TxType = "SPEND_GENERATION"
)

// Transaction is an immutable ledger row. Amounts are signed: grants and
// purchases positive, generation spends negative.
type Transaction struct {
	ID          uuid.UUID `db:"id"`
	UserID      uuid.UUID `db:"user_id"`
	Type        TxType    `db:"type"`
	Amount      int       `db:"amount"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

// Package is a purchasable credit bundle.
type Package struct {
	Credits     int
	Description string
}

// Packages is the fixed price table. No payment integration: purchase is
// a direct credit mint, payment verification is an external concern.
var Packages = map[string]Package{
	"50":  {Credits: 50, Description: "Compra de 50 creditos"},
	"120": {Credits: 120, Description: "Compra de 120 creditos"},
	"300": {Credits: 300, Description: "Compra de 300 creditos"},
}

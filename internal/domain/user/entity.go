package user

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Plan represents a subscription tier
type Plan string

const (
	PlanFree     Plan = "FREE"
	PlanPro      Plan = "PRO"
	PlanBusiness Plan = "BUSINESS"
)

// Profile represents a user account with its cached credit balance.
// The balance column is only ever mutated in the same transaction as a
// ledger insert, so it cannot drift from the transaction history.
type Profile struct {
	ID             uuid.UUID      `db:"id"`
	Name           string         `db:"name"`
	Email          string         `db:"email"`
	PasswordHash   string         `db:"password_hash"`
	AvatarURL      sql.NullString `db:"avatar_url"`
	CreditsBalance int            `db:"credits_balance"`
	Plan           Plan           `db:"plan"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

package credits

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

const queryTimeout = 3 * time.Second

// Repository persists the credit ledger. The profile balance column is a
// cached aggregate: every mutation updates it and inserts a ledger row in
// the same transaction.
type Repository interface {
	// Deduct atomically removes amount from the user's balance and records
	// a negative SPEND_GENERATION transaction. Fails with
	// ErrInsufficientCredits when the balance is lower than amount.
	Deduct(ctx context.Context, userID uuid.UUID, amount int, description string) error

	// Add credits the user and records a positive PURCHASE transaction.
	Add(ctx context.Context, userID uuid.UUID, amount int, description string) error

	// GrantInitial tops the user's balance up to target exactly once per
	// user. Repeat calls are no-ops. Returns the granted amount.
	GrantInitial(ctx context.Context, userID uuid.UUID, target int, description string) (int, error)

	// Balance returns the user's current credit balance.
	Balance(ctx context.Context, userID uuid.UUID) (int, error)

	// ListTransactions returns the user's ledger, newest first.
	ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]Transaction, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Deduct(ctx context.Context, userID uuid.UUID, amount int, description string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Conditional decrement: zero rows affected means the balance guard
	// failed, which distinguishes insufficient credits from a DB error.
	res, err := tx.ExecContext(ctx,
		`UPDATE profiles
		 SET credits_balance = credits_balance - $2, updated_at = NOW()
		 WHERE id = $1 AND credits_balance >= $2`,
		userID, amount)
	if err != nil {
		return fmt.Errorf("decrement balance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		if exists, eerr := r.userExists(ctx, tx, userID); eerr == nil && !exists {
			return ErrUserNotFound
		}
		return ErrInsufficientCredits
	}

	if err := insertLedger(ctx, tx, userID, TxTypeSpendGeneration, -amount, description); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *repository) Add(ctx context.Context, userID uuid.UUID, amount int, description string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE profiles
		 SET credits_balance = credits_balance + $2, updated_at = NOW()
		 WHERE id = $1`,
		userID, amount)
	if err != nil {
		return fmt.Errorf("increment balance: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrUserNotFound
	}

	if err := insertLedger(ctx, tx, userID, TxTypePurchase, amount, description); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *repository) GrantInitial(ctx context.Context, userID uuid.UUID, target int, description string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// The partial unique index on (user_id) WHERE type = 'GRANT_FREE'
	// makes the grant idempotent: a second insert hits the conflict and
	// returns no row.
	var granted int
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO credit_transactions (id, user_id, type, amount, description)
		 SELECT $1, $2, 'GRANT_FREE', GREATEST($3 - credits_balance, 0), $4
		 FROM profiles WHERE id = $2
		 ON CONFLICT (user_id) WHERE type = 'GRANT_FREE' DO NOTHING
		 RETURNING amount`,
		uuid.New(), userID, target, description).Scan(&granted)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("insert grant: %w", err)
	}

	if granted > 0 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE profiles
			 SET credits_balance = credits_balance + $2, updated_at = NOW()
			 WHERE id = $1`,
			userID, granted); err != nil {
			return 0, fmt.Errorf("apply grant: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return granted, nil
}

func (r *repository) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var balance int
	err := r.db.GetContext(ctx, &balance,
		`SELECT credits_balance FROM profiles WHERE id = $1`, userID)
	if err == sql.ErrNoRows {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

func (r *repository) ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if limit <= 0 || limit > 50 {
		limit = 50
	}

	txs := []Transaction{}
	err := r.db.SelectContext(ctx, &txs,
		`SELECT id, user_id, type, amount, description, created_at
		 FROM credit_transactions
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (r *repository) userExists(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) (bool, error) {
	var exists bool
	err := tx.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM profiles WHERE id = $1)`, userID)
	return exists, err
}

func insertLedger(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, txType TxType, amount int, description string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO credit_transactions (id, user_id, type, amount, description)
		 VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), userID, txType, amount, description)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to insert credit transaction")
		return fmt.Errorf("insert ledger: %w", err)
	}
	return nil
}

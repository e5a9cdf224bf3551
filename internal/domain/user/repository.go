package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines profile data access interface
type Repository interface {
	Create(ctx context.Context, profile *Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	GetByEmail(ctx context.Context, email string) (*Profile, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// repository implements Repository
type repository struct {
	db *sqlx.DB
}

// NewRepository creates new profile repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Create creates a new profile
func (r *repository) Create(ctx context.Context, profile *Profile) error {
	query := `
		INSERT INTO profiles (id, name, email, password_hash, avatar_url, credits_balance, plan)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		profile.ID,
		profile.Name,
		profile.Email,
		profile.PasswordHash,
		profile.AvatarURL,
		profile.CreditsBalance,
		profile.Plan,
	)
	if err != nil {
		return fmt.Errorf("profile repository create: %w", err)
	}

	return nil
}

// GetByID returns profile by ID
func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	query := `
		SELECT id, name, email, password_hash, avatar_url, credits_balance, plan, created_at, updated_at
		FROM profiles WHERE id = $1
	`
	var profile Profile
	err := r.db.GetContext(ctx, &profile, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &profile, nil
}

// GetByEmail returns profile by email
func (r *repository) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	query := `
		SELECT id, name, email, password_hash, avatar_url, credits_balance, plan, created_at, updated_at
		FROM profiles WHERE email = $1
	`
	var profile Profile
	err := r.db.GetContext(ctx, &profile, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &profile, nil
}

// UpdatePassword updates profile password hash
func (r *repository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE profiles SET password_hash = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, passwordHash)
	return err
}

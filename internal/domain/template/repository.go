package template

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

type Repository interface {
	ListActive(ctx context.Context) ([]PhotoTemplate, error)
	GetByID(ctx context.Context, id uuid.UUID) (*PhotoTemplate, error)

	// Upsert inserts or refreshes a template keyed by slug. Used by the
	// seeder so catalog updates are safe to re-run.
	Upsert(ctx context.Context, t *PhotoTemplate) error
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const selectColumns = `id, slug, name, description, category, aspect_ratio,
	prompt, preview_url, platform_suggestions, is_active, created_at, updated_at`

func (r *repository) ListActive(ctx context.Context) ([]PhotoTemplate, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	templates := []PhotoTemplate{}
	err := r.db.SelectContext(ctx, &templates,
		`SELECT `+selectColumns+`
		 FROM photo_templates
		 WHERE is_active = TRUE
		 ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*PhotoTemplate, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var t PhotoTemplate
	err := r.db.GetContext(ctx, &t,
		`SELECT `+selectColumns+` FROM photo_templates WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return &t, nil
}

func (r *repository) Upsert(ctx context.Context, t *PhotoTemplate) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO photo_templates
		   (id, slug, name, description, category, aspect_ratio, prompt,
		    preview_url, platform_suggestions, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (slug) DO UPDATE SET
		   name = EXCLUDED.name,
		   description = EXCLUDED.description,
		   category = EXCLUDED.category,
		   aspect_ratio = EXCLUDED.aspect_ratio,
		   prompt = EXCLUDED.prompt,
		   preview_url = EXCLUDED.preview_url,
		   platform_suggestions = EXCLUDED.platform_suggestions,
		   is_active = EXCLUDED.is_active,
		   updated_at = NOW()`,
		t.ID, t.Slug, t.Name, t.Description, t.Category, t.AspectRatio,
		t.Prompt, t.PreviewURL, t.PlatformSuggestions, t.IsActive)
	if err != nil {
		return fmt.Errorf("upsert template: %w", err)
	}
	return nil
}

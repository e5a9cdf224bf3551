package template

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PhotoTemplate is a curated styling preset. The Prompt column is internal
// model steering text and must never reach API responses.
type PhotoTemplate struct {
	ID                  uuid.UUID      `db:"id"`
	Slug                string         `db:"slug"`
	Name                string         `db:"name"`
	Description         string         `db:"description"`
	Category            string         `db:"category"`
	AspectRatio         string         `db:"aspect_ratio"`
	Prompt              string         `db:"prompt"`
	PreviewURL          string         `db:"preview_url"`
	PlatformSuggestions pq.StringArray `db:"platform_suggestions"`
	IsActive            bool           `db:"is_active"`
	CreatedAt           time.Time      `db:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at"`
}

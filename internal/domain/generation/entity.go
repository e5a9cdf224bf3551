package generation

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type JobStatus string

// A job is born PROCESSING and ends COMPLETED or FAILED. Retry re-runs
// generation against the same row and flips the status again.
const (
	StatusProcessing JobStatus = "PROCESSING"
	StatusCompleted  JobStatus = "COMPLETED"
	StatusFailed     JobStatus = "FAILED"
)

// Job tracks one styling request from upload to delivered variants.
// Credits are debited before generation starts, so a FAILED job still
// represents spent credits. Retries reuse the row for free.
type Job struct {
	ID               uuid.UUID      `db:"id"`
	UserID           uuid.UUID      `db:"user_id"`
	TemplateID       uuid.UUID      `db:"template_id"`
	Status           JobStatus      `db:"status"`
	Quantity         int            `db:"quantity"`
	CreditsUsed      int            `db:"credits_used"`
	AspectRatio      string         `db:"aspect_ratio"`
	OriginalImageURL string         `db:"original_image_url"`
	OriginalImageKey string         `db:"original_image_key"`
	BusinessType     string         `db:"business_type"`
	PlatformTarget   string         `db:"platform_target"`
	AdditionalNotes  string         `db:"additional_notes"`
	ErrorMessage     sql.NullString `db:"error_message"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
	CompletedAt      sql.NullTime   `db:"completed_at"`
}

// GeneratedImage is one delivered variant. Rows are append-only: retries
// add new rows, they never replace the originals. Width and height come
// from decoding the produced bytes and may be zero when undecodable.
type GeneratedImage struct {
	ID         uuid.UUID `db:"id"`
	JobID      uuid.UUID `db:"job_id"`
	UserID     uuid.UUID `db:"user_id"`
	ImageURL   string    `db:"image_url"`
	StorageKey string    `db:"storage_key"`
	Position   int       `db:"position"`
	Width      int       `db:"width"`
	Height     int       `db:"height"`
	IsRetry    bool      `db:"is_retry"`
	CreatedAt  time.Time `db:"created_at"`
}

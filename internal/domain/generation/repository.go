package generation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const queryTimeout = 5 * time.Second

type Repository interface {
	CreateJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*Job, error)
	ListJobs(ctx context.Context, userID uuid.UUID, limit int) ([]Job, error)

	// UpdateStatus moves a job to the given status. A non-empty errMsg is
	// recorded, an empty one clears any previous error. COMPLETED also
	// stamps completed_at.
	UpdateStatus(ctx context.Context, id uuid.UUID, status JobStatus, errMsg string) error

	InsertImages(ctx context.Context, images []GeneratedImage) error
	ListImages(ctx context.Context, jobID uuid.UUID) ([]GeneratedImage, error)

	// ReapStale fails PROCESSING jobs that have not progressed since the
	// cutoff. Returns the IDs it failed.
	ReapStale(ctx context.Context, olderThan time.Time) ([]uuid.UUID, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateJob(ctx context.Context, job *Job) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO generation_jobs
		   (id, user_id, template_id, status, quantity, credits_used,
		    aspect_ratio, original_image_url, original_image_key,
		    business_type, platform_target, additional_notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		job.ID, job.UserID, job.TemplateID, job.Status, job.Quantity,
		job.CreditsUsed, job.AspectRatio, job.OriginalImageURL,
		job.OriginalImageKey, job.BusinessType, job.PlatformTarget,
		job.AdditionalNotes)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func (r *repository) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var job Job
	err := r.db.GetContext(ctx, &job,
		`SELECT * FROM generation_jobs WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

func (r *repository) ListJobs(ctx context.Context, userID uuid.UUID, limit int) ([]Job, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if limit <= 0 || limit > 50 {
		limit = 50
	}

	jobs := []Job{}
	err := r.db.SelectContext(ctx, &jobs,
		`SELECT * FROM generation_jobs
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status JobStatus, errMsg string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var err error
	if status == StatusCompleted {
		_, err = r.db.ExecContext(ctx,
			`UPDATE generation_jobs
			 SET status = $2, error_message = NULL, completed_at = NOW(), updated_at = NOW()
			 WHERE id = $1`,
			id, status)
	} else {
		_, err = r.db.ExecContext(ctx,
			`UPDATE generation_jobs
			 SET status = $2, error_message = NULLIF($3, ''), updated_at = NOW()
			 WHERE id = $1`,
			id, status, errMsg)
	}
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	return nil
}

func (r *repository) InsertImages(ctx context.Context, images []GeneratedImage) error {
	if len(images) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for i := range images {
		img := &images[i]
		if img.ID == uuid.Nil {
			img.ID = uuid.New()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO generated_images
			   (id, job_id, user_id, image_url, storage_key, position,
			    width, height, is_retry)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			img.ID, img.JobID, img.UserID, img.ImageURL, img.StorageKey,
			img.Position, img.Width, img.Height, img.IsRetry); err != nil {
			return fmt.Errorf("insert image: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *repository) ListImages(ctx context.Context, jobID uuid.UUID) ([]GeneratedImage, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	images := []GeneratedImage{}
	err := r.db.SelectContext(ctx, &images,
		`SELECT * FROM generated_images
		 WHERE job_id = $1
		 ORDER BY created_at ASC, position ASC`,
		jobID)
	if err != nil {
		return nil, fmt.Errorf("list job images: %w", err)
	}
	return images, nil
}

func (r *repository) ReapStale(ctx context.Context, olderThan time.Time) ([]uuid.UUID, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var ids []uuid.UUID
	err := r.db.SelectContext(ctx, &ids,
		`UPDATE generation_jobs
		 SET status = 'FAILED',
		     error_message = 'Processamento expirou',
		     updated_at = NOW()
		 WHERE status = 'PROCESSING' AND updated_at < $1
		 RETURNING id`,
		olderThan)
	if err != nil {
		return nil, fmt.Errorf("reap stale jobs: %w", err)
	}
	return ids, nil
}

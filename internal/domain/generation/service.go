package generation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/pratoshot/pratoshot-api/internal/domain/template"
	"github.com/pratoshot/pratoshot-api/internal/pkg/imaging"
	"github.com/pratoshot/pratoshot-api/internal/pkg/storage"
)

const (
	maxQuantity   = 4
	retryLockTTL  = 10 * time.Minute
	generationTTL = 5 * time.Minute
)

// Generator produces one styled variant from a prompt and a source photo.
type Generator interface {
	GenerateImage(ctx context.Context, prompt string, image []byte, mimeType string) ([]byte, error)
}

// Debiter spends credits for a generation. Implemented by the credits
// service.
type Debiter interface {
	DebitForGeneration(ctx context.Context, userID uuid.UUID, quantity int) error
}

// Notifier pushes job progress to the owner. Implemented by the hub.
type Notifier interface {
	Notify(userID uuid.UUID, event JobEvent)
}

type Service struct {
	repo        Repository
	templates   template.Repository
	credits     Debiter
	originals   storage.Storage
	generated   storage.Storage
	generator   Generator
	notifier    Notifier
	redis       *redis.Client
	maxInflight int
}

func NewService(
	repo Repository,
	templates template.Repository,
	credits Debiter,
	originals, generated storage.Storage,
	generator Generator,
	notifier Notifier,
	redisClient *redis.Client,
	maxInflight int,
) *Service {
	if maxInflight <= 0 {
		maxInflight = 2
	}
	return &Service{
		repo:        repo,
		templates:   templates,
		credits:     credits,
		originals:   originals,
		generated:   generated,
		generator:   generator,
		notifier:    notifier,
		redis:       redisClient,
		maxInflight: maxInflight,
	}
}

// CreateJob runs one styling workflow end to end and returns the job with
// its generated images. The debit happens before any generation work and
// stands even when generation later fails: the user retries the failed
// job for free instead of being refunded.
func (s *Service) CreateJob(ctx context.Context, userID uuid.UUID, in CreateJobInput) (*Job, []GeneratedImage, error) {
	if in.Quantity < 1 || in.Quantity > maxQuantity {
		return nil, nil, ErrInvalidQuantity
	}
	if len(in.FileData) == 0 {
		return nil, nil, ErrInvalidFileType
	}
	if int64(len(in.FileData)) > imaging.MaxFileSize {
		return nil, nil, ErrFileTooLarge
	}
	if !imaging.ValidateType(in.FileName) || !imaging.ValidateMime(in.ContentType) {
		return nil, nil, ErrInvalidFileType
	}

	tmpl, err := s.templates.GetByID(ctx, in.TemplateID)
	if err != nil {
		return nil, nil, err
	}
	if tmpl == nil || !tmpl.IsActive {
		return nil, nil, ErrTemplateNotFound
	}

	// The aspect ratio is a property of the chosen template, with a safe
	// default when the stored value is unrecognized.
	ratio := NormalizeAspectRatio(tmpl.AspectRatio)

	// Point of no return. The conditional decrement rejects concurrent
	// overdraws, so no job row or blob exists for a rejected request.
	if err := s.credits.DebitForGeneration(ctx, userID, in.Quantity); err != nil {
		return nil, nil, err
	}

	originalKey := fmt.Sprintf("%s/%d-%s", userID, time.Now().UnixMilli(), sanitizeFilename(in.FileName))
	if err := s.originals.Save(ctx, originalKey, bytes.NewReader(in.FileData), in.ContentType); err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to upload original image")
		return nil, nil, fmt.Errorf("upload original: %w", err)
	}

	job := &Job{
		UserID:           userID,
		TemplateID:       tmpl.ID,
		Status:           StatusProcessing,
		Quantity:         in.Quantity,
		CreditsUsed:      in.Quantity,
		AspectRatio:      ratio,
		OriginalImageURL: s.originals.GetURL(originalKey),
		OriginalImageKey: originalKey,
		BusinessType:     in.BusinessType,
		PlatformTarget:   in.PlatformTarget,
		AdditionalNotes:  in.AdditionalNotes,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, nil, err
	}
	s.notify(job, StatusProcessing, 0, "")

	prompt := ComposePrompt(PromptInput{
		TemplatePrompt:  tmpl.Prompt,
		BusinessType:    in.BusinessType,
		PlatformTarget:  in.PlatformTarget,
		AspectRatio:     ratio,
		AdditionalNotes: in.AdditionalNotes,
	})

	images, err := s.runGeneration(job, prompt, in.FileData, in.ContentType, false)
	if err != nil {
		return nil, nil, err
	}
	return job, images, nil
}

// RetryJob re-runs generation for a failed job at no cost. A short lived
// Redis lock stops two clients from retrying the same job at once.
func (s *Service) RetryJob(ctx context.Context, userID, jobID uuid.UUID) (*Job, []GeneratedImage, error) {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}
	if job == nil {
		return nil, nil, ErrJobNotFound
	}
	if job.UserID != userID {
		return nil, nil, ErrNotOwner
	}
	if job.Status == StatusProcessing {
		return nil, nil, ErrRetryInProgress
	}

	if s.redis != nil {
		acquired, lerr := s.redis.SetNX(ctx, retryLockKey(jobID), "1", retryLockTTL).Result()
		if lerr != nil {
			log.Warn().Err(lerr).Str("job_id", jobID.String()).Msg("retry lock unavailable, proceeding without it")
		} else if !acquired {
			return nil, nil, ErrRetryInProgress
		}
		defer s.releaseRetryLock(jobID)
	}

	tmpl, err := s.templates.GetByID(ctx, job.TemplateID)
	if err != nil {
		return nil, nil, err
	}
	if tmpl == nil {
		return nil, nil, ErrTemplateNotFound
	}

	original, err := s.originals.Load(ctx, job.OriginalImageKey)
	if err != nil {
		log.Error().Err(err).Str("job_id", jobID.String()).Msg("failed to load original image for retry")
		return nil, nil, fmt.Errorf("load original: %w", err)
	}

	if err := s.repo.UpdateStatus(ctx, job.ID, StatusProcessing, ""); err != nil {
		return nil, nil, err
	}
	job.Status = StatusProcessing
	job.ErrorMessage.Valid = false
	s.notify(job, StatusProcessing, 0, "")

	prompt := ComposePrompt(PromptInput{
		TemplatePrompt:  tmpl.Prompt,
		BusinessType:    job.BusinessType,
		PlatformTarget:  job.PlatformTarget,
		AspectRatio:     NormalizeAspectRatio(tmpl.AspectRatio),
		AdditionalNotes: job.AdditionalNotes,
	})

	images, err := s.runGeneration(job, prompt, original, mimeFromKey(job.OriginalImageKey), true)
	if err != nil {
		return nil, nil, err
	}
	return job, images, nil
}

func (s *Service) GetJob(ctx context.Context, userID, jobID uuid.UUID) (*Job, []GeneratedImage, error) {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}
	if job == nil {
		return nil, nil, ErrJobNotFound
	}
	if job.UserID != userID {
		return nil, nil, ErrNotOwner
	}

	images, err := s.repo.ListImages(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}
	return job, images, nil
}

func (s *Service) ListJobs(ctx context.Context, userID uuid.UUID) ([]Job, error) {
	return s.repo.ListJobs(ctx, userID, 50)
}

func (s *Service) ListJobImages(ctx context.Context, jobID uuid.UUID) ([]GeneratedImage, error) {
	return s.repo.ListImages(ctx, jobID)
}

// runGeneration owns the job's status transitions from PROCESSING onward.
// It runs on its own deadline, detached from the request context, so a
// client disconnect cannot strand a job the user already paid for.
func (s *Service) runGeneration(job *Job, prompt string, original []byte, mimeType string, isRetry bool) ([]GeneratedImage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), generationTTL)
	defer cancel()

	results, err := s.generateAll(ctx, prompt, original, mimeType, job.Quantity)
	if err != nil {
		return nil, s.fail(job, err)
	}

	images := make([]GeneratedImage, 0, len(results))
	now := time.Now().UnixMilli()
	for i, data := range results {
		// Keys are 1-indexed: image-1.png is the first variant.
		var key string
		if isRetry {
			key = fmt.Sprintf("%s/%s/retry-%d-%d.png", job.UserID, job.ID, now, i+1)
		} else {
			key = fmt.Sprintf("%s/%s/image-%d.png", job.UserID, job.ID, i+1)
		}
		if err := s.generated.Save(ctx, key, bytes.NewReader(data), "image/png"); err != nil {
			return nil, s.fail(job, fmt.Errorf("store variant %d: %w", i, err))
		}

		width, height := imaging.Probe(data)
		images = append(images, GeneratedImage{
			JobID:      job.ID,
			UserID:     job.UserID,
			ImageURL:   s.generated.GetURL(key),
			StorageKey: key,
			Position:   i,
			Width:      width,
			Height:     height,
			IsRetry:    isRetry,
		})
	}

	if err := s.repo.InsertImages(ctx, images); err != nil {
		return nil, s.fail(job, err)
	}
	if err := s.repo.UpdateStatus(ctx, job.ID, StatusCompleted, ""); err != nil {
		return nil, s.fail(job, err)
	}
	job.Status = StatusCompleted
	job.ErrorMessage.Valid = false

	s.notify(job, StatusCompleted, len(images), "")
	log.Info().
		Str("job_id", job.ID.String()).
		Str("user_id", job.UserID.String()).
		Int("images", len(images)).
		Bool("retry", isRetry).
		Msg("generation job completed")
	return images, nil
}

// generateAll produces quantity variants with a bounded number of calls
// in flight. Results keep their request order. The first failure cancels
// the remaining work.
func (s *Service) generateAll(ctx context.Context, prompt string, original []byte, mimeType string, quantity int) ([][]byte, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([][]byte, quantity)
	sem := make(chan struct{}, s.maxInflight)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	for i := 0; i < quantity; i++ {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			if firstErr != nil {
				return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, firstErr)
			}
			return nil, ctx.Err()
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			data, err := s.generator.GenerateImage(ctx, prompt, original, mimeType)
			if err != nil {
				errOnce.Do(func() {
					firstErr = err
					cancel()
				})
				return
			}
			results[i] = data
		}(i)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, firstErr)
	}
	return results, nil
}

// fail flips the job to FAILED and wraps the cause. Credits stay spent.
func (s *Service) fail(job *Job, cause error) error {
	log.Error().Err(cause).
		Str("job_id", job.ID.String()).
		Str("user_id", job.UserID.String()).
		Msg("generation job failed")

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err := s.repo.UpdateStatus(ctx, job.ID, StatusFailed, cause.Error()); err != nil {
		log.Error().Err(err).Str("job_id", job.ID.String()).Msg("failed to mark job failed")
	}
	job.Status = StatusFailed
	job.ErrorMessage.Valid = true
	job.ErrorMessage.String = cause.Error()
	s.notify(job, StatusFailed, 0, cause.Error())

	if errors.Is(cause, ErrGenerationFailed) {
		return cause
	}
	return fmt.Errorf("%w: %v", ErrGenerationFailed, cause)
}

func (s *Service) notify(job *Job, status JobStatus, imagesReady int, errMsg string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(job.UserID, JobEvent{
		JobID:       job.ID.String(),
		Status:      string(status),
		ImagesReady: imagesReady,
		Error:       errMsg,
	})
}

func (s *Service) releaseRetryLock(jobID uuid.UUID) {
	if s.redis == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.redis.Del(ctx, retryLockKey(jobID)).Err(); err != nil {
		log.Warn().Err(err).Str("job_id", jobID.String()).Msg("failed to release retry lock")
	}
}

func retryLockKey(jobID uuid.UUID) string {
	return "generation:retry:" + jobID.String()
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, " ", "-")
	if name == "" || name == "." {
		name = "upload"
	}
	return name
}

func mimeFromKey(key string) string {
	if t := mime.TypeByExtension(filepath.Ext(key)); t != "" {
		return t
	}
	return "image/png"
}

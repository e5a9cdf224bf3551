package generation

import (
	"time"

	"github.com/google/uuid"
)

// CreateJobInput is parsed out of the multipart form by the handler. The
// rendered aspect ratio is not a client choice, it comes from the template.
type CreateJobInput struct {
	TemplateID      uuid.UUID
	Quantity        int
	BusinessType    string
	PlatformTarget  string
	AdditionalNotes string
	FileName        string
	FileData        []byte
	ContentType     string
}

type ImageResponse struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Position  int       `json:"position"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	IsRetry   bool      `json:"isRetry"`
	CreatedAt time.Time `json:"createdAt"`
}

type JobResponse struct {
	JobID            string          `json:"jobId"`
	Status           string          `json:"status"`
	Quantity         int             `json:"quantity"`
	CreditsUsed      int             `json:"creditsUsed"`
	AspectRatio      string          `json:"aspectRatio"`
	TemplateID       string          `json:"templateId"`
	OriginalImageURL string          `json:"originalImageUrl"`
	BusinessType     string          `json:"businessType,omitempty"`
	PlatformTarget   string          `json:"platformTarget,omitempty"`
	AdditionalNotes  string          `json:"additionalNotes,omitempty"`
	ErrorMessage     string          `json:"errorMessage,omitempty"`
	Images           []ImageResponse `json:"images"`
	CreatedAt        time.Time       `json:"createdAt"`
	CompletedAt      *time.Time      `json:"completedAt,omitempty"`
}

// RetryResponse is the trimmed shape returned by the retry endpoint.
type RetryResponse struct {
	JobID  string          `json:"jobId"`
	Status string          `json:"status"`
	Images []ImageResponse `json:"images"`
}

func ToImageResponse(img GeneratedImage) ImageResponse {
	return ImageResponse{
		ID:        img.ID.String(),
		URL:       img.ImageURL,
		Position:  img.Position,
		Width:     img.Width,
		Height:    img.Height,
		IsRetry:   img.IsRetry,
		CreatedAt: img.CreatedAt,
	}
}

func ToImageResponses(images []GeneratedImage) []ImageResponse {
	out := make([]ImageResponse, 0, len(images))
	for _, img := range images {
		out = append(out, ToImageResponse(img))
	}
	return out
}

func ToJobResponse(job Job, images []GeneratedImage) JobResponse {
	resp := JobResponse{
		JobID:            job.ID.String(),
		Status:           string(job.Status),
		Quantity:         job.Quantity,
		CreditsUsed:      job.CreditsUsed,
		AspectRatio:      job.AspectRatio,
		TemplateID:       job.TemplateID.String(),
		OriginalImageURL: job.OriginalImageURL,
		BusinessType:     job.BusinessType,
		PlatformTarget:   job.PlatformTarget,
		AdditionalNotes:  job.AdditionalNotes,
		Images:           ToImageResponses(images),
		CreatedAt:        job.CreatedAt,
	}
	if job.ErrorMessage.Valid {
		resp.ErrorMessage = job.ErrorMessage.String
	}
	if job.CompletedAt.Valid {
		t := job.CompletedAt.Time
		resp.CompletedAt = &t
	}
	return resp
}

package generation

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pratoshot/pratoshot-api/internal/domain/credits"
	"github.com/pratoshot/pratoshot-api/internal/middleware"
	"github.com/pratoshot/pratoshot-api/internal/pkg/imaging"
	"github.com/pratoshot/pratoshot-api/internal/pkg/response"
)

// Multipart forms get a little headroom above the image size cap for the
// text fields.
const maxUploadSize = imaging.MaxFileSize + 1<<20

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /api/generations
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		response.Error(w, http.StatusBadRequest, "FILE_TOO_LARGE", "Request body too large or malformed")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "FILE_REQUIRED", "An image file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		log.Error().Err(err).Msg("failed to read uploaded image")
		response.InternalError(w)
		return
	}

	quantity, err := strconv.Atoi(r.FormValue("quantityRequested"))
	if err != nil {
		response.ValidationError(w, map[string]string{
			"quantityRequested": "must be an integer between 1 and 4",
		})
		return
	}

	templateID, err := uuid.Parse(r.FormValue("templateId"))
	if err != nil {
		response.ValidationError(w, map[string]string{
			"templateId": "must be a valid template id",
		})
		return
	}

	in := CreateJobInput{
		TemplateID:      templateID,
		Quantity:        quantity,
		BusinessType:    r.FormValue("businessType"),
		PlatformTarget:  r.FormValue("platformTarget"),
		AdditionalNotes: r.FormValue("additionalNotes"),
		FileName:        header.Filename,
		FileData:        data,
		ContentType:     header.Header.Get("Content-Type"),
	}

	job, images, err := h.service.CreateJob(r.Context(), userID, in)
	if err != nil {
		h.writeJobError(w, userID, err)
		return
	}

	response.Created(w, ToJobResponse(*job, images))
}

// List handles GET /api/generations
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	jobs, err := h.service.ListJobs(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to list jobs")
		response.InternalError(w)
		return
	}

	out := make([]JobResponse, 0, len(jobs))
	for _, job := range jobs {
		images, ierr := h.service.ListJobImages(r.Context(), job.ID)
		if ierr != nil {
			log.Error().Err(ierr).Str("job_id", job.ID.String()).Msg("failed to list job images")
			response.InternalError(w)
			return
		}
		out = append(out, ToJobResponse(job, images))
	}

	response.OK(w, out)
}

// Get handles GET /api/generations/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid job ID")
		return
	}

	job, images, err := h.service.GetJob(r.Context(), userID, jobID)
	if err != nil {
		h.writeJobError(w, userID, err)
		return
	}

	response.OK(w, ToJobResponse(*job, images))
}

// Retry handles POST /api/generations/{id}/retry
func (h *Handler) Retry(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid job ID")
		return
	}

	job, images, err := h.service.RetryJob(r.Context(), userID, jobID)
	if err != nil {
		h.writeJobError(w, userID, err)
		return
	}

	response.OK(w, RetryResponse{
		JobID:  job.ID.String(),
		Status: string(job.Status),
		Images: ToImageResponses(images),
	})
}

func (h *Handler) writeJobError(w http.ResponseWriter, userID uuid.UUID, err error) {
	switch {
	case errors.Is(err, credits.ErrInsufficientCredits):
		response.Error(w, http.StatusBadRequest, "INSUFFICIENT_CREDITS", "Not enough credits for this generation")
	case errors.Is(err, ErrInvalidQuantity):
		response.Error(w, http.StatusBadRequest, "INVALID_QUANTITY", "Quantity must be between 1 and 4")
	case errors.Is(err, ErrFileTooLarge):
		response.Error(w, http.StatusBadRequest, "FILE_TOO_LARGE", "Image exceeds the 10MB limit")
	case errors.Is(err, ErrInvalidFileType):
		response.Error(w, http.StatusBadRequest, "INVALID_FILE_TYPE", "The uploaded file is not a supported image")
	case errors.Is(err, ErrTemplateNotFound):
		response.Error(w, http.StatusNotFound, "TEMPLATE_NOT_FOUND", "Template not found")
	case errors.Is(err, ErrJobNotFound), errors.Is(err, ErrNotOwner):
		response.Error(w, http.StatusNotFound, "JOB_NOT_FOUND", "Generation job not found")
	case errors.Is(err, ErrRetryInProgress):
		response.Error(w, http.StatusConflict, "RETRY_IN_PROGRESS", "The job is already being processed")
	case errors.Is(err, ErrGenerationFailed):
		response.Error(w, http.StatusInternalServerError, "GENERATION_FAILED", "Image generation failed, retry the job at no extra cost")
	default:
		log.Error().Err(err).Str("user_id", userID.String()).Msg("generation request failed")
		response.InternalError(w)
	}
}

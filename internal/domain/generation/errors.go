package generation

import "errors"

var (
	ErrJobNotFound      = errors.New("generation job not found")
	ErrNotOwner         = errors.New("job belongs to another user")
	ErrRetryInProgress  = errors.New("the job is already being processed")
	ErrInvalidQuantity  = errors.New("quantity must be between 1 and 4")
	ErrTemplateNotFound = errors.New("template not found")
	ErrFileTooLarge     = errors.New("image exceeds the maximum file size")
	ErrInvalidFileType  = errors.New("unsupported image type")
	ErrGenerationFailed = errors.New("image generation failed")
)

package imaging

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// MaxFileSize in bytes (10MB)
const MaxFileSize int64 = 10 * 1024 * 1024

// Probe returns the pixel dimensions of an encoded image.
// Dimensions come from decoding the bytes, never from external metadata.
// Undecodable input yields 0x0; callers must tolerate zero dimensions.
func Probe(data []byte) (width, height int) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	bounds := img.Bounds()
	return bounds.Dx(), bounds.Dy()
}

// ValidateType checks if a filename has a supported image extension
func ValidateType(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	default:
		return false
	}
}

// ValidateMime checks the declared content type is an image type
func ValidateMime(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}

package storage

import (
	"context"
	"io"
)

// Storage defines the minimal interface for blob storage backends.
// One instance per bucket: originals and generated images live apart.
type Storage interface {
	// Save stores a file at the given key and returns an error on failure.
	Save(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Load reads the full contents of a file by its key.
	Load(ctx context.Context, key string) ([]byte, error)

	// Delete removes a file by its key. Returns nil if file doesn't exist.
	Delete(ctx context.Context, key string) error

	// GetURL returns the public URL for a file given its key.
	GetURL(key string) string
}

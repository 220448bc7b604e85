package providers

import (
	"context"
	"io"
)

// ImageStore defines the interface for spot image blob storage. Filenames
// are generated by the store; callers only keep the returned reference.
type ImageStore interface {
	// Save stores an image and returns its reference
	Save(ctx context.Context, data io.Reader, contentType string) (string, error)

	// Open reads a stored image
	Open(ctx context.Context, ref string) (io.ReadCloser, error)

	// Delete removes a stored image
	Delete(ctx context.Context, ref string) error

	// Exists checks whether a reference resolves to a stored image
	Exists(ctx context.Context, ref string) (bool, error)

	// List enumerates all stored references; used by moderation sweeps
	List(ctx context.Context) ([]string, error)

	// URL returns the public URL for a stored reference
	URL(ref string) string
}

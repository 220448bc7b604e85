package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/wardweistra/parkour-spot-api/internal/domain/providers"
	apperrors "github.com/wardweistra/parkour-spot-api/pkg/errors"
)

// extensions for the content types spot submissions accept
var extByContentType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// DiskImageStore implements the ImageStore interface on the local filesystem.
// References are flat filenames inside the root directory.
type DiskImageStore struct {
	root    string
	baseURL string
}

// NewDiskImageStore creates a disk image store rooted at the given directory
func NewDiskImageStore(root, baseURL string) (providers.ImageStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image store root: %w", err)
	}
	return &DiskImageStore{
		root:    root,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Save stores an image and returns its reference
func (s *DiskImageStore) Save(ctx context.Context, data io.Reader, contentType string) (string, error) {
	ext, ok := extByContentType[contentType]
	if !ok {
		return "", apperrors.NewValidationError(fmt.Sprintf("unsupported image content type: %s", contentType))
	}

	ref := uuid.New().String() + ext
	path := filepath.Join(s.root, ref)

	// Write through a temp file so a failed upload never leaves a partial image
	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return "", apperrors.NewInternalError("failed to create image file", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", apperrors.NewInternalError("failed to write image", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", apperrors.NewInternalError("failed to close image file", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", apperrors.NewInternalError("failed to store image", err)
	}

	return ref, nil
}

// Open reads a stored image
func (s *DiskImageStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	path, err := s.refPath(ref)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("image %s not found", ref))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to open image", err)
	}
	return file, nil
}

// Delete removes a stored image
func (s *DiskImageStore) Delete(ctx context.Context, ref string) error {
	path, err := s.refPath(ref)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return apperrors.NewNotFoundError(fmt.Sprintf("image %s not found", ref))
		}
		return apperrors.NewInternalError("failed to delete image", err)
	}
	return nil
}

// Exists checks whether a reference resolves to a stored image
func (s *DiskImageStore) Exists(ctx context.Context, ref string) (bool, error) {
	path, err := s.refPath(ref)
	if err != nil {
		return false, err
	}

	_, statErr := os.Stat(path)
	if os.IsNotExist(statErr) {
		return false, nil
	}
	if statErr != nil {
		return false, apperrors.NewInternalError("failed to stat image", statErr)
	}
	return true, nil
}

// List enumerates all stored references
func (s *DiskImageStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list images", err)
	}

	refs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		refs = append(refs, entry.Name())
	}
	return refs, nil
}

// URL returns the public URL for a stored reference
func (s *DiskImageStore) URL(ref string) string {
	return s.baseURL + "/" + ref
}

// refPath validates a reference and resolves it inside the root. References
// containing path separators are rejected to keep lookups inside the store.
func (s *DiskImageStore) refPath(ref string) (string, error) {
	if ref == "" || ref != filepath.Base(ref) || strings.HasPrefix(ref, ".") {
		return "", apperrors.NewValidationError(fmt.Sprintf("invalid image reference: %s", ref))
	}
	return filepath.Join(s.root, ref), nil
}

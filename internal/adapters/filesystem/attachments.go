// Package filesystem contains filesystem-based adapter implementations.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/example/siteops/internal/ports/secondary"
)

// AttachmentStore implements secondary.AttachmentStore on a local directory.
// Files land in <base>/<project>/<log>/<uuid>-<name>.
type AttachmentStore struct {
	basePath string
}

// NewAttachmentStore creates a store rooted at basePath.
// If basePath is empty, defaults to ~/.siteops/attachments.
func NewAttachmentStore(basePath string) (*AttachmentStore, error) {
	if basePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		basePath = filepath.Join(home, ".siteops", "attachments")
	}

	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve attachment dir: %w", err)
	}
	return &AttachmentStore{basePath: abs}, nil
}

// Upload copies the attachment body to disk and returns its path.
func (s *AttachmentStore) Upload(ctx context.Context, a secondary.Attachment) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name, err := cleanName(a.FileName)
	if err != nil {
		return "", err
	}
	if a.ProjectID == "" || a.LogID == "" {
		return "", errors.New("attachment needs a project and a log")
	}

	dir := filepath.Join(s.basePath, filepath.Base(a.ProjectID), filepath.Base(a.LogID))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	path := filepath.Join(dir, uuid.NewString()[:8]+"-"+name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create attachment: %w", err)
	}

	if _, err := io.Copy(f, a.Body); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write attachment: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write attachment: %w", err)
	}
	return path, nil
}

// BasePath returns the root directory of the store.
func (s *AttachmentStore) BasePath() string {
	return s.basePath
}

// cleanName keeps only the final element of a client-supplied file name.
func cleanName(name string) (string, error) {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == ".." || strings.TrimSpace(base) == "" {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return base, nil
}

// Ensure AttachmentStore implements the interface
var _ secondary.AttachmentStore = (*AttachmentStore)(nil)

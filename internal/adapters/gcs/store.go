// Package gcs stores photo attachments in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/example/siteops/internal/ports/secondary"
)

const publicHost = "https://storage.googleapis.com"

// Store implements secondary.AttachmentStore on one bucket.
type Store struct {
	bucket    string
	prefix    string
	newWriter func(ctx context.Context, object, contentType string) io.WriteCloser
	close     func() error
}

// NewStore opens a client for bucket. Without credentialsFile the
// application default credentials are used.
func NewStore(ctx context.Context, bucket, prefix, credentialsFile string) (*Store, error) {
	if bucket == "" {
		return nil, errors.New("gcs: bucket is required")
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	handle := client.Bucket(bucket)
	return &Store{
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		newWriter: func(ctx context.Context, object, contentType string) io.WriteCloser {
			w := handle.Object(object).NewWriter(ctx)
			w.ContentType = contentType
			return w
		},
		close: client.Close,
	}, nil
}

// ObjectName returns where an attachment is stored inside the bucket.
func (s *Store) ObjectName(a secondary.Attachment) string {
	name := path.Base(strings.ReplaceAll(a.FileName, "\\", "/"))
	object := path.Join(path.Base(a.ProjectID), path.Base(a.LogID), uuid.NewString()[:8]+"-"+name)
	if s.prefix != "" {
		object = s.prefix + "/" + object
	}
	return object
}

// Upload streams the attachment to the bucket and returns its public URL.
func (s *Store) Upload(ctx context.Context, a secondary.Attachment) (string, error) {
	if a.ProjectID == "" || a.LogID == "" {
		return "", errors.New("attachment needs a project and a log")
	}
	if strings.TrimSpace(a.FileName) == "" {
		return "", errors.New("attachment needs a file name")
	}

	contentType := a.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	object := s.ObjectName(a)
	w := s.newWriter(ctx, object, contentType)
	if _, err := io.Copy(w, a.Body); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to upload %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", object, err)
	}
	return fmt.Sprintf("%s/%s/%s", publicHost, s.bucket, object), nil
}

// Close releases the storage client.
func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

var _ secondary.AttachmentStore = (*Store)(nil)

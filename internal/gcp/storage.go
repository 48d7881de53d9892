package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// ErrObjectTooLarge is returned by Read when an object exceeds the caller's limit.
var ErrObjectTooLarge = errors.New("object exceeds size limit")

const (
	uploadRetries  = 4
	uploadTimeout  = 50 * time.Second
	initialBackoff = 1 * time.Second
)

// ObjectStore reads and writes Cloud Storage objects.
type ObjectStore struct {
	client *storage.Client
}

// NewObjectStore creates a Storage client.
func NewObjectStore(ctx context.Context) (*ObjectStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	return &ObjectStore{client: client}, nil
}

// Close releases the underlying client.
func (s *ObjectStore) Close() error {
	return s.client.Close()
}

// Read downloads an object, failing with ErrObjectTooLarge past limit bytes.
func (s *ObjectStore) Read(ctx context.Context, bucket, object string, limit int64) ([]byte, error) {
	reader, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get GCS object reader for gs://%s/%s: %w", bucket, object, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(io.LimitReader(reader, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", bucket, object, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("gs://%s/%s: %w (%d bytes max)", bucket, object, ErrObjectTooLarge, limit)
	}
	return data, nil
}

// WriteOnce writes content to a GCS object only if it doesn't already exist.
// An existing object is not a failure in an idempotent workflow.
func (s *ObjectStore) WriteOnce(ctx context.Context, bucket, object string, content []byte, contentType string) error {
	writer := s.client.Bucket(bucket).Object(object).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := io.Copy(writer, bytes.NewReader(content)); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write to GCS: %w", err)
	}

	if err := writer.Close(); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
			slog.Info("Object already exists, skipping write.", "gcsObject", object)
			return nil
		}
		return fmt.Errorf("failed to finalize GCS write of %s: %w", object, err)
	}
	return nil
}

// Upload writes content to an object, overwriting it, retrying with
// exponential backoff.
func (s *ObjectStore) Upload(ctx context.Context, bucket, object string, content []byte, contentType string) error {
	err := retry(ctx, uploadRetries, initialBackoff, object, func() error {
		return s.upload(ctx, bucket, object, content, contentType)
	})
	if err != nil {
		return fmt.Errorf("upload for %s failed after all retries: %w", object, err)
	}
	return nil
}

// sleep waits for d or until ctx is done.
var sleep = func(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// retry calls fn up to attempts times, doubling the wait between attempts.
// There is no wait after the final attempt.
func retry(ctx context.Context, attempts int, backoff time.Duration, object string, fn func() error) error {
	var lastErr error
	for i := 0; i < attempts; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if i == attempts-1 {
			break
		}

		slog.Warn(
			"Upload failed, will retry.",
			"gcsObject", object,
			"attempt", i+1,
			"maxRetries", attempts,
			"backoff", backoff.String(),
			"error", err,
		)
		if err := sleep(ctx, backoff); err != nil {
			slog.Error("Context cancelled during backoff. Aborting retries.", "gcsObject", object, "error", err)
			return err
		}
		backoff *= 2
	}
	slog.Error("Upload failed after all retries.", "gcsObject", object, "error", lastErr)
	return lastErr
}

func (s *ObjectStore) upload(ctx context.Context, bucket, object string, content []byte, contentType string) error {
	writeCtx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	writer := s.client.Bucket(bucket).Object(object).NewWriter(writeCtx)
	writer.ContentType = contentType
	if _, err := io.Copy(writer, bytes.NewReader(content)); err != nil {
		_ = writer.Close()
		return fmt.Errorf("io.Copy to GCS failed: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer (finalize upload): %w", err)
	}
	return nil
}

// URI formats a gs:// object URI.
func URI(bucket, object string) string {
	return fmt.Sprintf("gs://%s/%s", bucket, object)
}

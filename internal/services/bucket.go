package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"time"

	"github.com/Lllllllleong/trackabledocs/internal/archive"
	"github.com/Lllllllleong/trackabledocs/internal/gcp"
	"github.com/Lllllllleong/trackabledocs/internal/models"
	"github.com/Lllllllleong/trackabledocs/internal/sheet"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const publishConcurrency = 10

// ObjectStore is the subset of Cloud Storage the bucket function needs.
type ObjectStore interface {
	Read(ctx context.Context, bucket, object string, limit int64) ([]byte, error)
	WriteOnce(ctx context.Context, bucket, object string, content []byte, contentType string) error
	Upload(ctx context.Context, bucket, object string, content []byte, contentType string) error
}

// WorkflowLauncher starts the downstream workflow for a finished batch.
type WorkflowLauncher interface {
	Launch(ctx context.Context, payload any) (string, error)
}

type BucketConfig struct {
	ProjectID         string
	OutputBucket      string
	CollectionName    string
	TrackingBaseURL   string
	LayoutFile        string
	ValidateDocuments bool
	PublishDocuments  bool
	MaxInputBytes     int64
	WorkflowID        string
	WorkflowLocation  string
}

// BucketFunction converts spreadsheets dropped into a bucket.
type BucketFunction struct {
	store     ObjectStore
	recorder  BatchRecorder
	workflows WorkflowLauncher
	generator *Generator
	config    BucketConfig
	newID     func() string
}

type GCSEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

func NewBucketFunction(ctx context.Context) (*BucketFunction, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	maxBytes, err := gcp.GetEnvInt64("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes)
	if err != nil {
		return nil, err
	}
	validate, err := gcp.GetEnvBool("VALIDATE_DOCUMENTS", false)
	if err != nil {
		return nil, err
	}
	publish, err := gcp.GetEnvBool("PUBLISH_DOCUMENTS", false)
	if err != nil {
		return nil, err
	}

	config := BucketConfig{
		ProjectID:         projectID,
		OutputBucket:      gcp.GetEnv("OUTPUT_BUCKET", ""),
		CollectionName:    gcp.GetEnv("FIRESTORE_COLLECTION", "document_batches"),
		TrackingBaseURL:   gcp.GetEnv("TRACKING_BASE_URL", DefaultTrackingBaseURL),
		LayoutFile:        gcp.GetEnv("LAYOUT_FILE", ""),
		ValidateDocuments: validate,
		PublishDocuments:  publish,
		MaxInputBytes:     maxBytes,
		WorkflowID:        gcp.GetEnv("WORKFLOW_ID", ""),
		WorkflowLocation:  gcp.GetEnv("WORKFLOW_LOCATION", "us-central1"),
	}
	if config.OutputBucket == "" {
		return nil, fmt.Errorf("OUTPUT_BUCKET environment variable must be set")
	}

	generator, err := NewGeneratorFromSettings(config.LayoutFile, config.ValidateDocuments)
	if err != nil {
		return nil, err
	}
	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	store, err := gcp.NewObjectStore(ctx)
	if err != nil {
		return nil, err
	}
	var launcher WorkflowLauncher
	if config.WorkflowID != "" {
		if launcher, err = gcp.NewWorkflowLauncher(ctx, config.ProjectID, config.WorkflowLocation, config.WorkflowID); err != nil {
			return nil, err
		}
	}

	f := NewBucketFunctionWith(config, generator, store, NewFirestoreRecorder(firestoreClient, config.CollectionName), launcher)
	slog.Info("Bucket function initialized.", "outputBucket", config.OutputBucket, "workflowId", config.WorkflowID, "publishDocuments", config.PublishDocuments)
	return f, nil
}

// NewBucketFunctionWith assembles a BucketFunction from explicit parts. A nil
// launcher disables the workflow hand-off.
func NewBucketFunctionWith(config BucketConfig, generator *Generator, store ObjectStore, recorder BatchRecorder, launcher WorkflowLauncher) *BucketFunction {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if config.MaxInputBytes <= 0 {
		config.MaxInputBytes = DefaultMaxUploadBytes
	}
	return &BucketFunction{
		store:     store,
		recorder:  recorder,
		workflows: launcher,
		generator: generator,
		config:    config,
		newID:     uuid.NewString,
	}
}

// Process handles one finalized object. Spreadsheets the client got wrong
// are recorded as REJECTED and acknowledged, since retrying cannot fix them.
func (f *BucketFunction) Process(ctx context.Context, e GCSEvent) error {
	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name)

	if e.Bucket == f.config.OutputBucket {
		logCtx.Info("Ignoring object in the output bucket.")
		return nil
	}
	if !sheet.Supported(e.Name) {
		logCtx.Info("Ignoring object with unsupported extension.")
		return nil
	}
	logCtx.Info("Processing new GCS object.")

	data, err := f.store.Read(ctx, e.Bucket, e.Name, f.config.MaxInputBytes)
	if err != nil {
		if errors.Is(err, gcp.ErrObjectTooLarge) {
			logCtx.Warn("Spreadsheet too large, skipping.", "error", err)
			return nil
		}
		logCtx.Error("Failed to download spreadsheet", "error", err)
		return err
	}

	fileHash := calculateFileHash(data)
	logCtx = logCtx.With("fileHash", fileHash)

	existingID, isDuplicate, err := f.recorder.FindByHash(ctx, fileHash)
	if err != nil {
		logCtx.Error("Failed to check for duplicate", "error", err)
		return err
	}
	if isDuplicate {
		logCtx.Info("Duplicate file detected. Skipping.", "existingBatchId", existingID)
		return nil
	}

	batchID := f.newID()
	logCtx = logCtx.With("batchId", batchID)
	batch := models.Batch{
		FileHash:         fileHash,
		OriginalFilename: path.Base(e.Name),
		Source:           models.SourceBucket,
		SourceURI:        gcp.URI(e.Bucket, e.Name),
		Status:           models.BatchStatusProcessing,
		TrackingBaseURL:  f.config.TrackingBaseURL,
		CreatedAt:        time.Now(),
	}
	if err := f.recorder.Begin(ctx, batchID, batch); err != nil {
		logCtx.Error("Failed to create batch record", "error", err)
		return err
	}
	logCtx.Info("Created batch record in Firestore.")

	res, err := f.generator.Process(ctx, data, path.Base(e.Name), f.config.TrackingBaseURL)
	if err != nil {
		if IsClientError(err) {
			f.markFailed(ctx, logCtx, batchID, models.BatchStatusRejected, err)
			logCtx.Warn("Spreadsheet rejected.", "error", err)
			return nil
		}
		return f.handleError(ctx, logCtx, batchID, "failed to generate documents", err)
	}

	archiveObject := path.Join(batchID, ArchiveFilename)
	if err := f.store.WriteOnce(ctx, f.config.OutputBucket, archiveObject, res.Archive, "application/zip"); err != nil {
		return f.handleError(ctx, logCtx, batchID, "failed to store archive", err)
	}
	archiveURI := gcp.URI(f.config.OutputBucket, archiveObject)
	logCtx.Info("Archive stored.", "archiveUri", archiveURI, "documents", len(res.Entries))

	if f.config.PublishDocuments {
		if err := f.publishDocuments(ctx, logCtx, batchID, res.Archive); err != nil {
			return f.handleError(ctx, logCtx, batchID, "one or more documents failed to upload", err)
		}
	}

	if err := f.recorder.Complete(ctx, batchID, res, archiveURI); err != nil {
		return f.handleError(ctx, logCtx, batchID, "failed to mark batch as completed", err)
	}

	if f.workflows != nil {
		if err := f.triggerWorkflow(ctx, logCtx, batchID, archiveURI, len(res.Entries)); err != nil {
			return err
		}
	}

	logCtx.Info("Batch complete.")
	return nil
}

// publishDocuments uploads every archived PDF next to the archive.
func (f *BucketFunction) publishDocuments(ctx context.Context, logCtx *slog.Logger, batchID string, zipData []byte) error {
	files, err := archive.Read(zipData)
	if err != nil {
		return err
	}
	logCtx.Info("Starting concurrent upload of documents.", "documents", len(files))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(publishConcurrency)
	for i, file := range files {
		object, err := documentObject(batchID, i, file.Name)
		if err != nil {
			return err
		}
		eg.Go(func() error {
			if err := f.store.Upload(gctx, f.config.OutputBucket, object, file.Data, "application/pdf"); err != nil {
				return fmt.Errorf("%s: %w", file.Name, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	logCtx.Info("All documents uploaded successfully.")
	return nil
}

// documentObject names the published copy of the i-th archive entry. The row
// prefix keeps repeated identifiers apart and the escaped name cannot leave
// the batch prefix.
func documentObject(batchID string, i int, name string) (string, error) {
	object := path.Join(batchID, fmt.Sprintf("%05d_%s", i+1, url.PathEscape(name)))
	if path.Dir(object) != batchID {
		return "", fmt.Errorf("document %q resolves outside batch %s", name, batchID)
	}
	return object, nil
}

func (f *BucketFunction) triggerWorkflow(ctx context.Context, logCtx *slog.Logger, batchID, archiveURI string, documentCount int) error {
	logCtx.Info("Triggering workflow.")
	executionID, err := f.workflows.Launch(ctx, models.WorkflowRequest{
		BatchID:       batchID,
		ArchiveURI:    archiveURI,
		DocumentCount: documentCount,
	})
	if err != nil {
		return f.handleError(ctx, logCtx, batchID, "failed to trigger workflow execution", err)
	}
	if err := f.recorder.SetWorkflowExecution(ctx, batchID, executionID); err != nil {
		logCtx.Error("Failed to record workflow execution.", "executionId", executionID, "error", err)
	}
	return nil
}

func (f *BucketFunction) handleError(ctx context.Context, logCtx *slog.Logger, batchID, message string, originalErr error) error {
	logCtx.Error(message, "error", originalErr)
	f.markFailed(ctx, logCtx, batchID, models.BatchStatusFailed, fmt.Errorf("%s: %w", message, originalErr))
	return fmt.Errorf("%s: %w", message, originalErr)
}

func (f *BucketFunction) markFailed(ctx context.Context, logCtx *slog.Logger, batchID, status string, cause error) {
	if err := f.recorder.Fail(ctx, batchID, status, cause.Error()); err != nil {
		logCtx.Error("CRITICAL: Failed to update Firestore status after a processing error.", "updateError", err)
	}
}

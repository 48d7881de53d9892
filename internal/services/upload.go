package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Lllllllleong/trackabledocs/internal/gcp"
	"github.com/Lllllllleong/trackabledocs/internal/models"
	"github.com/Lllllllleong/trackabledocs/internal/sheet"
	"github.com/google/uuid"
)

const (
	// DefaultTrackingBaseURL prefixes identifiers when TRACKING_BASE_URL is unset.
	DefaultTrackingBaseURL = "http://localhost:8080/documento/"

	// UploadField is the multipart form field carrying the spreadsheet.
	UploadField = "file"

	multipartMemory = 8 << 20
)

// DefaultMaxUploadBytes bounds the accepted spreadsheet size.
const DefaultMaxUploadBytes int64 = 16 << 20

type UploadConfig struct {
	TrackingBaseURL   string
	MaxUploadBytes    int64
	LayoutFile        string
	ValidateDocuments bool
	ProjectID         string
	CollectionName    string
}

// LoadUploadConfig reads the upload function settings from the environment.
func LoadUploadConfig() (UploadConfig, error) {
	maxBytes, err := gcp.GetEnvInt64("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes)
	if err != nil {
		return UploadConfig{}, err
	}
	validate, err := gcp.GetEnvBool("VALIDATE_DOCUMENTS", false)
	if err != nil {
		return UploadConfig{}, err
	}
	return UploadConfig{
		TrackingBaseURL:   gcp.GetEnv("TRACKING_BASE_URL", DefaultTrackingBaseURL),
		MaxUploadBytes:    maxBytes,
		LayoutFile:        gcp.GetEnv("LAYOUT_FILE", ""),
		ValidateDocuments: validate,
		ProjectID:         gcp.GetEnv("PROJECT_ID", ""),
		CollectionName:    gcp.GetEnv("FIRESTORE_COLLECTION", "document_batches"),
	}, nil
}

// UploadFunction serves the synchronous spreadsheet to zip conversion.
type UploadFunction struct {
	generator *Generator
	recorder  BatchRecorder
	config    UploadConfig
}

// NewUploadFunction wires an UploadFunction from the environment. Batch
// records are kept in Firestore only when PROJECT_ID is set.
func NewUploadFunction(ctx context.Context) (*UploadFunction, error) {
	config, err := LoadUploadConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	generator, err := NewGeneratorFromSettings(config.LayoutFile, config.ValidateDocuments)
	if err != nil {
		return nil, err
	}

	var recorder BatchRecorder = nopRecorder{}
	if config.ProjectID != "" {
		firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("failed to create firestore client: %w", err)
		}
		recorder = NewFirestoreRecorder(firestoreClient, config.CollectionName)
	}

	f := NewUploadFunctionWith(config, generator, recorder)
	slog.Info("Upload function initialized.",
		"trackingBaseUrl", config.TrackingBaseURL,
		"maxUploadBytes", config.MaxUploadBytes,
		"batchRecords", config.ProjectID != "",
	)
	return f, nil
}

// NewUploadFunctionWith assembles an UploadFunction from explicit parts.
// A nil recorder disables batch records.
func NewUploadFunctionWith(config UploadConfig, generator *Generator, recorder BatchRecorder) *UploadFunction {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return &UploadFunction{generator: generator, recorder: recorder, config: config}
}

// ServeHTTP accepts a multipart upload and answers with the zip archive.
func (f *UploadFunction) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSONError(w, http.StatusMethodNotAllowed, "Método não permitido.", "")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, f.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			slog.Warn("Rejected oversized upload.", "limit", maxErr.Limit)
			writeJSONError(w, http.StatusRequestEntityTooLarge, tooLargeMessage, "")
			return
		}
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			writeJSONError(w, http.StatusBadRequest, badRequestMessage, "")
			return
		}
		slog.Warn("Could not parse multipart form.", "error", err)
		writeJSONError(w, http.StatusBadRequest, badRequestMessage, "")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(UploadField)
	if err != nil || header.Filename == "" {
		writeJSONError(w, http.StatusBadRequest, missingFileMessage, "")
		return
	}
	defer file.Close()

	if !sheet.Supported(header.Filename) {
		slog.Warn("Rejected upload with unsupported extension.", "filename", header.Filename)
		writeJSONError(w, http.StatusBadRequest, unsupportedFormatMessage, "")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		slog.Error("Failed to read uploaded file.", "filename", header.Filename, "error", err)
		writeJSONError(w, http.StatusInternalServerError, UserMessage(err), "")
		return
	}

	batchID := uuid.NewString()
	res, err := f.process(r.Context(), batchID, header.Filename, data)
	if err != nil {
		writeJSONError(w, StatusCode(err), UserMessage(err), batchID)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ArchiveFilename))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Archive)))
	w.Header().Set("X-Batch-Id", batchID)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Archive); err != nil {
		slog.Error("Failed to write response.", "batchId", batchID, "error", err)
	}
}

// process runs the generator and keeps the batch record in step. Record
// failures are logged and never fail the request.
func (f *UploadFunction) process(ctx context.Context, batchID, filename string, data []byte) (*Result, error) {
	logCtx := slog.With("batchId", batchID, "filename", filename)
	logCtx.Info("Processing uploaded spreadsheet.", "bytes", len(data))

	batch := models.Batch{
		FileHash:         calculateFileHash(data),
		OriginalFilename: filename,
		Source:           models.SourceUpload,
		Status:           models.BatchStatusProcessing,
		TrackingBaseURL:  f.config.TrackingBaseURL,
		CreatedAt:        time.Now(),
	}
	if err := f.recorder.Begin(ctx, batchID, batch); err != nil {
		logCtx.Error("Failed to create batch record.", "error", err)
	}

	res, err := f.generator.Process(ctx, data, filename, f.config.TrackingBaseURL)
	if err != nil {
		if recErr := f.recorder.Fail(ctx, batchID, failureStatus(err), err.Error()); recErr != nil {
			logCtx.Error("Failed to update batch status after a processing error.", "updateError", recErr)
		}
		return nil, err
	}

	if err := f.recorder.Complete(ctx, batchID, res, ""); err != nil {
		logCtx.Error("Failed to mark batch as completed.", "error", err)
	}
	logCtx.Info("Upload processed.", "documents", len(res.Entries), "archiveBytes", len(res.Archive))
	return res, nil
}

func writeJSONError(w http.ResponseWriter, status int, message, batchID string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(models.ErrorResponse{Error: message, BatchID: batchID}); err != nil {
		slog.Error("Failed to write error response.", "error", err)
	}
}

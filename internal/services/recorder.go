package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/trackabledocs/internal/models"
)

// BatchRecorder persists the lifecycle of a batch.
type BatchRecorder interface {
	// FindByHash returns the ID of a batch for the file hash that is still
	// processing or has reached a final outcome. Failed batches are ignored.
	FindByHash(ctx context.Context, fileHash string) (string, bool, error)
	Begin(ctx context.Context, batchID string, batch models.Batch) error
	Complete(ctx context.Context, batchID string, res *Result, archiveURI string) error
	Fail(ctx context.Context, batchID, status, details string) error
	SetWorkflowExecution(ctx context.Context, batchID, executionID string) error
}

// FirestoreRecorder stores one document per batch in a Firestore collection.
type FirestoreRecorder struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreRecorder(client *firestore.Client, collection string) *FirestoreRecorder {
	return &FirestoreRecorder{client: client, collection: collection}
}

// duplicateStatuses are the batch states that make a later event for the same
// file a duplicate. FAILED batches stay retryable.
var duplicateStatuses = []string{
	models.BatchStatusProcessing,
	models.BatchStatusCompleted,
	models.BatchStatusRejected,
}

func isDuplicateStatus(status string) bool {
	return slices.Contains(duplicateStatuses, status)
}

func (r *FirestoreRecorder) FindByHash(ctx context.Context, fileHash string) (string, bool, error) {
	docs, err := r.client.Collection(r.collection).
		Where("fileHash", "==", fileHash).
		Where("status", "in", duplicateStatuses).
		Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return "", false, fmt.Errorf("failed to query for duplicates: %w", err)
	}
	if len(docs) > 0 {
		return docs[0].Ref.ID, true, nil
	}
	return "", false, nil
}

func (r *FirestoreRecorder) Begin(ctx context.Context, batchID string, batch models.Batch) error {
	if _, err := r.client.Collection(r.collection).Doc(batchID).Set(ctx, batch); err != nil {
		return fmt.Errorf("failed to create batch document: %w", err)
	}
	return nil
}

func (r *FirestoreRecorder) Complete(ctx context.Context, batchID string, res *Result, archiveURI string) error {
	updates := []firestore.Update{
		{Path: "status", Value: models.BatchStatusCompleted},
		{Path: "documentCount", Value: len(res.Entries)},
		{Path: "pageCount", Value: res.Pages()},
	}
	if archiveURI != "" {
		updates = append(updates, firestore.Update{Path: "archiveUri", Value: archiveURI})
	}
	return r.update(ctx, batchID, updates)
}

func (r *FirestoreRecorder) Fail(ctx context.Context, batchID, status, details string) error {
	updates := []firestore.Update{
		{Path: "status", Value: status},
	}
	if details != "" {
		updates = append(updates, firestore.Update{Path: "errorDetails", Value: details})
	}
	return r.update(ctx, batchID, updates)
}

func (r *FirestoreRecorder) SetWorkflowExecution(ctx context.Context, batchID, executionID string) error {
	return r.update(ctx, batchID, []firestore.Update{
		{Path: "workflowExecutionId", Value: executionID},
	})
}

func (r *FirestoreRecorder) update(ctx context.Context, batchID string, updates []firestore.Update) error {
	if _, err := r.client.Collection(r.collection).Doc(batchID).Update(ctx, updates); err != nil {
		return fmt.Errorf("failed to update batch %s: %w", batchID, err)
	}
	return nil
}

// nopRecorder is used when no Firestore project is configured.
type nopRecorder struct{}

func (nopRecorder) FindByHash(context.Context, string) (string, bool, error) {
	return "", false, nil
}

func (nopRecorder) Begin(context.Context, string, models.Batch) error {
	return nil
}

func (nopRecorder) Complete(context.Context, string, *Result, string) error {
	return nil
}

func (nopRecorder) Fail(context.Context, string, string, string) error {
	return nil
}

func (nopRecorder) SetWorkflowExecution(context.Context, string, string) error {
	return nil
}

func calculateFileHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// failureStatus picks the batch status recorded for a Process error.
func failureStatus(err error) string {
	if IsClientError(err) {
		return models.BatchStatusRejected
	}
	return models.BatchStatusFailed
}

package models

import "time"

// Batch statuses stored in Firestore.
const (
	BatchStatusProcessing = "PROCESSING"
	BatchStatusCompleted  = "COMPLETED"
	BatchStatusRejected   = "REJECTED"
	BatchStatusFailed     = "FAILED"
)

// Batch sources.
const (
	SourceUpload = "upload"
	SourceBucket = "bucket"
)

// Batch represents one spreadsheet conversion job in Firestore.
// It tracks the overall status and metadata of the run.
type Batch struct {
	FileHash            string    `firestore:"fileHash,omitempty"`
	OriginalFilename    string    `firestore:"originalFilename,omitempty"`
	Source              string    `firestore:"source,omitempty"`
	SourceURI           string    `firestore:"sourceUri,omitempty"`
	Status              string    `firestore:"status,omitempty"`
	ErrorDetails        string    `firestore:"errorDetails,omitempty"`
	TrackingBaseURL     string    `firestore:"trackingBaseUrl,omitempty"`
	DocumentCount       int       `firestore:"documentCount,omitempty"`
	PageCount           int       `firestore:"pageCount,omitempty"`
	ArchiveURI          string    `firestore:"archiveUri,omitempty"`
	WorkflowExecutionID string    `firestore:"workflowExecutionId,omitempty"` // For traceability
	CreatedAt           time.Time `firestore:"createdAt,omitempty"`
}

package models

// These structs define the JSON payloads exchanged with HTTP clients and the
// downstream Cloud Workflow.

// ErrorResponse is the body of every failed upload response.
type ErrorResponse struct {
	Error   string `json:"error"`
	BatchID string `json:"batchId,omitempty"`
}

// HealthResponse is returned by the standalone server's health check.
type HealthResponse struct {
	Status string `json:"status"`
}

// WorkflowRequest is the argument passed to the post-processing workflow
// once a batch archive is stored.
type WorkflowRequest struct {
	BatchID       string `json:"batchId"`
	ArchiveURI    string `json:"archiveUri"`
	DocumentCount int    `json:"documentCount"`
}

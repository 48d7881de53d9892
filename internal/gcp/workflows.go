package gcp

import (
	"context"
	"encoding/json"
	"fmt"

	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"
)

// WorkflowLauncher starts executions of a single Cloud Workflow.
type WorkflowLauncher struct {
	client *executions.Client
	parent string
}

// NewWorkflowLauncher creates an executions client bound to one workflow.
func NewWorkflowLauncher(ctx context.Context, projectID, location, workflowID string) (*WorkflowLauncher, error) {
	client, err := executions.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
	}
	return &WorkflowLauncher{
		client: client,
		parent: fmt.Sprintf("projects/%s/locations/%s/workflows/%s", projectID, location, workflowID),
	}, nil
}

// Launch starts an execution with payload as its JSON argument and returns
// the execution name.
func (l *WorkflowLauncher) Launch(ctx context.Context, payload any) (string, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal workflow payload: %w", err)
	}
	req := &executionspb.CreateExecutionRequest{
		Parent: l.parent,
		Execution: &executionspb.Execution{
			Argument: string(payloadBytes),
		},
	}
	exec, err := l.client.CreateExecution(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to trigger workflow execution: %w", err)
	}
	return exec.GetName(), nil
}

// Close releases the underlying client.
func (l *WorkflowLauncher) Close() error {
	return l.client.Close()
}

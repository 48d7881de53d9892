package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/Lllllllleong/trackabledocs/internal/services"
)

var (
	bucketInstance *services.BucketFunction
	once           sync.Once
	initErr        error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// The framework routes storage finalize events here.
	functions.CloudEvent("GenerateFromUpload", generateFromUpload)
}

// main is required by the Go Functions Framework.
func main() {}

// generateFromUpload is the Cloud Function entry point.
func generateFromUpload(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		bucketInstance, initErr = services.NewBucketFunction(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var gcsEvent services.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	// Errors are logged with context inside Process; returning one marks
	// the invocation as failed so the event is retried.
	return bucketInstance.Process(ctx, gcsEvent)
}

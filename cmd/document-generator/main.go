package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/Lllllllleong/trackabledocs/internal/models"
	"github.com/Lllllllleong/trackabledocs/internal/services"
)

var (
	uploadInstance *services.UploadFunction
	once           sync.Once
	initErr        error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// "GenerateDocuments" is the entry point name configured in GCP.
	functions.HTTP("GenerateDocuments", generateDocuments)
}

// main is required by the Go Functions Framework.
func main() {}

func generateDocuments(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		uploadInstance, initErr = services.NewUploadFunction(context.Background())
	})
	if initErr != nil {
		slog.Error("Upload function initialization failed", "error", initErr)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(models.ErrorResponse{Error: "Serviço indisponível: falha na inicialização."})
		return
	}
	uploadInstance.ServeHTTP(w, r)
}

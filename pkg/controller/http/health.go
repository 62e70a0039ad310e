package http

import (
	"encoding/json"
	"net/http"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/tagship/pkg/domain/interfaces"
	"github.com/m-mizutani/tagship/pkg/domain/model"
	"github.com/m-mizutani/tagship/pkg/domain/types"
)

// healthHandler reports liveness along with the release activity of the server
func healthHandler(webhookUC interfaces.WebhookUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := &model.HealthStatus{
			Status:  "healthy",
			Service: "tagship",
			Version: types.Version,
			Running: webhookUC.Running(),
			LastRun: webhookUC.LastRun(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(status); err != nil {
			ctxlog.From(r.Context()).Error("Failed to encode health response", "error", err)
		}
	}
}

package interfaces

import (
	"context"

	"github.com/m-mizutani/tagship/pkg/domain/model"
)

// WebhookUseCase defines the interface for webhook event processing
type WebhookUseCase interface {
	// ProcessEvent processes a webhook event
	ProcessEvent(ctx context.Context, event *model.WebhookEvent) error

	// Running reports whether a pipeline run is in progress
	Running() bool

	// LastRun returns the summary of the latest finished run, nil before the first one
	LastRun() *model.RunSummary
}

// PipelineRunner runs the release pipeline for a trigger reference
type PipelineRunner interface {
	Run(ctx context.Context, ref string) (*model.RunReport, error)
}

// Notifier delivers the outcome of a pipeline run to the operator
type Notifier interface {
	Notify(ctx context.Context, report *model.RunReport) error
}

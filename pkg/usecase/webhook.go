package usecase

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/tagship/pkg/domain/interfaces"
	"github.com/m-mizutani/tagship/pkg/domain/model"
	"github.com/m-mizutani/tagship/pkg/utils/safe"
)

type webhookUseCase struct {
	pipeline interfaces.PipelineRunner
	checkout *Checkout
	dispatch func(ctx context.Context, handler func(ctx context.Context) error)
	mu       sync.Mutex // one pipeline run at a time, they share the workspace

	running atomic.Bool
	lastMu  sync.RWMutex
	last    *model.RunSummary
}

// WebhookOption configures the webhook use case
type WebhookOption func(*webhookUseCase)

// WithCheckout checks out the pushed tag in the workspace before each run
func WithCheckout(checkout *Checkout) WebhookOption {
	return func(uc *webhookUseCase) {
		uc.checkout = checkout
	}
}

// WithDispatcher replaces the asynchronous executor of pipeline runs
func WithDispatcher(dispatch func(ctx context.Context, handler func(ctx context.Context) error)) WebhookOption {
	return func(uc *webhookUseCase) {
		uc.dispatch = dispatch
	}
}

// NewWebhook creates a new instance of WebhookUseCase
func NewWebhook(pipeline interfaces.PipelineRunner, opts ...WebhookOption) *webhookUseCase {
	uc := &webhookUseCase{
		pipeline: pipeline,
		dispatch: safe.Go,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// ProcessEvent processes a webhook event. A tag push starts a pipeline run in
// the background; other events are only logged.
func (uc *webhookUseCase) ProcessEvent(ctx context.Context, event *model.WebhookEvent) error {
	logger := ctxlog.From(ctx)

	logger.Info("Processing webhook event",
		"id", event.ID,
		"type", event.Type,
		"ref", event.Ref,
		"repository", event.Repository,
		"sender", event.Sender,
		"supported", event.IsSupportedEvent(),
	)

	if !event.IsSupportedEvent() {
		logger.Warn("Unsupported event received",
			"type", event.Type,
			"ref", event.Ref,
		)
		return nil
	}

	if uc.pipeline == nil {
		return goerr.New("pipeline is not configured", goerr.V("ref", event.Ref))
	}

	ref := event.Ref
	uc.dispatch(ctx, func(ctx context.Context) error {
		uc.mu.Lock()
		defer uc.mu.Unlock()

		uc.running.Store(true)
		defer uc.running.Store(false)

		if uc.checkout != nil {
			if err := uc.checkout.Checkout(ctx, ref); err != nil {
				return err
			}
		}

		report, err := uc.pipeline.Run(ctx, ref)
		if report != nil {
			uc.lastMu.Lock()
			uc.last = report.Summary()
			uc.lastMu.Unlock()
		}
		return err
	})

	return nil
}

// Running reports whether a pipeline run is in progress
func (uc *webhookUseCase) Running() bool {
	return uc.running.Load()
}

// LastRun returns the summary of the latest finished run
func (uc *webhookUseCase) LastRun() *model.RunSummary {
	uc.lastMu.RLock()
	defer uc.lastMu.RUnlock()
	return uc.last
}

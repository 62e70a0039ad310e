package notify

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/tagship/pkg/domain/interfaces"
	"github.com/m-mizutani/tagship/pkg/domain/model"
)

type sentryNotifier struct {
	hub          *sentry.Hub
	flushTimeout time.Duration
}

// NewSentry returns a notifier reporting failed runs to Sentry. Successful
// runs are not sent.
func NewSentry(options sentry.ClientOptions) (interfaces.Notifier, error) {
	client, err := sentry.NewClient(options)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create sentry client", goerr.T(model.ErrTagInvalidConfiguration))
	}

	return &sentryNotifier{
		hub:          sentry.NewHub(client, sentry.NewScope()),
		flushTimeout: 5 * time.Second,
	}, nil
}

func (n *sentryNotifier) Notify(ctx context.Context, report *model.RunReport) error {
	if report.Succeeded() {
		return nil
	}

	n.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelError)
		scope.SetTags(map[string]string{
			"run_id":      report.RunID,
			"failed_step": string(report.FailedStep),
			"tag":         report.Tag.String(),
		})
		scope.SetContext("run", sentry.Context{
			"ref":     report.Ref,
			"state":   string(report.State),
			"dry_run": report.DryRun,
			"error":   report.Error,
		})
		n.hub.CaptureMessage(string(report.FailedStep) + " step failed: " + report.Error)
	})

	timeout := n.flushTimeout
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		timeout = time.Until(deadline)
	}
	if !n.hub.Flush(timeout) {
		return goerr.New("timed out sending event to sentry", goerr.V("run_id", report.RunID))
	}
	return nil
}

package notify

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"

	"github.com/m-mizutani/tagship/pkg/domain/interfaces"
	"github.com/m-mizutani/tagship/pkg/domain/model"
)

type slackNotifier struct {
	webhookURL string
}

// NewSlack returns a notifier posting every run outcome to a Slack incoming
// webhook
func NewSlack(webhookURL string) (interfaces.Notifier, error) {
	if webhookURL == "" {
		return nil, goerr.New("slack webhook URL is required", goerr.T(model.ErrTagInvalidConfiguration))
	}
	return &slackNotifier{webhookURL: webhookURL}, nil
}

func (n *slackNotifier) Notify(ctx context.Context, report *model.RunReport) error {
	msg := slackMessage(report)
	if err := slack.PostWebhookContext(ctx, n.webhookURL, msg); err != nil {
		return goerr.Wrap(err, "failed to post slack message", goerr.V("run_id", report.RunID))
	}
	return nil
}

func slackMessage(report *model.RunReport) *slack.WebhookMessage {
	subject := report.Tag.String()
	if subject == "" {
		subject = report.Ref
	}

	attachment := slack.Attachment{
		Fields: []slack.AttachmentField{
			{Title: "Ref", Value: report.Ref, Short: true},
			{Title: "Run ID", Value: report.RunID, Short: true},
		},
	}

	if report.Succeeded() {
		attachment.Color = "good"
		attachment.Title = fmt.Sprintf("Release %s succeeded", subject)
		if report.DryRun {
			attachment.Title = fmt.Sprintf("Release %s built (dry run)", subject)
		}
	} else {
		attachment.Color = "danger"
		attachment.Title = fmt.Sprintf("Release %s failed at %s", subject, report.FailedStep)
		attachment.Text = report.Error
	}

	if report.Artifact != nil {
		attachment.Fields = append(attachment.Fields,
			slack.AttachmentField{Title: "Archive", Value: report.Artifact.ArchiveName, Short: true},
			slack.AttachmentField{Title: "SHA-256", Value: report.Artifact.Checksum},
		)
	}
	if report.Release != nil && report.Release.HTMLURL != "" {
		attachment.TitleLink = report.Release.HTMLURL
	}

	return &slack.WebhookMessage{
		Text:        attachment.Title,
		Attachments: []slack.Attachment{attachment},
	}
}

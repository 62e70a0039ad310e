package config

import "github.com/urfave/cli/v3"

// Notify holds destinations of run outcome notifications. Both are optional.
type Notify struct {
	SlackWebhookURL   string `masq:"secret"`
	SentryDSN         string `masq:"secret"`
	SentryEnvironment string
}

// Flags returns CLI flags for notification configuration
func (c *Notify) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Slack incoming webhook URL notified of every run",
			Destination: &c.SlackWebhookURL,
			Sources:     cli.EnvVars("TAGSHIP_SLACK_WEBHOOK_URL"),
		},
		&cli.StringFlag{
			Name:        "sentry-dsn",
			Usage:       "Sentry DSN receiving failed runs",
			Destination: &c.SentryDSN,
			Sources:     cli.EnvVars("TAGSHIP_SENTRY_DSN"),
		},
		&cli.StringFlag{
			Name:        "sentry-env",
			Usage:       "Sentry environment",
			Value:       "production",
			Destination: &c.SentryEnvironment,
			Sources:     cli.EnvVars("TAGSHIP_SENTRY_ENV"),
		},
	}
}

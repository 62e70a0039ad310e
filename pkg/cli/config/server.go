package config

import "github.com/urfave/cli/v3"

// Server holds server configuration
type Server struct {
	Addr          string
	WebhookSecret string `masq:"secret"`
	Remote        string
}

// Flags returns CLI flags for server configuration
func (c *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Server address",
			Value:       "localhost:8080",
			Destination: &c.Addr,
			Sources:     cli.EnvVars("TAGSHIP_ADDR"),
		},
		&cli.StringFlag{
			Name:        "github-webhook-secret",
			Usage:       "GitHub webhook secret",
			Required:    true,
			Destination: &c.WebhookSecret,
			Sources:     cli.EnvVars("TAGSHIP_GITHUB_WEBHOOK_SECRET"),
		},
		&cli.StringFlag{
			Name:        "git-remote",
			Usage:       "Git remote fetched before checking out a pushed tag",
			Value:       "origin",
			Destination: &c.Remote,
			Sources:     cli.EnvVars("TAGSHIP_GIT_REMOTE"),
		},
	}
}

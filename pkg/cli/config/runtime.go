package config

import (
	"time"

	"github.com/urfave/cli/v3"
)

// Runtime holds knobs of a single pipeline run
type Runtime struct {
	DryRun      bool
	CallTimeout time.Duration
	MaxRetries  uint64
}

// Flags returns CLI flags for runtime configuration
func (c *Runtime) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "Build and package only, skip the release and the formula bump",
			Destination: &c.DryRun,
			Sources:     cli.EnvVars("TAGSHIP_DRY_RUN"),
		},
		&cli.DurationFlag{
			Name:        "call-timeout",
			Usage:       "Timeout of each GitHub API call",
			Value:       2 * time.Minute,
			Destination: &c.CallTimeout,
			Sources:     cli.EnvVars("TAGSHIP_CALL_TIMEOUT"),
		},
		&cli.Uint64Flag{
			Name:        "max-retries",
			Usage:       "Retries of a failed GitHub API call (0 disables retry)",
			Value:       0,
			Destination: &c.MaxRetries,
			Sources:     cli.EnvVars("TAGSHIP_MAX_RETRIES"),
		},
	}
}

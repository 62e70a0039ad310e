package config

import "github.com/urfave/cli/v3"

// Homebrew holds credentials and tooling for the formula bump
type Homebrew struct {
	Token    string `masq:"secret"`
	BrewPath string
}

// Flags returns CLI flags for Homebrew configuration
func (c *Homebrew) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "homebrew-token",
			Usage:       "GitHub token used by brew to open the formula pull request",
			Destination: &c.Token,
			Sources:     cli.EnvVars("TAGSHIP_HOMEBREW_TOKEN", "HOMEBREW_GITHUB_API_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "brew-path",
			Usage:       "Path to the brew executable",
			Value:       "brew",
			Destination: &c.BrewPath,
			Sources:     cli.EnvVars("TAGSHIP_BREW_PATH"),
		},
	}
}

package config

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/tagship/pkg/domain/model"
)

// GitHub holds GitHub API configuration
type GitHub struct {
	Token      string `masq:"secret"`
	APIURL     string
	UploadURL  string
	Repository string
}

// Flags returns CLI flags for GitHub configuration
func (c *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "github-token",
			Usage:       "GitHub token used to create releases and upload assets",
			Destination: &c.Token,
			Sources:     cli.EnvVars("TAGSHIP_GITHUB_TOKEN", "GITHUB_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "github-api-url",
			Usage:       "GitHub API base URL (for GitHub Enterprise or testing)",
			Destination: &c.APIURL,
			Sources:     cli.EnvVars("TAGSHIP_GITHUB_API_URL"),
		},
		&cli.StringFlag{
			Name:        "github-upload-url",
			Usage:       "GitHub upload base URL",
			Destination: &c.UploadURL,
			Sources:     cli.EnvVars("TAGSHIP_GITHUB_UPLOAD_URL"),
		},
		&cli.StringFlag{
			Name:        "github-repository",
			Usage:       "Repository to release, as owner/repo",
			Destination: &c.Repository,
			Sources:     cli.EnvVars("TAGSHIP_GITHUB_REPOSITORY", "GITHUB_REPOSITORY"),
		},
	}
}

// OwnerRepo splits Repository into owner and repository name. It returns
// empty strings when Repository is not set.
func (c *GitHub) OwnerRepo() (string, string, error) {
	if c.Repository == "" {
		return "", "", nil
	}
	owner, repo, ok := strings.Cut(c.Repository, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", goerr.New("repository must be owner/repo",
			goerr.T(model.ErrTagInvalidConfiguration),
			goerr.V("repository", c.Repository),
		)
	}
	return owner, repo, nil
}

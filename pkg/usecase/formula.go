package usecase

import (
	"bytes"
	"context"
	"text/template"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/tagship/pkg/domain/interfaces"
	"github.com/m-mizutani/tagship/pkg/domain/model"
)

// DefaultDownloadURLTemplate points at the release asset download on github.com
const DefaultDownloadURLTemplate = "https://github.com/{{.Owner}}/{{.Repo}}/releases/download/{{.Version}}/{{.Archive}}"

// FormulaConfig describes the formula to bump and where releases are downloaded from
type FormulaConfig struct {
	Tap         string // e.g. "owner/tap"
	Name        string // Formula name in the tap
	Owner       string // Repository owner used in the download URL
	Repo        string // Repository name used in the download URL
	URLTemplate string
	BrewPath    string
	Token       string `masq:"secret"`
	NoFork      bool
}

// FormulaUpdater proposes a formula change pointing at the new release
type FormulaUpdater struct {
	runner  interfaces.CommandRunner
	cfg     FormulaConfig
	urlTmpl *template.Template
}

// NewFormulaUpdater creates a FormulaUpdater. The URL template is parsed once here.
func NewFormulaUpdater(runner interfaces.CommandRunner, cfg FormulaConfig) (*FormulaUpdater, error) {
	if cfg.Tap == "" || cfg.Name == "" {
		return nil, goerr.New("formula tap and name are required",
			goerr.T(model.ErrTagInvalidConfiguration),
			goerr.V("tap", cfg.Tap),
			goerr.V("name", cfg.Name),
		)
	}
	if cfg.URLTemplate == "" {
		cfg.URLTemplate = DefaultDownloadURLTemplate
	}
	if cfg.BrewPath == "" {
		cfg.BrewPath = "brew"
	}

	tmpl, err := template.New("download_url").Option("missingkey=error").Parse(cfg.URLTemplate)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse download URL template",
			goerr.T(model.ErrTagInvalidConfiguration),
			goerr.V("template", cfg.URLTemplate),
		)
	}

	return &FormulaUpdater{
		runner:  runner,
		cfg:     cfg,
		urlTmpl: tmpl,
	}, nil
}

// Request derives the formula update request from the release
func (u *FormulaUpdater) Request(tag model.ReleaseTag, artifact *model.BuildArtifact) (*model.FormulaUpdateRequest, error) {
	var buf bytes.Buffer
	if err := u.urlTmpl.Execute(&buf, model.DownloadURLParams{
		Owner:   u.cfg.Owner,
		Repo:    u.cfg.Repo,
		Version: tag.String(),
		Archive: artifact.ArchiveName,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to render download URL",
			goerr.T(model.ErrTagFormulaUpdateFailed),
		)
	}

	return &model.FormulaUpdateRequest{
		Formula:  u.cfg.Tap + "/" + u.cfg.Name,
		Version:  tag,
		Checksum: artifact.Checksum,
		URL:      buf.String(),
	}, nil
}

// Command builds the non-interactive formula bump invocation for req
func (u *FormulaUpdater) Command(req *model.FormulaUpdateRequest) model.Command {
	args := []string{
		"bump-formula-pr",
		"--force",
		"--no-browse",
		"--no-audit",
		"--version=" + req.Version.String(),
		"--sha256=" + req.Checksum,
		"--url=" + req.URL,
	}
	if u.cfg.NoFork {
		args = append(args, "--no-fork")
	}
	args = append(args, req.Formula)

	env := map[string]string{
		"HOMEBREW_NO_AUTO_UPDATE": "1",
		"HOMEBREW_NO_ENV_HINTS":   "1",
	}
	if u.cfg.Token != "" {
		env["HOMEBREW_GITHUB_API_TOKEN"] = u.cfg.Token
	}

	return model.Command{
		Name: u.cfg.BrewPath,
		Args: args,
		Env:  env,
	}
}

// Update proposes the formula change. It is never retried.
func (u *FormulaUpdater) Update(ctx context.Context, tag model.ReleaseTag, artifact *model.BuildArtifact) (*model.FormulaUpdateRequest, error) {
	logger := ctxlog.From(ctx)

	req, err := u.Request(tag, artifact)
	if err != nil {
		return nil, err
	}

	logger.Info("Bumping formula",
		"formula", req.Formula,
		"version", req.Version,
		"sha256", req.Checksum,
		"url", req.URL,
	)

	result, err := u.runner.Run(ctx, u.Command(req))
	if err != nil {
		opts := []goerr.Option{
			goerr.T(model.ErrTagFormulaUpdateFailed),
			goerr.V("formula", req.Formula),
			goerr.V("version", req.Version),
		}
		if result != nil {
			opts = append(opts,
				goerr.V("exit_code", result.ExitCode),
				goerr.V("output", string(result.Output)),
			)
		}
		return req, goerr.Wrap(err, "failed to bump formula", opts...)
	}

	logger.Info("Formula update proposed", "formula", req.Formula, "version", req.Version)
	return req, nil
}

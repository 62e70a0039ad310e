package cli

import (
	"context"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/tagship/pkg/cli/config"
	"github.com/m-mizutani/tagship/pkg/domain/interfaces"
	"github.com/m-mizutani/tagship/pkg/domain/model"
	"github.com/m-mizutani/tagship/pkg/domain/types"
	"github.com/m-mizutani/tagship/pkg/infra/github"
	"github.com/m-mizutani/tagship/pkg/infra/notify"
	"github.com/m-mizutani/tagship/pkg/usecase"
)

// pipelineConfig gathers every setting needed to assemble a release pipeline
type pipelineConfig struct {
	file     config.PipelineFile
	github   config.GitHub
	homebrew config.Homebrew
	runtime  config.Runtime
	notify   config.Notify
}

func (c *pipelineConfig) Flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, c.file.Flags()...)
	flags = append(flags, c.github.Flags()...)
	flags = append(flags, c.homebrew.Flags()...)
	flags = append(flags, c.runtime.Flags()...)
	flags = append(flags, c.notify.Flags()...)
	return flags
}

// load reads and completes the pipeline file
func (c *pipelineConfig) load() (*config.Pipeline, error) {
	cfg, err := c.file.Load()
	if err != nil {
		return nil, err
	}

	owner, repo, err := c.github.OwnerRepo()
	if err != nil {
		return nil, err
	}
	cfg.Complete(owner, repo)

	return cfg, nil
}

// build assembles the pipeline. Every external command, build phases and
// brew alike, goes through cmdRunner.
func (c *pipelineConfig) build(ctx context.Context, cmdRunner interfaces.CommandRunner) (*usecase.Pipeline, error) {
	cfg, err := c.load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if c.github.Token == "" && !c.runtime.DryRun {
		return nil, goerr.New("github token is required to publish a release", goerr.T(model.ErrTagInvalidConfiguration))
	}

	tagPattern, err := cfg.TagRegexp()
	if err != nil {
		return nil, err
	}

	clientOpts := []github.Option{
		github.WithToken(c.github.Token),
		github.WithCallTimeout(c.runtime.CallTimeout),
		github.WithMaxRetries(c.runtime.MaxRetries),
	}
	if c.github.APIURL != "" {
		clientOpts = append(clientOpts, github.WithBaseURL(c.github.APIURL))
	}
	if c.github.UploadURL != "" {
		clientOpts = append(clientOpts, github.WithUploadURL(c.github.UploadURL))
	}
	client, err := github.NewClient(cfg.Release.Owner, cfg.Release.Repo, clientOpts...)
	if err != nil {
		return nil, err
	}

	publisher := usecase.NewPublisher(client,
		usecase.WithPrerelease(cfg.Release.Prerelease),
		usecase.WithReuseExisting(cfg.Release.ReuseExisting),
		usecase.WithContentType(cfg.Release.ContentType),
	)

	var formula *usecase.FormulaUpdater
	if !cfg.Formula.Skip {
		formula, err = usecase.NewFormulaUpdater(cmdRunner, usecase.FormulaConfig{
			Tap:         cfg.Formula.Tap,
			Name:        cfg.Formula.Name,
			Owner:       cfg.Release.Owner,
			Repo:        cfg.Release.Repo,
			URLTemplate: cfg.Formula.DownloadURLTemplate,
			BrewPath:    c.homebrew.BrewPath,
			Token:       c.homebrew.Token,
			NoFork:      cfg.Formula.NoFork,
		})
		if err != nil {
			return nil, err
		}
	}

	notifiers, err := c.notifiers()
	if err != nil {
		return nil, err
	}

	ctxlog.From(ctx).Debug("Pipeline configured",
		"config", cfg,
		"github", c.github,
		"runtime", c.runtime,
	)

	return usecase.NewPipeline(
		usecase.NewBuilder(cmdRunner, cfg.PhaseCommands(), cfg.BuildOutput()),
		usecase.NewPackager(cfg.DistDir, cfg.ArchiveName()),
		publisher,
		formula,
		usecase.WithTagPattern(tagPattern),
		usecase.WithDryRun(c.runtime.DryRun),
		usecase.WithNotifiers(notifiers...),
	), nil
}

func (c *pipelineConfig) notifiers() ([]interfaces.Notifier, error) {
	var notifiers []interfaces.Notifier

	if c.notify.SlackWebhookURL != "" {
		n, err := notify.NewSlack(c.notify.SlackWebhookURL)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, n)
	}

	if c.notify.SentryDSN != "" {
		n, err := notify.NewSentry(sentry.ClientOptions{
			Dsn:         c.notify.SentryDSN,
			Environment: c.notify.SentryEnvironment,
			Release:     "tagship@" + types.Version,
		})
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, n)
	}

	return notifiers, nil
}

package usecase

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"

	"github.com/m-mizutani/tagship/pkg/domain/interfaces"
	"github.com/m-mizutani/tagship/pkg/domain/model"
	"github.com/m-mizutani/tagship/pkg/utils/safe"
)

// Pipeline chains version resolution, build, packaging, publication and
// formula update. Each step starts only after the previous one succeeded and
// the first failure ends the run.
type Pipeline struct {
	builder    *Builder
	packager   *Packager
	publisher  *Publisher
	formula    *FormulaUpdater
	tagPattern *regexp.Regexp
	dryRun     bool
	notifiers  []interfaces.Notifier
	newRunID   func() string
}

// PipelineOption configures a Pipeline
type PipelineOption func(*Pipeline)

// WithTagPattern requires resolved tags to match pattern
func WithTagPattern(pattern *regexp.Regexp) PipelineOption {
	return func(p *Pipeline) {
		p.tagPattern = pattern
	}
}

// WithDryRun stops the pipeline after packaging; publication and formula
// update are recorded as skipped
func WithDryRun(dryRun bool) PipelineOption {
	return func(p *Pipeline) {
		p.dryRun = dryRun
	}
}

// WithNotifiers sets notifiers receiving the report of every run
func WithNotifiers(notifiers ...interfaces.Notifier) PipelineOption {
	return func(p *Pipeline) {
		p.notifiers = append(p.notifiers, notifiers...)
	}
}

// WithRunID replaces the run ID generator
func WithRunID(newRunID func() string) PipelineOption {
	return func(p *Pipeline) {
		p.newRunID = newRunID
	}
}

// NewPipeline creates a Pipeline. formula may be nil to skip the formula update.
func NewPipeline(builder *Builder, packager *Packager, publisher *Publisher, formula *FormulaUpdater, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		builder:   builder,
		packager:  packager,
		publisher: publisher,
		formula:   formula,
		newRunID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type stage struct {
	step model.Step
	skip bool
	run  func(ctx context.Context) error
}

// Run executes the pipeline for the trigger reference. The returned report is
// never nil. On failure the error is a *model.StepError naming the failed step.
func (p *Pipeline) Run(ctx context.Context, ref string) (*model.RunReport, error) {
	runID := p.newRunID()
	logger := ctxlog.From(ctx).With("run_id", runID)
	ctx = ctxlog.With(ctx, logger)

	report := model.NewRunReport(runID, ref)
	report.DryRun = p.dryRun

	logger.Info("Starting release pipeline", "ref", ref, "dry_run", p.dryRun)

	var (
		output   *model.BuildOutput
		artifact *model.BuildArtifact
	)

	stages := []stage{
		{
			step: model.StepResolve,
			run: func(ctx context.Context) error {
				tag, err := model.ParseReleaseTag(ref, p.tagPattern)
				if err != nil {
					return err
				}
				report.Tag = tag
				return nil
			},
		},
		{
			step: model.StepBuild,
			run: func(ctx context.Context) error {
				var err error
				output, err = p.builder.Build(ctx)
				return err
			},
		},
		{
			step: model.StepPackage,
			run: func(ctx context.Context) error {
				var err error
				artifact, err = p.packager.Package(ctx, output)
				if err != nil {
					return err
				}
				report.Artifact = artifact
				return nil
			},
		},
		{
			step: model.StepPublish,
			skip: p.dryRun,
			run: func(ctx context.Context) error {
				record, err := p.publisher.Publish(ctx, report.Tag, artifact)
				// kept on failure to expose a release left without its asset
				report.Release = record
				return err
			},
		},
		{
			step: model.StepUpdateFormula,
			skip: p.dryRun || p.formula == nil,
			run: func(ctx context.Context) error {
				req, err := p.formula.Update(ctx, report.Tag, artifact)
				report.Formula = req
				return err
			},
		},
	}

	err := p.runStages(ctx, report, stages)
	report.FinishedAt = time.Now()

	if err != nil {
		logger.Error("Release pipeline failed",
			"step", report.FailedStep,
			"tag", report.Tag,
			"error", err,
		)
	} else {
		logger.Info("Release pipeline completed",
			"tag", report.Tag,
			"duration", report.FinishedAt.Sub(report.StartedAt),
		)
	}

	p.notify(ctx, report)
	return report, err
}

func (p *Pipeline) runStages(ctx context.Context, report *model.RunReport, stages []stage) error {
	logger := ctxlog.From(ctx)

	for _, s := range stages {
		result := report.Result(s.step)
		if s.skip {
			result.Status = model.StepSkipped
			logger.Info("Skipping step", "step", s.step)
			continue
		}

		report.State = s.step.State()
		start := time.Now()
		err := safe.Call(ctx, s.run)
		result.Duration = time.Since(start)

		if err != nil {
			result.Status = model.StepFailed
			result.Error = err.Error()
			report.State = model.StateFailed
			report.FailedStep = s.step
			report.Error = err.Error()
			return &model.StepError{Step: s.step, Cause: err}
		}
		result.Status = model.StepSucceeded
	}

	report.State = model.StateDone
	return nil
}

func (p *Pipeline) notify(ctx context.Context, report *model.RunReport) {
	logger := ctxlog.From(ctx)
	for _, n := range p.notifiers {
		if err := n.Notify(ctx, report); err != nil {
			logger.Warn("Failed to notify run result", "error", err)
		}
	}
}

package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/tagship/pkg/domain/interfaces"
	"github.com/m-mizutani/tagship/pkg/domain/model"
)

// Builder runs the compile, test and lint phases in order
type Builder struct {
	runner interfaces.CommandRunner
	phases []model.PhaseCommand
	output model.BuildOutput
}

// NewBuilder creates a Builder. Phases run in the order given; the output
// describes where the compile phase leaves its files.
func NewBuilder(runner interfaces.CommandRunner, phases []model.PhaseCommand, output model.BuildOutput) *Builder {
	return &Builder{
		runner: runner,
		phases: phases,
		output: output,
	}
}

// Build runs every phase and stops at the first failure. A failure is tagged
// with ErrTagBuildStepFailed and carries the failing phase.
func (b *Builder) Build(ctx context.Context) (*model.BuildOutput, error) {
	logger := ctxlog.From(ctx)

	for _, p := range b.phases {
		if err := ctx.Err(); err != nil {
			return nil, goerr.Wrap(err, "build cancelled",
				goerr.T(model.ErrTagBuildStepFailed),
				goerr.V("phase", p.Phase),
			)
		}

		logger.Info("Running build phase",
			"phase", p.Phase,
			"command", p.Command.Name,
			"args", p.Command.Args,
		)

		start := time.Now()
		result, err := b.runner.Run(ctx, p.Command)
		if err != nil {
			opts := []goerr.Option{
				goerr.T(model.ErrTagBuildStepFailed),
				goerr.V("phase", p.Phase),
			}
			if result != nil {
				opts = append(opts,
					goerr.V("exit_code", result.ExitCode),
					goerr.V("output", string(result.Output)),
				)
			}

			logger.Error("Build phase failed",
				"phase", p.Phase,
				"duration", time.Since(start),
				"error", err,
			)
			return nil, goerr.Wrap(err, "build phase failed", opts...)
		}

		logger.Info("Build phase completed",
			"phase", p.Phase,
			"duration", time.Since(start),
		)
	}

	output := b.output
	return &output, nil
}

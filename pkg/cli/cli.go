package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/tagship/pkg/cli/config"
	"github.com/m-mizutani/tagship/pkg/domain/model"
	"github.com/m-mizutani/tagship/pkg/domain/types"
)

// Run runs the CLI application. SIGINT and SIGTERM cancel ctx, which stops
// the running build phase and any pending API call.
func Run(ctx context.Context, args []string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var logger *slog.Logger
	app := newApp(func(l *slog.Logger) { logger = l })

	if err := app.Run(ctx, args); err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("CLI execution failed", slog.Any("error", err))
		return err
	}

	return nil
}

func newApp(onLogger func(*slog.Logger)) *cli.Command {
	var loggerCfg config.Logger

	return &cli.Command{
		Name:    "tagship",
		Usage:   "Release a tagged build to GitHub and Homebrew",
		Version: types.Version,
		Flags:   loggerCfg.Flags(),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, err := loggerCfg.Configure()
			if err != nil {
				return nil, err
			}
			onLogger(logger)

			slog.SetDefault(logger)
			ctx = ctxlog.With(ctx, logger)
			return ctx, nil
		},
		Commands: []*cli.Command{
			cmdRun(),
			cmdResolve(),
			cmdServe(),
		},
	}
}

// exitInterrupted follows the shell convention for SIGINT
const exitInterrupted = 130

// ExitCode maps an error returned by Run to the process exit code. A failed
// pipeline exits with the code of its failing step.
func ExitCode(err error) int {
	if err == nil {
		return model.ExitSuccess
	}
	if step, ok := model.FailedStep(err); ok {
		return model.ExitCode(step)
	}
	if goerr.HasTag(err, model.ErrTagMalformedReference) {
		return model.ExitMalformedReference
	}
	if errors.Is(err, context.Canceled) {
		return exitInterrupted
	}
	return model.ExitFailure
}

func stdout(c *cli.Command) io.Writer {
	if w := c.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func stderr(c *cli.Command) io.Writer {
	if w := c.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}

package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/tagship/pkg/cli/config"
	controller "github.com/m-mizutani/tagship/pkg/controller/http"
	"github.com/m-mizutani/tagship/pkg/infra/runner"
	"github.com/m-mizutani/tagship/pkg/usecase"
)

func cmdServe() *cli.Command {
	var (
		serverCfg   config.Server
		pipelineCfg pipelineConfig
	)

	flags := append(serverCfg.Flags(), pipelineCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server releasing tags pushed to GitHub",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			logger.Info("Starting tagship server",
				slog.String("addr", serverCfg.Addr),
			)

			cmdRunner := runner.New(runner.WithStream(stderr(c)))
			pipeline, err := pipelineCfg.build(ctx, cmdRunner)
			if err != nil {
				return err
			}

			webhookUC := usecase.NewWebhook(pipeline,
				usecase.WithCheckout(usecase.NewCheckout(cmdRunner, serverCfg.Remote)),
			)

			// Create HTTP server with options
			server, err := controller.NewServer(
				ctx,
				webhookUC,
				controller.WithAddr(serverCfg.Addr),
				controller.WithWebhookSecret(serverCfg.WebhookSecret),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- goerr.Wrap(err, "HTTP server stopped", goerr.V("addr", serverCfg.Addr))
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			}

			// Graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}

package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/tagship/pkg/infra/runner"
)

func cmdRun() *cli.Command {
	var (
		pipelineCfg pipelineConfig
		ref         string
	)

	flags := append([]cli.Flag{
		&cli.StringFlag{
			Name:        "ref",
			Usage:       "Trigger reference (refs/tags/<version>); the first argument also works",
			Destination: &ref,
			Sources:     cli.EnvVars("TAGSHIP_REF", "GITHUB_REF"),
		},
	}, pipelineCfg.Flags()...)

	return &cli.Command{
		Name:      "run",
		Usage:     "Build, package and release the pushed tag",
		ArgsUsage: "[ref]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Present() {
				ref = c.Args().First()
			}

			cmdRunner := runner.New(runner.WithStream(stderr(c)))
			pipeline, err := pipelineCfg.build(ctx, cmdRunner)
			if err != nil {
				return err
			}

			report, err := pipeline.Run(ctx, ref)
			printSummary(stderr(c), report)
			return err
		},
	}
}

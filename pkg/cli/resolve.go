package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/tagship/pkg/cli/config"
	"github.com/m-mizutani/tagship/pkg/domain/model"
)

func cmdResolve() *cli.Command {
	var (
		file config.PipelineFile
		ref  string
	)

	flags := append([]cli.Flag{
		&cli.StringFlag{
			Name:        "ref",
			Usage:       "Trigger reference (refs/tags/<version>); the first argument also works",
			Destination: &ref,
			Sources:     cli.EnvVars("TAGSHIP_REF", "GITHUB_REF"),
		},
	}, file.Flags()...)

	return &cli.Command{
		Name:      "resolve",
		Usage:     "Print the release version of a trigger reference",
		ArgsUsage: "[ref]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Present() {
				ref = c.Args().First()
			}

			cfg, err := file.Load()
			if err != nil {
				return err
			}
			pattern, err := cfg.TagRegexp()
			if err != nil {
				return err
			}

			tag, err := model.ParseReleaseTag(ref, pattern)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(stdout(c), tag)
			return err
		},
	}
}

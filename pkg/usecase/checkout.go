package usecase

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/tagship/pkg/domain/interfaces"
	"github.com/m-mizutani/tagship/pkg/domain/model"
)

// Checkout moves the workspace to the commit of a pushed tag using git
type Checkout struct {
	runner interfaces.CommandRunner
	remote string
}

// NewCheckout creates a Checkout fetching tags from remote
func NewCheckout(runner interfaces.CommandRunner, remote string) *Checkout {
	if remote == "" {
		remote = "origin"
	}
	return &Checkout{
		runner: runner,
		remote: remote,
	}
}

// Commands returns the git invocations that check out ref
func (c *Checkout) Commands(ref string) []model.Command {
	return []model.Command{
		{Name: "git", Args: []string{"fetch", "--force", "--tags", c.remote}},
		{Name: "git", Args: []string{"checkout", "--force", "--detach", ref}},
	}
}

// Checkout runs the checkout commands for ref
func (c *Checkout) Checkout(ctx context.Context, ref string) error {
	if !model.IsTagRef(ref) {
		return goerr.New("only tags can be checked out",
			goerr.T(model.ErrTagMalformedReference),
			goerr.V("ref", ref),
		)
	}

	ctxlog.From(ctx).Info("Checking out tag", "ref", ref, "remote", c.remote)

	for _, cmd := range c.Commands(ref) {
		if result, err := c.runner.Run(ctx, cmd); err != nil {
			opts := []goerr.Option{goerr.V("ref", ref), goerr.V("args", cmd.Args)}
			if result != nil {
				opts = append(opts, goerr.V("output", string(result.Output)))
			}
			return goerr.Wrap(err, "failed to check out tag", opts...)
		}
	}
	return nil
}

package runner

import (
	"bytes"
	"context"
	"io"
	"log/slog"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/magefile/mage/sh"

	"github.com/m-mizutani/tagship/pkg/domain/interfaces"
	"github.com/m-mizutani/tagship/pkg/domain/model"
)

// maxOutput bounds the captured output kept for error reports
const maxOutput = 8 * 1024

type runner struct {
	stream io.Writer
}

// Option configures the command runner
type Option func(*runner)

// WithStream copies the command output to w while it runs
func WithStream(w io.Writer) Option {
	return func(r *runner) {
		r.stream = w
	}
}

// New creates a CommandRunner executing programs as subprocesses of the
// current working directory. Environment of the command is merged into the
// process environment, and $VAR references in arguments are expanded against it.
func New(opts ...Option) interfaces.CommandRunner {
	r := &runner{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes cmd and waits for it to finish. Cancellation of ctx is checked
// before the program starts; a running program is not interrupted.
func (r *runner) Run(ctx context.Context, cmd model.Command) (*model.CommandResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, goerr.Wrap(err, "command cancelled before start", goerr.V("command", cmd.Name))
	}

	logger := ctxlog.From(ctx)
	logger.Debug("Running command",
		slog.String("command", cmd.Name),
		slog.Any("args", cmd.Args),
	)

	out := &tailBuffer{limit: maxOutput}
	var w io.Writer = out
	if r.stream != nil {
		w = io.MultiWriter(out, r.stream)
	}

	ran, err := sh.Exec(cmd.Env, w, w, cmd.Name, cmd.Args...)
	result := &model.CommandResult{
		ExitCode: sh.ExitStatus(err),
		Output:   out.Bytes(),
	}

	if err != nil {
		if !ran {
			return result, goerr.Wrap(err, "failed to start command",
				goerr.V("command", cmd.Name),
			)
		}
		return result, goerr.Wrap(err, "command exited with non-zero status",
			goerr.V("command", cmd.Name),
			goerr.V("exit_code", result.ExitCode),
		)
	}

	return result, nil
}

// tailBuffer keeps the last limit bytes written to it
type tailBuffer struct {
	buf   bytes.Buffer
	limit int
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	b.buf.Write(p)
	if over := b.buf.Len() - b.limit; over > 0 {
		b.buf.Next(over)
	}
	return n, nil
}

func (b *tailBuffer) Bytes() []byte {
	return append([]byte(nil), b.buf.Bytes()...)
}

package interfaces

import (
	"context"

	"github.com/m-mizutani/tagship/pkg/domain/model"
)

// CommandRunner executes external programs. A non-zero exit is reported as an
// error together with the result holding the exit code and captured output.
type CommandRunner interface {
	Run(ctx context.Context, cmd model.Command) (*model.CommandResult, error)
}

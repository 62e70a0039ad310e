package safe

import (
	"context"
	"runtime/debug"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// Call runs fn synchronously and returns a panic of fn as an error. The stack
// of the panic is logged.
func Call(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			ctxlog.From(ctx).Error("panic recovered",
				"recover", r,
				"stack", string(stack))
			err = goerr.New("panic recovered", goerr.V("recover", r))
		}
	}()

	return fn(ctx)
}

// Go executes handler in a new goroutine with a background context that keeps
// the logger of ctx. Cancellation of ctx does not reach the handler. Errors and
// panics of the handler are logged.
func Go(ctx context.Context, handler func(ctx context.Context) error) {
	newCtx := newBackgroundContext(ctx)

	go func() {
		if err := Call(newCtx, handler); err != nil {
			logger := ctxlog.From(newCtx)
			logger.Error("error in async handler", "error", err)
		}
	}()
}

func newBackgroundContext(ctx context.Context) context.Context {
	newCtx := context.Background()
	newCtx = ctxlog.With(newCtx, ctxlog.From(ctx))
	return newCtx
}

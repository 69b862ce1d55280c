package httpapi

import (
	"context"
	"errors"
)

// errShuttingDown is the cancel cause of generations interrupted by shutdown.
var errShuttingDown = errors.New("server shutting down")

// serverBaseCtx ends when the process starts shutting down. Chat handlers
// derive their generation context from it and from the request.
var serverBaseCtx = context.Background()

// SetBaseContext installs the shutdown context; nil restores Background.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	serverBaseCtx = ctx
}

// joinContexts derives a generation context from req that is also canceled
// when base ends. The returned cancel must be called when the handler returns.
func joinContexts(base, req context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(req)
	stop := context.AfterFunc(base, func() { cancel(errShuttingDown) })
	return ctx, func() {
		stop()
		cancel(context.Canceled)
	}
}

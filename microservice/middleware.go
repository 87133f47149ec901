package microservice

import (
	"context"
	"log/slog"
	"time"

	cbus "github.com/next-trace/scg-mics/contract/bus"
	"github.com/next-trace/scg-mics/messagebus"
)

// Handler is the type-erased form of a bound message handler.
type Handler func(ctx context.Context, msg cbus.Message) error

// Middleware wraps handler execution. Middlewares are executed in registration order.
type Middleware func(next Handler) Handler

func chain(h Handler, mws []Middleware) Handler {
	// first registered runs first
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}

	return h
}

// LogMessages logs every handled message at debug level with its duration and outcome.
func LogMessages(logger *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, msg cbus.Message) error {
			start := time.Now()
			err := next(ctx, msg)

			logger.LogAttrs(ctx, slog.LevelDebug, "message handled",
				slog.String("type", messagebus.TypeName(msg)),
				slog.Duration("took", time.Since(start)),
				slog.Any("err", err))

			return err
		}
	}
}

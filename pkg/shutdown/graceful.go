package shutdown

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"
)

func WithSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}

// Drain runs each closer in order with a shared fresh deadline. It is meant
// to be called after the root context has been cancelled.
func Drain(log *slog.Logger, timeout time.Duration, closers ...func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for _, c := range closers {
		if err := c(ctx); err != nil {
			log.Error("shutdown step failed", "err", err)
		}
	}
}

// AngelaMos | 2026
// retry.go

package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	connectMaxElapsed = 30 * time.Second
	connectMaxRetries = 6
)

// connectWithRetry retries op with exponential backoff while a backing
// service comes up. It gives up after connectMaxRetries or when ctx ends.
func connectWithRetry(
	ctx context.Context,
	service string,
	op func(ctx context.Context) error,
) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 250 * time.Millisecond
	policy.MaxElapsedTime = connectMaxElapsed

	return backoff.RetryNotify(
		func() error { return op(ctx) },
		backoff.WithContext(backoff.WithMaxRetries(policy, connectMaxRetries), ctx),
		func(err error, wait time.Duration) {
			slog.WarnContext(ctx, "backing service not reachable yet",
				"service", service,
				"retry_in", wait.String(),
				"error", err,
			)
		},
	)
}

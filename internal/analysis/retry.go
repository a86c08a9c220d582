package analysis

import (
	"context"
	"errors"
	"fmt"

	"github.com/telltaleatheist/clippy-sub006/internal/services"
)

var (
	errEmptyReply = errors.New("empty reply")
	errRefusal    = errors.New("model refused")
	errNoResult   = errors.New("no parseable result")
)

// WithRetries runs op up to attempts times, stopping at the first success.
// Fatal errors and cancellation of ctx end the loop early. The returned error
// wraps the last failure as transient.
func WithRetries[T any](ctx context.Context, attempts int, op func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, services.Wrap(services.ErrCanceled, "", "retry", "", err)
		}
		out, err := op(ctx, attempt)
		if err == nil {
			return out, nil
		}
		if services.IsFatal(err) {
			return zero, err
		}
		lastErr = err
	}
	if err := ctx.Err(); err != nil {
		return zero, services.Wrap(services.ErrCanceled, "", "retry", "", err)
	}
	return zero, services.Wrap(services.ErrTransient, "", "retry",
		fmt.Sprintf("gave up after %d attempts", attempts), lastErr)
}

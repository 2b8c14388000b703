// Package upstream holds helpers shared by the clients of third-party HTTP
// services.
package upstream

import (
	"context"
	"fmt"
	"time"
)

// StatusError reports a non-success answer from a third-party service.
type StatusError struct {
	Service string
	Status  int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Service, e.Status)
}

// Timeout narrows fallback to the deadline of ctx. The fiber agent has no
// context support, so cancellation is only observed before the call starts.
func Timeout(ctx context.Context, fallback time.Duration) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		return fallback, nil
	}
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return 0, context.DeadlineExceeded
	}
	if fallback <= 0 || remaining < fallback {
		return remaining, nil
	}
	return fallback, nil
}

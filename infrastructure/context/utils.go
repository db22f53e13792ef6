// Package context holds the timeouts siteboard applies outside a request.
package context

import (
	"context"
	"time"
)

const (
	// ShutdownTimeout bounds draining of background workers and final
	// bookkeeping writes such as a recompute job's terminal status.
	ShutdownTimeout = 10 * time.Second

	// PingTimeout bounds connection checks against Postgres and Redis.
	PingTimeout = 5 * time.Second
)

// Detached returns a context that keeps parent's values but not its
// cancellation, bounded by ShutdownTimeout. Use it for writes that must land
// after the work they record was cancelled.
func Detached(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(parent), ShutdownTimeout)
}

// WithShutdownTimeout is Detached(context.Background()).
func WithShutdownTimeout() (context.Context, context.CancelFunc) {
	return Detached(context.Background())
}

// WithPingTimeout bounds a ping derived from parent.
func WithPingTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, PingTimeout)
}

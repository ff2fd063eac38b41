// Package loadgen implements the concurrent load generator: N virtual
// users driving operations against an injected executor in parallel while
// a shared aggregator tracks success, failure, and latency.
package loadgen

import (
	"context"
	"time"
)

// OperationExecutor performs one operation against a target service and
// reports the wall-clock latency around it. A nil error is a successful
// operation. The generator treats the executor as opaque; the reference
// HTTP implementation lives in the httptask package.
type OperationExecutor interface {
	Execute(ctx context.Context) (time.Duration, error)
}

// OperationFunc adapts a plain function to OperationExecutor.
type OperationFunc func(ctx context.Context) (time.Duration, error)

func (f OperationFunc) Execute(ctx context.Context) (time.Duration, error) {
	return f(ctx)
}

package loadgen

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeharness/tradeharness/stats"
)

func TestGeneratorAccountsEveryOperation(t *testing.T) {
	gen := NewGenerator(
		VirtualUsers(5),
		OperationsPerUser(10),
		Seed(1),
	)

	summary, err := gen.Run(context.Background(), OperationFunc(func(ctx context.Context) (time.Duration, error) {
		return 0, nil
	}))
	require.NoError(t, err)

	assert.Equal(t, 50, summary.Total)
	assert.Equal(t, 50, summary.Passed)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, time.Duration(0), summary.MeanLatency())
	assert.Equal(t, 1.0, summary.SuccessRate())
}

func TestGeneratorConcurrentAggregationIntegrity(t *testing.T) {
	const users = 8
	const opsPerUser = 200

	var executed atomic.Int64
	gen := NewGenerator(
		VirtualUsers(users),
		OperationsPerUser(opsPerUser),
		Seed(42),
	)

	summary, err := gen.Run(context.Background(), OperationFunc(func(ctx context.Context) (time.Duration, error) {
		executed.Add(1)
		return time.Microsecond, nil
	}))
	require.NoError(t, err)

	assert.Equal(t, int64(users*opsPerUser), executed.Load())
	assert.Equal(t, users*opsPerUser, summary.Total)
	assert.Equal(t, users*opsPerUser, summary.Passed)
	assert.Len(t, summary.Samples(), users*opsPerUser)
}

func TestGeneratorCountsFailures(t *testing.T) {
	gen := NewGenerator(
		VirtualUsers(3),
		OperationsPerUser(4),
		Seed(7),
	)

	summary, err := gen.Run(context.Background(), OperationFunc(func(ctx context.Context) (time.Duration, error) {
		return time.Millisecond, errors.New("order rejected")
	}))
	require.NoError(t, err)

	assert.Equal(t, 12, summary.Total)
	assert.Equal(t, 0, summary.Passed)
	assert.Equal(t, 12, summary.Failed)
	assert.Equal(t, 0.0, summary.SuccessRate())
	assert.Equal(t, 0.0, summary.Throughput())
}

func TestGeneratorConcurrencyCap(t *testing.T) {
	var current, peak atomic.Int32

	gen := NewGenerator(
		VirtualUsers(8),
		OperationsPerUser(5),
		Concurrency(2),
		Seed(3),
	)

	summary, err := gen.Run(context.Background(), OperationFunc(func(ctx context.Context) (time.Duration, error) {
		n := current.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		current.Add(-1)
		return 0, nil
	}))
	require.NoError(t, err)

	assert.Equal(t, 40, summary.Total)
	assert.LessOrEqual(t, peak.Load(), int32(2), "concurrency ceiling exceeded")
}

func TestGeneratorDurationBoundedStops(t *testing.T) {
	gen := NewGenerator(
		VirtualUsers(4),
		Duration(100*time.Millisecond),
		Seed(9),
	)

	start := time.Now()
	summary, err := gen.Run(context.Background(), OperationFunc(func(ctx context.Context) (time.Duration, error) {
		time.Sleep(time.Millisecond)
		return time.Millisecond, nil
	}))
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Positive(t, summary.Total)
	assert.GreaterOrEqual(t, summary.Elapsed, 100*time.Millisecond)
}

func TestGeneratorDelayNotCountedInLatency(t *testing.T) {
	gen := NewGenerator(
		VirtualUsers(2),
		OperationsPerUser(5),
		DelayWindow(time.Millisecond, 3*time.Millisecond),
		Seed(11),
	)

	summary, err := gen.Run(context.Background(), OperationFunc(func(ctx context.Context) (time.Duration, error) {
		return 5 * time.Millisecond, nil
	}))
	require.NoError(t, err)

	assert.Equal(t, 10, summary.Total)
	assert.Equal(t, 5*time.Millisecond, summary.MeanLatency())
	assert.Equal(t, 5*time.Millisecond, summary.Percentile(99))
}

func TestGeneratorValidation(t *testing.T) {
	_, err := NewGenerator(VirtualUsers(1)).Run(context.Background(), nil)
	assert.Error(t, err)

	op := OperationFunc(func(ctx context.Context) (time.Duration, error) { return 0, nil })

	_, err = NewGenerator(VirtualUsers(1)).Run(context.Background(), op)
	assert.Error(t, err, "neither bound set")

	_, err = NewGenerator(
		VirtualUsers(1),
		OperationsPerUser(1),
		Duration(time.Second),
	).Run(context.Background(), op)
	assert.Error(t, err, "both bounds set")
}

func TestGeneratorProgressFinality(t *testing.T) {
	reporter := stats.NewProgressReporter()
	progress := reporter.Subscribe(64)

	gen := NewGenerator(
		VirtualUsers(2),
		OperationsPerUser(20),
		ProgressInterval(5*time.Millisecond),
		Reporter(reporter),
		Seed(13),
	)

	summary, err := gen.Run(context.Background(), OperationFunc(func(ctx context.Context) (time.Duration, error) {
		time.Sleep(time.Millisecond)
		return time.Millisecond, nil
	}))
	require.NoError(t, err)

	var snaps []stats.ProgressSnapshot
	for snap := range progress {
		snaps = append(snaps, snap)
	}
	require.NotEmpty(t, snaps)

	last := snaps[len(snaps)-1]
	assert.True(t, last.Final, "terminal snapshot must be marked final")
	for _, snap := range snaps[:len(snaps)-1] {
		assert.False(t, snap.Final)
	}
	assert.Equal(t, summary.Total, last.Completed)
	assert.Equal(t, summary.RunID, last.RunID)
}

func TestGeneratorCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := NewGenerator(VirtualUsers(3), OperationsPerUser(10), Seed(5))
	summary, err := gen.Run(ctx, OperationFunc(func(ctx context.Context) (time.Duration, error) {
		return 0, nil
	}))
	require.NoError(t, err)

	assert.Zero(t, summary.Total)
}

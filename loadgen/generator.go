package loadgen

import (
	"context"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/tradeharness/tradeharness/internal/logging"
	"github.com/tradeharness/tradeharness/stats"
)

const defaultProgressInterval = 500 * time.Millisecond

// Generator drives virtualUsers workers against an OperationExecutor in
// parallel. Each worker issues its operations sequentially, modeling a
// real client; workers only share the aggregator and the stop condition.
type Generator struct {
	cfg generatorConfig
}

func NewGenerator(options ...GeneratorOption) *Generator {
	cfg := generatorConfig{
		users:            1,
		progressInterval: defaultProgressInterval,
	}

	for _, op := range options {
		op(&cfg)
	}

	if cfg.users < 1 {
		cfg.users = 1
	}
	if cfg.concurrency <= 0 || cfg.concurrency > cfg.users {
		cfg.concurrency = cfg.users
	}
	if cfg.progressInterval <= 0 {
		cfg.progressInterval = defaultProgressInterval
	}
	if cfg.seed == 0 {
		cfg.seed = time.Now().UnixNano()
	}
	cfg.logger = logging.OrNop(cfg.logger)
	if cfg.reporter == nil {
		cfg.reporter = stats.NewProgressReporter()
	}

	return &Generator{cfg: cfg}
}

// Run executes the load test and returns its summary. Exactly one of
// OperationsPerUser and Duration must bound the run.
func (g *Generator) Run(ctx context.Context, op OperationExecutor) (*stats.RunSummary, error) {
	if op == nil {
		return nil, errors.New("operation executor must not be nil")
	}
	if (g.cfg.opsPerUser > 0) == (g.cfg.duration > 0) {
		return nil, errors.New("exactly one of operations-per-user and duration must be set")
	}

	runID := g.cfg.runID
	if runID == "" {
		runID = stats.NewRunID()
	}
	logger := g.cfg.logger.With("run_id", runID)

	agg := stats.NewAggregator(g.cfg.recentWindow)

	if g.cfg.metrics != nil {
		collector := stats.NewCollector(agg, "tradeharness")
		if err := g.cfg.metrics.Register(collector); err != nil {
			logger.Warnw("metrics registration failed", "error", err)
		} else {
			defer g.cfg.metrics.Unregister(collector)
		}
	}

	runCtx := ctx
	if g.cfg.duration > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, g.cfg.duration)
		defer cancel()
	}

	totalOps := 0
	if g.cfg.opsPerUser > 0 {
		totalOps = g.cfg.users * g.cfg.opsPerUser
	}

	logger.Infow("load generation starting",
		"virtual_users", g.cfg.users,
		"concurrency", g.cfg.concurrency,
		"ops_per_user", g.cfg.opsPerUser,
		"duration", g.cfg.duration,
	)

	start := time.Now()

	// Progress consumer: reads aggregator snapshots on its own schedule,
	// never blocking the workers.
	progressDone := make(chan struct{})
	go g.publishProgress(runID, totalOps, agg, progressDone)

	var group errgroup.Group
	group.SetLimit(g.cfg.concurrency)

	for i := 0; i < g.cfg.users; i++ {
		workerID := i
		group.Go(func() error {
			g.runWorker(runCtx, workerID, op, agg)
			return nil
		})
	}

	// Every worker must be joined before the summary is finalized.
	_ = group.Wait()
	close(progressDone)

	elapsed := time.Since(start)
	summary := stats.SummaryFromAggregator(runID, agg, elapsed)

	g.cfg.reporter.Close(g.snapshot(runID, totalOps, agg.Snapshot()))

	logger.Infow("load generation finished",
		"operations", summary.Total,
		"succeeded", summary.Passed,
		"failed", summary.Failed,
		"elapsed", elapsed,
		"throughput_per_sec", summary.Throughput(),
	)

	return summary, nil
}

// runWorker is one virtual user. Operations are sequential within the
// worker; the random source is worker-local so no worker contends or
// shares randomness with another.
func (g *Generator) runWorker(ctx context.Context, workerID int, op OperationExecutor, agg *stats.Aggregator) {
	rng := rand.New(rand.NewSource(g.cfg.seed + int64(workerID)))

	for n := 0; ; n++ {
		if g.cfg.opsPerUser > 0 && n >= g.cfg.opsPerUser {
			return
		}
		if ctx.Err() != nil {
			return
		}

		elapsed, err := op.Execute(ctx)
		if err != nil && ctx.Err() != nil {
			// The deadline fired mid-operation. The attempt was abandoned,
			// not failed; it counts as neither.
			return
		}
		agg.Record(err == nil, elapsed)

		if err != nil {
			g.cfg.logger.Debugw("operation failed",
				"worker_id", workerID,
				"error", err,
			)
		}

		g.interOperationDelay(ctx, rng)
	}
}

// interOperationDelay sleeps a random duration in the configured window,
// waking early on cancellation. The delay is outside latency measurement.
func (g *Generator) interOperationDelay(ctx context.Context, rng *rand.Rand) {
	if g.cfg.delayMax <= 0 {
		return
	}

	d := g.cfg.delayMin
	if window := g.cfg.delayMax - g.cfg.delayMin; window > 0 {
		d += time.Duration(rng.Int63n(int64(window) + 1))
	}
	if d <= 0 {
		return
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func (g *Generator) publishProgress(runID string, totalOps int, agg *stats.Aggregator, done <-chan struct{}) {
	ticker := time.NewTicker(g.cfg.progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			g.cfg.reporter.Report(g.snapshot(runID, totalOps, agg.Snapshot()))
		}
	}
}

func (g *Generator) snapshot(runID string, totalOps int, live stats.Counts) stats.ProgressSnapshot {
	return stats.ProgressSnapshot{
		RunID:       runID,
		Completed:   int(live.Count),
		Total:       totalOps,
		Passed:      int(live.SuccessCount),
		Failed:      int(live.FailureCount),
		SuccessRate: live.SuccessRate,
		MeanLatency: live.MeanLatency,
	}
}

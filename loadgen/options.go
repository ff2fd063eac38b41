package loadgen

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/tradeharness/tradeharness/stats"
)

type generatorConfig struct {
	users            int
	opsPerUser       int
	duration         time.Duration
	concurrency      int
	delayMin         time.Duration
	delayMax         time.Duration
	recentWindow     int
	progressInterval time.Duration
	runID            string
	seed             int64
	logger           *zap.SugaredLogger
	reporter         *stats.ProgressReporter
	metrics          prometheus.Registerer
}

type GeneratorOption func(*generatorConfig)

// VirtualUsers sets the number of simulated independent clients.
func VirtualUsers(n int) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.users = n
	}
}

// OperationsPerUser bounds the run by a fixed per-user operation quota.
// Mutually exclusive with Duration.
func OperationsPerUser(n int) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.opsPerUser = n
	}
}

// Duration bounds the run by wall-clock time. Workers observe the shared
// deadline between operations. Mutually exclusive with OperationsPerUser.
func Duration(d time.Duration) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.duration = d
	}
}

// Concurrency caps how many users run at once. Zero or anything at or
// above the user count runs every user in parallel.
func Concurrency(n int) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.concurrency = n
	}
}

// DelayWindow adds a random per-user pause drawn from [min, max] between
// consecutive operations, breaking up synchronized request bursts. The
// pause is not counted in operation latency.
func DelayWindow(min, max time.Duration) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.delayMin = min
		cfg.delayMax = max
	}
}

// RecentWindow sets the live-display window size of the run aggregator.
func RecentWindow(n int) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.recentWindow = n
	}
}

// ProgressInterval sets how often a progress snapshot is published while
// the run is in flight. Defaults to 500ms.
func ProgressInterval(d time.Duration) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.progressInterval = d
	}
}

// RunID overrides the generated run identifier.
func RunID(id string) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.runID = id
	}
}

// Seed fixes the base seed of the per-worker random sources. Zero seeds
// from the clock.
func Seed(seed int64) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.seed = seed
	}
}

func Logger(logger *zap.SugaredLogger) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.logger = logger
	}
}

// Reporter sets the progress sink. The generator publishes periodic
// snapshots and closes the reporter with the final one.
func Reporter(r *stats.ProgressReporter) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.reporter = r
	}
}

// Metrics registers a collector over the run's aggregator with reg for
// the lifetime of the run.
func Metrics(reg prometheus.Registerer) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.metrics = reg
	}
}

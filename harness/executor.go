package harness

import (
	"context"
	"time"

	"github.com/avast/retry-go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tradeharness/tradeharness/internal/logging"
	"github.com/tradeharness/tradeharness/stats"
)

const defaultBackoffUnit = 500 * time.Millisecond

type executorConfig struct {
	timeout      time.Duration
	maxAttempts  uint
	backoffUnit  time.Duration
	recentWindow int
	runID        string
	logger       *zap.SugaredLogger
	reporter     *stats.ProgressReporter
}

type ExecutorOption func(*executorConfig)

// Timeout bounds each attempt of a test body. Zero disables the deadline.
func Timeout(d time.Duration) ExecutorOption {
	return func(cfg *executorConfig) {
		cfg.timeout = d
	}
}

// MaxAttempts bounds the attempts per test case, including the first.
func MaxAttempts(n uint) ExecutorOption {
	return func(cfg *executorConfig) {
		cfg.maxAttempts = n
	}
}

// BackoffUnit sets the base of the linear between-attempt delay.
// The sleep before retry n is n times this unit. Defaults to 500ms.
func BackoffUnit(d time.Duration) ExecutorOption {
	return func(cfg *executorConfig) {
		cfg.backoffUnit = d
	}
}

// RecentWindow sets the live-display window size of the run aggregator.
func RecentWindow(n int) ExecutorOption {
	return func(cfg *executorConfig) {
		cfg.recentWindow = n
	}
}

// RunID overrides the generated run identifier.
func RunID(id string) ExecutorOption {
	return func(cfg *executorConfig) {
		cfg.runID = id
	}
}

func Logger(logger *zap.SugaredLogger) ExecutorOption {
	return func(cfg *executorConfig) {
		cfg.logger = logger
	}
}

// Reporter sets the progress sink. The executor delivers one snapshot per
// completed test and closes the reporter with the final snapshot.
func Reporter(r *stats.ProgressReporter) ExecutorOption {
	return func(cfg *executorConfig) {
		cfg.reporter = r
	}
}

// Executor runs a suite strictly in dependency order, one test at a time.
// Ordering correctness matters more than throughput here: later tests
// assume state established by earlier ones, such as an authenticated
// session.
type Executor struct {
	cfg executorConfig
}

func NewExecutor(options ...ExecutorOption) *Executor {
	cfg := executorConfig{
		timeout:     30 * time.Second,
		maxAttempts: 1,
		backoffUnit: defaultBackoffUnit,
	}

	for _, op := range options {
		op(&cfg)
	}

	if cfg.maxAttempts < 1 {
		cfg.maxAttempts = 1
	}
	if cfg.backoffUnit <= 0 {
		cfg.backoffUnit = defaultBackoffUnit
	}
	cfg.logger = logging.OrNop(cfg.logger)
	if cfg.reporter == nil {
		cfg.reporter = stats.NewProgressReporter()
	}

	return &Executor{cfg: cfg}
}

// Report is the output of a suite run: the aggregate summary plus the
// retained outcome of every completed case, in execution order.
type Report struct {
	Summary *stats.RunSummary
	Results []CaseResult
}

// Outcome returns the retained outcome for id and whether the case ran.
func (r *Report) Outcome(id string) (Outcome, bool) {
	for _, res := range r.Results {
		if res.ID == id {
			return res.Outcome, true
		}
	}
	return Outcome{}, false
}

// Run orders the suite and executes every case. It always returns a
// report; the error is non-nil only for harness-level fatal conditions,
// in which case the report covers whatever completed before the abort.
func (e *Executor) Run(ctx context.Context, suite *Suite) (report *Report, err error) {
	order, warnings := Order(suite.Cases())

	agg := stats.NewAggregator(e.cfg.recentWindow)
	collector := NewResultCollector(e.cfg.runID, len(order), agg)
	collector.AddWarnings(warnings...)

	logger := e.cfg.logger.With("run_id", collector.RunID())
	for _, w := range warnings {
		logger.Warnw("dependency graph warning",
			"kind", string(w.Kind),
			"test", w.TestID,
			"dependency", w.Dependency,
		)
	}

	// The run must surface a summary even if the harness itself blows up.
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("harness failure: %v", r)
		}
		if err != nil {
			logger.Errorw("run aborted", "error", err)
		}
		report = &Report{
			Summary: collector.Summarize(err),
			Results: collector.Results(),
		}
		e.cfg.reporter.Close(collector.Snapshot("run complete"))
	}()

	for _, tc := range order {
		if ctx.Err() != nil {
			return nil, errors.Wrap(ctx.Err(), "run cancelled")
		}

		out := e.runCase(ctx, logger, tc)
		collector.Add(tc.ID, out)

		if out.Status != StatusSkipped {
			agg.Record(out.Status == StatusPassed, out.Duration)
		}

		logger.Infow("test complete",
			"test", tc.ID,
			"status", out.Status.String(),
			"attempts", out.Attempts,
			"elapsed", out.Duration,
		)
		e.cfg.reporter.Report(collector.Snapshot(tc.ID + ": " + out.Status.String()))
	}

	return nil, nil
}

// runCase drives the retry loop for a single case. The last attempt's
// outcome is the one retained.
func (e *Executor) runCase(ctx context.Context, logger *zap.SugaredLogger, tc *TestCase) Outcome {
	if tc.Skip {
		return Outcome{
			Status:  StatusSkipped,
			Message: tc.SkipReason,
		}
	}
	if tc.Run == nil {
		return Outcome{
			Status:   StatusErrored,
			Message:  "no test body",
			Err:      &InvocationError{Value: "nil Run"},
			Attempts: 0,
		}
	}

	var last Outcome
	attempt := 0

	_ = retry.Do(
		func() error {
			attempt++
			out := e.runAttempt(ctx, tc)
			out.Attempts = attempt
			last = out

			switch out.Status {
			case StatusPassed:
				return nil
			case StatusErrored:
				// Invocation problems do not get better on retry.
				return retry.Unrecoverable(out.Err)
			default:
				return out.Err
			}
		},
		retry.Attempts(e.cfg.maxAttempts),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			return e.cfg.backoffUnit * time.Duration(n+1)
		}),
		retry.OnRetry(func(n uint, err error) {
			logger.Warnw("test attempt failed",
				"test", tc.ID,
				"attempt", n+1,
				"error", err,
			)
		}),
	)

	return last
}

// runAttempt races one invocation of the test body against the attempt
// deadline. A body that outruns its deadline is abandoned; its eventual
// return is discarded.
func (e *Executor) runAttempt(ctx context.Context, tc *TestCase) Outcome {
	if e.cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	start := time.Now()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- &InvocationError{Value: r}
			}
		}()
		done <- tc.Run(ctx)
	}()

	select {
	case err := <-done:
		elapsed := time.Since(start)
		if err == nil {
			return Outcome{
				Status:   StatusPassed,
				Duration: elapsed,
			}
		}

		cause := errors.Cause(err)
		status := StatusFailed
		if isInvocation(cause) {
			status = StatusErrored
		}
		return Outcome{
			Status:   status,
			Message:  cause.Error(),
			Err:      cause,
			Duration: elapsed,
		}
	case <-ctx.Done():
		elapsed := time.Since(start)
		return Outcome{
			Status:   StatusFailed,
			Message:  ErrAttemptTimeout.Error(),
			Err:      errors.Wrapf(ErrAttemptTimeout, "after %s", elapsed),
			Duration: elapsed,
		}
	}
}

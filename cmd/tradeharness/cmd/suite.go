package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tradeharness/tradeharness/harness"
	"github.com/tradeharness/tradeharness/httptask"
	"github.com/tradeharness/tradeharness/stats"
)

func suiteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suite",
		Short: "Run the scenario's test suite in dependency order.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			path, err := cmd.Flags().GetString("scenario")
			if err != nil {
				return err
			}
			scenario, err := loadScenario(path)
			if err != nil {
				return err
			}
			if len(scenario.Tests) == 0 {
				return errors.New("scenario has no tests section")
			}

			timeout, err := cmd.Flags().GetDuration("timeout")
			if err != nil {
				return err
			}
			maxAttempts, err := cmd.Flags().GetUint("max-attempts")
			if err != nil {
				return err
			}

			suite, err := buildSuite(scenario.Tests)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(logger)
			defer cancel()

			reporter := stats.NewProgressReporter()
			progress := reporter.Subscribe(len(scenario.Tests) + 1)

			executor := harness.NewExecutor(
				harness.Timeout(timeout),
				harness.MaxAttempts(maxAttempts),
				harness.Logger(logger),
				harness.Reporter(reporter),
			)

			var report *harness.Report
			g, runCtx := errgroup.WithContext(ctx)
			g.Go(func() error {
				var runErr error
				report, runErr = executor.Run(runCtx, suite)
				return runErr
			})
			g.Go(func() error {
				renderProgress(runCtx, cmd, progress)
				return nil
			})
			err = g.Wait()

			if report != nil {
				printSummary(cmd, report.Summary)
			}
			if err != nil {
				return err
			}
			summary := report.Summary
			if summary.Failed+summary.Errored > 0 {
				return errors.Errorf("%d test(s) did not pass", summary.Failed+summary.Errored)
			}
			return nil
		},
	}

	cmd.Flags().Duration("timeout", 30*time.Second, "per-test attempt timeout")
	cmd.Flags().Uint("max-attempts", 3, "attempts per test, including the first")

	return cmd
}

// buildSuite registers one HTTP-backed test case per TestSpec.
func buildSuite(specs []TestSpec) (*harness.Suite, error) {
	suite := harness.NewSuite()

	for _, spec := range specs {
		opts := []httptask.ExecutorOption{
			httptask.Method(orDefault(spec.Request.Method, http.MethodGet)),
			httptask.Body(spec.Request.ContentType, []byte(spec.Request.Body)),
			httptask.BearerToken(spec.Request.BearerToken),
		}
		if spec.ExpectStatus != 0 {
			opts = append(opts, httptask.ExpectStatus(spec.ExpectStatus))
		}
		op := httptask.New(spec.Request.URL, opts...)

		tc := harness.TestCase{
			ID:          spec.ID,
			Description: spec.Description,
			DependsOn:   spec.DependsOn,
			Skip:        spec.Skip,
			SkipReason:  spec.SkipReason,
		}
		if !spec.Skip {
			tc.Run = func(ctx context.Context) error {
				_, err := op.Execute(ctx)
				return err
			}
		}

		if err := suite.Add(tc); err != nil {
			return nil, err
		}
	}
	return suite, nil
}

package cmd

import (
	"context"
	"fmt"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tradeharness/tradeharness/httptask"
	"github.com/tradeharness/tradeharness/loadgen"
	"github.com/tradeharness/tradeharness/stats"
)

func loadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Run a concurrent load test against a target endpoint.",
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
			if scenario.Load == nil {
				return errors.New("scenario has no load section")
			}
			spec := scenario.Load

			duration, err := parseDuration(spec.Duration)
			if err != nil {
				return err
			}
			delayMin, err := parseDuration(spec.DelayMin)
			if err != nil {
				return err
			}
			delayMax, err := parseDuration(spec.DelayMax)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(logger)
			defer cancel()

			reporter := stats.NewProgressReporter()
			progress := reporter.Subscribe(4)

			opts := []loadgen.GeneratorOption{
				loadgen.VirtualUsers(spec.VirtualUsers),
				loadgen.Concurrency(spec.Concurrency),
				loadgen.DelayWindow(delayMin, delayMax),
				loadgen.Logger(logger),
				loadgen.Reporter(reporter),
			}
			if duration > 0 {
				opts = append(opts, loadgen.Duration(duration))
			} else {
				opts = append(opts, loadgen.OperationsPerUser(spec.OperationsPerUser))
			}

			metricsAddr, err := cmd.Flags().GetString("metrics-addr")
			if err != nil {
				return err
			}
			if metricsAddr != "" {
				registry := prometheus.NewRegistry()
				opts = append(opts, loadgen.Metrics(registry))

				server := &http.Server{
					Addr:    metricsAddr,
					Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
				}
				go func() {
					if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						logger.Warnw("metrics listener stopped", "error", err)
					}
				}()
				defer server.Close()

				logger.Infow("serving metrics", "addr", metricsAddr)
			}

			op := httptask.New(spec.Target.URL,
				httptask.Method(orDefault(spec.Target.Method, http.MethodGet)),
				httptask.Body(spec.Target.ContentType, []byte(spec.Target.Body)),
				httptask.BearerToken(spec.Target.BearerToken),
				httptask.Client(&http.Client{
					Transport: httptask.NewTransport(spec.VirtualUsers),
					Timeout:   30 * time.Second,
				}),
			)

			var summary *stats.RunSummary
			g, runCtx := errgroup.WithContext(ctx)
			g.Go(func() error {
				var runErr error
				summary, runErr = loadgen.NewGenerator(opts...).Run(runCtx, op)
				return runErr
			})
			g.Go(func() error {
				renderProgress(runCtx, cmd, progress)
				return nil
			})
			if err := g.Wait(); err != nil {
				return err
			}

			printSummary(cmd, summary)
			return nil
		},
	}

	cmd.Flags().String("metrics-addr", "", "serve prometheus metrics for the in-flight run on this address")

	return cmd
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// renderProgress prints snapshots until the final one arrives. It also
// returns on ctx cancellation so a run that errors out before closing its
// reporter cannot strand this consumer.
func renderProgress(ctx context.Context, cmd *cobra.Command, progress <-chan stats.ProgressSnapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-progress:
			if !ok || snap.Final {
				return
			}
			if snap.Total > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%6.2f%%  %d/%d done  pass=%d fail=%d skip=%d  mean=%s\n",
					snap.Percentage(), snap.Completed, snap.Total,
					snap.Passed, snap.Failed, snap.Skipped, snap.MeanLatency)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d done  pass=%d fail=%d  mean=%s\n",
				snap.Completed, snap.Passed, snap.Failed, snap.MeanLatency)
		}
	}
}

func printSummary(cmd *cobra.Command, summary *stats.RunSummary) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 1, 1, 1, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "Run:\t%s\n", summary.RunID)
	fmt.Fprintf(w, "Total:\t%d\n", summary.Total)
	fmt.Fprintf(w, "Passed:\t%d\n", summary.Passed)
	fmt.Fprintf(w, "Failed:\t%d\n", summary.Failed)
	if summary.Skipped > 0 {
		fmt.Fprintf(w, "Skipped:\t%d\n", summary.Skipped)
	}
	if summary.Errored > 0 {
		fmt.Fprintf(w, "Errored:\t%d\n", summary.Errored)
	}
	fmt.Fprintf(w, "Elapsed:\t%s\n", summary.Elapsed)
	fmt.Fprintf(w, "Success rate:\t%.2f%%\n", summary.SuccessRate()*100)
	fmt.Fprintf(w, "Throughput:\t%.2f/s\n", summary.Throughput())
	fmt.Fprintf(w, "Latency mean:\t%s\n", summary.MeanLatency())
	for _, p := range []int{50, 90, 95, 99} {
		fmt.Fprintf(w, "Latency p%d:\t%s\n", p, summary.Percentile(p))
	}
	for _, warning := range summary.Warnings {
		fmt.Fprintf(w, "Warning:\t%s\n", warning)
	}
	if summary.Err != nil {
		fmt.Fprintf(w, "Run error:\t%s\n", summary.Err)
	}
}

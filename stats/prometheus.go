package stats

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exposes an Aggregator's live counters as prometheus metrics so
// an in-flight run can be scraped. Registration is the caller's choice;
// neither engine requires it.
type Collector struct {
	agg *Aggregator

	operations  *prometheus.Desc
	meanLatency *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector returns a Collector for agg under the given namespace,
// e.g. "tradeharness".
func NewCollector(agg *Aggregator, namespace string) *Collector {
	return &Collector{
		agg: agg,
		operations: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "operations_total"),
			"Operations recorded by the run aggregator.",
			[]string{"result"},
			nil,
		),
		meanLatency: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "operation_latency_mean_seconds"),
			"Mean operation latency over the recent sample window.",
			nil,
			nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.operations
	ch <- c.meanLatency
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.agg.Snapshot()

	ch <- prometheus.MustNewConstMetric(
		c.operations, prometheus.CounterValue, float64(snap.SuccessCount), "success")
	ch <- prometheus.MustNewConstMetric(
		c.operations, prometheus.CounterValue, float64(snap.FailureCount), "failure")
	ch <- prometheus.MustNewConstMetric(
		c.meanLatency, prometheus.GaugeValue, snap.MeanLatency.Seconds())
}

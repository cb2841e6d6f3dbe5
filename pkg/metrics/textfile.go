package metrics

import (
	"fmt"
	"strconv"

	"github.com/cloud-bulldozer/ttfb-gate/pkg/logging"
	result "github.com/cloud-bulldozer/ttfb-gate/pkg/results"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ttfb_gate"

// Collectors holds the metrics describing a single run.
type Collectors struct {
	Latency   *prometheus.GaugeVec
	Samples   *prometheus.CounterVec
	Threshold *prometheus.GaugeVec
	GatePass  *prometheus.GaugeVec
}

// NewCollectors registers the run metrics on reg.
func NewCollectors(reg prometheus.Registerer) (*Collectors, error) {
	c := &Collectors{
		Latency: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "latency_milliseconds",
			Help:      "Time to first byte statistics of the last run",
		}, []string{"url", "stat"}),
		Samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_total",
			Help:      "Number of samples taken, by response status",
		}, []string{"url", "status"}),
		Threshold: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "threshold_milliseconds",
			Help:      "Configured p95 threshold",
		}, []string{"url"}),
		GatePass: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gate_passed",
			Help:      "1 when p95 was at or below the threshold, 0 otherwise",
		}, []string{"url", "mode"}),
	}
	for _, collector := range []prometheus.Collector{c.Latency, c.Samples, c.Threshold, c.GatePass} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("registering collector: %w", err)
		}
	}
	return c, nil
}

// Observe records r on the collectors.
func (c *Collectors) Observe(r result.Result) {
	s := r.Summary
	for stat, v := range map[string]float64{
		"min":    s.Min,
		"max":    s.Max,
		"mean":   s.Mean,
		"median": s.Median,
		"p95":    s.P95,
		"p99":    s.P99,
		"stddev": s.StdDev,
	} {
		c.Latency.WithLabelValues(r.URL, stat).Set(v)
	}
	for code, n := range r.Samples.StatusCounts() {
		c.Samples.WithLabelValues(r.URL, strconv.Itoa(code)).Add(float64(n))
	}
	c.Threshold.WithLabelValues(r.URL).Set(r.Decision.Threshold)
	passed := 0.0
	if r.Decision.Passed {
		passed = 1
	}
	c.GatePass.WithLabelValues(r.URL, string(r.Decision.Mode)).Set(passed)
}

// WriteTextfile writes the metrics of r in the Prometheus text format, ready
// for the node_exporter textfile collector.
func WriteTextfile(fn string, r result.Result) error {
	reg := prometheus.NewRegistry()
	c, err := NewCollectors(reg)
	if err != nil {
		return err
	}
	c.Observe(r)
	if err := prometheus.WriteToTextfile(fn, reg); err != nil {
		return fmt.Errorf("writing %s: %w", fn, err)
	}
	logging.Infof("📈 Metrics written to %s", fn)
	return nil
}

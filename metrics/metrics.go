// Package metrics exposes per-run simulation counters in Prometheus form.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rustyeddy/risingsun/ledger"
	"github.com/rustyeddy/risingsun/sim"
)

// Metrics holds the collectors for simulation runs. Each Metrics has its
// own registry, so several can live in one process.
type Metrics struct {
	RunsTotal       prometheus.Counter
	CandlesTotal    prometheus.Counter
	EventsTotal     *prometheus.CounterVec // labels: kind
	RejectionsTotal *prometheus.CounterVec // labels: reason
	ShortSeries     prometheus.Counter

	NetPnL       *prometheus.GaugeVec // labels: instrument
	OpenPosition *prometheus.GaugeVec // labels: instrument; 1 when a run ends long
	RunDuration  prometheus.Histogram

	registry *prometheus.Registry
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "risingsun_runs_total",
			Help: "Total simulation runs completed",
		}),
		CandlesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "risingsun_candles_total",
			Help: "Total candles scanned",
		}),
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "risingsun_events_total",
			Help: "Ledger events by kind",
		}, []string{"kind"}),
		RejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "risingsun_rejections_total",
			Help: "Entries rejected by the sizing rules",
		}, []string{"reason"}),
		ShortSeries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "risingsun_short_series_total",
			Help: "Runs whose candle series was shorter than the indicator warm-up",
		}),
		NetPnL: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "risingsun_net_pnl",
			Help: "Net realized PnL of the latest run",
		}, []string{"instrument"}),
		OpenPosition: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "risingsun_open_position",
			Help: "1 if the latest run ended with an open position",
		}, []string{"instrument"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "risingsun_run_duration_seconds",
			Help:    "Wall time of a simulation run",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.RunsTotal,
		m.CandlesTotal,
		m.EventsTotal,
		m.RejectionsTotal,
		m.ShortSeries,
		m.NetPnL,
		m.OpenPosition,
		m.RunDuration,
	)

	// Every kind shows up, even at zero.
	for _, k := range ledger.Kinds {
		m.EventsTotal.WithLabelValues(k.String())
	}
	for _, r := range []string{ReasonZeroRisk, ReasonNonPositiveQuantity} {
		m.RejectionsTotal.WithLabelValues(r)
	}

	return m
}

const (
	ReasonZeroRisk            = "zero_risk"
	ReasonNonPositiveQuantity = "non_positive_quantity"
	ReasonOther               = "other"
)

// Reason maps a rejection to its label value.
func Reason(e *sim.DomainError) string {
	switch {
	case e == nil:
		return ReasonOther
	case errors.Is(e, sim.ErrZeroRisk):
		return ReasonZeroRisk
	case errors.Is(e, sim.ErrNonPositiveQuantity):
		return ReasonNonPositiveQuantity
	default:
		return ReasonOther
	}
}

// Observe records one finished run.
func (m *Metrics) Observe(instrument string, candles int, res sim.Result, elapsed time.Duration) {
	m.RunsTotal.Inc()
	m.CandlesTotal.Add(float64(candles))
	m.RunDuration.Observe(elapsed.Seconds())

	if res.Short != nil {
		m.ShortSeries.Inc()
	}

	var net float64
	if res.Ledger != nil {
		for kind, n := range res.Ledger.CountByKind() {
			m.EventsTotal.WithLabelValues(kind.String()).Add(float64(n))
		}
		net = res.Ledger.CumulativePnL()
	}
	for _, r := range res.Rejections {
		m.RejectionsTotal.WithLabelValues(Reason(r)).Inc()
	}

	m.NetPnL.WithLabelValues(instrument).Set(net)
	open := 0.0
	if res.Open != nil {
		open = 1
	}
	m.OpenPosition.WithLabelValues(instrument).Set(open)
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the current values in the text exposition format,
// for the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"CryptoSentinel/internal/model"
)

// Registry holds the Prometheus collectors for analysis runs. Each Registry
// owns its own prometheus.Registry so several can coexist in one process.
type Registry struct {
	reg *prometheus.Registry

	RunsTotal      *prometheus.CounterVec
	RunDuration    prometheus.Histogram
	CoinsScored    prometheus.Gauge
	CoinsSkipped   *prometheus.CounterVec
	CoinRisk       *prometheus.GaugeVec
	PortfolioRisk  prometheus.Gauge
	FetchErrors    *prometheus.CounterVec
	LastRunSeconds prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptosentinel_runs_total",
				Help: "Analysis runs by result",
			},
			[]string{"result"},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cryptosentinel_run_duration_seconds",
				Help:    "Duration of one analysis run",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
		),
		CoinsScored: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cryptosentinel_coins_scored",
				Help: "Coins scored in the latest run",
			},
		),
		CoinsSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptosentinel_coins_skipped_total",
				Help: "Coins left out of a run by reason",
			},
			[]string{"reason"},
		),
		CoinRisk: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cryptosentinel_coin_risk",
				Help: "Latest composite risk score per coin (0-100)",
			},
			[]string{"coin"},
		),
		PortfolioRisk: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cryptosentinel_portfolio_risk",
				Help: "Latest aggregate portfolio risk score (0-100)",
			},
		),
		FetchErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptosentinel_fetch_errors_total",
				Help: "Collector request failures by source",
			},
			[]string{"source"},
		),
		LastRunSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cryptosentinel_last_run_timestamp_seconds",
				Help: "Unix time of the latest successful run",
			},
		),
	}

	r.reg.MustRegister(
		r.RunsTotal,
		r.RunDuration,
		r.CoinsScored,
		r.CoinsSkipped,
		r.CoinRisk,
		r.PortfolioRisk,
		r.FetchErrors,
		r.LastRunSeconds,
	)
	return r
}

// ObserveReport records a finished run. A nil receiver is a no-op so callers
// may run without metrics.
func (r *Registry) ObserveReport(rep *model.Report, took time.Duration, at time.Time) {
	if r == nil || rep == nil {
		return
	}
	r.RunsTotal.WithLabelValues("ok").Inc()
	r.RunDuration.Observe(took.Seconds())
	r.CoinsScored.Set(float64(len(rep.Coins)))
	r.PortfolioRisk.Set(rep.Portfolio.Risk)
	r.CoinRisk.Reset()
	for id, c := range rep.Coins {
		r.CoinRisk.WithLabelValues(id).Set(c.Risk)
	}
	r.LastRunSeconds.Set(float64(at.Unix()))
}

// ObserveFailure counts a run that produced no report.
func (r *Registry) ObserveFailure() {
	if r == nil {
		return
	}
	r.RunsTotal.WithLabelValues("error").Inc()
}

// ObserveSkip counts one coin left out of a run.
func (r *Registry) ObserveSkip(reason string) {
	if r == nil {
		return
	}
	r.CoinsSkipped.WithLabelValues(reason).Inc()
}

// ObserveFetchError counts one failed collector request.
func (r *Registry) ObserveFetchError(source string) {
	if r == nil {
		return
	}
	r.FetchErrors.WithLabelValues(source).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"GridSentinel/internal/model"
)

// Cycle outcomes used as the "result" label.
const (
	ResultOK             = "ok"
	ResultDataError      = "data_error"
	ResultNoViableParams = "no_viable_params"
	ResultExecutionError = "execution_error"
	ResultError          = "error"
)

var (
	CyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridsentinel_cycles_total",
			Help: "Trading cycles run, by result.",
		},
		[]string{"result"},
	)

	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridsentinel_orders_total",
			Help: "Orders placed, by side and mode (live or paper).",
		},
		[]string{"side", "mode"},
	)

	OptimizerDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gridsentinel_optimizer_duration_seconds",
			Help:    "Wall time of one parameter grid search.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	CandidatesViable = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gridsentinel_candidates_viable",
			Help: "Parameter combinations with a finite score in the last search.",
		},
	)

	BestReturn = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gridsentinel_best_cumulative_return",
			Help: "Backtest cumulative return of the selected parameters.",
		},
	)

	LastSignal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gridsentinel_last_signal",
			Help: "Latest signal: 1 buy, 0 hold, -1 sell.",
		},
	)

	LastCycleTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gridsentinel_last_cycle_timestamp_seconds",
			Help: "Unix time the last cycle finished.",
		},
	)
)

func init() {
	prometheus.MustRegister(CyclesTotal, OrdersTotal, OptimizerDuration,
		CandidatesViable, BestReturn, LastSignal, LastCycleTimestamp)
}

// ObserveCycle updates every cycle metric from a finished report.
func ObserveCycle(r *model.CycleReport, result string) {
	CyclesTotal.WithLabelValues(result).Inc()
	LastCycleTimestamp.Set(float64(r.FinishedAt.Unix()))
	if r.Evaluated > 0 {
		CandidatesViable.Set(float64(r.Viable))
	}
	if r.Viable > 0 {
		BestReturn.Set(r.Best.CumulativeReturn)
	}
	if result == ResultOK {
		LastSignal.Set(float64(r.Signal))
	}
	if o := r.Order; o != nil {
		mode := "live"
		if o.DryRun {
			mode = "paper"
		}
		OrdersTotal.WithLabelValues(string(o.Side), mode).Inc()
	}
}

package metrics

import (
	"TipsEngine/internal/domain/models"
	domrepo "TipsEngine/internal/domain/repository"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements the domain Metrics port using Prometheus.
type Recorder struct {
	calculations  *prometheus.CounterVec
	ratingUpdates *prometheus.CounterVec
	valueBets     *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

var _ domrepo.Metrics = (*Recorder)(nil)

// New registers the engine metrics on the default registerer.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the engine metrics on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		calculations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tipsengine_calculations_total",
				Help: "Match statistics calculations by model version and data quality",
			},
			[]string{"version", "quality"},
		),
		ratingUpdates: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tipsengine_rating_updates_total",
				Help: "Completed-match rating updates by model version",
			},
			[]string{"version"},
		),
		valueBets: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tipsengine_value_bets_total",
				Help: "Calculations that flagged a value outcome",
			},
			[]string{"outcome"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tipsengine_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tipsengine_operation_duration_seconds",
				Help:    "Duration of engine operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordCalculation(version string, quality models.DataQuality) {
	r.calculations.WithLabelValues(version, string(quality)).Inc()
}

func (r *Recorder) RecordRatingUpdate(version string) {
	r.ratingUpdates.WithLabelValues(version).Inc()
}

func (r *Recorder) RecordValueBet(outcome models.Outcome) {
	r.valueBets.WithLabelValues(string(outcome)).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

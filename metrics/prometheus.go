package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// PrometheusSink implements Sink with Prometheus collectors.
// Registration errors are logged, never returned.
type PrometheusSink struct {
	runsStarted       *prometheus.CounterVec
	runsCompleted     *prometheus.CounterVec
	runsSkipped       *prometheus.CounterVec
	runDuration       *prometheus.HistogramVec
	deliveries        *prometheus.CounterVec
	deliveryDuration  *prometheus.HistogramVec
	recipientsSkipped *prometheus.CounterVec
}

func NewPrometheusSink(reg prometheus.Registerer, log zerolog.Logger) *PrometheusSink {
	s := &PrometheusSink{
		runsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "salonpro_notifier_runs_started_total",
			Help: "Routine runs that found candidates and started dispatching.",
		}, []string{"mode"}),
		runsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "salonpro_notifier_runs_completed_total",
			Help: "Finalized routine runs by execution status.",
		}, []string{"mode", "status"}),
		runsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "salonpro_notifier_runs_skipped_total",
			Help: "Routine runs that did not start.",
		}, []string{"reason"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "salonpro_notifier_run_duration_seconds",
			Help:    "Wall-clock duration of finalized runs.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"mode"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "salonpro_notifier_deliveries_total",
			Help: "Final delivery outcomes per message.",
		}, []string{"provider", "outcome", "attempts"}),
		deliveryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "salonpro_notifier_delivery_duration_seconds",
			Help:    "Gateway call latency including backoff waits.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"provider"}),
		recipientsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "salonpro_notifier_recipients_skipped_total",
			Help: "Recipients skipped without a send (no template, duplicate).",
		}, []string{"reason"}),
	}

	for _, c := range []prometheus.Collector{
		s.runsStarted, s.runsCompleted, s.runsSkipped, s.runDuration,
		s.deliveries, s.deliveryDuration, s.recipientsSkipped,
	} {
		if err := reg.Register(c); err != nil {
			log.Warn().Err(err).Msg("metrics: failed to register collector")
		}
	}
	return s
}

func (s *PrometheusSink) RunStarted(mode string) {
	s.runsStarted.WithLabelValues(mode).Inc()
}

func (s *PrometheusSink) RunCompleted(mode, status string, duration time.Duration) {
	s.runsCompleted.WithLabelValues(mode, status).Inc()
	s.runDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

func (s *PrometheusSink) RunSkipped(reason string) {
	s.runsSkipped.WithLabelValues(reason).Inc()
}

func (s *PrometheusSink) DeliveryCompleted(provider, outcome string, attempts int, duration time.Duration) {
	s.deliveries.WithLabelValues(provider, outcome, strconv.Itoa(attempts)).Inc()
	s.deliveryDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

func (s *PrometheusSink) RecipientSkipped(reason string) {
	s.recipientsSkipped.WithLabelValues(reason).Inc()
}

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

var (
	_ Sink = (*PrometheusSink)(nil)
	_ Sink = NoopSink{}
)

func TestPrometheusSinkCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewPrometheusSink(reg, zerolog.Nop())

	s.RunStarted("scheduled")
	s.RunCompleted("scheduled", "PARTIAL_SUCCESS", 2*time.Second)
	s.RunSkipped("in_progress")
	s.DeliveryCompleted("whatsapp", OutcomeSuccess, 1, 300*time.Millisecond)
	s.DeliveryCompleted("whatsapp", OutcomeFailure, 3, 4*time.Second)
	s.RecipientSkipped("NO_TEMPLATE")

	assert.Equal(t, 1.0, testutil.ToFloat64(s.runsStarted.WithLabelValues("scheduled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.runsCompleted.WithLabelValues("scheduled", "PARTIAL_SUCCESS")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.runsSkipped.WithLabelValues("in_progress")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.deliveries.WithLabelValues("whatsapp", OutcomeFailure, "3")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.recipientsSkipped.WithLabelValues("NO_TEMPLATE")))
}

func TestDoubleRegistrationDoesNotPanic(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPrometheusSink(reg, zerolog.Nop())
	assert.NotPanics(t, func() { NewPrometheusSink(reg, zerolog.Nop()) })
}

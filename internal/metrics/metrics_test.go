package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestBookingMetricsCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)

	m.ObserveBooking("created")
	m.ObserveBooking("created")
	m.ObserveBooking("conflict")
	m.ObserveStatusChange("CANCELADA")
	m.ObserveAvailability(true)
	m.ObserveAvailability(false)
	m.ObserveAvailability(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.bookings.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookings.WithLabelValues("conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.statusChanges.WithLabelValues("CANCELADA")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.availability.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.availability.WithLabelValues("miss")))
}

func TestNilBookingMetricsIsNoop(t *testing.T) {
	var m *BookingMetrics
	assert.NotPanics(t, func() {
		m.ObserveBooking("created")
		m.ObserveStatusChange("AGENDADA")
		m.ObserveAvailability(true)
	})
}

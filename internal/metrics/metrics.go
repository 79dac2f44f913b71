package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters for booking and availability flows.
// A nil *BookingMetrics is valid and records nothing.
type BookingMetrics struct {
	bookings      *prometheus.CounterVec
	statusChanges *prometheus.CounterVec
	availability  *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "appointments",
			Subsystem: "booking",
			Name:      "attempts_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "appointments",
			Subsystem: "booking",
			Name:      "status_changes_total",
			Help:      "Appointment status transitions by target status",
		}, []string{"status"}),
		availability: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "appointments",
			Subsystem: "availability",
			Name:      "requests_total",
			Help:      "Availability lookups by cache result",
		}, []string{"cache"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookings, m.statusChanges, m.availability)
	return m
}

func (m *BookingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveStatusChange(status string) {
	if m == nil {
		return
	}
	m.statusChanges.WithLabelValues(status).Inc()
}

func (m *BookingMetrics) ObserveAvailability(cacheHit bool) {
	if m == nil {
		return
	}
	label := "miss"
	if cacheHit {
		label = "hit"
	}
	m.availability.WithLabelValues(label).Inc()
}

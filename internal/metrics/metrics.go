package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitclase_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fitclase_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	ReservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitclase_reservations_total",
			Help: "Reservation attempts by result",
		},
		[]string{"result"},
	)

	ReservationCancellationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitclase_reservation_cancellations_total",
			Help: "Reservation cancellations by actor role",
		},
		[]string{"actor"},
	)

	AttendanceTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitclase_attendance_total",
			Help: "Attendance marks by outcome",
		},
		[]string{"outcome"},
	)

	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitclase_events_total",
			Help: "Reservation events by type and delivery status",
		},
		[]string{"type", "status"},
	)

	EventQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fitclase_event_queue_length",
			Help: "Current length of the reservation event queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordReservation counts a creation attempt. result is "created" or the
// rejection kind.
func RecordReservation(result string) {
	ReservationsTotal.WithLabelValues(result).Inc()
}

func RecordCancellation(actor string) {
	ReservationCancellationsTotal.WithLabelValues(actor).Inc()
}

func RecordAttendance(outcome string) {
	AttendanceTotal.WithLabelValues(outcome).Inc()
}

func RecordEvent(eventType, status string) {
	EventsTotal.WithLabelValues(eventType, status).Inc()
}

func SetEventQueueLength(n int64) {
	EventQueueLength.Set(float64(n))
}

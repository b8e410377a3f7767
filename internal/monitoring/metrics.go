package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticketsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waitroom_tickets_issued_total",
			Help: "Queue tickets issued, by traffic window",
		},
		[]string{"traffic_window"},
	)

	ticketsDiscarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waitroom_tickets_discarded_total",
			Help: "Stored tickets dropped before admission",
		},
		[]string{"reason"},
	)

	admissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waitroom_admissions_total",
			Help: "Admission attempts by outcome",
		},
		[]string{"status"},
	)

	waitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "waitroom_wait_duration_seconds",
			Help:    "Time from ticket issue to admission",
			Buckets: prometheus.ExponentialBuckets(5, 2, 10),
		},
	)

	activeStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "waitroom_active_streams",
			Help: "Open position streams",
		},
	)
)

func TicketIssued(window string) {
	ticketsIssued.WithLabelValues(window).Inc()
}

func TicketDiscarded(reason string) {
	ticketsDiscarded.WithLabelValues(reason).Inc()
}

func AdmissionGranted(waited time.Duration) {
	admissions.WithLabelValues("granted").Inc()
	waitDuration.Observe(waited.Seconds())
}

func AdmissionRejected() {
	admissions.WithLabelValues("not_ready").Inc()
}

func StreamOpened() {
	activeStreams.Inc()
}

func StreamClosed() {
	activeStreams.Dec()
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "estateman_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "estateman_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	paymentsVerified = promauto.NewCounter(prometheus.CounterOpts{
		Name: "estateman_payments_verified_total",
		Help: "Count of payments verified by an admin",
	})

	billsCleared = promauto.NewCounter(prometheus.CounterOpts{
		Name: "estateman_bills_cleared_total",
		Help: "Count of bills settled by verified payments",
	})

	approvalDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "estateman_approval_decisions_total",
		Help: "Count of tenant approval decisions by outcome",
	}, []string{"outcome"})

	maintenanceTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "estateman_maintenance_transitions_total",
		Help: "Count of maintenance request status transitions",
	}, []string{"status"})

	occupancySyncUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "estateman_occupancy_sync_updates_total",
		Help: "Count of house statuses corrected by the occupancy synchronizer",
	})

	occupiedHouses = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "estateman_occupied_houses",
		Help: "Number of houses currently marked occupied",
	})

	notificationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "estateman_notifications_created_total",
		Help: "Count of in-app notifications created",
	})

	emailSends = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "estateman_email_sends_total",
		Help: "Count of outbound email attempts by result",
	}, []string{"result"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObservePaymentVerified counts a verification and the bills it cleared.
func ObservePaymentVerified(cleared int) {
	paymentsVerified.Inc()
	billsCleared.Add(float64(cleared))
}

// ObserveApproval counts an approval decision ("approved" or "rejected").
func ObserveApproval(outcome string) {
	approvalDecisions.WithLabelValues(outcome).Inc()
}

// ObserveMaintenanceTransition counts a ticket moving into a status.
func ObserveMaintenanceTransition(status string) {
	maintenanceTransitions.WithLabelValues(status).Inc()
}

// ObserveOccupancySync counts houses corrected by a sync pass.
func ObserveOccupancySync(updated int) {
	occupancySyncUpdates.Add(float64(updated))
}

// SetOccupiedHouses updates the occupied-houses gauge.
func SetOccupiedHouses(n int) {
	occupiedHouses.Set(float64(n))
}

// ObserveNotification counts a created notification.
func ObserveNotification() {
	notificationsCreated.Inc()
}

// ObserveEmail counts an outbound email attempt ("success" or "failure").
func ObserveEmail(result string) {
	emailSends.WithLabelValues(result).Inc()
}

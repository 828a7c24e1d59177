package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crm_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	leadsRecycled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crm_leads_recycled_total",
			Help: "Total number of leads released back to the pool by the recycle sweep",
		},
	)

	remindersDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_reminders_delivered_total",
			Help: "Reminder deliveries by channel and result",
		},
		[]string{"channel", "result"},
	)

	claims = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_claims_total",
			Help: "Pool claim attempts by result",
		},
		[]string{"result"},
	)

	sweepRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_sweep_runs_total",
			Help: "Scheduled sweep runs by job and result",
		},
		[]string{"job", "result"},
	)
)

func RecordHTTPRequest(method, route, status string, seconds float64) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

func RecordRecycled(n int) {
	if n > 0 {
		leadsRecycled.Add(float64(n))
	}
}

func RecordReminder(channel string, ok bool) {
	remindersDelivered.WithLabelValues(channel, result(ok)).Inc()
}

func RecordClaim(ok bool) {
	claims.WithLabelValues(result(ok)).Inc()
}

func RecordSweep(job string, ok bool) {
	sweepRuns.WithLabelValues(job, result(ok)).Inc()
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

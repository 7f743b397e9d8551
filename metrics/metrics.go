// ABOUTME: Prometheus collectors for sync runs, token refreshes, and admin requests
// ABOUTME: Uses a dedicated registry served by the admin HTTP server at /metrics
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for resell
	Registry = prometheus.NewRegistry()

	// SyncRuns counts finished sync runs by terminal status
	SyncRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "resell_sync_runs_total", Help: "Sync runs by terminal status."},
		[]string{"status"},
	)
	// SyncRecords counts processed purchases by outcome (fetched, created, updated)
	SyncRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "resell_sync_records_total", Help: "Purchase records processed by outcome."},
		[]string{"outcome"},
	)
	// SyncDuration records how long each run took
	SyncDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "resell_sync_duration_seconds",
			Help:    "Sync run duration in seconds.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
	)
	// TokenRefreshes counts access token refresh attempts by result
	TokenRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "resell_token_refreshes_total", Help: "Access token refreshes by result."},
		[]string{"result"},
	)
	// AdminRequests counts admin HTTP requests by route pattern and status code
	AdminRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "resell_admin_requests_total", Help: "Admin HTTP requests by route and status code."},
		[]string{"route", "code"},
	)
)

var regOnce sync.Once

// RegisterDefault registers the collectors on Registry. Safe to call more than once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(SyncRuns)
		Registry.MustRegister(SyncRecords)
		Registry.MustRegister(SyncDuration)
		Registry.MustRegister(TokenRefreshes)
		Registry.MustRegister(AdminRequests)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

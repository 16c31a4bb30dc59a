// Package metrics exposes Prometheus counters for report activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ReportsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "civic",
		Name:      "reports_created_total",
		Help:      "Reports submitted by citizens.",
	})

	Votes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "civic",
		Name:      "votes_total",
		Help:      "Community authenticity votes by type.",
	}, []string{"type"})

	FixVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "civic",
		Name:      "fix_verifications_total",
		Help:      "Fix attestations by outcome.",
	}, []string{"fixed"})

	AutoResolved = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "civic",
		Name:      "reports_auto_resolved_total",
		Help:      "Reports resolved by community fix verification.",
	})

	StatusChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "civic",
		Name:      "report_status_changes_total",
		Help:      "Admin status overrides by target status.",
	}, []string{"status"})

	PersistenceFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "civic",
		Name:      "persistence_failures_total",
		Help:      "Snapshot writes that failed after all retries.",
	})
)

func Handler() http.Handler {
	return promhttp.Handler()
}

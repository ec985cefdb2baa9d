package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals
var (
	collectorRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aucwatch_collector_runs_total",
		Help: "Collection runs, including ones rejected by the in-progress guard.",
	}, []string{"collector", "outcome"})

	snapshotGroupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aucwatch_snapshot_groups_total",
		Help: "Identity groups processed per snapshot run by outcome.",
	}, []string{"outcome"})

	alertsSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aucwatch_alerts_sent_total",
		Help: "Price alerts pushed to users.",
	})

	autoWatchEvictedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aucwatch_autowatch_evicted_total",
		Help: "Auto-watch entries disabled by the eviction sweep.",
	})
)

const (
	outcomeOK      = "ok"
	outcomeMiss    = "miss"
	outcomeError   = "error"
	outcomeSkipped = "skipped"
	outcomeBusy    = "busy"
)

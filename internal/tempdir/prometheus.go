package tempdir

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	staleCheckTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stagehand_staging_walker_check_total",
			Help: "Total number of staging directories inspected by the stale walker",
		},
	)
	staleRemovalTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stagehand_staging_walker_removal_total",
			Help: "Total number of stale staging directories removed",
		},
	)
)

func init() {
	prometheus.MustRegister(staleCheckTotal)
	prometheus.MustRegister(staleRemovalTotal)
}

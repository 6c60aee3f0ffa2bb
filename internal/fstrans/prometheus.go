package fstrans

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	commitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stagehand_transaction_commits_total",
			Help: "Total number of file transactions committed",
		},
	)
	rollbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stagehand_transaction_rollbacks_total",
			Help: "Total number of file transactions rolled back",
		},
	)
	replayFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stagehand_transaction_replay_failures_total",
			Help: "Total number of ledger replays aborted by a filesystem error",
		},
	)
	stagedOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stagehand_staged_operations_total",
			Help: "Total number of operations recorded in transaction ledgers",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(commitsTotal)
	prometheus.MustRegister(rollbacksTotal)
	prometheus.MustRegister(replayFailuresTotal)
	prometheus.MustRegister(stagedOperationsTotal)
}

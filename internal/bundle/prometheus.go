package bundle

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	deploymentsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stagehand_bundle_deployments_total",
			Help: "Total number of plugin bundles deployed successfully",
		},
	)
	deploymentFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stagehand_bundle_deployment_failures_total",
			Help: "Total number of plugin bundle deployments rolled back",
		},
	)
)

func init() {
	prometheus.MustRegister(deploymentsTotal)
	prometheus.MustRegister(deploymentFailuresTotal)
}

package rotator

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	rotationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stagehand_rotator_rotations_total",
			Help: "Total number of log file rotations",
		},
	)
	bytesWrittenTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stagehand_rotator_written_bytes_total",
			Help: "Total number of bytes accepted by rotating log writers",
		},
	)
)

func init() {
	prometheus.MustRegister(rotationsTotal)
	prometheus.MustRegister(bytesWrittenTotal)
}

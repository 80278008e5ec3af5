package gamefs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricHandlesOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gamefs_open_handles",
		Help: "Number of file handles currently open.",
	})

	metricOpens = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamefs_opens_total",
		Help: "File opens by backend and outcome.",
	}, []string{"backend", "result"})

	metricRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gamefs_path_rejections_total",
		Help: "Paths refused by the traversal gate.",
	})

	metricArchiveVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamefs_archive_verifications_total",
		Help: "Referenced archive checks by outcome.",
	}, []string{"result"})
)

package syncer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "plywood",
		Subsystem: "syncer",
		Name:      "syncs_started_total",
		Help:      "Number of gallery synchronizations started.",
	})

	syncsSucceeded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "plywood",
		Subsystem: "syncer",
		Name:      "syncs_succeeded_total",
		Help:      "Number of gallery synchronizations that committed to local storage.",
	})

	syncsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "plywood",
		Subsystem: "syncer",
		Name:      "syncs_failed_total",
		Help:      "Number of gallery synchronizations that aborted with an error.",
	})

	syncsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "plywood",
		Subsystem: "syncer",
		Name:      "syncs_cancelled_total",
		Help:      "Number of gallery synchronizations stopped by user request.",
	})

	assetsDownloaded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "plywood",
		Subsystem: "syncer",
		Name:      "assets_downloaded_total",
		Help:      "Number of gallery assets fetched into staging.",
	})

	assetsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "plywood",
		Subsystem: "syncer",
		Name:      "assets_skipped_total",
		Help:      "Number of gallery assets skipped for an unsupported file extension.",
	})
)

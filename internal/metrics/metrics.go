// Package metrics registers the Prometheus metrics of the sync engine.
// Services update them directly; the daemon exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sync metrics
var (
	// SyncFilesTotal counts reconciled files by decided action and result.
	SyncFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journalsync_sync_files_total",
			Help: "Total number of file reconciliations",
		},
		[]string{"action", "result"},
	)

	// SyncDuration observes the duration of a single file reconciliation.
	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "journalsync_sync_duration_seconds",
			Help:    "Duration of a single file reconciliation in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
	)

	// SyncBatchesTotal counts whole-ledger passes.
	SyncBatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "journalsync_sync_batches_total",
			Help: "Total number of whole-ledger sync passes",
		},
	)
)

// Backup metrics
var (
	// BackupRunsTotal counts created archives by status.
	BackupRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journalsync_backup_runs_total",
			Help: "Total number of backup runs",
		},
		[]string{"status"},
	)

	// BackupBytesTotal counts stored archive bytes.
	BackupBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "journalsync_backup_bytes_total",
			Help: "Total number of bytes written to backup archives",
		},
	)

	// BackupsPrunedTotal counts archives removed by retention.
	BackupsPrunedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "journalsync_backups_pruned_total",
			Help: "Total number of backups removed by retention",
		},
	)
)

// SchedulerErrorsTotal counts failed scheduled runs by loop.
var SchedulerErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "journalsync_scheduler_errors_total",
		Help: "Total number of failed scheduled runs",
	},
	[]string{"loop"},
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journalsync_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "journalsync_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

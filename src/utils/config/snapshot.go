package config

import (
	"time"

	"github.com/spf13/viper"
)

type Snapshot struct {
	// How often every configured market is re-snapshotted,
	// independently of block processing
	Interval time.Duration

	// Number of workers taking periodic snapshots
	NumWorkers int

	// Max number of snapshot jobs that wait in the worker queue
	MaxQueueSize int

	// Address of the Multicall3 deployment used for batched reads
	MulticallAddress string

	// How long slow-moving market parameters (optimal utilization)
	// are served from cache when the live read fails
	ParamsCacheTTL time.Duration

	// Cache cleanup interval
	ParamsCacheCleanupInterval time.Duration

	// Snapshots with overall severity at or above this level are
	// emitted on the alert channel. 0 Normal .. 3 Emergency.
	AlertSeverityThreshold int

	// Buffered capacity of the alert channel
	AlertChannelSize int

	// Max number of alerts aggregated into one webhook digest
	AlertBatchSize int

	// After this time pending alerts are flushed even if the batch is not full
	AlertFlushInterval time.Duration

	// Max time between failed retries to deliver alerts
	AlertMaxBackoffInterval time.Duration

	// Operator webhook for severity alerts, empty disables it
	WebhookUrl string

	// Timeout for webhook HTTP requests
	WebhookTimeout time.Duration
}

func setSnapshotDefaults() {
	viper.SetDefault("Snapshot.Interval", "1m")
	viper.SetDefault("Snapshot.NumWorkers", 4)
	viper.SetDefault("Snapshot.MaxQueueSize", 100)
	viper.SetDefault("Snapshot.MulticallAddress", "0xcA11bde05977b3631167028862bE2a173976CA11")
	viper.SetDefault("Snapshot.ParamsCacheTTL", "10m")
	viper.SetDefault("Snapshot.ParamsCacheCleanupInterval", "15m")
	viper.SetDefault("Snapshot.AlertSeverityThreshold", 2)
	viper.SetDefault("Snapshot.AlertChannelSize", 100)
	viper.SetDefault("Snapshot.AlertBatchSize", 20)
	viper.SetDefault("Snapshot.AlertFlushInterval", "5s")
	viper.SetDefault("Snapshot.AlertMaxBackoffInterval", "30s")
	viper.SetDefault("Snapshot.WebhookUrl", "")
	viper.SetDefault("Snapshot.WebhookTimeout", "30s")
}

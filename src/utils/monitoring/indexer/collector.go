package monitor_indexer

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Collector struct {
	monitor *Monitor

	StartTimestamp                  *prometheus.Desc
	UpForSeconds                    *prometheus.Desc
	LastProcessedHeight             *prometheus.Desc
	SafeTipHeight                   *prometheus.Desc
	BlocksBehind                    *prometheus.Desc
	AverageBlocksProcessedPerMinute *prometheus.Desc
	BlocksCommitted                 *prometheus.Desc
	ReorgsDetected                  *prometheus.Desc
	RollbacksExecuted               *prometheus.Desc
	LogsDecoded                     *prometheus.Desc
	LogsSkipped                     *prometheus.Desc
	LiquidationsSaved               *prometheus.Desc
	MarketSnapshotsTaken            *prometheus.Desc
	UserPositionSnapshotsTaken      *prometheus.Desc
	ProtocolSeverity                *prometheus.Desc
	AlertsEmitted                   *prometheus.Desc
	AlertsDropped                   *prometheus.Desc
	MessagesPublished               *prometheus.Desc
	DigestsDelivered                *prometheus.Desc

	BlockFetchFailures        *prometheus.Desc
	LogFetchFailures          *prometheus.Desc
	CommitFailures            *prometheus.Desc
	RollbackFailures          *prometheus.Desc
	BlocksSkipped             *prometheus.Desc
	MulticallFailures         *prometheus.Desc
	SubCallFailures           *prometheus.Desc
	OracleCallFailures        *prometheus.Desc
	StoreFailures             *prometheus.Desc
	RedisPublishErrors        *prometheus.Desc
	RedisPersistentFailures   *prometheus.Desc
	WebhookDeliveryErrors     *prometheus.Desc
	WebhookPersistentFailures *prometheus.Desc
}

func NewCollector() *Collector {
	labels := prometheus.Labels{
		"app": "indexer",
	}

	return &Collector{
		StartTimestamp:                  prometheus.NewDesc("start_timestamp", "", nil, labels),
		UpForSeconds:                    prometheus.NewDesc("up_for_seconds", "", nil, labels),
		LastProcessedHeight:             prometheus.NewDesc("last_processed_height", "", nil, labels),
		SafeTipHeight:                   prometheus.NewDesc("safe_tip_height", "", nil, labels),
		BlocksBehind:                    prometheus.NewDesc("blocks_behind", "", nil, labels),
		AverageBlocksProcessedPerMinute: prometheus.NewDesc("average_blocks_processed_per_minute", "", nil, labels),
		BlocksCommitted:                 prometheus.NewDesc("blocks_committed", "", nil, labels),
		ReorgsDetected:                  prometheus.NewDesc("reorgs_detected", "", nil, labels),
		RollbacksExecuted:               prometheus.NewDesc("rollbacks_executed", "", nil, labels),
		LogsDecoded:                     prometheus.NewDesc("logs_decoded", "", nil, labels),
		LogsSkipped:                     prometheus.NewDesc("logs_skipped", "", nil, labels),
		LiquidationsSaved:               prometheus.NewDesc("liquidations_saved", "", nil, labels),
		MarketSnapshotsTaken:            prometheus.NewDesc("market_snapshots_taken", "", nil, labels),
		UserPositionSnapshotsTaken:      prometheus.NewDesc("user_position_snapshots_taken", "", nil, labels),
		ProtocolSeverity:                prometheus.NewDesc("protocol_severity", "", nil, labels),
		AlertsEmitted:                   prometheus.NewDesc("alerts_emitted", "", nil, labels),
		AlertsDropped:                   prometheus.NewDesc("alerts_dropped", "", nil, labels),
		MessagesPublished:               prometheus.NewDesc("messages_published", "", nil, labels),
		DigestsDelivered:                prometheus.NewDesc("digests_delivered", "", nil, labels),

		// Errors
		BlockFetchFailures:        prometheus.NewDesc("error_block_fetch", "", nil, labels),
		LogFetchFailures:          prometheus.NewDesc("error_log_fetch", "", nil, labels),
		CommitFailures:            prometheus.NewDesc("error_commit", "", nil, labels),
		RollbackFailures:          prometheus.NewDesc("error_rollback", "", nil, labels),
		BlocksSkipped:             prometheus.NewDesc("blocks_skipped", "", nil, labels),
		MulticallFailures:         prometheus.NewDesc("error_multicall", "", nil, labels),
		SubCallFailures:           prometheus.NewDesc("error_sub_call", "", nil, labels),
		OracleCallFailures:        prometheus.NewDesc("error_oracle_call", "", nil, labels),
		StoreFailures:             prometheus.NewDesc("error_store", "", nil, labels),
		RedisPublishErrors:        prometheus.NewDesc("error_redis_publish", "", nil, labels),
		RedisPersistentFailures:   prometheus.NewDesc("error_redis_persistent", "", nil, labels),
		WebhookDeliveryErrors:     prometheus.NewDesc("error_webhook_delivery", "", nil, labels),
		WebhookPersistentFailures: prometheus.NewDesc("error_webhook_persistent", "", nil, labels),
	}
}

func (self *Collector) WithMonitor(m *Monitor) *Collector {
	self.monitor = m
	return self
}

func (self *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- self.StartTimestamp
	ch <- self.UpForSeconds
	ch <- self.LastProcessedHeight
	ch <- self.SafeTipHeight
	ch <- self.BlocksBehind
	ch <- self.AverageBlocksProcessedPerMinute
	ch <- self.BlocksCommitted
	ch <- self.ReorgsDetected
	ch <- self.RollbacksExecuted
	ch <- self.LogsDecoded
	ch <- self.LogsSkipped
	ch <- self.LiquidationsSaved
	ch <- self.MarketSnapshotsTaken
	ch <- self.UserPositionSnapshotsTaken
	ch <- self.ProtocolSeverity
	ch <- self.AlertsEmitted
	ch <- self.AlertsDropped
	ch <- self.MessagesPublished
	ch <- self.DigestsDelivered

	// Errors
	ch <- self.BlockFetchFailures
	ch <- self.LogFetchFailures
	ch <- self.CommitFailures
	ch <- self.RollbackFailures
	ch <- self.BlocksSkipped
	ch <- self.MulticallFailures
	ch <- self.SubCallFailures
	ch <- self.OracleCallFailures
	ch <- self.StoreFailures
	ch <- self.RedisPublishErrors
	ch <- self.RedisPersistentFailures
	ch <- self.WebhookDeliveryErrors
	ch <- self.WebhookPersistentFailures
}

// Collect implements required collect function for all prometheus collectors
func (self *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(self.StartTimestamp, prometheus.GaugeValue, float64(self.monitor.Report.Run.State.StartTimestamp.Load()))
	ch <- prometheus.MustNewConstMetric(self.UpForSeconds, prometheus.GaugeValue, float64(self.monitor.Report.Run.State.UpForSeconds.Load()))
	ch <- prometheus.MustNewConstMetric(self.LastProcessedHeight, prometheus.GaugeValue, float64(self.monitor.Report.Indexer.State.LastProcessedHeight.Load()))
	ch <- prometheus.MustNewConstMetric(self.SafeTipHeight, prometheus.GaugeValue, float64(self.monitor.Report.Indexer.State.SafeTipHeight.Load()))
	ch <- prometheus.MustNewConstMetric(self.BlocksBehind, prometheus.GaugeValue, float64(self.monitor.Report.Indexer.State.BlocksBehind.Load()))
	ch <- prometheus.MustNewConstMetric(self.AverageBlocksProcessedPerMinute, prometheus.GaugeValue, self.monitor.Report.Indexer.State.AverageBlocksProcessedPerMinute.Load())
	ch <- prometheus.MustNewConstMetric(self.BlocksCommitted, prometheus.CounterValue, float64(self.monitor.Report.Indexer.State.BlocksCommitted.Load()))
	ch <- prometheus.MustNewConstMetric(self.ReorgsDetected, prometheus.CounterValue, float64(self.monitor.Report.Indexer.State.ReorgsDetected.Load()))
	ch <- prometheus.MustNewConstMetric(self.RollbacksExecuted, prometheus.CounterValue, float64(self.monitor.Report.Indexer.State.RollbacksExecuted.Load()))
	ch <- prometheus.MustNewConstMetric(self.LogsDecoded, prometheus.CounterValue, float64(self.monitor.Report.Indexer.State.LogsDecoded.Load()))
	ch <- prometheus.MustNewConstMetric(self.LogsSkipped, prometheus.CounterValue, float64(self.monitor.Report.Indexer.State.LogsSkipped.Load()))
	ch <- prometheus.MustNewConstMetric(self.LiquidationsSaved, prometheus.CounterValue, float64(self.monitor.Report.Indexer.State.LiquidationsSaved.Load()))
	ch <- prometheus.MustNewConstMetric(self.MarketSnapshotsTaken, prometheus.CounterValue, float64(self.monitor.Report.Snapshot.State.MarketSnapshotsTaken.Load()))
	ch <- prometheus.MustNewConstMetric(self.UserPositionSnapshotsTaken, prometheus.CounterValue, float64(self.monitor.Report.Snapshot.State.UserPositionSnapshotsTaken.Load()))
	ch <- prometheus.MustNewConstMetric(self.ProtocolSeverity, prometheus.GaugeValue, float64(self.monitor.Report.Snapshot.State.ProtocolSeverity.Load()))
	ch <- prometheus.MustNewConstMetric(self.AlertsEmitted, prometheus.CounterValue, float64(self.monitor.Report.Snapshot.State.AlertsEmitted.Load()))
	ch <- prometheus.MustNewConstMetric(self.AlertsDropped, prometheus.CounterValue, float64(self.monitor.Report.Snapshot.State.AlertsDropped.Load()))
	ch <- prometheus.MustNewConstMetric(self.MessagesPublished, prometheus.CounterValue, float64(self.monitor.Report.RedisPublisher.State.MessagesPublished.Load()))
	ch <- prometheus.MustNewConstMetric(self.DigestsDelivered, prometheus.CounterValue, float64(self.monitor.Report.Webhook.State.DigestsDelivered.Load()))

	// Errors
	ch <- prometheus.MustNewConstMetric(self.BlockFetchFailures, prometheus.CounterValue, float64(self.monitor.Report.Indexer.Errors.BlockFetchFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.LogFetchFailures, prometheus.CounterValue, float64(self.monitor.Report.Indexer.Errors.LogFetchFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.CommitFailures, prometheus.CounterValue, float64(self.monitor.Report.Indexer.Errors.CommitFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.RollbackFailures, prometheus.CounterValue, float64(self.monitor.Report.Indexer.Errors.RollbackFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.BlocksSkipped, prometheus.CounterValue, float64(self.monitor.Report.Indexer.Errors.BlocksSkipped.Load()))
	ch <- prometheus.MustNewConstMetric(self.MulticallFailures, prometheus.CounterValue, float64(self.monitor.Report.Snapshot.Errors.MulticallFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.SubCallFailures, prometheus.CounterValue, float64(self.monitor.Report.Snapshot.Errors.SubCallFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.OracleCallFailures, prometheus.CounterValue, float64(self.monitor.Report.Snapshot.Errors.OracleCallFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.StoreFailures, prometheus.CounterValue, float64(self.monitor.Report.Snapshot.Errors.StoreFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.RedisPublishErrors, prometheus.CounterValue, float64(self.monitor.Report.RedisPublisher.Errors.Publish.Load()))
	ch <- prometheus.MustNewConstMetric(self.RedisPersistentFailures, prometheus.CounterValue, float64(self.monitor.Report.RedisPublisher.Errors.PersistentFailure.Load()))
	ch <- prometheus.MustNewConstMetric(self.WebhookDeliveryErrors, prometheus.CounterValue, float64(self.monitor.Report.Webhook.Errors.Delivery.Load()))
	ch <- prometheus.MustNewConstMetric(self.WebhookPersistentFailures, prometheus.CounterValue, float64(self.monitor.Report.Webhook.Errors.PersistentFailure.Load()))
}

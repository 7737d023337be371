package report

type Report struct {
	Run            *RunReport            `json:"run,omitempty"`
	Indexer        *IndexerReport        `json:"indexer,omitempty"`
	Snapshot       *SnapshotReport       `json:"snapshot,omitempty"`
	RedisPublisher *RedisPublisherReport `json:"redis_publisher,omitempty"`
	Webhook        *WebhookReport        `json:"webhook,omitempty"`
}

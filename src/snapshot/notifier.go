package snapshot

import (
	"time"

	"github.com/lendguard/indexer/src/utils/config"
	"github.com/lendguard/indexer/src/utils/model"
	"github.com/lendguard/indexer/src/utils/monitoring"
	"github.com/lendguard/indexer/src/utils/task"

	"github.com/go-resty/resty/v2"
)

// AlertDigest is the webhook payload, one POST per batch of alerts
type AlertDigest struct {
	GeneratedAt time.Time               `json:"generated_at"`
	Count       int                     `json:"count"`
	MaxSeverity uint8                   `json:"max_severity"`
	Alerts      []*model.MarketSnapshot `json:"alerts"`
}

// Notifier batches threshold-crossing snapshots into webhook digests and
// forwards each alert to the Redis publisher. Alerting is best effort, a
// webhook that stays down loses digests but never stalls snapshotting.
type Notifier struct {
	*task.Processor[*model.MarketSnapshot, *model.MarketSnapshot]

	// Individual alerts for the Redis publisher, closed on stop
	RedisInput chan *model.MarketSnapshot

	snapshotConfig config.Snapshot
	monitor        monitoring.Monitor
	httpClient     *resty.Client
}

func NewNotifier(config *config.Config) (self *Notifier) {
	self = new(Notifier)

	self.snapshotConfig = config.Snapshot
	self.RedisInput = make(chan *model.MarketSnapshot, config.Snapshot.AlertChannelSize)

	self.httpClient = resty.New().
		SetTimeout(config.Snapshot.WebhookTimeout).
		SetRetryCount(3).
		SetRetryMaxWaitTime(config.Snapshot.AlertMaxBackoffInterval)

	self.Processor = task.NewProcessor[*model.MarketSnapshot, *model.MarketSnapshot](config, "alert-notifier").
		WithBatchSize(config.Snapshot.AlertBatchSize).
		WithOnProcess(self.process).
		WithOnFlush(config.Snapshot.AlertFlushInterval, self.flush)

	self.Task = self.Task.
		WithSubtaskFunc(self.forward)

	return
}

func (self *Notifier) WithInputChannel(v chan *model.MarketSnapshot) *Notifier {
	self.Processor = self.Processor.WithInputChannel(v)
	return self
}

func (self *Notifier) WithMonitor(monitor monitoring.Monitor) *Notifier {
	self.monitor = monitor
	return self
}

func (self *Notifier) process(snapshot *model.MarketSnapshot) ([]*model.MarketSnapshot, error) {
	return []*model.MarketSnapshot{snapshot}, nil
}

// flush delivers the digest and hands the batch to the forwarder. Delivery
// failure is counted, not returned, a dead webhook must not wedge the
// pipeline behind endless flush retries.
func (self *Notifier) flush(alerts []*model.MarketSnapshot) ([]*model.MarketSnapshot, error) {
	if len(alerts) == 0 {
		return nil, nil
	}

	if self.snapshotConfig.WebhookUrl != "" {
		self.deliver(alerts)
	}

	return alerts, nil
}

func (self *Notifier) deliver(alerts []*model.MarketSnapshot) {
	digest := AlertDigest{
		GeneratedAt: time.Now().UTC(),
		Count:       len(alerts),
		Alerts:      alerts,
	}
	for _, alert := range alerts {
		if alert.OverallSeverity > digest.MaxSeverity {
			digest.MaxSeverity = alert.OverallSeverity
		}
	}

	resp, err := self.httpClient.R().
		SetContext(self.Ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(&digest).
		Post(self.snapshotConfig.WebhookUrl)
	if err != nil {
		self.Log.WithError(err).Error("Failed to deliver alert digest")
		self.monitor.GetReport().Webhook.Errors.Delivery.Inc()
		self.monitor.GetReport().Webhook.Errors.PersistentFailure.Inc()
		return
	}
	if resp.IsError() {
		self.Log.WithField("status", resp.StatusCode()).Error("Alert digest rejected")
		self.monitor.GetReport().Webhook.Errors.Delivery.Inc()
		return
	}

	self.monitor.GetReport().Webhook.State.DigestsDelivered.Inc()
}

// forward fans flushed batches out to the Redis publisher one alert at a time
func (self *Notifier) forward() (err error) {
	defer close(self.RedisInput)

	for {
		select {
		case <-self.Ctx.Done():
			return nil
		case batch, ok := <-self.Output:
			if !ok {
				return nil
			}
			if !self.Config.Redis.Enabled {
				// Nothing consumes the channel then
				continue
			}
			for _, alert := range batch {
				select {
				case <-self.Ctx.Done():
					return nil
				case self.RedisInput <- alert:
				}
			}
		}
	}
}

package indexer

import (
	"github.com/lendguard/indexer/src/snapshot"
	"github.com/lendguard/indexer/src/utils/config"
	"github.com/lendguard/indexer/src/utils/eth"
	"github.com/lendguard/indexer/src/utils/model"
	"github.com/lendguard/indexer/src/utils/monitoring"
	monitor_indexer "github.com/lendguard/indexer/src/utils/monitoring/indexer"
	"github.com/lendguard/indexer/src/utils/publisher"
	"github.com/lendguard/indexer/src/utils/task"
)

type Controller struct {
	*task.Task
}

// NewController wires the whole service. Everything is set up here and
// started upon calling Controller.Start().
func NewController(config *config.Config) (self *Controller, err error) {
	self = new(Controller)
	self.Task = task.NewTask(config, "indexer")

	if len(config.Markets) == 0 {
		err = ErrNoMarkets
		self.Log.WithError(err).Error("Refusing to start without markets")
		return
	}

	// SQL database
	db, err := model.NewConnection(self.Ctx, config, "indexer")
	if err != nil {
		return
	}

	// Monitoring
	monitor := monitor_indexer.NewMonitor().
		WithMaxHistorySize(30)
	server := monitoring.NewServer(config).
		WithMonitor(monitor)

	// Eth client
	ethClient, err := eth.Dial(self.Log, &config.Indexer)
	if err != nil {
		self.Log.WithError(err).Error("Could not connect to the RPC provider")
		return
	}
	multicall, err := eth.NewMulticall(ethClient, config.Snapshot.MulticallAddress)
	if err != nil {
		self.Log.WithError(err).Error("Could not set up multicall")
		return
	}

	// Persistence for both indexed and derived state
	store := NewDbStore(db)

	// Derives snapshots from live contract state
	computer, err := snapshot.NewComputer(config, multicall, store, monitor)
	if err != nil {
		self.Log.WithError(err).Error("Could not set up snapshot computer")
		return
	}

	// Decodes pool logs
	schema, err := NewEventSchema()
	if err != nil {
		self.Log.WithError(err).Error("Could not parse pool events ABI")
		return
	}

	// Maps decoded events onto state updates
	handlers := NewHandlers(config.Indexer.ChainId, store, computer, monitor)

	// Walks the chain block by block
	processor := NewBlockProcessor(config, NewChainClient(ethClient), store, handlers, schema, monitor)

	// Follows the safe chain tip
	tipWatcher := NewTipWatcher(config).
		WithChainClient(NewChainClient(ethClient)).
		WithStore(store).
		WithProcessor(processor).
		WithMonitor(monitor)

	// Re-snapshots markets on a fixed interval
	ticker := snapshot.NewTicker(config).
		WithComputer(computer).
		WithMonitor(monitor)

	// Batches alerts into webhook digests
	notifier := snapshot.NewNotifier(config).
		WithInputChannel(computer.Alerts).
		WithMonitor(monitor)

	// Publishes alerts for the dashboard, optional
	redisPublisher := publisher.NewRedisPublisher[*model.MarketSnapshot](config, config.Redis, "alert-publisher").
		WithInputChannel(notifier.RedisInput).
		WithChannelName(config.Redis.ChannelName).
		WithMonitor(monitor)

	// Groups the alert producers so the channel is closed only after both
	// stopped, the notifier then drains what is left and finishes
	producers := task.NewTask(config, "producers").
		WithSubtask(tipWatcher.Task).
		WithSubtask(ticker.Task).
		WithOnAfterStop(func() {
			close(computer.Alerts)
		})

	self.Task.
		WithOnAfterStop(ethClient.Close).
		WithSubtask(producers).
		WithSubtask(notifier.Task).
		WithConditionalSubtask(config.Redis.Enabled, redisPublisher.Task).
		WithSubtask(monitor.Task).
		WithSubtask(server.Task)
	return
}

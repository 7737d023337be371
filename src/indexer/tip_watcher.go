package indexer

import (
	"context"
	"errors"

	"github.com/lendguard/indexer/src/utils/config"
	"github.com/lendguard/indexer/src/utils/monitoring"
	"github.com/lendguard/indexer/src/utils/task"
)

// TipWatcher periodically polls the node for its latest height and syncs the
// indexer up to the safe tip. Polling is deliberate, a missed pass is
// recovered on the next tick, whereas a dropped push subscription silently
// stalls.
type TipWatcher struct {
	*task.Task

	chain     ChainClient
	store     Store
	processor *BlockProcessor
	monitor   monitoring.Monitor
}

func NewTipWatcher(config *config.Config) (self *TipWatcher) {
	self = new(TipWatcher)

	self.Task = task.NewTask(config, "tip-watcher").
		WithPeriodicSubtaskFunc(config.Indexer.TipCheckInterval, self.check)

	return
}

func (self *TipWatcher) WithChainClient(chain ChainClient) *TipWatcher {
	self.chain = chain
	return self
}

func (self *TipWatcher) WithStore(store Store) *TipWatcher {
	self.store = store
	return self
}

func (self *TipWatcher) WithProcessor(processor *BlockProcessor) *TipWatcher {
	self.processor = processor
	return self
}

func (self *TipWatcher) WithMonitor(monitor monitoring.Monitor) *TipWatcher {
	self.monitor = monitor
	return self
}

func (self *TipWatcher) check() (err error) {
	currentHeight, err := self.chain.CurrentHeight(self.Ctx)
	if err != nil {
		self.Log.WithError(err).Error("Failed to fetch current height")
		self.monitor.GetReport().Indexer.Errors.BlockFetchFailures.Inc()
		return nil
	}

	if currentHeight < self.Config.Indexer.Confirmations {
		// Chain is younger than the confirmation depth, nothing is safe yet
		return nil
	}
	safeTip := currentHeight - self.Config.Indexer.Confirmations
	self.monitor.GetReport().Indexer.State.SafeTipHeight.Store(int64(safeTip))

	cursor, err := self.store.CurrentCursor(self.Ctx, self.Config.Indexer.ChainId)
	if err != nil {
		self.Log.WithError(err).Error("Failed to read sync cursor")
		return nil
	}

	from := self.Config.Indexer.DeploymentHeight
	if cursor != nil {
		from = cursor.LastHeight + 1
	}

	if from > safeTip {
		self.monitor.GetReport().Indexer.State.BlocksBehind.Store(0)
		return nil
	}
	self.monitor.GetReport().Indexer.State.BlocksBehind.Store(int64(safeTip - from + 1))

	// Stop() stops triggering new passes but a pass already in flight runs
	// to completion, so the cursor never lands mid-range on shutdown.
	// StopWait drains this goroutine before the process exits.
	err = self.processor.ProcessRange(context.WithoutCancel(self.Ctx), from, safeTip, self.Config.Markets)
	if err != nil {
		if errors.Is(err, ErrNoMarkets) {
			// Misconfiguration, not transient. Fail the task so the whole
			// service stops instead of spinning.
			return err
		}
		self.Log.WithError(err).Error("Sync pass failed, will retry on next tick")
	}
	return nil
}

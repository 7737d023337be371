package indexer

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lendguard/indexer/src/utils/config"
	"github.com/lendguard/indexer/src/utils/logger"
	"github.com/lendguard/indexer/src/utils/monitoring"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// BlockProcessor walks the chain one block at a time and keeps the derived
// state consistent with what it sees. Exactly one goroutine may process
// blocks for a chain at a time, the mutex serializes the periodic tip pass
// and operator-triggered resyncs.
type BlockProcessor struct {
	mtx sync.Mutex

	chain    ChainClient
	store    Store
	handlers *Handlers
	schema   *EventSchema
	monitor  monitoring.Monitor

	indexerConfig config.Indexer

	log *logrus.Entry
}

func NewBlockProcessor(config *config.Config, chain ChainClient, store Store, handlers *Handlers, schema *EventSchema, monitor monitoring.Monitor) (self *BlockProcessor) {
	self = new(BlockProcessor)
	self.chain = chain
	self.store = store
	self.handlers = handlers
	self.schema = schema
	self.monitor = monitor
	self.indexerConfig = config.Indexer
	self.log = logger.NewSublogger("block-processor")
	return
}

// ProcessRange processes heights [from, to] in order. A detected reorg moves
// the position back to the rollback target, so the range may be walked more
// than once. Returns early only on rollback failure or a cancelled context,
// a block that keeps failing is skipped, not fatal.
func (self *BlockProcessor) ProcessRange(ctx context.Context, from, to uint64, markets []config.Market) (err error) {
	if len(markets) == 0 {
		return ErrNoMarkets
	}

	self.mtx.Lock()
	defer self.mtx.Unlock()

	index := make(map[common.Address]config.Market, len(markets))
	addresses := make([]common.Address, 0, len(markets))
	for _, market := range markets {
		address := common.HexToAddress(market.PoolAddress)
		index[address] = market
		addresses = append(addresses, address)
	}

	height := from
	for height <= to {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		result := self.processBlockWithRetry(ctx, height, index, addresses)
		switch result.Status {
		case BlockCommitted:
			height += 1

		case BlockSkipped:
			self.log.WithError(result.Reason).
				WithField("height", height).
				Error("Skipping block after failed retry, derived state has a gap")
			self.monitor.GetReport().Indexer.Errors.BlocksSkipped.Inc()
			height += 1

		case BlockReorg:
			self.log.WithField("height", height).
				WithField("rollback_target", result.RollbackTarget).
				Warn("Reorg detected, rolling back")
			self.monitor.GetReport().Indexer.State.ReorgsDetected.Inc()

			err = self.store.Rollback(ctx, self.indexerConfig.ChainId, result.RollbackTarget)
			if err != nil {
				self.log.WithError(err).Error("Rollback failed, aborting pass")
				self.monitor.GetReport().Indexer.Errors.RollbackFailures.Inc()
				return
			}
			self.monitor.GetReport().Indexer.State.RollbacksExecuted.Inc()

			height = result.RollbackTarget
		}
	}
	return nil
}

// processBlockWithRetry retries a failed block once after a fixed delay.
// Transient RPC and database hiccups usually clear within the delay,
// anything that survives both attempts is skipped so one bad block cannot
// stall the whole chain.
func (self *BlockProcessor) processBlockWithRetry(ctx context.Context, height uint64, index map[common.Address]config.Market, addresses []common.Address) (result BlockResult) {
	result, err := self.processBlock(ctx, height, index, addresses)
	if err == nil {
		return
	}

	self.log.WithError(err).WithField("height", height).Warn("Block processing failed, retrying once")

	select {
	case <-ctx.Done():
		return BlockResult{Status: BlockSkipped, Height: height, Reason: ctx.Err()}
	case <-time.After(self.indexerConfig.RetryDelay):
	}

	result, err = self.processBlock(ctx, height, index, addresses)
	if err != nil {
		return BlockResult{Status: BlockSkipped, Height: height, Reason: err}
	}
	return
}

func (self *BlockProcessor) processBlock(ctx context.Context, height uint64, index map[common.Address]config.Market, addresses []common.Address) (result BlockResult, err error) {
	header, err := self.chain.BlockHeader(ctx, height)
	if err != nil {
		self.monitor.GetReport().Indexer.Errors.BlockFetchFailures.Inc()
		return
	}

	if height > 0 {
		prevHash, prevKnown, err := self.store.BlockHash(ctx, self.indexerConfig.ChainId, height-1)
		if err != nil {
			return BlockResult{}, err
		}

		isReorg, target := DetectReorg(prevHash, prevKnown, header, self.indexerConfig.ReorgBuffer, self.indexerConfig.DeploymentHeight)
		if isReorg {
			return BlockResult{Status: BlockReorg, Height: height, RollbackTarget: target}, nil
		}
	}

	logs, err := self.chain.Logs(ctx, addresses, height, height)
	if err != nil {
		self.monitor.GetReport().Indexer.Errors.LogFetchFailures.Inc()
		return
	}

	// Log order within the block is part of the derived state's meaning
	sort.Slice(logs, func(i, j int) bool { return logs[i].Index < logs[j].Index })

	for i := range logs {
		event, ok := self.schema.Decode(&logs[i], index, header.Time)
		if !ok {
			self.monitor.GetReport().Indexer.State.LogsSkipped.Inc()
			continue
		}
		self.monitor.GetReport().Indexer.State.LogsDecoded.Inc()

		err = self.handlers.Handle(ctx, event)
		if err != nil {
			return
		}
	}

	var pruneBelow uint64
	if height > self.indexerConfig.ReorgBuffer {
		pruneBelow = height - self.indexerConfig.ReorgBuffer
	}

	err = self.store.CommitBlock(ctx, self.indexerConfig.ChainId, height, header.Hash, pruneBelow)
	if err != nil {
		self.monitor.GetReport().Indexer.Errors.CommitFailures.Inc()
		return
	}

	self.monitor.GetReport().Indexer.State.BlocksCommitted.Inc()
	self.monitor.GetReport().Indexer.State.LastProcessedHeight.Store(int64(height))

	return BlockResult{Status: BlockCommitted, Height: height}, nil
}

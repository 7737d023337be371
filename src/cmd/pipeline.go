package cmd

import (
	"github.com/lendguard/indexer/src/indexer"
	"github.com/lendguard/indexer/src/snapshot"
	"github.com/lendguard/indexer/src/utils/eth"
	"github.com/lendguard/indexer/src/utils/logger"
	"github.com/lendguard/indexer/src/utils/model"
	monitor_indexer "github.com/lendguard/indexer/src/utils/monitoring/indexer"
)

// blockPipeline is the block processing wiring used by one-off operator
// commands, the same per-block path the tip sync runs without the
// surrounding tasks.
type blockPipeline struct {
	processor *indexer.BlockProcessor
	chain     indexer.ChainClient
	store     *indexer.DbStore
	close     func()
}

func newBlockPipeline(applicationName string) (self *blockPipeline, err error) {
	self = new(blockPipeline)

	db, err := model.NewConnection(applicationCtx, conf, applicationName)
	if err != nil {
		return
	}

	log := logger.NewSublogger(applicationName)
	ethClient, err := eth.Dial(log, &conf.Indexer)
	if err != nil {
		return
	}
	self.close = ethClient.Close

	multicall, err := eth.NewMulticall(ethClient, conf.Snapshot.MulticallAddress)
	if err != nil {
		return
	}

	self.store = indexer.NewDbStore(db)
	self.chain = indexer.NewChainClient(ethClient)

	monitor := monitor_indexer.NewMonitor().
		WithMaxHistorySize(30)

	computer, err := snapshot.NewComputer(conf, multicall, self.store, monitor)
	if err != nil {
		return
	}

	schema, err := indexer.NewEventSchema()
	if err != nil {
		return
	}

	handlers := indexer.NewHandlers(conf.Indexer.ChainId, self.store, computer, monitor)
	self.processor = indexer.NewBlockProcessor(conf, self.chain, self.store, handlers, schema, monitor)
	return
}

package indexer

import (
	"testing"
	"time"

	"github.com/lendguard/indexer/src/utils/config"
	"github.com/lendguard/indexer/src/utils/model"
	monitor_indexer "github.com/lendguard/indexer/src/utils/monitoring/indexer"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestTipWatcherTestSuite(t *testing.T) {
	suite.Run(t, new(TipWatcherTestSuite))
}

type TipWatcherTestSuite struct {
	suite.Suite
	config *config.Config
	schema *EventSchema
}

func (s *TipWatcherTestSuite) SetupSuite() {
	var err error
	s.schema, err = NewEventSchema()
	require.NoError(s.T(), err)
}

func (s *TipWatcherTestSuite) SetupTest() {
	pool := common.HexToAddress("0x1111111111111111111111111111111111111111")

	s.config = config.Default()
	s.config.Markets = []config.Market{{Name: "usdc", PoolAddress: pool.Hex()}}
	s.config.Indexer.ChainId = 1
	s.config.Indexer.Confirmations = 4
	s.config.Indexer.ReorgBuffer = 1
	s.config.Indexer.DeploymentHeight = 100
	s.config.Indexer.RetryDelay = time.Millisecond
	s.config.Indexer.TipCheckInterval = time.Hour
}

func (s *TipWatcherTestSuite) newWatcher(chain *fakeChain, store *fakeStore) (*TipWatcher, *monitor_indexer.Monitor) {
	monitor := monitor_indexer.NewMonitor().WithMaxHistorySize(5)
	handlers := NewHandlers(s.config.Indexer.ChainId, store, &fakeComputer{}, monitor)
	processor := NewBlockProcessor(s.config, chain, store, handlers, s.schema, monitor)

	watcher := NewTipWatcher(s.config).
		WithChainClient(chain).
		WithStore(store).
		WithProcessor(processor).
		WithMonitor(monitor)
	return watcher, monitor
}

func (s *TipWatcherTestSuite) TestSyncsToSafeTip() {
	chain := newFakeChain()
	chain.extend(100, 110, "a", "0xgenesis")
	store := newFakeStore()

	watcher, monitor := s.newWatcher(chain, store)

	err := watcher.check()
	require.NoError(s.T(), err)

	// Tip 110 minus 4 confirmations
	require.NotNil(s.T(), store.cursor)
	assert.Equal(s.T(), uint64(106), store.cursor.LastHeight)
	assert.Equal(s.T(), int64(106), monitor.Report.Indexer.State.SafeTipHeight.Load())
}

func (s *TipWatcherTestSuite) TestResumesFromCursor() {
	chain := newFakeChain()
	chain.extend(100, 110, "a", "0xgenesis")
	store := newFakeStore()
	store.cursor = &model.SyncCursor{ChainId: 1, LastHeight: 104, LastHash: "0xa104"}
	store.blocks[104] = "0xa104"

	watcher, _ := s.newWatcher(chain, store)

	err := watcher.check()
	require.NoError(s.T(), err)

	assert.Equal(s.T(), uint64(106), store.cursor.LastHeight)
	// 100..104 were not refetched
	_, has103 := store.blocks[103]
	assert.False(s.T(), has103)
}

func (s *TipWatcherTestSuite) TestNothingToDoAtTip() {
	chain := newFakeChain()
	chain.extend(100, 110, "a", "0xgenesis")
	store := newFakeStore()
	store.cursor = &model.SyncCursor{ChainId: 1, LastHeight: 106, LastHash: "0xa106"}

	watcher, monitor := s.newWatcher(chain, store)

	err := watcher.check()
	require.NoError(s.T(), err)

	assert.Equal(s.T(), uint64(106), store.cursor.LastHeight)
	assert.Equal(s.T(), int64(0), monitor.Report.Indexer.State.BlocksBehind.Load())
}

func (s *TipWatcherTestSuite) TestStopDoesNotInterruptInflightPass() {
	chain := newFakeChain()
	chain.extend(100, 110, "a", "0xgenesis")
	store := newFakeStore()

	watcher, _ := s.newWatcher(chain, store)

	// Stopping cancels the task context, a pass started before (or racing
	// with) the stop still syncs the whole range
	watcher.Stop()

	err := watcher.check()
	require.NoError(s.T(), err)

	require.NotNil(s.T(), store.cursor)
	assert.Equal(s.T(), uint64(106), store.cursor.LastHeight)
}

func (s *TipWatcherTestSuite) TestFailsOnMissingMarkets() {
	s.config.Markets = nil

	chain := newFakeChain()
	chain.extend(100, 110, "a", "0xgenesis")

	watcher, _ := s.newWatcher(chain, newFakeStore())

	err := watcher.check()
	assert.ErrorIs(s.T(), err, ErrNoMarkets)
}

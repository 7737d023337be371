package snapshot

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/lendguard/indexer/src/utils/config"
	"github.com/lendguard/indexer/src/utils/eth"
	"github.com/lendguard/indexer/src/utils/model"
	monitor_indexer "github.com/lendguard/indexer/src/utils/monitoring/indexer"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestComputerTestSuite(t *testing.T) {
	suite.Run(t, new(ComputerTestSuite))
}

type ComputerTestSuite struct {
	suite.Suite
	config *config.Config
	market config.Market
}

func (s *ComputerTestSuite) SetupSuite() {
	s.market = config.Market{
		Name:          "usdc",
		PoolAddress:   "0x1111111111111111111111111111111111111111",
		OracleAddress: "0x2222222222222222222222222222222222222222",
	}
}

func (s *ComputerTestSuite) SetupTest() {
	s.config = config.Default()
	s.config.Markets = []config.Market{s.market}
}

func (s *ComputerTestSuite) newComputer(caller BatchCaller) (*Computer, *fakeSnapshotStore) {
	store := newFakeSnapshotStore()
	monitor := monitor_indexer.NewMonitor().WithMaxHistorySize(5)
	computer, err := NewComputer(s.config, caller, store, monitor)
	require.NoError(s.T(), err)
	return computer, store
}

// --- fakes ---

type fakeCaller struct {
	mtx     sync.Mutex
	batches [][]eth.Result
	err     error
}

func (self *fakeCaller) TryAggregate(ctx context.Context, calls []eth.Call) ([]eth.Result, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	if self.err != nil {
		return nil, self.err
	}
	batch := self.batches[0]
	if len(self.batches) > 1 {
		self.batches = self.batches[1:]
	}
	return batch, nil
}

type fakeSnapshotStore struct {
	mtx           sync.Mutex
	markets       []*model.MarketSnapshot
	userPositions []*model.UserPositionSnapshot
}

func newFakeSnapshotStore() *fakeSnapshotStore {
	return &fakeSnapshotStore{}
}

func (self *fakeSnapshotStore) SaveMarketSnapshot(ctx context.Context, snapshot *model.MarketSnapshot) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.markets = append(self.markets, snapshot)
	return nil
}

func (self *fakeSnapshotStore) SaveUserPositionSnapshot(ctx context.Context, snapshot *model.UserPositionSnapshot) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.userPositions = append(self.userPositions, snapshot)
	return nil
}

// --- encoding helpers ---

func word(v *big.Int) eth.Result {
	return eth.Result{Success: true, ReturnData: common.LeftPadBytes(v.Bytes(), 32)}
}

func wadOf(f float64) *big.Int {
	scaled, _ := new(big.Float).Mul(big.NewFloat(f), big.NewFloat(1e18)).Int(nil)
	return scaled
}

func oracleResult(confidence int64, stale bool, riskScore int64) eth.Result {
	data := make([]byte, 0, 4*32)
	data = append(data, common.LeftPadBytes(big.NewInt(100).Bytes(), 32)...) // price
	data = append(data, common.LeftPadBytes(big.NewInt(confidence).Bytes(), 32)...)
	staleWord := big.NewInt(0)
	if stale {
		staleWord = big.NewInt(1)
	}
	data = append(data, common.LeftPadBytes(staleWord.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(big.NewInt(riskScore).Bytes(), 32)...)
	return eth.Result{Success: true, ReturnData: data}
}

// marketBatch lays out results in the call order TakeMarketSnapshot uses
func marketBatch(availableLiquidity, totalBorrows int64, utilization, kink float64, oracle eth.Result) []eth.Result {
	return []eth.Result{
		word(big.NewInt(availableLiquidity)),
		word(big.NewInt(availableLiquidity + totalBorrows)), // totalAssets
		word(big.NewInt(totalBorrows)),
		word(wadOf(utilization)),
		word(wadOf(0.04)), // borrowRate
		word(wadOf(0.02)), // lendRate
		word(wadOf(kink)),
		word(wadOf(1.01)), // borrowIndex
		oracle,
	}
}

// --- tests ---

func (s *ComputerTestSuite) TestHealthyMarket() {
	caller := &fakeCaller{batches: [][]eth.Result{
		marketBatch(500, 100, 0.5, 0.8, oracleResult(99, false, 0)),
	}}
	computer, store := s.newComputer(caller)

	snapshot, err := computer.TakeMarketSnapshot(context.Background(), s.market)
	require.NoError(s.T(), err)

	assert.Equal(s.T(), "usdc", snapshot.Market)
	assert.InDelta(s.T(), 5.0, snapshot.DepthRatio, 1e-9)
	assert.InDelta(s.T(), 0.5, snapshot.UtilizationRate, 1e-9)
	assert.InDelta(s.T(), 0.3, snapshot.DistanceToKink, 1e-9)
	assert.False(s.T(), snapshot.OracleCallFailed)

	assert.Equal(s.T(), uint8(Normal), snapshot.LiquiditySeverity)
	assert.Equal(s.T(), uint8(Normal), snapshot.UtilizationSeverity)
	assert.Equal(s.T(), uint8(Normal), snapshot.RateSeverity)
	assert.Equal(s.T(), uint8(Normal), snapshot.OracleSeverity)
	assert.Equal(s.T(), uint8(Normal), snapshot.OverallSeverity)

	require.Len(s.T(), store.markets, 1)
	assert.Empty(s.T(), computer.Alerts)
}

func (s *ComputerTestSuite) TestOracleFailureIsFlaggedNotScored() {
	caller := &fakeCaller{batches: [][]eth.Result{
		marketBatch(500, 100, 0.5, 0.8, eth.Result{Success: false}),
	}}
	computer, store := s.newComputer(caller)

	snapshot, err := computer.TakeMarketSnapshot(context.Background(), s.market)
	require.NoError(s.T(), err)

	assert.True(s.T(), snapshot.OracleCallFailed)
	assert.Equal(s.T(), uint8(Normal), snapshot.OracleSeverity)
	assert.Equal(s.T(), uint8(Normal), snapshot.OverallSeverity)
	assert.Len(s.T(), store.markets, 1)
}

func (s *ComputerTestSuite) TestZeroBorrowsCapsDepthRatio() {
	caller := &fakeCaller{batches: [][]eth.Result{
		marketBatch(500, 0, 0.0, 0.8, oracleResult(99, false, 0)),
	}}
	computer, _ := s.newComputer(caller)

	snapshot, err := computer.TakeMarketSnapshot(context.Background(), s.market)
	require.NoError(s.T(), err)

	assert.InDelta(s.T(), 10.0, snapshot.DepthRatio, 1e-9)
	assert.Equal(s.T(), uint8(Normal), snapshot.LiquiditySeverity)
}

func (s *ComputerTestSuite) TestThresholdCrossingEmitsAlert() {
	// Past the kink, utilization critical
	caller := &fakeCaller{batches: [][]eth.Result{
		marketBatch(10, 990, 0.98, 0.8, oracleResult(99, false, 0)),
	}}
	computer, _ := s.newComputer(caller)

	snapshot, err := computer.TakeMarketSnapshot(context.Background(), s.market)
	require.NoError(s.T(), err)

	assert.Equal(s.T(), uint8(Emergency), snapshot.RateSeverity)
	assert.Equal(s.T(), uint8(Emergency), snapshot.OverallSeverity)

	select {
	case alert := <-computer.Alerts:
		assert.Equal(s.T(), snapshot, alert)
	default:
		s.T().Fatal("expected an alert on the channel")
	}
}

func (s *ComputerTestSuite) TestKinkFallsBackToCachedValue() {
	healthy := marketBatch(500, 100, 0.5, 0.8, oracleResult(99, false, 0))

	// Second pass fails only the optimalUtilization sub-call
	degraded := marketBatch(500, 100, 0.5, 0.8, oracleResult(99, false, 0))
	degraded[6] = eth.Result{Success: false}

	caller := &fakeCaller{batches: [][]eth.Result{healthy, degraded}}
	computer, _ := s.newComputer(caller)

	_, err := computer.TakeMarketSnapshot(context.Background(), s.market)
	require.NoError(s.T(), err)

	snapshot, err := computer.TakeMarketSnapshot(context.Background(), s.market)
	require.NoError(s.T(), err)

	assert.InDelta(s.T(), 0.8, snapshot.OptimalUtilization, 1e-9)
}

func (s *ComputerTestSuite) TestUserPositionSnapshot() {
	caller := &fakeCaller{batches: [][]eth.Result{{
		word(big.NewInt(1000)), // collateralOf
		word(big.NewInt(400)),  // debtOf
		word(wadOf(2.5)),       // healthFactor
		word(big.NewInt(600)),  // borrowingPower
	}}}
	computer, store := s.newComputer(caller)

	user := common.HexToAddress("0x000000000000000000000000000000000000aaaa")
	snapshot, err := computer.TakeUserPositionSnapshot(context.Background(), s.market, user)
	require.NoError(s.T(), err)

	assert.Equal(s.T(), user.Hex(), snapshot.UserAddress)
	assert.InDelta(s.T(), 2.5, snapshot.HealthFactor, 1e-9)
	require.Len(s.T(), store.userPositions, 1)
}

func (s *ComputerTestSuite) TestMulticallErrorFailsSnapshot() {
	caller := &fakeCaller{err: errors.New("rpc down")}
	computer, store := s.newComputer(caller)

	_, err := computer.TakeMarketSnapshot(context.Background(), s.market)
	assert.Error(s.T(), err)
	assert.Empty(s.T(), store.markets)
}

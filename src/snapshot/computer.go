package snapshot

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/lendguard/indexer/src/utils/config"
	"github.com/lendguard/indexer/src/utils/eth"
	"github.com/lendguard/indexer/src/utils/logger"
	"github.com/lendguard/indexer/src/utils/model"
	"github.com/lendguard/indexer/src/utils/monitoring"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// Read-only views of the lending pool
const poolViewsAbiJson = `[
	{"type":"function","name":"availableLiquidity","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"totalAssets","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"totalBorrows","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"utilizationRate","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"borrowRate","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"lendRate","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"optimalUtilization","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"borrowIndex","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"collateralOf","stateMutability":"view","inputs":[{"type":"address"}],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"debtOf","stateMutability":"view","inputs":[{"type":"address"}],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"healthFactor","stateMutability":"view","inputs":[{"type":"address"}],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"borrowingPower","stateMutability":"view","inputs":[{"type":"address"}],"outputs":[{"type":"uint256"}]}
]`

const oracleAbiJson = `[
	{"type":"function","name":"evaluate","stateMutability":"view","inputs":[],"outputs":[
		{"name":"price","type":"uint256"},
		{"name":"confidence","type":"uint256"},
		{"name":"stale","type":"bool"},
		{"name":"riskScore","type":"uint256"}
	]}
]`

// Fixed point scale used by the pool contracts
var wad = new(big.Float).SetFloat64(1e18)

// Used when the live optimalUtilization read fails and nothing is cached yet
const defaultKink = 0.90

// depthRatio is capped so one flush market cannot skew averages downstream
const maxDepthRatio = 10.0

// Computer derives market and user position snapshots from a single batched
// read of live contract state. Snapshots are persisted on computation and
// those at or above the alert threshold are pushed to the Alerts channel.
type Computer struct {
	caller  BatchCaller
	store   Store
	monitor monitoring.Monitor

	snapshotConfig config.Snapshot

	poolAbi   abi.ABI
	oracleAbi abi.ABI

	// Slow moving pool parameters, kept around to ride out failed reads
	kinkCache *cache.Cache

	// Snapshots whose overall severity crossed the threshold.
	// Send is non-blocking, a full channel drops the alert and counts it.
	Alerts chan *model.MarketSnapshot

	log *logrus.Entry
}

func NewComputer(config *config.Config, caller BatchCaller, store Store, monitor monitoring.Monitor) (self *Computer, err error) {
	self = new(Computer)
	self.caller = caller
	self.store = store
	self.monitor = monitor
	self.snapshotConfig = config.Snapshot
	self.log = logger.NewSublogger("snapshot-computer")

	self.poolAbi, err = abi.JSON(strings.NewReader(poolViewsAbiJson))
	if err != nil {
		return nil, err
	}
	self.oracleAbi, err = abi.JSON(strings.NewReader(oracleAbiJson))
	if err != nil {
		return nil, err
	}

	self.kinkCache = cache.New(config.Snapshot.ParamsCacheTTL, config.Snapshot.ParamsCacheCleanupInterval)
	self.Alerts = make(chan *model.MarketSnapshot, config.Snapshot.AlertChannelSize)
	return
}

func (self *Computer) TakeMarketSnapshot(ctx context.Context, market config.Market) (snapshot *model.MarketSnapshot, err error) {
	pool := common.HexToAddress(market.PoolAddress)
	oracle := common.HexToAddress(market.OracleAddress)

	methods := []string{
		"availableLiquidity", "totalAssets", "totalBorrows",
		"utilizationRate", "borrowRate", "lendRate",
		"optimalUtilization", "borrowIndex",
	}

	calls := make([]eth.Call, 0, len(methods)+1)
	for _, method := range methods {
		var data []byte
		data, err = self.poolAbi.Pack(method)
		if err != nil {
			return
		}
		calls = append(calls, eth.Call{Target: pool, CallData: data})
	}

	evaluateData, err := self.oracleAbi.Pack("evaluate")
	if err != nil {
		return
	}
	calls = append(calls, eth.Call{Target: oracle, CallData: evaluateData})

	results, err := self.caller.TryAggregate(ctx, calls)
	if err != nil {
		self.log.WithError(err).WithField("market", market.Name).Error("Multicall failed")
		self.monitor.GetReport().Snapshot.Errors.MulticallFailures.Inc()
		return nil, err
	}
	if len(results) != len(calls) {
		self.monitor.GetReport().Snapshot.Errors.MulticallFailures.Inc()
		return nil, ErrTruncatedMulticall
	}

	availableLiquidity := self.uint256At(results, 0, "availableLiquidity", market.Name)
	totalAssets := self.uint256At(results, 1, "totalAssets", market.Name)
	totalBorrows := self.uint256At(results, 2, "totalBorrows", market.Name)
	utilization := wadToFloat(self.uint256At(results, 3, "utilizationRate", market.Name))
	borrowRate := wadToFloat(self.uint256At(results, 4, "borrowRate", market.Name))
	lendRate := wadToFloat(self.uint256At(results, 5, "lendRate", market.Name))
	borrowIndex := self.uint256At(results, 7, "borrowIndex", market.Name)

	kink := self.resolveKink(results, 6, market.Name)

	depthRatio := depthRatio(availableLiquidity, totalBorrows)
	distanceToKink := kink - utilization

	snapshot = &model.MarketSnapshot{
		Market:        market.Name,
		MarketAddress: market.PoolAddress,
		Timestamp:     time.Now().UTC(),

		AvailableLiquidity: model.NumericFromBigInt(availableLiquidity),
		TotalAssets:        model.NumericFromBigInt(totalAssets),
		TotalBorrows:       model.NumericFromBigInt(totalBorrows),
		UtilizationRate:    utilization,
		BorrowRate:         borrowRate,
		OptimalUtilization: kink,
		LendRate:           lendRate,
		BorrowIndex:        model.NumericFromBigInt(borrowIndex),

		DepthRatio:     depthRatio,
		DistanceToKink: distanceToKink,
	}

	oracleSeverity := self.evaluateOracle(results[len(results)-1], market.Name, snapshot)

	liquiditySeverity := ScoreLiquidity(depthRatio)
	utilizationSeverity := ScoreUtilization(utilization)
	rateSeverity := ScoreRateConvexity(utilization, kink)

	snapshot.LiquiditySeverity = uint8(liquiditySeverity)
	snapshot.UtilizationSeverity = uint8(utilizationSeverity)
	snapshot.RateSeverity = uint8(rateSeverity)
	snapshot.OracleSeverity = uint8(oracleSeverity)
	snapshot.OverallSeverity = uint8(Aggregate(liquiditySeverity, utilizationSeverity, rateSeverity, oracleSeverity))

	err = self.store.SaveMarketSnapshot(ctx, snapshot)
	if err != nil {
		self.log.WithError(err).WithField("market", market.Name).Error("Failed to save market snapshot")
		self.monitor.GetReport().Snapshot.Errors.StoreFailures.Inc()
		return nil, err
	}
	self.monitor.GetReport().Snapshot.State.MarketSnapshotsTaken.Inc()

	if int(snapshot.OverallSeverity) >= self.snapshotConfig.AlertSeverityThreshold {
		select {
		case self.Alerts <- snapshot:
			self.monitor.GetReport().Snapshot.State.AlertsEmitted.Inc()
		default:
			self.monitor.GetReport().Snapshot.State.AlertsDropped.Inc()
		}
	}

	return
}

func (self *Computer) TakeUserPositionSnapshot(ctx context.Context, market config.Market, user common.Address) (snapshot *model.UserPositionSnapshot, err error) {
	pool := common.HexToAddress(market.PoolAddress)

	methods := []string{"collateralOf", "debtOf", "healthFactor", "borrowingPower"}
	calls := make([]eth.Call, 0, len(methods))
	for _, method := range methods {
		var data []byte
		data, err = self.poolAbi.Pack(method, user)
		if err != nil {
			return
		}
		calls = append(calls, eth.Call{Target: pool, CallData: data})
	}

	results, err := self.caller.TryAggregate(ctx, calls)
	if err != nil {
		self.log.WithError(err).WithField("market", market.Name).Error("Multicall failed")
		self.monitor.GetReport().Snapshot.Errors.MulticallFailures.Inc()
		return nil, err
	}

	snapshot = &model.UserPositionSnapshot{
		Market:        market.Name,
		MarketAddress: market.PoolAddress,
		UserAddress:   user.Hex(),
		Timestamp:     time.Now().UTC(),

		CollateralValue: model.NumericFromBigInt(self.uint256At(results, 0, "collateralOf", market.Name)),
		Debt:            model.NumericFromBigInt(self.uint256At(results, 1, "debtOf", market.Name)),
		HealthFactor:    wadToFloat(self.uint256At(results, 2, "healthFactor", market.Name)),
		BorrowingPower:  model.NumericFromBigInt(self.uint256At(results, 3, "borrowingPower", market.Name)),
	}

	err = self.store.SaveUserPositionSnapshot(ctx, snapshot)
	if err != nil {
		self.log.WithError(err).
			WithField("market", market.Name).
			WithField("user", user.Hex()).
			Error("Failed to save user position snapshot")
		self.monitor.GetReport().Snapshot.Errors.StoreFailures.Inc()
		return nil, err
	}
	self.monitor.GetReport().Snapshot.State.UserPositionSnapshotsTaken.Inc()

	return
}

// uint256At decodes one sub-call result, zero on failure. A failed sub-call
// degrades the snapshot instead of failing it.
func (self *Computer) uint256At(results []eth.Result, i int, method, market string) *big.Int {
	if i >= len(results) || !results[i].Success || len(results[i].ReturnData) == 0 {
		self.log.WithField("market", market).WithField("method", method).Debug("Sub-call failed")
		self.monitor.GetReport().Snapshot.Errors.SubCallFailures.Inc()
		return new(big.Int)
	}

	values, err := self.poolAbi.Unpack(method, results[i].ReturnData)
	if err != nil || len(values) == 0 {
		self.monitor.GetReport().Snapshot.Errors.SubCallFailures.Inc()
		return new(big.Int)
	}

	value, ok := values[0].(*big.Int)
	if !ok {
		self.monitor.GetReport().Snapshot.Errors.SubCallFailures.Inc()
		return new(big.Int)
	}
	return value
}

// resolveKink reads optimalUtilization, falling back to the cached value
// when the live read fails. The parameter changes only through governance.
func (self *Computer) resolveKink(results []eth.Result, i int, market string) float64 {
	if i < len(results) && results[i].Success && len(results[i].ReturnData) > 0 {
		values, err := self.poolAbi.Unpack("optimalUtilization", results[i].ReturnData)
		if err == nil && len(values) > 0 {
			if value, ok := values[0].(*big.Int); ok {
				kink := wadToFloat(value)
				self.kinkCache.Set(market, kink, cache.DefaultExpiration)
				return kink
			}
		}
	}

	self.monitor.GetReport().Snapshot.Errors.SubCallFailures.Inc()

	if cached, found := self.kinkCache.Get(market); found {
		return cached.(float64)
	}
	self.log.WithField("market", market).Warn("No cached optimal utilization, using default")
	return defaultKink
}

// evaluateOracle fills the oracle fields of the snapshot and returns the
// oracle severity. A failed oracle call is flagged and scored Normal, the
// flag tells operators the score is not trustworthy rather than pretending
// the feed is fine or dead.
func (self *Computer) evaluateOracle(result eth.Result, market string, snapshot *model.MarketSnapshot) Severity {
	if !result.Success || len(result.ReturnData) == 0 {
		self.log.WithField("market", market).Warn("Oracle evaluate call failed")
		self.monitor.GetReport().Snapshot.Errors.OracleCallFailures.Inc()
		snapshot.OracleCallFailed = true
		return Normal
	}

	values, err := self.oracleAbi.Unpack("evaluate", result.ReturnData)
	if err != nil || len(values) < 4 {
		self.monitor.GetReport().Snapshot.Errors.OracleCallFailures.Inc()
		snapshot.OracleCallFailed = true
		return Normal
	}

	price, _ := values[0].(*big.Int)
	confidence, _ := values[1].(*big.Int)
	stale, _ := values[2].(bool)
	riskScore, _ := values[3].(*big.Int)
	if price == nil || confidence == nil || riskScore == nil {
		self.monitor.GetReport().Snapshot.Errors.OracleCallFailures.Inc()
		snapshot.OracleCallFailed = true
		return Normal
	}

	eval := OracleEvaluation{
		Price:      price,
		Confidence: float64(confidence.Uint64()),
		Stale:      stale,
		RiskScore:  float64(riskScore.Uint64()),
	}

	snapshot.OraclePrice = model.NumericFromBigInt(eval.Price)
	snapshot.OracleConfidence = eval.Confidence
	snapshot.OracleStale = eval.Stale
	snapshot.OracleRiskScore = eval.RiskScore

	return ScoreOracle(eval)
}

// depthRatio is availableLiquidity / totalBorrows capped at maxDepthRatio.
// No borrows means liquidity cannot be exhausted, which maps to the cap.
func depthRatio(availableLiquidity, totalBorrows *big.Int) float64 {
	if totalBorrows.Sign() == 0 {
		return maxDepthRatio
	}
	ratio, _ := new(big.Float).Quo(
		new(big.Float).SetInt(availableLiquidity),
		new(big.Float).SetInt(totalBorrows),
	).Float64()
	if ratio > maxDepthRatio {
		return maxDepthRatio
	}
	return ratio
}

func wadToFloat(v *big.Int) float64 {
	out, _ := new(big.Float).Quo(new(big.Float).SetInt(v), wad).Float64()
	return out
}

package model

import (
	"encoding/json"
	"time"

	"github.com/jackc/pgtype"
)

const TableMarketSnapshots = "market_snapshots"

// MarketSnapshot is an immutable point-in-time measurement of one market,
// re-derived from a live contract read. Rows are only ever inserted.
// A reorg does not invalidate them, a stale snapshot is superseded by the
// next one, which is why there is no foreign key to a block.
type MarketSnapshot struct {
	Id            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Market        string    `json:"market"`
	MarketAddress string    `json:"market_address"`
	Timestamp     time.Time `json:"timestamp"`

	AvailableLiquidity pgtype.Numeric `json:"-"`
	TotalAssets        pgtype.Numeric `json:"-"`
	TotalBorrows       pgtype.Numeric `json:"-"`
	UtilizationRate    float64        `json:"utilization_rate"`
	BorrowRate         float64        `json:"borrow_rate"`
	OptimalUtilization float64        `json:"optimal_utilization"`
	LendRate           float64        `json:"lend_rate"`
	BorrowIndex        pgtype.Numeric `json:"-"`

	DepthRatio     float64 `json:"depth_ratio"`
	DistanceToKink float64 `json:"distance_to_kink"`

	OraclePrice      pgtype.Numeric `json:"-"`
	OracleConfidence float64        `json:"oracle_confidence"`
	OracleStale      bool           `json:"oracle_stale"`
	OracleRiskScore  float64        `json:"oracle_risk_score"`
	OracleCallFailed bool           `json:"oracle_call_failed"`

	LiquiditySeverity   uint8 `json:"liquidity_severity"`
	UtilizationSeverity uint8 `json:"utilization_severity"`
	RateSeverity        uint8 `json:"rate_severity"`
	OracleSeverity      uint8 `json:"oracle_severity"`
	OverallSeverity     uint8 `json:"overall_severity"`
}

func (MarketSnapshot) TableName() string {
	return TableMarketSnapshots
}

// MarshalBinary makes snapshots publishable as alert payloads
func (self *MarketSnapshot) MarshalBinary() ([]byte, error) {
	return json.Marshal(self)
}

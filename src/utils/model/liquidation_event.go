package model

import (
	"time"

	"github.com/jackc/pgtype"
)

const TableLiquidationEvents = "liquidation_events"

// LiquidationEvent is a ledger-event replay artifact, one row per
// (tx hash, log index) pair. The natural key makes the upsert idempotent.
// Because the row is tied to a specific block it is deleted during the
// rollback of that block range.
type LiquidationEvent struct {
	TxHash   string `gorm:"primaryKey" json:"tx_hash"`
	LogIndex uint64 `gorm:"primaryKey" json:"log_index"`

	ChainId       uint64 `json:"chain_id"`
	Market        string `json:"market"`
	MarketAddress string `json:"market_address"`
	Borrower      string `json:"borrower"`
	Liquidator    string `json:"liquidator"`

	DebtCovered      pgtype.Numeric `json:"-"`
	CollateralSeized pgtype.Numeric `json:"-"`
	BadDebt          pgtype.Numeric `json:"-"`

	Height    uint64    `json:"height"`
	Timestamp time.Time `json:"timestamp"`
}

func (LiquidationEvent) TableName() string {
	return TableLiquidationEvents
}

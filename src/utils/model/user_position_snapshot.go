package model

import (
	"time"

	"github.com/jackc/pgtype"
)

const TableUserPositionSnapshots = "user_position_snapshots"

// UserPositionSnapshot is an append-only measurement of one user's position
// within one market, recomputed from a live contract read whenever the user
// is touched by a qualifying event. Never updated, never deleted by rollback.
type UserPositionSnapshot struct {
	Id            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Market        string    `json:"market"`
	MarketAddress string    `json:"market_address"`
	UserAddress   string    `json:"user_address"`
	Timestamp     time.Time `json:"timestamp"`

	CollateralValue pgtype.Numeric `json:"-"`
	Debt            pgtype.Numeric `json:"-"`
	HealthFactor    float64        `json:"health_factor"`
	BorrowingPower  pgtype.Numeric `json:"-"`
}

func (UserPositionSnapshot) TableName() string {
	return TableUserPositionSnapshots
}

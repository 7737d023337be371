package snapshot

import (
	"context"
	"errors"
	"math/big"

	"github.com/lendguard/indexer/src/utils/eth"
	"github.com/lendguard/indexer/src/utils/model"
)

// ErrTruncatedMulticall is returned when the multicall answers with fewer
// results than calls, which points at a broken or wrong deployment address
var ErrTruncatedMulticall = errors.New("multicall returned fewer results than calls")

// Severity grades how close a market is to distress
type Severity uint8

const (
	Normal Severity = iota
	Elevated
	Critical
	Emergency
)

func (severity Severity) String() string {
	switch severity {
	case Normal:
		return "normal"
	case Elevated:
		return "elevated"
	case Critical:
		return "critical"
	case Emergency:
		return "emergency"
	default:
		return "unknown"
	}
}

// Store persists computed snapshots. Snapshot rows are append-only, they are
// observations of live contract state and are never rolled back.
type Store interface {
	SaveMarketSnapshot(ctx context.Context, snapshot *model.MarketSnapshot) error
	SaveUserPositionSnapshot(ctx context.Context, snapshot *model.UserPositionSnapshot) error
}

// BatchCaller batches read-only contract calls into one RPC round trip
type BatchCaller interface {
	TryAggregate(ctx context.Context, calls []eth.Call) ([]eth.Result, error)
}

// OracleEvaluation is the oracle's self-assessment of its price feed
type OracleEvaluation struct {
	Price      *big.Int
	Confidence float64
	Stale      bool
	RiskScore  float64
}

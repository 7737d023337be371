package report

import "go.uber.org/atomic"

type SnapshotErrors struct {
	MulticallFailures  atomic.Uint64 `json:"multicall_failures"`
	SubCallFailures    atomic.Uint64 `json:"sub_call_failures"`
	OracleCallFailures atomic.Uint64 `json:"oracle_call_failures"`
	StoreFailures      atomic.Uint64 `json:"store_failures"`
}

type SnapshotState struct {
	MarketSnapshotsTaken       atomic.Uint64 `json:"market_snapshots_taken"`
	UserPositionSnapshotsTaken atomic.Uint64 `json:"user_position_snapshots_taken"`
	ProtocolSeverity           atomic.Int64  `json:"protocol_severity"`
	AlertsEmitted              atomic.Uint64 `json:"alerts_emitted"`
	AlertsDropped              atomic.Uint64 `json:"alerts_dropped"`
}

type SnapshotReport struct {
	State  SnapshotState  `json:"state"`
	Errors SnapshotErrors `json:"errors"`
}

package report

import "go.uber.org/atomic"

type IndexerErrors struct {
	BlockFetchFailures atomic.Uint64 `json:"block_fetch_failures"`
	LogFetchFailures   atomic.Uint64 `json:"log_fetch_failures"`
	CommitFailures     atomic.Uint64 `json:"commit_failures"`
	RollbackFailures   atomic.Uint64 `json:"rollback_failures"`
	BlocksSkipped      atomic.Uint64 `json:"blocks_skipped"`
}

type IndexerState struct {
	LastProcessedHeight             atomic.Int64   `json:"last_processed_height"`
	SafeTipHeight                   atomic.Int64   `json:"safe_tip_height"`
	BlocksBehind                    atomic.Int64   `json:"blocks_behind"`
	AverageBlocksProcessedPerMinute atomic.Float64 `json:"average_blocks_processed_per_minute"`
	BlocksCommitted                 atomic.Uint64  `json:"blocks_committed"`
	ReorgsDetected                  atomic.Uint64  `json:"reorgs_detected"`
	RollbacksExecuted               atomic.Uint64  `json:"rollbacks_executed"`
	LogsDecoded                     atomic.Uint64  `json:"logs_decoded"`
	LogsSkipped                     atomic.Uint64  `json:"logs_skipped"`
	LiquidationsSaved               atomic.Uint64  `json:"liquidations_saved"`
}

type IndexerReport struct {
	State  IndexerState  `json:"state"`
	Errors IndexerErrors `json:"errors"`
}

package indexer

import (
	"context"
	"errors"

	"github.com/lendguard/indexer/src/utils/config"
	"github.com/lendguard/indexer/src/utils/model"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrNoMarkets is returned when a sync is attempted with an empty market list.
// Processing blocks without market addresses would commit cursor heights while
// silently dropping every event, so this is treated as a configuration error.
var ErrNoMarkets = errors.New("no markets configured")

// BlockHeader is the subset of an EVM block header the indexer needs
type BlockHeader struct {
	Height     uint64
	Hash       string
	ParentHash string
	Time       uint64
}

// ChainClient abstracts the RPC node
type ChainClient interface {
	// Latest height known to the node
	CurrentHeight(ctx context.Context) (uint64, error)

	// Header of the block at the given height on the node's canonical chain
	BlockHeader(ctx context.Context, height uint64) (*BlockHeader, error)

	// Logs emitted by the given contracts within [from, to]
	Logs(ctx context.Context, addresses []common.Address, from, to uint64) ([]types.Log, error)
}

// Store is the persistence surface used while processing blocks.
// CommitBlock and Rollback are atomic: they either apply fully or not at all.
type Store interface {
	// Cursor for the chain, nil when the chain was never synced
	CurrentCursor(ctx context.Context, chainId uint64) (*model.SyncCursor, error)

	// Hash of an indexed block, ok=false when the height is not retained
	BlockHash(ctx context.Context, chainId, height uint64) (hash string, ok bool, err error)

	// Upserts the cursor and the indexed block, prunes retained blocks below pruneBelow
	CommitBlock(ctx context.Context, chainId, height uint64, hash string, pruneBelow uint64) error

	// Deletes indexed blocks and liquidation events at height >= target,
	// resets the cursor to just below the target
	Rollback(ctx context.Context, chainId, target uint64) error

	// Idempotent insert keyed by (tx_hash, log_index)
	SaveLiquidation(ctx context.Context, event *model.LiquidationEvent) error

	// Truncates all derived state for the chain
	Reindex(ctx context.Context, chainId uint64) error
}

// Computer re-derives market and user position snapshots from on-chain state
type Computer interface {
	TakeMarketSnapshot(ctx context.Context, market config.Market) (*model.MarketSnapshot, error)
	TakeUserPositionSnapshot(ctx context.Context, market config.Market, user common.Address) (*model.UserPositionSnapshot, error)
}

type BlockStatus int

const (
	BlockCommitted BlockStatus = iota
	BlockSkipped
	BlockReorg
)

func (status BlockStatus) String() string {
	switch status {
	case BlockCommitted:
		return "committed"
	case BlockSkipped:
		return "skipped"
	case BlockReorg:
		return "reorg"
	default:
		return "unknown"
	}
}

// BlockResult is the outcome of processing a single height
type BlockResult struct {
	Status BlockStatus
	Height uint64

	// First height whose data must be discarded, set only for BlockReorg
	RollbackTarget uint64

	// Why the block was skipped, set only for BlockSkipped
	Reason error
}

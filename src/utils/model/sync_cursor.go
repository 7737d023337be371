package model

const TableSyncCursors = "sync_cursors"

// ZeroHash is the sentinel stored in the cursor after a rollback,
// before the rollback target has been reprocessed.
const ZeroHash = "0x0000000000000000000000000000000000000000000000000000000000000000"

// SyncCursor points at the last height whose derived state is known to be
// consistent with the ledger. One row per logical chain.
// The height only moves backward during an explicit rollback, atomically
// with the deletion of dependent state.
type SyncCursor struct {
	ChainId    uint64 `gorm:"primaryKey" json:"chain_id"`
	LastHeight uint64 `json:"last_height"`
	LastHash   string `json:"last_hash"`
}

func (SyncCursor) TableName() string {
	return TableSyncCursors
}

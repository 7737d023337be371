package model

const TableIndexedBlocks = "indexed_blocks"

// IndexedBlock records the hash of a recently processed block.
// For two adjacent heights produced by an uninterrupted run, the hash at n
// must equal the parent hash the ledger reports for n+1. A violation is the
// reorg signal. Only the most recent reorg-buffer rows are retained.
type IndexedBlock struct {
	ChainId uint64 `gorm:"primaryKey" json:"chain_id"`
	Height  uint64 `gorm:"primaryKey" json:"height"`
	Hash    string `json:"hash"`
}

func (IndexedBlock) TableName() string {
	return TableIndexedBlocks
}

package indexer

// DetectReorg decides whether a fetched header extends the indexed chain.
//
// storedPrevHash is the retained hash at height-1 (prevKnown=false when that
// height is below the retention window or was never indexed, in which case
// the header is accepted on faith). A parent hash mismatch means some suffix
// of the indexed chain was orphaned, only its upper bound is observable here,
// so everything from the rollback target up gets discarded and re-fetched.
func DetectReorg(storedPrevHash string, prevKnown bool, header *BlockHeader, reorgBuffer, deploymentHeight uint64) (isReorg bool, target uint64) {
	if !prevKnown {
		return false, 0
	}
	if storedPrevHash == header.ParentHash {
		return false, 0
	}
	return true, RollbackTarget(header.Height, reorgBuffer, deploymentHeight)
}

// RollbackTarget is the first height to discard after a reorg at height h:
// max(h-1-reorgBuffer, deploymentHeight). Rolling back the full retention
// window is deliberate, the mismatch at h-1 says nothing about how deep the
// fork actually is.
func RollbackTarget(height, reorgBuffer, deploymentHeight uint64) uint64 {
	if height <= reorgBuffer+1 {
		return deploymentHeight
	}
	target := height - 1 - reorgBuffer
	if target < deploymentHeight {
		return deploymentHeight
	}
	return target
}

package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectReorgMatchingParent(t *testing.T) {
	header := &BlockHeader{Height: 100, Hash: "0xb", ParentHash: "0xa"}

	isReorg, _ := DetectReorg("0xa", true, header, 8, 0)
	assert.False(t, isReorg)
}

func TestDetectReorgUnknownParent(t *testing.T) {
	// Nothing retained at height-1, accept the header on faith
	header := &BlockHeader{Height: 100, Hash: "0xb", ParentHash: "0xa"}

	isReorg, _ := DetectReorg("", false, header, 8, 0)
	assert.False(t, isReorg)
}

func TestDetectReorgMismatch(t *testing.T) {
	header := &BlockHeader{Height: 100, Hash: "0xb", ParentHash: "0xa"}

	isReorg, target := DetectReorg("0xdeadbeef", true, header, 8, 0)
	assert.True(t, isReorg)
	assert.Equal(t, uint64(91), target)
}

func TestRollbackTarget(t *testing.T) {
	// max(h-1-buffer, deployment)
	assert.Equal(t, uint64(91), RollbackTarget(100, 8, 0))
	assert.Equal(t, uint64(95), RollbackTarget(100, 8, 95))

	// Underflow guard, never below the deployment height
	assert.Equal(t, uint64(0), RollbackTarget(5, 8, 0))
	assert.Equal(t, uint64(3), RollbackTarget(5, 8, 3))
	assert.Equal(t, uint64(0), RollbackTarget(9, 8, 0))
	assert.Equal(t, uint64(1), RollbackTarget(10, 8, 0))
}

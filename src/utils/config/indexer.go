package config

import (
	"time"

	"github.com/spf13/viper"
)

type Indexer struct {
	// Logical chain id the cursor is keyed on
	ChainId uint64

	// JSON-RPC endpoint of the chain node
	RpcProviderUrl string

	// Safety margin of blocks behind the reported chain tip.
	// Absorbs near-tip soft forks without ever running reorg detection on them.
	Confirmations uint64

	// How many recently processed block hashes are retained for reorg
	// detection. A fork deeper than this is treated as settled history.
	ReorgBuffer uint64

	// Height the protocol was deployed at, the replay floor.
	// Rollback never rewinds below it.
	DeploymentHeight uint64

	// How often the safe chain tip is checked for new blocks
	TipCheckInterval time.Duration

	// Fixed delay before the single re-attempt of a failed block
	RetryDelay time.Duration

	// Upper bound on JSON-RPC calls per second, 0 disables limiting
	RpcRateLimitPerSecond int
}

func setIndexerDefaults() {
	viper.SetDefault("Indexer.ChainId", 1)
	viper.SetDefault("Indexer.RpcProviderUrl", "http://127.0.0.1:8545")
	viper.SetDefault("Indexer.Confirmations", 6)
	viper.SetDefault("Indexer.ReorgBuffer", 64)
	viper.SetDefault("Indexer.DeploymentHeight", 0)
	viper.SetDefault("Indexer.TipCheckInterval", "10s")
	viper.SetDefault("Indexer.RetryDelay", "2s")
	viper.SetDefault("Indexer.RpcRateLimitPerSecond", 20)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFile(t *testing.T) {
	content := `{
		"loglevel": "INFO",
		"indexer": {
			"chainid": 137,
			"confirmations": 12,
			"deploymentheight": 4200000
		},
		"markets": [
			{
				"name": "usdc",
				"pooladdress": "0x1111111111111111111111111111111111111111",
				"oracleaddress": "0x2222222222222222222222222222222222222222"
			},
			{
				"name": "weth",
				"pooladdress": "0x3333333333333333333333333333333333333333"
			}
		]
	}`

	filename := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(filename, []byte(content), 0o600))

	config, err := Load(filename)
	require.NoError(t, err)

	assert.Equal(t, "INFO", config.LogLevel)
	assert.Equal(t, uint64(137), config.Indexer.ChainId)
	assert.Equal(t, uint64(12), config.Indexer.Confirmations)
	assert.Equal(t, uint64(4200000), config.Indexer.DeploymentHeight)

	require.Len(t, config.Markets, 2)
	assert.Equal(t, "usdc", config.Markets[0].Name)
	assert.Equal(t, "0x2222222222222222222222222222222222222222", config.Markets[0].OracleAddress)
	assert.Equal(t, "weth", config.Markets[1].Name)
	assert.Empty(t, config.Markets[1].OracleAddress)

	// Unset keys keep their defaults
	assert.Equal(t, uint64(64), config.Indexer.ReorgBuffer)
	assert.Equal(t, time.Minute, config.Snapshot.Interval)
	assert.Equal(t, 2, config.Snapshot.AlertSeverityThreshold)
	assert.False(t, config.Redis.Enabled)
}

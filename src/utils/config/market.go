package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Market is one tracked lending market. The list loaded at startup is an
// immutable snapshot threaded through every call, there is no shared
// mutable registry of active markets.
type Market struct {
	// Human readable market name, stored alongside derived rows
	Name string

	// Address of the lending pool contract
	PoolAddress string

	// Address of the price oracle adapter for this market.
	// May be empty for markets that do not require a feed.
	OracleAddress string
}

func setMarketDefaults() {
	// Markets have no defaults, they must be configured explicitly
}

// Markets configured through env variables come in as indexed keys
// (markets[0].name etc.), viper.Unmarshal does not pick those up.
func unmarshalMarkets(config *Config) (err error) {
	length := getSliceLength("markets")
	for i := len(config.Markets); i < length; i++ {
		config.Markets = append(config.Markets, Market{})
	}

	for i := range config.Markets {
		prefix := fmt.Sprintf("markets[%d].", i)
		if v := viper.GetString(prefix + "name"); v != "" {
			config.Markets[i].Name = v
		}
		if v := viper.GetString(prefix + "pooladdress"); v != "" {
			config.Markets[i].PoolAddress = v
		}
		if v := viper.GetString(prefix + "oracleaddress"); v != "" {
			config.Markets[i].OracleAddress = v
		}
	}
	return nil
}

package common

import (
	"context"

	"github.com/lendguard/indexer/src/utils/config"
)

type contextKey int

const (
	configContextKey contextKey = iota
)

func SetConfig(ctx context.Context, config *config.Config) context.Context {
	return context.WithValue(ctx, configContextKey, config)
}

func GetConfig(ctx context.Context) *config.Config {
	value, ok := ctx.Value(configContextKey).(*config.Config)
	if !ok {
		return nil
	}
	return value
}

package eth

import (
	"context"
	"math/big"

	"github.com/lendguard/indexer/src/utils/config"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
)

// Client is a thin, rate limited wrapper around the JSON-RPC client.
// Every chain read the indexer performs goes through it.
type Client struct {
	ethereum *ethclient.Client
	limiter  ratelimit.Limiter
	log      *logrus.Entry
}

func Dial(log *logrus.Entry, config *config.Indexer) (self *Client, err error) {
	client, err := ethclient.Dial(config.RpcProviderUrl)
	if err != nil {
		log.WithError(err).WithField("url", config.RpcProviderUrl).Error("Cannot connect to the RPC provider")
		return
	}

	self = &Client{
		ethereum: client,
		log:      log,
	}

	if config.RpcRateLimitPerSecond > 0 {
		self.limiter = ratelimit.New(config.RpcRateLimitPerSecond)
	} else {
		self.limiter = ratelimit.NewUnlimited()
	}

	return
}

func (self *Client) Close() {
	self.ethereum.Close()
}

func (self *Client) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	self.limiter.Take()
	return self.ethereum.HeaderByNumber(ctx, number)
}

func (self *Client) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	self.limiter.Take()
	return self.ethereum.FilterLogs(ctx, query)
}

func (self *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	self.limiter.Take()
	return self.ethereum.CallContract(ctx, msg, blockNumber)
}

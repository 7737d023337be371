package indexer

import (
	"context"
	"math/big"

	"github.com/lendguard/indexer/src/utils/eth"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ethChainClient adapts the RPC wrapper to the ChainClient interface
type ethChainClient struct {
	client *eth.Client
}

func NewChainClient(client *eth.Client) ChainClient {
	return &ethChainClient{client: client}
}

func (self *ethChainClient) CurrentHeight(ctx context.Context) (uint64, error) {
	header, err := self.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, err
	}
	return header.Number.Uint64(), nil
}

func (self *ethChainClient) BlockHeader(ctx context.Context, height uint64) (*BlockHeader, error) {
	header, err := self.client.HeaderByNumber(ctx, new(big.Int).SetUint64(height))
	if err != nil {
		return nil, err
	}
	return &BlockHeader{
		Height:     header.Number.Uint64(),
		Hash:       header.Hash().Hex(),
		ParentHash: header.ParentHash.Hex(),
		Time:       header.Time,
	}, nil
}

func (self *ethChainClient) Logs(ctx context.Context, addresses []common.Address, from, to uint64) ([]types.Log, error) {
	return self.client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: addresses,
	})
}

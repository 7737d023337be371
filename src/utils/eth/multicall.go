package eth

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Multicall3 tryAggregate, the only method the indexer needs
const multicallAbiJson = `[
	{
		"name": "tryAggregate",
		"type": "function",
		"stateMutability": "payable",
		"inputs": [
			{"name": "requireSuccess", "type": "bool"},
			{
				"name": "calls",
				"type": "tuple[]",
				"components": [
					{"name": "target", "type": "address"},
					{"name": "callData", "type": "bytes"}
				]
			}
		],
		"outputs": [
			{
				"name": "returnData",
				"type": "tuple[]",
				"components": [
					{"name": "success", "type": "bool"},
					{"name": "returnData", "type": "bytes"}
				]
			}
		]
	}
]`

type Call struct {
	Target   common.Address
	CallData []byte
}

type Result struct {
	Success    bool
	ReturnData []byte
}

// Multicall executes batched read-only contract calls through a Multicall3
// deployment. Sub-call failures are reported per call, not as a batch error.
type Multicall struct {
	client  *Client
	address common.Address
	abi     abi.ABI
}

func NewMulticall(client *Client, address string) (self *Multicall, err error) {
	parsed, err := abi.JSON(strings.NewReader(multicallAbiJson))
	if err != nil {
		return
	}

	self = &Multicall{
		client:  client,
		address: common.HexToAddress(address),
		abi:     parsed,
	}
	return
}

func (self *Multicall) TryAggregate(ctx context.Context, calls []Call) (results []Result, err error) {
	input, err := self.abi.Pack("tryAggregate", false, calls)
	if err != nil {
		return
	}

	output, err := self.client.CallContract(ctx, ethereum.CallMsg{
		To:   &self.address,
		Data: input,
	}, nil)
	if err != nil {
		return
	}

	unpacked, err := self.abi.Unpack("tryAggregate", output)
	if err != nil {
		return
	}

	results = *abi.ConvertType(unpacked[0], new([]Result)).(*[]Result)
	return
}

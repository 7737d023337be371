package indexer

import (
	"math/big"
	"strings"

	"github.com/lendguard/indexer/src/utils/config"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Events emitted by the lending pool contract. Anything else found in the
// pool's logs is skipped without failing the block.
const poolEventsAbiJson = `[
	{"type":"event","name":"CollateralDeposited","inputs":[{"name":"user","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]},
	{"type":"event","name":"CollateralWithdrawn","inputs":[{"name":"user","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]},
	{"type":"event","name":"Borrowed","inputs":[{"name":"user","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]},
	{"type":"event","name":"Repaid","inputs":[{"name":"user","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]},
	{"type":"event","name":"Liquidated","inputs":[{"name":"borrower","type":"address","indexed":true},{"name":"liquidator","type":"address","indexed":true},{"name":"debtCovered","type":"uint256","indexed":false},{"name":"collateralSeized","type":"uint256","indexed":false},{"name":"badDebt","type":"uint256","indexed":false}]},
	{"type":"event","name":"IndexUpdated","inputs":[{"name":"newBorrowIndex","type":"uint256","indexed":false}]}
]`

type EventKind int

const (
	EventCollateralDeposited EventKind = iota
	EventCollateralWithdrawn
	EventBorrowed
	EventRepaid
	EventLiquidated
	EventIndexUpdated
)

// DecodedEvent is a pool log lifted into domain terms
type DecodedEvent struct {
	Kind   EventKind
	Market config.Market

	User       common.Address
	Liquidator common.Address

	Amount           *big.Int
	DebtCovered      *big.Int
	CollateralSeized *big.Int
	BadDebt          *big.Int

	TxHash    string
	LogIndex  uint64
	Height    uint64
	BlockTime uint64
}

// EventSchema decodes raw logs against the pool ABI
type EventSchema struct {
	abi   abi.ABI
	kinds map[common.Hash]EventKind
}

func NewEventSchema() (self *EventSchema, err error) {
	self = new(EventSchema)

	self.abi, err = abi.JSON(strings.NewReader(poolEventsAbiJson))
	if err != nil {
		return nil, err
	}

	self.kinds = map[common.Hash]EventKind{
		self.abi.Events["CollateralDeposited"].ID: EventCollateralDeposited,
		self.abi.Events["CollateralWithdrawn"].ID: EventCollateralWithdrawn,
		self.abi.Events["Borrowed"].ID:            EventBorrowed,
		self.abi.Events["Repaid"].ID:              EventRepaid,
		self.abi.Events["Liquidated"].ID:          EventLiquidated,
		self.abi.Events["IndexUpdated"].ID:        EventIndexUpdated,
	}
	return
}

// Decode lifts a raw log into a DecodedEvent. Returns ok=false for logs that
// don't match the schema or come from an address outside the market index,
// those are skipped, not errors.
func (self *EventSchema) Decode(log *types.Log, markets map[common.Address]config.Market, blockTime uint64) (out *DecodedEvent, ok bool) {
	if len(log.Topics) == 0 {
		return nil, false
	}

	kind, ok := self.kinds[log.Topics[0]]
	if !ok {
		return nil, false
	}

	market, ok := markets[log.Address]
	if !ok {
		return nil, false
	}

	out = &DecodedEvent{
		Kind:      kind,
		Market:    market,
		TxHash:    log.TxHash.Hex(),
		LogIndex:  uint64(log.Index),
		Height:    log.BlockNumber,
		BlockTime: blockTime,
	}

	event, err := self.abi.EventByID(log.Topics[0])
	if err != nil {
		return nil, false
	}

	values, err := self.abi.Unpack(event.Name, log.Data)
	if err != nil {
		return nil, false
	}

	switch kind {
	case EventCollateralDeposited, EventCollateralWithdrawn, EventBorrowed, EventRepaid:
		if len(log.Topics) < 2 || len(values) < 1 {
			return nil, false
		}
		out.User = common.BytesToAddress(log.Topics[1].Bytes())
		out.Amount, ok = values[0].(*big.Int)
		if !ok {
			return nil, false
		}

	case EventLiquidated:
		if len(log.Topics) < 3 || len(values) < 3 {
			return nil, false
		}
		out.User = common.BytesToAddress(log.Topics[1].Bytes())
		out.Liquidator = common.BytesToAddress(log.Topics[2].Bytes())
		out.DebtCovered, _ = values[0].(*big.Int)
		out.CollateralSeized, _ = values[1].(*big.Int)
		out.BadDebt, _ = values[2].(*big.Int)
		if out.DebtCovered == nil || out.CollateralSeized == nil || out.BadDebt == nil {
			return nil, false
		}

	case EventIndexUpdated:
		// Amount carries the new borrow index, used only as a recompute trigger
		if len(values) < 1 {
			return nil, false
		}
		out.Amount, ok = values[0].(*big.Int)
		if !ok {
			return nil, false
		}
	}

	return out, true
}

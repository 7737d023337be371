package indexer

import (
	"math/big"
	"testing"

	"github.com/lendguard/indexer/src/utils/config"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestEventsTestSuite(t *testing.T) {
	suite.Run(t, new(EventsTestSuite))
}

type EventsTestSuite struct {
	suite.Suite
	schema  *EventSchema
	market  config.Market
	markets map[common.Address]config.Market
	pool    common.Address
	user    common.Address
}

func (s *EventsTestSuite) SetupSuite() {
	var err error
	s.schema, err = NewEventSchema()
	require.NoError(s.T(), err)

	s.pool = common.HexToAddress("0x1111111111111111111111111111111111111111")
	s.user = common.HexToAddress("0x2222222222222222222222222222222222222222")
	s.market = config.Market{Name: "usdc", PoolAddress: s.pool.Hex()}
	s.markets = map[common.Address]config.Market{s.pool: s.market}
}

func addressTopic(address common.Address) common.Hash {
	return common.BytesToHash(common.LeftPadBytes(address.Bytes(), 32))
}

func (s *EventsTestSuite) packData(eventName string, values ...interface{}) []byte {
	data, err := s.schema.abi.Events[eventName].Inputs.NonIndexed().Pack(values...)
	require.NoError(s.T(), err)
	return data
}

func (s *EventsTestSuite) TestDecodeBorrowed() {
	log := types.Log{
		Address:     s.pool,
		Topics:      []common.Hash{s.schema.abi.Events["Borrowed"].ID, addressTopic(s.user)},
		Data:        s.packData("Borrowed", big.NewInt(1500)),
		BlockNumber: 42,
		TxHash:      common.HexToHash("0xaa"),
		Index:       7,
	}

	event, ok := s.schema.Decode(&log, s.markets, 1700000000)
	require.True(s.T(), ok)
	assert.Equal(s.T(), EventBorrowed, event.Kind)
	assert.Equal(s.T(), "usdc", event.Market.Name)
	assert.Equal(s.T(), s.user, event.User)
	assert.Equal(s.T(), int64(1500), event.Amount.Int64())
	assert.Equal(s.T(), uint64(42), event.Height)
	assert.Equal(s.T(), uint64(7), event.LogIndex)
	assert.Equal(s.T(), uint64(1700000000), event.BlockTime)
}

func (s *EventsTestSuite) TestDecodeLiquidated() {
	liquidator := common.HexToAddress("0x3333333333333333333333333333333333333333")

	log := types.Log{
		Address: s.pool,
		Topics: []common.Hash{
			s.schema.abi.Events["Liquidated"].ID,
			addressTopic(s.user),
			addressTopic(liquidator),
		},
		Data:        s.packData("Liquidated", big.NewInt(1000), big.NewInt(900), big.NewInt(100)),
		BlockNumber: 42,
		TxHash:      common.HexToHash("0xbb"),
		Index:       3,
	}

	event, ok := s.schema.Decode(&log, s.markets, 0)
	require.True(s.T(), ok)
	assert.Equal(s.T(), EventLiquidated, event.Kind)
	assert.Equal(s.T(), s.user, event.User)
	assert.Equal(s.T(), liquidator, event.Liquidator)
	assert.Equal(s.T(), int64(1000), event.DebtCovered.Int64())
	assert.Equal(s.T(), int64(900), event.CollateralSeized.Int64())
	assert.Equal(s.T(), int64(100), event.BadDebt.Int64())
}

func (s *EventsTestSuite) TestDecodeIndexUpdated() {
	log := types.Log{
		Address: s.pool,
		Topics:  []common.Hash{s.schema.abi.Events["IndexUpdated"].ID},
		Data:    s.packData("IndexUpdated", big.NewInt(1234)),
	}

	event, ok := s.schema.Decode(&log, s.markets, 0)
	require.True(s.T(), ok)
	assert.Equal(s.T(), EventIndexUpdated, event.Kind)
	assert.Equal(s.T(), int64(1234), event.Amount.Int64())
}

func (s *EventsTestSuite) TestSkipsUnknownEvent() {
	log := types.Log{
		Address: s.pool,
		Topics:  []common.Hash{common.HexToHash("0x1234")},
	}

	_, ok := s.schema.Decode(&log, s.markets, 0)
	assert.False(s.T(), ok)
}

func (s *EventsTestSuite) TestSkipsForeignContract() {
	log := types.Log{
		Address: common.HexToAddress("0x9999999999999999999999999999999999999999"),
		Topics:  []common.Hash{s.schema.abi.Events["Borrowed"].ID, addressTopic(s.user)},
		Data:    s.packData("Borrowed", big.NewInt(1)),
	}

	_, ok := s.schema.Decode(&log, s.markets, 0)
	assert.False(s.T(), ok)
}

func (s *EventsTestSuite) TestSkipsMalformedData() {
	log := types.Log{
		Address: s.pool,
		Topics:  []common.Hash{s.schema.abi.Events["Borrowed"].ID, addressTopic(s.user)},
		Data:    []byte{0x01, 0x02},
	}

	_, ok := s.schema.Decode(&log, s.markets, 0)
	assert.False(s.T(), ok)
}

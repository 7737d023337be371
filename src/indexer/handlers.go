package indexer

import (
	"context"
	"time"

	"github.com/lendguard/indexer/src/utils/logger"
	"github.com/lendguard/indexer/src/utils/model"
	"github.com/lendguard/indexer/src/utils/monitoring"

	"github.com/sirupsen/logrus"
)

// Handlers map decoded pool events onto derived state updates. Balance
// changing events refresh the affected user's position and the market
// snapshot, liquidations additionally persist an immutable event row.
type Handlers struct {
	store    Store
	computer Computer
	monitor  monitoring.Monitor

	chainId uint64

	log *logrus.Entry
}

func NewHandlers(chainId uint64, store Store, computer Computer, monitor monitoring.Monitor) (self *Handlers) {
	self = new(Handlers)
	self.chainId = chainId
	self.store = store
	self.computer = computer
	self.monitor = monitor
	self.log = logger.NewSublogger("handlers")
	return
}

func (self *Handlers) Handle(ctx context.Context, event *DecodedEvent) (err error) {
	switch event.Kind {
	case EventCollateralDeposited, EventCollateralWithdrawn, EventBorrowed, EventRepaid:
		err = self.refreshUser(ctx, event)
		if err != nil {
			return
		}
		return self.refreshMarket(ctx, event)

	case EventLiquidated:
		err = self.saveLiquidation(ctx, event)
		if err != nil {
			return
		}
		err = self.refreshUser(ctx, event)
		if err != nil {
			return
		}
		return self.refreshMarket(ctx, event)

	case EventIndexUpdated:
		return self.refreshMarket(ctx, event)
	}
	return nil
}

func (self *Handlers) saveLiquidation(ctx context.Context, event *DecodedEvent) (err error) {
	err = self.store.SaveLiquidation(ctx, &model.LiquidationEvent{
		TxHash:           event.TxHash,
		LogIndex:         event.LogIndex,
		ChainId:          self.chainId,
		Market:           event.Market.Name,
		MarketAddress:    event.Market.PoolAddress,
		Borrower:         event.User.Hex(),
		Liquidator:       event.Liquidator.Hex(),
		DebtCovered:      model.NumericFromBigInt(event.DebtCovered),
		CollateralSeized: model.NumericFromBigInt(event.CollateralSeized),
		BadDebt:          model.NumericFromBigInt(event.BadDebt),
		Height:           event.Height,
		Timestamp:        time.Unix(int64(event.BlockTime), 0).UTC(),
	})
	if err != nil {
		self.log.WithError(err).
			WithField("tx_hash", event.TxHash).
			WithField("log_index", event.LogIndex).
			Error("Failed to save liquidation event")
		return
	}
	self.monitor.GetReport().Indexer.State.LiquidationsSaved.Inc()
	return
}

func (self *Handlers) refreshUser(ctx context.Context, event *DecodedEvent) (err error) {
	_, err = self.computer.TakeUserPositionSnapshot(ctx, event.Market, event.User)
	if err != nil {
		self.log.WithError(err).
			WithField("market", event.Market.Name).
			WithField("user", event.User.Hex()).
			Error("Failed to refresh user position")
	}
	return
}

func (self *Handlers) refreshMarket(ctx context.Context, event *DecodedEvent) (err error) {
	_, err = self.computer.TakeMarketSnapshot(ctx, event.Market)
	if err != nil {
		self.log.WithError(err).
			WithField("market", event.Market.Name).
			Error("Failed to refresh market snapshot")
	}
	return
}

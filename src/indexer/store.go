package indexer

import (
	"context"
	"errors"

	"github.com/lendguard/indexer/src/utils/logger"
	"github.com/lendguard/indexer/src/utils/model"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DbStore persists indexer and snapshot state in Postgres.
// It implements both the indexer's Store and the snapshot Store.
type DbStore struct {
	db  *gorm.DB
	log *logrus.Entry
}

func NewDbStore(db *gorm.DB) (self *DbStore) {
	self = new(DbStore)
	self.db = db
	self.log = logger.NewSublogger("db-store")
	return
}

func (self *DbStore) CurrentCursor(ctx context.Context, chainId uint64) (cursor *model.SyncCursor, err error) {
	cursor = new(model.SyncCursor)
	err = self.db.WithContext(ctx).
		Where("chain_id = ?", chainId).
		First(cursor).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return
}

func (self *DbStore) BlockHash(ctx context.Context, chainId, height uint64) (hash string, ok bool, err error) {
	var block model.IndexedBlock
	err = self.db.WithContext(ctx).
		Where("chain_id = ? AND height = ?", chainId, height).
		First(&block).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return block.Hash, true, nil
}

// CommitBlock advances the cursor, retains the block hash for reorg checks
// and prunes hashes that fell out of the retention window. One transaction,
// a crash leaves either the old cursor or the new one, never a mix.
// The cursor only ever moves forward here, replaying an already indexed
// range must not rewind it. Rollback is the one operation allowed to move
// it back.
func (self *DbStore) CommitBlock(ctx context.Context, chainId, height uint64, hash string, pruneBelow uint64) (err error) {
	return self.db.WithContext(ctx).Transaction(func(tx *gorm.DB) (err error) {
		err = tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "chain_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"last_height": gorm.Expr("GREATEST(sync_cursors.last_height, excluded.last_height)"),
				"last_hash": gorm.Expr(
					"CASE WHEN excluded.last_height >= sync_cursors.last_height THEN excluded.last_hash ELSE sync_cursors.last_hash END"),
			}),
		}).
			Create(&model.SyncCursor{
				ChainId:    chainId,
				LastHeight: height,
				LastHash:   hash,
			}).
			Error
		if err != nil {
			return
		}

		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chain_id"}, {Name: "height"}},
			UpdateAll: true,
		}).
			Create(&model.IndexedBlock{
				ChainId: chainId,
				Height:  height,
				Hash:    hash,
			}).
			Error
		if err != nil {
			return
		}

		return tx.Where("chain_id = ? AND height < ?", chainId, pruneBelow).
			Delete(&model.IndexedBlock{}).
			Error
	})
}

// Rollback discards everything the orphaned branch produced: retained block
// hashes and liquidation events at height >= target. Snapshots are left in
// place, they are re-derived from live contract state on the canonical
// branch. The cursor drops to just below the target so the next pass
// re-fetches from there; its hash is zeroed because the canonical hash at
// that height is not known yet.
func (self *DbStore) Rollback(ctx context.Context, chainId, target uint64) (err error) {
	return self.db.WithContext(ctx).Transaction(func(tx *gorm.DB) (err error) {
		err = tx.Where("chain_id = ? AND height >= ?", chainId, target).
			Delete(&model.IndexedBlock{}).
			Error
		if err != nil {
			return
		}

		err = tx.Where("chain_id = ? AND height >= ?", chainId, target).
			Delete(&model.LiquidationEvent{}).
			Error
		if err != nil {
			return
		}

		if target == 0 {
			// Nothing left before the target, start from scratch
			return tx.Where("chain_id = ?", chainId).
				Delete(&model.SyncCursor{}).
				Error
		}

		return tx.Model(&model.SyncCursor{}).
			Where("chain_id = ?", chainId).
			Updates(map[string]interface{}{
				"last_height": target - 1,
				"last_hash":   model.ZeroHash,
			}).
			Error
	})
}

// SaveLiquidation inserts a liquidation event, silently ignoring duplicates.
// Re-delivered logs after a restart or reorg replay hit the (tx_hash,
// log_index) key and change nothing.
func (self *DbStore) SaveLiquidation(ctx context.Context, event *model.LiquidationEvent) (err error) {
	return self.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tx_hash"}, {Name: "log_index"}},
			DoNothing: true,
		}).
		Create(event).
		Error
}

// Reindex wipes all derived state so the chain can be replayed from the
// deployment height
func (self *DbStore) Reindex(ctx context.Context, chainId uint64) (err error) {
	return self.db.WithContext(ctx).Transaction(func(tx *gorm.DB) (err error) {
		err = tx.Where("chain_id = ?", chainId).Delete(&model.SyncCursor{}).Error
		if err != nil {
			return
		}
		err = tx.Where("chain_id = ?", chainId).Delete(&model.IndexedBlock{}).Error
		if err != nil {
			return
		}
		err = tx.Where("chain_id = ?", chainId).Delete(&model.LiquidationEvent{}).Error
		if err != nil {
			return
		}
		err = tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.MarketSnapshot{}).Error
		if err != nil {
			return
		}
		return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.UserPositionSnapshot{}).Error
	})
}

func (self *DbStore) SaveMarketSnapshot(ctx context.Context, snapshot *model.MarketSnapshot) (err error) {
	return self.db.WithContext(ctx).Create(snapshot).Error
}

func (self *DbStore) SaveUserPositionSnapshot(ctx context.Context, snapshot *model.UserPositionSnapshot) (err error) {
	return self.db.WithContext(ctx).Create(snapshot).Error
}

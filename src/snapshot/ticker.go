package snapshot

import (
	"sync"

	"github.com/lendguard/indexer/src/utils/config"
	"github.com/lendguard/indexer/src/utils/monitoring"
	"github.com/lendguard/indexer/src/utils/task"
)

// Ticker re-snapshots every configured market on a fixed interval,
// independently of block processing. Markets are snapshotted concurrently
// through the worker pool and the worst per-market severity of the pass
// becomes the protocol severity.
type Ticker struct {
	*task.Task

	computer *Computer
	monitor  monitoring.Monitor
}

func NewTicker(config *config.Config) (self *Ticker) {
	self = new(Ticker)

	self.Task = task.NewTask(config, "snapshot-ticker").
		WithPeriodicSubtaskFunc(config.Snapshot.Interval, self.tick).
		WithWorkerPool(config.Snapshot.NumWorkers, config.Snapshot.MaxQueueSize)

	return
}

func (self *Ticker) WithComputer(computer *Computer) *Ticker {
	self.computer = computer
	return self
}

func (self *Ticker) WithMonitor(monitor monitoring.Monitor) *Ticker {
	self.monitor = monitor
	return self
}

func (self *Ticker) tick() (err error) {
	var mtx sync.Mutex
	var wg sync.WaitGroup
	worst := Normal

	for _, market := range self.Config.Markets {
		market := market
		wg.Add(1)
		submitted := self.SubmitToWorker(func() {
			defer wg.Done()

			snapshot, err := self.computer.TakeMarketSnapshot(self.Ctx, market)
			if err != nil {
				self.Log.WithError(err).WithField("market", market.Name).Error("Periodic snapshot failed")
				return
			}

			mtx.Lock()
			worst = Aggregate(worst, Severity(snapshot.OverallSeverity))
			mtx.Unlock()
		})
		if !submitted {
			wg.Done()
		}
	}

	wg.Wait()
	self.monitor.GetReport().Snapshot.State.ProtocolSeverity.Store(int64(worst))
	return nil
}

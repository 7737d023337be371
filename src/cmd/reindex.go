package cmd

import (
	"errors"

	"github.com/lendguard/indexer/src/indexer"
	"github.com/lendguard/indexer/src/utils/logger"

	"github.com/spf13/cobra"
)

var reindexConfirm bool

func init() {
	reindexCmd.Flags().BoolVar(&reindexConfirm, "confirm", false, "required, acknowledges that all derived state is wiped")
	RootCmd.AddCommand(reindexCmd)
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Wipe all derived state and replay from the deployment height",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		log := logger.NewSublogger("reindex-cmd")

		if !reindexConfirm {
			return errors.New("reindex wipes all derived state, pass --confirm to proceed")
		}

		if len(conf.Markets) == 0 {
			return indexer.ErrNoMarkets
		}

		pipeline, err := newBlockPipeline("reindex")
		if err != nil {
			return
		}
		defer pipeline.close()

		err = pipeline.store.Reindex(applicationCtx, conf.Indexer.ChainId)
		if err != nil {
			return
		}

		currentHeight, err := pipeline.chain.CurrentHeight(applicationCtx)
		if err != nil {
			return
		}
		if currentHeight < conf.Indexer.Confirmations {
			log.Info("Derived state wiped, chain has no confirmed blocks yet")
			return
		}
		safeTip := currentHeight - conf.Indexer.Confirmations
		if safeTip < conf.Indexer.DeploymentHeight {
			log.Info("Derived state wiped, deployment height is not confirmed yet")
			return
		}

		log.WithField("chain_id", conf.Indexer.ChainId).
			WithField("from", conf.Indexer.DeploymentHeight).
			WithField("to", safeTip).
			Info("Derived state wiped, replaying from the deployment height")

		err = pipeline.processor.ProcessRange(applicationCtx, conf.Indexer.DeploymentHeight, safeTip, conf.Markets)
		if err != nil {
			return
		}

		log.Info("Reindex finished")
		return
	},
}

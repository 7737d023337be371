package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/lendguard/indexer/src/indexer"
	"github.com/lendguard/indexer/src/utils/model"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(cursorCmd)
}

var cursorCmd = &cobra.Command{
	Use:   "cursor",
	Short: "Print the sync cursor as JSON",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		db, err := model.NewReadOnlyConnection(applicationCtx, conf, "cursor")
		if err != nil {
			return
		}

		store := indexer.NewDbStore(db)
		cursor, err := store.CurrentCursor(applicationCtx, conf.Indexer.ChainId)
		if err != nil {
			return
		}
		if cursor == nil {
			fmt.Println("null")
			return
		}

		out, err := json.MarshalIndent(cursor, "", "  ")
		if err != nil {
			return
		}
		fmt.Println(string(out))
		return
	},
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gip-inclusion/directory-cli/internal/search"
)

var reindexWorkers int

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild every provider's search document",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		workers := reindexWorkers
		if workers == 0 {
			workers = cfg.Reindex.Workers
		}

		n, err := search.Reindex(ctx, st, workers)
		if err != nil {
			return err
		}

		fmt.Printf("updated %d search documents\n", n)
		return nil
	},
}

func init() {
	reindexCmd.Flags().IntVar(&reindexWorkers, "workers", 0, "concurrent workers (default from config)")
	rootCmd.AddCommand(reindexCmd)
}

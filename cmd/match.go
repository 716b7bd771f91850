package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/gip-inclusion/directory-cli/internal/matcher"
)

var matchCmd = &cobra.Command{
	Use:   "match <request-id>",
	Short: "List providers compatible with a request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		req, err := st.GetRequest(ctx, args[0])
		if err != nil {
			return err
		}

		ids, err := matcher.New(st).MatchingProviders(ctx, req)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"provider_ids": ids, "total": len(ids)})
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)
}

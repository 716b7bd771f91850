package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gip-inclusion/directory-cli/internal/zoneimport"
)

var zonesCmd = &cobra.Command{
	Use:   "zones",
	Short: "Manage geographic zone reference data",
}

var zonesLoadCmd = &cobra.Command{
	Use:   "load <file.yaml>",
	Short: "Import zones from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		n, err := zoneimport.LoadFile(ctx, st, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("loaded %d zones\n", n)
		return nil
	},
}

func init() {
	zonesCmd.AddCommand(zonesLoadCmd)
	rootCmd.AddCommand(zonesCmd)
}

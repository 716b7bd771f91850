package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gip-inclusion/directory-cli/internal/notify"
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch <request-id>",
	Short: "Notify all providers matching a request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		d := notify.NewDispatcher(st, logSender{}, cfg.Notify.RatePerSecond, cfg.Notify.Burst)
		n, err := d.Dispatch(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("notified %d providers\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dispatchCmd)
}

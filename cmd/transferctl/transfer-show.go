package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/admin-transfer/pkg/identity"
)

// transferShowCmd represents the transfer show command
var transferShowCmd = &cobra.Command{
	Use:   "show <pool>",
	Short: "Show the pending transfer of a pool",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c, err := newClient(cmd)
		if err != nil {
			fail("%v", err)
		}
		rec, err := c.Get(context.Background(), identity.Address(args[0]))
		if err != nil {
			fail("Failed to read transfer: %v", err)
		}
		if rec == nil {
			fmt.Printf("No transfer pending for pool %s\n", args[0])
			return
		}
		_ = printJSON(rec)
	},
}

func init() {
	transferCmd.AddCommand(transferShowCmd)
}

package main

import (
	"context"

	"github.com/spf13/cobra"
)

// transferExpiringCmd represents the transfer expiring command
var transferExpiringCmd = &cobra.Command{
	Use:   "expiring",
	Short: "List transfers nearing their retention mark",
	Long: `List pending transfers whose retention mark falls within --within.

A pending transfer is never dropped by the service; the retention mark
only tells operators which proposals have sat untouched the longest.

Example:
  transferctl transfer expiring --within 720h`,
	Run: func(cmd *cobra.Command, args []string) {
		within, _ := cmd.Flags().GetDuration("within")

		c, err := newClient(cmd)
		if err != nil {
			fail("%v", err)
		}
		recs, err := c.Expiring(context.Background(), within)
		if err != nil {
			fail("Failed to list transfers: %v", err)
		}
		_ = printJSON(recs)
	},
}

func init() {
	transferCmd.AddCommand(transferExpiringCmd)
	transferExpiringCmd.Flags().Duration("within", 0, "only list transfers expiring within this duration (0 lists all)")
}

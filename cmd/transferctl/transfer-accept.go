package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/admin-transfer/pkg/identity"
)

// transferAcceptCmd represents the transfer accept command
var transferAcceptCmd = &cobra.Command{
	Use:   "accept <pool>",
	Short: "Accept a pending transfer as its new admin",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c, err := newClient(cmd)
		if err != nil {
			fail("%v", err)
		}
		if err := c.Accept(context.Background(), identity.Address(args[0])); err != nil {
			fail("Failed to accept transfer: %v", err)
		}
		fmt.Printf("Pool %s admin is now %s\n", args[0], c.Address())
	},
}

// transferCancelCmd represents the transfer cancel command
var transferCancelCmd = &cobra.Command{
	Use:   "cancel <pool>",
	Short: "Cancel a pending transfer and take the pool back",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c, err := newClient(cmd)
		if err != nil {
			fail("%v", err)
		}
		if err := c.Cancel(context.Background(), identity.Address(args[0])); err != nil {
			fail("Failed to cancel transfer: %v", err)
		}
		fmt.Printf("Transfer of pool %s cancelled\n", args[0])
	},
}

func init() {
	transferCmd.AddCommand(transferAcceptCmd)
	transferCmd.AddCommand(transferCancelCmd)
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/admin-transfer/pkg/identity"
)

// poolCmd represents the pool command
var poolCmd = &cobra.Command{
	Use:   "pool",
	Short: "Manage pools",
	Long:  `Register pools, inspect who holds them and set their admin directly.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'pool' requires a subcommand (register, show, set-admin)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

var poolRegisterCmd = &cobra.Command{
	Use:   "register <pool>",
	Short: "Register a pool with the caller as admin",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c, err := newClient(cmd)
		if err != nil {
			fail("%v", err)
		}
		if err := c.RegisterPool(context.Background(), identity.Address(args[0])); err != nil {
			fail("Failed to register pool: %v", err)
		}
		fmt.Printf("Registered pool %s with admin %s\n", args[0], c.Address())
	},
}

var poolShowCmd = &cobra.Command{
	Use:   "show <pool>",
	Short: "Show who holds a pool",
	Long: `Show the pool's admin and whether a transfer is pending.

While a transfer is pending the admin is the transfer service itself.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c, err := newClient(cmd)
		if err != nil {
			fail("%v", err)
		}
		custody, err := c.Custody(context.Background(), identity.Address(args[0]))
		if err != nil {
			fail("Failed to show pool: %v", err)
		}
		_ = printJSON(custody)
	},
}

var poolSetAdminCmd = &cobra.Command{
	Use:   "set-admin <pool> <admin>",
	Short: "Set a pool's admin directly",
	Long: `Set a pool's admin directly, without the two-phase protocol.

Only the pool's current admin may do this. Handing a pool to the transfer
service this way enables the unauthenticated propose form, when the server
allows it.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		c, err := newClient(cmd)
		if err != nil {
			fail("%v", err)
		}
		admin := adminArg(args[1])
		if err := c.SetAdmin(context.Background(), identity.Address(args[0]), admin); err != nil {
			fail("Failed to set admin: %v", err)
		}
		fmt.Printf("Pool %s admin is now %s\n", args[0], admin)
	},
}

// adminArg normalizes a key address. Anything else, such as the transfer
// service's own address, is passed through for the server to judge.
func adminArg(raw string) identity.Address {
	if addr, err := identity.ParseAddress(raw); err == nil {
		return addr
	}
	return identity.Address(raw)
}

func init() {
	rootCmd.AddCommand(poolCmd)
	poolCmd.AddCommand(poolRegisterCmd)
	poolCmd.AddCommand(poolShowCmd)
	poolCmd.AddCommand(poolSetAdminCmd)
}

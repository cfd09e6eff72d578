package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/admin-transfer/pkg/identity"
	"github.com/doodlesbykumbi/admin-transfer/pkg/ledger"
)

// transferProposeCmd represents the transfer propose command
var transferProposeCmd = &cobra.Command{
	Use:   "propose <pool> <new-admin>",
	Short: "Propose handing a pool to a new admin",
	Long: `Propose handing a pool to a new admin.

The caller must be the pool's current admin (--current-admin, default the
address of --key). On success the transfer service holds the pool until
the new admin accepts or the current admin cancels.

With --unauthenticated no token is sent and no current admin is recorded.
The server must allow this form and must already be the pool's admin, and
the resulting transfer can never be cancelled.

Example:
  transferctl --key alice.pem transfer propose pool-a 3b6a27bc...`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		current, _ := cmd.Flags().GetString("current-admin")
		unauthenticated, _ := cmd.Flags().GetBool("unauthenticated")

		c, err := newClient(cmd)
		if err != nil {
			fail("%v", err)
		}

		poolAddr := identity.Address(args[0])
		currentAdmin, newAdmin, err := proposalAddresses(current, args[1], c.Address())
		if err != nil {
			fail("%v", err)
		}

		var rec *ledger.Record
		if unauthenticated {
			rec, err = c.ProposeUnauthenticated(context.Background(), poolAddr, newAdmin)
		} else {
			rec, err = c.Propose(context.Background(), poolAddr, currentAdmin, newAdmin)
		}
		if err != nil {
			fail("Failed to propose transfer: %v", err)
		}
		_ = printJSON(rec)
	},
}

// proposalAddresses validates the admin arguments of a proposal. An empty
// current admin falls back to self.
func proposalAddresses(current, newAdmin string, self identity.Address) (identity.Address, identity.Address, error) {
	to, err := identity.ParseAddress(newAdmin)
	if err != nil {
		return "", "", fmt.Errorf("new admin: %w", err)
	}
	if current == "" {
		return self, to, nil
	}
	from, err := identity.ParseAddress(current)
	if err != nil {
		return "", "", fmt.Errorf("current admin: %w", err)
	}
	return from, to, nil
}

func init() {
	transferCmd.AddCommand(transferProposeCmd)
	transferProposeCmd.Flags().String("current-admin", "", "current admin of the pool (default: address of --key)")
	transferProposeCmd.Flags().Bool("unauthenticated", false, "use the unauthenticated propose form")
}

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/admin-transfer/pkg/identity"
)

// tokenCmd represents the token command
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage bearer tokens",
}

// tokenIssueCmd represents the token issue command
var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a bearer token for the key in --key",
	Long: `Issue a bearer token proving control of the address of --key.

The token can be sent as "Authorization: Bearer <token>" to the API. The
server rejects tokens whose lifetime exceeds token_max_age_seconds.

Example:
  curl -X POST -H "Authorization: Bearer $(transferctl --key bob.pem token issue)" \
    http://localhost:8000/transfers/pool-a/accept`,
	Run: func(cmd *cobra.Command, args []string) {
		keyFile, _ := cmd.Flags().GetString("key")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		if keyFile == "" {
			fail("--key is required")
		}

		key, err := identity.LoadPrivateKey(keyFile)
		if err != nil {
			fail("%v", err)
		}
		token, err := identity.IssueToken(key, ttl, time.Now())
		if err != nil {
			fail("%v", err)
		}
		fmt.Println(token)
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenIssueCmd)
	tokenIssueCmd.Flags().Duration("ttl", identity.DefaultTokenTTL, "token lifetime")
}

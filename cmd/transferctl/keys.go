package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// keysCmd represents the keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage authority keys",
	Long: `Manage the ed25519 keys that authorities use to prove control of their
address. An address is the hex encoding of the public key.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'keys' requires a subcommand (generate, address)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(keysCmd)
}

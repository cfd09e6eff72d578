package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// transferCmd represents the transfer command
var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Propose, accept and cancel admin transfers",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'transfer' requires a subcommand (propose, show, accept, cancel, expiring)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(transferCmd)
}

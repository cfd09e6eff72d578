package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// waitCmd represents the wait command
var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for the server to be ready",
	Long: `Wait for the server to be ready by polling the status endpoint.

This command will repeatedly check the server status until it responds
successfully or the maximum number of retries is reached.

Example:
  transferctl wait
  transferctl wait --url http://localhost:3000 --retries 60`,
	Run: func(cmd *cobra.Command, args []string) {
		retries, _ := cmd.Flags().GetInt("retries")

		if err := waitForServer(cmd, retries); err != nil {
			fail("Server did not become ready: %v", err)
		}
		fmt.Println("Admin transfer server is ready")
	},
}

func init() {
	rootCmd.AddCommand(waitCmd)
	waitCmd.Flags().IntP("retries", "r", 90, "Number of retries")
}

func waitForServer(cmd *cobra.Command, retries int) error {
	c, err := newClient(cmd)
	if err != nil {
		return err
	}

	fmt.Println("Waiting for the server to be ready...")
	for i := 0; i < retries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = c.Ping(ctx)
		cancel()
		if err == nil {
			fmt.Println()
			return nil
		}

		fmt.Print(".")
		time.Sleep(1 * time.Second)
	}

	fmt.Println()
	return fmt.Errorf("not ready after %d seconds: %w", retries, err)
}

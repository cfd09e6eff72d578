package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/admin-transfer/pkg/client"
	"github.com/doodlesbykumbi/admin-transfer/pkg/identity"
)

var rootCmd = &cobra.Command{
	Use:   "transferctl",
	Short: "Two-phase pool administrator transfers",
	Long: `transferctl runs the admin transfer server and talks to it.

Server commands (server, db, configuration) act locally. Client commands
(pool, transfer, wait) call the HTTP API at --url, signing a short-lived
bearer token with the key in --key when the call needs one.`,
	SilenceUsage: true,
}

func defaultBindAddress() string {
	if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
		return addr
	}
	return "0.0.0.0"
}

func defaultPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return "8000"
}

func defaultPortInt() int {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			return p
		}
	}
	return 8000
}

func defaultServerURL() string {
	if u := os.Getenv("TRANSFER_URL"); u != "" {
		return u
	}
	return fmt.Sprintf("http://localhost:%d", defaultPortInt())
}

// newClient builds an API client from the persistent flags. The key is
// optional; calls that need a token fail without one.
func newClient(cmd *cobra.Command) (*client.Client, error) {
	serverURL, _ := cmd.Flags().GetString("url")
	keyFile, _ := cmd.Flags().GetString("key")

	var opts []client.Option
	if keyFile != "" {
		key, err := identity.LoadPrivateKey(keyFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, client.WithKey(key))
	}
	return client.New(serverURL, opts...)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func init() {
	rootCmd.PersistentFlags().String("url", defaultServerURL(), "admin transfer server URL (TRANSFER_URL)")
	rootCmd.PersistentFlags().String("key", os.Getenv("TRANSFER_KEY_FILE"), "PEM ed25519 private key used to sign tokens (TRANSFER_KEY_FILE)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/admin-transfer/pkg/identity"
)

// keysGenerateCmd represents the keys generate command
var keysGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new authority key",
	Long: `Generate a new ed25519 key and print its address.

The PEM encoded private key is written to --out, or to stdout when --out
is not given. The address is printed to stderr in that case.

Example:
  transferctl keys generate --out alice.pem`,
	Run: func(cmd *cobra.Command, args []string) {
		out, _ := cmd.Flags().GetString("out")

		addr, key, err := identity.GenerateKey()
		if err != nil {
			fail("%v", err)
		}
		pemBytes, err := identity.MarshalPrivateKey(key)
		if err != nil {
			fail("%v", err)
		}

		if out == "" {
			_, _ = os.Stdout.Write(pemBytes)
			fmt.Fprintln(os.Stderr, addr)
			return
		}

		if err := os.WriteFile(out, pemBytes, 0o600); err != nil {
			fail("Failed to write key: %v", err)
		}
		fmt.Println(addr)
	},
}

// keysAddressCmd represents the keys address command
var keysAddressCmd = &cobra.Command{
	Use:   "address <key-file>",
	Short: "Print the address controlled by a key",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		key, err := identity.LoadPrivateKey(args[0])
		if err != nil {
			fail("%v", err)
		}
		fmt.Println(identity.AddressOf(key))
	},
}

func init() {
	keysCmd.AddCommand(keysGenerateCmd)
	keysCmd.AddCommand(keysAddressCmd)
	keysGenerateCmd.Flags().StringP("out", "o", "", "file to write the private key to")
}

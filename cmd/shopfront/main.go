package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "shopfront",
	Short: "Shopfront — storefront session and cart CLI",
	Long:  "Shopfront keeps your storefront identity and cart on this machine and mirrors them to the backend. State survives between invocations under " + defaultStateHint + ".",
}

const defaultStateHint = "./.shopfront (or STORE_ROOT)"

func init() {
	// Session
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)

	// Cart
	rootCmd.AddCommand(cartAddCmd)
	rootCmd.AddCommand(cartRmCmd)
	rootCmd.AddCommand(cartSetCmd)
	rootCmd.AddCommand(cartLsCmd)
	rootCmd.AddCommand(cartClearCmd)

	// Stub backend
	rootCmd.AddCommand(serveCmd)
}

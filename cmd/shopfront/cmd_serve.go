package main

import (
	"github.com/spf13/cobra"

	"shopfront/internal/devserver"
)

// shopfront serve — run the stub backend for local development.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the stub storefront backend (register/login/user/cart)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return devserver.Start()
	},
}

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Hearthshop CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hearthshop",
		Short: "Hearthshop - a small e-commerce web application",
		Long: `Hearthshop serves a small e-commerce storefront with session-based
authentication, email-driven password reset, and admin product management.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build-time variables set via ldflags.
var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:          "support-tickets",
		Short:        "Multi-tenant support ticket service",
		Version:      version,
		SilenceUsage: true,
	}
	serveCmd := newServeCmd()
	rootCmd.RunE = serveCmd.RunE
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newTokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

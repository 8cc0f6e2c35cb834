package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "service-desk",
	Short:         "Internal service request tracker",
	Long:          `service-desk serves the service request API: employees open requests, agents pick them up and work them to completion, admins manage users. Running without a subcommand starts the server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.RunE = runServe
}

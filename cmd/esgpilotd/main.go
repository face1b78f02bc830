package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/verdantiq/esgpilot/internal/cli"
	"github.com/verdantiq/esgpilot/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "esgpilotd",
		Short: "esgpilot daemon and CLI",
		Long:  "esgpilot daemon for running the API server and managing API keys",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.APIKeyCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/verdantiq/esgpilot/internal/cli"
	"github.com/verdantiq/esgpilot/internal/cli/client"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "esgpilot",
		Short: "esgpilot CLI - Question answering over ESG reports",
		Long: `esgpilot CLI provides commands to upload ESG reports, ask questions
about them, and extract structured metrics.

Environment variables:
  ESGPILOT_API_KEY   API key for authentication (required)
  ESGPILOT_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-key", "", "API key for authentication (overrides env and config)")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and config)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.UploadCmd())
	rootCmd.AddCommand(client.DocumentsCmd())
	rootCmd.AddCommand(client.AskCmd())
	rootCmd.AddCommand(client.ValidateCmd())
	rootCmd.AddCommand(client.HistoryCmd())
	rootCmd.AddCommand(client.MetricsCmd())
	rootCmd.AddCommand(client.AuthCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

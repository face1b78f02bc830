package client

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

// MetricItem represents an ESG metric in API responses.
type MetricItem struct {
	ID          string `json:"id"`
	DocumentID  string `json:"document_id"`
	Category    string `json:"category"`
	Goal        string `json:"goal"`
	Actual      string `json:"actual"`
	RAGStatus   string `json:"rag_status"`
	ExtractedBy string `json:"extracted_by"`
	CreatedAt   string `json:"created_at"`
}

// ExtractionResult represents the metric extraction API response.
type ExtractionResult struct {
	Outcome string       `json:"outcome"`
	Metrics []MetricItem `json:"metrics"`
}

// MetricsCmd creates the metrics parent command.
func MetricsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Extract and manage ESG metrics",
	}

	cmd.AddCommand(MetricsExtractCmd())
	cmd.AddCommand(MetricsListCmd())
	cmd.AddCommand(MetricsAddCmd())
	cmd.AddCommand(MetricsUpdateCmd())

	return cmd
}

// MetricsExtractCmd creates the metrics extract command.
func MetricsExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <document_id>",
		Short: "Extract ESG metrics from a document",
		Long: `Runs structured metric extraction over a document's indexed content.

The outcome is "extracted" when the model produced usable metrics,
"recovered" when extraction failed and placeholder metrics were stored,
and "empty" when the document has no indexed content.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runMetricsExtract(cmd, args[0], outputJSON)
		},
	}

	return cmd
}

func runMetricsExtract(cmd *cobra.Command, documentID string, outputJSON bool) error {
	apiClient, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := apiClient.Post("/metrics/extract/"+url.PathEscape(documentID), nil)
	if err != nil {
		return err
	}

	var result ExtractionResult
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		return printJSON(result)
	}

	fmt.Printf("Outcome: %s\n", result.Outcome)
	printMetricsTable(result.Metrics)
	return nil
}

// MetricsListCmd creates the metrics list command.
func MetricsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <document_id>",
		Short: "List the stored metrics for a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runMetricsList(cmd, args[0], outputJSON)
		},
	}

	return cmd
}

func runMetricsList(cmd *cobra.Command, documentID string, outputJSON bool) error {
	apiClient, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := apiClient.Get("/metrics/" + url.PathEscape(documentID))
	if err != nil {
		return err
	}

	var metrics []MetricItem
	if err := json.Unmarshal(resp.Data, &metrics); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		return printJSON(metrics)
	}

	if len(metrics) == 0 {
		fmt.Println("No metrics stored for this document")
		return nil
	}
	printMetricsTable(metrics)
	return nil
}

// MetricsAddCmd creates the metrics add command.
func MetricsAddCmd() *cobra.Command {
	var (
		category  string
		goal      string
		actual    string
		ragStatus string
	)

	cmd := &cobra.Command{
		Use:   "add <document_id>",
		Short: "Add a metric by hand",
		Long: `Adds a manually curated metric to a document.

Example:
  esgpilot metrics add abc123 --category Environmental \
    --goal "Net zero by 2040" --actual "Scope 1+2 down 18%" --status "On Track"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runMetricsAdd(cmd, args[0], category, goal, actual, ragStatus, outputJSON)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Metric category (required)")
	cmd.Flags().StringVar(&goal, "goal", "", "Stated goal (required)")
	cmd.Flags().StringVar(&actual, "actual", "", "Reported actual (required)")
	cmd.Flags().StringVar(&ragStatus, "status", "", "RAG status (required)")
	cmd.MarkFlagRequired("category")
	cmd.MarkFlagRequired("goal")
	cmd.MarkFlagRequired("actual")
	cmd.MarkFlagRequired("status")

	return cmd
}

func runMetricsAdd(cmd *cobra.Command, documentID, category, goal, actual, ragStatus string, outputJSON bool) error {
	apiClient, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := apiClient.Post("/metrics/"+url.PathEscape(documentID), map[string]string{
		"category":   category,
		"goal":       goal,
		"actual":     actual,
		"rag_status": ragStatus,
	})
	if err != nil {
		return err
	}

	var metric MetricItem
	if err := json.Unmarshal(resp.Data, &metric); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		return printJSON(metric)
	}

	fmt.Printf("Metric created: %s\n", metric.ID)
	return nil
}

// MetricsUpdateCmd creates the metrics update command.
func MetricsUpdateCmd() *cobra.Command {
	var (
		category  string
		goal      string
		actual    string
		ragStatus string
	)

	cmd := &cobra.Command{
		Use:   "update <metric_id>",
		Short: "Update a stored metric",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runMetricsUpdate(cmd, args[0], category, goal, actual, ragStatus, outputJSON)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Metric category (required)")
	cmd.Flags().StringVar(&goal, "goal", "", "Stated goal (required)")
	cmd.Flags().StringVar(&actual, "actual", "", "Reported actual (required)")
	cmd.Flags().StringVar(&ragStatus, "status", "", "RAG status (required)")
	cmd.MarkFlagRequired("category")
	cmd.MarkFlagRequired("goal")
	cmd.MarkFlagRequired("actual")
	cmd.MarkFlagRequired("status")

	return cmd
}

func runMetricsUpdate(cmd *cobra.Command, metricID, category, goal, actual, ragStatus string, outputJSON bool) error {
	apiClient, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := apiClient.Put("/metrics/item/"+url.PathEscape(metricID), map[string]string{
		"category":   category,
		"goal":       goal,
		"actual":     actual,
		"rag_status": ragStatus,
	})
	if err != nil {
		return err
	}

	var metric MetricItem
	if err := json.Unmarshal(resp.Data, &metric); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		return printJSON(metric)
	}

	fmt.Printf("Metric updated: %s\n", metric.ID)
	return nil
}

func printMetricsTable(metrics []MetricItem) {
	for _, m := range metrics {
		fmt.Printf("  [%s] %s\n", m.Category, m.Goal)
		fmt.Printf("    Actual: %s\n", m.Actual)
		fmt.Printf("    Status: %s (%s, id: %s)\n", m.RAGStatus, m.ExtractedBy, m.ID)
	}
}

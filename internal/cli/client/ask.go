package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

// CitationItem represents one cited chunk in an answer.
type CitationItem struct {
	Text       string `json:"text"`
	ChunkIndex int    `json:"chunk_index"`
}

// InteractionItem represents a QA interaction in API responses.
type InteractionItem struct {
	ID         string         `json:"id"`
	DocumentID string         `json:"document_id"`
	Question   string         `json:"question"`
	Answer     string         `json:"answer"`
	Citations  []CitationItem `json:"citations"`
	Validated  *bool          `json:"validated"`
	CreatedAt  string         `json:"created_at"`
}

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	var documentID string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about a document",
		Long: `Ask a question about an uploaded document. The answer cites the
passages it was grounded in.

Examples:
  esgpilot ask --document abc123 "What are the emission reduction targets?"
  esgpilot ask --document abc123 "Generate table of all goals and achievements"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAsk(cmd, documentID, strings.Join(args, " "), outputJSON)
		},
	}

	cmd.Flags().StringVarP(&documentID, "document", "d", "", "Document ID (required)")
	cmd.MarkFlagRequired("document")

	return cmd
}

func runAsk(cmd *cobra.Command, documentID, question string, outputJSON bool) error {
	apiClient, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := apiClient.Post("/qa/ask", map[string]string{
		"document_id": documentID,
		"question":    question,
	})
	if err != nil {
		return err
	}

	var interaction InteractionItem
	if err := json.Unmarshal(resp.Data, &interaction); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		return printJSON(interaction)
	}

	fmt.Println(interaction.Answer)
	if len(interaction.Citations) > 0 {
		fmt.Println("\nSources:")
		for _, c := range interaction.Citations {
			fmt.Printf("  [chunk %d] %s\n", c.ChunkIndex, c.Text)
		}
	}
	fmt.Printf("\nInteraction ID: %s\n", interaction.ID)
	return nil
}

// ValidateCmd creates the validate command.
func ValidateCmd() *cobra.Command {
	var invalid bool

	cmd := &cobra.Command{
		Use:   "validate <interaction_id>",
		Short: "Mark an answer as correct or incorrect",
		Long:  "Records a one-time human verdict on an answer. A verdict cannot be changed once set.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args[0], !invalid)
		},
	}

	cmd.Flags().BoolVar(&invalid, "invalid", false, "Mark the answer as incorrect instead of correct")

	return cmd
}

func runValidate(cmd *cobra.Command, interactionID string, isValid bool) error {
	apiClient, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	_, err = apiClient.Post("/qa/validate", map[string]interface{}{
		"interaction_id": interactionID,
		"is_valid":       isValid,
	})
	if err != nil {
		return err
	}

	verdict := "correct"
	if !isValid {
		verdict = "incorrect"
	}
	fmt.Printf("Interaction %s marked %s\n", interactionID, verdict)
	return nil
}

// HistoryCmd creates the history command.
func HistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <document_id>",
		Short: "Show the QA history for a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runHistory(cmd, args[0], outputJSON)
		},
	}

	return cmd
}

func runHistory(cmd *cobra.Command, documentID string, outputJSON bool) error {
	apiClient, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := apiClient.Get("/qa/history/" + url.PathEscape(documentID))
	if err != nil {
		return err
	}

	var interactions []InteractionItem
	if err := json.Unmarshal(resp.Data, &interactions); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		return printJSON(interactions)
	}

	if len(interactions) == 0 {
		fmt.Println("No questions asked yet")
		return nil
	}

	for _, it := range interactions {
		verdict := "unreviewed"
		if it.Validated != nil {
			if *it.Validated {
				verdict = "correct"
			} else {
				verdict = "incorrect"
			}
		}
		fmt.Printf("Q: %s\n", it.Question)
		fmt.Printf("A: %s\n", it.Answer)
		fmt.Printf("   (%s, %s, id: %s)\n\n", it.CreatedAt, verdict, it.ID)
	}
	return nil
}

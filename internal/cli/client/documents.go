package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

// DocumentItem represents a document in API responses.
type DocumentItem struct {
	ID         string `json:"id"`
	FileName   string `json:"file_name"`
	FileType   string `json:"file_type"`
	Processed  bool   `json:"processed"`
	UploadedAt string `json:"uploaded_at"`
}

// DocumentListResult represents the document list API response.
type DocumentListResult struct {
	Items   []DocumentItem `json:"items"`
	Cursor  string         `json:"cursor,omitempty"`
	HasMore bool           `json:"has_more"`
}

// UploadCmd creates the upload command.
func UploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a report document",
		Long: `Upload a PDF or DOCX report for ingestion and indexing.

Examples:
  esgpilot upload sustainability-2024.pdf
  esgpilot upload annual-report.docx --output`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runUpload(cmd, args[0], outputJSON)
		},
	}

	return cmd
}

func runUpload(cmd *cobra.Command, filePath string, outputJSON bool) error {
	apiClient, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := apiClient.PostFile("/documents/upload", filePath)
	if err != nil {
		return err
	}

	var doc DocumentItem
	if err := json.Unmarshal(resp.Data, &doc); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		return printJSON(doc)
	}

	fmt.Printf("Uploaded %s\n", doc.FileName)
	fmt.Printf("Document ID: %s\n", doc.ID)
	if doc.Processed {
		fmt.Println("Status: indexed")
	} else {
		fmt.Println("Status: pending (ingestion will be retried in the background)")
	}
	return nil
}

// DocumentsCmd creates the documents parent command.
func DocumentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "documents",
		Short: "List and inspect uploaded documents",
	}

	cmd.AddCommand(DocumentsListCmd())
	cmd.AddCommand(DocumentsGetCmd())

	return cmd
}

// DocumentsListCmd creates the documents list command.
func DocumentsListCmd() *cobra.Command {
	var (
		limit  int
		cursor string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List uploaded documents",
		Long:  "Lists uploaded documents, newest first, with cursor pagination.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runDocumentsList(cmd, limit, cursor, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")

	return cmd
}

func runDocumentsList(cmd *cobra.Command, limit int, cursor string, outputJSON bool) error {
	apiClient, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		query.Set("cursor", cursor)
	}

	path := "/documents"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	resp, err := apiClient.Get(path)
	if err != nil {
		return err
	}

	var result DocumentListResult
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		return printJSON(result)
	}

	if len(result.Items) == 0 {
		fmt.Println("No documents found")
		return nil
	}

	for _, doc := range result.Items {
		status := "pending"
		if doc.Processed {
			status = "indexed"
		}
		fmt.Printf("  %s: %s (%s, %s, uploaded: %s)\n", doc.ID, doc.FileName, doc.FileType, status, doc.UploadedAt)
	}
	if result.HasMore && result.Cursor != "" {
		fmt.Printf("\nMore results available. Use --cursor %s\n", result.Cursor)
	}
	return nil
}

// DocumentsGetCmd creates the documents get command.
func DocumentsGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <document_id>",
		Short: "Show a document's metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runDocumentsGet(cmd, args[0], outputJSON)
		},
	}

	return cmd
}

func runDocumentsGet(cmd *cobra.Command, documentID string, outputJSON bool) error {
	apiClient, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := apiClient.Get("/documents/" + url.PathEscape(documentID))
	if err != nil {
		return err
	}

	var doc DocumentItem
	if err := json.Unmarshal(resp.Data, &doc); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		return printJSON(doc)
	}

	status := "pending"
	if doc.Processed {
		status = "indexed"
	}
	fmt.Printf("ID: %s\n", doc.ID)
	fmt.Printf("File: %s (%s)\n", doc.FileName, doc.FileType)
	fmt.Printf("Status: %s\n", status)
	fmt.Printf("Uploaded: %s\n", doc.UploadedAt)
	return nil
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

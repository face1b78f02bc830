package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/verdantiq/esgpilot/internal/config"
	"github.com/verdantiq/esgpilot/internal/database"
	"github.com/verdantiq/esgpilot/internal/repository"
	"github.com/verdantiq/esgpilot/internal/service"
)

// APIKeyCmd builds the apikey command group: create, list, revoke.
// These commands talk to the database directly, not the API, so they
// work even when no key exists yet.
func APIKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage API keys",
		Long:  "Create, list, and revoke API keys",
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a new API key",
		Long:  "Create a new API key and print the plaintext token once",
		RunE:  runAPIKeyCreate,
	}
	create.Flags().StringP("name", "n", "", "API key name (required)")
	create.Flags().StringP("output", "", "text", "Output format (text or json)")
	create.MarkFlagRequired("name")

	list := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		Long:  "List all API keys, newest first",
		RunE:  runAPIKeyList,
	}
	list.Flags().StringP("output", "", "text", "Output format (text or json)")

	revoke := &cobra.Command{
		Use:   "revoke <id>",
		Short: "Revoke an API key",
		Long:  "Revoke an API key by its ID",
		Args:  cobra.ExactArgs(1),
		RunE:  runAPIKeyRevoke,
	}
	revoke.Flags().StringP("output", "", "text", "Output format (text or json)")

	cmd.AddCommand(create, list, revoke)
	return cmd
}

func runAPIKeyCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	name, _ := cmd.Flags().GetString("name")
	format, _ := cmd.Flags().GetString("output")

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	authSvc := service.NewAuthService(repository.NewAPIKeyRepository(pool), &service.DefaultUUIDGenerator{})

	token, err := authSvc.CreateAPIKey(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to create API key: %w", err)
	}

	// List returns newest first, so the key just created leads.
	keys, err := authSvc.ListAPIKeys(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve created key: %w", err)
	}
	var keyID string
	if len(keys) > 0 {
		keyID = keys[0].ID
	}

	if format == "json" {
		return printJSON(map[string]interface{}{
			"id":    keyID,
			"name":  name,
			"token": token,
		})
	}

	fmt.Printf("API key created\n")
	fmt.Printf("Key ID: %s\n", keyID)
	fmt.Printf("Key Name: %s\n", name)
	fmt.Printf("Token: %s\n", token)
	fmt.Println("\n⚠️  Save this token now. You won't be able to see it again!")
	return nil
}

func runAPIKeyList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	format, _ := cmd.Flags().GetString("output")

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	keys, err := repository.NewAPIKeyRepository(pool).List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list API keys: %w", err)
	}

	if format == "json" {
		rows := make([]map[string]interface{}, len(keys))
		for i, key := range keys {
			rows[i] = map[string]interface{}{
				"id":         key.ID,
				"name":       key.Name,
				"created_at": key.CreatedAt,
				"revoked_at": key.RevokedAt,
				"revoked":    key.IsRevoked(),
			}
		}
		return printJSON(rows)
	}

	if len(keys) == 0 {
		fmt.Println("No API keys found")
		return nil
	}
	for _, key := range keys {
		status := "active"
		if key.IsRevoked() {
			status = "revoked"
		}
		fmt.Printf("  %s: %s (%s, created: %s)\n", key.ID, key.Name, status, key.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runAPIKeyRevoke(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	keyID := args[0]
	format, _ := cmd.Flags().GetString("output")

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := repository.NewAPIKeyRepository(pool).Revoke(ctx, keyID); err != nil {
		return fmt.Errorf("failed to revoke API key: %w", err)
	}

	if format == "json" {
		return printJSON(map[string]interface{}{
			"id":      keyID,
			"revoked": true,
			"message": "API key revoked successfully",
		})
	}

	fmt.Printf("API key %s revoked successfully\n", keyID)
	return nil
}

func printJSON(v interface{}) error {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Println(string(body))
	return nil
}

func getDBPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return database.NewPool(ctx, cfg.DatabaseURL)
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/secretvault/filevault/internal/events"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List files stored in a vault",
	Example: `  filevault list --category photos
  filevault list --dir /backup/vault --json`,
	RunE: runList,
}

var (
	listDir      string
	listCategory string
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listDir, "dir", "d", "",
		"Explicit vault directory (overrides --category)")
	listCmd.Flags().StringVarP(&listCategory, "category", "c", "documents",
		"Vault category: photos, videos, documents, audio")
}

func runList(cmd *cobra.Command, args []string) error {
	vaultDir, err := resolveVaultDir(listDir, listCategory)
	if err != nil {
		return err
	}

	ctx := events.WithVaultDir(opContext(cmd), vaultDir)
	entries, err := vaultClient.Vault.List(ctx, vaultDir)
	if err != nil {
		printError("List failed: %v", err)
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"vault_dir": vaultDir,
			"count":     len(entries),
			"files":     entries,
		})
		return nil
	}

	if len(entries) == 0 {
		printInfo("No files in %s", vaultDir)
		return nil
	}

	for _, entry := range entries {
		printInfo("%-40s %10d  %s", entry.DisplayName, entry.SizeBytes, entry.StoredPath)
	}

	return nil
}

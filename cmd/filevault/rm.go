package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:     "rm <stored-path>",
	Short:   "Remove a stored file and its metadata entry",
	Example: `  filevault rm ~/.local/share/filevault/vault_data/documents/report.vault`,
	Args:    cobra.ExactArgs(1),
	RunE:    runRemove,
}

func init() {
	rootCmd.AddCommand(rmCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	storedPath, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve stored path: %w", err)
	}

	if err := vaultClient.Vault.Remove(opContext(cmd), storedPath); err != nil {
		if jsonOutput {
			printJSON(map[string]interface{}{
				"success": false,
				"error":   err.Error(),
			})
		} else {
			printError("Remove failed: %v", err)
		}
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"success":     true,
			"stored_path": storedPath,
		})
	} else {
		printSuccess("Removed %s", storedPath)
	}

	return nil
}

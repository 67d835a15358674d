package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var openCmd = &cobra.Command{
	Use:   "open <stored-path>",
	Short: "Decrypt a stored file for viewing",
	Long: `Open decrypts a vault artifact into the temp directory and prints the
path of the decrypted copy. The copy stays on disk until removed by you
or by "filevault clean".`,
	Example: `  filevault open ~/.local/share/filevault/vault_data/photos/photo.vault`,
	Args:    cobra.ExactArgs(1),
	RunE:    runOpen,
}

var openPIN string

func init() {
	rootCmd.AddCommand(openCmd)

	openCmd.Flags().StringVarP(&openPIN, "pin", "p", "",
		"Vault PIN (will prompt if not provided)")
}

func runOpen(cmd *cobra.Command, args []string) error {
	storedPath, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve stored path: %w", err)
	}

	pin, err := resolvePIN(openPIN)
	if err != nil {
		return err
	}

	tempPath, err := vaultClient.Vault.RetrieveForViewing(opContext(cmd), storedPath, pin)
	if err != nil {
		if jsonOutput {
			printJSON(map[string]interface{}{
				"success": false,
				"error":   err.Error(),
			})
		} else {
			printError("Open failed: %v", err)
		}
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"success":   true,
			"temp_path": tempPath,
		})
	} else {
		printInfo("%s", tempPath)
	}

	return nil
}

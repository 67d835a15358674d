package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/secretvault/filevault/internal/events"
)

var storeCmd = &cobra.Command{
	Use:   "store <file>",
	Short: "Encrypt a file into a vault",
	Long: `Store encrypts the given file with a key derived from your PIN and
places the ciphertext in the target vault directory. The original file
is left in place.`,
	Example: `  filevault store photo.jpg --category photos
  filevault store report.pdf --dir /backup/vault --name "Q3 report.pdf"`,
	Args: cobra.ExactArgs(1),
	RunE: runStore,
}

var (
	storeDir      string
	storeCategory string
	storeName     string
	storePIN      string
)

func init() {
	rootCmd.AddCommand(storeCmd)

	storeCmd.Flags().StringVarP(&storeDir, "dir", "d", "",
		"Explicit vault directory (overrides --category)")
	storeCmd.Flags().StringVarP(&storeCategory, "category", "c", "documents",
		"Vault category: photos, videos, documents, audio")
	storeCmd.Flags().StringVarP(&storeName, "name", "n", "",
		"Stored display name (default: source file name)")
	storeCmd.Flags().StringVarP(&storePIN, "pin", "p", "",
		"Vault PIN (will prompt if not provided)")
}

func runStore(cmd *cobra.Command, args []string) error {
	sourcePath, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve source path: %w", err)
	}

	vaultDir, err := resolveVaultDir(storeDir, storeCategory)
	if err != nil {
		return err
	}

	filename := storeName
	if filename == "" {
		filename = filepath.Base(sourcePath)
	}

	pin, err := resolvePIN(storePIN)
	if err != nil {
		return err
	}

	ctx := events.WithVaultDir(opContext(cmd), vaultDir)
	result, err := vaultClient.Vault.Store(ctx, sourcePath, vaultDir, filename, pin)
	if err != nil {
		if jsonOutput {
			printJSON(map[string]interface{}{
				"success": false,
				"error":   err.Error(),
			})
		} else {
			printError("Store failed: %v", err)
		}
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"success":     true,
			"stored_path": result.StoredPath,
			"size_bytes":  result.SizeBytes,
		})
	} else {
		printSuccess("Stored %s as %s (%d bytes encrypted)",
			filename, result.StoredPath, result.SizeBytes)
	}

	return nil
}

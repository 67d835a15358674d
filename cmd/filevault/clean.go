package main

import (
	"time"

	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete old decrypted temp files",
	Long: `Clean removes decrypted-for-viewing copies older than the cutoff from
the temp directory. Decrypted plaintext accumulates there until cleaned.`,
	Example: `  filevault clean
  filevault clean --max-age 1h`,
	RunE: runClean,
}

var cleanMaxAge time.Duration

func init() {
	rootCmd.AddCommand(cleanCmd)

	cleanCmd.Flags().DurationVar(&cleanMaxAge, "max-age", 0,
		"Age cutoff (default: vault.temp_max_age from config)")
}

func runClean(cmd *cobra.Command, args []string) error {
	maxAge := cleanMaxAge
	if maxAge == 0 {
		maxAge = cfg.Vault.TempMaxAge
	}

	removed, err := vaultClient.Vault.SweepTemp(opContext(cmd), maxAge)
	if err != nil {
		printError("Clean failed: %v", err)
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"success": true,
			"removed": removed,
		})
	} else {
		printSuccess("Removed %d temp file(s)", removed)
	}

	return nil
}

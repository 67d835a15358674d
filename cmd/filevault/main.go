package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/secretvault/filevault/internal/client"
	"github.com/secretvault/filevault/internal/config"
	"github.com/secretvault/filevault/internal/events"
	"github.com/secretvault/filevault/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:   "filevault",
	Short: "Encrypted personal file vault",
	Long: `Filevault stores files encrypted at rest, keyed by a PIN you supply
per operation. Files are grouped into category vaults (photos, videos,
documents, audio) under an app-private data directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initClient()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if vaultClient != nil {
			return vaultClient.Close()
		}
		return nil
	},
}

var (
	cfgFile    string
	dataDir    string
	logLevel   string
	jsonOutput bool

	cfg         *config.Config
	logger      *events.Logger
	vaultClient *client.Client
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"Config file path (default: filevault.json in standard locations)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "",
		"Base data directory (default: platform app directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Output results as JSON")
}

func initClient() error {
	var err error
	cfg, err = config.NewLoader(cfgFile).Load()
	if err != nil {
		return err
	}

	if dataDir != "" {
		cfg.Storage.DataDir = dataDir
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	logger, err = events.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	events.SetDefault(logger)

	vaultClient, err = client.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	return nil
}

// opContext returns the command's context carrying the process logger,
// so vault operations log through it.
func opContext(cmd *cobra.Command) context.Context {
	return events.WithLogger(cmd.Context(), logger)
}

// resolveVaultDir picks the target vault directory from an explicit path
// or a category name.
func resolveVaultDir(dir, category string) (string, error) {
	if dir != "" {
		return filepath.Abs(dir)
	}

	c := storage.Category(category)
	for _, known := range storage.Categories {
		if c == known {
			return vaultClient.VaultDir(c), nil
		}
	}
	return "", fmt.Errorf("unknown category %q", category)
}

// resolvePIN returns the PIN from the flag or an interactive prompt.
func resolvePIN(pin string) (string, error) {
	if pin != "" {
		return pin, nil
	}
	return promptPIN("PIN: ")
}

func promptPIN(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	data, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read PIN: %w", err)
	}
	return string(data), nil
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		printError("Marshal output: %v", err)
		return
	}
	fmt.Println(string(data))
}

func printError(format string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

func printSuccess(format string, args ...interface{}) {
	color.New(color.FgGreen).Printf(format+"\n", args...)
}

func printInfo(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}

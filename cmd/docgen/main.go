// Package main provides the CLI for generating trackable documents locally.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "docgen",
		Short: "Turn spreadsheets into QR-tracked PDF documents",
		Long: `docgen renders one PDF per spreadsheet row, each carrying a QR code
that points at the row's tracking URL, and bundles them in a zip archive.`,
		SilenceUsage: true,
	}
	rootCmd.AddCommand(newGenerateCmd(), newInspectCmd())
	return rootCmd
}

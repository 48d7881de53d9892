package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Lllllllleong/trackabledocs/internal/services"
	"github.com/Lllllllleong/trackabledocs/internal/sheet"
)

type generateOptions struct {
	output     string
	baseURL    string
	layoutFile string
	validate   bool
	manifest   bool
}

func newGenerateCmd() *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate [input.csv|input.xls|input.xlsx]",
		Short: "Generate the document archive for a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts, args[0])
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", services.ArchiveFilename, "Output archive path")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", services.DefaultTrackingBaseURL, "Tracking URL prefix")
	cmd.Flags().StringVar(&opts.layoutFile, "layout", "", "YAML layout override")
	cmd.Flags().BoolVar(&opts.validate, "validate", false, "Validate every document with pdfcpu")
	cmd.Flags().BoolVar(&opts.manifest, "manifest", false, "Print the archive manifest as JSON")
	return cmd
}

func runGenerate(cmd *cobra.Command, opts *generateOptions, inputPath string) error {
	if !sheet.Supported(inputPath) {
		return fmt.Errorf("unsupported input %s: expected .csv, .xls or .xlsx", inputPath)
	}
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	generator, err := services.NewGeneratorFromSettings(opts.layoutFile, opts.validate)
	if err != nil {
		return err
	}
	res, err := generator.Process(cmd.Context(), data, filepath.Base(inputPath), opts.baseURL)
	if err != nil {
		if services.IsClientError(err) {
			return fmt.Errorf("%s", services.UserMessage(err))
		}
		return err
	}

	if err := os.WriteFile(opts.output, res.Archive, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	out := cmd.OutOrStdout()
	if opts.manifest {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Entries)
	}
	fmt.Fprintf(out, "%d documents written to %s\n", len(res.Entries), opts.output)
	return nil
}

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Lllllllleong/trackabledocs/internal/archive"
	"github.com/Lllllllleong/trackabledocs/internal/pdfcheck"
)

func newInspectCmd() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "inspect [archive.zip]",
		Short: "Validate every document of an archive and list its pages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read archive: %w", err)
			}
			files, err := archive.Read(data)
			if err != nil {
				return err
			}

			inspector := pdfcheck.NewInspector(strict)
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tPAGES\tBYTES")
			for _, f := range files {
				report, err := inspector.Inspect(f.Data)
				if err != nil {
					return fmt.Errorf("%s: %w", f.Name, err)
				}
				fmt.Fprintf(tw, "%s\t%d\t%d\n", f.Name, report.Pages, report.Size)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Apply strict PDF validation")
	return cmd
}

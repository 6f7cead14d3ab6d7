package app

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zjy-dev/covalgebra/internal/coverage"
)

// NewStatsCommand creates the "stats" subcommand.
func NewStatsCommand(opts *globalOptions) *cobra.Command {
	var reportPath string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print per-session coverage totals of a report.",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.importReport(reportPath)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			reg := r.Registry()
			fmt.Fprintf(w, "Structure: %d packages, %d methods\n", reg.NumberOfPackages(), reg.NumberOfMethods())
			fmt.Fprintf(w, "Sessions: %d\n", r.NumberOfSessions())
			for _, s := range r.Sessions() {
				printTotals(w, s.ID(), s)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&reportPath, "report", "", "report file")

	return cmd
}

func printTotals(w io.Writer, label string, s *coverage.Session) {
	fmt.Fprintf(w, "  %-30s methods=%d lines=%d instructions=%d branches=%d\n",
		label, s.NumberOfCoveredMethods(), s.NumberOfLinesCovered(), s.InstructionsCovered(), s.BranchesCovered())
}

func printSession(w io.Writer, label string, s *coverage.Session) {
	printTotals(w, label, s)
	for _, name := range s.Methods() {
		mc, _ := s.Coverage(name)
		fmt.Fprintf(w, "    %s %v\n", name, mc.LineNumbersCovered())
	}
}

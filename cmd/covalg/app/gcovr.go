package app

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/zjy-dev/gcovr-json-util/v2/pkg/gcovr"

	"github.com/zjy-dev/covalgebra/internal/ingest"
	"github.com/zjy-dev/covalgebra/internal/report"
)

// NewImportGcovrCommand creates the "import-gcovr" subcommand.
func NewImportGcovrCommand(opts *globalOptions) *cobra.Command {
	var (
		reportPath string
		gcovrPath  string
		sessionID  string
		sourceRoot string
		out        string
	)

	cmd := &cobra.Command{
		Use:   "import-gcovr",
		Short: "Add a session from a gcovr JSON report.",
		Long: `This command reads a gcovr JSON report (gcovr --json) and adds it to an
existing report as a new session. Functions are matched to methods by their
demangled name, reading "::" as "."; every line gcov saw executed counts as
fully covered, since gcov reports no instruction counts. An existing session
with the same ID is never replaced.

Examples:
  covalg import-gcovr --report reports/gcc.json --gcovr coverage.json --session gcc-torture`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if gcovrPath == "" || sessionID == "" {
				return errors.New("--gcovr and --session are required")
			}
			r, err := opts.importReport(reportPath)
			if err != nil {
				return err
			}
			if _, exists := r.Session(sessionID); exists {
				return errors.Errorf("session %q already exists", sessionID)
			}

			gr, err := gcovr.ParseReport(gcovrPath)
			if err != nil {
				return errors.Wrap(err, "failed to load gcovr report")
			}

			s := ingest.SessionFromExecuted(r.Registry(), sessionID, ingest.ConvertGcovrReport(gr, sourceRoot))
			r.AddSession(s)

			if out == "" {
				out = reportPath
			}
			if err := report.Export(out, r, opts.cfg.Report.Indent); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[Import] session %s covers %d methods, %d lines; written to %s\n",
				s.ID(), s.NumberOfCoveredMethods(), s.NumberOfLinesCovered(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&reportPath, "report", "", "report to extend")
	cmd.Flags().StringVar(&gcovrPath, "gcovr", "", "gcovr JSON report")
	cmd.Flags().StringVar(&sessionID, "session", "", "ID of the new session")
	cmd.Flags().StringVar(&sourceRoot, "source-root", "", "prefix for relative source paths")
	cmd.Flags().StringVar(&out, "out", "", "output file (default: overwrite --report)")

	return cmd
}

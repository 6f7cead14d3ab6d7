package app

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/zjy-dev/covalgebra/internal/config"
	"github.com/zjy-dev/covalgebra/internal/exec"
	"github.com/zjy-dev/covalgebra/internal/ingest"
	"github.com/zjy-dev/covalgebra/internal/logger"
	"github.com/zjy-dev/covalgebra/internal/report"
)

// NewBuildCommand creates the "build" subcommand.
func NewBuildCommand(opts *globalOptions) *cobra.Command {
	var (
		title    string
		trace    string
		bins     []string
		src      string
		includes string
		excludes string
		out      string
		format   string
		analyzer string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a per-session coverage report from an analysis dump.",
		Long: `This command reads the analysis dump written by the bytecode analyzer,
registers every package, class, method and line once, and then records the
coverage of each test session separately. The "No-Test" pseudo-session is
left out.

Include and exclude patterns use "." between package segments, "*" for any
run of characters and "?" for a single character. Several patterns are
separated by the platform path-list separator (":" on Unix). Patterns from
the configuration file are used in addition to the flags. Filters cannot be
applied to compressed and pack200 containers; those are analyzed unfiltered
with a warning.

The trace is read as an analysis dump unless an analyzer command is set with
--analyzer or in the configuration; the analyzer is then run as
"<command...> <trace> <bin>..." and must print the dump on stdout.

The report is written to {out}/{title}.json.

Examples:
  # Build a report from a dump, restricted to the classes directory
  covalg build --title petclinic --trace jacoco-dump.json --bin target/classes --out reports

  # Leave test classes out
  covalg build --title petclinic --trace jacoco-dump.json --exclude '*Test:*IT' --out reports`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if title == "" || trace == "" || out == "" {
				return errors.New("--title, --trace and --out are required")
			}
			cfg := opts.cfg

			if format != "" && !config.IsKnownFormat(format) {
				logger.Warnf("unknown format %q, falling back to %s", format, config.DefaultFormat)
			}
			if format == "" {
				format = cfg.Report.Format
			}
			logger.Debugf("output format %s, source directory %q", config.ParseFormat(format), src)

			filter, err := ingest.NewFilter(
				append(append([]string(nil), cfg.Filter.Includes...), config.SplitPatterns(includes)...),
				append(append([]string(nil), cfg.Filter.Excludes...), config.SplitPatterns(excludes)...),
			)
			if err != nil {
				return err
			}

			command := cfg.Analyzer.Command
			if analyzer != "" {
				command = strings.Fields(analyzer)
			}
			var source ingest.Analyzer
			if len(command) > 0 {
				source, err = ingest.RunAnalyzer(cmd.Context(), exec.NewCommandExecutor(""), command, trace, bins)
			} else {
				var dump *ingest.Dump
				dump, err = ingest.LoadDump(trace)
				source = ingest.OnlyBins(dump, bins)
			}
			if err != nil {
				return err
			}

			r, err := ingest.Build(source, filter, opts.reportOptions()...)
			if err != nil {
				return errors.Wrap(err, "failed to build report")
			}

			path := filepath.Join(out, title+".json")
			if err := report.Export(path, r, cfg.Report.Indent); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[Build] %d sessions, %d methods written to %s\n",
				r.NumberOfSessions(), r.Registry().NumberOfMethods(), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "report title, used as the file name")
	cmd.Flags().StringVar(&trace, "trace", "", "trace file, or the analysis dump itself when no analyzer is set")
	cmd.Flags().StringArrayVar(&bins, "bin", nil, "only analyze bundles under this path (repeatable)")
	cmd.Flags().StringVar(&src, "src", "", "source directory, kept for renderers")
	cmd.Flags().StringVar(&includes, "include", "", "class patterns to include")
	cmd.Flags().StringVar(&excludes, "exclude", "", "class patterns to exclude")
	cmd.Flags().StringVar(&out, "out", "", "output directory")
	cmd.Flags().StringVar(&format, "format", "", "HTML, XML or CSV")
	cmd.Flags().StringVar(&analyzer, "analyzer", "", "analyzer command converting the trace into a dump")

	return cmd
}

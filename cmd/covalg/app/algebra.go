package app

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/zjy-dev/covalgebra/internal/coverage"
	"github.com/zjy-dev/covalgebra/internal/report"
)

// resultOptions control what happens with a derived session.
type resultOptions struct {
	reportPath string
	add        bool
	name       string
	out        string
	markdown   string
}

func (ro *resultOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&ro.reportPath, "report", "", "report file")
	cmd.Flags().BoolVar(&ro.add, "add", false, "add the result to the report as a new session")
	cmd.Flags().StringVar(&ro.name, "name", "", "ID of the added session (default: generated)")
	cmd.Flags().StringVar(&ro.out, "out", "", "file the extended report is written to (default: overwrite --report)")
	cmd.Flags().StringVar(&ro.markdown, "markdown", "", "directory for a markdown summary")
}

// finish prints the result and, if requested, stores it.
func (ro *resultOptions) finish(cmd *cobra.Command, opts *globalOptions, r *report.Report, title string, s *coverage.Session) error {
	if ro.name != "" {
		s = s.Clone(ro.name)
	}
	printSession(cmd.OutOrStdout(), title, s)

	if ro.markdown != "" {
		path, err := report.NewMarkdownReporter(ro.markdown).SaveSession(title, s)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Summary written to %s\n", path)
	}

	if !ro.add {
		return nil
	}
	if _, exists := r.Session(s.ID()); exists {
		return errors.Errorf("session %q already exists", s.ID())
	}
	r.AddSession(s)
	out := ro.out
	if out == "" {
		out = ro.reportPath
	}
	if err := report.Export(out, r, opts.cfg.Report.Indent); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added session %q to %s\n", s.ID(), out)
	return nil
}

// selectSessions resolves IDs, failing on unknown ones. No IDs selects every
// session.
func selectSessions(r *report.Report, ids []string) ([]*coverage.Session, error) {
	if len(ids) == 0 {
		return r.Sessions(), nil
	}
	for _, id := range ids {
		if _, ok := r.Session(id); !ok {
			return nil, errors.Wrapf(report.ErrUnknownSession, "%q", id)
		}
	}
	return r.SessionsByID(ids), nil
}

// NewUnionCommand creates the "union" subcommand.
func NewUnionCommand(opts *globalOptions) *cobra.Command {
	var (
		ro  resultOptions
		ids []string
	)

	cmd := &cobra.Command{
		Use:   "union",
		Short: "Coverage of all (or the selected) sessions together.",
		Long: `This command unions the selected sessions. Each line keeps the highest
covered instruction count any session recorded for it.

Examples:
  covalg union --report reports/petclinic.json
  covalg union --report reports/petclinic.json --sessions testA,testB --add --name smoke`,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.importReport(ro.reportPath)
			if err != nil {
				return err
			}
			sessions, err := selectSessions(r, ids)
			if err != nil {
				return err
			}
			return ro.finish(cmd, opts, r, "Union", r.UnionOf(sessions))
		},
	}

	ro.register(cmd)
	cmd.Flags().StringSliceVar(&ids, "sessions", nil, "comma-separated session IDs (default: all)")

	return cmd
}

// NewIntersectCommand creates the "intersect" subcommand.
func NewIntersectCommand(opts *globalOptions) *cobra.Command {
	var (
		ro  resultOptions
		ids []string
	)

	cmd := &cobra.Command{
		Use:   "intersect",
		Short: "Coverage all (or the selected) sessions have in common.",
		Long: `This command intersects the selected sessions. Each remaining line keeps
the lowest covered instruction count among the sessions.

Examples:
  covalg intersect --report reports/petclinic.json --sessions testA,testB`,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.importReport(ro.reportPath)
			if err != nil {
				return err
			}
			sessions, err := selectSessions(r, ids)
			if err != nil {
				return err
			}
			return ro.finish(cmd, opts, r, "Intersection", r.IntersectionOf(sessions))
		},
	}

	ro.register(cmd)
	cmd.Flags().StringSliceVar(&ids, "sessions", nil, "comma-separated session IDs (default: all)")

	return cmd
}

// NewUniqueCommand creates the "unique" subcommand.
func NewUniqueCommand(opts *globalOptions) *cobra.Command {
	var (
		ro  resultOptions
		ids []string
	)

	cmd := &cobra.Command{
		Use:   "unique",
		Short: "Coverage only one session, or one group of sessions, has.",
		Long: `This command computes the unique contribution of a session: what it covers
that no other session of the report covers. Passing --session more than once
treats the sessions as a group and compares their union against everything
outside the group.

Examples:
  covalg unique --report reports/petclinic.json --session testA
  covalg unique --report reports/petclinic.json --session testA --session testB`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(ids) == 0 {
				return errors.New("at least one --session is required")
			}
			r, err := opts.importReport(ro.reportPath)
			if err != nil {
				return err
			}
			group, err := selectSessions(r, ids)
			if err != nil {
				return err
			}
			if len(group) == 1 {
				return ro.finish(cmd, opts, r, "Unique "+group[0].ID(), r.UniqueContribution(group[0]))
			}
			return ro.finish(cmd, opts, r, "Unique group", r.UniqueContributionOfGroup(group))
		},
	}

	ro.register(cmd)
	cmd.Flags().StringArrayVar(&ids, "session", nil, "session ID (repeatable)")

	return cmd
}

// NewDiffCommand creates the "diff" subcommand.
func NewDiffCommand(opts *globalOptions) *cobra.Command {
	var (
		reportPath string
		markdown   string
	)

	cmd := &cobra.Command{
		Use:   "diff <sessionA> <sessionB>",
		Short: "Compare the coverage of two sessions.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.importReport(reportPath)
			if err != nil {
				return err
			}
			a, b := args[0], args[1]
			d, err := r.Diff(a, b)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if d.ContainsDifference() {
				fmt.Fprintf(w, "%s and %s differ\n", a, b)
			} else {
				fmt.Fprintf(w, "%s and %s cover the same lines\n", a, b)
			}
			printSession(w, "Only "+a, d.OnlyA)
			printSession(w, "Common", d.Common)
			printSession(w, "Only "+b, d.OnlyB)

			if markdown != "" {
				path, err := report.NewMarkdownReporter(markdown).SaveDiff(a, b, d)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "Summary written to %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&reportPath, "report", "", "report file")
	cmd.Flags().StringVar(&markdown, "markdown", "", "directory for a markdown summary")

	return cmd
}

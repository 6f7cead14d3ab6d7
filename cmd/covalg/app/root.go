package app

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/zjy-dev/covalgebra/internal/config"
	"github.com/zjy-dev/covalgebra/internal/logger"
	"github.com/zjy-dev/covalgebra/internal/report"
)

// globalOptions holds the persistent flags and the configuration they
// override.
type globalOptions struct {
	configPath string
	logLevel   string
	workers    int
	indent     int

	cfg *config.Config
}

// NewCovalgCommand creates the root command for the covalg tool.
func NewCovalgCommand() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "covalg",
		Short: "Set algebra over per-test coverage sessions.",
		Long: `covalg builds coverage reports that keep every test session apart and
answers questions across them: what all sessions cover together, what
they have in common, what only one session or group of sessions covers,
and how two sessions differ.

Configuration is read from configs/covalg.yaml when present; flags win
over the file and COVALG_CONFIG_* environment variables win over both
defaults and the file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "explicit configuration file")
	flags.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")
	flags.IntVar(&opts.workers, "workers", 0, "goroutines used for per-method set operations")
	flags.IntVar(&opts.indent, "indent", 0, "indentation of written JSON reports")

	cmd.AddCommand(NewBuildCommand(opts))
	cmd.AddCommand(NewImportGcovrCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewUnionCommand(opts))
	cmd.AddCommand(NewIntersectCommand(opts))
	cmd.AddCommand(NewUniqueCommand(opts))
	cmd.AddCommand(NewDiffCommand(opts))

	return cmd
}

// load reads the configuration and applies explicitly set flags on top.
func (o *globalOptions) load(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadConfigFile(o.configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if flags.Changed("workers") {
		if o.workers < 1 {
			return errors.Errorf("--workers must be at least 1, got %d", o.workers)
		}
		cfg.Report.Workers = o.workers
	}
	if flags.Changed("indent") {
		if o.indent < 0 {
			return errors.Errorf("--indent must not be negative, got %d", o.indent)
		}
		cfg.Report.Indent = o.indent
	}

	logger.Init(cfg.Log.Level)
	logger.SetLevel(cfg.Log.Level)
	logger.SetColorEnable(cfg.Log.Color)
	logger.Debugf("configuration: %s", cfg)

	o.cfg = cfg
	return nil
}

func (o *globalOptions) reportOptions() []report.Option {
	return []report.Option{report.WithWorkers(o.cfg.Report.Workers)}
}

func (o *globalOptions) importReport(path string) (*report.Report, error) {
	if path == "" {
		return nil, errors.New("--report is required")
	}
	return report.Import(path, o.reportOptions()...)
}

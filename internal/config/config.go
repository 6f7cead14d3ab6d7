package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// DefaultConfigName is the base name of the configuration file.
const DefaultConfigName = "covalg"

// LogConfig controls diagnostic output.
type LogConfig struct {
	Level string `mapstructure:"level"`
	Color bool   `mapstructure:"color"`
}

// ReportConfig controls how reports are written and processed.
type ReportConfig struct {
	Indent  int    `mapstructure:"indent"`
	Workers int    `mapstructure:"workers"`
	Format  string `mapstructure:"format"`
}

// FilterConfig holds class include/exclude patterns.
type FilterConfig struct {
	Includes []string `mapstructure:"includes"`
	Excludes []string `mapstructure:"excludes"`
}

// AnalyzerConfig names the external analyzer that converts a trace file
// into an analysis dump. An empty command means traces are dumps already.
type AnalyzerConfig struct {
	Command []string `mapstructure:"command"`
}

// Config is the top-level configuration, read from the "config" key.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Report   ReportConfig   `mapstructure:"report"`
	Filter   FilterConfig   `mapstructure:"filter"`
	Analyzer AnalyzerConfig `mapstructure:"analyzer"`
}

// String renders the configuration for log output.
func (c *Config) String() string {
	return fmt.Sprintf("log=%s report.format=%s report.workers=%d report.indent=%d includes=%v excludes=%v",
		c.Log.Level, c.Report.Format, c.Report.Workers, c.Report.Indent, c.Filter.Includes, c.Filter.Excludes)
}

func newViper(configName string) *viper.Viper {
	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath("configs")
	v.AddConfigPath("../configs")
	v.AddConfigPath("../../configs")
	configure(v)
	return v
}

// configure installs defaults and COVALG_CONFIG_* environment overrides.
func configure(v *viper.Viper) {
	setDefaults(v)
	v.SetEnvPrefix("COVALG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads configs/<configName>.yaml into result. The file must exist.
// Missing keys take their defaults and environment variables such as
// COVALG_CONFIG_REPORT_WORKERS override file values.
func Load(configName string, result *Config) error {
	v := newViper(configName)

	if err := v.ReadInConfig(); err != nil {
		return errors.Wrap(err, "failed to read config file")
	}

	*result = *fromViper(v)
	return nil
}

// LoadConfig reads configs/covalg.yaml, falling back to defaults when the
// file does not exist.
func LoadConfig() (*Config, error) {
	return LoadConfigNamed(DefaultConfigName)
}

// LoadConfigNamed is LoadConfig with a custom file base name.
func LoadConfigNamed(configName string) (*Config, error) {
	var cfg Config
	err := Load(configName, &cfg)
	if err == nil {
		return &cfg, nil
	}
	var notFound viper.ConfigFileNotFoundError
	if !errors.As(err, &notFound) {
		return nil, err
	}
	return fromViper(newViper(configName)), nil
}

// LoadConfigFile reads an explicit configuration file path. Defaults and
// environment overrides apply as with LoadConfig.
func LoadConfigFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	configure(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", filepath.Clean(path))
	}

	return fromViper(v), nil
}

// fromViper reads keys one by one so that environment overrides of nested
// keys are honored.
func fromViper(v *viper.Viper) *Config {
	cfg := &Config{
		Log: LogConfig{
			Level: v.GetString("config.log.level"),
			Color: v.GetBool("config.log.color"),
		},
		Report: ReportConfig{
			Indent:  v.GetInt("config.report.indent"),
			Workers: v.GetInt("config.report.workers"),
			Format:  v.GetString("config.report.format"),
		},
		Filter: FilterConfig{
			Includes: v.GetStringSlice("config.filter.includes"),
			Excludes: v.GetStringSlice("config.filter.excludes"),
		},
		Analyzer: AnalyzerConfig{
			Command: v.GetStringSlice("config.analyzer.command"),
		},
	}
	cfg.normalize()
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("config.log.level", "info")
	v.SetDefault("config.log.color", false)
	v.SetDefault("config.report.indent", 0)
	v.SetDefault("config.report.workers", 1)
	v.SetDefault("config.report.format", string(FormatHTML))
}

func (c *Config) normalize() {
	if c.Report.Workers < 1 {
		c.Report.Workers = 1
	}
	if c.Report.Indent < 0 {
		c.Report.Indent = 0
	}
	c.Report.Format = string(ParseFormat(c.Report.Format))
}

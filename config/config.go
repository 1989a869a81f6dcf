// Package config loads the brcov configuration from defaults, an optional
// configuration file and BRCOV_* environment variables.
package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/mewspring/brcov/dict"
	"github.com/mewspring/brcov/instrument"
	"github.com/mewspring/brcov/rewrite"
)

// Configuration file name without extension, and its format.
const (
	configName = ".brcov"
	configType = "yaml"
)

// envPrefix is the environment variable prefix of brcov settings.
const envPrefix = "BRCOV"

// Front ends.
const (
	BackendClang  = "clang"
	BackendSitter = "sitter"
)

// Defaults.
const (
	DefaultOutDir       = instrument.DefaultOutDir
	DefaultBackend      = BackendClang
	DefaultEntry        = rewrite.DefaultEntry
	DefaultBuild        = true
	DefaultReportFormat = dict.FormatJSON
)

// Config is the brcov configuration.
type Config struct {
	// Output directory of the dictionary, report, rewritten source and
	// executable.
	OutDir string `mapstructure:"out_dir"`
	// C front end; clang or sitter.
	Backend string `mapstructure:"backend"`
	// Entry function of the program.
	Entry string `mapstructure:"entry"`
	// Host C compiler; detected if empty.
	Compiler string `mapstructure:"compiler"`
	// Extra arguments passed to libclang.
	ClangArgs []string `mapstructure:"clang_args"`
	// Build the instrumented source.
	Build bool `mapstructure:"build"`
	// Report format; json or yaml.
	ReportFormat string `mapstructure:"report_format"`
	// Debug output.
	Debug bool `mapstructure:"debug"`
}

// Load loads the configuration. If path is non-empty it names the
// configuration file, otherwise .brcov.yaml is looked up in the working
// directory and the home directory. A missing configuration file is not an
// error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("out_dir", DefaultOutDir)
	v.SetDefault("backend", DefaultBackend)
	v.SetDefault("entry", DefaultEntry)
	v.SetDefault("compiler", "")
	v.SetDefault("clang_args", []string{})
	v.SetDefault("build", DefaultBuild)
	v.SetDefault("report_format", DefaultReportFormat)
	v.SetDefault("debug", false)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "unable to read config")
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "unable to decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports an error for unknown front ends and report formats.
func (cfg *Config) Validate() error {
	switch cfg.Backend {
	case BackendClang, BackendSitter:
	default:
		return errors.Errorf("invalid backend %q; expected %q or %q", cfg.Backend, BackendClang, BackendSitter)
	}
	switch cfg.ReportFormat {
	case dict.FormatJSON, dict.FormatYAML:
	default:
		return errors.Errorf("invalid report format %q; expected \"json\" or \"yaml\"", cfg.ReportFormat)
	}
	if cfg.OutDir == "" {
		return errors.New("empty output directory")
	}
	if cfg.Entry == "" {
		return errors.New("empty entry function name")
	}
	return nil
}

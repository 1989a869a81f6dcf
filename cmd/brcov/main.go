// The brcov tool instruments C source files for branch coverage logging.
//
// Usage:
//
//	brcov [flags] <filename> [debug]
//
// The branch dictionary, report, instrumented source and executable are
// written to the output directory (brcov_out by default).
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/mewkiz/pkg/term"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mewspring/brcov/config"
	"github.com/mewspring/brcov/cursor"
	"github.com/mewspring/brcov/cursor/clangcursor"
	"github.com/mewspring/brcov/cursor/sittercursor"
	"github.com/mewspring/brcov/dict"
	"github.com/mewspring/brcov/instrument"
)

var (
	// dbg is a logger with the "brcov:" prefix which logs debug messages to
	// standard error.
	dbg = log.New(os.Stderr, term.MagentaBold("brcov:")+" ", 0)
	// warn is a logger with the "brcov:" prefix which logs warning messages to
	// standard error.
	warn = log.New(os.Stderr, term.RedBold("brcov:")+" ", 0)
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "brcov [flags] <filename> [debug]",
		Short:         "Instrument a C source file for branch coverage logging",
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args)
			if err != nil {
				warn.Printf("%+v", err)
				return err
			}
			showTable, _ := cmd.Flags().GetBool("table")
			if err := run(cmd.Context(), args[0], cfg, showTable); err != nil {
				if kind := instrument.Kind(err); kind != "" {
					warn.Printf("%s: %+v", kind, err)
				} else {
					warn.Printf("%+v", err)
				}
				return err
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.String("config", "", "config file (default .brcov.yaml in working or home directory)")
	flags.StringP("out", "o", config.DefaultOutDir, "output directory")
	flags.String("backend", config.DefaultBackend, "C front end (clang or sitter)")
	flags.String("entry", config.DefaultEntry, "entry function of the program")
	flags.String("cc", "", "host C compiler (default $CC or detected)")
	flags.StringSlice("clang-arg", nil, "extra argument passed to libclang (repeatable)")
	flags.Bool("no-build", false, "skip building the instrumented source")
	flags.String("format", config.DefaultReportFormat, "report format (json or yaml)")
	flags.Bool("table", false, "print the branch dictionary as a table")
	flags.BoolP("debug", "d", false, "enable debug output")
	return cmd
}

// loadConfig loads the configuration, overridden by command line flags and
// the optional debug argument.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if flags.Changed("out") {
		cfg.OutDir, _ = flags.GetString("out")
	}
	if flags.Changed("backend") {
		cfg.Backend, _ = flags.GetString("backend")
	}
	if flags.Changed("entry") {
		cfg.Entry, _ = flags.GetString("entry")
	}
	if flags.Changed("cc") {
		cfg.Compiler, _ = flags.GetString("cc")
	}
	if flags.Changed("clang-arg") {
		cfg.ClangArgs, _ = flags.GetStringSlice("clang-arg")
	}
	if flags.Changed("no-build") {
		noBuild, _ := flags.GetBool("no-build")
		cfg.Build = !noBuild
	}
	if flags.Changed("format") {
		cfg.ReportFormat, _ = flags.GetString("format")
	}
	if flags.Changed("debug") {
		cfg.Debug, _ = flags.GetBool("debug")
	}
	if len(args) > 1 {
		cfg.Debug = debugArg(args[1])
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// debugArg reports whether the debug argument enables debug output; any value
// other than a false boolean does.
func debugArg(arg string) bool {
	if v, err := strconv.ParseBool(arg); err == nil {
		return v
	}
	return true
}

// run instruments the given source file.
func run(ctx context.Context, srcPath string, cfg *config.Config, showTable bool) error {
	var parser cursor.Parser
	switch cfg.Backend {
	case config.BackendClang:
		parser = &clangcursor.Parser{Args: cfg.ClangArgs}
	case config.BackendSitter:
		parser = sittercursor.Parser{}
	default:
		return errors.Errorf("support for backend %q not yet implemented", cfg.Backend)
	}
	if cfg.Debug {
		dbg.Printf("instrumenting %q using the %s front end", srcPath, cfg.Backend)
	}
	res, err := instrument.Run(ctx, srcPath, instrument.Options{
		OutDir:       cfg.OutDir,
		Entry:        cfg.Entry,
		Parser:       parser,
		Build:        cfg.Build,
		CC:           cfg.Compiler,
		ReportFormat: cfg.ReportFormat,
		Debug:        cfg.Debug,
	})
	if err != nil {
		return err
	}
	if showTable {
		fmt.Println(dict.Table(srcPath, res.Dict.Labels()))
	}
	if res.BinaryPath != "" {
		dbg.Printf("instrumented executable %q", res.BinaryPath)
	}
	return nil
}

// Package instrument performs the branch coverage instrumentation of a single C
// source file: parse, branch discovery, branch dictionary, source rewrite,
// build and memory check.
package instrument

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/mewkiz/pkg/pathutil"
	"github.com/mewkiz/pkg/term"
	"github.com/pkg/errors"

	"github.com/mewspring/brcov/cursor"
	"github.com/mewspring/brcov/dict"
	"github.com/mewspring/brcov/discover"
	"github.com/mewspring/brcov/proginfo"
	"github.com/mewspring/brcov/rewrite"
	"github.com/mewspring/brcov/toolchain"
)

// dbg is a logger with the "instrument:" prefix which logs debug messages to
// standard error.
var dbg = log.New(os.Stderr, term.MagentaBold("instrument:")+" ", 0)

// DefaultOutDir is the default output directory.
const DefaultOutDir = "brcov_out"

// Builder builds an executable from C source code.
type Builder interface {
	Build(ctx context.Context, srcPath, outPath string) error
}

// Options controls a run.
type Options struct {
	// Output directory; DefaultOutDir if empty.
	OutDir string
	// Entry function; rewrite.DefaultEntry if empty.
	Entry string
	// C front end.
	Parser cursor.Parser
	// Build the instrumented source.
	Build bool
	// Compiler used to build the instrumented source; detected from CC if
	// nil.
	Compiler Builder
	// Explicitly configured compiler, used when Compiler is nil.
	CC string
	// Report format; dict.FormatJSON if empty.
	ReportFormat string
	// Debug output.
	Debug bool
}

// Result is the outcome of a successful run.
type Result struct {
	// Output file paths.
	DictPath     string
	ReportPath   string
	ModifiedPath string
	// Executable path; empty if not built.
	BinaryPath string

	Dict      dict.Dictionary
	Functions proginfo.FunctionTable
	Branches  []*proginfo.BranchPoint
	Vars      []*proginfo.VarDecl
}

// Paths of the output files of the given source file.
func outputPaths(outDir, srcPath, reportFormat string) (dictPath, reportPath, modifiedPath, binPath string) {
	name := pathutil.FileName(srcPath)
	dictPath = filepath.Join(outDir, name+".branch_dict")
	reportPath = filepath.Join(outDir, fmt.Sprintf("%s.report.%s", name, reportFormat))
	modifiedPath = filepath.Join(outDir, name+"_modified.c")
	binPath = filepath.Join(outDir, name+"_instrumented")
	return dictPath, reportPath, modifiedPath, binPath
}

// Run instruments the given C source file. The dictionary and instrumented
// source are left on disk when the build fails.
func Run(ctx context.Context, srcPath string, opts Options) (*Result, error) {
	if opts.OutDir == "" {
		opts.OutDir = DefaultOutDir
	}
	if opts.Entry == "" {
		opts.Entry = rewrite.DefaultEntry
	}
	if opts.ReportFormat == "" {
		opts.ReportFormat = dict.FormatJSON
	}
	if opts.Parser == nil {
		return nil, errors.New("no C front end")
	}

	// Check input.
	if _, err := os.Stat(srcPath); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrInputNotFound, "%q", srcPath)
		}
		return nil, ioError(err)
	}

	// Parse source file into AST.
	dbg.Printf("parsing %q", srcPath)
	unit, err := opts.Parser.Parse(srcPath)
	if err != nil {
		if !errors.Is(err, ErrParse) {
			err = &Error{Class: ErrParse, Err: err}
		}
		return nil, err
	}
	defer unit.Close()

	// Discover branch points and assign coverage labels.
	sess := discover.Discover(unit.Root(), opts.Debug)
	d := dict.Build(sess.Branches())
	res := &Result{
		Dict:      d,
		Functions: sess.Functions(),
		Branches:  sess.Branches(),
		Vars:      sess.Vars(),
	}
	res.DictPath, res.ReportPath, res.ModifiedPath, res.BinaryPath = outputPaths(opts.OutDir, srcPath, opts.ReportFormat)

	if err := os.MkdirAll(opts.OutDir, 0755); err != nil {
		return nil, ioError(err)
	}
	dbg.Printf("creating %q", res.DictPath)
	if err := d.WriteFile(res.DictPath, srcPath); err != nil {
		return nil, ioError(err)
	}
	report := &proginfo.Report{
		File:      srcPath,
		Functions: res.Functions.Sorted(),
		Vars:      res.Vars,
		Branches:  res.Branches,
		Labels:    d.Labels(),
	}
	dbg.Printf("creating %q", res.ReportPath)
	if err := dict.WriteReport(res.ReportPath, opts.ReportFormat, report); err != nil {
		if errors.Is(err, dict.ErrFormat) {
			return nil, err
		}
		return nil, ioError(err)
	}

	// Rewrite source file.
	dbg.Printf("creating %q", res.ModifiedPath)
	rw := rewrite.New(res.Functions, d, rewrite.Options{Entry: opts.Entry, Source: srcPath})
	if err := rewriteFile(rw, res.ModifiedPath, srcPath); err != nil {
		return nil, err
	}

	if !opts.Build {
		res.BinaryPath = ""
		return res, nil
	}
	c := opts.Compiler
	if c == nil {
		tc, err := toolchain.New(opts.CC)
		if err != nil {
			return nil, err
		}
		c = tc
	}
	dbg.Printf("building %q", res.BinaryPath)
	if err := c.Build(ctx, res.ModifiedPath, res.BinaryPath); err != nil {
		return nil, err
	}
	if err := toolchain.MemCheck(ctx, res.BinaryPath); err != nil {
		return nil, err
	}
	return res, nil
}

// rewriteFile writes the instrumented source of srcPath to dstPath.
func rewriteFile(rw *rewrite.Rewriter, dstPath, srcPath string) (err error) {
	r, err := os.Open(srcPath)
	if err != nil {
		return ioError(err)
	}
	defer r.Close()
	w, err := os.Create(dstPath)
	if err != nil {
		return ioError(err)
	}
	defer func() {
		if e := w.Close(); e != nil && err == nil {
			err = ioError(e)
		}
	}()
	return ioError(rw.Rewrite(w, r))
}

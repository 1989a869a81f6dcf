// Package rewrite instruments C source code for branch coverage logging.
//
// The source is rewritten line by line. Each function declares one boolean
// flag per branch origin within its body, a branch sets its flag when its body
// is entered, and a coverage label is logged before each target line. When a
// target line is shared by several entered branches, the flags of the branches
// decide which label is logged.
package rewrite

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/mewspring/brcov/dict"
	"github.com/mewspring/brcov/proginfo"
)

// DefaultEntry is the name of the program entry function.
const DefaultEntry = "main"

// Preamble is prepended to the rewritten source.
const Preamble = `/* Instrumented by brcov. */
#include <stdbool.h>
#include <stdio.h>

#define LOG(label) fprintf(stderr, "%s\n", (label))

`

// Options controls the rewrite.
type Options struct {
	// Name of the entry function, which has no function pointer declared;
	// DefaultEntry if empty.
	Entry string
	// Source path used in #line directives; no #line directives are emitted
	// if empty.
	Source string
}

// Rewriter rewrites one source file.
type Rewriter struct {
	funcs proginfo.FunctionTable
	dict  dict.Dictionary
	opts  Options

	// Function containing the current line.
	cur *proginfo.FunctionInfo
	// Origins of the entered branches of the current function, in order of
	// entry; the position of an origin is the index of its flag.
	open []int
	// Number of flags declared in the current function.
	declared int
}

// New returns a rewriter for the given function table and branch dictionary.
func New(funcs proginfo.FunctionTable, d dict.Dictionary, opts Options) *Rewriter {
	if opts.Entry == "" {
		opts.Entry = DefaultEntry
	}
	return &Rewriter{funcs: funcs, dict: d, opts: opts}
}

// Rewrite reads C source code from r and writes the instrumented source code
// to w. Every line of the original source is written unmodified, preceded by
// any injected code.
func (rw *Rewriter) Rewrite(w io.Writer, r io.Reader) error {
	rw.cur, rw.open, rw.declared = nil, nil, 0
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)
	bw.WriteString(Preamble)
	if rw.opts.Source != "" {
		fmt.Fprintf(bw, "#line 1 %q\n", rw.opts.Source)
	}
	for lineNum := 1; ; lineNum++ {
		line, err := br.ReadString('\n')
		if len(line) == 0 && err == io.EOF {
			break
		}
		if err != nil && err != io.EOF {
			return errors.WithStack(err)
		}
		if inject := rw.inject(lineNum); len(inject) > 0 {
			bw.WriteString(inject)
			if rw.opts.Source != "" {
				fmt.Fprintf(bw, "#line %d %q\n", lineNum, rw.opts.Source)
			}
		}
		bw.WriteString(strings.TrimSuffix(line, "\n"))
		bw.WriteString("\n")
		if err == io.EOF {
			break
		}
	}
	return errors.WithStack(bw.Flush())
}

// inject returns the code to inject before the given line.
func (rw *Rewriter) inject(lineNum int) string {
	buf := &strings.Builder{}
	prev := lineNum - 1

	// Entering a function; declare the flags of its branches.
	if f, ok := rw.funcs[prev]; ok {
		rw.cur = f
		rw.open = rw.open[:0]
		rw.declared = 0
		for _, origin := range rw.dict.Origins() {
			if f.Contains(origin) {
				fmt.Fprintf(buf, "bool %s = false;\n", flag(rw.declared))
				rw.declared++
			}
		}
		buf.WriteString("\n")
	}

	// Leaving a function; expose a pointer to it. The flags of the function
	// are out of scope from here on.
	if rw.cur != nil && prev == rw.cur.EndLine {
		if rw.cur.Name != rw.opts.Entry {
			buf.WriteString(funcPtr(rw.cur))
		}
		rw.cur = nil
		rw.open = rw.open[:0]
		rw.declared = 0
	}

	// Entering a branch body.
	if rw.cur != nil && rw.dict.IsOrigin(prev) {
		fmt.Fprintf(buf, "%s = true;\n", flag(len(rw.open)))
		rw.open = append(rw.open, prev)
	}

	// Positions of the entered branches targeting this line, innermost first.
	var hits []int
	for pos := len(rw.open) - 1; pos >= 0; pos-- {
		if _, ok := rw.dict.Label(rw.open[pos], lineNum); ok {
			hits = append(hits, pos)
		}
	}
	if len(hits) > 0 {
		buf.WriteString(rw.logChain(lineNum, hits))
		buf.WriteString("\n")
	}
	return buf.String()
}

// logChain returns the logging statement of the given target line, hit by the
// branches at the given flag positions.
//
// A single hit is logged unless a flag declared after it is set; the target of
// an outer branch may coincide with a line reached through a later branch. Of
// several hits, the label of the first with its flag set is logged, falling
// back to the last.
func (rw *Rewriter) logChain(lineNum int, hits []int) string {
	type link struct {
		cond  string
		label string
	}
	var links []link
	if len(hits) == 1 {
		var guards []string
		for pos := hits[0] + 1; pos < rw.declared; pos++ {
			guards = append(guards, "!"+flag(pos))
		}
		links = append(links, link{cond: strings.Join(guards, " && "), label: rw.label(hits[0], lineNum)})
	} else {
		for i, pos := range hits {
			l := link{label: rw.label(pos, lineNum)}
			if i < len(hits)-1 {
				l.cond = flag(pos)
			}
			links = append(links, l)
		}
	}

	buf := &strings.Builder{}
	for i, l := range links {
		if i > 0 {
			buf.WriteString(" else ")
		}
		if l.cond != "" {
			fmt.Fprintf(buf, "if (%s) ", l.cond)
		}
		if len(links) == 1 {
			fmt.Fprintf(buf, "LOG(%q);", l.label)
		} else {
			fmt.Fprintf(buf, "{LOG(%q);}", l.label)
		}
	}
	return buf.String()
}

// label returns the coverage label of the given target line of the branch at
// the given flag position.
func (rw *Rewriter) label(pos, lineNum int) string {
	label, _ := rw.dict.Label(rw.open[pos], lineNum)
	return label
}

// flag returns the name of the flag at the given position.
func flag(pos int) string {
	return fmt.Sprintf("BRANCH_%d", pos)
}

// funcPtr returns the declaration of a pointer to the given function.
func funcPtr(f *proginfo.FunctionInfo) string {
	return fmt.Sprintf("%s (*__brcov_fn_%s)() = (%s (*)())%s;\n", f.ReturnType, f.Name, f.ReturnType, f.Name)
}

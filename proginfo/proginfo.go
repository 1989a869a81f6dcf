// Package proginfo records information about a source program.
package proginfo

import (
	"fmt"
	"sort"
)

// BranchPoint is a branching construct (conditional, loop, switch or call)
// together with the target lines reachable through it.
type BranchPoint struct {
	// Location of the branch-introducing construct.
	OriginLine int `json:"origin_line" yaml:"origin_line"`
	OriginCol  int `json:"origin_col" yaml:"origin_col"`
	// Location of the end of the branch body; zero until the body has been
	// visited.
	BodyEndLine int `json:"body_end_line" yaml:"body_end_line"`
	BodyEndCol  int `json:"body_end_col" yaml:"body_end_col"`
	// Distinct target lines in discovery order.
	Targets []int `json:"targets" yaml:"targets"`
}

// AddTarget appends line to the targets of the branch point, unless already
// present. It reports whether the line was added.
func (bp *BranchPoint) AddTarget(line int) bool {
	for _, target := range bp.Targets {
		if target == line {
			return false
		}
	}
	bp.Targets = append(bp.Targets, line)
	return true
}

// BodyKnown reports whether the end of the branch body has been recorded.
func (bp *BranchPoint) BodyKnown() bool {
	return bp.BodyEndLine != 0
}

func (bp *BranchPoint) String() string {
	return fmt.Sprintf("branch at %d:%d (body end %d:%d, targets %v)", bp.OriginLine, bp.OriginCol, bp.BodyEndLine, bp.BodyEndCol, bp.Targets)
}

// FunctionInfo describes a function definition.
type FunctionInfo struct {
	// Function name.
	Name string `json:"name" yaml:"name"`
	// Spelling of the return type.
	ReturnType string `json:"return_type" yaml:"return_type"`
	// First and last line of the function definition.
	StartLine int `json:"start_line" yaml:"start_line"`
	EndLine   int `json:"end_line" yaml:"end_line"`
}

// Contains reports whether line lies within [StartLine, EndLine).
func (f *FunctionInfo) Contains(line int) bool {
	return f.StartLine <= line && line < f.EndLine
}

// FunctionTable maps from function start line to function definition.
type FunctionTable map[int]*FunctionInfo

// Sorted returns the functions of the table in ascending start line order.
func (t FunctionTable) Sorted() []*FunctionInfo {
	funcs := make([]*FunctionInfo, 0, len(t))
	for _, f := range t {
		funcs = append(funcs, f)
	}
	sort.Slice(funcs, func(i, j int) bool {
		return funcs[i].StartLine < funcs[j].StartLine
	})
	return funcs
}

// VarDecl records the first declaration of a variable name.
type VarDecl struct {
	// Variable name.
	Name string `json:"name" yaml:"name"`
	// Declaration line.
	Line int `json:"line" yaml:"line"`
}

// BranchLabel is a coverage label assigned to a (branch origin, target) pair.
type BranchLabel struct {
	// Coverage label (e.g. "br_1").
	Label string `json:"label" yaml:"label"`
	// Line of the branch-introducing construct.
	Origin int `json:"origin" yaml:"origin"`
	// Target line.
	Target int `json:"target" yaml:"target"`
}

// Report summarizes the coverage instrumentation of a source file.
type Report struct {
	// Source file path.
	File string `json:"file" yaml:"file"`
	// Function definitions in source order.
	Functions []*FunctionInfo `json:"functions" yaml:"functions"`
	// Variable declarations in discovery order.
	Vars []*VarDecl `json:"vars" yaml:"vars"`
	// Completed branch points in textual order.
	Branches []*BranchPoint `json:"branches" yaml:"branches"`
	// Coverage labels grouped by branch origin, targets in ascending order.
	Labels []BranchLabel `json:"labels" yaml:"labels"`
}

// Package discover locates the branch points of a C translation unit and the
// target lines reachable through them.
//
// A branch is opened when the body block of a branch-introducing construct
// (if, for, do, while, switch or call) is entered; its first target is the
// first statement of the body. The branch is closed by the first visited
// cursor located strictly after the end of the body, which becomes its
// fallthrough target. Only the innermost open branch is compared against
// visited cursors, so an outer branch can only close after all branches
// nested within it have closed.
package discover

import (
	"log"
	"os"
	"sort"

	"github.com/kr/pretty"
	"github.com/mewkiz/pkg/term"

	"github.com/mewspring/brcov/cursor"
	"github.com/mewspring/brcov/proginfo"
)

// dbg is a logger with the "discover:" prefix which logs debug messages to
// standard error.
var dbg = log.New(os.Stderr, term.MagentaBold("discover:")+" ", 0)

// Session holds the state of branch discovery over one translation unit.
type Session struct {
	// Debug output.
	debug bool
	// Open branches; the innermost open branch is at the top.
	stack []*proginfo.BranchPoint
	// Completed branches, in pop order until Finish is called.
	completed []*proginfo.BranchPoint
	// Discovery index of each branch.
	seq map[*proginfo.BranchPoint]int
	// Branches still open when the walk ended.
	discarded []*proginfo.BranchPoint
	// Function definitions keyed by start line.
	funcs proginfo.FunctionTable
	// Variable declarations in discovery order.
	vars    []*proginfo.VarDecl
	varSeen map[string]bool
	// Finish has been called.
	finished bool
}

// NewSession returns a new discovery session.
func NewSession(debug bool) *Session {
	return &Session{
		debug:   debug,
		seq:     make(map[*proginfo.BranchPoint]int),
		funcs:   make(proginfo.FunctionTable),
		varSeen: make(map[string]bool),
	}
}

// Discover walks the given translation unit and returns the finished session.
func Discover(root cursor.Cursor, debug bool) *Session {
	s := NewSession(debug)
	s.Walk(root)
	s.Finish()
	return s
}

// Walk visits the descendants of root in depth-first order.
func (s *Session) Walk(root cursor.Cursor) {
	cursor.Visit(root, s.visit)
}

// Finish discards the branches still open, and restores the completed
// branches to discovery order. For nested branches, which complete
// innermost-first, this is the reverse of the pop order. Finish is idempotent.
func (s *Session) Finish() {
	if s.finished {
		return
	}
	s.finished = true
	for len(s.stack) > 0 {
		bp := s.pop()
		if s.debug {
			dbg.Printf("discarding unclosed %v", bp)
		}
		s.discarded = append(s.discarded, bp)
	}
	sort.SliceStable(s.completed, func(i, j int) bool {
		return s.seq[s.completed[i]] < s.seq[s.completed[j]]
	})
	if s.debug {
		dbg.Println("completed branches:")
		pretty.Println(s.completed)
		dbg.Println("functions:")
		pretty.Println(s.funcs.Sorted())
	}
}

// Branches returns the completed branch points; in pop order before Finish and
// in discovery order after.
func (s *Session) Branches() []*proginfo.BranchPoint {
	return s.completed
}

// Open returns the currently open branch points, outermost first.
func (s *Session) Open() []*proginfo.BranchPoint {
	return s.stack
}

// Discarded returns the branch points whose body never closed.
func (s *Session) Discarded() []*proginfo.BranchPoint {
	return s.discarded
}

// Functions returns the function table.
func (s *Session) Functions() proginfo.FunctionTable {
	return s.funcs
}

// Vars returns the variable declarations in discovery order.
func (s *Session) Vars() []*proginfo.VarDecl {
	return s.vars
}

// visit is the core visitor of the walk.
func (s *Session) visit(cur, parent cursor.Cursor) cursor.VisitResult {
	if parent.Kind().IsBranchPoint() && cur.Kind() == cursor.KindCompoundStmt {
		s.enterBranch(cur, parent)
	}

	// A cursor after the end of the innermost body is its fallthrough target.
	if top := s.top(); top != nil && top.BodyKnown() {
		loc := cur.Location()
		end := cursor.Pos{Line: top.BodyEndLine, Col: top.BodyEndCol}
		if loc.After(end) {
			s.addTarget(top, loc.Line)
			s.completed = append(s.completed, s.pop())
		}
	}

	switch cur.Kind() {
	case cursor.KindFunctionDecl:
		if cursor.Contains(cur, cursor.KindCompoundStmt) {
			cursor.Visit(cur, s.visitFuncDecl)
		}
	case cursor.KindVarDecl:
		s.addVar(cur)
		return cursor.Continue
	}
	return cursor.Recurse
}

// enterBranch opens a new branch for the body block of the given branch point.
func (s *Session) enterBranch(body, branch cursor.Cursor) {
	loc := branch.Location()
	bp := &proginfo.BranchPoint{
		OriginLine: loc.Line,
		OriginCol:  loc.Col,
	}
	s.seq[bp] = len(s.seq)
	s.stack = append(s.stack, bp)
	if s.debug {
		dbg.Printf("found branch point: %v at line %d", branch.Kind(), bp.OriginLine)
	}

	// The first statement of the body is the first target.
	cursor.Visit(body, s.visitBody)

	end := body.Extent().End
	top := s.top()
	top.BodyEndLine = end.Line
	top.BodyEndCol = end.Col
}

// visitBody records the first statement of a body block as target of the
// innermost open branch.
func (s *Session) visitBody(cur, parent cursor.Cursor) cursor.VisitResult {
	s.addTarget(s.top(), cur.Location().Line)
	return cursor.Break
}

// visitFuncDecl records the function definition of parent. Only the first
// child is visited.
func (s *Session) visitFuncDecl(cur, parent cursor.Cursor) cursor.VisitResult {
	if parent.Kind() != cursor.KindFunctionDecl {
		return cursor.Break
	}
	extent := parent.Extent()
	f := &proginfo.FunctionInfo{
		Name:       parent.Spelling(),
		ReturnType: parent.ResultType(),
		StartLine:  extent.Start.Line,
		EndLine:    extent.End.Line,
	}
	if _, ok := s.funcs[f.StartLine]; !ok {
		s.funcs[f.StartLine] = f
		if s.debug {
			dbg.Printf("found function: %s of return type %q on line %d", f.Name, f.ReturnType, f.StartLine)
		}
	}
	return cursor.Break
}

// addVar records the first declaration of a variable name.
func (s *Session) addVar(cur cursor.Cursor) {
	name := cur.Spelling()
	if name == "" || s.varSeen[name] {
		return
	}
	s.varSeen[name] = true
	v := &proginfo.VarDecl{Name: name, Line: cur.Location().Line}
	s.vars = append(s.vars, v)
	if s.debug {
		dbg.Printf("found variable: %s at line %d", v.Name, v.Line)
	}
}

func (s *Session) addTarget(bp *proginfo.BranchPoint, line int) {
	if bp.AddTarget(line) && s.debug {
		dbg.Printf("found target for branch at line %d: line %d", bp.OriginLine, line)
	}
}

// top returns the innermost open branch, or nil.
func (s *Session) top() *proginfo.BranchPoint {
	if len(s.stack) == 0 {
		return nil
	}
	return s.stack[len(s.stack)-1]
}

func (s *Session) pop() *proginfo.BranchPoint {
	bp := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	return bp
}

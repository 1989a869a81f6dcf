package discover_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mewspring/brcov/cursor"
	"github.com/mewspring/brcov/cursor/cursortest"
	"github.com/mewspring/brcov/discover"
	"github.com/mewspring/brcov/proginfo"
)

func block(startLine, startCol, endLine, endCol int, children ...*cursortest.Node) *cursortest.Node {
	return cursortest.N(cursor.KindCompoundStmt, startLine, startCol, endLine, endCol, children...)
}

func stmt(kind cursor.Kind, startLine, startCol, endLine, endCol int, children ...*cursortest.Node) *cursortest.Node {
	return cursortest.N(kind, startLine, startCol, endLine, endCol, children...)
}

func call(line, col int) *cursortest.Node {
	return cursortest.Leaf(cursor.KindCallExpr, line, col)
}

func cond(line, col int) *cursortest.Node {
	return cursortest.Leaf(cursor.KindOther, line, col)
}

func origins(bps []*proginfo.BranchPoint) []int {
	var lines []int
	for _, bp := range bps {
		lines = append(lines, bp.OriginLine)
	}
	return lines
}

// 1 void f(int x) { if (x) {
// 2   a(); }
// 3   b();
// 4 }
func scenarioA() *cursortest.Unit {
	return cursortest.TU(
		cursortest.Func("f", "void", 1, 4,
			block(1, 15, 4, 2,
				stmt(cursor.KindIfStmt, 1, 17, 2, 9,
					cond(1, 21),
					block(1, 24, 2, 9,
						call(2, 3),
					),
				),
				call(3, 3),
			),
		),
	)
}

func TestSingleBranch(t *testing.T) {
	s := discover.Discover(scenarioA().Root(), false)

	branches := s.Branches()
	require.Len(t, branches, 1)
	bp := branches[0]
	assert.Equal(t, 1, bp.OriginLine)
	assert.Equal(t, 17, bp.OriginCol)
	assert.Equal(t, 2, bp.BodyEndLine)
	assert.Equal(t, 9, bp.BodyEndCol)
	assert.Equal(t, []int{2, 3}, bp.Targets)
	assert.Empty(t, s.Open())
	assert.Empty(t, s.Discarded())
}

func TestFunctionTable(t *testing.T) {
	s := discover.Discover(scenarioA().Root(), false)

	funcs := s.Functions()
	require.Len(t, funcs, 1)
	f := funcs[1]
	require.NotNil(t, f)
	assert.Equal(t, &proginfo.FunctionInfo{Name: "f", ReturnType: "void", StartLine: 1, EndLine: 4}, f)
}

func TestPrototypeNotRecorded(t *testing.T) {
	root := cursortest.TU(
		cursortest.Func("g", "int", 1, 1, cursortest.Leaf(cursor.KindOther, 1, 7)),
		cursortest.Func("f", "void", 2, 3, block(2, 10, 3, 2)),
	).Root()
	s := discover.Discover(root, false)

	funcs := s.Functions()
	require.Len(t, funcs, 1)
	assert.Equal(t, "f", funcs[2].Name)
}

// 1 void f(int x) {
// 2   if (x) {
// 3     a();
// 4   }
// 5   if (!x) {
// 6     b();
// 7   }
// 8   return;
// 9 }
func TestSiblingBranches(t *testing.T) {
	root := cursortest.TU(
		cursortest.Func("f", "void", 1, 9,
			block(1, 15, 9, 2,
				stmt(cursor.KindIfStmt, 2, 3, 4, 4,
					cond(2, 7),
					block(2, 10, 4, 4, call(3, 5)),
				),
				stmt(cursor.KindIfStmt, 5, 3, 7, 4,
					cond(5, 7),
					block(5, 11, 7, 4, call(6, 5)),
				),
				cursortest.Leaf(cursor.KindOther, 8, 3),
			),
		),
	).Root()
	s := discover.Discover(root, false)

	branches := s.Branches()
	require.Len(t, branches, 2)
	assert.Equal(t, []int{2, 5}, origins(branches))
	assert.Equal(t, []int{3, 5}, branches[0].Targets)
	assert.Equal(t, []int{6, 8}, branches[1].Targets)
}

// 1 int main() {
// 2   for (;;) {
// 3     if (x) {
// 4       a();
// 5     }
// 6     b();
// 7   }
// 8   c();
// 9 }
func nestedUnit() *cursortest.Unit {
	return cursortest.TU(
		cursortest.Func("main", "int", 1, 9,
			block(1, 12, 9, 2,
				stmt(cursor.KindForStmt, 2, 3, 7, 4,
					block(2, 12, 7, 4,
						stmt(cursor.KindIfStmt, 3, 5, 5, 6,
							cond(3, 9),
							block(3, 12, 5, 6, call(4, 7)),
						),
						call(6, 5),
					),
				),
				call(8, 3),
			),
		),
	)
}

func TestNestedBranchesPopInnermostFirst(t *testing.T) {
	s := discover.NewSession(false)
	s.Walk(nestedUnit().Root())

	// Before Finish the completed list is in pop order.
	assert.Equal(t, []int{3, 2}, origins(s.Branches()))
	assert.Empty(t, s.Open())

	s.Finish()
	branches := s.Branches()
	assert.Equal(t, []int{2, 3}, origins(branches))
	assert.Equal(t, []int{3, 8}, branches[0].Targets)
	assert.Equal(t, []int{4, 6}, branches[1].Targets)

	// Finish is idempotent.
	s.Finish()
	assert.Equal(t, []int{2, 3}, origins(s.Branches()))
}

// 1 void f() {
// 2   while (y) {
// 3     if (x) {
// 4       a();
// 5     }
// 6   }
// 7   c();
// 8 }
func TestOuterBranchOnlyComparedAfterInnerCloses(t *testing.T) {
	t.Run("no later cursor", func(t *testing.T) {
		root := cursortest.TU(
			cursortest.Func("f", "void", 1, 8,
				block(1, 10, 8, 2,
					stmt(cursor.KindWhileStmt, 2, 3, 6, 4,
						cond(2, 10),
						block(2, 13, 6, 4,
							stmt(cursor.KindIfStmt, 3, 5, 5, 6,
								cond(3, 9),
								block(3, 12, 5, 6, call(4, 7)),
							),
						),
					),
					call(7, 3),
				),
			),
		).Root()
		s := discover.NewSession(false)
		s.Walk(root)

		// c() closes the inner branch only; the outer is still open.
		assert.Equal(t, []int{3}, origins(s.Branches()))
		assert.Equal(t, []int{2}, origins(s.Open()))
		assert.Equal(t, []int{4, 7}, s.Branches()[0].Targets)

		s.Finish()
		assert.Empty(t, s.Open())
		assert.Equal(t, []int{2}, origins(s.Discarded()))
		assert.Equal(t, []int{3}, origins(s.Branches()))
	})

	t.Run("later cursor on same line", func(t *testing.T) {
		callee := cursortest.Leaf(cursor.KindOther, 7, 3)
		c := call(7, 3)
		c.ChildNodes = []*cursortest.Node{callee}
		root := cursortest.TU(
			cursortest.Func("f", "void", 1, 8,
				block(1, 10, 8, 2,
					stmt(cursor.KindWhileStmt, 2, 3, 6, 4,
						cond(2, 10),
						block(2, 13, 6, 4,
							stmt(cursor.KindIfStmt, 3, 5, 5, 6,
								cond(3, 9),
								block(3, 12, 5, 6, call(4, 7)),
							),
						),
					),
					c,
				),
			),
		).Root()
		s := discover.Discover(root, false)

		// The child of c() closes the outer branch.
		branches := s.Branches()
		assert.Equal(t, []int{2, 3}, origins(branches))
		assert.Equal(t, []int{3, 7}, branches[0].Targets)
		assert.Equal(t, []int{4, 7}, branches[1].Targets)
		assert.Empty(t, s.Discarded())
	})
}

func TestUnclosedBranchIsDiscarded(t *testing.T) {
	// Truncated input: nothing follows the body.
	root := cursortest.TU(
		cursortest.Func("f", "void", 1, 4,
			block(1, 10, 4, 2,
				stmt(cursor.KindIfStmt, 2, 3, 3, 14,
					cond(2, 7),
					block(2, 10, 3, 14, call(3, 5)),
				),
			),
		),
	).Root()
	s := discover.Discover(root, false)

	assert.Empty(t, s.Branches())
	assert.Empty(t, s.Open())
	require.Len(t, s.Discarded(), 1)
	assert.Equal(t, []int{3}, s.Discarded()[0].Targets)
}

func TestEmptyBodyHasOnlyFallthrough(t *testing.T) {
	// 1 void f() {
	// 2   while (x) {}
	// 3   a();
	// 4 }
	root := cursortest.TU(
		cursortest.Func("f", "void", 1, 4,
			block(1, 10, 4, 2,
				stmt(cursor.KindWhileStmt, 2, 3, 2, 15,
					cond(2, 10),
					block(2, 13, 2, 15),
				),
				call(3, 3),
			),
		),
	).Root()
	s := discover.Discover(root, false)

	require.Len(t, s.Branches(), 1)
	assert.Equal(t, []int{3}, s.Branches()[0].Targets)
}

func TestSameLineTargetsAreDistinct(t *testing.T) {
	// 1 void f() {
	// 2   if (x) { a(); } b();
	// 3 }
	root := cursortest.TU(
		cursortest.Func("f", "void", 1, 3,
			block(1, 10, 3, 2,
				stmt(cursor.KindIfStmt, 2, 3, 2, 18,
					cond(2, 7),
					block(2, 10, 2, 18, call(2, 12)),
				),
				call(2, 19),
			),
		),
	).Root()
	s := discover.Discover(root, false)

	require.Len(t, s.Branches(), 1)
	assert.Equal(t, []int{2}, s.Branches()[0].Targets)
}

func TestBodyWithoutBranchParentIsIgnored(t *testing.T) {
	// A bare block is not a branch.
	root := cursortest.TU(
		cursortest.Func("f", "void", 1, 5,
			block(1, 10, 5, 2,
				block(2, 3, 3, 4, call(2, 5)),
				call(4, 3),
			),
		),
	).Root()
	s := discover.Discover(root, false)
	assert.Empty(t, s.Branches())
	assert.Empty(t, s.Discarded())
}

func TestVarDecls(t *testing.T) {
	// 1 int g;
	// 2 void f() {
	// 3   int x = h();
	// 4   int g;
	// 5 }
	root := cursortest.TU(
		cursortest.Var("g", 1, 5),
		cursortest.Func("f", "void", 2, 5,
			block(2, 10, 5, 2,
				cursortest.Var("x", 3, 7, call(3, 11)),
				cursortest.Var("g", 4, 7),
			),
		),
	).Root()
	s := discover.Discover(root, false)

	assert.Equal(t, []*proginfo.VarDecl{
		{Name: "g", Line: 1},
		{Name: "x", Line: 3},
	}, s.Vars())
}

func TestDebugOutputDoesNotChangeResult(t *testing.T) {
	quiet := discover.Discover(nestedUnit().Root(), false)
	loud := discover.Discover(nestedUnit().Root(), true)
	assert.Equal(t, quiet.Branches(), loud.Branches())
	assert.Equal(t, quiet.Functions(), loud.Functions())
}

//  1 int main() {
//  2   for (;;) {
//  3     if (x) {
//  4       a();
//  5     }
//  6     b();
//  7   }
//  8   if (y) {
//  9     c();
// 10   }
// 11   return 0;
// 12 }
func TestNestedThenSiblingOrder(t *testing.T) {
	root := cursortest.TU(
		cursortest.Func("main", "int", 1, 12,
			block(1, 12, 12, 2,
				stmt(cursor.KindForStmt, 2, 3, 7, 4,
					block(2, 12, 7, 4,
						stmt(cursor.KindIfStmt, 3, 5, 5, 6,
							cond(3, 9),
							block(3, 12, 5, 6, call(4, 7)),
						),
						call(6, 5),
					),
				),
				stmt(cursor.KindIfStmt, 8, 3, 10, 4,
					cond(8, 7),
					block(8, 10, 10, 4, call(9, 5)),
				),
				cursortest.Leaf(cursor.KindOther, 11, 3),
			),
		),
	).Root()
	s := discover.NewSession(false)
	s.Walk(root)
	assert.Equal(t, []int{3, 2, 8}, origins(s.Branches()))

	s.Finish()
	branches := s.Branches()
	assert.Equal(t, []int{2, 3, 8}, origins(branches))
	assert.Equal(t, []int{3, 8}, branches[0].Targets)
	assert.Equal(t, []int{4, 6}, branches[1].Targets)
	assert.Equal(t, []int{9, 11}, branches[2].Targets)
}

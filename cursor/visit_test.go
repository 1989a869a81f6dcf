package cursor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mewspring/brcov/cursor"
	"github.com/mewspring/brcov/cursor/cursortest"
)

func sampleTree() *cursortest.Node {
	return cursortest.N(cursor.KindTranslationUnit, 1, 1, 9, 1,
		cursortest.Func("main", "int", 1, 9,
			cursortest.N(cursor.KindCompoundStmt, 1, 12, 9, 2,
				cursortest.N(cursor.KindIfStmt, 2, 3, 4, 4,
					cursortest.Leaf(cursor.KindOther, 2, 7),
					cursortest.N(cursor.KindCompoundStmt, 2, 10, 4, 4,
						cursortest.Leaf(cursor.KindCallExpr, 3, 5),
					),
				),
				cursortest.Leaf(cursor.KindCallExpr, 5, 3),
			),
		),
	)
}

func kindsOf(root cursor.Cursor, visit func(kinds *[]cursor.Kind) cursor.Visitor) []cursor.Kind {
	var kinds []cursor.Kind
	cursor.Visit(root, visit(&kinds))
	return kinds
}

func TestVisitRecurse(t *testing.T) {
	kinds := kindsOf(sampleTree(), func(kinds *[]cursor.Kind) cursor.Visitor {
		return func(cur, parent cursor.Cursor) cursor.VisitResult {
			*kinds = append(*kinds, cur.Kind())
			return cursor.Recurse
		}
	})
	want := []cursor.Kind{
		cursor.KindFunctionDecl,
		cursor.KindCompoundStmt,
		cursor.KindIfStmt,
		cursor.KindOther,
		cursor.KindCompoundStmt,
		cursor.KindCallExpr,
		cursor.KindCallExpr,
	}
	assert.Equal(t, want, kinds)
}

func TestVisitContinueSkipsChildren(t *testing.T) {
	kinds := kindsOf(sampleTree(), func(kinds *[]cursor.Kind) cursor.Visitor {
		return func(cur, parent cursor.Cursor) cursor.VisitResult {
			*kinds = append(*kinds, cur.Kind())
			if cur.Kind() == cursor.KindIfStmt {
				return cursor.Continue
			}
			return cursor.Recurse
		}
	})
	want := []cursor.Kind{
		cursor.KindFunctionDecl,
		cursor.KindCompoundStmt,
		cursor.KindIfStmt,
		cursor.KindCallExpr,
	}
	assert.Equal(t, want, kinds)
}

func TestVisitBreakStopsTraversal(t *testing.T) {
	var kinds []cursor.Kind
	broke := cursor.Visit(sampleTree(), func(cur, parent cursor.Cursor) cursor.VisitResult {
		kinds = append(kinds, cur.Kind())
		if cur.Kind() == cursor.KindOther {
			return cursor.Break
		}
		return cursor.Recurse
	})
	assert.True(t, broke)
	assert.Equal(t, []cursor.Kind{
		cursor.KindFunctionDecl,
		cursor.KindCompoundStmt,
		cursor.KindIfStmt,
		cursor.KindOther,
	}, kinds)
}

func TestVisitPassesParent(t *testing.T) {
	cursor.Visit(sampleTree(), func(cur, parent cursor.Cursor) cursor.VisitResult {
		if cur.Kind() == cursor.KindOther {
			assert.Equal(t, cursor.KindIfStmt, parent.Kind())
		}
		return cursor.Recurse
	})
}

func TestContains(t *testing.T) {
	root := sampleTree()
	assert.True(t, cursor.Contains(root, cursor.KindIfStmt))
	assert.False(t, cursor.Contains(root, cursor.KindSwitchStmt))
}

func TestPosAfter(t *testing.T) {
	tests := []struct {
		p, q cursor.Pos
		want bool
	}{
		{cursor.Pos{Line: 3, Col: 1}, cursor.Pos{Line: 2, Col: 9}, true},
		{cursor.Pos{Line: 2, Col: 10}, cursor.Pos{Line: 2, Col: 9}, true},
		{cursor.Pos{Line: 2, Col: 9}, cursor.Pos{Line: 2, Col: 9}, false},
		{cursor.Pos{Line: 1, Col: 20}, cursor.Pos{Line: 2, Col: 1}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.p.After(tt.q), "%v after %v", tt.p, tt.q)
	}
}

func TestKindIsBranchPoint(t *testing.T) {
	for _, kind := range []cursor.Kind{cursor.KindIfStmt, cursor.KindForStmt, cursor.KindDoStmt, cursor.KindWhileStmt, cursor.KindSwitchStmt, cursor.KindCallExpr} {
		assert.True(t, kind.IsBranchPoint(), kind.String())
	}
	for _, kind := range []cursor.Kind{cursor.KindOther, cursor.KindCompoundStmt, cursor.KindFunctionDecl, cursor.KindVarDecl, cursor.KindTranslationUnit} {
		assert.False(t, kind.IsBranchPoint(), kind.String())
	}
}

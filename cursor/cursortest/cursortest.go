// Package cursortest provides an in-memory AST for testing consumers of the
// cursor model.
package cursortest

import (
	"github.com/mewspring/brcov/cursor"
)

// Node is an in-memory AST node. Its location is the start of its extent.
type Node struct {
	NodeKind   cursor.Kind
	Ext        cursor.Range
	Name       string
	Result     string
	ChildNodes []*Node
}

// N returns a node of the given kind spanning from startLine:startCol to
// endLine:endCol.
func N(kind cursor.Kind, startLine, startCol, endLine, endCol int, children ...*Node) *Node {
	return &Node{
		NodeKind: kind,
		Ext: cursor.Range{
			Start: cursor.Pos{Line: startLine, Col: startCol},
			End:   cursor.Pos{Line: endLine, Col: endCol},
		},
		ChildNodes: children,
	}
}

// Func returns a function definition node.
func Func(name, result string, startLine, endLine int, children ...*Node) *Node {
	n := N(cursor.KindFunctionDecl, startLine, 1, endLine, 2, children...)
	n.Name = name
	n.Result = result
	return n
}

// Var returns a variable declaration node.
func Var(name string, line, col int, children ...*Node) *Node {
	n := N(cursor.KindVarDecl, line, col, line, col+len(name), children...)
	n.Name = name
	return n
}

// Leaf returns a node of the given kind located at line:col without children.
func Leaf(kind cursor.Kind, line, col int) *Node {
	return N(kind, line, col, line, col+1)
}

func (n *Node) Kind() cursor.Kind { return n.NodeKind }
func (n *Node) Location() cursor.Pos { return n.Ext.Start }
func (n *Node) Extent() cursor.Range { return n.Ext }
func (n *Node) Spelling() string { return n.Name }
func (n *Node) ResultType() string { return n.Result }

func (n *Node) Children() []cursor.Cursor {
	children := make([]cursor.Cursor, len(n.ChildNodes))
	for i, child := range n.ChildNodes {
		children[i] = child
	}
	return children
}

// Unit is an in-memory translation unit.
type Unit struct {
	RootNode *Node
	Closed   bool
}

// TU returns a translation unit with the given top-level nodes.
func TU(children ...*Node) *Unit {
	return &Unit{RootNode: N(cursor.KindTranslationUnit, 1, 1, 0, 0, children...)}
}

func (u *Unit) Root() cursor.Cursor { return u.RootNode }

func (u *Unit) Close() { u.Closed = true }

// Parser returns Unit for every source path, or Err if non-nil.
type Parser struct {
	Unit *Unit
	Err  error
	// Paths records the parsed source paths.
	Paths []string
}

func (p *Parser) Parse(srcPath string) (cursor.Unit, error) {
	p.Paths = append(p.Paths, srcPath)
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Unit, nil
}

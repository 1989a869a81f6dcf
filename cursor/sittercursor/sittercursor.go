// Package sittercursor implements the cursor model on top of the tree-sitter C
// grammar.
//
// Tree-sitter wrapper nodes without a libclang counterpart (expression
// statements, else clauses, parenthesized conditions and comments) are
// transparent: their children are reported in their place, so that both front
// ends produce the same cursor shapes.
package sittercursor

import (
	"log"
	"os"
	"strings"

	"github.com/mewkiz/pkg/term"
	"github.com/pkg/errors"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"

	"github.com/mewspring/brcov/cursor"
)

// warn is a logger with the "sittercursor:" prefix which logs warning messages
// to standard error.
var warn = log.New(os.Stderr, term.RedBold("sittercursor:")+" ", 0)

// Parser parses C source files using tree-sitter.
type Parser struct{}

// Parse parses the given C source file.
func (Parser) Parse(srcPath string) (cursor.Unit, error) {
	content, err := os.ReadFile(srcPath)
	if err != nil {
		return nil, errors.Wrapf(cursor.ErrParse, "reading %q: %v", srcPath, err)
	}
	u, err := ParseBytes(content)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %q", srcPath)
	}
	return u, nil
}

// ParseBytes parses C source code.
func ParseBytes(content []byte) (cursor.Unit, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(c.GetLanguage())
	tree := parser.Parse(nil, content)
	if tree == nil {
		return nil, errors.WithStack(cursor.ErrParse)
	}
	rootNode := tree.RootNode()
	if rootNode == nil {
		tree.Close()
		return nil, errors.WithStack(cursor.ErrParse)
	}
	if rootNode.HasError() {
		// continue with partial AST.
		warn.Printf("syntax errors in translation unit; continuing with partial AST")
	}
	return &unit{tree: tree, content: content}, nil
}

// unit is a tree-sitter translation unit.
type unit struct {
	tree    *sitter.Tree
	content []byte
}

func (u *unit) Root() cursor.Cursor {
	return node{n: u.tree.RootNode(), content: u.content}
}

func (u *unit) Close() {
	u.tree.Close()
}

// node is a tree-sitter AST node.
type node struct {
	n       *sitter.Node
	content []byte
}

func (c node) Kind() cursor.Kind {
	switch c.n.Type() {
	case "translation_unit":
		return cursor.KindTranslationUnit
	case "function_definition":
		return cursor.KindFunctionDecl
	case "declaration":
		if c.isVarDecl() {
			return cursor.KindVarDecl
		}
		return cursor.KindOther
	case "compound_statement":
		return cursor.KindCompoundStmt
	case "if_statement":
		return cursor.KindIfStmt
	case "for_statement":
		return cursor.KindForStmt
	case "do_statement":
		return cursor.KindDoStmt
	case "while_statement":
		return cursor.KindWhileStmt
	case "switch_statement":
		return cursor.KindSwitchStmt
	case "call_expression":
		return cursor.KindCallExpr
	default:
		return cursor.KindOther
	}
}

// isVarDecl reports whether the declaration node declares a variable rather
// than a function prototype.
func (c node) isVarDecl() bool {
	name, isFunc := c.declaratorName(c.n.ChildByFieldName("declarator"))
	return name != "" && !isFunc
}

func (c node) Location() cursor.Pos {
	return position(c.n.StartPoint())
}

func (c node) Extent() cursor.Range {
	return cursor.Range{
		Start: position(c.n.StartPoint()),
		End:   position(c.n.EndPoint()),
	}
}

func (c node) Spelling() string {
	switch c.Kind() {
	case cursor.KindFunctionDecl, cursor.KindVarDecl:
		name, _ := c.declaratorName(c.n.ChildByFieldName("declarator"))
		return name
	default:
		return ""
	}
}

func (c node) ResultType() string {
	if c.Kind() != cursor.KindFunctionDecl {
		return ""
	}
	typ := c.n.ChildByFieldName("type")
	if typ == nil {
		return ""
	}
	result := c.text(typ)
	// Qualifiers of the return type are siblings of the type node.
	var quals []string
	for i := 0; i < int(c.n.NamedChildCount()); i++ {
		if child := c.n.NamedChild(i); child != nil && child.Type() == "type_qualifier" {
			quals = append(quals, c.text(child))
		}
	}
	if len(quals) > 0 {
		result = strings.Join(quals, " ") + " " + result
	}
	stars := 0
	for d := c.n.ChildByFieldName("declarator"); d != nil && d.Type() == "pointer_declarator"; d = d.ChildByFieldName("declarator") {
		stars++
	}
	if stars > 0 {
		result += " " + strings.Repeat("*", stars)
	}
	return result
}

// declaratorName returns the identifier of the given declarator chain, and
// whether the chain declares a function.
func (c node) declaratorName(d *sitter.Node) (name string, isFunc bool) {
	for d != nil {
		switch d.Type() {
		case "identifier":
			return c.text(d), isFunc
		case "function_declarator":
			isFunc = true
			d = d.ChildByFieldName("declarator")
		case "parenthesized_declarator":
			if d.NamedChildCount() == 0 {
				return "", isFunc
			}
			d = d.NamedChild(0)
		default:
			// pointer_declarator, array_declarator, init_declarator, ...
			d = d.ChildByFieldName("declarator")
		}
	}
	return "", isFunc
}

func (c node) Children() []cursor.Cursor {
	var children []cursor.Cursor
	c.appendChildren(c.n, &children)
	return children
}

// appendChildren appends the named children of n to children, replacing
// transparent nodes with their own children.
func (c node) appendChildren(n *sitter.Node, children *[]cursor.Cursor) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child == nil {
			continue
		}
		switch {
		case child.Type() == "comment":
			// skip comments.
		case isTransparent(child, n):
			c.appendChildren(child, children)
		default:
			*children = append(*children, node{n: child, content: c.content})
		}
	}
}

// isTransparent reports whether the child node of parent has no libclang
// counterpart.
func isTransparent(child, parent *sitter.Node) bool {
	switch child.Type() {
	case "expression_statement", "else_clause":
		return true
	case "parenthesized_expression":
		switch parent.Type() {
		case "if_statement", "while_statement", "do_statement", "switch_statement":
			// condition.
			return true
		}
	}
	return false
}

// text returns the source text of n.
func (c node) text(n *sitter.Node) string {
	start, end := n.StartByte(), n.EndByte()
	if start >= uint32(len(c.content)) || end > uint32(len(c.content)) {
		return ""
	}
	return string(c.content[start:end])
}

// position converts a 0-based tree-sitter point to a 1-based position.
func position(p sitter.Point) cursor.Pos {
	return cursor.Pos{Line: int(p.Row) + 1, Col: int(p.Column) + 1}
}

// Package cursor defines the positioned AST cursor model consumed by branch
// discovery. Front ends (libclang, tree-sitter) implement the Parser, Unit and
// Cursor interfaces.
package cursor

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrParse is returned by a Parser when no tree can be produced for the input.
var ErrParse = errors.New("unable to parse translation unit")

// Kind is the kind of an AST node.
type Kind uint8

// Node kinds.
const (
	KindOther Kind = iota
	KindTranslationUnit
	KindFunctionDecl
	KindVarDecl
	KindCompoundStmt
	KindIfStmt
	KindForStmt
	KindDoStmt
	KindWhileStmt
	KindSwitchStmt
	KindCallExpr
)

var kindNames = map[Kind]string{
	KindOther:           "Other",
	KindTranslationUnit: "TranslationUnit",
	KindFunctionDecl:    "FunctionDecl",
	KindVarDecl:         "VarDecl",
	KindCompoundStmt:    "CompoundStmt",
	KindIfStmt:          "IfStmt",
	KindForStmt:         "ForStmt",
	KindDoStmt:          "DoStmt",
	KindWhileStmt:       "WhileStmt",
	KindSwitchStmt:      "SwitchStmt",
	KindCallExpr:        "CallExpr",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// IsBranchPoint reports whether a body block below a node of the given kind
// introduces a branch.
func (k Kind) IsBranchPoint() bool {
	switch k {
	case KindIfStmt, KindForStmt, KindDoStmt, KindWhileStmt, KindSwitchStmt, KindCallExpr:
		return true
	default:
		return false
	}
}

// Pos is a 1-based source position.
type Pos struct {
	Line int
	Col  int
}

// After reports whether p lies strictly after q.
func (p Pos) After(q Pos) bool {
	return p.Line > q.Line || (p.Line == q.Line && p.Col > q.Col)
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Range is the source extent of a node.
type Range struct {
	Start Pos
	End   Pos
}

// Cursor is a handle to an AST node.
type Cursor interface {
	// Kind returns the node kind.
	Kind() Kind
	// Location returns the location of the node.
	Location() Pos
	// Extent returns the source range covered by the node.
	Extent() Range
	// Spelling returns the identifier of a declaration, or the empty string.
	Spelling() string
	// ResultType returns the spelling of the return type of a function
	// declaration, or the empty string.
	ResultType() string
	// Children returns the child nodes in source order.
	Children() []Cursor
}

// Unit is a parsed translation unit. Close releases the resources of the unit;
// cursors must not be used after Close.
type Unit interface {
	Root() Cursor
	Close()
}

// Parser parses a source file into a translation unit.
type Parser interface {
	Parse(srcPath string) (Unit, error)
}

// Package clangcursor implements the cursor model on top of libclang.
package clangcursor

import (
	"log"
	"os"

	"github.com/go-clang/clang-v3.9/clang"
	"github.com/mewkiz/pkg/pathutil"
	"github.com/mewkiz/pkg/term"
	"github.com/mewspring/cc"
	"github.com/pkg/errors"

	"github.com/mewspring/brcov/cursor"
)

// warn is a logger with the "clangcursor:" prefix which logs warning messages
// to standard error.
var warn = log.New(os.Stderr, term.RedBold("clangcursor:")+" ", 0)

// Parser parses C source files using libclang.
type Parser struct {
	// Extra command line arguments passed to clang (e.g. "-I./include").
	Args []string
}

// Parse parses the given C source file.
func (p *Parser) Parse(srcPath string) (cursor.Unit, error) {
	file, err := cc.ParseFile(srcPath, p.Args...)
	if file == nil || !validRoot(file.Root) {
		if file != nil {
			file.Close()
		}
		if err == nil {
			err = errors.Errorf("no translation unit produced for %q", srcPath)
		}
		return nil, errors.Wrapf(cursor.ErrParse, "%v", err)
	}
	if err != nil {
		// continue with partial AST.
		warn.Printf("%v", err)
	}
	return &unit{file: file, srcPath: srcPath}, nil
}

// validRoot reports whether root is the cursor of a translation unit. libclang
// yields a null cursor when no translation unit could be created (e.g. for a
// directory or an unreadable file).
func validRoot(root *cc.Node) bool {
	if root == nil || root.Body.IsNull() {
		return false
	}
	return root.Body.Kind() == clang.Cursor_TranslationUnit
}

// unit is a libclang translation unit.
type unit struct {
	file    *cc.File
	srcPath string
}

func (u *unit) Root() cursor.Cursor {
	return &root{node: node{n: u.file.Root}, srcPath: u.srcPath}
}

func (u *unit) Close() {
	u.file.Close()
}

// root is the translation unit node; only top-level nodes of the main source
// file are visible through it.
type root struct {
	node
	srcPath string
}

func (r *root) Children() []cursor.Cursor {
	var children []cursor.Cursor
	for _, child := range r.n.Children {
		if pathutil.TrimExt(child.Loc.File) != pathutil.TrimExt(r.srcPath) {
			// Skip nodes not part of source file.
			continue
		}
		children = append(children, node{n: child})
	}
	return children
}

// node is a libclang AST node.
type node struct {
	n *cc.Node
}

func (c node) Kind() cursor.Kind {
	switch c.n.Body.Kind() {
	case clang.Cursor_TranslationUnit:
		return cursor.KindTranslationUnit
	case clang.Cursor_FunctionDecl:
		return cursor.KindFunctionDecl
	case clang.Cursor_VarDecl:
		return cursor.KindVarDecl
	case clang.Cursor_CompoundStmt:
		return cursor.KindCompoundStmt
	case clang.Cursor_IfStmt:
		return cursor.KindIfStmt
	case clang.Cursor_ForStmt:
		return cursor.KindForStmt
	case clang.Cursor_DoStmt:
		return cursor.KindDoStmt
	case clang.Cursor_WhileStmt:
		return cursor.KindWhileStmt
	case clang.Cursor_SwitchStmt:
		return cursor.KindSwitchStmt
	case clang.Cursor_CallExpr:
		return cursor.KindCallExpr
	default:
		return cursor.KindOther
	}
}

func (c node) Location() cursor.Pos {
	return position(c.n.Body.Location())
}

func (c node) Extent() cursor.Range {
	extent := c.n.Body.Extent()
	return cursor.Range{
		Start: position(extent.Start()),
		End:   position(extent.End()),
	}
}

func (c node) Spelling() string {
	switch c.n.Body.Kind() {
	case clang.Cursor_FunctionDecl, clang.Cursor_VarDecl:
		return c.n.Body.Spelling()
	default:
		return ""
	}
}

func (c node) ResultType() string {
	if c.n.Body.Kind() != clang.Cursor_FunctionDecl {
		return ""
	}
	return c.n.Body.ResultType().Spelling()
}

func (c node) Children() []cursor.Cursor {
	children := make([]cursor.Cursor, len(c.n.Children))
	for i, child := range c.n.Children {
		children[i] = node{n: child}
	}
	return children
}

// position returns the spelling position of the given source location.
func position(loc clang.SourceLocation) cursor.Pos {
	_, line, col, _ := loc.SpellingLocation()
	return cursor.Pos{Line: int(line), Col: int(col)}
}

// Package ast defines the abstract syntax tree produced by internal/parser:
// statements and expressions for the SurrealQL-like surface spec.md §6
// describes. The interface split (Node/Statement/Expr) is grounded on the
// pack's freeeve-machparse/ast package, generalized from a flat-SQL grammar
// to SurrealQL's idiom-navigation and multi-statement-transaction grammar.
package ast

// Pos is a byte offset into the statement's source text.
type Pos int

// Node is the base of every AST node: it knows its own source span so
// errors (spec.md §7) and EXPLAIN output can point back at surface syntax.
type Node interface {
	Pos() Pos
	End() Pos
}

// Statement is one top-level SurrealQL statement (spec.md §6).
type Statement interface {
	Node
	statementNode()
}

// Expr is anything that evaluates to a Value.
type Expr interface {
	Node
	exprNode()
}

// span is embedded by concrete nodes to satisfy Node.
type span struct {
	start, end Pos
}

func (s span) Pos() Pos { return s.start }
func (s span) End() Pos { return s.end }

func newSpan(start, end Pos) span { return span{start: start, end: end} }

// SetSpan is promoted onto every node that embeds span, letting the parser
// (a different package, so it can't name the unexported `span` field in a
// composite literal) stamp source positions after construction:
//
//	stmt := &ast.SelectStatement{Fields: fields}
//	stmt.SetSpan(start, end)
func (s *span) SetSpan(start, end Pos) {
	s.start = start
	s.end = end
}

// Query is a parsed batch of statements (one ";"-terminated source text may
// contain several), mirroring the streaming/multi-statement contract in
// spec.md §4.1.
type Query struct {
	Statements []Statement
}

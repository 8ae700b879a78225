package ast

import "github.com/oxhq/qdb/internal/value"

// BinaryOp enumerates the operators the Pratt parser recognizes, spanning
// spec.md §4.1's binding-power ladder: ??, ?:, OR/AND, equality, relation,
// range, additive, multiplicative, power, plus the contains/inside family
// (∋ ∌ ∈ ∉ and the ALL/ANY/NONE variants) and @@ full-text match.
type BinaryOp int

const (
	OpOr BinaryOp = iota
	OpAnd
	OpNullCoalesce // ??
	OpTernaryElse  // ?:
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpPow
	OpRange    // ..
	OpRangeInc // ..=
	OpContains    // ∋ CONTAINS
	OpContainsNot // ∌
	OpInside      // ∈ IN
	OpInsideNot   // ∉
	OpContainsAll // ⊇
	OpContainsAny
	OpContainsNone
	OpInsideAll
	OpInsideAny
	OpInsideNone
	OpMatches // @@ full-text match
)

// BinaryExpr is `lhs op rhs`. Position tracking (which side the idiom is on)
// is resolved later by the planner (spec.md §4.4).
type BinaryExpr struct {
	span
	Op  BinaryOp
	LHS Expr
	RHS Expr
}

func NewBinaryExpr(start, end Pos, op BinaryOp, lhs, rhs Expr) *BinaryExpr {
	return &BinaryExpr{span: newSpan(start, end), Op: op, LHS: lhs, RHS: rhs}
}
func (*BinaryExpr) exprNode() {}

// UnaryOp enumerates prefix operators: NOT, unary -, unary +.
type UnaryOp int

const (
	OpNot UnaryOp = iota
	OpNeg
	OpPos
)

type UnaryExpr struct {
	span
	Op      UnaryOp
	Operand Expr
}

func NewUnaryExpr(start, end Pos, op UnaryOp, operand Expr) *UnaryExpr {
	return &UnaryExpr{span: newSpan(start, end), Op: op, Operand: operand}
}
func (*UnaryExpr) exprNode() {}

// Literal wraps a constant Value produced directly by the lexer/parser.
type Literal struct {
	span
	Val value.Value
}

func NewLiteral(start, end Pos, v value.Value) *Literal {
	return &Literal{span: newSpan(start, end), Val: v}
}
func (*Literal) exprNode() {}

// Param references a bound variable, `$name` (spec.md §6 LET/bind).
type Param struct {
	span
	Name string
}

func NewParam(start, end Pos, name string) *Param {
	return &Param{span: newSpan(start, end), Name: name}
}
func (*Param) exprNode() {}

// Ident references a bare identifier (table name, field name context).
type Ident struct {
	span
	Name string
}

func NewIdent(start, end Pos, name string) *Ident {
	return &Ident{span: newSpan(start, end), Name: name}
}
func (*Ident) exprNode() {}

// IdiomExpr is a navigation path rooted at a base expression, spec.md §4.3.
type IdiomExpr struct {
	span
	Base  Expr
	Parts []Part
}

func NewIdiomExpr(start, end Pos, base Expr, parts []Part) *IdiomExpr {
	return &IdiomExpr{span: newSpan(start, end), Base: base, Parts: parts}
}
func (*IdiomExpr) exprNode() {}

// ArrayExpr/ObjectExpr/SetExpr are literal container constructors.
type ArrayExpr struct {
	span
	Elems []Expr
}

func NewArrayExpr(start, end Pos, elems []Expr) *ArrayExpr {
	return &ArrayExpr{span: newSpan(start, end), Elems: elems}
}
func (*ArrayExpr) exprNode() {}

type ObjectField struct {
	Key   string
	Value Expr
}

type ObjectExpr struct {
	span
	Fields []ObjectField
}

func NewObjectExpr(start, end Pos, fields []ObjectField) *ObjectExpr {
	return &ObjectExpr{span: newSpan(start, end), Fields: fields}
}
func (*ObjectExpr) exprNode() {}

// FuncCall invokes a builtin path (e.g. array::len) or a user DEFINE
// FUNCTION. Method-style calls (value.method(args)) desugar into a Method
// Part rather than a FuncCall — see part.go.
type FuncCall struct {
	span
	Path string
	Args []Expr
}

func NewFuncCall(start, end Pos, path string, args []Expr) *FuncCall {
	return &FuncCall{span: newSpan(start, end), Path: path, Args: args}
}
func (*FuncCall) exprNode() {}

// ClosureExpr is a `|$a, $b| { ... }` literal.
type ClosureExpr struct {
	span
	Params []string
	Body   Expr
}

func NewClosureExpr(start, end Pos, params []string, body Expr) *ClosureExpr {
	return &ClosureExpr{span: newSpan(start, end), Params: params, Body: body}
}
func (*ClosureExpr) exprNode() {}

// SubqueryExpr embeds a full statement as an expression (e.g. `(SELECT ...)`
// used inline, or a RangeExpr's bound).
type SubqueryExpr struct {
	span
	Stmt Statement
}

func NewSubqueryExpr(start, end Pos, stmt Statement) *SubqueryExpr {
	return &SubqueryExpr{span: newSpan(start, end), Stmt: stmt}
}
func (*SubqueryExpr) exprNode() {}

// IfExpr is SurrealQL's expression-position `IF cond THEN a ELSE b`.
type IfExpr struct {
	span
	Cond Expr
	Then Expr
	Else Expr // nil if no ELSE
}

func NewIfExpr(start, end Pos, cond, then, els Expr) *IfExpr {
	return &IfExpr{span: newSpan(start, end), Cond: cond, Then: then, Else: els}
}
func (*IfExpr) exprNode() {}

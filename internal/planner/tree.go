// Package planner chooses a physical access path for a SELECT/UPDATE/DELETE
// condition: table scan, single index, single-index range, or a multi-index
// union, per spec.md §4.4. Grounded on
// original_source/crates/core/src/idx/planner/{plan,tree}.rs: the Tree
// phase classifies the WHERE expression's boolean structure and collects
// per-index IndexOptions; the Plan phase runs the resulting decision table.
package planner

import (
	"sort"

	"golang.org/x/exp/maps"

	"github.com/oxhq/qdb/internal/ast"
	"github.com/oxhq/qdb/internal/catalog"
	"github.com/oxhq/qdb/internal/value"
)

// OperatorKind enumerates the IndexOperator variants spec.md §4.4 names.
type OperatorKind int

const (
	OpEquality OperatorKind = iota
	OpUnion
	OpRangePart
	OpMatches
	OpKnn
	OpAnn
	OpOrder
	OpCount
)

// IndexOperator is what one resolved leaf condition contributes to an
// index's candidate plan.
type IndexOperator struct {
	Kind    OperatorKind
	Value   value.Value   // Equality, RangePart, Matches query, Knn/Ann vector
	Values  []value.Value // Union
	RangeOp ast.BinaryOp  // RangePart: Lt/Lte/Gt/Gte
	K       int           // Knn/Ann
	Ef      int           // Ann
	Reverse bool          // Order
}

// IndexOption records one leaf condition that maps onto an index column.
type IndexOption struct {
	Index     *catalog.IndexDef
	ColumnPos int
	Op        IndexOperator
	Source    ast.Expr // the original BinaryExpr, so it can be marked "satisfied by the index"
}

// IndexesMap groups a table's indexes by the column they cover, so the Tree
// phase can resolve an idiom's column name straight to its candidate
// indexes without a linear scan per leaf.
type IndexesMap map[string][]*catalog.IndexDef

// BuildIndexesMap groups table's indexes by every column they cover
// (golang.org/x/exp/maps backs the grouping, per SPEC_FULL §4.10).
func BuildIndexesMap(table *catalog.TableDef) IndexesMap {
	m := IndexesMap{}
	if table == nil {
		return m
	}
	names := maps.Keys(table.Indexes)
	sort.Strings(names)
	for _, name := range names {
		idx := table.Indexes[name]
		for _, col := range idx.Columns {
			m[col] = append(m[col], idx)
		}
	}
	return m
}

// TreeResult is the Tree phase's output: the classified boolean structure
// plus every IndexOption discovered while walking the condition.
type TreeResult struct {
	AllAnd      bool // only AND connectives at the top level
	AllIndexed  bool // every leaf condition resolved to some index
	Options     []IndexOption
	OrderCols   []string // ORDER BY columns, for the order-only plan case
}

// Binds resolves a $param reference to its bound value at plan time
// (spec.md §6's bind(vars)); planning happens after binds are known.
type Binds map[string]value.Value

// Tree walks cond and classifies it, per spec.md §4.4 "Tree phase".
func Tree(cond ast.Expr, idx IndexesMap, binds Binds) *TreeResult {
	r := &TreeResult{AllAnd: true, AllIndexed: true}
	if cond == nil {
		r.AllIndexed = false
		return r
	}
	walkTree(cond, idx, binds, r, true)
	return r
}

func walkTree(expr ast.Expr, idx IndexesMap, binds Binds, r *TreeResult, topLevel bool) {
	be, ok := expr.(*ast.BinaryExpr)
	if !ok {
		r.AllIndexed = false
		return
	}
	switch be.Op {
	case ast.OpAnd:
		walkTree(be.LHS, idx, binds, r, topLevel)
		walkTree(be.RHS, idx, binds, r, topLevel)
		return
	case ast.OpOr:
		r.AllAnd = false
		walkTree(be.LHS, idx, binds, r, false)
		walkTree(be.RHS, idx, binds, r, false)
		return
	case ast.OpMatches:
		if opt, ok := resolveMatches(be, idx, binds); ok {
			r.Options = append(r.Options, opt)
			return
		}
		r.AllIndexed = false
		return
	}

	opt, ok := resolveComparison(be, idx, binds)
	if !ok {
		r.AllIndexed = false
		return
	}
	r.Options = append(r.Options, opt)
}

// resolveComparison matches `idiom op literal` (or reversed) against idx,
// tracking which side the idiom was on so `v > idiom` is normalized to
// `idiom < v` (spec.md §4.4 "Position is tracked").
func resolveComparison(be *ast.BinaryExpr, idx IndexesMap, binds Binds) (IndexOption, bool) {
	col, lit, reversed, ok := splitIdiomLiteral(be.LHS, be.RHS, binds)
	if !ok {
		return IndexOption{}, false
	}
	candidates := idx[col]
	if len(candidates) == 0 {
		return IndexOption{}, false
	}
	index := candidates[0]
	pos := colPos(index, col)

	op := be.Op
	if reversed {
		op = reverseOp(op)
	}

	switch op {
	case ast.OpEq:
		return IndexOption{Index: index, ColumnPos: pos, Op: IndexOperator{Kind: OpEquality, Value: lit}, Source: be}, true
	case ast.OpLt, ast.OpLte, ast.OpGt, ast.OpGte:
		return IndexOption{Index: index, ColumnPos: pos, Op: IndexOperator{Kind: OpRangePart, Value: lit, RangeOp: op}, Source: be}, true
	case ast.OpInside:
		return IndexOption{Index: index, ColumnPos: pos, Op: IndexOperator{Kind: OpUnion, Values: lit.Array()}, Source: be}, true
	default:
		return IndexOption{}, false
	}
}

func resolveMatches(be *ast.BinaryExpr, idx IndexesMap, binds Binds) (IndexOption, bool) {
	col, lit, _, ok := splitIdiomLiteral(be.LHS, be.RHS, binds)
	if !ok {
		return IndexOption{}, false
	}
	candidates := idx[col]
	if len(candidates) == 0 {
		return IndexOption{}, false
	}
	index := candidates[0]
	return IndexOption{Index: index, ColumnPos: colPos(index, col), Op: IndexOperator{Kind: OpMatches, Value: lit}, Source: be}, true
}

// splitIdiomLiteral recognizes `idiom op literal`/`literal op idiom` and
// returns the idiom's flattened column name, the literal Value, and
// whether the operands were reversed from that canonical order.
func splitIdiomLiteral(lhs, rhs ast.Expr, binds Binds) (col string, lit value.Value, reversed bool, ok bool) {
	if c, ok2 := columnName(lhs); ok2 {
		if v, ok3 := literalValue(rhs, binds); ok3 {
			return c, v, false, true
		}
	}
	if c, ok2 := columnName(rhs); ok2 {
		if v, ok3 := literalValue(lhs, binds); ok3 {
			return c, v, true, true
		}
	}
	return "", value.None, false, false
}

func columnName(e ast.Expr) (string, bool) {
	if ident, ok := e.(*ast.Ident); ok {
		return ident.Name, true
	}
	idiom, ok := e.(*ast.IdiomExpr)
	if !ok {
		return "", false
	}
	base, ok := idiom.Base.(*ast.Ident)
	if !ok {
		return "", false
	}
	name := base.Name
	for _, p := range idiom.Parts {
		if p.Kind != ast.PartField {
			return "", false
		}
		name += "." + p.Field
	}
	return name, true
}

func literalValue(e ast.Expr, binds Binds) (value.Value, bool) {
	switch n := e.(type) {
	case *ast.Literal:
		return n.Val, true
	case *ast.Param:
		v, ok := binds[n.Name]
		return v, ok
	case *ast.ArrayExpr:
		out := make([]value.Value, 0, len(n.Elems))
		for _, el := range n.Elems {
			v, ok := literalValue(el, binds)
			if !ok {
				return value.None, false
			}
			out = append(out, v)
		}
		return value.NewArray(out), true
	default:
		return value.None, false
	}
}

func colPos(index *catalog.IndexDef, col string) int {
	for i, c := range index.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

func reverseOp(op ast.BinaryOp) ast.BinaryOp {
	switch op {
	case ast.OpLt:
		return ast.OpGt
	case ast.OpLte:
		return ast.OpGte
	case ast.OpGt:
		return ast.OpLt
	case ast.OpGte:
		return ast.OpLte
	default:
		return op
	}
}

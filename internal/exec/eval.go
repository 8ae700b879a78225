package exec

import (
	"strings"

	"github.com/oxhq/qdb/internal/ast"
	"github.com/oxhq/qdb/internal/functions"
	"github.com/oxhq/qdb/internal/idiom"
	"github.com/oxhq/qdb/internal/qerr"
	"github.com/oxhq/qdb/internal/queryexec"
	"github.com/oxhq/qdb/internal/value"
)

func callBuiltinPath(path string, args []value.Value) (value.Value, error) {
	return functions.Call(path, args)
}

// Evaluator walks an ast.Expr against a `$this` value, implementing both
// idiom.Evaluator (idiom path navigation needs Eval/CallClosure/GraphStep)
// and catalog.Evaluator (DEFINE FIELD default/assert expressions) — two
// different method shapes over the same Context, so catalog's adapter
// lives in a small wrapper type rather than overloading Eval itself.
type Evaluator struct {
	ctx *Context
}

func NewEvaluator(ctx *Context) *Evaluator { return &Evaluator{ctx: ctx} }

// Eval implements idiom.Evaluator.
func (e *Evaluator) Eval(expr ast.Expr, cur value.Value) (value.Value, error) {
	return e.eval(expr, cur)
}

func (e *Evaluator) eval(expr ast.Expr, this value.Value) (value.Value, error) {
	switch n := expr.(type) {
	case nil:
		return value.None, nil
	case *ast.Literal:
		return n.Val, nil
	case *ast.Ident:
		if n.Name == "this" || n.Name == "$this" {
			return this, nil
		}
		return value.None, nil
	case *ast.Param:
		if n.Name == "this" {
			return this, nil
		}
		if v, ok := e.ctx.Binds[n.Name]; ok {
			return v, nil
		}
		return value.None, nil
	case *ast.IdiomExpr:
		base, err := e.eval(n.Base, this)
		if err != nil {
			return value.None, err
		}
		return idiom.Get(base, n.Parts, e, e.ctx.Limits)
	case *ast.ArrayExpr:
		out := make([]value.Value, 0, len(n.Elems))
		for _, el := range n.Elems {
			v, err := e.eval(el, this)
			if err != nil {
				return value.None, err
			}
			out = append(out, v)
		}
		return value.NewArray(out), nil
	case *ast.ObjectExpr:
		o := value.NewObjectEmpty()
		for _, f := range n.Fields {
			v, err := e.eval(f.Value, this)
			if err != nil {
				return value.None, err
			}
			o.Set(f.Key, v)
		}
		return value.NewObject(o), nil
	case *ast.UnaryExpr:
		return e.evalUnary(n, this)
	case *ast.BinaryExpr:
		return e.evalBinary(n, this)
	case *ast.FuncCall:
		return e.evalCall(n, this)
	case *ast.ClosureExpr:
		return value.NewClosure(&value.Closure{Params: n.Params, Body: n.Body}), nil
	case *ast.IfExpr:
		cond, err := e.eval(n.Cond, this)
		if err != nil {
			return value.None, err
		}
		if cond.Truthy() {
			return e.eval(n.Then, this)
		}
		if n.Else != nil {
			return e.eval(n.Else, this)
		}
		return value.None, nil
	default:
		return value.None, qerr.New(qerr.ECRuntime, "unsupported expression in this context")
	}
}

func (e *Evaluator) evalUnary(n *ast.UnaryExpr, this value.Value) (value.Value, error) {
	v, err := e.eval(n.Operand, this)
	if err != nil {
		return value.None, err
	}
	switch n.Op {
	case ast.OpNot:
		return value.NewBool(!v.Truthy()), nil
	case ast.OpNeg:
		if v.Tag() != value.TagNumber {
			return value.None, qerr.New(qerr.ECConversion, "unary - requires a number")
		}
		return value.NewNumber(value.NegNumber(v.NumberVal())), nil
	case ast.OpPos:
		return v, nil
	}
	return value.None, qerr.New(qerr.ECRuntime, "unknown unary operator")
}

func (e *Evaluator) evalBinary(n *ast.BinaryExpr, this value.Value) (value.Value, error) {
	// Short-circuit AND/OR before evaluating the right side.
	if n.Op == ast.OpAnd {
		lhs, err := e.eval(n.LHS, this)
		if err != nil {
			return value.None, err
		}
		if !lhs.Truthy() {
			return value.NewBool(false), nil
		}
		rhs, err := e.eval(n.RHS, this)
		if err != nil {
			return value.None, err
		}
		return value.NewBool(rhs.Truthy()), nil
	}
	if n.Op == ast.OpOr {
		lhs, err := e.eval(n.LHS, this)
		if err != nil {
			return value.None, err
		}
		if lhs.Truthy() {
			return value.NewBool(true), nil
		}
		rhs, err := e.eval(n.RHS, this)
		if err != nil {
			return value.None, err
		}
		return value.NewBool(rhs.Truthy()), nil
	}
	if n.Op == ast.OpNullCoalesce {
		lhs, err := e.eval(n.LHS, this)
		if err != nil {
			return value.None, err
		}
		if !lhs.IsNullish() {
			return lhs, nil
		}
		return e.eval(n.RHS, this)
	}
	if n.Op == ast.OpMatches {
		return e.evalMatches(n, this)
	}

	lhs, err := e.eval(n.LHS, this)
	if err != nil {
		return value.None, err
	}
	rhs, err := e.eval(n.RHS, this)
	if err != nil {
		return value.None, err
	}

	switch n.Op {
	case ast.OpEq:
		return value.NewBool(value.Equal(lhs, rhs)), nil
	case ast.OpNeq:
		return value.NewBool(!value.Equal(lhs, rhs)), nil
	case ast.OpLt:
		return value.NewBool(value.Compare(lhs, rhs) < 0), nil
	case ast.OpLte:
		return value.NewBool(value.Compare(lhs, rhs) <= 0), nil
	case ast.OpGt:
		return value.NewBool(value.Compare(lhs, rhs) > 0), nil
	case ast.OpGte:
		return value.NewBool(value.Compare(lhs, rhs) >= 0), nil
	case ast.OpAdd:
		return addValues(lhs, rhs)
	case ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpRem, ast.OpPow:
		return arithValues(n.Op, lhs, rhs)
	case ast.OpInside:
		return value.NewBool(containsValue(rhs, lhs)), nil
	case ast.OpInsideNot:
		return value.NewBool(!containsValue(rhs, lhs)), nil
	case ast.OpContains:
		return value.NewBool(containsValue(lhs, rhs)), nil
	case ast.OpContainsNot:
		return value.NewBool(!containsValue(lhs, rhs)), nil
	case ast.OpContainsAll:
		return value.NewBool(containsAll(lhs, rhs)), nil
	case ast.OpContainsAny, ast.OpInsideAny:
		return value.NewBool(containsAny(lhs, rhs)), nil
	case ast.OpContainsNone:
		return value.NewBool(!containsAny(lhs, rhs)), nil
	case ast.OpInsideAll:
		return value.NewBool(containsAll(rhs, lhs)), nil
	case ast.OpInsideNone:
		return value.NewBool(!containsAny(rhs, lhs)), nil
	default:
		return value.None, qerr.New(qerr.ECRuntime, "binary operator not supported in this context")
	}
}

// evalMatches resolves a `@@` predicate against the InnerQueryExecutor the
// scan registered it with: $this's row id must appear in the matched
// index's result set for the same query text. Outside a full-text scan
// (no c.QE, or this node was never registered — e.g. re-evaluated by a
// statement other than the SELECT/UPDATE/DELETE that planned it) it's
// simply false rather than an error, since `@@` is still a valid boolean
// expression even when nothing indexed it.
func (e *Evaluator) evalMatches(n *ast.BinaryExpr, this value.Value) (value.Value, error) {
	if e.ctx.QE == nil {
		return value.NewBool(false), nil
	}
	ref, ok := e.ctx.QE.RefOf(n)
	if !ok {
		return value.NewBool(false), nil
	}
	ft, query, ok := e.ctx.QE.IndexFor(ref)
	if !ok {
		return value.NewBool(false), nil
	}
	docKey, ok := recordKeyOf(this)
	if !ok {
		return value.NewBool(false), nil
	}
	return value.NewBool(ft.Score(docKey, query) > 0), nil
}

// recordKeyOf extracts the document key a search index stores rows under
// (its "id" field's RecordID key) from a $this value.
func recordKeyOf(this value.Value) (string, bool) {
	if this.Tag() != value.TagObject {
		return "", false
	}
	idVal, ok := this.Object().Get("id")
	if !ok || idVal.Tag() != value.TagRecordID {
		return "", false
	}
	return idVal.RecordIDVal().Key.String(), true
}

func addValues(lhs, rhs value.Value) (value.Value, error) {
	if lhs.Tag() == value.TagString && rhs.Tag() == value.TagString {
		return value.NewString(lhs.Str() + rhs.Str()), nil
	}
	if lhs.Tag() == value.TagArray && rhs.Tag() == value.TagArray {
		return value.NewArray(append(append([]value.Value(nil), lhs.Array()...), rhs.Array()...)), nil
	}
	return arithValues(ast.OpAdd, lhs, rhs)
}

func arithValues(op ast.BinaryOp, lhs, rhs value.Value) (value.Value, error) {
	if lhs.Tag() != value.TagNumber || rhs.Tag() != value.TagNumber {
		return value.None, qerr.New(qerr.ECConversion, "arithmetic requires two numbers")
	}
	a, b := lhs.NumberVal(), rhs.NumberVal()
	var (
		n   value.Number
		err error
	)
	switch op {
	case ast.OpAdd:
		n, err = value.AddNumber(a, b)
	case ast.OpSub:
		n, err = value.SubNumber(a, b)
	case ast.OpMul:
		n, err = value.MulNumber(a, b)
	case ast.OpDiv:
		n, err = value.DivNumber(a, b)
	case ast.OpRem:
		af, bf := a.ToFloat(), b.ToFloat()
		if bf == 0 {
			return value.None, qerr.New(qerr.ECArithmetic, "division by zero")
		}
		return value.NewFloat(float64(int64(af) % int64(bf))), nil
	case ast.OpPow:
		return powNumber(a, b)
	default:
		return value.None, qerr.New(qerr.ECRuntime, "unsupported arithmetic operator")
	}
	if err != nil {
		return value.None, qerr.Wrap(qerr.ECArithmetic, "arithmetic overflow", err)
	}
	return value.NewNumber(n), nil
}

func powNumber(a, b value.Number) (value.Value, error) {
	af, bf := a.ToFloat(), b.ToFloat()
	result := 1.0
	if bf == float64(int64(bf)) && bf >= 0 {
		n := int64(bf)
		result = 1
		for i := int64(0); i < n; i++ {
			result *= af
		}
		if a.Kind() == value.NumInt && b.Kind() == value.NumInt {
			return value.NewInt(int64(result)), nil
		}
		return value.NewFloat(result), nil
	}
	return value.None, qerr.New(qerr.ECArithmetic, "non-integer or negative exponent not supported")
}

func containsValue(container, elem value.Value) bool {
	switch container.Tag() {
	case value.TagArray:
		for _, e := range container.Array() {
			if value.Equal(e, elem) {
				return true
			}
		}
		return false
	case value.TagSet:
		for _, e := range container.SetElems() {
			if value.Equal(e, elem) {
				return true
			}
		}
		return false
	case value.TagString:
		return elem.Tag() == value.TagString && len(elem.Str()) > 0 &&
			stringContains(container.Str(), elem.Str())
	case value.TagRange:
		return container.RangeVal().Contains(elem)
	default:
		return false
	}
}

func stringContains(s, sub string) bool {
	return len(sub) == 0 || indexOf(s, sub) >= 0
}

func indexOf(s, sub string) int {
	n, m := len(s), len(sub)
	if m > n {
		return -1
	}
	for i := 0; i+m <= n; i++ {
		if s[i:i+m] == sub {
			return i
		}
	}
	return -1
}

func containsAll(container, elems value.Value) bool {
	if elems.Tag() != value.TagArray {
		return containsValue(container, elems)
	}
	for _, e := range elems.Array() {
		if !containsValue(container, e) {
			return false
		}
	}
	return true
}

func containsAny(container, elems value.Value) bool {
	if elems.Tag() != value.TagArray {
		return containsValue(container, elems)
	}
	for _, e := range elems.Array() {
		if containsValue(container, e) {
			return true
		}
	}
	return false
}

func (e *Evaluator) evalCall(n *ast.FuncCall, this value.Value) (value.Value, error) {
	args := make([]value.Value, 0, len(n.Args))
	for _, a := range n.Args {
		v, err := e.eval(a, this)
		if err != nil {
			return value.None, err
		}
		args = append(args, v)
	}
	switch strings.ToLower(n.Path) {
	case "search::score", "search::highlight", "search::offsets":
		return e.evalSearchFn(n.Path, args, this)
	}
	if fn := e.ctx.Catalog.Function(n.Path); fn != nil {
		return e.callUserFunction(fn.Args, fn.Body, args)
	}
	return callBuiltinPath(n.Path, args)
}

// evalSearchFn implements the three match-ref lookups spec.md §4.7 names:
// search::score(ref), search::highlight(prefix, suffix, ref), and
// search::offsets(ref). All three resolve ref against the scan's
// InnerQueryExecutor and the current row's document key, unlike every
// other builtin which is a pure function of its arguments — the reason
// they're intercepted here rather than registered in internal/functions,
// which has no access to per-row/per-scan state.
func (e *Evaluator) evalSearchFn(path string, args []value.Value, this value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.None, qerr.New(qerr.ECRuntime, path+" requires a match reference argument")
	}
	refArg := args[len(args)-1]
	if refArg.Tag() != value.TagNumber {
		return value.None, qerr.New(qerr.ECConversion, path+"'s match reference must be a number")
	}
	refNum, err := refArg.NumberVal().AsInt64()
	if err != nil {
		return value.None, qerr.New(qerr.ECConversion, path+"'s match reference must be an integer")
	}

	if e.ctx.QE == nil {
		return value.None, qerr.Wrap(qerr.ECIndexing, path, qerr.ErrNoIndexFoundForMatch)
	}
	ft, query, ok := e.ctx.QE.IndexFor(queryexec.MatchRef(refNum))
	if !ok {
		return value.None, qerr.Wrap(qerr.ECIndexing, path, qerr.ErrNoIndexFoundForMatch)
	}
	docKey, ok := recordKeyOf(this)
	if !ok {
		return value.None, qerr.New(qerr.ECRuntime, path+" requires a row with a record id")
	}

	switch strings.ToLower(path) {
	case "search::score":
		return value.NewFloat(ft.Score(docKey, query)), nil
	case "search::highlight":
		if len(args) < 3 || args[0].Tag() != value.TagString || args[1].Tag() != value.TagString {
			return value.None, qerr.New(qerr.ECRuntime, "search::highlight(prefix, suffix, ref) requires two string arguments")
		}
		return value.NewString(ft.Highlight(docKey, query, args[0].Str(), args[1].Str())), nil
	default: // search::offsets
		offsets := ft.Offsets(docKey, query)
		out := value.NewObjectEmpty()
		for term, positions := range offsets {
			vals := make([]value.Value, len(positions))
			for i, p := range positions {
				vals[i] = value.NewInt(int64(p))
			}
			out.Set(term, value.NewArray(vals))
		}
		return value.NewObject(out), nil
	}
}

func (e *Evaluator) callUserFunction(params []ast.FuncArg, body ast.Expr, args []value.Value) (value.Value, error) {
	obj := value.NewObjectEmpty()
	for i, p := range params {
		if i < len(args) {
			obj.Set(p.Name, args[i])
		}
	}
	return e.eval(body, value.NewObject(obj))
}

// CallClosure implements idiom.Evaluator: invoke a Closure value, binding
// its parameters as $-prefixed params visible to the body (spec.md §4.3
// Method dispatch's closure fallback).
func (e *Evaluator) CallClosure(c *value.Closure, args []value.Value) (value.Value, error) {
	body, ok := c.Body.(ast.Expr)
	if !ok {
		return value.None, qerr.New(qerr.ECRuntime, "closure body is not an expression")
	}
	binds := make(map[string]value.Value, len(e.ctx.Binds)+len(c.Params))
	for k, v := range e.ctx.Binds {
		binds[k] = v
	}
	for i, name := range c.Params {
		if i < len(args) {
			binds[name] = args[i]
		}
	}
	innerCtx := e.ctx.WithBinds(binds)
	inner := &Evaluator{ctx: innerCtx}
	return inner.eval(body, value.None)
}

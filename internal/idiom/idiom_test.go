package idiom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/qdb/internal/ast"
	"github.com/oxhq/qdb/internal/parser"
	"github.com/oxhq/qdb/internal/value"
)

// exprEvaluator evaluates the small subset of ast.Expr this package's tests
// need (binary comparisons, field idioms, literals) with $this bound to cur
// — enough to exercise Where/Value parts without pulling in the executor.
type exprEvaluator struct{}

func (exprEvaluator) Eval(expr ast.Expr, cur value.Value) (value.Value, error) {
	switch e := expr.(type) {
	case *ast.Literal:
		return e.Val, nil
	case *ast.IdiomExpr:
		base, err := exprEvaluator{}.Eval(e.Base, cur)
		if err != nil {
			return value.None, err
		}
		return Get(base, e.Parts, exprEvaluator{}, DefaultLimits())
	case *ast.Ident:
		if e.Name == "this" {
			return cur, nil
		}
		return getField(cur, e.Name)
	case *ast.BinaryExpr:
		lhs, err := exprEvaluator{}.Eval(e.LHS, cur)
		if err != nil {
			return value.None, err
		}
		rhs, err := exprEvaluator{}.Eval(e.RHS, cur)
		if err != nil {
			return value.None, err
		}
		c := value.Compare(lhs, rhs)
		switch e.Op {
		case ast.OpGt:
			return value.NewBool(c > 0), nil
		case ast.OpGte:
			return value.NewBool(c >= 0), nil
		case ast.OpLt:
			return value.NewBool(c < 0), nil
		case ast.OpLte:
			return value.NewBool(c <= 0), nil
		case ast.OpEq:
			return value.NewBool(c == 0), nil
		case ast.OpNeq:
			return value.NewBool(c != 0), nil
		}
	}
	return value.None, nil
}

func (exprEvaluator) CallClosure(c *value.Closure, args []value.Value) (value.Value, error) {
	return value.None, nil
}

func (exprEvaluator) GraphStep(rid *value.RecordID, p ast.Part) (value.Value, error) {
	return value.None, nil
}

func idiomFromReturn(t *testing.T, src string) *ast.IdiomExpr {
	t.Helper()
	q, err := parser.Parse(src)
	require.NoError(t, err)
	require.Len(t, q.Statements, 1)
	ret, ok := q.Statements[0].(*ast.ReturnStatement)
	require.True(t, ok, "expected *ast.ReturnStatement, got %T", q.Statements[0])
	idiom, ok := ret.Value.(*ast.IdiomExpr)
	require.True(t, ok, "expected *ast.IdiomExpr, got %T", ret.Value)
	return idiom
}

func obj(pairs ...[2]any) *value.Object {
	return value.ObjectFromPairs(pairs...)
}

// TestNestedPath is spec.md §8 scenario 1.
func TestNestedPath(t *testing.T) {
	doc := value.NewObject(obj(
		[2]any{"test", value.NewObject(obj(
			[2]any{"other", value.Null},
			[2]any{"something", value.NewInt(123)},
		))},
	))

	idiom := idiomFromReturn(t, "RETURN val.test.something;")
	base := doc // idiom.Base is Ident "val"; resolve manually since "val" isn't $this
	got, err := Get(base, idiom.Parts, exprEvaluator{}, DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, int64(123), mustInt(t, got))
}

// TestArrayWhereSlice is spec.md §8 scenario 2.
func TestArrayWhereSlice(t *testing.T) {
	something := value.NewArray([]value.Value{
		value.NewObject(obj([2]any{"age", value.NewInt(34)})),
		value.NewObject(obj([2]any{"age", value.NewInt(36)})),
	})
	doc := value.NewObject(obj(
		[2]any{"test", value.NewObject(obj([2]any{"something", something}))},
	))

	idiom := idiomFromReturn(t, "RETURN val.test.something[WHERE age > 30][0];")
	got, err := Get(doc, idiom.Parts, exprEvaluator{}, DefaultLimits())
	require.NoError(t, err)
	require.Equal(t, value.TagObject, got.Tag())
	age, ok := got.Object().Get("age")
	require.True(t, ok)
	assert.Equal(t, int64(34), mustInt(t, age))
}

func TestOptionalShortCircuits(t *testing.T) {
	doc := value.NewObject(obj([2]any{"a", value.None}))
	idiom := idiomFromReturn(t, "RETURN val.a?.b.c;")
	got, err := Get(doc, idiom.Parts, exprEvaluator{}, DefaultLimits())
	require.NoError(t, err)
	assert.True(t, got.IsNone())
}

func TestIdiomDepthExceeded(t *testing.T) {
	parts := make([]ast.Part, 0, 200)
	for i := 0; i < 200; i++ {
		parts = append(parts, ast.Part{Kind: ast.PartField, Field: "x"})
	}
	_, err := Get(value.NewObject(value.NewObjectEmpty()), parts, exprEvaluator{}, DefaultLimits())
	require.Error(t, err)
}

func mustInt(t *testing.T, v value.Value) int64 {
	t.Helper()
	require.Equal(t, value.TagNumber, v.Tag())
	n, err := v.NumberVal().AsInt64()
	require.NoError(t, err)
	return n
}

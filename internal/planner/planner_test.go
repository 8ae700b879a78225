package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/qdb/internal/ast"
	"github.com/oxhq/qdb/internal/catalog"
	"github.com/oxhq/qdb/internal/parser"
	"github.com/oxhq/qdb/internal/value"
)

func whereOf(t *testing.T, src string) ast.Expr {
	t.Helper()
	q, err := parser.Parse(src)
	require.NoError(t, err)
	require.Len(t, q.Statements, 1)
	sel, ok := q.Statements[0].(*ast.SelectStatement)
	require.True(t, ok, "expected *ast.SelectStatement, got %T", q.Statements[0])
	return sel.Cond
}

func defineOne(t *testing.T, src string) *ast.DefineStatement {
	t.Helper()
	q, err := parser.Parse(src)
	require.NoError(t, err)
	stmt, ok := q.Statements[0].(*ast.DefineStatement)
	require.True(t, ok)
	return stmt
}

// TestCompoundIndexPlan is spec.md §8 scenario 5.
func TestCompoundIndexPlan(t *testing.T) {
	c := catalog.New()
	require.NoError(t, c.Apply(defineOne(t, "DEFINE INDEX ix ON TABLE t FIELDS x, y;")))
	tbl := c.Table("t")
	idxMap := BuildIndexesMap(tbl)

	cond := whereOf(t, "SELECT * FROM t WHERE x = 1 AND y > 5;")
	tree := Tree(cond, idxMap, nil)
	require.True(t, tree.AllAnd)

	plan := Decide(tree, nil, nil)
	require.Equal(t, PlanSingleIndex, plan.Kind)
	require.Len(t, plan.Equalities, 1)
	assert.Equal(t, int64(1), mustInt(t, plan.Equalities[0].Op.Value))
	require.NotNil(t, plan.Range)
	assert.True(t, plan.Range.From.HasValue)
	assert.False(t, plan.Range.From.Inclusive)
	assert.Equal(t, int64(5), mustInt(t, plan.Range.From.Value))
}

// TestRangeMerge is spec.md §8 scenario 6.
func TestRangeMerge(t *testing.T) {
	c := catalog.New()
	require.NoError(t, c.Apply(defineOne(t, "DEFINE INDEX ix ON TABLE t FIELDS a;")))
	idxMap := BuildIndexesMap(c.Table("t"))

	cond := whereOf(t, "SELECT * FROM t WHERE a > 10 AND a >= 20 AND a < 100 AND a <= 100;")
	tree := Tree(cond, idxMap, nil)
	plan := Decide(tree, nil, nil)
	require.Equal(t, PlanSingleIndexRange, plan.Kind)
	require.NotNil(t, plan.Range)

	assert.Equal(t, int64(20), mustInt(t, plan.Range.From.Value))
	assert.True(t, plan.Range.From.Inclusive)

	assert.Equal(t, int64(100), mustInt(t, plan.Range.To.Value))
	assert.True(t, plan.Range.To.Inclusive)
}

func TestNoIndexWithForcesTableIterator(t *testing.T) {
	c := catalog.New()
	require.NoError(t, c.Apply(defineOne(t, "DEFINE INDEX ix ON TABLE t FIELDS x;")))
	idxMap := BuildIndexesMap(c.Table("t"))
	cond := whereOf(t, "SELECT * FROM t WHERE x = 1;")
	tree := Tree(cond, idxMap, nil)

	plan := Decide(tree, &ast.With{NoIndex: true}, nil)
	assert.Equal(t, PlanTableIterator, plan.Kind)
}

func TestUnindexedConditionFallsBackToTableIterator(t *testing.T) {
	c := catalog.New()
	idxMap := BuildIndexesMap(c.Table("t"))
	cond := whereOf(t, "SELECT * FROM t WHERE x = 1;")
	tree := Tree(cond, idxMap, nil)
	plan := Decide(tree, nil, nil)
	assert.Equal(t, PlanTableIterator, plan.Kind)
}

func mustInt(t *testing.T, v value.Value) int64 {
	t.Helper()
	n, err := v.NumberVal().AsInt64()
	require.NoError(t, err)
	return n
}

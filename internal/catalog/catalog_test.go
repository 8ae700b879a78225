package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/qdb/internal/ast"
	"github.com/oxhq/qdb/internal/parser"
	"github.com/oxhq/qdb/internal/qerr"
	"github.com/oxhq/qdb/internal/value"
)

func defineOne(t *testing.T, src string) *ast.DefineStatement {
	t.Helper()
	q, err := parser.Parse(src)
	require.NoError(t, err)
	require.Len(t, q.Statements, 1)
	stmt, ok := q.Statements[0].(*ast.DefineStatement)
	require.True(t, ok, "expected *ast.DefineStatement, got %T", q.Statements[0])
	return stmt
}

func removeOne(t *testing.T, src string) *ast.RemoveStatement {
	t.Helper()
	q, err := parser.Parse(src)
	require.NoError(t, err)
	require.Len(t, q.Statements, 1)
	stmt, ok := q.Statements[0].(*ast.RemoveStatement)
	require.True(t, ok, "expected *ast.RemoveStatement, got %T", q.Statements[0])
	return stmt
}

func TestApplyDefineTable(t *testing.T) {
	c := New()
	require.NoError(t, c.Apply(defineOne(t, "DEFINE TABLE person;")))
	assert.NotNil(t, c.Table("person"))
	assert.Contains(t, c.Tables(), "person")
}

func TestApplyDefineTableConflict(t *testing.T) {
	c := New()
	require.NoError(t, c.Apply(defineOne(t, "DEFINE TABLE person;")))

	err := c.Apply(defineOne(t, "DEFINE TABLE person;"))
	require.Error(t, err)
	var qe *qerr.Error
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, qerr.ECSchema, qe.Code)

	require.NoError(t, c.Apply(defineOne(t, "DEFINE TABLE IF NOT EXISTS person;")))
	require.NoError(t, c.Apply(defineOne(t, "DEFINE TABLE OVERWRITE person;")))
}

func TestApplyDefineFieldWithTypeDefaultReadonlyAssert(t *testing.T) {
	c := New()
	require.NoError(t, c.Apply(defineOne(t,
		`DEFINE FIELD age ON TABLE person TYPE int DEFAULT 0 READONLY ASSERT $value >= 0;`)))

	tbl := c.Table("person")
	require.NotNil(t, tbl)
	fd := tbl.Fields["age"]
	require.NotNil(t, fd)
	require.NotNil(t, fd.Kind)
	assert.Equal(t, value.KInt, fd.Kind.Tag)
	assert.True(t, fd.Readonly)
	assert.NotNil(t, fd.Default)
	assert.NotNil(t, fd.Assert)
}

func TestApplyDefineFieldDottedPath(t *testing.T) {
	c := New()
	require.NoError(t, c.Apply(defineOne(t, `DEFINE FIELD address.city ON TABLE person TYPE string;`)))
	tbl := c.Table("person")
	require.NotNil(t, tbl)
	assert.Contains(t, tbl.Fields, "address.city")
}

func TestApplyDefineIndexUniqueOnColumns(t *testing.T) {
	c := New()
	require.NoError(t, c.Apply(defineOne(t,
		`DEFINE INDEX unique_email ON TABLE person FIELDS email UNIQUE;`)))

	tbl := c.Table("person")
	require.NotNil(t, tbl)
	idx := tbl.Indexes["unique_email"]
	require.NotNil(t, idx)
	assert.Equal(t, ast.IdxUnique, idx.Kind)
	assert.Equal(t, []string{"email"}, idx.Columns)
}

func TestApplyDefineFunctionAndParam(t *testing.T) {
	c := New()
	require.NoError(t, c.Apply(defineOne(t, `DEFINE FUNCTION fn::double($x: int) { RETURN $x * 2; };`)))
	fn := c.Function("fn::double")
	require.NotNil(t, fn)
	assert.Len(t, fn.Args, 1)
	assert.Equal(t, "x", fn.Args[0].Name)
	assert.NotNil(t, fn.Body)

	require.NoError(t, c.Apply(defineOne(t, `DEFINE PARAM $greeting VALUE "hi";`)))
	p := c.Param("greeting")
	require.NotNil(t, p)
	assert.NotNil(t, p.Value)
}

func TestRemoveTableIfExists(t *testing.T) {
	c := New()
	require.NoError(t, c.Apply(defineOne(t, "DEFINE TABLE person;")))

	require.NoError(t, c.Remove(removeOne(t, "REMOVE TABLE person;")))
	assert.Nil(t, c.Table("person"))

	err := c.Remove(removeOne(t, "REMOVE TABLE person;"))
	require.Error(t, err)

	require.NoError(t, c.Remove(removeOne(t, "REMOVE TABLE IF EXISTS person;")))
}

func TestRemoveFieldOnTable(t *testing.T) {
	c := New()
	require.NoError(t, c.Apply(defineOne(t, "DEFINE FIELD age ON TABLE person TYPE int;")))
	require.NoError(t, c.Remove(removeOne(t, "REMOVE FIELD age ON TABLE person;")))
	assert.NotContains(t, c.Table("person").Fields, "age")
}

type stubEvaluator struct {
	values map[string]value.Value
}

func (s *stubEvaluator) Eval(expr ast.Expr, doc *value.Object) (value.Value, error) {
	switch e := expr.(type) {
	case *ast.Literal:
		return e.Val, nil
	default:
		if v, ok := s.values[""]; ok {
			return v, nil
		}
		return value.NewBool(true), nil
	}
}

func TestApplyFieldConstraintsDefaultFillsAbsentValue(t *testing.T) {
	c := New()
	require.NoError(t, c.Apply(defineOne(t, `DEFINE FIELD score ON TABLE person DEFAULT 0;`)))
	tbl := c.Table("person")

	doc := value.NewObjectEmpty()
	ev := &stubEvaluator{}
	require.NoError(t, tbl.ApplyTableConstraints(doc, nil, ev))
	v, ok := doc.Get("score")
	require.True(t, ok)
	n, err := v.NumberVal().AsInt64()
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestApplyFieldConstraintsReadonlyRejectsChange(t *testing.T) {
	c := New()
	require.NoError(t, c.Apply(defineOne(t, `DEFINE FIELD id ON TABLE person READONLY;`)))
	fd := c.Table("person").Fields["id"]

	existing := value.NewObjectEmpty()
	existing.Set("id", value.NewInt(1))
	doc := value.NewObjectEmpty()
	doc.Set("id", value.NewInt(2))

	err := fd.ApplyFieldConstraints(doc, existing, &stubEvaluator{})
	require.Error(t, err)
	var qe *qerr.Error
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, qerr.ECSchema, qe.Code)
}

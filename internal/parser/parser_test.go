package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/qdb/internal/ast"
)

func parseOne(t *testing.T, src string) ast.Statement {
	t.Helper()
	q, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, q.Statements, 1)
	return q.Statements[0]
}

func TestParseSimpleSelect(t *testing.T) {
	stmt := parseOne(t, "SELECT name, age FROM person WHERE age > 18 LIMIT 10;")
	sel, ok := stmt.(*ast.SelectStatement)
	require.True(t, ok)
	assert.Len(t, sel.Fields, 2)
	assert.Equal(t, "name", sel.Fields[0].Expr.(*ast.Ident).Name)
	require.Len(t, sel.Targets, 1)
	assert.Equal(t, ast.TargetTable, sel.Targets[0].Kind)
	assert.Equal(t, "person", sel.Targets[0].Table)
	require.NotNil(t, sel.Cond)
	require.NotNil(t, sel.Limit)
}

func TestParseSelectStar(t *testing.T) {
	stmt := parseOne(t, "SELECT * FROM person;")
	sel := stmt.(*ast.SelectStatement)
	require.Len(t, sel.Fields, 1)
	assert.True(t, sel.Fields[0].Star)
}

func TestParseSelectGroupOrderFetch(t *testing.T) {
	stmt := parseOne(t, "SELECT * FROM person GROUP BY city ORDER BY name DESC FETCH likes;")
	sel := stmt.(*ast.SelectStatement)
	require.NotNil(t, sel.Group)
	require.Len(t, sel.Group.Idioms, 1)
	require.Len(t, sel.Order, 1)
	assert.True(t, sel.Order[0].Desc)
	require.NotNil(t, sel.Fetch)
	require.Len(t, sel.Fetch.Idioms, 1)
}

func TestParseSelectExplainFull(t *testing.T) {
	stmt := parseOne(t, "SELECT EXPLAIN FULL * FROM person;")
	sel := stmt.(*ast.SelectStatement)
	assert.True(t, sel.Explain)
	assert.True(t, sel.ExplainFull)
}

func TestParseCreateContent(t *testing.T) {
	stmt := parseOne(t, `CREATE person CONTENT { name: "a", age: 30 } RETURN NONE;`)
	cr, ok := stmt.(*ast.CreateStatement)
	require.True(t, ok)
	assert.Equal(t, ast.InsertContent, cr.Mode)
	require.NotNil(t, cr.Content)
	obj, ok := cr.Content.(*ast.ObjectExpr)
	require.True(t, ok)
	assert.Len(t, obj.Fields, 2)
	assert.Equal(t, ast.ReturnNone, cr.Return.Kind)
}

func TestParseUpdateSet(t *testing.T) {
	stmt := parseOne(t, `UPDATE person SET age = 31 WHERE name = "a";`)
	up, ok := stmt.(*ast.UpdateStatement)
	require.True(t, ok)
	assert.False(t, up.Upsert)
	assert.Equal(t, ast.InsertSet, up.Mode)
	require.Len(t, up.Sets, 1)
	require.NotNil(t, up.Cond)
}

func TestParseUpsert(t *testing.T) {
	stmt := parseOne(t, `UPSERT person:1 SET age = 31;`)
	up := stmt.(*ast.UpdateStatement)
	assert.True(t, up.Upsert)
	require.Len(t, up.Targets, 1)
	assert.Equal(t, ast.TargetRecordID, up.Targets[0].Kind)
}

func TestParseDeleteWhere(t *testing.T) {
	stmt := parseOne(t, `DELETE FROM person WHERE age < 5 RETURN BEFORE;`)
	del := stmt.(*ast.DeleteStatement)
	require.NotNil(t, del.Cond)
	assert.Equal(t, ast.ReturnBefore, del.Return.Kind)
}

func TestParseInsertOnDuplicateKeyUpdate(t *testing.T) {
	stmt := parseOne(t, `INSERT person CONTENT { name: "a" } ON DUPLICATE KEY UPDATE age = 1;`)
	ins, ok := stmt.(*ast.InsertStatement)
	require.True(t, ok)
	assert.Equal(t, "person", ins.Table)
	require.NotNil(t, ins.OnDuplicate)
	require.Len(t, ins.OnDuplicate.Sets, 1)
}

func TestParseRelate(t *testing.T) {
	stmt := parseOne(t, `RELATE person:a->likes->person:b CONTENT { since: 2020 };`)
	rel, ok := stmt.(*ast.RelateStatement)
	require.True(t, ok)
	assert.Equal(t, "likes", rel.Edge)
	require.NotNil(t, rel.In)
	require.NotNil(t, rel.Out)
	require.NotNil(t, rel.Content)
}

func TestParseTransactionStatements(t *testing.T) {
	q, err := Parse("BEGIN TRANSACTION; CREATE person; COMMIT;")
	require.NoError(t, err)
	require.Len(t, q.Statements, 3)
	begin, ok := q.Statements[0].(*ast.TransactionStatement)
	require.True(t, ok)
	assert.Equal(t, ast.TxBegin, begin.Kind)
	commit := q.Statements[2].(*ast.TransactionStatement)
	assert.Equal(t, ast.TxCommit, commit.Kind)
}

func TestParseIfElseIfElse(t *testing.T) {
	stmt := parseOne(t, `IF $a > 1 THEN RETURN 1 ELSE IF $a > 0 THEN RETURN 0 ELSE RETURN -1 END;`)
	ifs, ok := stmt.(*ast.IfStatement)
	require.True(t, ok)
	require.Len(t, ifs.Then, 1)
	require.Len(t, ifs.Elifs, 1)
	require.Len(t, ifs.Else, 1)
}

func TestParseForLoop(t *testing.T) {
	stmt := parseOne(t, `FOR $x IN [1, 2, 3] { LET $y = $x + 1; };`)
	f, ok := stmt.(*ast.ForStatement)
	require.True(t, ok)
	assert.Equal(t, "x", f.Var)
	require.Len(t, f.Body, 1)
}

func TestParseLetStatement(t *testing.T) {
	stmt := parseOne(t, `LET $x = 1 + 2;`)
	let, ok := stmt.(*ast.LetStatement)
	require.True(t, ok)
	assert.Equal(t, "$x", let.Name)
	bin, ok := let.Value.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpAdd, bin.Op)
}

func TestParseBlockStatement(t *testing.T) {
	stmt := parseOne(t, `{ LET $x = 1; RETURN $x; };`)
	blk, ok := stmt.(*ast.BlockStatement)
	require.True(t, ok)
	assert.Len(t, blk.Body, 2)
}

func TestParseUseNamespaceDatabase(t *testing.T) {
	stmt := parseOne(t, `USE NAMESPACE test DATABASE test;`)
	use, ok := stmt.(*ast.UseStatement)
	require.True(t, ok)
	assert.Equal(t, "test", use.Namespace)
	assert.Equal(t, "test", use.Database)
}

func TestParseInfoForTable(t *testing.T) {
	stmt := parseOne(t, `INFO FOR TABLE person;`)
	info, ok := stmt.(*ast.InfoStatement)
	require.True(t, ok)
	assert.Equal(t, ast.InfoTable, info.Target)
	assert.Equal(t, "person", info.Name)
}

func TestParseShowChangesForTable(t *testing.T) {
	stmt := parseOne(t, `SHOW CHANGES FOR TABLE person SINCE 0 LIMIT 5;`)
	sc, ok := stmt.(*ast.ShowChangesStatement)
	require.True(t, ok)
	assert.Equal(t, "person", sc.Table)
	require.NotNil(t, sc.Since)
	require.NotNil(t, sc.Limit)
}

func TestParseSleep(t *testing.T) {
	stmt := parseOne(t, `SLEEP 1s;`)
	sl, ok := stmt.(*ast.SleepStatement)
	require.True(t, ok)
	require.NotNil(t, sl.Duration)
}

func TestParseDefineFieldWithTypeAssertDefault(t *testing.T) {
	stmt := parseOne(t, `DEFINE FIELD age ON TABLE person TYPE int DEFAULT 0 ASSERT $value >= 0;`)
	def, ok := stmt.(*ast.DefineStatement)
	require.True(t, ok)
	assert.Equal(t, ast.DefField, def.Kind)
	assert.Equal(t, "age", def.Name)
	assert.Equal(t, "person", def.OnTable)
	require.NotNil(t, def.FieldKind)
	assert.Equal(t, "int", def.FieldKind.Raw)
	require.NotNil(t, def.Default)
	require.NotNil(t, def.Assert)
}

func TestParseDefineFieldArrayType(t *testing.T) {
	stmt := parseOne(t, `DEFINE FIELD tags ON TABLE person TYPE array<string>;`)
	def := stmt.(*ast.DefineStatement)
	assert.Equal(t, "array<string>", def.FieldKind.Raw)
}

func TestParseDefineIndexUnique(t *testing.T) {
	stmt := parseOne(t, `DEFINE INDEX idx_email ON TABLE person FIELDS email UNIQUE;`)
	def := stmt.(*ast.DefineStatement)
	assert.Equal(t, ast.DefIndex, def.Kind)
	assert.Equal(t, "person", def.IndexTable)
	require.Len(t, def.IndexColumns, 1)
	assert.Equal(t, ast.IdxUnique, def.IndexKind.Kind)
}

func TestParseDefineNamespaceIfNotExists(t *testing.T) {
	stmt := parseOne(t, `DEFINE NAMESPACE IF NOT EXISTS test;`)
	def := stmt.(*ast.DefineStatement)
	assert.Equal(t, ast.DefNamespace, def.Kind)
	assert.True(t, def.IfNotExists)
	assert.Equal(t, "test", def.Name)
}

func TestParseDefineFunction(t *testing.T) {
	stmt := parseOne(t, `DEFINE FUNCTION fn::double($x: int) { RETURN $x * 2; };`)
	def := stmt.(*ast.DefineStatement)
	assert.Equal(t, ast.DefFunction, def.Kind)
	assert.Equal(t, "fn::double", def.Name)
	require.Len(t, def.FuncArgs, 1)
	assert.Equal(t, "x", def.FuncArgs[0].Name)
}

func TestParseRemoveTableIfExists(t *testing.T) {
	stmt := parseOne(t, `REMOVE TABLE IF EXISTS person;`)
	rm, ok := stmt.(*ast.RemoveStatement)
	require.True(t, ok)
	assert.Equal(t, ast.DefTable, rm.Kind)
	assert.True(t, rm.IfExists)
	assert.Equal(t, "person", rm.Name)
}

func TestParseExprPrecedence(t *testing.T) {
	e, err := ParseExpr("1 + 2 * 3")
	require.NoError(t, err)
	bin := e.(*ast.BinaryExpr)
	assert.Equal(t, ast.OpAdd, bin.Op)
	rhs := bin.RHS.(*ast.BinaryExpr)
	assert.Equal(t, ast.OpMul, rhs.Op)
}

func TestParseExprPowerRightAssociative(t *testing.T) {
	e, err := ParseExpr("2 ** 3 ** 2")
	require.NoError(t, err)
	bin := e.(*ast.BinaryExpr)
	assert.Equal(t, ast.OpPow, bin.Op)
	_, ok := bin.LHS.(*ast.Literal)
	assert.True(t, ok)
	rhs, ok := bin.RHS.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpPow, rhs.Op)
}

func TestParseIdiomPathNavigation(t *testing.T) {
	e, err := ParseExpr("person.address.city")
	require.NoError(t, err)
	idiom, ok := e.(*ast.IdiomExpr)
	require.True(t, ok)
	require.Len(t, idiom.Parts, 2)
	assert.Equal(t, ast.PartField, idiom.Parts[0].Kind)
	assert.Equal(t, "address", idiom.Parts[0].Field)
}

func TestParseIdiomIndexAndWhere(t *testing.T) {
	e, err := ParseExpr("person.friends[0]")
	require.NoError(t, err)
	idiom := e.(*ast.IdiomExpr)
	require.Len(t, idiom.Parts, 2)
	assert.Equal(t, ast.PartIndex, idiom.Parts[1].Kind)

	e2, err := ParseExpr("person.friends[WHERE age > 18]")
	require.NoError(t, err)
	idiom2 := e2.(*ast.IdiomExpr)
	require.Len(t, idiom2.Parts, 2)
	assert.Equal(t, ast.PartWhere, idiom2.Parts[1].Kind)
}

func TestParseGraphTraversal(t *testing.T) {
	e, err := ParseExpr("person:a->likes->person")
	require.NoError(t, err)
	idiom, ok := e.(*ast.IdiomExpr)
	require.True(t, ok)
	require.Len(t, idiom.Parts, 1)
	assert.Equal(t, ast.PartGraph, idiom.Parts[0].Kind)
	assert.Equal(t, ast.DirOut, idiom.Parts[0].GraphDir)
	assert.Equal(t, []string{"likes"}, idiom.Parts[0].GraphEdges)
}

func TestParseClosureExpr(t *testing.T) {
	e, err := ParseExpr("|$a, $b| $a + $b")
	require.NoError(t, err)
	cl, ok := e.(*ast.ClosureExpr)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, cl.Params)
}

func TestParseFuncCallDottedPath(t *testing.T) {
	e, err := ParseExpr(`string::slug("Hello World")`)
	require.NoError(t, err)
	call, ok := e.(*ast.FuncCall)
	require.True(t, ok)
	assert.Equal(t, "string::slug", call.Path)
	require.Len(t, call.Args, 1)
}

func TestParseRecordIDLiteral(t *testing.T) {
	e, err := ParseExpr("person:123")
	require.NoError(t, err)
	lit, ok := e.(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, "person", lit.Val.RecordIDVal().Table)
}

func TestParseDurationLiteral(t *testing.T) {
	e, err := ParseExpr("1h30m")
	require.NoError(t, err)
	_, ok := e.(*ast.Literal)
	require.True(t, ok)
}

func TestParseArrayAndObjectLiterals(t *testing.T) {
	e, err := ParseExpr(`[1, 2, 3]`)
	require.NoError(t, err)
	arr, ok := e.(*ast.ArrayExpr)
	require.True(t, ok)
	assert.Len(t, arr.Elems, 3)

	e2, err := ParseExpr(`{ a: 1, b: 2 }`)
	require.NoError(t, err)
	obj, ok := e2.(*ast.ObjectExpr)
	require.True(t, ok)
	assert.Len(t, obj.Fields, 2)
}

func TestParseIfExprInline(t *testing.T) {
	e, err := ParseExpr(`IF $x > 0 THEN "pos" ELSE "neg"`)
	require.NoError(t, err)
	ifx, ok := e.(*ast.IfExpr)
	require.True(t, ok)
	require.NotNil(t, ifx.Else)
}

func TestParseSubqueryExpr(t *testing.T) {
	e, err := ParseExpr(`(SELECT * FROM person)`)
	require.NoError(t, err)
	sub, ok := e.(*ast.SubqueryExpr)
	require.True(t, ok)
	_, ok = sub.Stmt.(*ast.SelectStatement)
	assert.True(t, ok)
}

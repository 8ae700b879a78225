package parser

import (
	"github.com/oxhq/qdb/internal/ast"
	"github.com/oxhq/qdb/internal/lexer"
)

// parseStatement dispatches on the leading keyword, spec.md §6's statement
// list.
func (p *Parser) parseStatement() ast.Statement {
	start := p.pos_()
	switch p.cur().Tok {
	case lexer.SELECT:
		return p.parseSelect(start)
	case lexer.CREATE:
		return p.parseCreate(start)
	case lexer.UPDATE:
		return p.parseUpdateUpsert(start, false)
	case lexer.UPSERT:
		return p.parseUpdateUpsert(start, true)
	case lexer.DELETE:
		return p.parseDelete(start)
	case lexer.INSERT:
		return p.parseInsert(start)
	case lexer.RELATE:
		return p.parseRelate(start)
	case lexer.DEFINE:
		return p.parseDefine(start)
	case lexer.REMOVE:
		return p.parseRemove(start)
	case lexer.BEGIN:
		p.advance()
		p.acceptWord("transaction")
		stmt := &ast.TransactionStatement{Kind: ast.TxBegin}
		stmt.SetSpan(start, p.pos_())
		return stmt
	case lexer.COMMIT:
		p.advance()
		stmt := &ast.TransactionStatement{Kind: ast.TxCommit}
		stmt.SetSpan(start, p.pos_())
		return stmt
	case lexer.CANCEL:
		p.advance()
		stmt := &ast.TransactionStatement{Kind: ast.TxCancel}
		stmt.SetSpan(start, p.pos_())
		return stmt
	case lexer.IF:
		return p.parseIfStatement(start)
	case lexer.FOR:
		return p.parseForStatement(start)
	case lexer.LET:
		return p.parseLetStatement(start)
	case lexer.THROW:
		p.advance()
		val := p.parseExpr(0)
		stmt := &ast.ThrowStatement{Value: val}
		stmt.SetSpan(start, p.pos_())
		return stmt
	case lexer.BREAK:
		p.advance()
		stmt := &ast.BreakStatement{}
		stmt.SetSpan(start, p.pos_())
		return stmt
	case lexer.CONTINUE:
		p.advance()
		stmt := &ast.ContinueStatement{}
		stmt.SetSpan(start, p.pos_())
		return stmt
	case lexer.LBRACE:
		return p.parseBlockStatement(start)
	case lexer.USE:
		return p.parseUseStatement(start)
	case lexer.INFO:
		return p.parseInfoStatement(start)
	case lexer.SHOW:
		return p.parseShowChanges(start)
	case lexer.SLEEP:
		p.advance()
		dur := p.parseExpr(0)
		stmt := &ast.SleepStatement{Duration: dur}
		stmt.SetSpan(start, p.pos_())
		return stmt
	case lexer.RETURN:
		p.advance()
		val := p.parseExpr(0)
		stmt := &ast.ReturnStatement{Value: val}
		stmt.SetSpan(start, p.pos_())
		return stmt
	default:
		expr := p.parseExpr(0)
		stmt := &ast.ExprStatement{Expr: expr}
		stmt.SetSpan(start, p.pos_())
		return stmt
	}
}

// -- SELECT --------------------------------------------------------------

func (p *Parser) parseSelect(start ast.Pos) ast.Statement {
	p.advance() // SELECT
	stmt := &ast.SelectStatement{}

	if p.curIs(lexer.EXPLAIN) {
		p.advance()
		stmt.Explain = true
		if p.acceptWord("full") {
			stmt.ExplainFull = true
		}
	}

	stmt.Fields = p.parseSelectFields()
	p.expect(lexer.FROM)
	stmt.Targets = p.parseTargetList()

	if p.curIs(lexer.WITH) {
		stmt.With = p.parseWithClause()
	}
	if p.accept(lexer.WHERE) {
		stmt.Cond = p.parseExpr(0)
	}
	if p.accept(lexer.SPLIT) {
		p.accept(lexer.ON)
		stmt.Split = &ast.SplitClause{Idioms: p.parseIdiomList()}
	}
	if p.accept(lexer.GROUP) {
		stmt.Group = p.parseGroupClause()
	}
	if p.accept(lexer.ORDER) {
		p.accept(lexer.BY)
		stmt.Order = p.parseOrderList()
	}
	if p.accept(lexer.LIMIT) {
		stmt.Limit = p.parseExpr(0)
	}
	if p.accept(lexer.START) {
		p.acceptWord("at")
		stmt.Start = p.parseExpr(0)
	}
	if p.accept(lexer.FETCH) {
		stmt.Fetch = &ast.FetchClause{Idioms: p.parseIdiomList()}
	}
	if p.accept(lexer.VERSION) {
		stmt.Version = p.parseExpr(0)
	}

	stmt.SetSpan(start, p.pos_())
	return stmt
}

func (p *Parser) parseSelectFields() []ast.SelectField {
	var fields []ast.SelectField
	for {
		if p.curIs(lexer.STAR) || p.curIs(lexer.MULTIPLY_UNI) {
			p.advance()
			fields = append(fields, ast.SelectField{Star: true})
		} else {
			e := p.parseExpr(0)
			alias := ""
			if p.accept(lexer.AS) {
				if p.curIsIdent() {
					alias = p.advance().Lit
				}
			}
			fields = append(fields, ast.SelectField{Expr: e, Alias: alias})
		}
		if !p.accept(lexer.COMMA) {
			break
		}
	}
	return fields
}

func (p *Parser) parseTargetList() []ast.Target {
	var out []ast.Target
	for {
		out = append(out, p.parseTarget())
		if !p.accept(lexer.COMMA) {
			break
		}
	}
	return out
}

func (p *Parser) parseTarget() ast.Target {
	switch p.cur().Tok {
	case lexer.PARAM, lexer.LPAREN, lexer.LBRACKET:
		return ast.Target{Kind: ast.TargetExpr, Expr: p.parseExpr(0)}
	case lexer.IDENT:
		name := p.cur().Lit
		if p.peekAt(1).Tok == lexer.COLON {
			e := p.parseExpr(0)
			return ast.Target{Kind: ast.TargetRecordID, Expr: e, Table: name}
		}
		p.advance()
		return ast.Target{Kind: ast.TargetTable, Table: name}
	default:
		if p.curIsIdent() {
			name := p.advance().Lit
			return ast.Target{Kind: ast.TargetTable, Table: name}
		}
		p.errorf("expected target, got %s", p.cur().Tok)
		p.advance()
		return ast.Target{Kind: ast.TargetTable}
	}
}

func (p *Parser) parseWithClause() *ast.With {
	p.advance() // WITH
	w := &ast.With{}
	if p.acceptWord("noindex") {
		w.NoIndex = true
		return w
	}
	p.accept(lexer.INDEX)
	for p.curIsIdent() {
		w.ForceIndex = append(w.ForceIndex, p.advance().Lit)
		if !p.accept(lexer.COMMA) {
			break
		}
	}
	return w
}

func (p *Parser) parseIdiomList() []*ast.IdiomExpr {
	var out []*ast.IdiomExpr
	for {
		e := p.parseExpr(0)
		if idiom, ok := e.(*ast.IdiomExpr); ok {
			out = append(out, idiom)
		} else if ident, ok := e.(*ast.Ident); ok {
			out = append(out, ast.NewIdiomExpr(ident.Pos(), ident.End(), ident, nil))
		}
		if !p.accept(lexer.COMMA) {
			break
		}
	}
	return out
}

func (p *Parser) parseGroupClause() *ast.GroupClause {
	if p.curIs(lexer.ALL) {
		p.advance()
		return &ast.GroupClause{All: true}
	}
	p.accept(lexer.BY)
	return &ast.GroupClause{Idioms: p.parseIdiomList()}
}

func (p *Parser) parseOrderList() []ast.OrderClause {
	var out []ast.OrderClause
	for {
		idioms := p.parseIdiomList()
		var idiom *ast.IdiomExpr
		if len(idioms) > 0 {
			idiom = idioms[0]
		}
		oc := ast.OrderClause{Idiom: idiom}
		for {
			switch {
			case p.curIs(lexer.ASC):
				p.advance()
			case p.curIs(lexer.DESC):
				p.advance()
				oc.Desc = true
			case p.curIsWord("collate"):
				p.advance()
				oc.Collate = true
			case p.curIsWord("numeric"):
				p.advance()
				oc.Numeric = true
			default:
				goto doneMods
			}
		}
	doneMods:
		out = append(out, oc)
		if !p.accept(lexer.COMMA) {
			break
		}
	}
	return out
}

// -- CREATE / UPDATE / UPSERT / DELETE / INSERT / RELATE ------------------

func (p *Parser) parseReturnClause() ast.ReturnClause {
	if !p.accept(lexer.RETURN) {
		return ast.ReturnClause{Kind: ast.ReturnAfter}
	}
	switch p.cur().Tok {
	case lexer.NONE:
		p.advance()
		return ast.ReturnClause{Kind: ast.ReturnNone}
	case lexer.BEFORE:
		p.advance()
		return ast.ReturnClause{Kind: ast.ReturnBefore}
	case lexer.AFTER:
		p.advance()
		return ast.ReturnClause{Kind: ast.ReturnAfter}
	case lexer.DIFF:
		p.advance()
		return ast.ReturnClause{Kind: ast.ReturnDiff}
	default:
		return ast.ReturnClause{Kind: ast.ReturnFields, Fields: p.parseSelectFields()}
	}
}

func (p *Parser) parseContentOrSet() (ast.Expr, []ast.SetField, ast.InsertMode) {
	switch p.cur().Tok {
	case lexer.CONTENT:
		p.advance()
		return p.parseExpr(0), nil, ast.InsertContent
	case lexer.MERGE:
		p.advance()
		return p.parseExpr(0), nil, ast.InsertMerge
	case lexer.REPLACE:
		p.advance()
		return p.parseExpr(0), nil, ast.InsertReplace
	case lexer.SET:
		p.advance()
		return nil, p.parseSetList(), ast.InsertSet
	default:
		return nil, nil, ast.InsertContent
	}
}

func (p *Parser) parseSetList() []ast.SetField {
	var out []ast.SetField
	for {
		// Parse the target path above equality's binding power so the
		// `=` that follows isn't consumed as part of it.
		var idiom *ast.IdiomExpr
		switch e := p.parseExpr(binOpTable[lexer.EQ].bp + 1).(type) {
		case *ast.IdiomExpr:
			idiom = e
		case *ast.Ident:
			idiom = ast.NewIdiomExpr(e.Pos(), e.End(), e, nil)
		}
		p.expect(lexer.EQ)
		val := p.parseExpr(0)
		out = append(out, ast.SetField{Idiom: idiom, Value: val})
		if !p.accept(lexer.COMMA) {
			break
		}
	}
	return out
}

func (p *Parser) parseCreate(start ast.Pos) ast.Statement {
	p.advance() // CREATE
	stmt := &ast.CreateStatement{}
	stmt.Targets = p.parseTargetList()
	stmt.Content, stmt.Sets, stmt.Mode = p.parseContentOrSet()
	stmt.Return = p.parseReturnClause()
	stmt.SetSpan(start, p.pos_())
	return stmt
}

func (p *Parser) parseUpdateUpsert(start ast.Pos, upsert bool) ast.Statement {
	p.advance() // UPDATE/UPSERT
	stmt := &ast.UpdateStatement{Upsert: upsert}
	stmt.Targets = p.parseTargetList()
	stmt.Content, stmt.Sets, stmt.Mode = p.parseContentOrSet()
	if p.accept(lexer.WHERE) {
		stmt.Cond = p.parseExpr(0)
	}
	stmt.Return = p.parseReturnClause()
	stmt.SetSpan(start, p.pos_())
	return stmt
}

func (p *Parser) parseDelete(start ast.Pos) ast.Statement {
	p.advance() // DELETE
	p.accept(lexer.FROM)
	stmt := &ast.DeleteStatement{}
	stmt.Targets = p.parseTargetList()
	if p.accept(lexer.WHERE) {
		stmt.Cond = p.parseExpr(0)
	}
	stmt.Return = p.parseReturnClause()
	stmt.SetSpan(start, p.pos_())
	return stmt
}

func (p *Parser) parseInsert(start ast.Pos) ast.Statement {
	p.advance() // INSERT
	stmt := &ast.InsertStatement{}
	if p.acceptWord("ignore") {
		stmt.Ignore = true
	}
	if p.accept(lexer.RELATION) {
		stmt.Relation = true
	}
	if p.curIsIdent() {
		stmt.Table = p.advance().Lit
	}
	stmt.Content, stmt.Sets, stmt.Mode = p.parseContentOrSet()
	if stmt.Content == nil && stmt.Sets == nil {
		stmt.Content = p.parseExpr(0)
	}
	if p.accept(lexer.ON) {
		p.expect(lexer.DUPLICATE)
		p.expect(lexer.KEY)
		p.expect(lexer.UPDATE)
		stmt.OnDuplicate = &ast.OnDuplicate{Sets: p.parseSetList()}
	}
	stmt.SetSpan(start, p.pos_())
	return stmt
}

func (p *Parser) parseRelate(start ast.Pos) ast.Statement {
	p.advance() // RELATE
	stmt := &ast.RelateStatement{}
	// In/Out use the bare primary (not postfix idiom parsing) so the
	// `->edge->` arrows aren't swallowed as graph-traversal parts of In.
	stmt.In = p.parsePrimary()
	p.expect(lexer.ARROW_OUT)
	if p.curIsIdent() {
		stmt.Edge = p.advance().Lit
	}
	p.expect(lexer.ARROW_OUT)
	stmt.Out = p.parsePrimary()
	stmt.Content, stmt.Sets, _ = p.parseContentOrSet()
	stmt.Return = p.parseReturnClause()
	stmt.SetSpan(start, p.pos_())
	return stmt
}

// -- Control flow / scripting ---------------------------------------------

func (p *Parser) parseIfStatement(start ast.Pos) ast.Statement {
	p.advance() // IF
	stmt := &ast.IfStatement{}
	stmt.Cond = p.parseExpr(0)
	p.accept(lexer.THEN)
	stmt.Then = p.parseStatementBlock()
	for p.curIs(lexer.ELSE) && p.peekAt(1).Tok == lexer.IF {
		p.advance() // ELSE
		p.advance() // IF
		cond := p.parseExpr(0)
		p.accept(lexer.THEN)
		body := p.parseStatementBlock()
		stmt.Elifs = append(stmt.Elifs, struct {
			Cond ast.Expr
			Then []ast.Statement
		}{Cond: cond, Then: body})
	}
	if p.accept(lexer.ELSE) {
		stmt.Else = p.parseStatementBlock()
	}
	p.accept(lexer.END)
	stmt.SetSpan(start, p.pos_())
	return stmt
}

// parseStatementBlock reads either a brace-delimited block or a single
// statement up to THEN/ELSE/END, matching SurrealQL's IF ... THEN ... END
// surface which allows both forms.
func (p *Parser) parseStatementBlock() []ast.Statement {
	if p.curIs(lexer.LBRACE) {
		p.advance()
		var body []ast.Statement
		for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
			body = append(body, p.parseStatement())
			for p.curIs(lexer.SEMICOLON) {
				p.advance()
			}
		}
		p.expect(lexer.RBRACE)
		return body
	}
	var body []ast.Statement
	for !p.curIsAny(lexer.ELSE, lexer.END, lexer.EOF, lexer.SEMICOLON) {
		body = append(body, p.parseStatement())
		if p.curIs(lexer.SEMICOLON) {
			p.advance()
		} else {
			break
		}
	}
	return body
}

func (p *Parser) parseForStatement(start ast.Pos) ast.Statement {
	p.advance() // FOR
	stmt := &ast.ForStatement{}
	if p.curIs(lexer.PARAM) {
		stmt.Var = p.advance().Lit
	} else {
		p.errorf("expected loop variable ($name), got %s", p.cur().Tok)
	}
	p.expect(lexer.IN)
	stmt.In = p.parseExpr(0)
	stmt.Body = p.parseStatementBlock()
	stmt.SetSpan(start, p.pos_())
	return stmt
}

func (p *Parser) parseLetStatement(start ast.Pos) ast.Statement {
	p.advance() // LET
	stmt := &ast.LetStatement{}
	if p.curIs(lexer.PARAM) {
		stmt.Name = p.advance().Lit
	} else {
		p.errorf("expected $name after LET, got %s", p.cur().Tok)
	}
	p.expect(lexer.EQ)
	stmt.Value = p.parseExpr(0)
	stmt.SetSpan(start, p.pos_())
	return stmt
}

func (p *Parser) parseBlockStatement(start ast.Pos) ast.Statement {
	p.advance() // {
	var body []ast.Statement
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		body = append(body, p.parseStatement())
		for p.curIs(lexer.SEMICOLON) {
			p.advance()
		}
	}
	p.expect(lexer.RBRACE)
	stmt := &ast.BlockStatement{Body: body}
	stmt.SetSpan(start, p.pos_())
	return stmt
}

func (p *Parser) parseUseStatement(start ast.Pos) ast.Statement {
	p.advance() // USE
	stmt := &ast.UseStatement{}
	for {
		switch {
		case p.curIs(lexer.NAMESPACE):
			p.advance()
			if p.curIsIdent() {
				stmt.Namespace = p.advance().Lit
			}
		case p.curIs(lexer.DATABASE):
			p.advance()
			if p.curIsIdent() {
				stmt.Database = p.advance().Lit
			}
		default:
			goto done
		}
		p.accept(lexer.COMMA)
	}
done:
	stmt.SetSpan(start, p.pos_())
	return stmt
}

func (p *Parser) parseInfoStatement(start ast.Pos) ast.Statement {
	p.advance() // INFO
	p.expect(lexer.FOR)
	stmt := &ast.InfoStatement{}
	switch {
	case p.curIs(lexer.NAMESPACE):
		p.advance()
		stmt.Target = ast.InfoNamespace
	case p.curIs(lexer.DATABASE):
		p.advance()
		stmt.Target = ast.InfoDatabase
	case p.curIs(lexer.TABLE):
		p.advance()
		stmt.Target = ast.InfoTable
		if p.curIsIdent() {
			stmt.Name = p.advance().Lit
		}
	default:
		p.acceptWord("root")
		stmt.Target = ast.InfoRoot
	}
	stmt.SetSpan(start, p.pos_())
	return stmt
}

func (p *Parser) parseShowChanges(start ast.Pos) ast.Statement {
	p.advance() // SHOW
	p.expect(lexer.CHANGES)
	p.expect(lexer.FOR)
	p.expect(lexer.TABLE)
	stmt := &ast.ShowChangesStatement{}
	if p.curIsIdent() {
		stmt.Table = p.advance().Lit
	}
	if p.acceptWord("since") {
		stmt.Since = p.parseExpr(0)
	}
	if p.accept(lexer.LIMIT) {
		stmt.Limit = p.parseExpr(0)
	}
	stmt.SetSpan(start, p.pos_())
	return stmt
}

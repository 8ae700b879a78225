package parser

import (
	"github.com/oxhq/qdb/internal/ast"
	"github.com/oxhq/qdb/internal/lexer"
)

// parseDefine handles the DEFINE family (spec.md §6): NAMESPACE, DATABASE,
// TABLE, FIELD, INDEX, FUNCTION, PARAM, ANALYZER and friends each have their
// own tail grammar, so this dispatches by the keyword right after DEFINE.
func (p *Parser) parseDefine(start ast.Pos) ast.Statement {
	p.advance() // DEFINE
	stmt := &ast.DefineStatement{}

	switch p.cur().Tok {
	case lexer.NAMESPACE:
		p.advance()
		stmt.Kind = ast.DefNamespace
		p.parseIfNotExistsOverwrite(stmt)
		stmt.Name = p.expectIdent()
	case lexer.DATABASE:
		p.advance()
		stmt.Kind = ast.DefDatabase
		p.parseIfNotExistsOverwrite(stmt)
		stmt.Name = p.expectIdent()
	case lexer.TABLE:
		p.advance()
		stmt.Kind = ast.DefTable
		p.parseIfNotExistsOverwrite(stmt)
		stmt.Name = p.expectIdent()
	case lexer.FIELD:
		p.advance()
		stmt.Kind = ast.DefField
		p.parseIfNotExistsOverwrite(stmt)
		stmt.Name = p.parseFieldPathName()
		p.expect(lexer.ON)
		p.accept(lexer.TABLE)
		stmt.OnTable = p.expectIdent()
		p.parseFieldTail(stmt)
	case lexer.INDEX:
		p.advance()
		stmt.Kind = ast.DefIndex
		p.parseIfNotExistsOverwrite(stmt)
		stmt.Name = p.expectIdent()
		p.expect(lexer.ON)
		p.accept(lexer.TABLE)
		stmt.IndexTable = p.expectIdent()
		p.parseIndexTail(stmt)
	case lexer.FUNCTION:
		p.advance()
		stmt.Kind = ast.DefFunction
		p.parseIfNotExistsOverwrite(stmt)
		stmt.Name = p.parseFunctionName()
		stmt.FuncArgs = p.parseFuncArgs()
		if p.curIs(lexer.LBRACE) {
			stmt.FuncBody = p.parseBlockExpr()
		} else {
			p.errorf("expected '{' to start function body, got %s", p.cur().Tok)
		}
	case lexer.PARAM_KW:
		p.advance()
		stmt.Kind = ast.DefParam
		p.parseIfNotExistsOverwrite(stmt)
		if p.curIs(lexer.PARAM) {
			stmt.Name = p.advance().Lit
		}
		p.acceptWord("value")
		stmt.ParamValue = p.parseExpr(0)
	case lexer.ANALYZER:
		p.advance()
		stmt.Kind = ast.DefAnalyzer
		p.parseIfNotExistsOverwrite(stmt)
		stmt.Name = p.expectIdent()
		p.skipToStatementEnd()
	case lexer.ACCESS:
		p.advance()
		stmt.Kind = ast.DefAccess
		p.parseIfNotExistsOverwrite(stmt)
		stmt.Name = p.expectIdent()
		p.skipToStatementEnd()
	case lexer.USER:
		p.advance()
		stmt.Kind = ast.DefUser
		p.parseIfNotExistsOverwrite(stmt)
		stmt.Name = p.expectIdent()
		p.skipToStatementEnd()
	case lexer.EVENT:
		p.advance()
		stmt.Kind = ast.DefEvent
		p.parseIfNotExistsOverwrite(stmt)
		stmt.Name = p.expectIdent()
		p.skipToStatementEnd()
	case lexer.MODEL:
		p.advance()
		stmt.Kind = ast.DefModel
		p.parseIfNotExistsOverwrite(stmt)
		stmt.Name = p.expectIdent()
		p.skipToStatementEnd()
	case lexer.SCOPE:
		p.advance()
		stmt.Kind = ast.DefScope
		p.parseIfNotExistsOverwrite(stmt)
		stmt.Name = p.expectIdent()
		p.skipToStatementEnd()
	case lexer.TOKEN_KW:
		p.advance()
		stmt.Kind = ast.DefToken
		p.parseIfNotExistsOverwrite(stmt)
		stmt.Name = p.expectIdent()
		p.skipToStatementEnd()
	default:
		p.errorf("expected a DEFINE target, got %s", p.cur().Tok)
	}

	stmt.SetSpan(start, p.pos_())
	return stmt
}

func (p *Parser) parseIfNotExistsOverwrite(stmt *ast.DefineStatement) {
	if p.curIs(lexer.IF) {
		p.advance()
		p.accept(lexer.NOT)
		p.accept(lexer.EXISTS)
		stmt.IfNotExists = true
		return
	}
	if p.curIs(lexer.OVERWRITE) {
		p.advance()
		stmt.Overwrite = true
	}
}

func (p *Parser) expectIdent() string {
	if p.curIsIdent() {
		return p.advance().Lit
	}
	p.errorf("expected identifier, got %s", p.cur().Tok)
	return ""
}

// parseFieldPathName reads a dotted field path (`address.city`) as one
// name, since DEFINE FIELD targets nested idioms.
func (p *Parser) parseFieldPathName() string {
	name := p.expectIdent()
	for p.curIs(lexer.DOT) {
		p.advance()
		name += "." + p.expectIdent()
	}
	return name
}

func (p *Parser) parseFieldTail(stmt *ast.DefineStatement) {
	for {
		switch {
		case p.curIs(lexer.TYPE):
			p.advance()
			stmt.FieldKind = &ast.FieldKindSpec{Raw: p.parseKindRaw()}
		case p.curIs(lexer.DEFAULT):
			p.advance()
			stmt.Default = p.parseExpr(0)
		case p.curIs(lexer.READONLY):
			p.advance()
			stmt.Readonly = true
		case p.curIs(lexer.ASSERT):
			p.advance()
			stmt.Assert = p.parseExpr(0)
		case p.curIsWord("permissions") || p.curIsWord("comment"):
			p.skipToStatementEnd()
			return
		default:
			return
		}
	}
}

// parseKindRaw reads a structural type annotation (`option<string>`,
// `array<int>`, `record<person|company>`) as raw text; the catalog parses
// it into a value.Kind when the table is defined (spec.md §3/§4.2).
func (p *Parser) parseKindRaw() string {
	out := p.expectIdent()
	if p.curIs(lexer.LT) {
		out += "<"
		p.advance()
		depth := 1
		for depth > 0 && !p.curIs(lexer.EOF) {
			switch p.cur().Tok {
			case lexer.LT:
				depth++
				out += "<"
			case lexer.GT:
				depth--
				out += ">"
			case lexer.PIPE:
				out += "|"
			default:
				out += p.cur().Lit
			}
			p.advance()
		}
	}
	return out
}

func (p *Parser) parseIndexTail(stmt *ast.DefineStatement) {
	if p.accept(lexer.FIELDS) {
		for {
			e := p.parseExpr(0)
			if idiom, ok := e.(*ast.IdiomExpr); ok {
				stmt.IndexColumns = append(stmt.IndexColumns, idiom)
			} else if ident, ok := e.(*ast.Ident); ok {
				stmt.IndexColumns = append(stmt.IndexColumns, ast.NewIdiomExpr(ident.Pos(), ident.End(), ident, nil))
			}
			if !p.accept(lexer.COMMA) {
				break
			}
		}
	}
	switch {
	case p.curIs(lexer.UNIQUE):
		p.advance()
		stmt.IndexKind.Kind = ast.IdxUnique
	case p.curIs(lexer.SEARCH):
		p.advance()
		stmt.IndexKind.Kind = ast.IdxSearch
		p.parseAnalyzerClause(stmt)
	case p.curIs(lexer.FULLTEXT):
		p.advance()
		stmt.IndexKind.Kind = ast.IdxFullText
		p.parseAnalyzerClause(stmt)
	case p.curIs(lexer.MTREE):
		p.advance()
		stmt.IndexKind.Kind = ast.IdxMTree
		p.parseVectorIndexTail(stmt)
	case p.curIs(lexer.HNSW):
		p.advance()
		stmt.IndexKind.Kind = ast.IdxHnsw
		p.parseVectorIndexTail(stmt)
	case p.curIs(lexer.COUNT):
		p.advance()
		stmt.IndexKind.Kind = ast.IdxCount
	default:
		stmt.IndexKind.Kind = ast.IdxNormal
	}
}

func (p *Parser) parseAnalyzerClause(stmt *ast.DefineStatement) {
	if p.curIs(lexer.ANALYZER) {
		p.advance()
		stmt.IndexKind.Analyzer = p.expectIdent()
	}
	p.skipToStatementEnd()
}

func (p *Parser) parseVectorIndexTail(stmt *ast.DefineStatement) {
	if p.acceptWord("dimension") {
		if p.curIs(lexer.INT) {
			n, _ := lexer.ParseIntLiteral(p.advance().Lit)
			stmt.IndexKind.Dimension = int(n)
		}
	}
	if p.acceptWord("dist") {
		stmt.IndexKind.Distance = p.expectIdent()
	}
	p.skipToStatementEnd()
}

func (p *Parser) parseFunctionName() string {
	name := p.expectIdent()
	for p.curIs(lexer.DCOLON) {
		p.advance()
		name += "::" + p.expectIdent()
	}
	return name
}

func (p *Parser) parseFuncArgs() []ast.FuncArg {
	p.expect(lexer.LPAREN)
	var args []ast.FuncArg
	for !p.curIs(lexer.RPAREN) && !p.curIs(lexer.EOF) {
		var name string
		if p.curIs(lexer.PARAM) {
			name = p.advance().Lit
		} else {
			name = p.expectIdent()
		}
		var kind *ast.FieldKindSpec
		if p.accept(lexer.COLON) {
			kind = &ast.FieldKindSpec{Raw: p.parseKindRaw()}
		}
		args = append(args, ast.FuncArg{Name: name, Kind: kind})
		if !p.accept(lexer.COMMA) {
			break
		}
	}
	p.expect(lexer.RPAREN)
	return args
}

// skipToStatementEnd discards tokens belonging to DEFINE clauses this
// parser doesn't model structurally yet (PERMISSIONS, COMMENT) without
// losing statement-boundary sync.
func (p *Parser) skipToStatementEnd() {
	for !p.curIsAny(lexer.SEMICOLON, lexer.EOF) {
		p.advance()
	}
}

func (p *Parser) parseRemove(start ast.Pos) ast.Statement {
	p.advance() // REMOVE
	stmt := &ast.RemoveStatement{}
	switch p.cur().Tok {
	case lexer.NAMESPACE:
		p.advance()
		stmt.Kind = ast.DefNamespace
	case lexer.DATABASE:
		p.advance()
		stmt.Kind = ast.DefDatabase
	case lexer.TABLE:
		p.advance()
		stmt.Kind = ast.DefTable
	case lexer.FIELD:
		p.advance()
		stmt.Kind = ast.DefField
	case lexer.INDEX:
		p.advance()
		stmt.Kind = ast.DefIndex
	case lexer.FUNCTION:
		p.advance()
		stmt.Kind = ast.DefFunction
	case lexer.PARAM_KW:
		p.advance()
		stmt.Kind = ast.DefParam
	case lexer.ANALYZER:
		p.advance()
		stmt.Kind = ast.DefAnalyzer
	case lexer.ACCESS:
		p.advance()
		stmt.Kind = ast.DefAccess
	case lexer.USER:
		p.advance()
		stmt.Kind = ast.DefUser
	case lexer.EVENT:
		p.advance()
		stmt.Kind = ast.DefEvent
	default:
		p.errorf("expected a REMOVE target, got %s", p.cur().Tok)
	}

	if p.curIs(lexer.IF) {
		p.advance()
		p.accept(lexer.EXISTS)
		stmt.IfExists = true
	}

	if stmt.Kind == ast.DefParam && p.curIs(lexer.PARAM) {
		stmt.Name = p.advance().Lit
	} else {
		stmt.Name = p.expectIdent()
	}

	if p.accept(lexer.ON) {
		p.accept(lexer.TABLE)
		stmt.OnTable = p.expectIdent()
	}

	stmt.SetSpan(start, p.pos_())
	return stmt
}

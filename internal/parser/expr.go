package parser

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/oxhq/qdb/internal/ast"
	"github.com/oxhq/qdb/internal/lexer"
	"github.com/oxhq/qdb/internal/value"
)

// binOpInfo is one entry of the Pratt binding-power ladder, spec.md §4.1:
// ?? ?: then OR, AND, equality, relational/contains/inside, range,
// additive, multiplicative, then ** (right-associative, tightest).
type binOpInfo struct {
	op       ast.BinaryOp
	bp       int
	rightAssoc bool
}

var binOpTable = map[lexer.Token]binOpInfo{
	lexer.QUESTIONQUESTION: {ast.OpNullCoalesce, 1, false},
	lexer.QUESTIONCOLON:    {ast.OpTernaryElse, 1, false},
	lexer.OR:               {ast.OpOr, 2, false},
	lexer.AND:              {ast.OpAnd, 3, false},
	lexer.EQ:               {ast.OpEq, 4, false},
	lexer.NEQ:              {ast.OpNeq, 4, false},
	lexer.LT:               {ast.OpLt, 5, false},
	lexer.LTE:              {ast.OpLte, 5, false},
	lexer.GT:               {ast.OpGt, 5, false},
	lexer.GTE:              {ast.OpGte, 5, false},
	lexer.CONTAINS:         {ast.OpContains, 5, false},
	lexer.CONTAINSNOT:      {ast.OpContainsNot, 5, false},
	lexer.CONTAINSALL:      {ast.OpContainsAll, 5, false},
	lexer.CONTAINSANY:      {ast.OpContainsAny, 5, false},
	lexer.CONTAINSNONE:     {ast.OpContainsNone, 5, false},
	lexer.INSIDE:           {ast.OpInside, 5, false},
	lexer.IN:               {ast.OpInside, 5, false},
	lexer.INSIDENOT:        {ast.OpInsideNot, 5, false},
	lexer.INSIDEALL:        {ast.OpInsideAll, 5, false},
	lexer.INSIDEANY:        {ast.OpInsideAny, 5, false},
	lexer.INSIDENONE:       {ast.OpInsideNone, 5, false},
	lexer.ATAT:             {ast.OpMatches, 5, false},
	lexer.DOTDOT:           {ast.OpRange, 6, false},
	lexer.DOTDOTEQ:         {ast.OpRangeInc, 6, false},
	lexer.PLUS:             {ast.OpAdd, 7, false},
	lexer.MINUS:            {ast.OpSub, 7, false},
	lexer.STAR:             {ast.OpMul, 8, false},
	lexer.MULTIPLY_UNI:     {ast.OpMul, 8, false},
	lexer.SLASH:            {ast.OpDiv, 8, false},
	lexer.DIVIDE_UNI:       {ast.OpDiv, 8, false},
	lexer.PERCENT:          {ast.OpRem, 8, false},
	lexer.POW:              {ast.OpPow, 9, true},
}

// ParseExpr parses a single expression from src (used by the CLI's
// `explain`/REPL to evaluate a bare expression without a statement).
func ParseExpr(src string) (ast.Expr, error) {
	items, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := New(items)
	e := p.parseExpr(0)
	if len(p.errs) > 0 {
		return nil, p.errs[0]
	}
	return e, nil
}

func (p *Parser) parseExpr(minBp int) ast.Expr {
	lhs := p.parseUnary()
	for {
		info, ok := binOpTable[p.cur().Tok]
		if !ok || info.bp < minBp {
			return lhs
		}
		start := ast.Pos(0)
		if n, ok2 := lhs.(interface{ Pos() ast.Pos }); ok2 {
			start = n.Pos()
		}
		p.advance()
		nextMin := info.bp + 1
		if info.rightAssoc {
			nextMin = info.bp
		}
		rhs := p.parseExpr(nextMin)
		end := p.pos_()
		lhs = ast.NewBinaryExpr(start, end, info.op, lhs, rhs)
	}
}

func (p *Parser) parseUnary() ast.Expr {
	start := p.pos_()
	switch p.cur().Tok {
	case lexer.NOT:
		p.advance()
		operand := p.parseUnary()
		return ast.NewUnaryExpr(start, p.pos_(), ast.OpNot, operand)
	case lexer.MINUS:
		p.advance()
		operand := p.parseUnary()
		return ast.NewUnaryExpr(start, p.pos_(), ast.OpNeg, operand)
	case lexer.PLUS:
		p.advance()
		operand := p.parseUnary()
		return ast.NewUnaryExpr(start, p.pos_(), ast.OpPos, operand)
	default:
		return p.parsePostfix()
	}
}

// parsePostfix parses a primary expression then attaches any idiom parts
// that follow it (field access, indexing, graph edges, method calls) —
// spec.md §4.3.
func (p *Parser) parsePostfix() ast.Expr {
	start := p.pos_()
	base := p.parsePrimary()
	parts := p.parseIdiomParts()
	if len(parts) == 0 {
		return base
	}
	return ast.NewIdiomExpr(start, p.pos_(), base, parts)
}

func (p *Parser) parsePrimary() ast.Expr {
	start := p.pos_()
	it := p.cur()
	switch it.Tok {
	case lexer.INT:
		p.advance()
		i, err := lexer.ParseIntLiteral(it.Lit)
		if err != nil {
			p.errorf("invalid integer literal %q", it.Lit)
			return ast.NewLiteral(start, p.pos_(), value.None)
		}
		return ast.NewLiteral(start, p.pos_(), value.NewInt(i))
	case lexer.FLOAT:
		p.advance()
		f, err := lexer.ParseFloatLiteral(it.Lit)
		if err != nil {
			p.errorf("invalid float literal %q", it.Lit)
			return ast.NewLiteral(start, p.pos_(), value.None)
		}
		return ast.NewLiteral(start, p.pos_(), value.NewFloat(f))
	case lexer.DECIMAL:
		p.advance()
		r, ok := new(big.Rat).SetString(it.Lit)
		if !ok {
			p.errorf("invalid decimal literal %q", it.Lit)
			return ast.NewLiteral(start, p.pos_(), value.None)
		}
		return ast.NewLiteral(start, p.pos_(), value.NewNumber(value.DecimalNumber(r)))
	case lexer.DURATION:
		p.advance()
		d, ok := value.ParseDuration(it.Lit)
		if !ok {
			p.errorf("invalid duration literal %q", it.Lit)
			return ast.NewLiteral(start, p.pos_(), value.None)
		}
		return ast.NewLiteral(start, p.pos_(), value.NewDuration(d))
	case lexer.STRING, lexer.STRAND_STRING:
		p.advance()
		return ast.NewLiteral(start, p.pos_(), value.NewString(it.Lit))
	case lexer.DATETIME_STRING:
		p.advance()
		v, err := value.Cast(value.NewString(it.Lit), value.DatetimeK())
		if err != nil {
			p.errorf("invalid datetime literal %q", it.Lit)
			return ast.NewLiteral(start, p.pos_(), value.None)
		}
		return ast.NewLiteral(start, p.pos_(), v)
	case lexer.UUID_STRING:
		p.advance()
		v, err := value.Cast(value.NewString(it.Lit), value.UuidK())
		if err != nil {
			p.errorf("invalid uuid literal %q", it.Lit)
			return ast.NewLiteral(start, p.pos_(), value.None)
		}
		return ast.NewLiteral(start, p.pos_(), v)
	case lexer.RECORD_STRING:
		p.advance()
		rid, err := parseRecordIDText(it.Lit)
		if err != nil {
			p.errorf("invalid record id literal %q", it.Lit)
			return ast.NewLiteral(start, p.pos_(), value.None)
		}
		return ast.NewLiteral(start, p.pos_(), value.NewRecordID(rid))
	case lexer.PARAM:
		p.advance()
		return ast.NewParam(start, p.pos_(), it.Lit)
	case lexer.TRUE:
		p.advance()
		return ast.NewLiteral(start, p.pos_(), value.NewBool(true))
	case lexer.FALSE:
		p.advance()
		return ast.NewLiteral(start, p.pos_(), value.NewBool(false))
	case lexer.NULL:
		p.advance()
		return ast.NewLiteral(start, p.pos_(), value.Null)
	case lexer.NONE:
		p.advance()
		return ast.NewLiteral(start, p.pos_(), value.None)
	case lexer.LPAREN:
		return p.parseParenOrSubquery(start)
	case lexer.LBRACKET:
		return p.parseArrayLiteral(start)
	case lexer.LBRACE:
		return p.parseObjectLiteral(start)
	case lexer.PIPE:
		return p.parseClosure(start)
	case lexer.IF:
		return p.parseIfExpr(start)
	case lexer.IDENT:
		return p.parseIdentOrCall(start)
	default:
		if lexer.IsKeyword(it.Tok) {
			// A keyword used where an identifier/table name is expected
			// (e.g. `SELECT * FROM type`).
			p.advance()
			return ast.NewIdent(start, p.pos_(), it.Lit)
		}
		p.errorf("unexpected token %s %q", it.Tok, it.Lit)
		p.advance()
		return ast.NewLiteral(start, p.pos_(), value.None)
	}
}

func (p *Parser) parseParenOrSubquery(start ast.Pos) ast.Expr {
	p.advance() // (
	if p.curIsAny(lexer.SELECT, lexer.CREATE, lexer.UPDATE, lexer.UPSERT, lexer.DELETE, lexer.INSERT, lexer.RELATE) {
		stmt := p.parseStatement()
		p.expect(lexer.RPAREN)
		return ast.NewSubqueryExpr(start, p.pos_(), stmt)
	}
	e := p.parseExpr(0)
	p.expect(lexer.RPAREN)
	return e
}

func (p *Parser) parseArrayLiteral(start ast.Pos) ast.Expr {
	p.advance() // [
	var elems []ast.Expr
	for !p.curIs(lexer.RBRACKET) && !p.curIs(lexer.EOF) {
		elems = append(elems, p.parseExpr(0))
		if !p.accept(lexer.COMMA) {
			break
		}
	}
	p.expect(lexer.RBRACKET)
	return ast.NewArrayExpr(start, p.pos_(), elems)
}

func (p *Parser) parseObjectLiteral(start ast.Pos) ast.Expr {
	p.advance() // {
	var fields []ast.ObjectField
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		var key string
		switch {
		case p.curIs(lexer.STRING):
			key = p.advance().Lit
		case p.curIsIdent():
			key = p.advance().Lit
		default:
			p.errorf("expected object key, got %s", p.cur().Tok)
		}
		p.expect(lexer.COLON)
		val := p.parseExpr(0)
		fields = append(fields, ast.ObjectField{Key: key, Value: val})
		if !p.accept(lexer.COMMA) {
			break
		}
	}
	p.expect(lexer.RBRACE)
	return ast.NewObjectExpr(start, p.pos_(), fields)
}

// parseClosure parses `|$a, $b| expr` (spec.md §4.6 closures/Where parts).
func (p *Parser) parseClosure(start ast.Pos) ast.Expr {
	p.advance() // |
	var params []string
	for !p.curIs(lexer.PIPE) && !p.curIs(lexer.EOF) {
		if p.curIs(lexer.PARAM) {
			params = append(params, p.advance().Lit)
		} else if p.curIsIdent() {
			params = append(params, p.advance().Lit)
		} else {
			p.errorf("expected closure parameter, got %s", p.cur().Tok)
			break
		}
		if !p.accept(lexer.COMMA) {
			break
		}
	}
	p.expect(lexer.PIPE)
	var body ast.Expr
	if p.curIs(lexer.LBRACE) {
		body = p.parseBlockExpr()
	} else {
		body = p.parseExpr(0)
	}
	return ast.NewClosureExpr(start, p.pos_(), params, body)
}

// parseBlockExpr parses `{ stmt; stmt; expr }` as a single expression value
// (the block's last statement's value), wrapped as a SubqueryExpr over a
// BlockStatement for the evaluator to unwind.
func (p *Parser) parseBlockExpr() ast.Expr {
	start := p.pos_()
	p.advance() // {
	var body []ast.Statement
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		body = append(body, p.parseStatement())
		for p.curIs(lexer.SEMICOLON) {
			p.advance()
		}
	}
	p.expect(lexer.RBRACE)
	blk := &ast.BlockStatement{Body: body}
	blk.SetSpan(start, p.pos_())
	return ast.NewSubqueryExpr(start, p.pos_(), blk)
}

func (p *Parser) parseIfExpr(start ast.Pos) ast.Expr {
	p.advance() // IF
	cond := p.parseExpr(0)
	p.expect(lexer.THEN)
	then := p.parseExpr(0)
	var els ast.Expr
	if p.accept(lexer.ELSE) {
		if p.curIs(lexer.IF) {
			els = p.parseIfExpr(p.pos_())
		} else {
			els = p.parseExpr(0)
		}
	}
	p.accept(lexer.END)
	return ast.NewIfExpr(start, p.pos_(), cond, then, els)
}

// parseIdentOrCall disambiguates a bare identifier from a `a::b::c(...)`
// builtin/function call, a `table:key` record id literal, and a table name
// used as an idiom base.
func (p *Parser) parseIdentOrCall(start ast.Pos) ast.Expr {
	name := p.advance().Lit
	dotted := false
	for p.curIs(lexer.DCOLON) {
		dotted = true
		p.advance()
		if !p.curIsIdent() {
			p.errorf("expected identifier after '::', got %s", p.cur().Tok)
			break
		}
		name += "::" + p.advance().Lit
	}
	if p.curIs(lexer.LPAREN) {
		args := p.parseArgs()
		return ast.NewFuncCall(start, p.pos_(), name, args)
	}
	if !dotted && p.curIs(lexer.COLON) {
		p.advance()
		key := p.parseRecordIDKey()
		rid := &value.RecordID{Table: name, Key: key}
		return ast.NewLiteral(start, p.pos_(), value.NewRecordID(rid))
	}
	return ast.NewIdent(start, p.pos_(), name)
}

// parseRecordIDKey reads the key half of a bare `table:key` record id
// (spec.md §3 RecordId): int, string and identifier keys, plus array keys
// (`table:[1,2]`) built from the array literal's literal elements only
// (non-literal elements are dropped). Object and range keys are not parsed
// here.
func (p *Parser) parseRecordIDKey() value.RecordIDKey {
	switch p.cur().Tok {
	case lexer.INT:
		lit := p.advance().Lit
		i, err := lexer.ParseIntLiteral(lit)
		if err != nil {
			p.errorf("invalid record id key %q", lit)
			return value.StringKey(lit)
		}
		return value.IntKey(i)
	case lexer.STRING, lexer.STRAND_STRING:
		return value.StringKey(p.advance().Lit)
	case lexer.LBRACKET:
		e := p.parseArrayLiteral(p.pos_())
		arr, _ := e.(*ast.ArrayExpr)
		vals := make([]value.Value, 0, len(arr.Elems))
		for _, el := range arr.Elems {
			if lit, ok := el.(*ast.Literal); ok {
				vals = append(vals, lit.Val)
			}
		}
		return value.ArrayKey(vals)
	default:
		if p.curIsIdent() {
			return value.StringKey(p.advance().Lit)
		}
		p.errorf("expected record id key, got %s", p.cur().Tok)
		return value.StringKey("")
	}
}

func (p *Parser) parseArgs() []ast.Expr {
	p.advance() // (
	var args []ast.Expr
	for !p.curIs(lexer.RPAREN) && !p.curIs(lexer.EOF) {
		args = append(args, p.parseExpr(0))
		if !p.accept(lexer.COMMA) {
			break
		}
	}
	p.expect(lexer.RPAREN)
	return args
}

// parseRecordIDText parses `table:id` out of an r"..." literal's contents.
func parseRecordIDText(s string) (*value.RecordID, error) {
	idx := strings.IndexByte(s, ':')
	if idx < 0 {
		return nil, fmt.Errorf("record id %q missing ':'", s)
	}
	table := s[:idx]
	idStr := s[idx+1:]
	var key value.RecordIDKey
	if i, err := lexer.ParseIntLiteral(idStr); err == nil {
		key = value.IntKey(i)
	} else {
		key = value.StringKey(idStr)
	}
	return &value.RecordID{Table: table, Key: key}, nil
}

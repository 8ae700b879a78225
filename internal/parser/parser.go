// Package parser implements a recursive-descent / Pratt parser that turns a
// lexer.Item stream into an *ast.Query, covering the SurrealQL-like surface
// grammar of spec.md §6.
//
// The overall shape — single current-token lookahead, an accumulated error
// list, advance/curIs/expect navigation helpers — is grounded on the pack's
// freeeve-machparse/parser package, generalized from machparse's flat SQL
// grammar to SurrealQL's idiom paths, multi-statement transactions, and
// expression-position control flow (IF/closures).
package parser

import (
	"fmt"
	"strings"

	"github.com/oxhq/qdb/internal/ast"
	"github.com/oxhq/qdb/internal/lexer"
	"github.com/oxhq/qdb/internal/qerr"
)

// ParseError carries a byte-offset span, unlike machparse's line/column
// form, since spec.md's error model (qerr.Span) is offset-based throughout.
type ParseError struct {
	Span    qerr.Span
	Message string
}

func (e *ParseError) Error() string { return e.Message }

// Parser holds the full token stream (produced up-front by lexer.Tokenize,
// since statement parsing needs unbounded lookahead for things like
// distinguishing `CREATE foo` from `CREATE (SELECT ...)`) plus a cursor.
type Parser struct {
	items []lexer.Item
	pos   int
	errs  []*ParseError
}

// New wraps an already-tokenized item stream.
func New(items []lexer.Item) *Parser {
	return &Parser{items: items}
}

// Parse tokenizes src and parses every statement it contains into a Query.
func Parse(src string) (*ast.Query, error) {
	items, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := New(items)
	return p.ParseQuery()
}

// ParseQuery parses statements separated by ';' until EOF.
func (p *Parser) ParseQuery() (*ast.Query, error) {
	q := &ast.Query{}
	for !p.curIs(lexer.EOF) {
		for p.curIs(lexer.SEMICOLON) {
			p.advance()
		}
		if p.curIs(lexer.EOF) {
			break
		}
		stmt := p.parseStatement()
		if len(p.errs) > 0 {
			return q, p.errs[0]
		}
		if stmt != nil {
			q.Statements = append(q.Statements, stmt)
		}
		for p.curIs(lexer.SEMICOLON) {
			p.advance()
		}
	}
	return q, nil
}

func (p *Parser) cur() lexer.Item {
	if p.pos >= len(p.items) {
		return lexer.Item{Tok: lexer.EOF}
	}
	return p.items[p.pos]
}

func (p *Parser) peekAt(n int) lexer.Item {
	idx := p.pos + n
	if idx >= len(p.items) {
		return lexer.Item{Tok: lexer.EOF}
	}
	return p.items[idx]
}

func (p *Parser) advance() lexer.Item {
	it := p.cur()
	if p.pos < len(p.items) {
		p.pos++
	}
	return it
}

func (p *Parser) curIs(t lexer.Token) bool { return p.cur().Tok == t }

func (p *Parser) curIsAny(toks ...lexer.Token) bool {
	c := p.cur().Tok
	for _, t := range toks {
		if c == t {
			return true
		}
	}
	return false
}

// curIsIdent reports whether the current token can stand in for a bare
// identifier — IDENT itself, or any keyword used contextually as a name
// (e.g. `DEFINE FIELD type ON person` where `type` is a field name).
func (p *Parser) curIsIdent() bool {
	t := p.cur().Tok
	return t == lexer.IDENT || lexer.IsKeyword(t)
}

// curIsWord reports whether the current token is an identifier-like token
// (IDENT or keyword) spelling the given word, case-insensitively — for the
// small set of contextual words (FULL, NOINDEX, COLLATE, SINCE, ...) that
// aren't registered as their own Token.
func (p *Parser) curIsWord(word string) bool {
	return p.curIsIdent() && strings.EqualFold(p.cur().Lit, word)
}

// acceptWord consumes the current token if curIsWord reports true.
func (p *Parser) acceptWord(word string) bool {
	if p.curIsWord(word) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(t lexer.Token) (lexer.Item, bool) {
	if p.curIs(t) {
		return p.advance(), true
	}
	p.errorf("expected %s, got %s %q", t, p.cur().Tok, p.cur().Lit)
	return lexer.Item{}, false
}

func (p *Parser) accept(t lexer.Token) bool {
	if p.curIs(t) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) errorf(format string, args ...any) {
	it := p.cur()
	p.errs = append(p.errs, &ParseError{
		Span:    qerr.Span{Start: it.Start, End: it.End},
		Message: fmt.Sprintf(format, args...),
	})
}

func (p *Parser) pos_() ast.Pos { return ast.Pos(p.cur().Start) }

package parser

import (
	"github.com/oxhq/qdb/internal/ast"
	"github.com/oxhq/qdb/internal/lexer"
)

// parseIdiomParts consumes every trailing navigation step after a base
// expression: `.field`, `[index]`, `[*]`, `[WHERE cond]`, `.method(args)`,
// `->edge->`/`<-edge<-`/`<->edge<->`, `?`, `.{...}` destructure — spec.md
// §4.3's Idiom grammar.
func (p *Parser) parseIdiomParts() []ast.Part {
	var parts []ast.Part
	for {
		switch p.cur().Tok {
		case lexer.DOT:
			parts = append(parts, p.parseDotPart())
		case lexer.LBRACKET:
			parts = append(parts, p.parseBracketPart())
		case lexer.ARROW_OUT, lexer.ARROW_IN, lexer.ARROW_BOTH:
			parts = append(parts, p.parseGraphPart())
		case lexer.QUESTION:
			p.advance()
			parts = append(parts, ast.Part{Kind: ast.PartOptional})
		default:
			return parts
		}
	}
}

func (p *Parser) parseDotPart() ast.Part {
	p.advance() // .
	switch p.cur().Tok {
	case lexer.STAR, lexer.MULTIPLY_UNI:
		p.advance()
		return ast.Part{Kind: ast.PartAll}
	case lexer.LBRACE:
		return ast.Part{Kind: ast.PartDestructure, Destructure: p.parseDestructureBody()}
	default:
		if !p.curIsIdent() {
			p.errorf("expected field name after '.', got %s", p.cur().Tok)
			return ast.Part{Kind: ast.PartField}
		}
		name := p.advance().Lit
		if p.curIs(lexer.LPAREN) {
			args := p.parseArgs()
			return ast.Part{Kind: ast.PartMethod, MethodName: name, MethodArgs: args}
		}
		switch name {
		case "first":
			return ast.Part{Kind: ast.PartFirst}
		case "last":
			return ast.Part{Kind: ast.PartLast}
		case "flatten":
			return ast.Part{Kind: ast.PartFlatten}
		default:
			return ast.Part{Kind: ast.PartField, Field: name}
		}
	}
}

func (p *Parser) parseDestructureBody() []ast.DestructurePart {
	p.advance() // {
	var fields []ast.DestructurePart
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		if !p.curIsIdent() {
			p.errorf("expected field name in destructure, got %s", p.cur().Tok)
			break
		}
		name := p.advance().Lit
		var inner []ast.Part
		if p.curIs(lexer.DOT) || p.curIs(lexer.LBRACKET) {
			inner = p.parseIdiomParts()
		}
		fields = append(fields, ast.DestructurePart{Field: name, Inner: inner})
		if !p.accept(lexer.COMMA) {
			break
		}
	}
	p.expect(lexer.RBRACE)
	return fields
}

func (p *Parser) parseBracketPart() ast.Part {
	p.advance() // [
	switch {
	case p.curIs(lexer.STAR) || p.curIs(lexer.MULTIPLY_UNI):
		p.advance()
		p.expect(lexer.RBRACKET)
		return ast.Part{Kind: ast.PartAll}
	case p.curIs(lexer.QUESTION) || p.curIs(lexer.WHERE):
		p.advance()
		cond := p.parseExpr(0)
		p.expect(lexer.RBRACKET)
		return ast.Part{Kind: ast.PartWhere, Where: cond}
	default:
		idx := p.parseExpr(0)
		p.expect(lexer.RBRACKET)
		return ast.Part{Kind: ast.PartIndex, Index: idx}
	}
}

// parseGraphPart parses one hop of `->edge->`, `<-edge<-`, `<->edge<->`,
// optionally with a WHERE filter or alias (spec.md §4.3 graph traversal,
// §6 "RELATE"/graph-query surface).
func (p *Parser) parseGraphPart() ast.Part {
	var dir ast.GraphDir
	switch p.advance().Tok {
	case lexer.ARROW_OUT:
		dir = ast.DirOut
	case lexer.ARROW_IN:
		dir = ast.DirIn
	case lexer.ARROW_BOTH:
		dir = ast.DirBoth
	}

	part := ast.Part{Kind: ast.PartGraph, GraphDir: dir}

	if p.curIs(lexer.LPAREN) {
		p.advance()
		p.parseGraphInner(&part)
		p.expect(lexer.RPAREN)
	} else if p.curIsIdent() {
		part.GraphEdges = append(part.GraphEdges, p.advance().Lit)
		for p.accept(lexer.PIPE) {
			if p.curIsIdent() {
				part.GraphEdges = append(part.GraphEdges, p.advance().Lit)
			}
		}
	}

	// Consume the closing arrow of the `->edge->` bracket, if present
	// (absent at a path's tail, e.g. `person->likes`).
	if p.curIsAny(lexer.ARROW_OUT, lexer.ARROW_IN, lexer.ARROW_BOTH) {
		p.advance()
	}
	return part
}

func (p *Parser) parseGraphInner(part *ast.Part) {
	if p.curIsIdent() {
		part.GraphEdges = append(part.GraphEdges, p.advance().Lit)
		for p.accept(lexer.PIPE) {
			if p.curIsIdent() {
				part.GraphEdges = append(part.GraphEdges, p.advance().Lit)
			}
		}
	}
	if p.accept(lexer.WHERE) {
		part.GraphWhere = p.parseExpr(0)
	}
	if p.accept(lexer.LIMIT) {
		part.GraphLimit = p.parseExpr(0)
	}
	if p.accept(lexer.AS) {
		if p.curIsIdent() {
			part.GraphAlias = p.advance().Lit
		}
	}
}

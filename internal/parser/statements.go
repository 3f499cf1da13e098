package parser

import (
	"github.com/Yiergot/vehicle/internal/ast"
	"github.com/Yiergot/vehicle/internal/token"
)

// parseDecl parses one top-level declaration (spec.md §6): `network`,
// `dataset`, `type`, a bare signature, or a definition that must be
// preceded by its signature.
func (p *Parser) parseDecl() (ast.Decl, error) {
	switch p.cur.Type {
	case token.NETWORK:
		return p.parseNetworkOrDataset(true)
	case token.DATASET:
		return p.parseNetworkOrDataset(false)
	case token.TYPE:
		return p.parseTypeSynonym()
	case token.IDENT:
		return p.parseSignatureOrDefinition()
	default:
		return nil, &ParseError{Msg: "expected a declaration (network/dataset/type/identifier)", Prov: p.cur.Prov}
	}
}

func (p *Parser) parseNetworkOrDataset(isNetwork bool) (ast.Decl, error) {
	start := p.cur.Prov
	p.advance() // `network` / `dataset`
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.COLON); err != nil {
		return nil, err
	}
	ty, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMI); err != nil {
		return nil, err
	}
	if isNetwork {
		return ast.NewDeclNetw(start, name.Lexeme, ty), nil
	}
	return ast.NewDeclData(start, name.Lexeme, ty), nil
}

// parseTypeSynonym desugars `type NAME BINDERS = EXPR ;` into a DefFun
// whose declared type is `Type 0` and whose body wraps EXPR in one Lam
// per binder — a simplification: a fully general
// type-level function could need a higher universe, but every type
// synonym a property actually needs (tensor shape aliases, and the
// like) lives at Type 0.
func (p *Parser) parseTypeSynonym() (ast.Decl, error) {
	start := p.cur.Prov
	p.advance() // `type`
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	binders, err := p.parseBinderList(token.ASSIGN)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.ASSIGN); err != nil {
		return nil, err
	}
	body, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMI); err != nil {
		return nil, err
	}
	wrapped := wrapLams(binders, body)
	u0 := &ast.UniverseExpr{Ann: ast.Ann{Prov: start}, Level: 0}
	p.signatures[name.Lexeme] = u0
	return ast.NewDefFun(start, name.Lexeme, u0, wrapped), nil
}

// parseSignatureOrDefinition handles both `NAME : EXPR ;` and `NAME
// BINDERS = EXPR ;`, distinguishing on whether `:` or (binders then)
// `=` follows the identifier.
func (p *Parser) parseSignatureOrDefinition() (ast.Decl, error) {
	start := p.cur.Prov
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}

	if p.curIs(token.COLON) {
		p.advance()
		ty, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.SEMI); err != nil {
			return nil, err
		}
		p.signatures[name.Lexeme] = ty
		return nil, nil // a bare signature produces no Decl by itself
	}

	binders, err := p.parseBinderList(token.ASSIGN)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.ASSIGN); err != nil {
		return nil, err
	}
	body, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMI); err != nil {
		return nil, err
	}

	ty, ok := p.signatures[name.Lexeme]
	if !ok {
		return nil, &ParseError{Msg: "definition of " + name.Lexeme + " has no preceding signature", Prov: start}
	}
	return ast.NewDefFun(start, name.Lexeme, ty, wrapLams(binders, body)), nil
}

// wrapLams wraps body in one LamExpr per binder, innermost binder
// closest to body, matching the surface order `f (x : A) (y : B) = e`
// desugaring to `f = \(x : A) -> \(y : B) -> e` (spec.md §3 "Defined
// function").
func wrapLams(binders []ast.Binder, body ast.Expr) ast.Expr {
	for i := len(binders) - 1; i >= 0; i-- {
		body = &ast.LamExpr{Ann: ast.Ann{Prov: binders[i].Prov}, Binder: binders[i], Body: body}
	}
	return body
}

// parseBinderList parses zero or more surface binders up to (not
// including) stopAt: `x`, `(x : T)`, `{x}`, `{x : T}` (spec.md §6
// "Binders are x, (x : T), {x}, or {x : T}").
func (p *Parser) parseBinderList(stopAt token.Type) ([]ast.Binder, error) {
	var out []ast.Binder
	for !p.curIs(stopAt) && !p.curIs(token.EOF) {
		b, err := p.parseBinder()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (p *Parser) parseBinder() (ast.Binder, error) {
	prov := p.cur.Prov
	switch p.cur.Type {
	case token.IDENT:
		name := p.cur.Lexeme
		p.advance()
		return ast.Binder{Prov: prov, Origin: ast.OriginUser, Visibility: ast.Explicit, Name: &name, Type: &ast.HoleExpr{Ann: ast.Ann{Prov: prov}, Name: name}}, nil

	case token.LPAREN:
		p.advance()
		name, err := p.expect(token.IDENT)
		if err != nil {
			return ast.Binder{}, err
		}
		var ty ast.Expr = &ast.HoleExpr{Ann: ast.Ann{Prov: prov}, Name: name.Lexeme}
		if p.curIs(token.COLON) {
			p.advance()
			ty, err = p.parseExpr(precLowest)
			if err != nil {
				return ast.Binder{}, err
			}
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return ast.Binder{}, err
		}
		n := name.Lexeme
		return ast.Binder{Prov: prov, Origin: ast.OriginUser, Visibility: ast.Explicit, Name: &n, Type: ty}, nil

	case token.LBRACE:
		p.advance()
		name, err := p.expect(token.IDENT)
		if err != nil {
			return ast.Binder{}, err
		}
		var ty ast.Expr = &ast.HoleExpr{Ann: ast.Ann{Prov: prov}, Name: name.Lexeme}
		if p.curIs(token.COLON) {
			p.advance()
			ty, err = p.parseExpr(precLowest)
			if err != nil {
				return ast.Binder{}, err
			}
		}
		if _, err := p.expect(token.RBRACE); err != nil {
			return ast.Binder{}, err
		}
		n := name.Lexeme
		return ast.Binder{Prov: prov, Origin: ast.OriginUser, Visibility: ast.Implicit, Name: &n, Type: ty}, nil

	default:
		return ast.Binder{}, &ParseError{Msg: "expected a binder", Prov: prov}
	}
}

package parser

import (
	"fmt"

	"github.com/Yiergot/vehicle/internal/ast"
	"github.com/Yiergot/vehicle/internal/lexer"
	"github.com/Yiergot/vehicle/internal/token"
)

// Precedence levels, loosest to tightest, following spec.md §6's ordering:
// forall/\/let/if bind their body as far right as possible (they are
// parsed as prefix forms that recurse at precLowest, not as entries in
// this ladder); `->` is next-loosest since a whole signature is a chain
// of arrows, then `=>`, `and`, `or`, comparisons, `+`/`-`, `*`/`/`, `::`,
// `!`. Application (juxtaposition) binds tighter than any of these.
const (
	precLowest = iota
	precArrow
	precImplies
	precAnd
	precOr
	precCompare
	precAdd
	precMul
	precUnary
	precCons
	precAt
)

var binaryPrec = map[token.Type]int{
	token.ARROW: precArrow,
	token.DARROW: precImplies,
	token.AND:   precAnd,
	token.OR:    precOr,
	token.EQ:    precCompare, token.NEQ: precCompare,
	token.LE: precCompare, token.LT: precCompare, token.GE: precCompare, token.GT: precCompare,
	token.PLUS: precAdd, token.MINUS: precAdd,
	token.STAR: precMul, token.SLASH: precMul,
	token.CONS: precCons,
	token.BANG: precAt,
}

// rightAssoc holds the operators that associate to the right; everything
// else in binaryPrec is left-associative.
var rightAssoc = map[token.Type]bool{
	token.ARROW: true,
	token.DARROW: true,
	token.CONS:  true,
}

func startsAtom(t token.Type) bool {
	switch t {
	case token.IDENT, token.HOLE, token.INT, token.RATIONAL, token.TRUE, token.FALSE,
		token.LPAREN, token.LBRACKET, token.BOOL, token.PROP, token.NAT, token.INT_TY,
		token.REAL, token.LIST, token.TENSOR:
		return true
	}
	return false
}

// parseExpr is the Pratt entry point: a prefix construct (nud) followed
// by a left-associative (modulo rightAssoc) climb over infix operators
// whose precedence is at least minPrec.
func (p *Parser) parseExpr(minPrec int) (ast.Expr, error) {
	left, err := p.parseNud()
	if err != nil {
		return nil, err
	}
	for {
		prec, ok := binaryPrec[p.cur.Type]
		if !ok || prec < minPrec {
			return left, nil
		}
		opTok := p.cur
		p.advance()
		nextMin := prec + 1
		if rightAssoc[opTok.Type] {
			nextMin = prec
		}
		right, err := p.parseExpr(nextMin)
		if err != nil {
			return nil, err
		}
		left, err = p.buildBinary(opTok, left, right)
		if err != nil {
			return nil, err
		}
	}
}

func (p *Parser) buildBinary(op token.Token, left, right ast.Expr) (ast.Expr, error) {
	if op.Type == token.ARROW {
		return &ast.PiExpr{
			Ann:    ast.Ann{Prov: op.Prov},
			Binder: ast.Binder{Prov: op.Prov, Origin: ast.OriginMachine, Visibility: ast.Explicit, Type: left},
			Result: right,
		}, nil
	}
	var bop ast.BuiltinOp
	switch op.Type {
	case token.DARROW:
		bop = ast.OpImplies
	case token.AND:
		bop = ast.OpAnd
	case token.OR:
		bop = ast.OpOr
	case token.EQ:
		bop = ast.OpEq
	case token.NEQ:
		bop = ast.OpNeq
	case token.LE:
		bop = ast.OpLe
	case token.LT:
		bop = ast.OpLt
	case token.GE:
		bop = ast.OpGe
	case token.GT:
		bop = ast.OpGt
	case token.PLUS:
		bop = ast.OpAdd
	case token.MINUS:
		bop = ast.OpSub
	case token.STAR:
		bop = ast.OpMul
	case token.SLASH:
		bop = ast.OpDiv
	case token.CONS:
		bop = ast.OpCons
	case token.BANG:
		bop = ast.OpAt
	default:
		return nil, &ParseError{Msg: fmt.Sprintf("unexpected operator %s", op.Type), Prov: op.Prov}
	}
	fn := &ast.BuiltinExpr{Ann: ast.Ann{Prov: op.Prov}, Op: bop}
	return ast.NewApp(op.Prov,
		fn,
		ast.Argument{Prov: op.Prov, Origin: ast.OriginUser, Visibility: ast.Explicit, Value: left},
		ast.Argument{Prov: op.Prov, Origin: ast.OriginUser, Visibility: ast.Explicit, Value: right},
	), nil
}

// parseNud parses a prefix construct or, failing that, an application
// chain of primaries.
func (p *Parser) parseNud() (ast.Expr, error) {
	switch p.cur.Type {
	case token.FORALL:
		return p.parseForall()
	case token.LBRACE:
		return p.parseImplicitArrowBinder()
	case token.LAMBDA:
		return p.parseLambda()
	case token.LET:
		return p.parseLet()
	case token.IF:
		return p.parseIf()
	case token.NOT:
		prov := p.cur.Prov
		p.advance()
		arg, err := p.parseExpr(precCompare)
		if err != nil {
			return nil, err
		}
		return ast.NewApp(prov, &ast.BuiltinExpr{Ann: ast.Ann{Prov: prov}, Op: ast.OpNot},
			ast.Argument{Prov: prov, Origin: ast.OriginUser, Visibility: ast.Explicit, Value: arg}), nil
	case token.MINUS:
		prov := p.cur.Prov
		p.advance()
		arg, err := p.parseExpr(precUnary)
		if err != nil {
			return nil, err
		}
		return ast.NewApp(prov, &ast.BuiltinExpr{Ann: ast.Ann{Prov: prov}, Op: ast.OpNeg},
			ast.Argument{Prov: prov, Origin: ast.OriginUser, Visibility: ast.Explicit, Value: arg}), nil
	case token.EVERY:
		return p.parseQuantifier(ast.OpEvery, ast.OpEveryIn)
	case token.SOME:
		return p.parseQuantifier(ast.OpSome, ast.OpSomeIn)
	default:
		return p.parseApplication()
	}
}

// parseForall parses `forall BINDER . EXPR`, producing a Pi. The binder
// must carry an explicit type (spec.md §6 binder form `(x : T)`/`{x :
// T}`; an untyped `forall x . e` has nothing to unify the quantified
// variable's type against and is rejected rather than silently
// defaulting it to a meta with no constraint ever forcing a solution).
func (p *Parser) parseForall() (ast.Expr, error) {
	prov := p.cur.Prov
	p.advance()
	binder, err := p.parseTypedBinder()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.DOT); err != nil {
		return nil, err
	}
	body, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	return &ast.PiExpr{Ann: ast.Ann{Prov: prov}, Binder: binder, Result: body}, nil
}

// parseImplicitArrowBinder parses `{x [: T]} -> EXPR`, the dependent-Pi
// surface form with an implicit binder (spec.md §6). This is the only
// place a bare `{` starts an expression: inside parseApplication's
// argument loop `{` instead means an implicit argument `{e}`, never a
// binder.
func (p *Parser) parseImplicitArrowBinder() (ast.Expr, error) {
	prov := p.cur.Prov
	p.advance()
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	var ty ast.Expr = &ast.HoleExpr{Ann: ast.Ann{Prov: prov}, Name: name.Lexeme}
	if p.curIs(token.COLON) {
		p.advance()
		ty, err = p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.ARROW); err != nil {
		return nil, err
	}
	result, err := p.parseExpr(precArrow)
	if err != nil {
		return nil, err
	}
	n := name.Lexeme
	binder := ast.Binder{Prov: prov, Origin: ast.OriginUser, Visibility: ast.Implicit, Name: &n, Type: ty}
	return &ast.PiExpr{Ann: ast.Ann{Prov: prov}, Binder: binder, Result: result}, nil
}

// parseTypedBinder parses `(x : T)`, `{x : T}` or a bare `x : T` with a
// mandatory type, for forall's binder, whose type has nowhere else to
// come from (every/some parse their own binder, where the type is
// optional).
func (p *Parser) parseTypedBinder() (ast.Binder, error) {
	prov := p.cur.Prov
	vis := ast.Explicit
	open, closeTok := token.LPAREN, token.RPAREN
	if p.curIs(token.LBRACE) {
		vis = ast.Implicit
		open, closeTok = token.LBRACE, token.RBRACE
	}
	usedParens := p.curIs(open)
	if usedParens {
		p.advance()
	}
	name, err := p.expect(token.IDENT)
	if err != nil {
		return ast.Binder{}, err
	}
	n := name.Lexeme
	if !usedParens {
		if !p.curIs(token.COLON) {
			return ast.Binder{}, &ParseError{Msg: "binder " + n + " needs an explicit type annotation here", Prov: prov}
		}
		p.advance()
		ty, err := p.parseExpr(precArrow + 1)
		if err != nil {
			return ast.Binder{}, err
		}
		return ast.Binder{Prov: prov, Origin: ast.OriginUser, Visibility: vis, Name: &n, Type: ty}, nil
	}
	if _, err := p.expect(token.COLON); err != nil {
		return ast.Binder{}, err
	}
	ty, err := p.parseExpr(precLowest)
	if err != nil {
		return ast.Binder{}, err
	}
	if _, err := p.expect(closeTok); err != nil {
		return ast.Binder{}, err
	}
	return ast.Binder{Prov: prov, Origin: ast.OriginUser, Visibility: vis, Name: &n, Type: ty}, nil
}

// parseLambda parses `\BINDER -> EXPR`.
func (p *Parser) parseLambda() (ast.Expr, error) {
	prov := p.cur.Prov
	p.advance()
	binder, err := p.parseBinder()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.ARROW); err != nil {
		return nil, err
	}
	body, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	return &ast.LamExpr{Ann: ast.Ann{Prov: prov}, Binder: binder, Body: body}, nil
}

// parseLet parses `let NAME [: T] = EXPR in EXPR`.
func (p *Parser) parseLet() (ast.Expr, error) {
	prov := p.cur.Prov
	p.advance()
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	n := name.Lexeme
	var ty ast.Expr = &ast.HoleExpr{Ann: ast.Ann{Prov: prov}, Name: n}
	if p.curIs(token.COLON) {
		p.advance()
		ty, err = p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.ASSIGN); err != nil {
		return nil, err
	}
	val, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.IN); err != nil {
		return nil, err
	}
	body, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	binder := ast.Binder{Prov: prov, Origin: ast.OriginUser, Visibility: ast.Explicit, Name: &n, Type: ty}
	return &ast.LetExpr{Ann: ast.Ann{Prov: prov}, Value: val, Binder: binder, Body: body}, nil
}

// parseIf parses `if EXPR then EXPR else EXPR`, desugaring to the
// closed `if` builtin (spec.md §6 builtin table).
func (p *Parser) parseIf() (ast.Expr, error) {
	prov := p.cur.Prov
	p.advance()
	cond, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.THEN); err != nil {
		return nil, err
	}
	then, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.ELSE); err != nil {
		return nil, err
	}
	els, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	fn := &ast.BuiltinExpr{Ann: ast.Ann{Prov: prov}, Op: ast.OpIf}
	return ast.NewApp(prov, fn,
		ast.Argument{Prov: prov, Origin: ast.OriginUser, Visibility: ast.Explicit, Value: cond},
		ast.Argument{Prov: prov, Origin: ast.OriginUser, Visibility: ast.Explicit, Value: then},
		ast.Argument{Prov: prov, Origin: ast.OriginUser, Visibility: ast.Explicit, Value: els},
	), nil
}

// parseQuantifier parses both surface forms that share the `every`/
// `some` keyword (spec.md §8 scenarios S2/S5): `every BINDER . BODY`
// (plain builtin) and `every BINDER inn CONTAINER . BODY` (the `...In`
// builtin), distinguished by whether `inn` follows the binder.
func (p *Parser) parseQuantifier(plain, inVariant ast.BuiltinOp) (ast.Expr, error) {
	prov := p.cur.Prov
	p.advance()
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	n := name.Lexeme
	var domainTy ast.Expr = &ast.HoleExpr{Ann: ast.Ann{Prov: prov}, Name: n}
	if p.curIs(token.COLON) {
		p.advance()
		domainTy, err = p.parseExpr(precArrow + 1)
		if err != nil {
			return nil, err
		}
	}

	if p.curIs(token.IN_KW) {
		p.advance()
		container, err := p.parseExpr(precCons)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.DOT); err != nil {
			return nil, err
		}
		body, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		binder := ast.Binder{Prov: prov, Origin: ast.OriginUser, Visibility: ast.Explicit, Name: &n, Type: domainTy}
		pred := &ast.LamExpr{Ann: ast.Ann{Prov: prov}, Binder: binder, Body: body}
		fn := &ast.BuiltinExpr{Ann: ast.Ann{Prov: prov}, Op: inVariant}
		return ast.NewApp(prov, fn,
			ast.Argument{Prov: prov, Origin: ast.OriginUser, Visibility: ast.Explicit, Value: pred},
			ast.Argument{Prov: prov, Origin: ast.OriginUser, Visibility: ast.Explicit, Value: container},
		), nil
	}

	if _, err := p.expect(token.DOT); err != nil {
		return nil, err
	}
	body, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	binder := ast.Binder{Prov: prov, Origin: ast.OriginUser, Visibility: ast.Explicit, Name: &n, Type: domainTy}
	pred := &ast.LamExpr{Ann: ast.Ann{Prov: prov}, Binder: binder, Body: body}
	fn := &ast.BuiltinExpr{Ann: ast.Ann{Prov: prov}, Op: plain}
	return ast.NewApp(prov, fn,
		ast.Argument{Prov: prov, Origin: ast.OriginUser, Visibility: ast.Explicit, Value: pred},
	), nil
}

// parseApplication parses a primary atom followed by as many further
// atoms/implicit/instance arguments as immediately follow it
// (juxtaposition is the tightest-binding "operator" in the grammar).
func (p *Parser) parseApplication() (ast.Expr, error) {
	head, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	var args []ast.Argument
	for {
		switch {
		case startsAtom(p.cur.Type):
			prov := p.cur.Prov
			arg, err := p.parsePrimary()
			if err != nil {
				return nil, err
			}
			args = append(args, ast.Argument{Prov: prov, Origin: ast.OriginUser, Visibility: ast.Explicit, Value: arg})
		case p.curIs(token.LBRACE) && p.peekIs(token.LBRACE):
			prov := p.cur.Prov
			p.advance()
			p.advance()
			arg, err := p.parseExpr(precLowest)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RBRACE); err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RBRACE); err != nil {
				return nil, err
			}
			args = append(args, ast.Argument{Prov: prov, Origin: ast.OriginUser, Visibility: ast.Instance, Value: arg})
		case p.curIs(token.LBRACE):
			prov := p.cur.Prov
			p.advance()
			arg, err := p.parseExpr(precLowest)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RBRACE); err != nil {
				return nil, err
			}
			args = append(args, ast.Argument{Prov: prov, Origin: ast.OriginUser, Visibility: ast.Implicit, Value: arg})
		default:
			if len(args) == 0 {
				return head, nil
			}
			return ast.NewApp(head.GetProvenance(), head, args...), nil
		}
	}
}

// parsePrimary parses a single atom: identifiers, literals, holes,
// sequence literals, primitive type names, and parenthesized groups
// (grouping or an explicit annotation `(e : T)`).
func (p *Parser) parsePrimary() (ast.Expr, error) {
	prov := p.cur.Prov
	switch p.cur.Type {
	case token.IDENT:
		name := p.cur.Lexeme
		p.advance()
		if name == "Type" && p.curIs(token.INT) {
			lvl, err := lexer.ParseNat(p.cur.Lexeme)
			if err != nil {
				return nil, &ParseError{Msg: "invalid universe level", Prov: p.cur.Prov}
			}
			p.advance()
			return &ast.UniverseExpr{Ann: ast.Ann{Prov: prov}, Level: int(lvl)}, nil
		}
		return &ast.VarExpr{Ann: ast.Ann{Prov: prov}, Ref: ast.NamedVar{Symbol: name}}, nil

	case token.HOLE:
		name := p.cur.Lexeme
		p.advance()
		return &ast.HoleExpr{Ann: ast.Ann{Prov: prov}, Name: name}, nil

	case token.TRUE:
		p.advance()
		return &ast.LiteralExpr{Ann: ast.Ann{Prov: prov}, Lit: ast.BoolLit(true)}, nil
	case token.FALSE:
		p.advance()
		return &ast.LiteralExpr{Ann: ast.Ann{Prov: prov}, Lit: ast.BoolLit(false)}, nil

	case token.INT:
		text := p.cur.Lexeme
		p.advance()
		n, err := lexer.ParseNat(text)
		if err != nil {
			return nil, &ParseError{Msg: "invalid integer literal " + text, Prov: prov}
		}
		return &ast.LiteralExpr{Ann: ast.Ann{Prov: prov}, Lit: ast.NatLit(n)}, nil

	case token.RATIONAL:
		text := p.cur.Lexeme
		p.advance()
		r, ok := lexer.ParseRat(text)
		if !ok {
			return nil, &ParseError{Msg: "invalid rational literal " + text, Prov: prov}
		}
		return &ast.LiteralExpr{Ann: ast.Ann{Prov: prov}, Lit: ast.RatLit(r)}, nil

	case token.BOOL:
		p.advance()
		return &ast.BuiltinExpr{Ann: ast.Ann{Prov: prov}, Op: ast.OpBool}, nil
	case token.PROP:
		p.advance()
		return &ast.BuiltinExpr{Ann: ast.Ann{Prov: prov}, Op: ast.OpProp}, nil
	case token.NAT:
		p.advance()
		return &ast.BuiltinExpr{Ann: ast.Ann{Prov: prov}, Op: ast.OpNat}, nil
	case token.INT_TY:
		p.advance()
		return &ast.BuiltinExpr{Ann: ast.Ann{Prov: prov}, Op: ast.OpInt}, nil
	case token.REAL:
		p.advance()
		return &ast.BuiltinExpr{Ann: ast.Ann{Prov: prov}, Op: ast.OpReal}, nil
	case token.LIST:
		p.advance()
		return &ast.BuiltinExpr{Ann: ast.Ann{Prov: prov}, Op: ast.OpList}, nil
	case token.TENSOR:
		p.advance()
		return &ast.BuiltinExpr{Ann: ast.Ann{Prov: prov}, Op: ast.OpTensor}, nil
	case token.MAP:
		p.advance()
		return &ast.BuiltinExpr{Ann: ast.Ann{Prov: prov}, Op: ast.OpMap}, nil
	case token.FOLD:
		p.advance()
		return &ast.BuiltinExpr{Ann: ast.Ann{Prov: prov}, Op: ast.OpFold}, nil

	case token.LBRACKET:
		p.advance()
		var elems []ast.Expr
		for !p.curIs(token.RBRACKET) {
			el, err := p.parseExpr(precImplies)
			if err != nil {
				return nil, err
			}
			elems = append(elems, el)
			if p.curIs(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(token.RBRACKET); err != nil {
			return nil, err
		}
		return &ast.SeqExpr{Ann: ast.Ann{Prov: prov}, Elements: elems}, nil

	case token.LPAREN:
		p.advance()
		inner, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		if p.curIs(token.COLON) {
			p.advance()
			ty, err := p.parseExpr(precLowest)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RPAREN); err != nil {
				return nil, err
			}
			return &ast.AnnExpr{Ann: ast.Ann{Prov: prov}, Value: inner, Type: ty}, nil
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return inner, nil

	default:
		return nil, &ParseError{Msg: fmt.Sprintf("unexpected token %s %q", p.cur.Type, p.cur.Lexeme), Prov: prov}
	}
}

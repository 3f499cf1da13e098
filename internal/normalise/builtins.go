package normalise

import (
	"math/big"

	"github.com/Yiergot/vehicle/internal/ast"
	"github.com/Yiergot/vehicle/internal/token"
	"github.com/Yiergot/vehicle/internal/verrors"
)

// arity is each builtin's total parameter count (implicit + instance +
// explicit), matching the schemes ast.TypeOfBuiltin builds. A builtin not
// listed here is never constant-folded by the normaliser (the class
// builtins, the type formers, and the unbounded every/some quantifiers,
// whose domain isn't a concrete container the normaliser can unroll —
// spec.md §4.5 handles those at the VNNLib backend instead).
var arity = map[ast.BuiltinOp]int{
	ast.OpAdd: 4, ast.OpSub: 4, ast.OpMul: 4, ast.OpDiv: 4, ast.OpNeg: 3,
	ast.OpEq: 4, ast.OpNeq: 4, ast.OpLe: 4, ast.OpLt: 4, ast.OpGe: 4, ast.OpGt: 4,
	ast.OpNot: 3, ast.OpAnd: 4, ast.OpOr: 4, ast.OpImplies: 4, ast.OpIf: 4,
	ast.OpCons: 5, ast.OpAt: 5, ast.OpMap: 8, ast.OpFold: 7,
	ast.OpEveryIn: 5, ast.OpSomeIn: 5,
}

// reduceBuiltin attempts to fold op applied to the front of args. It
// returns consumed == 0 when op isn't foldable yet (too few args, or the
// operands it needs aren't themselves literals/sequences yet) — the
// caller then leaves the application stuck.
func (n *Normaliser) reduceBuiltin(op ast.BuiltinOp, args []ast.Argument, prov token.Provenance) (ast.Expr, int, error) {
	need, ok := arity[op]
	if !ok || len(args) < need {
		return nil, 0, nil
	}
	explicit := explicitArgs(args[:need])

	switch op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv:
		x, y, ok := twoLiterals(explicit)
		if !ok {
			return nil, 0, nil
		}
		res, ok := arith(op, x, y)
		if !ok {
			return nil, 0, nil
		}
		return &ast.LiteralExpr{Ann: ast.Ann{Prov: prov}, Lit: res}, need, nil

	case ast.OpNeg:
		x, ok := oneLiteral(explicit)
		if !ok {
			return nil, 0, nil
		}
		res, ok := negate(x)
		if !ok {
			return nil, 0, nil
		}
		return &ast.LiteralExpr{Ann: ast.Ann{Prov: prov}, Lit: res}, need, nil

	case ast.OpEq, ast.OpNeq:
		x, y, ok := twoLiterals(explicit)
		if !ok {
			return nil, 0, nil
		}
		eq, ok := literalsEqual(x, y)
		if !ok {
			return nil, 0, nil
		}
		if op == ast.OpNeq {
			eq = !eq
		}
		return boolLit(prov, eq), need, nil

	case ast.OpLe, ast.OpLt, ast.OpGe, ast.OpGt:
		x, y, ok := twoLiterals(explicit)
		if !ok {
			return nil, 0, nil
		}
		cmp, ok := compareLiterals(x, y)
		if !ok {
			return nil, 0, nil
		}
		var b bool
		switch op {
		case ast.OpLe:
			b = cmp <= 0
		case ast.OpLt:
			b = cmp < 0
		case ast.OpGe:
			b = cmp >= 0
		case ast.OpGt:
			b = cmp > 0
		}
		return boolLit(prov, b), need, nil

	case ast.OpNot:
		x, ok := oneLiteral(explicit)
		if !ok || x.Kind != ast.LitBool {
			return nil, 0, nil
		}
		return boolLit(prov, !x.Bool), need, nil

	case ast.OpAnd, ast.OpOr, ast.OpImplies:
		if len(explicit) != 2 {
			return nil, 0, nil
		}
		// Short-circuit on the absorbing value of the first operand alone
		// (spec.md §4.4 "short-circuit rules for And/Or/If apply even when
		// only one operand is a literal of the identity/absorbing value"):
		// `and false x` is `false`, `or true x` is `true`, `implies false x`
		// is `true`, regardless of whether `x` is itself a literal.
		if lhs, ok := explicit[0].(*ast.LiteralExpr); ok && lhs.Lit.Kind == ast.LitBool {
			switch op {
			case ast.OpAnd:
				if !lhs.Lit.Bool {
					return boolLit(prov, false), need, nil
				}
			case ast.OpOr:
				if lhs.Lit.Bool {
					return boolLit(prov, true), need, nil
				}
			case ast.OpImplies:
				if !lhs.Lit.Bool {
					return boolLit(prov, true), need, nil
				}
			}
		}
		x, y, ok := twoLiterals(explicit)
		if !ok || x.Kind != ast.LitBool || y.Kind != ast.LitBool {
			return nil, 0, nil
		}
		var b bool
		switch op {
		case ast.OpAnd:
			b = x.Bool && y.Bool
		case ast.OpOr:
			b = x.Bool || y.Bool
		case ast.OpImplies:
			b = !x.Bool || y.Bool
		}
		return boolLit(prov, b), need, nil

	case ast.OpIf:
		if len(explicit) != 3 {
			return nil, 0, nil
		}
		cond, ok := explicit[0].(*ast.LiteralExpr)
		if !ok || cond.Lit.Kind != ast.LitBool {
			return nil, 0, nil
		}
		if cond.Lit.Bool {
			return explicit[1], need, nil
		}
		return explicit[2], need, nil

	case ast.OpCons:
		if len(explicit) != 2 {
			return nil, 0, nil
		}
		cont, ok := explicit[1].(*ast.SeqExpr)
		if !ok {
			return nil, 0, nil
		}
		els := make([]ast.Expr, 0, len(cont.Elements)+1)
		els = append(els, explicit[0])
		els = append(els, cont.Elements...)
		return &ast.SeqExpr{Ann: ast.Ann{Prov: prov}, Elements: els}, need, nil

	case ast.OpAt:
		if len(explicit) != 2 {
			return nil, 0, nil
		}
		cont, ok := explicit[0].(*ast.SeqExpr)
		if !ok {
			return nil, 0, nil
		}
		idx, ok := explicit[1].(*ast.LiteralExpr)
		if !ok {
			return nil, 0, nil
		}
		i, ok := asIndex(idx.Lit)
		if !ok || i < 0 || i >= len(cont.Elements) {
			return nil, 0, nil
		}
		return cont.Elements[i], need, nil

	case ast.OpMap:
		if len(explicit) != 2 {
			return nil, 0, nil
		}
		fn := explicit[0]
		cont, ok := explicit[1].(*ast.SeqExpr)
		if !ok {
			return nil, 0, nil
		}
		els := make([]ast.Expr, len(cont.Elements))
		for i, el := range cont.Elements {
			applied, err := n.applySpine(fn, []ast.Argument{{Prov: prov, Visibility: ast.Explicit, Value: el}}, prov)
			if err != nil {
				return nil, 0, err
			}
			els[i] = applied
		}
		return &ast.SeqExpr{Ann: ast.Ann{Prov: prov}, Elements: els}, need, nil

	case ast.OpFold:
		if len(explicit) != 3 {
			return nil, 0, nil
		}
		fn, acc := explicit[0], explicit[1]
		cont, ok := explicit[2].(*ast.SeqExpr)
		if !ok {
			return nil, 0, nil
		}
		for _, el := range cont.Elements {
			next, err := n.applySpine(fn, []ast.Argument{
				{Prov: prov, Visibility: ast.Explicit, Value: el},
				{Prov: prov, Visibility: ast.Explicit, Value: acc},
			}, prov)
			if err != nil {
				return nil, 0, err
			}
			acc, err = n.Normalise(next)
			if err != nil {
				return nil, 0, err
			}
		}
		return acc, need, nil

	case ast.OpEveryIn, ast.OpSomeIn:
		if len(explicit) != 2 {
			return nil, 0, nil
		}
		pred := explicit[0]
		cont, ok := explicit[1].(*ast.SeqExpr)
		if !ok {
			return nil, 0, nil
		}
		if len(cont.Elements) == 0 {
			return nil, 0, &verrors.EmptyQuantifierDomain{Prov: prov}
		}
		conj := op == ast.OpEveryIn
		var acc ast.Expr
		for _, el := range cont.Elements {
			applied, err := n.applySpine(pred, []ast.Argument{{Prov: prov, Visibility: ast.Explicit, Value: el}}, prov)
			if err != nil {
				return nil, 0, err
			}
			applied, err = n.Normalise(applied)
			if err != nil {
				return nil, 0, err
			}
			if acc == nil {
				acc = applied
				continue
			}
			opv := ast.OpOr
			if conj {
				opv = ast.OpAnd
			}
			combined, err := n.applySpine(&ast.BuiltinExpr{Ann: ast.Ann{Prov: prov}, Op: opv}, []ast.Argument{
				{Prov: prov, Visibility: ast.Explicit, Value: acc},
				{Prov: prov, Visibility: ast.Explicit, Value: applied},
			}, prov)
			if err != nil {
				return nil, 0, err
			}
			acc, err = n.Normalise(combined)
			if err != nil {
				return nil, 0, err
			}
		}
		return acc, need, nil
	}
	return nil, 0, nil
}

func explicitArgs(args []ast.Argument) []ast.Expr {
	out := make([]ast.Expr, 0, len(args))
	for _, a := range args {
		if a.Visibility == ast.Explicit {
			out = append(out, a.Value)
		}
	}
	return out
}

func boolLit(prov token.Provenance, b bool) ast.Expr {
	return &ast.LiteralExpr{Ann: ast.Ann{Prov: prov}, Lit: ast.BoolLit(b)}
}

func oneLiteral(explicit []ast.Expr) (ast.Literal, bool) {
	if len(explicit) != 1 {
		return ast.Literal{}, false
	}
	l, ok := explicit[0].(*ast.LiteralExpr)
	if !ok {
		return ast.Literal{}, false
	}
	return l.Lit, true
}

func twoLiterals(explicit []ast.Expr) (ast.Literal, ast.Literal, bool) {
	if len(explicit) != 2 {
		return ast.Literal{}, ast.Literal{}, false
	}
	x, ok1 := explicit[0].(*ast.LiteralExpr)
	y, ok2 := explicit[1].(*ast.LiteralExpr)
	if !ok1 || !ok2 {
		return ast.Literal{}, ast.Literal{}, false
	}
	return x.Lit, y.Lit, true
}

func asIndex(l ast.Literal) (int, bool) {
	switch l.Kind {
	case ast.LitNat:
		return int(l.Nat), true
	case ast.LitInt:
		return int(l.Int), true
	default:
		return 0, false
	}
}

func asRat(l ast.Literal) (*big.Rat, bool) {
	switch l.Kind {
	case ast.LitNat:
		return new(big.Rat).SetUint64(l.Nat), true
	case ast.LitInt:
		return new(big.Rat).SetInt64(l.Int), true
	case ast.LitRat:
		return l.Rat, true
	default:
		return nil, false
	}
}

// arith folds a binary arithmetic op over two literals of the same kind
// (guaranteed equal by elaboration's single shared instance argument).
func arith(op ast.BuiltinOp, x, y ast.Literal) (ast.Literal, bool) {
	if x.Kind != y.Kind {
		return ast.Literal{}, false
	}
	switch x.Kind {
	case ast.LitNat:
		switch op {
		case ast.OpAdd:
			return ast.NatLit(x.Nat + y.Nat), true
		case ast.OpSub:
			if y.Nat > x.Nat {
				return ast.Literal{}, false
			}
			return ast.NatLit(x.Nat - y.Nat), true
		case ast.OpMul:
			return ast.NatLit(x.Nat * y.Nat), true
		case ast.OpDiv:
			if y.Nat == 0 {
				return ast.Literal{}, false
			}
			return ast.NatLit(x.Nat / y.Nat), true
		}
	case ast.LitInt:
		switch op {
		case ast.OpAdd:
			return ast.IntLit(x.Int + y.Int), true
		case ast.OpSub:
			return ast.IntLit(x.Int - y.Int), true
		case ast.OpMul:
			return ast.IntLit(x.Int * y.Int), true
		case ast.OpDiv:
			if y.Int == 0 {
				return ast.Literal{}, false
			}
			return ast.IntLit(x.Int / y.Int), true
		}
	case ast.LitRat:
		xr, yr := x.Rat, y.Rat
		switch op {
		case ast.OpAdd:
			return ast.RatLit(new(big.Rat).Add(xr, yr)), true
		case ast.OpSub:
			return ast.RatLit(new(big.Rat).Sub(xr, yr)), true
		case ast.OpMul:
			return ast.RatLit(new(big.Rat).Mul(xr, yr)), true
		case ast.OpDiv:
			if yr.Sign() == 0 {
				return ast.Literal{}, false
			}
			return ast.RatLit(new(big.Rat).Quo(xr, yr)), true
		}
	}
	return ast.Literal{}, false
}

func negate(x ast.Literal) (ast.Literal, bool) {
	switch x.Kind {
	case ast.LitInt:
		return ast.IntLit(-x.Int), true
	case ast.LitRat:
		return ast.RatLit(new(big.Rat).Neg(x.Rat)), true
	default:
		return ast.Literal{}, false
	}
}

func literalsEqual(x, y ast.Literal) (bool, bool) {
	if x.Kind == ast.LitBool && y.Kind == ast.LitBool {
		return x.Bool == y.Bool, true
	}
	xr, ok1 := asRat(x)
	yr, ok2 := asRat(y)
	if !ok1 || !ok2 {
		return false, false
	}
	return xr.Cmp(yr) == 0, true
}

func compareLiterals(x, y ast.Literal) (int, bool) {
	xr, ok1 := asRat(x)
	yr, ok2 := asRat(y)
	if !ok1 || !ok2 {
		return 0, false
	}
	return xr.Cmp(yr), true
}

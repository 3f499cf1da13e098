// Package debruijn implements the four primitive operations every later
// pass needs over the locally-nameless form of ast.Expr: lifting,
// substitution, free-identifier collection, and alpha-equivalence
// (spec.md §4.1). Each is a structural recursion rebuilding the tree,
// the same shape as the teacher's internal/typesystem/replace.go
// ReplaceTCon rather than a Visitor walk, since every case here returns
// a fresh Expr rather than performing a side effect.
package debruijn

import (
	"github.com/Yiergot/vehicle/internal/ast"
)

// Lift adds k to every ast.BoundVar index at or above cutoff. Descending
// into a binder increments the cutoff by one (spec.md §4.1 "substituting
// under a Pi/Lam/Let/quantifier lifts v by one before recursing").
func Lift(k, cutoff int, e ast.Expr) ast.Expr {
	if k == 0 {
		return e
	}
	switch x := e.(type) {
	case *ast.VarExpr:
		bv, ok := x.Ref.(ast.BoundVar)
		if !ok || bv.Index < cutoff {
			return x
		}
		return &ast.VarExpr{Ann: x.Ann, Ref: ast.BoundVar{Index: bv.Index + k}}
	case *ast.MetaExpr:
		return x
	case *ast.HoleExpr:
		return x
	case *ast.UniverseExpr:
		return x
	case *ast.BuiltinExpr:
		return x
	case *ast.LiteralExpr:
		return x
	case *ast.AppExpr:
		args := make([]ast.Argument, len(x.Args))
		for i, a := range x.Args {
			args[i] = ast.Argument{Prov: a.Prov, Origin: a.Origin, Visibility: a.Visibility, Value: Lift(k, cutoff, a.Value)}
		}
		return &ast.AppExpr{Ann: x.Ann, Fun: Lift(k, cutoff, x.Fun), Args: args}
	case *ast.PiExpr:
		return &ast.PiExpr{Ann: x.Ann, Binder: liftBinder(k, cutoff, x.Binder), Result: Lift(k, cutoff+1, x.Result)}
	case *ast.LamExpr:
		return &ast.LamExpr{Ann: x.Ann, Binder: liftBinder(k, cutoff, x.Binder), Body: Lift(k, cutoff+1, x.Body)}
	case *ast.LetExpr:
		return &ast.LetExpr{Ann: x.Ann, Value: Lift(k, cutoff, x.Value), Binder: liftBinder(k, cutoff, x.Binder), Body: Lift(k, cutoff+1, x.Body)}
	case *ast.AnnExpr:
		return &ast.AnnExpr{Ann: x.Ann, Value: Lift(k, cutoff, x.Value), Type: Lift(k, cutoff, x.Type)}
	case *ast.SeqExpr:
		els := make([]ast.Expr, len(x.Elements))
		for i, el := range x.Elements {
			els[i] = Lift(k, cutoff, el)
		}
		return &ast.SeqExpr{Ann: x.Ann, Elements: els}
	case *ast.PrimDictExpr:
		return &ast.PrimDictExpr{Ann: x.Ann, Dict: Lift(k, cutoff, x.Dict)}
	default:
		return e
	}
}

func liftBinder(k, cutoff int, b ast.Binder) ast.Binder {
	b.Type = Lift(k, cutoff, b.Type)
	return b
}

// Subst replaces Bound 0 in body with v, per spec.md §4.1's contract:
// descending into a binder lifts v by one and bumps the cutoff; any
// Bound index greater than the cutoff is decremented by one on exit to
// close the hole left by the removed binder.
func Subst(v, body ast.Expr) ast.Expr {
	return subst(v, body, 0)
}

func subst(v, body ast.Expr, cutoff int) ast.Expr {
	switch x := body.(type) {
	case *ast.VarExpr:
		bv, ok := x.Ref.(ast.BoundVar)
		if !ok {
			return x
		}
		switch {
		case bv.Index == cutoff:
			return Lift(cutoff, 0, v)
		case bv.Index > cutoff:
			return &ast.VarExpr{Ann: x.Ann, Ref: ast.BoundVar{Index: bv.Index - 1}}
		default:
			return x
		}
	case *ast.MetaExpr:
		return x
	case *ast.HoleExpr:
		return x
	case *ast.UniverseExpr:
		return x
	case *ast.BuiltinExpr:
		return x
	case *ast.LiteralExpr:
		return x
	case *ast.AppExpr:
		args := make([]ast.Argument, len(x.Args))
		for i, a := range x.Args {
			args[i] = ast.Argument{Prov: a.Prov, Origin: a.Origin, Visibility: a.Visibility, Value: subst(v, a.Value, cutoff)}
		}
		return &ast.AppExpr{Ann: x.Ann, Fun: subst(v, x.Fun, cutoff), Args: args}
	case *ast.PiExpr:
		return &ast.PiExpr{Ann: x.Ann, Binder: substBinder(v, x.Binder, cutoff), Result: subst(v, x.Result, cutoff+1)}
	case *ast.LamExpr:
		return &ast.LamExpr{Ann: x.Ann, Binder: substBinder(v, x.Binder, cutoff), Body: subst(v, x.Body, cutoff+1)}
	case *ast.LetExpr:
		return &ast.LetExpr{Ann: x.Ann, Value: subst(v, x.Value, cutoff), Binder: substBinder(v, x.Binder, cutoff), Body: subst(v, x.Body, cutoff+1)}
	case *ast.AnnExpr:
		return &ast.AnnExpr{Ann: x.Ann, Value: subst(v, x.Value, cutoff), Type: subst(v, x.Type, cutoff)}
	case *ast.SeqExpr:
		els := make([]ast.Expr, len(x.Elements))
		for i, el := range x.Elements {
			els[i] = subst(v, el, cutoff)
		}
		return &ast.SeqExpr{Ann: x.Ann, Elements: els}
	case *ast.PrimDictExpr:
		return &ast.PrimDictExpr{Ann: x.Ann, Dict: subst(v, x.Dict, cutoff)}
	default:
		return body
	}
}

func substBinder(v ast.Expr, b ast.Binder, cutoff int) ast.Binder {
	b.Type = subst(v, b.Type, cutoff)
	return b
}

// FreeIdentifiers returns the set of ast.FreeVar identifiers referenced
// anywhere in e (spec.md §4.1, used by the VNNLib backend's
// meta-network discovery).
func FreeIdentifiers(e ast.Expr) map[string]bool {
	out := map[string]bool{}
	collectFree(e, out)
	return out
}

func collectFree(e ast.Expr, out map[string]bool) {
	switch x := e.(type) {
	case *ast.VarExpr:
		if fv, ok := x.Ref.(ast.FreeVar); ok {
			out[fv.ID] = true
		}
	case *ast.AppExpr:
		collectFree(x.Fun, out)
		for _, a := range x.Args {
			collectFree(a.Value, out)
		}
	case *ast.PiExpr:
		collectFree(x.Binder.Type, out)
		collectFree(x.Result, out)
	case *ast.LamExpr:
		collectFree(x.Binder.Type, out)
		collectFree(x.Body, out)
	case *ast.LetExpr:
		collectFree(x.Value, out)
		collectFree(x.Binder.Type, out)
		collectFree(x.Body, out)
	case *ast.AnnExpr:
		collectFree(x.Value, out)
		collectFree(x.Type, out)
	case *ast.SeqExpr:
		for _, el := range x.Elements {
			collectFree(el, out)
		}
	case *ast.PrimDictExpr:
		collectFree(x.Dict, out)
	}
}

// AlphaEq reports structural equality on a name-erased view: provenance
// and binder names are ignored, visibility is not (spec.md §4.1).
func AlphaEq(a, b ast.Expr) bool {
	switch x := a.(type) {
	case *ast.UniverseExpr:
		y, ok := b.(*ast.UniverseExpr)
		return ok && x.Level == y.Level
	case *ast.VarExpr:
		y, ok := b.(*ast.VarExpr)
		if !ok {
			return false
		}
		return varRefEq(x.Ref, y.Ref)
	case *ast.MetaExpr:
		y, ok := b.(*ast.MetaExpr)
		return ok && x.ID == y.ID
	case *ast.HoleExpr:
		y, ok := b.(*ast.HoleExpr)
		return ok && x.Name == y.Name
	case *ast.AppExpr:
		y, ok := b.(*ast.AppExpr)
		if !ok || len(x.Args) != len(y.Args) || !AlphaEq(x.Fun, y.Fun) {
			return false
		}
		for i := range x.Args {
			if x.Args[i].Visibility != y.Args[i].Visibility || !AlphaEq(x.Args[i].Value, y.Args[i].Value) {
				return false
			}
		}
		return true
	case *ast.PiExpr:
		y, ok := b.(*ast.PiExpr)
		return ok && x.Binder.Visibility == y.Binder.Visibility &&
			AlphaEq(x.Binder.Type, y.Binder.Type) && AlphaEq(x.Result, y.Result)
	case *ast.LamExpr:
		y, ok := b.(*ast.LamExpr)
		return ok && x.Binder.Visibility == y.Binder.Visibility &&
			AlphaEq(x.Binder.Type, y.Binder.Type) && AlphaEq(x.Body, y.Body)
	case *ast.LetExpr:
		y, ok := b.(*ast.LetExpr)
		return ok && AlphaEq(x.Value, y.Value) && AlphaEq(x.Binder.Type, y.Binder.Type) && AlphaEq(x.Body, y.Body)
	case *ast.AnnExpr:
		y, ok := b.(*ast.AnnExpr)
		return ok && AlphaEq(x.Value, y.Value) && AlphaEq(x.Type, y.Type)
	case *ast.BuiltinExpr:
		y, ok := b.(*ast.BuiltinExpr)
		return ok && x.Op == y.Op
	case *ast.LiteralExpr:
		y, ok := b.(*ast.LiteralExpr)
		return ok && literalEq(x.Lit, y.Lit)
	case *ast.SeqExpr:
		y, ok := b.(*ast.SeqExpr)
		if !ok || len(x.Elements) != len(y.Elements) {
			return false
		}
		for i := range x.Elements {
			if !AlphaEq(x.Elements[i], y.Elements[i]) {
				return false
			}
		}
		return true
	case *ast.PrimDictExpr:
		y, ok := b.(*ast.PrimDictExpr)
		return ok && AlphaEq(x.Dict, y.Dict)
	default:
		return false
	}
}

func varRefEq(a, b ast.VarRef) bool {
	switch x := a.(type) {
	case ast.BoundVar:
		y, ok := b.(ast.BoundVar)
		return ok && x.Index == y.Index
	case ast.FreeVar:
		y, ok := b.(ast.FreeVar)
		return ok && x.ID == y.ID
	case ast.NamedVar:
		y, ok := b.(ast.NamedVar)
		return ok && x.Symbol == y.Symbol
	default:
		return false
	}
}

func literalEq(a, b ast.Literal) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case ast.LitNat:
		return a.Nat == b.Nat
	case ast.LitInt:
		return a.Int == b.Int
	case ast.LitBool:
		return a.Bool == b.Bool
	case ast.LitRat:
		if a.Rat == nil || b.Rat == nil {
			return a.Rat == b.Rat
		}
		return a.Rat.Cmp(b.Rat) == 0
	default:
		return false
	}
}

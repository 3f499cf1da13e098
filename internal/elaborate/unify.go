package elaborate

import (
	"github.com/Yiergot/vehicle/internal/ast"
	"github.com/Yiergot/vehicle/internal/debruijn"
	"github.com/Yiergot/vehicle/internal/token"
	"github.com/Yiergot/vehicle/internal/verrors"
)

// exprPair is the co-induction memo the teacher's unifyInternal keeps
// as `visited []typePair` (internal/typesystem/unify.go); Vehicle's
// unifier has no recursive type aliases to loop on, but Pi bodies can
// still revisit an already-seen pair through a recursive DefFun's type,
// so the same guard is kept rather than dropped.
type exprPair struct{ a, b ast.Expr }

// unifyOutcome is what a single unify attempt produces: either success
// (possibly solving metas, recorded in the caller's progress), a
// request to defer (spec.md §4.3.1 "defer: emit back as a constraint"),
// or a hard Mismatch.
type unifyOutcome int

const (
	unifyOK unifyOutcome = iota
	unifyDefer
	unifyFail
)

// unify attempts structural unification of e1 against e2 under the
// context ctx. On success it mutates mc's substitution directly
// (spec.md §4.3.1); solvedCount reports how many metas it solved, for
// the caller's Progress accounting.
func unify(mc *MetaContext, ctx Ctx, e1, e2 ast.Expr, prov token.Provenance) (outcome unifyOutcome, solvedCount int, err error) {
	return unifyVisited(mc, ctx, e1, e2, prov, nil)
}

func unifyVisited(mc *MetaContext, ctx Ctx, e1, e2 ast.Expr, prov token.Provenance, visited []exprPair) (unifyOutcome, int, error) {
	e1 = mc.Zap(e1)
	e2 = mc.Zap(e2)

	for _, p := range visited {
		if debruijn.AlphaEq(p.a, e1) && debruijn.AlphaEq(p.b, e2) {
			return unifyOK, 0, nil
		}
	}
	visited = append(visited, exprPair{e1, e2})

	if m1, ok := e1.(*ast.MetaExpr); ok {
		return bindMeta(mc, ctx, m1.ID, e2, prov)
	}
	if m2, ok := e2.(*ast.MetaExpr); ok {
		return bindMeta(mc, ctx, m2.ID, e1, prov)
	}

	// An unelaborated Hole only ever reaches unify as a parser-inserted
	// stand-in for a binder's missing type annotation (Check rule 1
	// unifies a Lam binder's declared type against the expected Pi's);
	// any other Hole is eliminated by Check rule 4 before unify ever
	// sees it. Accept whichever side carries real information.
	if _, ok := e1.(*ast.HoleExpr); ok {
		return unifyOK, 0, nil
	}
	if _, ok := e2.(*ast.HoleExpr); ok {
		return unifyOK, 0, nil
	}

	switch x1 := e1.(type) {
	case *ast.UniverseExpr:
		x2, ok := e2.(*ast.UniverseExpr)
		if ok && x1.Level == x2.Level {
			return unifyOK, 0, nil
		}
		return mismatch(e1, e2, prov)
	case *ast.BuiltinExpr:
		x2, ok := e2.(*ast.BuiltinExpr)
		if ok && x1.Op == x2.Op {
			return unifyOK, 0, nil
		}
		return mismatch(e1, e2, prov)
	case *ast.VarExpr:
		x2, ok := e2.(*ast.VarExpr)
		if ok && sameVarHead(x1.Ref, x2.Ref) {
			return unifyOK, 0, nil
		}
		return mismatch(e1, e2, prov)
	case *ast.LiteralExpr:
		x2, ok := e2.(*ast.LiteralExpr)
		if ok && literalEqual(x1.Lit, x2.Lit) {
			return unifyOK, 0, nil
		}
		return mismatch(e1, e2, prov)
	case *ast.AppExpr:
		x2, ok := e2.(*ast.AppExpr)
		if !ok || len(x1.Args) != len(x2.Args) {
			return mismatch(e1, e2, prov)
		}
		out, solved, err := unifyVisited(mc, ctx, x1.Fun, x2.Fun, prov, visited)
		if out != unifyOK {
			return out, solved, err
		}
		for i := range x1.Args {
			o, s, err := unifyVisited(mc, ctx, x1.Args[i].Value, x2.Args[i].Value, prov, visited)
			solved += s
			if o != unifyOK {
				return o, solved, err
			}
		}
		return unifyOK, solved, nil
	case *ast.PiExpr:
		x2, ok := e2.(*ast.PiExpr)
		if !ok || x1.Binder.Visibility != x2.Binder.Visibility {
			return mismatch(e1, e2, prov)
		}
		out, solved, err := unifyVisited(mc, ctx, x1.Binder.Type, x2.Binder.Type, prov, visited)
		if out != unifyOK {
			return out, solved, err
		}
		o, s, err := unifyVisited(mc, ctx.Extend(x1.Binder.Type), x1.Result, x2.Result, prov, visited)
		return o, solved + s, err
	case *ast.LamExpr:
		x2, ok := e2.(*ast.LamExpr)
		if !ok || x1.Binder.Visibility != x2.Binder.Visibility {
			return mismatch(e1, e2, prov)
		}
		return unifyVisited(mc, ctx.Extend(x1.Binder.Type), x1.Body, x2.Body, prov, visited)
	case *ast.SeqExpr:
		x2, ok := e2.(*ast.SeqExpr)
		if !ok || len(x1.Elements) != len(x2.Elements) {
			return mismatch(e1, e2, prov)
		}
		solved := 0
		for i := range x1.Elements {
			o, s, err := unifyVisited(mc, ctx, x1.Elements[i], x2.Elements[i], prov, visited)
			solved += s
			if o != unifyOK {
				return o, solved, err
			}
		}
		return unifyOK, solved, nil
	default:
		if debruijn.AlphaEq(e1, e2) {
			return unifyOK, 0, nil
		}
		return mismatch(e1, e2, prov)
	}
}

// bindMeta implements spec.md §4.3.1's Meta case: occurs-check and
// closedness before extending the substitution, else defer.
func bindMeta(mc *MetaContext, ctx Ctx, m ast.MetaID, e ast.Expr, prov token.Provenance) (unifyOutcome, int, error) {
	if solved, ok := mc.Lookup(m); ok {
		return unifyVisited(mc, ctx, solved, e, prov, nil)
	}
	if me, ok := e.(*ast.MetaExpr); ok && me.ID == m {
		return unifyOK, 0, nil
	}
	if FreeMetas(e)[m] {
		return unifyDefer, 0, nil
	}
	// Closedness (spec.md §4.3.1 "e is closed under the meta's context"):
	// ctx is the context in scope at this unify call, which may be deeper
	// than the context m was allocated under (unifyVisited's Pi/Lam cases
	// recurse under ctx.Extend). The binders introduced in that gap are
	// the innermost `ctx.Depth() - mc.Depth(m)` of ctx; if e references
	// one of them, m's solution would carry a BoundVar with no binder at
	// m's own birth site once m escapes back outside this recursion, so
	// defer instead of solving.
	if threshold := ctx.Depth() - mc.Depth(m); threshold > 0 && escapesBinders(e, threshold) {
		return unifyDefer, 0, nil
	}
	mc.Solve(m, e)
	return unifyOK, 1, nil
}

// escapesBinders reports whether e contains a BoundVar referring to one of
// the threshold innermost binders of e's ambient context — i.e. a binder
// introduced after a meta's allocation depth (spec.md §4.3.1's closedness
// side condition). localDepth tracks binders descended into within e
// itself, whose indices are never escaping: they are bound inside e, not
// in its ambient context.
func escapesBinders(e ast.Expr, threshold int) bool {
	return escapesAt(e, threshold, 0)
}

func escapesAt(e ast.Expr, threshold, localDepth int) bool {
	switch x := e.(type) {
	case *ast.VarExpr:
		bv, ok := x.Ref.(ast.BoundVar)
		if !ok || bv.Index < localDepth {
			return false
		}
		return bv.Index-localDepth < threshold
	case *ast.AppExpr:
		if escapesAt(x.Fun, threshold, localDepth) {
			return true
		}
		for _, a := range x.Args {
			if escapesAt(a.Value, threshold, localDepth) {
				return true
			}
		}
		return false
	case *ast.PiExpr:
		return escapesAt(x.Binder.Type, threshold, localDepth) || escapesAt(x.Result, threshold, localDepth+1)
	case *ast.LamExpr:
		return escapesAt(x.Binder.Type, threshold, localDepth) || escapesAt(x.Body, threshold, localDepth+1)
	case *ast.LetExpr:
		return escapesAt(x.Value, threshold, localDepth) ||
			escapesAt(x.Binder.Type, threshold, localDepth) ||
			escapesAt(x.Body, threshold, localDepth+1)
	case *ast.AnnExpr:
		return escapesAt(x.Value, threshold, localDepth) || escapesAt(x.Type, threshold, localDepth)
	case *ast.SeqExpr:
		for _, el := range x.Elements {
			if escapesAt(el, threshold, localDepth) {
				return true
			}
		}
		return false
	case *ast.PrimDictExpr:
		return escapesAt(x.Dict, threshold, localDepth)
	default:
		return false
	}
}

func mismatch(e1, e2 ast.Expr, prov token.Provenance) (unifyOutcome, int, error) {
	return unifyFail, 0, &verrors.Mismatch{Actual: describe(e1), Expected: describe(e2), Prov: prov}
}

func sameVarHead(a, b ast.VarRef) bool {
	switch x := a.(type) {
	case ast.BoundVar:
		y, ok := b.(ast.BoundVar)
		return ok && x.Index == y.Index
	case ast.FreeVar:
		y, ok := b.(ast.FreeVar)
		return ok && x.ID == y.ID
	default:
		return false
	}
}

func literalEqual(a, b ast.Literal) bool {
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

// describe renders a short head-shape label for error messages; a full
// pretty-printer lives in internal/prettyprinter, deliberately not
// depended on here to keep the elaborator free of a printer cycle.
func describe(e ast.Expr) string {
	switch x := e.(type) {
	case *ast.BuiltinExpr:
		return string(x.Op)
	case *ast.UniverseExpr:
		return "Type"
	case *ast.PiExpr:
		return "function type"
	case *ast.VarExpr:
		return x.Ref.String()
	case *ast.AppExpr:
		return describe(x.Fun) + " application"
	default:
		return "expression"
	}
}

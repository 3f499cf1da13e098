// Package normalise implements the tree-walking normaliser (spec.md §4.4):
// beta/delta/let/ann reduction plus constant-folding of the builtin table
// over literal operands. Grounded on the teacher's internal/evaluator
// (evaluator.go's Evaluator + expressions_*.go type-switch-per-node-kind
// dispatch), generalized from a side-effecting statement/expression
// evaluator producing runtime Objects to a pure Expr -> Expr rewriter:
// Vehicle has no I/O, no mutable environment, and no host objects to
// thread through, so there is no Environment/CallStack/VMCallHandler
// analogue here — only the structural reduction rules themselves survive
// the transplant.
package normalise

import (
	"github.com/Yiergot/vehicle/internal/ast"
	"github.com/Yiergot/vehicle/internal/debruijn"
	"github.com/Yiergot/vehicle/internal/symbols"
	"github.com/Yiergot/vehicle/internal/token"
)

// Normaliser reduces elaborated expressions to normal form. decls supplies
// delta-reduction: a FreeVar's defining body, when it has one (spec.md
// §4.4 "Free id: look up its body in the declaration table; if present,
// delta-reduce"). memo caches each declaration's already-normalised body
// by identifier, grounded on the teacher's moduleCache in cmd/funxy/main.go:
// a shared helper definition referenced from several properties is
// normalised once and reused rather than re-derived at every call site.
// Declaration order (spec.md §5) guarantees a FreeVar's entry is always
// memoized before any later declaration can reference it.
type Normaliser struct {
	decls *symbols.Table
	memo  map[string]ast.Expr
}

func New(decls *symbols.Table) *Normaliser {
	return &Normaliser{decls: decls, memo: make(map[string]ast.Expr)}
}

// Program normalises every DefFun body in declaration order, the same
// order elaboration ran in (spec.md §5 "normalisation order").
func (n *Normaliser) Program(prog ast.Program) (ast.Program, error) {
	out := make(ast.Program, 0, len(prog))
	for _, d := range prog {
		fn, ok := d.(*ast.DefFun)
		if !ok {
			out = append(out, d)
			continue
		}
		body, err := n.Normalise(fn.Body)
		if err != nil {
			return nil, err
		}
		out = append(out, ast.NewDefFun(fn.GetProvenance(), fn.GetID(), fn.Type, body))
	}
	return out, nil
}

// Normalise reduces e to normal form (spec.md §4.4). It assumes e is
// already elaborated: no NamedVar, no HoleExpr, no unsolved MetaExpr.
func (n *Normaliser) Normalise(e ast.Expr) (ast.Expr, error) {
	switch x := e.(type) {
	case *ast.VarExpr:
		fv, ok := x.Ref.(ast.FreeVar)
		if !ok {
			return x, nil
		}
		if cached, ok := n.memo[fv.ID]; ok {
			return cached, nil
		}
		entry := n.decls.Lookup(fv.ID)
		if entry == nil || entry.Body == nil {
			return x, nil
		}
		body, err := n.Normalise(entry.Body)
		if err != nil {
			return nil, err
		}
		n.memo[fv.ID] = body
		return body, nil

	case *ast.AppExpr:
		fun, err := n.Normalise(x.Fun)
		if err != nil {
			return nil, err
		}
		args := make([]ast.Argument, len(x.Args))
		for i, a := range x.Args {
			v, err := n.Normalise(a.Value)
			if err != nil {
				return nil, err
			}
			args[i] = ast.Argument{Prov: a.Prov, Origin: a.Origin, Visibility: a.Visibility, Value: v}
		}
		return n.applySpine(fun, args, x.GetProvenance())

	case *ast.LetExpr:
		val, err := n.Normalise(x.Value)
		if err != nil {
			return nil, err
		}
		// spec.md §4.4 / §9 open question: substitute directly into the
		// body's outermost bound index rather than descending under a
		// fresh binder first. TestLetSubstitutesIntoBody checks this
		// substitution on a let without shadowing.
		return n.Normalise(debruijn.Subst(val, x.Body))

	case *ast.AnnExpr:
		return n.Normalise(x.Value)

	case *ast.LamExpr:
		body, err := n.Normalise(x.Body)
		if err != nil {
			return nil, err
		}
		return &ast.LamExpr{Ann: x.Ann, Binder: x.Binder, Body: body}, nil

	case *ast.PiExpr:
		ty, err := n.Normalise(x.Binder.Type)
		if err != nil {
			return nil, err
		}
		res, err := n.Normalise(x.Result)
		if err != nil {
			return nil, err
		}
		b := x.Binder
		b.Type = ty
		return &ast.PiExpr{Ann: x.Ann, Binder: b, Result: res}, nil

	case *ast.SeqExpr:
		els := make([]ast.Expr, len(x.Elements))
		for i, el := range x.Elements {
			v, err := n.Normalise(el)
			if err != nil {
				return nil, err
			}
			els[i] = v
		}
		return &ast.SeqExpr{Ann: x.Ann, Elements: els}, nil

	case *ast.PrimDictExpr:
		d, err := n.Normalise(x.Dict)
		if err != nil {
			return nil, err
		}
		return &ast.PrimDictExpr{Ann: x.Ann, Dict: d}, nil

	default:
		// UniverseExpr, MetaExpr, HoleExpr, BuiltinExpr, LiteralExpr: already
		// normal forms.
		return e, nil
	}
}

// applySpine applies fun to args in order, beta-reducing Lam heads and
// constant-folding Builtin heads as soon as enough operands are available,
// and leaving anything else as a stuck (re-spined) application (spec.md
// §4.4 "Application: normalise function and arguments; if the function is
// now a Lam, beta-reduce; if it is a Builtin with enough literal operands,
// evaluate it").
func (n *Normaliser) applySpine(fun ast.Expr, args []ast.Argument, prov token.Provenance) (ast.Expr, error) {
	for len(args) > 0 {
		switch f := fun.(type) {
		case *ast.LamExpr:
			reduced, err := n.Normalise(debruijn.Subst(args[0].Value, f.Body))
			if err != nil {
				return nil, err
			}
			fun, args = reduced, args[1:]

		case *ast.BuiltinExpr:
			result, consumed, err := n.reduceBuiltin(f.Op, args, prov)
			if err != nil {
				return nil, err
			}
			if consumed == 0 {
				return ast.NewApp(prov, fun, args...), nil
			}
			reduced, err := n.Normalise(result)
			if err != nil {
				return nil, err
			}
			fun, args = reduced, args[consumed:]

		default:
			return ast.NewApp(prov, fun, args...), nil
		}
	}
	return fun, nil
}

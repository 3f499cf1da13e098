package elaborate

import (
	"github.com/Yiergot/vehicle/internal/ast"
	"github.com/Yiergot/vehicle/internal/debruijn"
	"github.com/Yiergot/vehicle/internal/token"
	"github.com/Yiergot/vehicle/internal/verrors"
)

// decomposeClass reports whether t is (a possibly-applied) class
// builtin application, e.g. `IsNatural ?m` or `IsContainer ?e ?c`
// (spec.md §4.3.2).
func decomposeClass(t ast.Expr) (ast.BuiltinOp, []ast.Expr, bool) {
	head, args := ast.Decompose(t)
	b, ok := head.(*ast.BuiltinExpr)
	if !ok || !ast.Classes[b.Op] {
		return "", nil, false
	}
	out := make([]ast.Expr, len(args))
	for i, a := range args {
		out[i] = a.Value
	}
	return b.Op, out, true
}

// insertImplicits peels every leading Implicit/Instance Pi off ty,
// wrapping e in a machine-inserted application of a fresh meta for
// each (spec.md §4.3 "inferArgs is the single source of inserted
// arguments; it tags each inserted argument with TheMachine origin,
// assigns it a fresh meta, and if the Pi's visibility is Instance it
// additionally emits a Has(meta, class) constraint"). Called with no
// pending user argument (check rule 5's "viaInfer") it
// consumes every leading non-explicit Pi; the App-argument loop in
// inferApp calls the single-step form inline so it can stop as soon as
// visibilities line up with the next user-supplied argument.
func insertImplicits(mc *MetaContext, ctx Ctx, e, ty ast.Expr, prov token.Provenance) (ast.Expr, ast.Expr) {
	for {
		ty = mc.Zap(ty)
		pi, ok := ty.(*ast.PiExpr)
		if !ok || pi.Binder.Visibility == ast.Explicit {
			return e, ty
		}
		m := mc.Fresh(pi.Binder.Type, ctx.Depth())
		meta := &ast.MetaExpr{Ann: ast.Ann{Prov: prov, Type: pi.Binder.Type}, ID: m}
		if pi.Binder.Visibility == ast.Instance {
			if op, args, isClass := decomposeClass(pi.Binder.Type); isClass {
				mc.Emit(HasConstraint(ctx.Depth(), prov, m, op, args))
			}
		}
		e = ast.NewApp(prov, e, ast.Argument{Prov: prov, Origin: ast.OriginMachine, Visibility: pi.Binder.Visibility, Value: meta})
		ty = debruijn.Subst(meta, pi.Result)
	}
}

// Check implements spec.md §4.3's `check(T, e) → e′` judgement.
func Check(mc *MetaContext, ctx Ctx, expected, e ast.Expr, prov token.Provenance) (ast.Expr, error) {
	expected = mc.Zap(expected)

	if lam, isLam := e.(*ast.LamExpr); isLam {
		if pi, isPi := expected.(*ast.PiExpr); isPi && pi.Binder.Visibility == lam.Binder.Visibility {
			// Rule 1: unify the annotated param type against the Pi's,
			// then check the body under the Pi's binder type.
			if out, _, err := unify(mc, ctx, lam.Binder.Type, pi.Binder.Type, prov); out == unifyFail {
				return nil, err
			}
			checkedBody, err := Check(mc, ctx.Extend(pi.Binder.Type), pi.Result, lam.Body, prov)
			if err != nil {
				return nil, err
			}
			b := lam.Binder
			b.Type = pi.Binder.Type
			return &ast.LamExpr{Ann: ast.Ann{Prov: prov, Type: expected}, Binder: b, Body: checkedBody}, nil
		}
		if pi, isPi := expected.(*ast.PiExpr); isPi && pi.Binder.Visibility != ast.Explicit {
			// Rule 2: insert a machine implicit/instance lambda and retry.
			lifted := debruijn.Lift(1, 0, e)
			checkedBody, err := Check(mc, ctx.Extend(pi.Binder.Type), pi.Result, lifted, prov)
			if err != nil {
				return nil, err
			}
			return &ast.LamExpr{
				Ann:    ast.Ann{Prov: token.Machine, Type: expected},
				Binder: ast.Binder{Prov: token.Machine, Origin: ast.OriginMachine, Visibility: pi.Binder.Visibility, Type: pi.Binder.Type},
				Body:   checkedBody,
			}, nil
		}
		// Rule 3: expected type is not a Pi at all.
		return nil, &verrors.Mismatch{Actual: "function", Expected: describe(expected), Prov: prov}
	}

	// Rule 2, reached only when e is not itself a Lam: any other term
	// checked against a leading implicit/instance Pi gets the same
	// machine insertion (e.g. a hole or a bare application standing in
	// for an implicitly-quantified value).
	if pi, isPi := expected.(*ast.PiExpr); isPi && pi.Binder.Visibility != ast.Explicit {
		lifted := debruijn.Lift(1, 0, e)
		checkedBody, err := Check(mc, ctx.Extend(pi.Binder.Type), pi.Result, lifted, prov)
		if err != nil {
			return nil, err
		}
		return &ast.LamExpr{
			Ann:    ast.Ann{Prov: token.Machine, Type: expected},
			Binder: ast.Binder{Prov: token.Machine, Origin: ast.OriginMachine, Visibility: pi.Binder.Visibility, Type: pi.Binder.Type},
			Body:   checkedBody,
		}, nil
	}

	if _, isHole := e.(*ast.HoleExpr); isHole {
		// Rule 4: holes become metas typed at the expected type.
		m := mc.Fresh(expected, ctx.Depth())
		return &ast.MetaExpr{Ann: ast.Ann{Prov: prov, Type: expected}, ID: m}, nil
	}

	// Rule 5: fall through to infer, then viaInfer.
	inferred, inferredTy, err := inferRaw(mc, ctx, e, prov)
	if err != nil {
		return nil, err
	}
	wrapped, finalTy := insertImplicits(mc, ctx, inferred, inferredTy, prov)
	if out, _, uerr := unify(mc, ctx, finalTy, expected, prov); out == unifyFail {
		return nil, uerr
	} else if out == unifyDefer {
		mc.Emit(UnifyConstraint(ctx.Depth(), prov, finalTy, expected))
	}
	wrapped.GetAnn().Type = expected
	return wrapped, nil
}

// Infer implements spec.md §4.3's `infer(e) → (e′, T)` judgement, and
// stamps the elaborated node's own Ann.Type with the inferred type
// (spec.md §3 "Type ... nil until elaboration fills it in").
func Infer(mc *MetaContext, ctx Ctx, e ast.Expr, prov token.Provenance) (ast.Expr, ast.Expr, error) {
	e2, ty, err := inferRaw(mc, ctx, e, prov)
	if err != nil {
		return nil, nil, err
	}
	e2.GetAnn().Type = ty
	return e2, ty, nil
}

// inferRaw is Infer's recursive worker, used internally so that the
// Ann.Type stamp only runs once per node rather than once per
// recursive step.
func inferRaw(mc *MetaContext, ctx Ctx, e ast.Expr, prov token.Provenance) (ast.Expr, ast.Expr, error) {
	switch x := e.(type) {
	case *ast.VarExpr:
		switch ref := x.Ref.(type) {
		case ast.BoundVar:
			ty, ok := ctx.BoundType(ref.Index)
			if !ok {
				verrors.Impossible("elaborate: bound variable out of range (scope checker invariant violated)")
			}
			return x, ty, nil
		case ast.FreeVar:
			ty, _, ok := ctx.Decl(ref.ID)
			if !ok {
				verrors.Impossible("elaborate: free identifier not declared (scope checker invariant violated)")
			}
			return x, ty, nil
		default:
			verrors.Impossible("elaborate: named variable survived scope checking")
			return nil, nil, nil
		}
	case *ast.UniverseExpr:
		return x, &ast.UniverseExpr{Ann: ast.Ann{Prov: prov}, Level: x.Level + 1}, nil
	case *ast.BuiltinExpr:
		return x, ast.TypeOfBuiltin(x.Op), nil
	case *ast.LiteralExpr:
		return x, ast.TypeOfLiteral(x.Lit.Kind), nil
	case *ast.AppExpr:
		return inferApp(mc, ctx, x, prov)
	case *ast.PiExpr:
		checkedBTy, l1, err := inferUniverseLevel(mc, ctx, x.Binder.Type, prov)
		if err != nil {
			return nil, nil, err
		}
		checkedResult, l2, err := inferUniverseLevel(mc, ctx.Extend(checkedBTy), x.Result, prov)
		if err != nil {
			return nil, nil, err
		}
		level := l1
		if l2 > level {
			level = l2
		}
		b := x.Binder
		b.Type = checkedBTy
		return &ast.PiExpr{Ann: x.Ann, Binder: b, Result: checkedResult}, &ast.UniverseExpr{Ann: ast.Ann{Prov: prov}, Level: level}, nil
	case *ast.LamExpr:
		checkedBTy, _, err := inferUniverseLevel(mc, ctx, x.Binder.Type, prov)
		if err != nil {
			return nil, nil, err
		}
		ctx2 := ctx.Extend(checkedBTy)
		checkedBody, bodyTy, err := inferRaw(mc, ctx2, x.Body, prov)
		if err != nil {
			return nil, nil, err
		}
		b := x.Binder
		b.Type = checkedBTy
		return &ast.LamExpr{Ann: x.Ann, Binder: b, Body: checkedBody}, &ast.PiExpr{Ann: ast.Ann{Prov: prov}, Binder: b, Result: bodyTy}, nil
	case *ast.LetExpr:
		var valTy ast.Expr
		var checkedVal ast.Expr
		var err error
		if _, isHole := x.Binder.Type.(*ast.HoleExpr); isHole {
			checkedVal, valTy, err = inferRaw(mc, ctx, x.Value, prov)
		} else {
			annTy, _, uerr := inferUniverseLevel(mc, ctx, x.Binder.Type, prov)
			if uerr != nil {
				return nil, nil, uerr
			}
			valTy = annTy
			checkedVal, err = Check(mc, ctx, annTy, x.Value, prov)
		}
		if err != nil {
			return nil, nil, err
		}
		ctx2 := ctx.Extend(valTy)
		checkedBody, bodyTy, err := inferRaw(mc, ctx2, x.Body, prov)
		if err != nil {
			return nil, nil, err
		}
		b := x.Binder
		b.Type = valTy
		return &ast.LetExpr{Ann: x.Ann, Value: checkedVal, Binder: b, Body: checkedBody}, bodyTy, nil
	case *ast.AnnExpr:
		checkedTy, _, err := inferUniverseLevel(mc, ctx, x.Type, prov)
		if err != nil {
			return nil, nil, err
		}
		checkedVal, err := Check(mc, ctx, checkedTy, x.Value, prov)
		if err != nil {
			return nil, nil, err
		}
		return &ast.AnnExpr{Ann: x.Ann, Value: checkedVal, Type: checkedTy}, checkedTy, nil
	case *ast.SeqExpr:
		return inferSeq(mc, ctx, x, prov)
	default:
		verrors.Impossible("elaborate: cannot infer a Meta, Hole, or PrimDict directly")
		return nil, nil, nil
	}
}

func inferUniverseLevel(mc *MetaContext, ctx Ctx, e ast.Expr, prov token.Provenance) (ast.Expr, int, error) {
	checked, ty, err := inferRaw(mc, ctx, e, prov)
	if err != nil {
		return nil, 0, err
	}
	u, ok := mc.Zap(ty).(*ast.UniverseExpr)
	if !ok {
		return nil, 0, &verrors.Mismatch{Actual: describe(ty), Expected: "a type", Prov: prov}
	}
	return checked, u.Level, nil
}

// inferApp implements spec.md §4.3's `App fun args` rule: infer the
// head, then walk the declared Pi type pairwise against the supplied
// arguments, inserting machine implicit/instance arguments whenever
// the next Pi's visibility does not match the next user argument.
func inferApp(mc *MetaContext, ctx Ctx, app *ast.AppExpr, prov token.Provenance) (ast.Expr, ast.Expr, error) {
	fun, funTy, err := inferRaw(mc, ctx, app.Fun, prov)
	if err != nil {
		return nil, nil, err
	}

	var resultArgs []ast.Argument
	for _, userArg := range app.Args {
		for {
			funTy = mc.Zap(funTy)
			pi, ok := funTy.(*ast.PiExpr)
			if !ok {
				return nil, nil, &verrors.Mismatch{Actual: "non-function", Expected: "function type", Prov: prov}
			}
			if pi.Binder.Visibility == userArg.Visibility {
				checkedArg, err := Check(mc, ctx, pi.Binder.Type, userArg.Value, prov)
				if err != nil {
					return nil, nil, err
				}
				resultArgs = append(resultArgs, ast.Argument{Prov: userArg.Prov, Origin: userArg.Origin, Visibility: userArg.Visibility, Value: checkedArg})
				funTy = debruijn.Subst(checkedArg, pi.Result)
				break
			}
			if pi.Binder.Visibility == ast.Explicit {
				return nil, nil, &verrors.MissingExplicitArg{ExpectedType: describe(pi.Binder.Type), Prov: prov}
			}
			m := mc.Fresh(pi.Binder.Type, ctx.Depth())
			meta := &ast.MetaExpr{Ann: ast.Ann{Prov: prov, Type: pi.Binder.Type}, ID: m}
			if pi.Binder.Visibility == ast.Instance {
				if op, args, isClass := decomposeClass(pi.Binder.Type); isClass {
					mc.Emit(HasConstraint(ctx.Depth(), prov, m, op, args))
				}
			}
			resultArgs = append(resultArgs, ast.Argument{Prov: token.Machine, Origin: ast.OriginMachine, Visibility: pi.Binder.Visibility, Value: meta})
			funTy = debruijn.Subst(meta, pi.Result)
		}
	}
	return ast.NewApp(prov, fun, resultArgs...), funTy, nil
}

func inferSeq(mc *MetaContext, ctx Ctx, seq *ast.SeqExpr, prov token.Provenance) (ast.Expr, ast.Expr, error) {
	u0 := &ast.UniverseExpr{Ann: ast.Ann{Prov: prov}, Level: 0}
	elemMeta := mc.Fresh(u0, ctx.Depth())
	contMeta := mc.Fresh(u0, ctx.Depth())
	elemTyExpr := &ast.MetaExpr{Ann: ast.Ann{Prov: prov, Type: u0}, ID: elemMeta}
	contTyExpr := &ast.MetaExpr{Ann: ast.Ann{Prov: prov, Type: u0}, ID: contMeta}

	dictMeta := mc.Fresh(ast.NewApp(prov, &ast.BuiltinExpr{Ann: ast.Ann{Prov: prov}, Op: ast.OpIsContainer},
		ast.Argument{Value: elemTyExpr}, ast.Argument{Value: contTyExpr}), ctx.Depth())
	mc.Emit(HasConstraint(ctx.Depth(), prov, dictMeta, ast.OpIsContainer, []ast.Expr{elemTyExpr, contTyExpr}))

	checked := make([]ast.Expr, len(seq.Elements))
	for i, el := range seq.Elements {
		c, err := Check(mc, ctx, elemTyExpr, el, prov)
		if err != nil {
			return nil, nil, err
		}
		checked[i] = c
	}
	return &ast.SeqExpr{Ann: seq.Ann, Elements: checked}, contTyExpr, nil
}

package elaborate

import "github.com/Yiergot/vehicle/internal/ast"

// MetaContext is the elaborator's mutable state (spec.md §4.3 "a
// mutable meta-context: next meta id, meta-substitution, pending
// constraint list"). Grounded on the teacher's InferenceContext
// (GlobalSubst/Constraints), trimmed to the one substitution map
// Vehicle's metas need — there is no separate row/kind substitution
// the way funxy's HM inference carries.
type MetaContext struct {
	nextID    int
	subst     map[ast.MetaID]ast.Expr
	metaTy    map[ast.MetaID]ast.Expr // the type each meta was allocated at
	metaDepth map[ast.MetaID]int      // the Ctx.Depth() in scope when the meta was allocated
	pending   []Constraint
}

func NewMetaContext() *MetaContext {
	return &MetaContext{
		subst:     map[ast.MetaID]ast.Expr{},
		metaTy:    map[ast.MetaID]ast.Expr{},
		metaDepth: map[ast.MetaID]int{},
	}
}

// Fresh allocates a new meta-variable typed at ty (spec.md §4.3 check
// rule 4, "allocate a fresh meta m typed at T"), recording the binder
// depth it was born at so bindMeta's closedness check (spec.md §4.3.1)
// can later tell which BoundVars in a candidate solution refer to
// binders introduced after this meta's birth site.
func (mc *MetaContext) Fresh(ty ast.Expr, depth int) ast.MetaID {
	id := ast.MetaID(mc.nextID)
	mc.nextID++
	mc.metaTy[id] = ty
	mc.metaDepth[id] = depth
	return id
}

func (mc *MetaContext) TypeOf(m ast.MetaID) ast.Expr { return mc.metaTy[m] }

// Depth returns the binder depth m was allocated at (spec.md §4.3.1's
// closedness check).
func (mc *MetaContext) Depth(m ast.MetaID) int { return mc.metaDepth[m] }

// Solve records m ↦ e in the substitution. Callers must have already
// checked the occurs and closedness side conditions (spec.md §4.3.1).
func (mc *MetaContext) Solve(m ast.MetaID, e ast.Expr) { mc.subst[m] = e }

func (mc *MetaContext) Lookup(m ast.MetaID) (ast.Expr, bool) {
	e, ok := mc.subst[m]
	return e, ok
}

// Emit appends a constraint to the pending list (spec.md §4.3 "emits
// unification and type-class constraints").
func (mc *MetaContext) Emit(c Constraint) { mc.pending = append(mc.pending, c) }

// Zap applies the current substitution to every Meta occurrence in e,
// recursively, until no solved meta remains at the surface (spec.md
// §3 "Meta-substitution ... idempotent after each solver pass").
func (mc *MetaContext) Zap(e ast.Expr) ast.Expr {
	switch x := e.(type) {
	case *ast.MetaExpr:
		if solved, ok := mc.subst[x.ID]; ok {
			return mc.Zap(solved)
		}
		return x
	case *ast.VarExpr, *ast.UniverseExpr, *ast.BuiltinExpr, *ast.LiteralExpr, *ast.HoleExpr:
		return x
	case *ast.AppExpr:
		args := make([]ast.Argument, len(x.Args))
		for i, a := range x.Args {
			args[i] = ast.Argument{Prov: a.Prov, Origin: a.Origin, Visibility: a.Visibility, Value: mc.Zap(a.Value)}
		}
		return &ast.AppExpr{Ann: x.Ann, Fun: mc.Zap(x.Fun), Args: args}
	case *ast.PiExpr:
		b := x.Binder
		b.Type = mc.Zap(b.Type)
		return &ast.PiExpr{Ann: x.Ann, Binder: b, Result: mc.Zap(x.Result)}
	case *ast.LamExpr:
		b := x.Binder
		b.Type = mc.Zap(b.Type)
		return &ast.LamExpr{Ann: x.Ann, Binder: b, Body: mc.Zap(x.Body)}
	case *ast.LetExpr:
		b := x.Binder
		b.Type = mc.Zap(b.Type)
		return &ast.LetExpr{Ann: x.Ann, Value: mc.Zap(x.Value), Binder: b, Body: mc.Zap(x.Body)}
	case *ast.AnnExpr:
		return &ast.AnnExpr{Ann: x.Ann, Value: mc.Zap(x.Value), Type: mc.Zap(x.Type)}
	case *ast.SeqExpr:
		els := make([]ast.Expr, len(x.Elements))
		for i, el := range x.Elements {
			els[i] = mc.Zap(el)
		}
		return &ast.SeqExpr{Ann: x.Ann, Elements: els}
	case *ast.PrimDictExpr:
		return &ast.PrimDictExpr{Ann: x.Ann, Dict: mc.Zap(x.Dict)}
	default:
		return e
	}
}

// FreeMetas collects every unsolved meta id occurring in e, used by the
// occurs check (spec.md §4.3.1 "m ∉ freeMetas(e)").
func FreeMetas(e ast.Expr) map[ast.MetaID]bool {
	out := map[ast.MetaID]bool{}
	collectMetas(e, out)
	return out
}

func collectMetas(e ast.Expr, out map[ast.MetaID]bool) {
	switch x := e.(type) {
	case *ast.MetaExpr:
		out[x.ID] = true
	case *ast.AppExpr:
		collectMetas(x.Fun, out)
		for _, a := range x.Args {
			collectMetas(a.Value, out)
		}
	case *ast.PiExpr:
		collectMetas(x.Binder.Type, out)
		collectMetas(x.Result, out)
	case *ast.LamExpr:
		collectMetas(x.Binder.Type, out)
		collectMetas(x.Body, out)
	case *ast.LetExpr:
		collectMetas(x.Value, out)
		collectMetas(x.Binder.Type, out)
		collectMetas(x.Body, out)
	case *ast.AnnExpr:
		collectMetas(x.Value, out)
		collectMetas(x.Type, out)
	case *ast.SeqExpr:
		for _, el := range x.Elements {
			collectMetas(el, out)
		}
	case *ast.PrimDictExpr:
		collectMetas(x.Dict, out)
	}
}

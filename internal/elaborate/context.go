// Package elaborate is the bidirectional type checker (spec.md §4.3):
// check/infer judgements over ast.Expr, a meta-variable context, a
// unifier, closed type-class resolution, and a fixed-point constraint
// solver. Grounded on the teacher's internal/analyzer (InferenceContext,
// SolveConstraints) for the overall "mutable pass state threaded by
// pointer, fallible work returns error" shape, and on
// internal/typesystem/unify.go for co-inductive structural unification
// — both generalized from Hindley-Milner type variables to Vehicle's
// dependently-typed metas-over-Expr.
package elaborate

import (
	"github.com/Yiergot/vehicle/internal/ast"
	"github.com/Yiergot/vehicle/internal/debruijn"
)

// Ctx is the read-only variable context spec.md §4.3 describes: bound
// variable types, most-recently-bound last, plus the declaration table
// for Free lookups. It is never mutated; extending it for a binder's
// body is a value copy (spec.md §9 "the 'local' context change idiom
// maps to ... a saved-and-restored value").
type Ctx struct {
	boundTypes []ast.Expr
	decls      DeclLookup
}

// DeclLookup is the subset of *symbols.Table the elaborator needs,
// kept as an interface so this package does not import symbols
// directly for its core judgements (only the driver in elaborate.go
// does).
type DeclLookup interface {
	Lookup(name string) *Entry
}

// Entry mirrors symbols.Entry's two fields the elaborator reads.
type Entry struct {
	Type ast.Expr
	Body ast.Expr
}

func NewCtx(decls DeclLookup) Ctx {
	return Ctx{decls: decls}
}

// AtDepth rebuilds a Ctx carrying only a binder depth, no decl lookup and
// no real binder types — for re-entering the unifier when solving a
// deferred constraint (spec.md §3 "Context captures the bound variables
// visible at the constraint's birth site"): the solver's fixed-point loop
// (solve.go) only ever needs unify's Depth()/Extend() bookkeeping to
// reconstruct that birth-site depth, never an actual BoundType lookup, so
// the placeholder entries below are never read.
func AtDepth(depth int) Ctx {
	return Ctx{boundTypes: make([]ast.Expr, depth)}
}

// Extend returns a new Ctx with one more bound variable type pushed
// (spec.md §4.3 rule 1 "extend the bound context").
func (c Ctx) Extend(ty ast.Expr) Ctx {
	next := make([]ast.Expr, len(c.boundTypes)+1)
	copy(next, c.boundTypes)
	next[len(next)-1] = ty
	return Ctx{boundTypes: next, decls: c.decls}
}

// BoundType looks up the type of Bound i, lifted by i+1 to account for
// the binders strictly between its birth site and here (spec.md §4.3
// "Var(Bound i): look up binder type in context, lift it by i+1").
func (c Ctx) BoundType(i int) (ast.Expr, bool) {
	n := len(c.boundTypes)
	if i < 0 || i >= n {
		return nil, false
	}
	return debruijn.Lift(i+1, 0, c.boundTypes[n-1-i]), true
}

// Depth is the number of binders currently in scope, used to record
// the birth-site context a constraint needs to be solved under
// (spec.md §3 "Constraint ... Context captures the bound variables
// visible at the constraint's birth site").
func (c Ctx) Depth() int { return len(c.boundTypes) }

func (c Ctx) Decl(name string) (ast.Expr, ast.Expr, bool) {
	e := c.decls.Lookup(name)
	if e == nil {
		return nil, nil, false
	}
	return e.Type, e.Body, true
}

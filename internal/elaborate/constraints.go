package elaborate

import (
	"github.com/Yiergot/vehicle/internal/ast"
	"github.com/Yiergot/vehicle/internal/token"
)

// ConstraintKind distinguishes the two constraint shapes spec.md §3
// names, mirrored on the teacher's ConstraintType (constraints.go).
type ConstraintKind int

const (
	KindUnify ConstraintKind = iota
	KindHas
)

// Constraint is spec.md §3's "(context, base)" pair. Depth records the
// number of binders in scope at the constraint's birth site; E1/E2 hold
// the two sides of a Unify, Meta/Class/Args the parts of a Has.
type Constraint struct {
	Kind  ConstraintKind
	Depth int
	Prov  token.Provenance

	E1, E2 ast.Expr // KindUnify

	Meta  ast.MetaID    // KindHas
	Class ast.BuiltinOp // KindHas
	Args  []ast.Expr    // KindHas, the class's type parameters
}

func UnifyConstraint(depth int, prov token.Provenance, e1, e2 ast.Expr) Constraint {
	return Constraint{Kind: KindUnify, Depth: depth, Prov: prov, E1: e1, E2: e2}
}

func HasConstraint(depth int, prov token.Provenance, m ast.MetaID, class ast.BuiltinOp, args []ast.Expr) Constraint {
	return Constraint{Kind: KindHas, Depth: depth, Prov: prov, Meta: m, Class: class, Args: args}
}

// progress is the monoid spec.md §4.3 "Constraint solver" names:
// Stuck is the identity, combination is list-append / counter-add.
type progress struct {
	newConstraints []Constraint
	solvedMetas    int
}

func (p *progress) merge(o progress) {
	p.newConstraints = append(p.newConstraints, o.newConstraints...)
	p.solvedMetas += o.solvedMetas
}

func (p progress) isStuck() bool {
	return len(p.newConstraints) == 0 && p.solvedMetas == 0
}

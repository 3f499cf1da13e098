package elaborate

import (
	"github.com/Yiergot/vehicle/internal/ast"
	"github.com/Yiergot/vehicle/internal/verrors"
)

// headKind classifies the head of a concrete type; resolveClass maps it
// to whether the class holds for it (spec.md §4.3.2: "a closed rule set maps concrete head
// types ... to a witness dictionary expression"). Vehicle never
// constructs a real dictionary value to pass at runtime — elaboration
// only needs to know a class holds, since the normaliser dispatches
// builtins directly on literal kind (spec.md §4.4) rather than through
// a vtable the way the teacher's instance system does. PrimDictExpr
// wraps a trivial marker recording which instance resolution chose.
type headKind int

const (
	headNat headKind = iota
	headInt
	headRat
	headReal
	headBool
	headProp
	headList
	headTensor
	headUnknown
)

func classifyHead(e ast.Expr) headKind {
	head, _ := ast.Decompose(e)
	b, ok := head.(*ast.BuiltinExpr)
	if !ok {
		return headUnknown
	}
	switch b.Op {
	case ast.OpNat:
		return headNat
	case ast.OpInt:
		return headInt
	case ast.OpReal:
		return headReal
	case ast.OpBool:
		return headBool
	case ast.OpProp:
		return headProp
	case ast.OpList:
		return headList
	case ast.OpTensor:
		return headTensor
	default:
		return headUnknown
	}
}

// resolveClass attempts to discharge a single Has(meta, class, args)
// constraint. It returns (dict, subconstraints, true) on success,
// (nil, nil, false) if the class's argument(s) are still a meta (for
// IsContainer only the container argument counts)
// (Stuck, spec.md §4.3.2 "If the class's argument is still a meta, the
// constraint is Stuck"), or an error if the concrete head does not
// satisfy the class at all.
func resolveClass(mc *MetaContext, c Constraint) (ast.Expr, []Constraint, bool, error) {
	args := make([]ast.Expr, len(c.Args))
	for i, a := range c.Args {
		args[i] = mc.Zap(a)
	}
	for i, a := range args {
		if c.Class == ast.OpIsContainer && i == 0 {
			continue // elem is fixed by the sub-constraint emitted below
		}
		if _, ok := a.(*ast.MetaExpr); ok {
			return nil, nil, false, nil
		}
	}

	kinds := make([]headKind, len(args))
	for i, a := range args {
		kinds[i] = classifyHead(a)
	}

	ok := false
	var sub []Constraint
	switch c.Class {
	case ast.OpHasEq, ast.OpHasOrd:
		ok = kinds[0] == headNat || kinds[0] == headInt || kinds[0] == headRat || kinds[0] == headReal || kinds[0] == headBool
	case ast.OpIsTruth:
		ok = kinds[0] == headBool || kinds[0] == headProp
	case ast.OpIsNatural:
		ok = kinds[0] == headNat || kinds[0] == headInt || kinds[0] == headRat || kinds[0] == headReal
	case ast.OpIsIntegral:
		ok = kinds[0] == headInt || kinds[0] == headRat || kinds[0] == headReal
	case ast.OpIsRational:
		ok = kinds[0] == headRat || kinds[0] == headReal
	case ast.OpIsReal:
		ok = kinds[0] == headReal
	case ast.OpIsQuantify:
		ok = kinds[0] == headList || kinds[0] == headTensor
	case ast.OpIsContainer:
		// IsContainer elem cont: cont must be List/Tensor applied to
		// elem (spec.md §4.3.2, §6 container family).
		head, hargs := ast.Decompose(args[1])
		b, isBuiltin := head.(*ast.BuiltinExpr)
		if !isBuiltin || len(hargs) == 0 {
			ok = false
			break
		}
		switch b.Op {
		case ast.OpList, ast.OpTensor:
			ok = true
			sub = []Constraint{UnifyConstraint(c.Depth, c.Prov, args[0], hargs[0].Value)}
		}
	default:
		ok = false
	}

	if !ok {
		return nil, nil, false, &verrors.UnsolvedConstraints{
			Messages: []string{string(c.Class) + " does not hold for the given type"},
			Prov:     c.Prov,
		}
	}
	return &ast.PrimDictExpr{Ann: ast.Ann{Prov: c.Prov}, Dict: &ast.BuiltinExpr{Ann: ast.Ann{Prov: c.Prov}, Op: c.Class}}, sub, true, nil
}

package vnnlib

import (
	"github.com/Yiergot/vehicle/internal/ast"
	"github.com/Yiergot/vehicle/internal/verrors"
)

// ValidateNetworkType checks a declared network's type against
// `Pi (Tensor Real [n]) (Tensor Real [m])` and returns its input/output
// tensor dimensions (spec.md §4.5 step 2). Every rejection reason is one
// of the NetworkTypeProblem values spec.md §7 enumerates.
func ValidateNetworkType(id string, ty ast.Expr) (inDim, outDim int, err error) {
	pi, ok := ty.(*ast.PiExpr)
	if !ok {
		return 0, 0, &verrors.UnsupportedNetworkType{NetworkID: id, Problem: verrors.NotAFunction, Prov: ty.GetProvenance()}
	}
	inDim, err = tensorDim(id, pi.Binder.Type)
	if err != nil {
		return 0, 0, err
	}
	outDim, err = tensorDim(id, pi.Result)
	if err != nil {
		return 0, 0, err
	}
	return inDim, outDim, nil
}

// tensorDim decomposes t as `Tensor Real [n]` and returns n, or an
// UnsupportedNetworkType describing which part of that shape failed.
func tensorDim(id string, t ast.Expr) (int, error) {
	prov := t.GetProvenance()
	head, args := ast.Decompose(t)
	b, ok := head.(*ast.BuiltinExpr)
	if !ok || b.Op != ast.OpTensor || len(args) != 2 {
		return 0, &verrors.UnsupportedNetworkType{NetworkID: id, Problem: verrors.NotATensor, Prov: prov}
	}

	elemHead, _ := ast.Decompose(args[0].Value)
	elemBuiltin, ok := elemHead.(*ast.BuiltinExpr)
	if !ok || elemBuiltin.Op != ast.OpReal {
		return 0, &verrors.UnsupportedNetworkType{NetworkID: id, Problem: verrors.WrongTensorType, Prov: prov}
	}

	shape, ok := args[1].Value.(*ast.SeqExpr)
	if !ok {
		return 0, &verrors.UnsupportedNetworkType{NetworkID: id, Problem: verrors.VariableSizeTensor, Prov: prov}
	}
	if len(shape.Elements) != 1 {
		return 0, &verrors.UnsupportedNetworkType{NetworkID: id, Problem: verrors.MultidimensionalTensor, Prov: prov}
	}
	lit, ok := shape.Elements[0].(*ast.LiteralExpr)
	if !ok || lit.Lit.Kind != ast.LitNat {
		return 0, &verrors.UnsupportedNetworkType{NetworkID: id, Problem: verrors.VariableSizeTensor, Prov: prov}
	}
	return int(lit.Lit.Nat), nil
}

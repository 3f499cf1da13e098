package vnnlib

import (
	"github.com/Yiergot/vehicle/internal/ast"
	"github.com/Yiergot/vehicle/internal/debruijn"
	"github.com/Yiergot/vehicle/internal/token"
)

// rewrite performs spec.md §4.5 step 4: each
//
//	Let (App (Var (Free netID)) [inputArg]) _ letBody
//
// becomes
//
//	(inputSeq == inputArg) => (outputSeq substituted for letBody's binder)
//
// inputSeq/outputSeq are Tensor literals of magic-variable references
// allocated by c in occurrence order. Every other construct is copied
// structurally, tracking depth (binders still present between the
// current position and the body root) so a magic-variable reference's
// BoundVar index can be computed without ever materializing the
// magic-variable block itself as a binder in this tree — the block is
// prepended later, by whatever prints Body (spec.md §7 "all free
// bound-variable indices point into the magic-variable quantifier
// block").
func rewrite(e ast.Expr, dims map[string][2]int, totalIn, totalOut, depth int, c *Counter) (ast.Expr, error) {
	switch x := e.(type) {
	case *ast.LetExpr:
		if d, _, arg, ok := networkCall(x.Value, dims); ok {
			loweredArg, err := rewrite(arg, dims, totalIn, totalOut, depth, c)
			if err != nil {
				return nil, err
			}

			inStart := c.in
			c.in += d[0]
			outStart := c.out
			c.out += d[1]
			inSeq := magicSeq(inStart, d[0], depth, totalIn, totalOut, false)
			outSeq := magicSeq(outStart, d[1], depth, totalIn, totalOut, true)

			eq := &ast.AppExpr{
				Ann: ast.Ann{Prov: x.Prov},
				Fun: &ast.BuiltinExpr{Ann: ast.Ann{Prov: x.Prov}, Op: ast.OpEq},
				Args: []ast.Argument{
					{Prov: x.Prov, Visibility: ast.Explicit, Value: inSeq},
					{Prov: x.Prov, Visibility: ast.Explicit, Value: loweredArg},
				},
			}

			// letBody's own binder (the network's result) is eliminated here,
			// not kept as a Lam/Let binder, so depth is unchanged below it.
			substituted := debruijn.Subst(outSeq, x.Body)
			loweredBody, err := rewrite(substituted, dims, totalIn, totalOut, depth, c)
			if err != nil {
				return nil, err
			}

			return &ast.AppExpr{
				Ann: ast.Ann{Prov: x.Prov},
				Fun: &ast.BuiltinExpr{Ann: ast.Ann{Prov: x.Prov}, Op: ast.OpImplies},
				Args: []ast.Argument{
					{Prov: x.Prov, Visibility: ast.Explicit, Value: eq},
					{Prov: x.Prov, Visibility: ast.Explicit, Value: loweredBody},
				},
			}, nil
		}

		val, err := rewrite(x.Value, dims, totalIn, totalOut, depth, c)
		if err != nil {
			return nil, err
		}
		b := x.Binder
		b.Type, err = rewrite(b.Type, dims, totalIn, totalOut, depth, c)
		if err != nil {
			return nil, err
		}
		body, err := rewrite(x.Body, dims, totalIn, totalOut, depth+1, c)
		if err != nil {
			return nil, err
		}
		return &ast.LetExpr{Ann: x.Ann, Value: val, Binder: b, Body: body}, nil

	case *ast.AppExpr:
		fun, err := rewrite(x.Fun, dims, totalIn, totalOut, depth, c)
		if err != nil {
			return nil, err
		}
		args := make([]ast.Argument, len(x.Args))
		for i, a := range x.Args {
			v, err := rewrite(a.Value, dims, totalIn, totalOut, depth, c)
			if err != nil {
				return nil, err
			}
			args[i] = ast.Argument{Prov: a.Prov, Origin: a.Origin, Visibility: a.Visibility, Value: v}
		}
		return &ast.AppExpr{Ann: x.Ann, Fun: fun, Args: args}, nil

	case *ast.LamExpr:
		body, err := rewrite(x.Body, dims, totalIn, totalOut, depth+1, c)
		if err != nil {
			return nil, err
		}
		return &ast.LamExpr{Ann: x.Ann, Binder: x.Binder, Body: body}, nil

	case *ast.PiExpr:
		res, err := rewrite(x.Result, dims, totalIn, totalOut, depth+1, c)
		if err != nil {
			return nil, err
		}
		return &ast.PiExpr{Ann: x.Ann, Binder: x.Binder, Result: res}, nil

	case *ast.AnnExpr:
		v, err := rewrite(x.Value, dims, totalIn, totalOut, depth, c)
		if err != nil {
			return nil, err
		}
		return &ast.AnnExpr{Ann: x.Ann, Value: v, Type: x.Type}, nil

	case *ast.SeqExpr:
		els := make([]ast.Expr, len(x.Elements))
		for i, el := range x.Elements {
			v, err := rewrite(el, dims, totalIn, totalOut, depth, c)
			if err != nil {
				return nil, err
			}
			els[i] = v
		}
		return &ast.SeqExpr{Ann: x.Ann, Elements: els}, nil

	case *ast.PrimDictExpr:
		d, err := rewrite(x.Dict, dims, totalIn, totalOut, depth, c)
		if err != nil {
			return nil, err
		}
		return &ast.PrimDictExpr{Ann: x.Ann, Dict: d}, nil

	default:
		return e, nil
	}
}

// magicSeq builds a Tensor literal (a flat Seq of n Real-kinded magic
// variable references) starting at localStart within the input block
// (isOutput false) or the output block (isOutput true). Inputs occupy
// global positions [0, totalIn), outputs [totalIn, totalIn+totalOut), in
// the tensor-major order the printer binds X0..Y{M-1} in (spec.md §4.5
// step 5). A reference at tree depth d to the magic variable at global
// position g has BoundVar index d + (total-1-g): magic variables are
// conceptually bound outermost-to-innermost in ascending global order,
// so the lowest-numbered one is furthest (in de Bruijn distance) from
// any point below the whole block.
func magicSeq(localStart, n, depth, totalIn, totalOut int, isOutput bool) ast.Expr {
	total := totalIn + totalOut
	els := make([]ast.Expr, n)
	for i := 0; i < n; i++ {
		global := localStart + i
		if isOutput {
			global += totalIn
		}
		idx := depth + (total - 1 - global)
		els[i] = &ast.VarExpr{Ann: ast.Ann{Prov: token.Machine}, Ref: ast.BoundVar{Index: idx}}
	}
	return &ast.SeqExpr{Ann: ast.Ann{Prov: token.Machine}, Elements: els}
}

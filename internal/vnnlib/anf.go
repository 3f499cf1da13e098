package vnnlib

import (
	"github.com/Yiergot/vehicle/internal/ast"
	"github.com/Yiergot/vehicle/internal/symbols"
	"github.com/Yiergot/vehicle/internal/verrors"
)

// metaNetworkOrder returns every network identifier body references, in
// first-occurrence order (spec.md §4.5 step 1: "freeNames(body) ∩
// networkIdentifiers", order-preserving). A pre-order walk over free
// identifiers rather than debruijn.FreeIdentifiers' set, since the
// printer needs a stable, deterministic network list.
func metaNetworkOrder(body ast.Expr, decls *symbols.Table) []string {
	seen := map[string]bool{}
	var order []string
	var walk func(e ast.Expr)
	walk = func(e ast.Expr) {
		switch x := e.(type) {
		case *ast.VarExpr:
			if fv, ok := x.Ref.(ast.FreeVar); ok && decls.IsNetwork(fv.ID) && !seen[fv.ID] {
				seen[fv.ID] = true
				order = append(order, fv.ID)
			}
		case *ast.AppExpr:
			walk(x.Fun)
			for _, a := range x.Args {
				walk(a.Value)
			}
		case *ast.PiExpr:
			walk(x.Binder.Type)
			walk(x.Result)
		case *ast.LamExpr:
			walk(x.Binder.Type)
			walk(x.Body)
		case *ast.LetExpr:
			walk(x.Value)
			walk(x.Binder.Type)
			walk(x.Body)
		case *ast.AnnExpr:
			walk(x.Value)
			walk(x.Type)
		case *ast.SeqExpr:
			for _, el := range x.Elements {
				walk(el)
			}
		case *ast.PrimDictExpr:
			walk(x.Dict)
		}
	}
	walk(body)
	return order
}

// call records one network application discovered by planCalls, in
// left-to-right occurrence order, together with the dimensions
// ValidateNetworkType already established for that network.
type call struct {
	netID          string
	inDim, outDim  int
}

// networkCall reports whether e is `App(Var(Free netID), [arg])` for a
// netID present in dims, returning its dimensions, identifier, and
// single argument.
func networkCall(e ast.Expr, dims map[string][2]int) (d [2]int, netID string, arg ast.Expr, ok bool) {
	app, isApp := e.(*ast.AppExpr)
	if !isApp || len(app.Args) != 1 {
		return
	}
	v, isVar := app.Fun.(*ast.VarExpr)
	if !isVar {
		return
	}
	fv, isFree := v.Ref.(ast.FreeVar)
	if !isFree {
		return
	}
	dd, known := dims[fv.ID]
	if !known {
		return
	}
	return dd, fv.ID, app.Args[0].Value, true
}

// planCalls enforces the ANF precondition spec.md §9 records as an open
// question resolved in favor of a hard check: a network application is
// legal only as the direct Value of a LetExpr. Anywhere else it is
// rejected with NotInANF rather than silently mis-lowered. Returns every
// legal application in left-to-right order.
func planCalls(body ast.Expr, dims map[string][2]int, propID string) ([]call, error) {
	var calls []call
	var walk func(e ast.Expr) error
	walk = func(e ast.Expr) error {
		switch x := e.(type) {
		case *ast.LetExpr:
			if d, netID, arg, ok := networkCall(x.Value, dims); ok {
				calls = append(calls, call{netID: netID, inDim: d[0], outDim: d[1]})
				if err := walk(arg); err != nil {
					return err
				}
			} else if err := walk(x.Value); err != nil {
				return err
			}
			if err := walk(x.Binder.Type); err != nil {
				return err
			}
			return walk(x.Body)

		case *ast.AppExpr:
			if _, _, _, ok := networkCall(x, dims); ok {
				return &verrors.NotInANF{PropertyID: propID, Prov: x.GetProvenance()}
			}
			if err := walk(x.Fun); err != nil {
				return err
			}
			for _, a := range x.Args {
				if err := walk(a.Value); err != nil {
					return err
				}
			}
			return nil

		case *ast.LamExpr:
			if err := walk(x.Binder.Type); err != nil {
				return err
			}
			return walk(x.Body)

		case *ast.PiExpr:
			if err := walk(x.Binder.Type); err != nil {
				return err
			}
			return walk(x.Result)

		case *ast.AnnExpr:
			if err := walk(x.Value); err != nil {
				return err
			}
			return walk(x.Type)

		case *ast.SeqExpr:
			for _, el := range x.Elements {
				if err := walk(el); err != nil {
					return err
				}
			}
			return nil

		case *ast.PrimDictExpr:
			return walk(x.Dict)

		default:
			return nil
		}
	}
	if err := walk(body); err != nil {
		return nil, err
	}
	return calls, nil
}

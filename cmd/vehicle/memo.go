// Declaration memoization: after normalising a program, store each
// function declaration's printed type/normal form/dependency set in the
// project cache, keyed by the printed declaration text (the elaborated
// type and the normalised body) — the closest proxy this pipeline has to "declaration
// source text" now that provenance only tracks line/column, not a byte
// range into the original file.
package main

import (
	"github.com/Yiergot/vehicle/internal/ast"
	"github.com/Yiergot/vehicle/internal/cache"
	"github.com/Yiergot/vehicle/internal/prettyprinter"
	"github.com/Yiergot/vehicle/internal/vlog"
)

func memoizeDeclarations(c *cache.Cache, prog ast.Program, log *vlog.Logger) {
	for _, d := range prog {
		fn, ok := d.(*ast.DefFun)
		if !ok {
			continue
		}
		typeText := prettyprinter.Print(fn.Type)
		bodyText := prettyprinter.Print(fn.Body)
		key := cache.Key(fn.GetID() + " : " + typeText + " = " + bodyText)
		rec := cache.Record{
			Type:         typeText,
			NormalForm:   bodyText,
			Dependencies: freeIdentifiers(fn.Body),
		}
		if err := c.Store(key, fn.GetID(), rec); err != nil {
			log.Errorf("caching %s: %s", fn.GetID(), err)
		}
	}
}

// freeIdentifiers collects the distinct FreeVar identifiers referenced
// anywhere in e, in first-occurrence order.
func freeIdentifiers(e ast.Expr) []string {
	seen := make(map[string]bool)
	var order []string
	var walk func(ast.Expr)
	walk = func(e ast.Expr) {
		switch x := e.(type) {
		case *ast.VarExpr:
			if fv, ok := x.Ref.(ast.FreeVar); ok && !seen[fv.ID] {
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
	walk(e)
	return order
}

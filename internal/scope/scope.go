// Package scope converts named surface AST into the locally-nameless
// form every later pass operates on (spec.md §4.2). Grounded on the
// teacher's internal/analyzer.Analyzer/walker split (analyzer.go): a
// top-level driver type (Checker) wrapping per-call recursive state,
// the same shape as the teacher's walker carrying its own error slice
// through a tree walk — except this checker fails fast on the first
// unbound name rather than accumulating diagnostics, since spec.md §4.2
// specifies a single UnboundName result, not a diagnostic list.
package scope

import (
	"github.com/Yiergot/vehicle/internal/ast"
	"github.com/Yiergot/vehicle/internal/symbols"
	"github.com/Yiergot/vehicle/internal/verrors"
)

// anonymousSentinel is the binder name that never matches a name lookup,
// used for anonymous ("machine" or `_`) binders (spec.md §4.2).
const anonymousSentinel = "\x00anon"

// Checker carries the two contexts spec.md §4.2 names: an ordered list
// of locally-bound names (most-recent last) and the running
// declaration table, shared with the elaborator.
type Checker struct {
	locals []string
	decls  *symbols.Table
}

func NewChecker(decls *symbols.Table) *Checker {
	return &Checker{decls: decls}
}

// CheckProgram scope-checks every declaration in order, committing each
// identifier to the declaration table only after its own signature/body
// has been checked (spec.md §4.2, §3 "each later declaration sees all
// earlier ones in scope").
func (c *Checker) CheckProgram(prog ast.Program) (ast.Program, error) {
	out := make(ast.Program, 0, len(prog))
	for _, d := range prog {
		checked, err := c.checkDecl(d)
		if err != nil {
			return nil, err
		}
		out = append(out, checked)
	}
	return out, nil
}

func (c *Checker) checkDecl(d ast.Decl) (ast.Decl, error) {
	switch decl := d.(type) {
	case *ast.DeclNetw:
		ty, err := c.checkExpr(decl.Type)
		if err != nil {
			return nil, err
		}
		c.decls.Declare(&symbols.Entry{Name: decl.ID, Kind: symbols.KindNetwork, Type: ty})
		return ast.NewDeclNetw(decl.GetProvenance(), decl.ID, ty), nil
	case *ast.DeclData:
		ty, err := c.checkExpr(decl.Type)
		if err != nil {
			return nil, err
		}
		c.decls.Declare(&symbols.Entry{Name: decl.ID, Kind: symbols.KindDataset, Type: ty})
		return ast.NewDeclData(decl.GetProvenance(), decl.ID, ty), nil
	case *ast.DefFun:
		ty, err := c.checkExpr(decl.Type)
		if err != nil {
			return nil, err
		}
		body, err := c.checkExpr(decl.Body)
		if err != nil {
			return nil, err
		}
		c.decls.Declare(&symbols.Entry{Name: decl.ID, Kind: symbols.KindFunction, Type: ty, Body: body})
		return ast.NewDefFun(decl.GetProvenance(), decl.ID, ty, body), nil
	default:
		verrors.Impossible("scope: unknown Decl variant")
		return nil, nil
	}
}

// checkExpr is the core recursion: every VarExpr carrying a NamedVar is
// resolved against the local list first, then the declaration table
// (spec.md §4.2 "first looks up ... local list ... if absent, checks
// the declaration set").
func (c *Checker) checkExpr(e ast.Expr) (ast.Expr, error) {
	switch x := e.(type) {
	case *ast.VarExpr:
		named, ok := x.Ref.(ast.NamedVar)
		if !ok {
			return x, nil // already nameless; idempotent re-check (spec.md §8 property 1)
		}
		if idx, found := c.resolveLocal(named.Symbol); found {
			return &ast.VarExpr{Ann: x.Ann, Ref: ast.BoundVar{Index: idx}}, nil
		}
		if c.decls.Has(named.Symbol) {
			return &ast.VarExpr{Ann: x.Ann, Ref: ast.FreeVar{ID: named.Symbol}}, nil
		}
		return nil, &verrors.UnboundName{Symbol: named.Symbol, Prov: x.GetProvenance()}
	case *ast.MetaExpr, *ast.HoleExpr, *ast.UniverseExpr, *ast.BuiltinExpr, *ast.LiteralExpr:
		return x, nil
	case *ast.AppExpr:
		fun, err := c.checkExpr(x.Fun)
		if err != nil {
			return nil, err
		}
		args := make([]ast.Argument, len(x.Args))
		for i, a := range x.Args {
			v, err := c.checkExpr(a.Value)
			if err != nil {
				return nil, err
			}
			args[i] = ast.Argument{Prov: a.Prov, Origin: a.Origin, Visibility: a.Visibility, Value: v}
		}
		return &ast.AppExpr{Ann: x.Ann, Fun: fun, Args: args}, nil
	case *ast.PiExpr:
		bty, err := c.checkExpr(x.Binder.Type)
		if err != nil {
			return nil, err
		}
		c.push(x.Binder)
		res, err := c.checkExpr(x.Result)
		c.pop()
		if err != nil {
			return nil, err
		}
		b := x.Binder
		b.Type = bty
		return &ast.PiExpr{Ann: x.Ann, Binder: b, Result: res}, nil
	case *ast.LamExpr:
		bty, err := c.checkExpr(x.Binder.Type)
		if err != nil {
			return nil, err
		}
		c.push(x.Binder)
		body, err := c.checkExpr(x.Body)
		c.pop()
		if err != nil {
			return nil, err
		}
		b := x.Binder
		b.Type = bty
		return &ast.LamExpr{Ann: x.Ann, Binder: b, Body: body}, nil
	case *ast.LetExpr:
		val, err := c.checkExpr(x.Value)
		if err != nil {
			return nil, err
		}
		bty, err := c.checkExpr(x.Binder.Type)
		if err != nil {
			return nil, err
		}
		c.push(x.Binder)
		body, err := c.checkExpr(x.Body)
		c.pop()
		if err != nil {
			return nil, err
		}
		b := x.Binder
		b.Type = bty
		return &ast.LetExpr{Ann: x.Ann, Value: val, Binder: b, Body: body}, nil
	case *ast.AnnExpr:
		val, err := c.checkExpr(x.Value)
		if err != nil {
			return nil, err
		}
		ty, err := c.checkExpr(x.Type)
		if err != nil {
			return nil, err
		}
		return &ast.AnnExpr{Ann: x.Ann, Value: val, Type: ty}, nil
	case *ast.SeqExpr:
		els := make([]ast.Expr, len(x.Elements))
		for i, el := range x.Elements {
			v, err := c.checkExpr(el)
			if err != nil {
				return nil, err
			}
			els[i] = v
		}
		return &ast.SeqExpr{Ann: x.Ann, Elements: els}, nil
	case *ast.PrimDictExpr:
		d, err := c.checkExpr(x.Dict)
		if err != nil {
			return nil, err
		}
		return &ast.PrimDictExpr{Ann: x.Ann, Dict: d}, nil
	default:
		verrors.Impossible("scope: unknown Expr variant")
		return nil, nil
	}
}

// push extends the local list for the scope of a binder's body. An
// anonymous binder (Name == nil) pushes a sentinel that can never match
// a lookup (spec.md §4.2).
func (c *Checker) push(b ast.Binder) {
	if b.IsAnonymous() {
		c.locals = append(c.locals, anonymousSentinel)
		return
	}
	c.locals = append(c.locals, *b.Name)
}

func (c *Checker) pop() {
	c.locals = c.locals[:len(c.locals)-1]
}

// resolveLocal returns the de Bruijn index (distance from the top of
// the list) of the innermost binder matching name.
func (c *Checker) resolveLocal(name string) (int, bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i] == name {
			return len(c.locals) - 1 - i, true
		}
	}
	return 0, false
}

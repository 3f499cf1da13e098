package scope

import (
	"testing"

	"github.com/Yiergot/vehicle/internal/ast"
	"github.com/Yiergot/vehicle/internal/symbols"
	"github.com/Yiergot/vehicle/internal/token"
	"github.com/Yiergot/vehicle/internal/verrors"
)

func named(s string) ast.Expr {
	return &ast.VarExpr{Ann: ast.Ann{Prov: token.Machine}, Ref: ast.NamedVar{Symbol: s}}
}

func boolTy() ast.Expr { return &ast.BuiltinExpr{Ann: ast.Ann{Prov: token.Machine}, Op: ast.OpBool} }

func TestResolvesLambdaParamToBoundVar(t *testing.T) {
	name := "x"
	lam := &ast.LamExpr{
		Ann:    ast.Ann{Prov: token.Machine},
		Binder: ast.Binder{Name: &name, Type: boolTy()},
		Body:   named("x"),
	}
	c := NewChecker(symbols.NewTable())
	got, err := c.checkExpr(lam)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body := got.(*ast.LamExpr).Body.(*ast.VarExpr)
	bv, ok := body.Ref.(ast.BoundVar)
	if !ok || bv.Index != 0 {
		t.Fatalf("got %#v, want BoundVar{0}", body.Ref)
	}
}

func TestResolvesDeclarationToFreeVar(t *testing.T) {
	decls := symbols.NewTable()
	decls.Declare(&symbols.Entry{Name: "f", Kind: symbols.KindNetwork, Type: boolTy()})
	c := NewChecker(decls)
	got, err := c.checkExpr(named("f"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fv, ok := got.(*ast.VarExpr).Ref.(ast.FreeVar)
	if !ok || fv.ID != "f" {
		t.Fatalf("got %#v, want FreeVar{f}", got)
	}
}

func TestUnboundNameFails(t *testing.T) {
	c := NewChecker(symbols.NewTable())
	_, err := c.checkExpr(named("nope"))
	if err == nil {
		t.Fatal("expected UnboundName error")
	}
	if _, ok := err.(*verrors.UnboundName); !ok {
		t.Fatalf("got %T, want *verrors.UnboundName", err)
	}
}

func TestDefinitionNotVisibleInsideItself(t *testing.T) {
	// f : Bool ; f = f  -- the RHS "f" is not yet declared when checked.
	prog := ast.Program{
		ast.NewDefFun(token.Machine, "f", boolTy(), named("f")),
	}
	c := NewChecker(symbols.NewTable())
	_, err := c.CheckProgram(prog)
	if err == nil {
		t.Fatal("expected UnboundName: definitions must not see themselves")
	}
}

func TestLaterDeclarationSeesEarlierOne(t *testing.T) {
	prog := ast.Program{
		ast.NewDefFun(token.Machine, "f", boolTy(), &ast.LiteralExpr{Ann: ast.Ann{Prov: token.Machine}, Lit: ast.BoolLit(true)}),
		ast.NewDefFun(token.Machine, "g", boolTy(), named("f")),
	}
	c := NewChecker(symbols.NewTable())
	checked, err := c.CheckProgram(prog)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g := checked[1].(*ast.DefFun)
	fv, ok := g.Body.(*ast.VarExpr).Ref.(ast.FreeVar)
	if !ok || fv.ID != "f" {
		t.Fatalf("got %#v, want FreeVar{f}", g.Body)
	}
}

func TestAnonymousBinderNeverMatches(t *testing.T) {
	// (\_ . x) where the enclosing context has no "x" declared: lookup of
	// "x" must skip the anonymous binder and fail, not alias to it.
	lam := &ast.LamExpr{
		Ann:    ast.Ann{Prov: token.Machine},
		Binder: ast.Binder{Name: nil, Type: boolTy()},
		Body:   named("x"),
	}
	c := NewChecker(symbols.NewTable())
	_, err := c.checkExpr(lam)
	if err == nil {
		t.Fatal("expected UnboundName: anonymous binder must not shadow lookups")
	}
}

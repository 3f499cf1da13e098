package normalise

import (
	"testing"

	"github.com/Yiergot/vehicle/internal/ast"
	"github.com/Yiergot/vehicle/internal/symbols"
	"github.com/Yiergot/vehicle/internal/token"
	"github.com/Yiergot/vehicle/internal/verrors"
)

func natLit(n uint64) ast.Expr {
	return &ast.LiteralExpr{Ann: ast.Ann{Prov: token.Machine}, Lit: ast.NatLit(n)}
}

func boolLitExpr(b bool) ast.Expr {
	return &ast.LiteralExpr{Ann: ast.Ann{Prov: token.Machine}, Lit: ast.BoolLit(b)}
}

func builtin(op ast.BuiltinOp) ast.Expr {
	return &ast.BuiltinExpr{Ann: ast.Ann{Prov: token.Machine}, Op: op}
}

func natTy() ast.Expr { return builtin(ast.OpNat) }

func natDict(op ast.BuiltinOp) ast.Expr {
	return &ast.PrimDictExpr{Ann: ast.Ann{Prov: token.Machine}, Dict: builtin(op)}
}

func explicitArg(v ast.Expr) ast.Argument {
	return ast.Argument{Prov: token.Machine, Visibility: ast.Explicit, Value: v}
}

func implicitArg(v ast.Expr) ast.Argument {
	return ast.Argument{Prov: token.Machine, Visibility: ast.Implicit, Value: v}
}

func instanceArg(v ast.Expr) ast.Argument {
	return ast.Argument{Prov: token.Machine, Visibility: ast.Instance, Value: v}
}

func TestAddFoldsTwoNatLiterals(t *testing.T) {
	// (+) {Nat} isNat 2 3 -- the full, already-elaborated spine.
	app := ast.NewApp(token.Machine, builtin(ast.OpAdd),
		implicitArg(natTy()), instanceArg(natDict(ast.OpIsNatural)), explicitArg(natLit(2)), explicitArg(natLit(3)))
	got, err := New(symbols.NewTable()).Normalise(app)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lit, ok := got.(*ast.LiteralExpr)
	if !ok || lit.Lit.Kind != ast.LitNat || lit.Lit.Nat != 5 {
		t.Fatalf("got %#v, want Nat 5", got)
	}
}

func TestIfPicksThenBranchOnTrue(t *testing.T) {
	app := ast.NewApp(token.Machine, builtin(ast.OpIf),
		implicitArg(natTy()), explicitArg(boolLitExpr(true)), explicitArg(natLit(1)), explicitArg(natLit(2)))
	got, err := New(symbols.NewTable()).Normalise(app)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lit, ok := got.(*ast.LiteralExpr)
	if !ok || lit.Lit.Nat != 1 {
		t.Fatalf("got %#v, want Nat 1", got)
	}
}

func TestDeltaReductionUnfoldsFreeVarBody(t *testing.T) {
	decls := symbols.NewTable()
	decls.Declare(&symbols.Entry{Name: "one", Kind: symbols.KindFunction, Type: natTy(), Body: natLit(1)})
	ref := &ast.VarExpr{Ann: ast.Ann{Prov: token.Machine}, Ref: ast.FreeVar{ID: "one"}}
	got, err := New(decls).Normalise(ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lit, ok := got.(*ast.LiteralExpr)
	if !ok || lit.Lit.Nat != 1 {
		t.Fatalf("got %#v, want Nat 1", got)
	}
}

func TestLetSubstitutesIntoBody(t *testing.T) {
	// let x = 1 in x + x
	bound := &ast.VarExpr{Ann: ast.Ann{Prov: token.Machine}, Ref: ast.BoundVar{Index: 0}}
	addXX := ast.NewApp(token.Machine, builtin(ast.OpAdd),
		implicitArg(natTy()), instanceArg(natDict(ast.OpIsNatural)), explicitArg(bound), explicitArg(bound))
	let := &ast.LetExpr{
		Ann:    ast.Ann{Prov: token.Machine},
		Value:  natLit(1),
		Binder: ast.Binder{Type: natTy()},
		Body:   addXX,
	}
	got, err := New(symbols.NewTable()).Normalise(let)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lit, ok := got.(*ast.LiteralExpr)
	if !ok || lit.Lit.Nat != 2 {
		t.Fatalf("got %#v, want Nat 2", got)
	}
}

func TestConsPrependsToSeq(t *testing.T) {
	seq := &ast.SeqExpr{Ann: ast.Ann{Prov: token.Machine}, Elements: []ast.Expr{natLit(2)}}
	app := ast.NewApp(token.Machine, builtin(ast.OpCons),
		implicitArg(natTy()), implicitArg(natTy()), instanceArg(natDict(ast.OpIsContainer)),
		explicitArg(natLit(1)), explicitArg(seq))
	got, err := New(symbols.NewTable()).Normalise(app)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, ok := got.(*ast.SeqExpr)
	if !ok || len(out.Elements) != 2 {
		t.Fatalf("got %#v, want a 2-element sequence", got)
	}
}

func boolTy() ast.Expr { return builtin(ast.OpBool) }

func boolDict(op ast.BuiltinOp) ast.Expr {
	return &ast.PrimDictExpr{Ann: ast.Ann{Prov: token.Machine}, Dict: builtin(op)}
}

func TestAndShortCircuitsOnFalseWithoutNeedingLiteralRHS(t *testing.T) {
	// and false f -- f is a free identifier with no declared body, so it
	// stays stuck; the absorbing-value rule must still fire without ever
	// forcing f to a literal (spec.md §4.4's And short-circuit).
	stuck := &ast.VarExpr{Ann: ast.Ann{Prov: token.Machine}, Ref: ast.FreeVar{ID: "networkDependentExpr"}}
	app := ast.NewApp(token.Machine, builtin(ast.OpAnd),
		implicitArg(boolTy()), instanceArg(boolDict(ast.OpIsTruth)), explicitArg(boolLitExpr(false)), explicitArg(stuck))
	got, err := New(symbols.NewTable()).Normalise(app)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lit, ok := got.(*ast.LiteralExpr)
	if !ok || lit.Lit.Kind != ast.LitBool || lit.Lit.Bool != false {
		t.Fatalf("got %#v, want Bool false", got)
	}
}

func TestEveryInOverEmptyContainerFails(t *testing.T) {
	empty := &ast.SeqExpr{Ann: ast.Ann{Prov: token.Machine}}
	identity := &ast.LamExpr{Ann: ast.Ann{Prov: token.Machine}, Binder: ast.Binder{Type: natTy()}, Body: &ast.VarExpr{Ann: ast.Ann{Prov: token.Machine}, Ref: ast.BoundVar{Index: 0}}}
	app := ast.NewApp(token.Machine, builtin(ast.OpEveryIn),
		implicitArg(natTy()), implicitArg(natTy()), instanceArg(natDict(ast.OpIsContainer)),
		explicitArg(identity), explicitArg(empty))
	_, err := New(symbols.NewTable()).Normalise(app)
	if err == nil {
		t.Fatal("expected EmptyQuantifierDomain error")
	}
	if _, ok := err.(*verrors.EmptyQuantifierDomain); !ok {
		t.Fatalf("got %T, want *verrors.EmptyQuantifierDomain", err)
	}
}

package vnnlib

import (
	"testing"

	"github.com/Yiergot/vehicle/internal/ast"
	"github.com/Yiergot/vehicle/internal/normalise"
	"github.com/Yiergot/vehicle/internal/symbols"
	"github.com/Yiergot/vehicle/internal/token"
	"github.com/Yiergot/vehicle/internal/verrors"
)

func builtin(op ast.BuiltinOp) ast.Expr {
	return &ast.BuiltinExpr{Ann: ast.Ann{Prov: token.Machine}, Op: op}
}

func natLit(n uint64) ast.Expr {
	return &ast.LiteralExpr{Ann: ast.Ann{Prov: token.Machine}, Lit: ast.NatLit(n)}
}

func boundVar(i int) ast.Expr {
	return &ast.VarExpr{Ann: ast.Ann{Prov: token.Machine}, Ref: ast.BoundVar{Index: i}}
}

func freeVar(id string) ast.Expr {
	return &ast.VarExpr{Ann: ast.Ann{Prov: token.Machine}, Ref: ast.FreeVar{ID: id}}
}

func explicitArg(v ast.Expr) ast.Argument {
	return ast.Argument{Prov: token.Machine, Visibility: ast.Explicit, Value: v}
}

// tensorType builds `Tensor Real [n]`.
func tensorType(n uint64) ast.Expr {
	return ast.NewApp(token.Machine, builtin(ast.OpTensor),
		explicitArg(builtin(ast.OpReal)),
		explicitArg(&ast.SeqExpr{Ann: ast.Ann{Prov: token.Machine}, Elements: []ast.Expr{natLit(n)}}))
}

// oneInOneOutNetwork declares a network "f" of type Tensor Real [1] ->
// Tensor Real [1] in decls.
func oneInOneOutNetwork(decls *symbols.Table) {
	ty := &ast.PiExpr{
		Ann:    ast.Ann{Prov: token.Machine},
		Binder: ast.Binder{Prov: token.Machine, Visibility: ast.Explicit, Type: tensorType(1)},
		Result: tensorType(1),
	}
	decls.Declare(&symbols.Entry{Name: "f", Kind: symbols.KindNetwork, Type: ty})
}

func TestCompileRejectsPropertyWithNoNetworkUse(t *testing.T) {
	decls := symbols.NewTable()
	oneInOneOutNetwork(decls)
	prop := ast.NewDefFun(token.Machine, "p", builtin(ast.OpProp), &ast.LiteralExpr{Ann: ast.Ann{Prov: token.Machine}, Lit: ast.BoolLit(true)})
	_, err := Compile(prop, decls, normalise.New(decls))
	if _, ok := err.(*verrors.NoNetworkUsedInProperty); !ok {
		t.Fatalf("got %T (%v), want *verrors.NoNetworkUsedInProperty", err, err)
	}
}

func TestCompileRejectsNonANFNetworkApplication(t *testing.T) {
	decls := symbols.NewTable()
	oneInOneOutNetwork(decls)
	// not x0, f applied bare inside `not`, never let-bound.
	body := ast.NewApp(token.Machine, builtin(ast.OpNot),
		explicitArg(ast.NewApp(token.Machine, freeVar("f"), explicitArg(boundVar(0)))))
	prop := ast.NewDefFun(token.Machine, "p", builtin(ast.OpProp), body)
	_, err := Compile(prop, decls, normalise.New(decls))
	if _, ok := err.(*verrors.NotInANF); !ok {
		t.Fatalf("got %T (%v), want *verrors.NotInANF", err, err)
	}
}

func TestValidateNetworkTypeRejectsNonFunction(t *testing.T) {
	_, _, err := ValidateNetworkType("g", tensorType(1))
	utp, ok := err.(*verrors.UnsupportedNetworkType)
	if !ok || utp.Problem != verrors.NotAFunction {
		t.Fatalf("got %#v, want UnsupportedNetworkType{Problem: NotAFunction}", err)
	}
}

func TestValidateNetworkTypeRejectsMultidimensionalTensor(t *testing.T) {
	shape := &ast.SeqExpr{Ann: ast.Ann{Prov: token.Machine}, Elements: []ast.Expr{natLit(2), natLit(3)}}
	ty2d := ast.NewApp(token.Machine, builtin(ast.OpTensor), explicitArg(builtin(ast.OpReal)), explicitArg(shape))
	ty := &ast.PiExpr{Ann: ast.Ann{Prov: token.Machine}, Binder: ast.Binder{Type: ty2d}, Result: tensorType(1)}
	_, _, err := ValidateNetworkType("g", ty)
	utp, ok := err.(*verrors.UnsupportedNetworkType)
	if !ok || utp.Problem != verrors.MultidimensionalTensor {
		t.Fatalf("got %#v, want UnsupportedNetworkType{Problem: MultidimensionalTensor}", err)
	}
}

func TestValidateNetworkTypeRejectsWrongElementType(t *testing.T) {
	shape := &ast.SeqExpr{Ann: ast.Ann{Prov: token.Machine}, Elements: []ast.Expr{natLit(1)}}
	natTensor := ast.NewApp(token.Machine, builtin(ast.OpTensor), explicitArg(builtin(ast.OpNat)), explicitArg(shape))
	ty := &ast.PiExpr{Ann: ast.Ann{Prov: token.Machine}, Binder: ast.Binder{Type: natTensor}, Result: tensorType(1)}
	_, _, err := ValidateNetworkType("g", ty)
	utp, ok := err.(*verrors.UnsupportedNetworkType)
	if !ok || utp.Problem != verrors.WrongTensorType {
		t.Fatalf("got %#v, want UnsupportedNetworkType{Problem: WrongTensorType}", err)
	}
}

// TestCompileLowersSingleNetworkCall builds
//
//	every x. let y = f x in y ! 0 >= 0
//
// and checks that the single Let collapses into an == / => pair inside
// the quantifier's predicate, with one input (X0) and one output (Y0)
// magic variable.
func TestCompileLowersSingleNetworkCall(t *testing.T) {
	decls := symbols.NewTable()
	oneInOneOutNetwork(decls)

	yAt0 := ast.NewApp(token.Machine, builtin(ast.OpAt),
		explicitArg(boundVar(0)), explicitArg(natLit(0)))
	ge := ast.NewApp(token.Machine, builtin(ast.OpGe), explicitArg(yAt0), explicitArg(natLit(0)))
	letBody := ge // references y via BoundVar(0)

	call := ast.NewApp(token.Machine, freeVar("f"), explicitArg(boundVar(0))) // x: the quantifier's own bound variable
	let := &ast.LetExpr{Ann: ast.Ann{Prov: token.Machine}, Value: call, Binder: ast.Binder{Type: tensorType(1)}, Body: letBody}

	quantPred := &ast.LamExpr{Ann: ast.Ann{Prov: token.Machine}, Binder: ast.Binder{Type: tensorType(1)}, Body: let}
	body := ast.NewApp(token.Machine, builtin(ast.OpEvery),
		explicitArg(tensorType(1)),
		ast.Argument{Prov: token.Machine, Visibility: ast.Instance, Value: &ast.PrimDictExpr{Ann: ast.Ann{Prov: token.Machine}, Dict: builtin(ast.OpIsQuantify)}},
		explicitArg(quantPred))

	prop := ast.NewDefFun(token.Machine, "p", builtin(ast.OpProp), body)
	got, err := Compile(prop, decls, normalise.New(decls))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.MetaNetwork) != 1 || got.MetaNetwork[0] != "f" {
		t.Fatalf("got MetaNetwork %v, want [f]", got.MetaNetwork)
	}
	if len(got.Inputs) != 1 || len(got.Outputs) != 1 {
		t.Fatalf("got %d inputs / %d outputs, want 1/1", len(got.Inputs), len(got.Outputs))
	}
	if got.Inputs[0].Name != "X0" || got.Outputs[0].Name != "Y0" {
		t.Fatalf("got magic vars %v %v, want X0 Y0", got.Inputs[0], got.Outputs[0])
	}

	_, everyArgs := ast.Decompose(got.Body)
	lam, ok := everyArgs[len(everyArgs)-1].Value.(*ast.LamExpr)
	if !ok {
		t.Fatalf("got body %#v, want the predicate Lam as every's last argument", got.Body)
	}
	impHead, impArgs := ast.Decompose(lam.Body)
	if b, ok := impHead.(*ast.BuiltinExpr); !ok || b.Op != ast.OpImplies || len(impArgs) != 2 {
		t.Fatalf("got predicate body %#v, want an => application", lam.Body)
	}
	eqHead, _ := ast.Decompose(impArgs[0].Value)
	if b, ok := eqHead.(*ast.BuiltinExpr); !ok || b.Op != ast.OpEq {
		t.Fatalf("got premise %#v, want an == application", impArgs[0].Value)
	}
}

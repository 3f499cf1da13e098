package smtlib

import (
	"testing"

	"github.com/Yiergot/vehicle/internal/ast"
	"github.com/Yiergot/vehicle/internal/normalise"
	"github.com/Yiergot/vehicle/internal/symbols"
	"github.com/Yiergot/vehicle/internal/token"
	"github.com/Yiergot/vehicle/internal/vnnlib"
)

// Scenario tests for the whole vnnlib -> smtlib hand-off, built the same
// way internal/vnnlib's own unit tests build sample ASTs directly rather
// than through the lexer/parser/elaborator pipeline (spec.md §8's S1-S6
// property scenarios, narrowed to what the lowering+printing boundary
// needs to exercise rather than a full end-to-end parse).

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

func tensorType(n uint64) ast.Expr {
	return ast.NewApp(token.Machine, builtin(ast.OpTensor),
		explicitArg(builtin(ast.OpReal)),
		explicitArg(&ast.SeqExpr{Ann: ast.Ann{Prov: token.Machine}, Elements: []ast.Expr{natLit(n)}}))
}

func oneInOneOutNetwork(decls *symbols.Table, name string) {
	ty := &ast.PiExpr{
		Ann:    ast.Ann{Prov: token.Machine},
		Binder: ast.Binder{Prov: token.Machine, Visibility: ast.Explicit, Type: tensorType(1)},
		Result: tensorType(1),
	}
	decls.Declare(&symbols.Entry{Name: name, Kind: symbols.KindNetwork, Type: ty})
}

// everyOf builds `every {t} {{dict}} pred` with the scheme's true
// visibilities (Implicit type argument, Instance dictionary, single
// Explicit predicate) so smtlib's printQuantifier sees exactly one
// explicit argument, matching what elaboration actually produces.
func everyOf(pred ast.Expr) ast.Expr {
	return &ast.AppExpr{
		Ann: ast.Ann{Prov: token.Machine},
		Fun: builtin(ast.OpEvery),
		Args: []ast.Argument{
			{Prov: token.Machine, Visibility: ast.Implicit, Value: tensorType(1)},
			{Prov: token.Machine, Visibility: ast.Instance, Value: &ast.PrimDictExpr{Ann: ast.Ann{Prov: token.Machine}, Dict: builtin(ast.OpIsQuantify)}},
			{Prov: token.Machine, Visibility: ast.Explicit, Value: pred},
		},
	}
}

// TestScenarioSingleNetworkOutputIsZero builds scenario
//
//	every x. let y = f x in y == [0]
//
// and checks the emitted SMT-Lib script binds X0/Y0 as the magic
// variables and renders the output constraint as a tensor equality
// against the zero vector via select/store.
func TestScenarioSingleNetworkOutputIsZero(t *testing.T) {
	decls := symbols.NewTable()
	oneInOneOutNetwork(decls, "f")

	zeroSeq := &ast.SeqExpr{Ann: ast.Ann{Prov: token.Machine}, Elements: []ast.Expr{natLit(0)}}
	yEqZero := ast.NewApp(token.Machine, builtin(ast.OpEq), explicitArg(boundVar(0)), explicitArg(zeroSeq))

	call := ast.NewApp(token.Machine, freeVar("f"), explicitArg(boundVar(0)))
	let := &ast.LetExpr{Ann: ast.Ann{Prov: token.Machine}, Value: call, Binder: ast.Binder{Type: tensorType(1)}, Body: yEqZero}

	quantPred := &ast.LamExpr{Ann: ast.Ann{Prov: token.Machine}, Binder: ast.Binder{Type: tensorType(1)}, Body: let}
	prop := ast.NewDefFun(token.Machine, "p", builtin(ast.OpProp), everyOf(quantPred))

	compiled, err := vnnlib.Compile(prop, decls, normalise.New(decls))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	out, err := Print(compiled)
	if err != nil {
		t.Fatalf("Print: %v", err)
	}

	want := "(set-logic QF_LRA)\n" +
		"(assert (forall ((X0 Real) (Y0 Real))\n" +
		"  (forall ((v2 (Array Int Real))) (=> (= X0 (select v2 0)) " +
		"(= Y0 (select (store ((as const (Array Int Real)) 0.0) 0 0.0) 0))))))\n" +
		"(check-sat)\n"
	if out.Script != want {
		t.Fatalf("got:\n%s\nwant:\n%s", out.Script, want)
	}
	if len(out.MetaNetwork) != 1 || out.MetaNetwork[0] != "f" {
		t.Fatalf("got MetaNetwork %v, want [f]", out.MetaNetwork)
	}
}

// twoInOneOutNetwork declares a network name : Tensor Real [2] -> Tensor
// Real [1], the shape S3 needs two of to exercise the magic-index
// allocator across more than one network call.
func twoInOneOutNetwork(decls *symbols.Table, name string) {
	ty := &ast.PiExpr{
		Ann:    ast.Ann{Prov: token.Machine},
		Binder: ast.Binder{Prov: token.Machine, Visibility: ast.Explicit, Type: tensorType(2)},
		Result: tensorType(1),
	}
	decls.Declare(&symbols.Entry{Name: name, Kind: symbols.KindNetwork, Type: ty})
}

// everyOfDim is everyOf generalized to a quantifier binder of dimension
// dim, for scenarios whose networks don't share everyOf's hardcoded
// Tensor Real [1] domain.
func everyOfDim(dim uint64, pred ast.Expr) ast.Expr {
	return &ast.AppExpr{
		Ann: ast.Ann{Prov: token.Machine},
		Fun: builtin(ast.OpEvery),
		Args: []ast.Argument{
			{Prov: token.Machine, Visibility: ast.Implicit, Value: tensorType(dim)},
			{Prov: token.Machine, Visibility: ast.Instance, Value: &ast.PrimDictExpr{Ann: ast.Ann{Prov: token.Machine}, Dict: builtin(ast.OpIsQuantify)}},
			{Prov: token.Machine, Visibility: ast.Explicit, Value: pred},
		},
	}
}

// TestScenarioTwoNetworksSharedInput builds scenario
//
//	every x : Tensor Real [2] . let y1 = f x in let y2 = g x in y1 == y2
//
// with two declared networks f, g : Tensor Real [2] -> Tensor Real [1]
// sharing the quantifier's input type, and checks the meta-network order
// and the magic-variable block the lowering allocates across both calls:
// X0/X1 for f's input, X2/X3 for g's, Y0/Y1 for their outputs, gated by
// two separate input-equality premises.
func TestScenarioTwoNetworksSharedInput(t *testing.T) {
	decls := symbols.NewTable()
	twoInOneOutNetwork(decls, "f")
	twoInOneOutNetwork(decls, "g")

	y1EqY2 := ast.NewApp(token.Machine, builtin(ast.OpEq), explicitArg(boundVar(1)), explicitArg(boundVar(0)))

	gCall := ast.NewApp(token.Machine, freeVar("g"), explicitArg(boundVar(1)))
	innerLet := &ast.LetExpr{Ann: ast.Ann{Prov: token.Machine}, Value: gCall, Binder: ast.Binder{Type: tensorType(1)}, Body: y1EqY2}

	fCall := ast.NewApp(token.Machine, freeVar("f"), explicitArg(boundVar(0)))
	outerLet := &ast.LetExpr{Ann: ast.Ann{Prov: token.Machine}, Value: fCall, Binder: ast.Binder{Type: tensorType(1)}, Body: innerLet}

	quantPred := &ast.LamExpr{Ann: ast.Ann{Prov: token.Machine}, Binder: ast.Binder{Type: tensorType(2)}, Body: outerLet}
	prop := ast.NewDefFun(token.Machine, "p", builtin(ast.OpProp), everyOfDim(2, quantPred))

	compiled, err := vnnlib.Compile(prop, decls, normalise.New(decls))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(compiled.MetaNetwork) != 2 || compiled.MetaNetwork[0] != "f" || compiled.MetaNetwork[1] != "g" {
		t.Fatalf("got MetaNetwork %v, want [f g]", compiled.MetaNetwork)
	}

	out, err := Print(compiled)
	if err != nil {
		t.Fatalf("Print: %v", err)
	}

	want := "(set-logic QF_LRA)\n" +
		"(assert (forall ((X0 Real) (X1 Real) (X2 Real) (X3 Real) (Y0 Real) (Y1 Real))\n" +
		"  (forall ((v6 (Array Int Real))) (=> (and (= X0 (select v6 0)) (= X1 (select v6 1))) " +
		"(=> (and (= X2 (select v6 0)) (= X3 (select v6 1))) " +
		"(= Y0 (select (store ((as const (Array Int Real)) 0.0) 0 Y1) 0)))))))\n" +
		"(check-sat)\n"
	if out.Script != want {
		t.Fatalf("got:\n%s\nwant:\n%s", out.Script, want)
	}
}

// TestMarshalSidecarNamesPropertyAndNetworks checks the YAML sidecar
// names the property and its meta-network in document order.
func TestMarshalSidecarNamesPropertyAndNetworks(t *testing.T) {
	out := &Output{PropertyID: "p", MetaNetwork: []string{"f", "g"}}
	doc, err := MarshalSidecar(out)
	if err != nil {
		t.Fatalf("MarshalSidecar: %v", err)
	}
	want := "property: p\nnetworks:\n    - f\n    - g\n"
	if doc != want {
		t.Fatalf("got %q, want %q", doc, want)
	}
}

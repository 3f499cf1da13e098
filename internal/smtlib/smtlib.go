// Package smtlib is the final string emitter spec.md §1 names as an
// out-of-scope collaborator ("the final SMT-Lib string emitter"):
// SPEC_FULL.md §1 keeps it in-repo as a thin consumer of
// internal/vnnlib's output. Grounded on the teacher's own practice of a
// dedicated stringification pass kept separate from evaluation
// (internal/evaluator/format.go renders runtime Objects; this package
// plays the same "separate printing concern" role for a Compiled
// property instead of a runtime value).
//
// internal/vnnlib deliberately leaves a Compiled property's surviving
// quantifier structure (the original `every`/`some` application and its
// predicate Lam) in place rather than stripping it — see
// internal/vnnlib/lower.go's magicSeq comment, whose de Bruijn index
// arithmetic already accounts for that binder still being present. This
// package is therefore the one that finally interprets every/some as an
// SMT-Lib forall/exists and prints everything else structurally.
//
// Tensor-typed values (a network's input/output, and any surviving
// `every x : Tensor Real [n]` binder) are printed using SMT-Lib's
// `(Array Int Real)` sort rather than attempting to unpack them into n
// separately-named scalars: the magic variables themselves are already
// scalar (spec.md §4.5 step 5, "X0...X{N-1}"), and indexing a tensor
// value with `select` gives a uniform representation regardless of its
// dimension — the printer never needs to know a surviving binder's
// tensor size, only that it is one.
package smtlib

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Yiergot/vehicle/internal/ast"
	"github.com/Yiergot/vehicle/internal/token"
	"github.com/Yiergot/vehicle/internal/verrors"
	"github.com/Yiergot/vehicle/internal/vnnlib"
)

// ArraySort is the SMT-Lib sort used for every tensor-typed value.
const ArraySort = "(Array Int Real)"

// scope is the printer's name stack, outermost-pushed-first — the same
// convention internal/prettyprinter and internal/vnnlib's magic-variable
// allocator use, so BoundVar(0) always resolves to the most recently
// pushed name.
type scope struct{ names []string }

func (s *scope) push(name string) { s.names = append(s.names, name) }
func (s *scope) pop()             { s.names = s.names[:len(s.names)-1] }
func (s *scope) resolve(i int) (string, bool) {
	idx := len(s.names) - 1 - i
	if idx < 0 || idx >= len(s.names) {
		return "", false
	}
	return s.names[idx], true
}

// Output is one property's emitted script plus the ordered meta-network
// it depends on (spec.md §6 "VNNLib output" + sidecar).
type Output struct {
	PropertyID  string
	Script      string
	MetaNetwork []string
}

// Sidecar is the YAML-serialised companion document a verifier driver
// reads alongside the .smt2 text to know which network files the query's
// free `X`/`Y` variables actually refer to — VNNLib itself has no syntax
// for binding a query to a concrete .onnx file, so this repo follows the
// same "emit data, let the driver wire it up" split the teacher uses
// between builtins_yaml.go's encode/decode and whatever calls them.
type Sidecar struct {
	Property string   `yaml:"property"`
	Networks []string `yaml:"networks"`
}

// MarshalSidecar renders o's meta-network list as the YAML sidecar
// document written next to the emitted .smt2 file.
func MarshalSidecar(o *Output) (string, error) {
	doc := Sidecar{Property: o.PropertyID, Networks: o.MetaNetwork}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Print renders a single compiled property as an SMT-Lib 2 script: one
// `declare-fun`-free `assert` wrapping a single flat `forall` over every
// magic variable (spec.md §4.5 step 5 "tensor-major order"), around the
// structurally-printed body (spec.md §4.5 step 6).
func Print(c *vnnlib.Compiled) (*Output, error) {
	s := &scope{}
	for _, v := range c.Inputs {
		s.push(v.Name)
	}
	for _, v := range c.Outputs {
		s.push(v.Name)
	}

	body, err := printExpr(s, c.Body)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("(set-logic QF_LRA)\n")
	b.WriteString("(assert (forall (")
	for i, v := range c.Inputs {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "(%s Real)", v.Name)
	}
	for _, v := range c.Outputs {
		b.WriteByte(' ')
		fmt.Fprintf(&b, "(%s Real)", v.Name)
	}
	b.WriteString(")\n  ")
	b.WriteString(body)
	b.WriteString("))\n(check-sat)\n")

	return &Output{PropertyID: c.PropertyID, Script: b.String(), MetaNetwork: c.MetaNetwork}, nil
}

// logicOps maps the builtin table's logic/comparison/arithmetic symbols
// to their SMT-Lib spelling (spec.md §6 "Builtin symbol table"); the
// handful needing special shape (every/some, Eq/Neq tensor equality) are
// handled outside this table.
var logicOps = map[ast.BuiltinOp]string{
	ast.OpNot: "not", ast.OpAnd: "and", ast.OpOr: "or", ast.OpImplies: "=>",
	ast.OpLe: "<=", ast.OpLt: "<", ast.OpGe: ">=", ast.OpGt: ">",
	ast.OpAdd: "+", ast.OpSub: "-", ast.OpMul: "*", ast.OpDiv: "/", ast.OpNeg: "-",
}

func printExpr(s *scope, e ast.Expr) (string, error) {
	switch x := e.(type) {
	case *ast.LiteralExpr:
		return printLiteral(x.Lit), nil

	case *ast.VarExpr:
		switch ref := x.Ref.(type) {
		case ast.BoundVar:
			name, ok := s.resolve(ref.Index)
			if !ok {
				return "", &verrors.NormalisationError{Kind: "dangling bound variable reached smtlib", Prov: x.GetProvenance()}
			}
			return name, nil
		case ast.FreeVar:
			// A dataset reference with no elaborated body: printed as an
			// uninterpreted tensor-sorted constant, left for the driver to
			// bind against an external data file.
			return ref.ID, nil
		default:
			return "", &verrors.NormalisationError{Kind: "named variable reached smtlib", Prov: x.GetProvenance()}
		}

	case *ast.SeqExpr:
		return printTensorLiteral(s, x)

	case *ast.LetExpr:
		val, err := printExpr(s, x.Value)
		if err != nil {
			return "", err
		}
		name := binderName(x.Binder, len(s.names))
		s.push(name)
		body, err := printExpr(s, x.Body)
		s.pop()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(let ((%s %s)) %s)", name, val, body), nil

	case *ast.AppExpr:
		return printApp(s, x)

	case *ast.AnnExpr:
		return printExpr(s, x.Value)

	default:
		return "", &verrors.NormalisationError{Kind: fmt.Sprintf("%T reached smtlib", e), Prov: e.GetProvenance()}
	}
}

func binderName(b ast.Binder, depth int) string {
	if b.Name != nil && *b.Name != "" {
		return *b.Name
	}
	return "v" + strconv.Itoa(depth)
}

func printLiteral(l ast.Literal) string {
	switch l.Kind {
	case ast.LitNat:
		return strconv.FormatUint(l.Nat, 10) + ".0"
	case ast.LitInt:
		return strconv.FormatInt(l.Int, 10) + ".0"
	case ast.LitRat:
		return fmt.Sprintf("(/ %s.0 %s.0)", l.Rat.Num().String(), l.Rat.Denom().String())
	default: // LitBool
		if l.Bool {
			return "true"
		}
		return "false"
	}
}

// printTensorLiteral renders a concrete Seq of n real-valued elements as
// nested `store`s over a zero-filled base array.
func printTensorLiteral(s *scope, seq *ast.SeqExpr) (string, error) {
	acc := fmt.Sprintf("((as const %s) 0.0)", ArraySort)
	for i, el := range seq.Elements {
		v, err := printExpr(s, el)
		if err != nil {
			return "", err
		}
		acc = fmt.Sprintf("(store %s %d %s)", acc, i, v)
	}
	return acc, nil
}

// quantifierBuiltins are the four quantifier forms (spec.md §6 "Quant");
// every/some survive into the VNNLib-lowered body exactly because
// internal/vnnlib does not eliminate the original quantifier's binder
// (see the package comment), so this printer is the pass that finally
// turns them into forall/exists.
var quantifierBuiltins = map[ast.BuiltinOp]string{
	ast.OpEvery: "forall", ast.OpEveryIn: "forall",
	ast.OpSome: "exists", ast.OpSomeIn: "exists",
}

func printApp(s *scope, app *ast.AppExpr) (string, error) {
	head, args := ast.Decompose(app)
	b, ok := head.(*ast.BuiltinExpr)
	if !ok {
		return "", &verrors.NormalisationError{Kind: "non-builtin application head reached smtlib (network call not lowered)", Prov: app.GetProvenance()}
	}

	if quant, ok := quantifierBuiltins[b.Op]; ok {
		return printQuantifier(s, quant, args)
	}

	switch b.Op {
	case ast.OpIf:
		a := explicitArgs(args)
		if len(a) != 3 {
			return "", &verrors.NormalisationError{Kind: "if with wrong explicit arity", Prov: app.GetProvenance()}
		}
		cond, err := printExpr(s, a[0])
		if err != nil {
			return "", err
		}
		then, err := printExpr(s, a[1])
		if err != nil {
			return "", err
		}
		els, err := printExpr(s, a[2])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(ite %s %s %s)", cond, then, els), nil

	case ast.OpEq, ast.OpNeq:
		a := explicitArgs(args)
		if len(a) != 2 {
			return "", &verrors.NormalisationError{Kind: "equality with wrong explicit arity", Prov: app.GetProvenance()}
		}
		eq, err := printEquality(s, a[0], a[1])
		if err != nil {
			return "", err
		}
		if b.Op == ast.OpNeq {
			return "(not " + eq + ")", nil
		}
		return eq, nil

	case ast.OpCons, ast.OpAt, ast.OpMap, ast.OpFold:
		return "", &verrors.NormalisationError{Kind: "container builtin " + string(b.Op) + " reached smtlib (should have been reduced)", Prov: app.GetProvenance()}
	}

	sym, ok := logicOps[b.Op]
	if !ok {
		return "", &verrors.NormalisationError{Kind: "builtin " + string(b.Op) + " has no SMT-Lib rendering", Prov: app.GetProvenance()}
	}
	parts := []string{sym}
	for _, v := range explicitArgs(args) {
		p, err := printExpr(s, v)
		if err != nil {
			return "", err
		}
		parts = append(parts, p)
	}
	return "(" + strings.Join(parts, " ") + ")", nil
}

// printEquality renders `lhs == rhs` (spec.md §4.5 step 4's
// `inputSeq == inputArg` premise is always built with the magic Seq on
// the left, internal/vnnlib/lower.go): a literal tensor Seq equated
// component-wise via `select` against whatever the other side prints as
// (scalar or tensor-sorted), so the printer never needs to know a
// surviving binder's declared dimension.
func printEquality(s *scope, lhs, rhs ast.Expr) (string, error) {
	if seq, ok := lhs.(*ast.SeqExpr); ok {
		rhsStr, err := printExpr(s, rhs)
		if err != nil {
			return "", err
		}
		return printComponentwise(s, seq, rhsStr)
	}
	if seq, ok := rhs.(*ast.SeqExpr); ok {
		lhsStr, err := printExpr(s, lhs)
		if err != nil {
			return "", err
		}
		return printComponentwise(s, seq, lhsStr)
	}
	l, err := printExpr(s, lhs)
	if err != nil {
		return "", err
	}
	r, err := printExpr(s, rhs)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(= %s %s)", l, r), nil
}

func printComponentwise(s *scope, seq *ast.SeqExpr, other string) (string, error) {
	if len(seq.Elements) == 1 {
		el, err := printExpr(s, seq.Elements[0])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(= %s (select %s 0))", el, other), nil
	}
	parts := make([]string, len(seq.Elements))
	for i, el := range seq.Elements {
		v, err := printExpr(s, el)
		if err != nil {
			return "", err
		}
		parts[i] = fmt.Sprintf("(= %s (select %s %d))", v, other, i)
	}
	return "(and " + strings.Join(parts, " ") + ")", nil
}

// printQuantifier unwraps an every/some(In) application's predicate Lam
// into an SMT-Lib forall/exists binding a single tensor-sorted variable
// (ArraySort), then recurses into the Lam's body.
func printQuantifier(s *scope, kind string, args []ast.Argument) (string, error) {
	explicit := explicitArgs(args)
	if len(explicit) == 0 {
		prov := token.Provenance{}
		if len(args) > 0 {
			prov = args[0].Prov
		}
		return "", &verrors.NormalisationError{Kind: kind + " with no predicate argument", Prov: prov}
	}
	lam, ok := explicit[0].(*ast.LamExpr)
	if !ok {
		return "", &verrors.NormalisationError{Kind: kind + "'s predicate argument is not a lambda", Prov: explicit[0].GetProvenance()}
	}
	name := binderName(lam.Binder, len(s.names))
	s.push(name)
	body, err := printExpr(s, lam.Body)
	s.pop()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(%s ((%s %s)) %s)", kind, name, ArraySort, body), nil
}

func explicitArgs(args []ast.Argument) []ast.Expr {
	out := make([]ast.Expr, 0, len(args))
	for _, a := range args {
		if a.Visibility == ast.Explicit {
			out = append(out, a.Value)
		}
	}
	return out
}

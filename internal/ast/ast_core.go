// Package ast defines Vehicle's single recursive expression type. Unlike a
// typical compiler's AST, this tree is simultaneously surface syntax, core
// IR, and type (spec.md §3): the elaborator checks expressions against
// other expressions used as types, so there is deliberately no separate
// "Type" sum the way the teacher's internal/typesystem has one — Vehicle's
// types are just Expr values. Traversals are plain type switches, matching
// the style of internal/typesystem/types.go's ApplyWithCycleCheck rather
// than the teacher's Visitor/Accept double-dispatch in internal/ast, since
// our passes need typed return values (Expr, error, []TVar-equivalent)
// that a void Accept(Visitor) call can't return without extra machinery.
package ast

import (
	"math/big"

	"github.com/Yiergot/vehicle/internal/token"
)

// Ann is the annotation every expression node carries: its provenance, and
// (once the elaborator has run) its inferred type.
type Ann struct {
	Prov token.Provenance
	Type Expr // nil until elaboration fills it in
}

// Expr is the single recursive sum described in spec.md §3.
type Expr interface {
	GetAnn() *Ann
	GetProvenance() token.Provenance
	exprNode()
}

// MetaID names a unification variable.
type MetaID int

// --- variable representation ------------------------------------------------

// VarRef is implemented by NamedVar (surface/named phase) and by BoundVar /
// FreeVar (the locally-nameless phase used by every pass after scope
// checking). Exactly one representation is in play within a given Program
// value; mixing them is a programmer error in this package's callers, not
// something the type system needs to forbid (spec.md §3 "Variable
// representation").
type VarRef interface {
	varRefNode()
	String() string
}

// NamedVar is a surface-syntax variable reference by symbol.
type NamedVar struct{ Symbol string }

func (NamedVar) varRefNode()      {}
func (v NamedVar) String() string { return v.Symbol }

// BoundVar is a de Bruijn index: the number of binders between this
// occurrence and the binder it refers to.
type BoundVar struct{ Index int }

func (BoundVar) varRefNode() {}
func (v BoundVar) String() string {
	return "#" + itoa(v.Index)
}

// FreeVar is a reference to a top-level declaration by identifier.
type FreeVar struct{ ID string }

func (FreeVar) varRefNode()      {}
func (v FreeVar) String() string { return v.ID }

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

// --- binders and arguments ---------------------------------------------------

// Visibility governs whether the elaborator inserts an argument
// automatically (spec.md §3, §4.3 "Implicit-argument insertion").
type Visibility int

const (
	Explicit Visibility = iota
	Implicit
	Instance
)

func (v Visibility) String() string {
	switch v {
	case Implicit:
		return "Implicit"
	case Instance:
		return "Instance"
	default:
		return "Explicit"
	}
}

// Origin distinguishes user-written nodes from ones the elaborator
// inserted (spec.md §3 Binder/Argument payload, §4.3 "TheMachine" origin).
type Origin int

const (
	OriginUser Origin = iota
	OriginMachine
)

// Binder carries everything spec.md §3 assigns to a Pi/Lam/Let/quantifier
// binder. Name is nil for anonymous ("machine") binders; the scope checker
// pushes a sentinel for these that never matches a name lookup (spec.md
// §4.2).
type Binder struct {
	Prov       token.Provenance
	Origin     Origin
	Visibility Visibility
	Name       *string
	Type       Expr
}

func (b Binder) IsAnonymous() bool { return b.Name == nil }

// Argument mirrors Binder for the application side (spec.md §3).
type Argument struct {
	Prov       token.Provenance
	Origin     Origin
	Visibility Visibility
	Value      Expr
}

// --- literals ----------------------------------------------------------------

// LiteralKind tags which family of spec.md §3's "typed literal" a Literal
// holds.
type LiteralKind int

const (
	LitNat LiteralKind = iota
	LitInt
	LitRat
	LitBool
)

// Literal is spec.md §3's "nat/int/rat/bool" literal payload. Rationals use
// math/big.Rat, the same representation choice the teacher makes for its
// own RationalLiteral (internal/ast/ast_core.go).
type Literal struct {
	Kind LiteralKind
	Nat  uint64
	Int  int64
	Rat  *big.Rat
	Bool bool
}

func NatLit(n uint64) Literal    { return Literal{Kind: LitNat, Nat: n} }
func IntLit(n int64) Literal     { return Literal{Kind: LitInt, Int: n} }
func RatLit(r *big.Rat) Literal  { return Literal{Kind: LitRat, Rat: r} }
func BoolLit(b bool) Literal     { return Literal{Kind: LitBool, Bool: b} }

// --- expression node variants ------------------------------------------------

func (a *Ann) GetAnn() *Ann                    { return a }
func (a Ann) GetProvenance() token.Provenance { return a.Prov }
func (Ann) exprNode()                          {}

// UniverseExpr is `Type l`.
type UniverseExpr struct {
	Ann
	Level int
}

// VarExpr is a variable reference, named or nameless depending on phase.
type VarExpr struct {
	Ann
	Ref VarRef
}

// MetaExpr is an unsolved unification variable (spec.md §3 "Meta m").
type MetaExpr struct {
	Ann
	ID MetaID
}

// HoleExpr is a user-written `?name`, illegal after elaboration.
type HoleExpr struct {
	Ann
	Name string
}

// AppExpr is a spine-form application: Fun is never itself an AppExpr
// (spec.md §3 invariants), and Args is non-empty.
type AppExpr struct {
	Ann
	Fun  Expr
	Args []Argument
}

// PiExpr is a dependent function type.
type PiExpr struct {
	Ann
	Binder Binder
	Result Expr
}

// LamExpr is an abstraction.
type LamExpr struct {
	Ann
	Binder Binder
	Body   Expr
}

// LetExpr is a non-recursive local definition.
type LetExpr struct {
	Ann
	Value  Expr
	Binder Binder
	Body   Expr
}

// AnnExpr is an explicit type annotation `(e : t)`.
type AnnExpr struct {
	Ann
	Value Expr
	Type  Expr
}

// BuiltinExpr is a primitive symbol (spec.md §6 builtin table).
type BuiltinExpr struct {
	Ann
	Op BuiltinOp
}

// LiteralExpr is a typed literal.
type LiteralExpr struct {
	Ann
	Lit Literal
}

// SeqExpr is an ordered sequence literal (list/tensor).
type SeqExpr struct {
	Ann
	Elements []Expr
}

// PrimDictExpr wraps an elaborated type-class dictionary (spec.md §3).
type PrimDictExpr struct {
	Ann
	Dict Expr
}

// NewApp builds a spine-form application, unfolding a nested App head so
// the invariant "head is never an App" holds without the caller having to
// think about it (spec.md §3 "decompose/normAppList").
func NewApp(prov token.Provenance, fun Expr, args ...Argument) Expr {
	if len(args) == 0 {
		return fun
	}
	if inner, ok := fun.(*AppExpr); ok {
		merged := make([]Argument, 0, len(inner.Args)+len(args))
		merged = append(merged, inner.Args...)
		merged = append(merged, args...)
		return &AppExpr{Ann: Ann{Prov: prov}, Fun: inner.Fun, Args: merged}
	}
	return &AppExpr{Ann: Ann{Prov: prov}, Fun: fun, Args: args}
}

// Decompose splits an expression into its head and argument spine. For a
// non-App expression, Args is empty and Head is the expression itself
// (spec.md §3 "decompose/normAppList").
func Decompose(e Expr) (head Expr, args []Argument) {
	if app, ok := e.(*AppExpr); ok {
		return app.Fun, app.Args
	}
	return e, nil
}

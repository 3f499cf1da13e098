// Package verrors is the compiler's error taxonomy (spec.md §7). Each pass
// returns its own typed error values rather than a bare fmt.Errorf, the way
// the teacher keeps a small custom error type per pass (see
// internal/typesystem/error.go) instead of one generic error family.
package verrors

import (
	"fmt"

	"github.com/Yiergot/vehicle/internal/token"
)

// Category groups errors for logging/reporting, independent of Go type.
type Category string

const (
	CategoryScope  Category = "scope"
	CategoryTyping Category = "typing"
	CategoryNorm   Category = "normalisation"
	CategorySMTLib Category = "smtlib"
)

// VehicleError is implemented by every error value this compiler returns
// from a pass boundary.
type VehicleError interface {
	error
	Category() Category
	Provenance() token.Provenance
}

// --- Scope errors --------------------------------------------------------

// UnboundName reports a surface identifier that resolves to neither a
// local binder nor a declaration (spec.md §4.2, §7).
type UnboundName struct {
	Symbol string
	Prov   token.Provenance
}

func (e *UnboundName) Error() string {
	return fmt.Sprintf("%s: unbound name %q", e.Prov, e.Symbol)
}
func (e *UnboundName) Category() Category        { return CategoryScope }
func (e *UnboundName) Provenance() token.Provenance { return e.Prov }

// --- Typing errors ---------------------------------------------------------

// Mismatch reports that structural unification of two rigid heads failed
// (spec.md §4.3.1, §7).
type Mismatch struct {
	Actual, Expected string
	Context          string
	Prov             token.Provenance
}

func (e *Mismatch) Error() string {
	return fmt.Sprintf("%s: type mismatch: expected %s, got %s%s", e.Prov, e.Expected, e.Actual, contextSuffix(e.Context))
}
func (e *Mismatch) Category() Category          { return CategoryTyping }
func (e *Mismatch) Provenance() token.Provenance { return e.Prov }

func contextSuffix(ctx string) string {
	if ctx == "" {
		return ""
	}
	return " (" + ctx + ")"
}

// MissingExplicitArg reports that an explicit Pi binder received an
// argument of the wrong visibility (spec.md §4.3 check rule 1, §7).
type MissingExplicitArg struct {
	ExpectedType string
	Prov         token.Provenance
}

func (e *MissingExplicitArg) Error() string {
	return fmt.Sprintf("%s: missing explicit argument of type %s", e.Prov, e.ExpectedType)
}
func (e *MissingExplicitArg) Category() Category          { return CategoryTyping }
func (e *MissingExplicitArg) Provenance() token.Provenance { return e.Prov }

// UnresolvedHole reports a surface `?name` that survived elaboration
// (spec.md §3 invariants, §7).
type UnresolvedHole struct {
	Name string
	Prov token.Provenance
}

func (e *UnresolvedHole) Error() string {
	return fmt.Sprintf("%s: unresolved hole ?%s", e.Prov, e.Name)
}
func (e *UnresolvedHole) Category() Category          { return CategoryTyping }
func (e *UnresolvedHole) Provenance() token.Provenance { return e.Prov }

// UnsolvedConstraints reports that the constraint solver reached a stuck
// fixpoint with pending constraints remaining (spec.md §4.3, §7).
type UnsolvedConstraints struct {
	Messages []string
	Prov     token.Provenance
}

func (e *UnsolvedConstraints) Error() string {
	if len(e.Messages) == 1 {
		return fmt.Sprintf("%s: unsolved constraint: %s", e.Prov, e.Messages[0])
	}
	return fmt.Sprintf("%s: %d unsolved constraints", e.Prov, len(e.Messages))
}
func (e *UnsolvedConstraints) Category() Category          { return CategoryTyping }
func (e *UnsolvedConstraints) Provenance() token.Provenance { return e.Prov }

// --- Normalisation errors --------------------------------------------------

// EmptyQuantifierDomain reports an every/some over an empty container
// (spec.md §4.4, §7).
type EmptyQuantifierDomain struct {
	Prov token.Provenance
}

func (e *EmptyQuantifierDomain) Error() string {
	return fmt.Sprintf("%s: quantifier domain is empty", e.Prov)
}
func (e *EmptyQuantifierDomain) Category() Category          { return CategoryNorm }
func (e *EmptyQuantifierDomain) Provenance() token.Provenance { return e.Prov }

// --- SMT-Lib / VNNLib backend errors ---------------------------------------

// NetworkTypeProblem enumerates the rejection taxonomy of spec.md §4.5 step 2.
type NetworkTypeProblem string

const (
	NotAFunction         NetworkTypeProblem = "not-a-function"
	NotATensor           NetworkTypeProblem = "not-a-tensor"
	WrongTensorType      NetworkTypeProblem = "wrong-tensor-type"
	MultidimensionalTensor NetworkTypeProblem = "multidimensional-tensor"
	VariableSizeTensor   NetworkTypeProblem = "variable-size-tensor"
)

// NoPropertiesFound reports that a program had no DefFun of type Prop.
type NoPropertiesFound struct {
	Prov token.Provenance
}

func (e *NoPropertiesFound) Error() string {
	return fmt.Sprintf("%s: no properties found", e.Prov)
}
func (e *NoPropertiesFound) Category() Category          { return CategorySMTLib }
func (e *NoPropertiesFound) Provenance() token.Provenance { return e.Prov }

// NoNetworkUsedInProperty reports a property whose meta-network is empty
// (spec.md §4.5 step 1, scenario S1).
type NoNetworkUsedInProperty struct {
	PropertyID string
	Prov       token.Provenance
}

func (e *NoNetworkUsedInProperty) Error() string {
	return fmt.Sprintf("%s: property %q does not use any network", e.Prov, e.PropertyID)
}
func (e *NoNetworkUsedInProperty) Category() Category          { return CategorySMTLib }
func (e *NoNetworkUsedInProperty) Provenance() token.Provenance { return e.Prov }

// UnsupportedNetworkType reports that a declared network's type does not
// have shape `Tensor Real [n] -> Tensor Real [m]` (spec.md §4.5 step 2).
type UnsupportedNetworkType struct {
	NetworkID string
	Problem   NetworkTypeProblem
	Prov      token.Provenance
}

func (e *UnsupportedNetworkType) Error() string {
	return fmt.Sprintf("%s: network %q has unsupported type (%s)", e.Prov, e.NetworkID, e.Problem)
}
func (e *UnsupportedNetworkType) Category() Category          { return CategorySMTLib }
func (e *UnsupportedNetworkType) Provenance() token.Provenance { return e.Prov }

// NotInANF reports a network application that is not let-bound directly,
// violating the ANF precondition recorded as an open question in spec.md §9.
type NotInANF struct {
	PropertyID string
	Prov       token.Provenance
}

func (e *NotInANF) Error() string {
	return fmt.Sprintf("%s: property %q applies a network outside of a direct let-binding (ANF required)", e.Prov, e.PropertyID)
}
func (e *NotInANF) Category() Category          { return CategorySMTLib }
func (e *NotInANF) Provenance() token.Provenance { return e.Prov }

// NormalisationError is used internally as an assertion that the normaliser
// should already have eliminated some construct before the backend runs
// (spec.md §7, "used internally as an assertion").
type NormalisationError struct {
	Kind string
	Prov token.Provenance
}

func (e *NormalisationError) Error() string {
	return fmt.Sprintf("%s: internal error: term not in normal form (%s)", e.Prov, e.Kind)
}
func (e *NormalisationError) Category() Category          { return CategorySMTLib }
func (e *NormalisationError) Provenance() token.Provenance { return e.Prov }

// Impossible panics to mark a developer assertion failure: a state the
// type checker should already have ruled out. Distinguished from user
// errors, which are always returned, never panicked (spec.md §7).
func Impossible(invariant string) {
	panic(fmt.Sprintf("internal error: violated invariant: %s", invariant))
}

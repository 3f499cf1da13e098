// Package vnnlib implements the VNNLib backend (spec.md §4.5): discovering
// which declared networks a property actually uses, validating those
// networks' types against the Tensor Real [n] -> Tensor Real [m] shape
// SMT solvers expect, and rewriting the property's body so every network
// application becomes an equality/implication pair over a shared index
// space of synthetic input/output variables. The rewritten body still
// carries dangling BoundVar references into that index space — it is not
// a complete, closed term on its own; internal/smtlib closes it by
// printing one `forall` that binds every magic variable around the body this package
// returns.
//
// Grounded on the teacher's internal/backend (Backend/ExecutionProcessor):
// a driver that walks declarations, dispatches each to a single transform,
// and collects results/errors independently per item. The teacher's own
// backend.go/vmbackend.go concern (choosing tree-walk vs bytecode VM
// execution) has no Vehicle analogue — this compiler never executes a
// network, it only ever emits a query describing one (spec.md §1
// Non-goals) — so only the driver shape survives the transplant, not the
// Backend interface or the VM path.
package vnnlib

import (
	"fmt"

	"github.com/Yiergot/vehicle/internal/ast"
	"github.com/Yiergot/vehicle/internal/normalise"
	"github.com/Yiergot/vehicle/internal/symbols"
	"github.com/Yiergot/vehicle/internal/token"
	"github.com/Yiergot/vehicle/internal/verrors"
)

// Counter tracks how many input/output magic variables have been
// allocated so far while lowering a single property. Passed by pointer
// through rewrite so successive network applications consume disjoint
// ranges of the shared index space (spec.md §4.5 step 3).
type Counter struct {
	in, out int
}

// MagicVar is one synthetic quantifier variable the printer renders as
// `(forall ((X0 Real)) ...)` (spec.md §4.5 step 5).
type MagicVar struct {
	Name string
}

// Compiled is one property lowered to VNNLib form: Body still contains
// dangling BoundVar indices into the magic-variable block Inputs/Outputs
// describe, in the tensor-major order (X0..X{N-1}, then Y0..Y{M-1}) the
// printer must bind them in.
type Compiled struct {
	PropertyID  string
	MetaNetwork []string
	Body        ast.Expr
	Inputs      []MagicVar
	Outputs     []MagicVar
}

// Compile lowers a single property (spec.md §4.5's full six-step
// algorithm): meta-network discovery, per-network type validation, an
// ANF precondition check, the body rewrite, and a final re-normalisation
// pass over the rewritten term.
func Compile(prop *ast.DefFun, decls *symbols.Table, norm *normalise.Normaliser) (*Compiled, error) {
	prov := prop.GetProvenance()

	order := metaNetworkOrder(prop.Body, decls)
	if len(order) == 0 {
		return nil, &verrors.NoNetworkUsedInProperty{PropertyID: prop.GetID(), Prov: prov}
	}

	dims := make(map[string][2]int, len(order))
	for _, id := range order {
		entry := decls.Lookup(id)
		in, out, err := ValidateNetworkType(id, entry.Type)
		if err != nil {
			return nil, err
		}
		dims[id] = [2]int{in, out}
	}

	calls, err := planCalls(prop.Body, dims, prop.GetID())
	if err != nil {
		return nil, err
	}
	var totalIn, totalOut int
	for _, c := range calls {
		totalIn += c.inDim
		totalOut += c.outDim
	}

	rewritten, err := rewrite(prop.Body, dims, totalIn, totalOut, 0, &Counter{})
	if err != nil {
		return nil, err
	}
	body, err := norm.Normalise(rewritten)
	if err != nil {
		return nil, err
	}

	return &Compiled{
		PropertyID:  prop.GetID(),
		MetaNetwork: order,
		Body:        body,
		Inputs:      magicVars("X", totalIn),
		Outputs:     magicVars("Y", totalOut),
	}, nil
}

// CompileProgram compiles every Prop-typed declaration in a normalised,
// elaborated program. Properties are compiled independently: one
// rejection (an unsupported network type, a non-ANF body, an unused
// network) does not stop the others from being attempted.
func CompileProgram(prog ast.Program, decls *symbols.Table, norm *normalise.Normaliser) ([]*Compiled, []error) {
	var out []*Compiled
	var errs []error
	for _, d := range prog {
		fn, ok := d.(*ast.DefFun)
		if !ok || !isProperty(fn.Type) {
			continue
		}
		c, err := Compile(fn, decls, norm)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, c)
	}
	if len(out) == 0 && len(errs) == 0 {
		errs = append(errs, &verrors.NoPropertiesFound{Prov: token.Machine})
	}
	return out, errs
}

func isProperty(ty ast.Expr) bool {
	head, args := ast.Decompose(ty)
	b, ok := head.(*ast.BuiltinExpr)
	return ok && b.Op == ast.OpProp && len(args) == 0
}

func magicVars(prefix string, n int) []MagicVar {
	out := make([]MagicVar, n)
	for i := range out {
		out[i] = MagicVar{Name: fmt.Sprintf("%s%d", prefix, i)}
	}
	return out
}

package debruijn

import (
	"testing"

	"github.com/Yiergot/vehicle/internal/ast"
	"github.com/Yiergot/vehicle/internal/token"
)

func bvar(i int) ast.Expr {
	return &ast.VarExpr{Ann: ast.Ann{Prov: token.Machine}, Ref: ast.BoundVar{Index: i}}
}

func fvar(id string) ast.Expr {
	return &ast.VarExpr{Ann: ast.Ann{Prov: token.Machine}, Ref: ast.FreeVar{ID: id}}
}

func TestLiftShiftsAboveCutoff(t *testing.T) {
	e := bvar(2)
	got := Lift(1, 1, e)
	if idx := got.(*ast.VarExpr).Ref.(ast.BoundVar).Index; idx != 3 {
		t.Fatalf("Lift: got index %d, want 3", idx)
	}
}

func TestLiftLeavesBelowCutoffAlone(t *testing.T) {
	e := bvar(0)
	got := Lift(1, 1, e)
	if idx := got.(*ast.VarExpr).Ref.(ast.BoundVar).Index; idx != 0 {
		t.Fatalf("Lift: got index %d, want 0 (untouched)", idx)
	}
}

func TestSubstReplacesOutermostBound(t *testing.T) {
	body := bvar(0)
	got := Subst(fvar("x"), body)
	ref, ok := got.(*ast.VarExpr).Ref.(ast.FreeVar)
	if !ok || ref.ID != "x" {
		t.Fatalf("Subst: got %#v, want Free(x)", got)
	}
}

func TestSubstDecrementsHigherIndices(t *testing.T) {
	body := bvar(2)
	got := Subst(fvar("x"), body)
	idx := got.(*ast.VarExpr).Ref.(ast.BoundVar).Index
	if idx != 1 {
		t.Fatalf("Subst: got index %d, want 1", idx)
	}
}

func TestSubstLiftsValueUnderBinder(t *testing.T) {
	// \_ . (Bound 1), substituting a value for Bound 0 into a Lam body:
	// the value reaches the body, and it is lifted by one to account for
	// the Lam's own binder it now sits under. A free value is unchanged by
	// lifting; a bound one (Bound 3) must come out as Bound 4.
	lam := &ast.LamExpr{
		Ann:    ast.Ann{Prov: token.Machine},
		Binder: ast.Binder{Type: bvar(0)},
		Body:   bvar(1),
	}
	got := Subst(fvar("outer"), lam).(*ast.LamExpr)
	ref, ok := got.Body.(*ast.VarExpr).Ref.(ast.FreeVar)
	if !ok || ref.ID != "outer" {
		t.Fatalf("Subst under binder: got %#v, want Free(outer)", got.Body)
	}

	lifted := Subst(bvar(3), lam).(*ast.LamExpr)
	bref, ok := lifted.Body.(*ast.VarExpr).Ref.(ast.BoundVar)
	if !ok || bref.Index != 4 {
		t.Fatalf("Subst under binder: got %#v, want Bound(4)", lifted.Body)
	}
}

func TestFreeIdentifiersCollectsAcrossApp(t *testing.T) {
	app := ast.NewApp(token.Machine, fvar("f"), ast.Argument{Value: fvar("g")})
	free := FreeIdentifiers(app)
	if !free["f"] || !free["g"] {
		t.Fatalf("FreeIdentifiers: got %v, want f and g", free)
	}
}

func TestAlphaEqIgnoresBinderNames(t *testing.T) {
	name1, name2 := "x", "y"
	lam1 := &ast.LamExpr{Binder: ast.Binder{Name: &name1, Type: bvar(0)}, Body: bvar(0)}
	lam2 := &ast.LamExpr{Binder: ast.Binder{Name: &name2, Type: bvar(0)}, Body: bvar(0)}
	if !AlphaEq(lam1, lam2) {
		t.Fatalf("AlphaEq: expected binder-name-only difference to be equal")
	}
}

func TestAlphaEqDistinguishesVisibility(t *testing.T) {
	lam1 := &ast.LamExpr{Binder: ast.Binder{Visibility: ast.Explicit, Type: bvar(0)}, Body: bvar(0)}
	lam2 := &ast.LamExpr{Binder: ast.Binder{Visibility: ast.Implicit, Type: bvar(0)}, Body: bvar(0)}
	if AlphaEq(lam1, lam2) {
		t.Fatalf("AlphaEq: expected differing visibility to be unequal")
	}
}

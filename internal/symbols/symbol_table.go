// Package symbols holds the declaration table shared by the scope
// checker and the elaborator: for each top-level identifier, whether
// it has been declared yet (spec.md §4.2) and its checked type plus
// optional body (spec.md §4.3 "declaration-level (type, optional-body)").
// Grounded on the teacher's symbol_table_core.go Symbol/define/find
// shape, trimmed to the three declaration kinds Vehicle actually has: there are
// no traits, instances, modules, or type aliases to register, since
// Vehicle's type-class set is closed and resolved by fixed rules in
// internal/elaborate rather than by a user-extensible instance table.
package symbols

import "github.com/Yiergot/vehicle/internal/ast"

// Kind distinguishes the three declaration shapes (spec.md §3).
type Kind int

const (
	KindNetwork Kind = iota
	KindDataset
	KindFunction
)

// Entry is what the table remembers about one declared identifier.
type Entry struct {
	Name string
	Kind Kind
	// Type is the scope-checked type when internal/scope declares the
	// entry, replaced by the elaborated type when internal/elaborate
	// declares it again; Body is nil for DeclNetw/DeclData (spec.md §4.3 "Var(Free
	// id): look up declaration type").
	Type ast.Expr
	Body ast.Expr
}

// Table is the ordered declaration context spec.md §4.2 describes: new
// declarations only become visible to later ones, never earlier ones
// or themselves (non-recursive).
type Table struct {
	order   []string
	entries map[string]*Entry
}

func NewTable() *Table {
	return &Table{entries: make(map[string]*Entry)}
}

// Has reports whether name has already been declared (spec.md §4.2
// "declaration identifiers seen so far").
func (t *Table) Has(name string) bool {
	_, ok := t.entries[name]
	return ok
}

// Declare commits an identifier to the table. Scope checking calls this
// only after the declaration's own body has been checked (spec.md §4.2
// "definitions are not visible inside themselves").
func (t *Table) Declare(e *Entry) {
	if _, exists := t.entries[e.Name]; !exists {
		t.order = append(t.order, e.Name)
	}
	t.entries[e.Name] = e
}

// Lookup returns the entry for name, or nil if undeclared.
func (t *Table) Lookup(name string) *Entry {
	return t.entries[name]
}

// Order returns declaration identifiers in the order they were
// declared (spec.md §5 "declaration order ... determines scope,
// elaboration order, normalisation order, and backend emission order").
func (t *Table) Order() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// IsNetwork reports whether name names a network declaration, the
// predicate the VNNLib backend's meta-network discovery uses (spec.md
// §4.5 step 1 "networkIdentifiers").
func (t *Table) IsNetwork(name string) bool {
	e := t.Lookup(name)
	return e != nil && e.Kind == KindNetwork
}

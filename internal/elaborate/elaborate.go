package elaborate

import (
	"github.com/Yiergot/vehicle/internal/ast"
	"github.com/Yiergot/vehicle/internal/symbols"
)

// tableLookup adapts *symbols.Table to DeclLookup: the two packages
// keep independent Entry types (symbols.Entry also carries a Kind the
// elaborator has no use for), so this is a thin translation rather
// than a reuse of the same struct.
type tableLookup struct{ t *symbols.Table }

func (d tableLookup) Lookup(name string) *Entry {
	e := d.t.Lookup(name)
	if e == nil {
		return nil
	}
	return &Entry{Type: e.Type, Body: e.Body}
}

// ElaborateProgram runs spec.md §4.3 over a scope-checked program in
// declaration order, committing each identifier's checked type (and
// body, for DefFun) to decls before the next declaration is
// elaborated — mirroring the non-recursive visibility rule scope
// checking already enforced (spec.md §4.2, §5 "elaboration order").
// A DeclNetw/DeclData's declared type is itself checked as a type
// (inferUniverseLevel); a DefFun's declared type is checked as a type
// and its body is then Check'd against that type. The solver runs
// once per declaration so later declarations see fully zapped types,
// matching the teacher's per-top-level-binding SolveConstraints calls
// rather than a single whole-program solve at the very end.
func ElaborateProgram(decls *symbols.Table, prog ast.Program) (ast.Program, error) {
	mc := NewMetaContext()
	ctx := NewCtx(tableLookup{decls})

	out := make(ast.Program, 0, len(prog))
	for _, d := range prog {
		checked, err := elaborateDecl(mc, ctx, decls, d)
		if err != nil {
			return nil, err
		}
		out = append(out, checked)
	}
	return out, nil
}

func elaborateDecl(mc *MetaContext, ctx Ctx, decls *symbols.Table, d ast.Decl) (ast.Decl, error) {
	switch decl := d.(type) {
	case *ast.DeclNetw:
		ty, _, err := inferUniverseLevel(mc, ctx, decl.Type, decl.GetProvenance())
		if err != nil {
			return nil, err
		}
		if err := mc.SolveConstraints(); err != nil {
			return nil, err
		}
		ty = mc.Zap(ty)
		decls.Declare(&symbols.Entry{Name: decl.GetID(), Kind: symbols.KindNetwork, Type: ty})
		return ast.NewDeclNetw(decl.GetProvenance(), decl.GetID(), ty), nil

	case *ast.DeclData:
		ty, _, err := inferUniverseLevel(mc, ctx, decl.Type, decl.GetProvenance())
		if err != nil {
			return nil, err
		}
		if err := mc.SolveConstraints(); err != nil {
			return nil, err
		}
		ty = mc.Zap(ty)
		decls.Declare(&symbols.Entry{Name: decl.GetID(), Kind: symbols.KindDataset, Type: ty})
		return ast.NewDeclData(decl.GetProvenance(), decl.GetID(), ty), nil

	case *ast.DefFun:
		ty, _, err := inferUniverseLevel(mc, ctx, decl.Type, decl.GetProvenance())
		if err != nil {
			return nil, err
		}
		body, err := Check(mc, ctx, ty, decl.Body, decl.GetProvenance())
		if err != nil {
			return nil, err
		}
		if err := mc.SolveConstraints(); err != nil {
			return nil, err
		}
		ty, body = mc.Zap(ty), mc.Zap(body)
		decls.Declare(&symbols.Entry{Name: decl.GetID(), Kind: symbols.KindFunction, Type: ty, Body: body})
		return ast.NewDefFun(decl.GetProvenance(), decl.GetID(), ty, body), nil

	default:
		panic("elaborate: unknown Decl variant")
	}
}

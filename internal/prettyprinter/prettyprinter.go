// Package prettyprinter renders a locally-nameless ast.Expr back to
// Vehicle's surface syntax (spec.md §1 "the textual pretty-printer" is
// named as an out-of-scope collaborator, but SPEC_FULL.md keeps it as a
// thin in-repo package; cmd/vehicle uses it to print declarations for
// its cache).
// Grounded on the teacher's treatment of its own AST as "the source of
// truth for both checking and display" (internal/ast's Visitor is used by
// both the analyzer and any stringification), generalised here to a
// single recursive function rather than a visitor, matching this repo's
// own "type switch, not Accept(Visitor)" convention (internal/ast).
//
// De Bruijn indices are resolved back to names using each binder's
// advisory Name hint (spec.md §4.2 "Name hints on binders are advisory
// and only used by the printer"); an anonymous binder or one whose hint
// collides with an enclosing name is given a fresh synthetic name, so no
// two binders in scope print alike. Builtins are printed by their symbol
// in prefix position (`== x y`), a form the parser does not accept, so
// printed terms do not in general parse back.
package prettyprinter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Yiergot/vehicle/internal/ast"
)

// scope is the printer's name stack: outermost binder first, matching
// the convention internal/scope.Checker and internal/vnnlib use for
// their own local-name/magic-variable stacks.
type scope struct {
	names []string
	fresh int
}

func (s *scope) push(hint *string) string {
	name := "v"
	if hint != nil && *hint != "" {
		name = *hint
	}
	for s.taken(name) {
		s.fresh++
		name = name + strconv.Itoa(s.fresh)
	}
	s.names = append(s.names, name)
	return name
}

func (s *scope) taken(name string) bool {
	for _, n := range s.names {
		if n == name {
			return true
		}
	}
	return false
}

func (s *scope) pop() { s.names = s.names[:len(s.names)-1] }

func (s *scope) resolve(i int) string {
	idx := len(s.names) - 1 - i
	if idx < 0 || idx >= len(s.names) {
		return fmt.Sprintf("#%d", i) // dangling index, e.g. inside a VNNLib-lowered fragment
	}
	return s.names[idx]
}

// Print renders e as surface syntax.
func Print(e ast.Expr) string {
	var b strings.Builder
	(&scope{}).print(&b, e, 0)
	return b.String()
}

// PrintProgram renders every declaration, one per line.
func PrintProgram(prog ast.Program) string {
	var b strings.Builder
	s := &scope{}
	for _, d := range prog {
		printDecl(&b, s, d)
		b.WriteString("\n")
	}
	return b.String()
}

func printDecl(b *strings.Builder, s *scope, d ast.Decl) {
	switch decl := d.(type) {
	case *ast.DeclNetw:
		fmt.Fprintf(b, "network %s : ", decl.GetID())
		s.print(b, decl.Type, 0)
		b.WriteString(" ;")
	case *ast.DeclData:
		fmt.Fprintf(b, "dataset %s : ", decl.GetID())
		s.print(b, decl.Type, 0)
		b.WriteString(" ;")
	case *ast.DefFun:
		fmt.Fprintf(b, "%s : ", decl.GetID())
		s.print(b, decl.Type, 0)
		fmt.Fprintf(b, " ;\n%s = ", decl.GetID())
		s.print(b, decl.Body, 0)
		b.WriteString(" ;")
	}
}

// prec mirrors spec.md §6's 15 precedence levels, collapsed to the
// handful of cut points that actually need parenthesisation when
// printing a fully-elaborated (already-disambiguated) tree: application
// binds tightest, then unary/arrow forms, then the binder forms (forall,
// lambda, let, if, quantifiers) which always parenthesise their body
// when nested under anything else.
const (
	precAtom = iota
	precApp
	precArrow
	precBinder
)

func (s *scope) print(b *strings.Builder, e ast.Expr, minPrec int) {
	wrap := func(prec int, f func()) {
		if prec < minPrec {
			b.WriteByte('(')
			f()
			b.WriteByte(')')
			return
		}
		f()
	}
	switch x := e.(type) {
	case *ast.UniverseExpr:
		fmt.Fprintf(b, "Type %d", x.Level)

	case *ast.VarExpr:
		switch ref := x.Ref.(type) {
		case ast.NamedVar:
			b.WriteString(ref.Symbol)
		case ast.BoundVar:
			b.WriteString(s.resolve(ref.Index))
		case ast.FreeVar:
			b.WriteString(ref.ID)
		}

	case *ast.MetaExpr:
		fmt.Fprintf(b, "?m%d", x.ID)

	case *ast.HoleExpr:
		fmt.Fprintf(b, "?%s", x.Name)

	case *ast.BuiltinExpr:
		b.WriteString(string(x.Op))

	case *ast.LiteralExpr:
		printLiteral(b, x.Lit)

	case *ast.SeqExpr:
		b.WriteByte('[')
		for i, el := range x.Elements {
			if i > 0 {
				b.WriteString(", ")
			}
			s.print(b, el, precBinder)
		}
		b.WriteByte(']')

	case *ast.AnnExpr:
		wrap(precBinder, func() {
			b.WriteByte('(')
			s.print(b, x.Value, precBinder)
			b.WriteString(" : ")
			s.print(b, x.Type, precBinder)
			b.WriteByte(')')
		})

	case *ast.PrimDictExpr:
		s.print(b, x.Dict, minPrec)

	case *ast.AppExpr:
		wrap(precApp, func() {
			s.print(b, x.Fun, precApp)
			for _, a := range x.Args {
				b.WriteByte(' ')
				printArg(b, s, a)
			}
		})

	case *ast.PiExpr:
		wrap(precBinder, func() {
			if x.Binder.IsAnonymous() && x.Binder.Visibility == ast.Explicit {
				s.print(b, x.Binder.Type, precArrow+1)
				b.WriteString(" -> ")
				name := s.push(nil)
				_ = name
				s.print(b, x.Result, precArrow)
				s.pop()
				return
			}
			b.WriteString("forall ")
			printBinder(b, s, x.Binder, true)
			b.WriteString(" . ")
			s.print(b, x.Result, precBinder)
			s.pop()
		})

	case *ast.LamExpr:
		wrap(precBinder, func() {
			b.WriteString("\\")
			printBinder(b, s, x.Binder, false)
			b.WriteString(" -> ")
			s.print(b, x.Body, precBinder)
			s.pop()
		})

	case *ast.LetExpr:
		wrap(precBinder, func() {
			b.WriteString("let ")
			name := s.push(x.Binder.Name)
			fmt.Fprintf(b, "%s = ", name)
			s.print(b, x.Value, precBinder)
			b.WriteString(" in ")
			s.print(b, x.Body, precBinder)
			s.pop()
		})

	default:
		b.WriteString("<?>")
	}
}

func printArg(b *strings.Builder, s *scope, a ast.Argument) {
	switch a.Visibility {
	case ast.Implicit:
		b.WriteByte('{')
		s.print(b, a.Value, precBinder)
		b.WriteByte('}')
	case ast.Instance:
		b.WriteString("{{")
		s.print(b, a.Value, precBinder)
		b.WriteString("}}")
	default:
		s.print(b, a.Value, precApp+1)
	}
}

// printBinder pushes the binder's name onto s (the caller pops it once
// the body has been printed) and renders `x`, `(x : T)`, `{x}`, `{x :
// T}`, mirroring spec.md §6's binder grammar.
func printBinder(b *strings.Builder, s *scope, bd ast.Binder, forall bool) {
	name := s.push(bd.Name)
	open, close := "", ""
	switch bd.Visibility {
	case ast.Implicit:
		open, close = "{", "}"
	case ast.Instance:
		open, close = "{{", "}}"
	}
	if bd.Type != nil && (bd.Name != nil || forall) {
		if open == "" {
			open, close = "(", ")"
		}
		fmt.Fprintf(b, "%s%s : ", open, name)
		s.print(b, bd.Type, precBinder)
		b.WriteString(close)
		return
	}
	fmt.Fprintf(b, "%s%s%s", open, name, close)
}

func printLiteral(b *strings.Builder, l ast.Literal) {
	switch l.Kind {
	case ast.LitNat:
		fmt.Fprintf(b, "%d", l.Nat)
	case ast.LitInt:
		fmt.Fprintf(b, "%d", l.Int)
	case ast.LitRat:
		fmt.Fprintf(b, "%s", l.Rat.RatString())
	case ast.LitBool:
		if l.Bool {
			b.WriteString("True")
		} else {
			b.WriteString("False")
		}
	}
}

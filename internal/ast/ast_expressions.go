package ast

import "github.com/Yiergot/vehicle/internal/token"

// Decl is a top-level declaration (spec.md §3 "Program = list of
// declarations"). The three variants below are the full closed set: a
// parsed `network`/`dataset`/type-synonym/signature-plus-definition
// surface form is desugared by the parser into one of these before the
// rest of the pipeline ever sees it.
type Decl interface {
	GetID() string
	GetProvenance() token.Provenance
	declNode()
}

type declBase struct {
	Prov token.Provenance
	ID   string
}

func (d declBase) GetID() string                { return d.ID }
func (d declBase) GetProvenance() token.Provenance { return d.Prov }
func (declBase) declNode()                       {}

// DeclNetw is a `network f : T` declaration: an opaque symbol whose type
// must reduce to a tensor-to-tensor function before the VNNLib backend
// will accept it (spec.md §4.5 step 2).
type DeclNetw struct {
	declBase
	Type Expr
}

// DeclData is a `dataset d : T` declaration: an opaque symbol standing
// for an external data source, never given a body (spec.md §3).
type DeclData struct {
	declBase
	Type Expr
}

// DefFun is a `f : T; f = e` declaration pair, merged by the parser into
// one node (spec.md §3 "Defined function"). A DefFun whose Type
// is the closed Prop builtin is a property, the VNNLib
// backend's unit of compilation (spec.md §4.5 step 0).
type DefFun struct {
	declBase
	Type Expr
	Body Expr
}

// Program is a whole source file after parsing: an ordered list of
// declarations (top to bottom), each in scope of every later one
// (spec.md §4.2 "declarations come into scope in file order").
type Program []Decl

func NewDeclNetw(prov token.Provenance, id string, ty Expr) *DeclNetw {
	return &DeclNetw{declBase{Prov: prov, ID: id}, ty}
}

func NewDeclData(prov token.Provenance, id string, ty Expr) *DeclData {
	return &DeclData{declBase{Prov: prov, ID: id}, ty}
}

func NewDefFun(prov token.Provenance, id string, ty, body Expr) *DefFun {
	return &DefFun{declBase{Prov: prov, ID: id}, ty, body}
}

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Yiergot/vehicle/internal/ast"
	"github.com/Yiergot/vehicle/internal/token"
)

func TestLoadProjectMinimal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vehicle.yaml")
	content := "source: model.vcl\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	proj, err := LoadProject(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if proj.Source != "model.vcl" {
		t.Errorf("Source = %q, want model.vcl", proj.Source)
	}
	if proj.Output != "out" {
		t.Errorf("default Output = %q, want out", proj.Output)
	}
	if proj.Verifier != nil {
		t.Errorf("expected nil Verifier, got %+v", proj.Verifier)
	}
}

func TestLoadProjectFull(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vehicle.yaml")
	content := `
source: model.vcl
output: build
cache: vehicle.sqlite
verifier:
  target: localhost:50505
  proto: verifier.proto
  import_dir: protos
  method: vehicle.Verifier/Check
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	proj, err := LoadProject(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if proj.Output != "build" {
		t.Errorf("Output = %q, want build", proj.Output)
	}
	if proj.Cache != "vehicle.sqlite" {
		t.Errorf("Cache = %q, want vehicle.sqlite", proj.Cache)
	}
	if proj.Verifier == nil {
		t.Fatalf("expected non-nil Verifier")
	}
	if proj.Verifier.Target != "localhost:50505" {
		t.Errorf("Verifier.Target = %q, want localhost:50505", proj.Verifier.Target)
	}
	if proj.Verifier.Method != "vehicle.Verifier/Check" {
		t.Errorf("Verifier.Method = %q, want vehicle.Verifier/Check", proj.Verifier.Method)
	}
}

func TestLoadProjectMissingSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vehicle.yaml")
	if err := os.WriteFile(path, []byte("output: build\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadProject(path); err == nil {
		t.Fatal("expected error for missing source field")
	}
}

func TestLoadProjectMissingFile(t *testing.T) {
	if _, err := LoadProject(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing project file")
	}
}

func TestFreeIdentifiersDedupesAndOrders(t *testing.T) {
	ids := freeIdentifiers(nil)
	if len(ids) != 0 {
		t.Fatalf("freeIdentifiers(nil) = %v, want empty", ids)
	}

	// f g f: f is reported once, and before g.
	f := &ast.VarExpr{Ann: ast.Ann{Prov: token.Machine}, Ref: ast.FreeVar{ID: "f"}}
	g := &ast.VarExpr{Ann: ast.Ann{Prov: token.Machine}, Ref: ast.FreeVar{ID: "g"}}
	ids = freeIdentifiers(ast.NewApp(token.Machine, f, ast.Argument{Value: g}, ast.Argument{Value: f}))
	if len(ids) != 2 || ids[0] != "f" || ids[1] != "g" {
		t.Fatalf("freeIdentifiers(f g f) = %v, want [f g]", ids)
	}
}

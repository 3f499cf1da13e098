package cache

import "testing"

func TestStoreThenLookupRoundTrips(t *testing.T) {
	c, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	key := Key("f : Tensor Real [1] -> Tensor Real [1] ;")
	rec := Record{Type: "Tensor Real [1] -> Tensor Real [1]", NormalForm: "f", Dependencies: []string{"g", "h"}}
	if err := c.Store(key, "f", rec); err != nil {
		t.Fatalf("Store: %v", err)
	}

	got, ok, err := c.Lookup(key)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !ok {
		t.Fatalf("Lookup: got miss, want hit")
	}
	if got.Type != rec.Type || got.NormalForm != rec.NormalForm {
		t.Fatalf("got %+v, want %+v", got, rec)
	}
	if len(got.Dependencies) != 2 || got.Dependencies[0] != "g" || got.Dependencies[1] != "h" {
		t.Fatalf("got deps %v, want [g h]", got.Dependencies)
	}
}

func TestLookupMiss(t *testing.T) {
	c, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	_, ok, err := c.Lookup(Key("not stored"))
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if ok {
		t.Fatalf("Lookup: got hit, want miss")
	}
}

func TestCleanRemovesEntries(t *testing.T) {
	c, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	key := Key("x : Nat ;")
	if err := c.Store(key, "x", Record{Type: "Nat", NormalForm: "1"}); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := c.Clean(); err != nil {
		t.Fatalf("Clean: %v", err)
	}
	_, ok, err := c.Lookup(key)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if ok {
		t.Fatalf("Lookup after Clean: got hit, want miss")
	}
}

package stpcatalog

import (
	"testing"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := FromVariants([]*Variant{
		{Key: "Alpha", Name: "Alpha Drop", Icons: []string{"gold"}},
		{Key: "beta", Cluster: "classics"},
	})
	if err != nil {
		t.Fatalf("FromVariants failed: %v", err)
	}
	return c
}

func TestCatalogGetCaseInsensitive(t *testing.T) {
	c := testCatalog(t)
	for _, k := range []string{"alpha", "ALPHA", " Alpha ", "Alpha"} {
		if v := c.Get(k); v == nil || v.Key != "Alpha" {
			t.Fatalf("Get(%q) = %+v", k, v)
		}
	}
	if c.Get("gamma") != nil {
		t.Fatal("expected miss for unknown key")
	}
}

func TestCatalogDuplicateKey(t *testing.T) {
	_, err := FromVariants([]*Variant{{Key: "A"}, {Key: "a"}})
	if err == nil {
		t.Fatal("expected duplicate key error")
	}
}

func TestVariantDisplayName(t *testing.T) {
	c := testCatalog(t)
	if got := c.Get("alpha").DisplayName(); got != "Alpha Drop" {
		t.Fatalf("DisplayName = %q", got)
	}
	if got := c.Get("beta").DisplayName(); got != "beta" {
		t.Fatalf("DisplayName fallback = %q", got)
	}
}

func TestIndexReloadSwap(t *testing.T) {
	c := testCatalog(t)
	if c.Index().Lookup("Alpha_001") != nil {
		t.Fatal("expected nil lookup on empty index")
	}

	if err := c.SetIndexBytes([]byte(`{"Alpha_001":{"variant":"Alpha","image":"ipfs://x","traits":{"gold":true}}}`)); err != nil {
		t.Fatalf("SetIndexBytes failed: %v", err)
	}
	row := c.Index().Lookup("Alpha_001")
	if row == nil || row.Variant != "Alpha" || !row.Traits["gold"] {
		t.Fatalf("unexpected row: %+v", row)
	}

	// swap in a replacement, old names drop out
	if err := c.SetIndexBytes([]byte(`{"Beta_002":{"variant":"beta"}}`)); err != nil {
		t.Fatalf("second SetIndexBytes failed: %v", err)
	}
	if c.Index().Lookup("Alpha_001") != nil {
		t.Fatal("old index row survived reload")
	}
	if c.Index().Len() != 1 {
		t.Fatalf("Len = %d", c.Index().Len())
	}
}

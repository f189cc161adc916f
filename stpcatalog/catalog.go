package stpcatalog

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/KarpelesLab/pjson"
)

// Variant is one catalog entry, a named drop family assets can be
// classified into. Loaded once at startup, read-only afterwards. Keys
// compare case-insensitively everywhere.
type Variant struct {
	Key     string   `json:"key"`
	Name    string   `json:"name,omitempty"`
	Cluster string   `json:"cluster,omitempty"`
	Icons   []string `json:"icons,omitempty"` // always-on trait icons
}

// DisplayName returns the variant's name, falling back to its key.
func (v *Variant) DisplayName() string {
	if v.Name != "" {
		return v.Name
	}
	return v.Key
}

// Catalog holds the variant list plus the optional local index. The index
// is swapped atomically on reload so in-flight requests keep a consistent
// snapshot.
type Catalog struct {
	variants []*Variant
	byKey    map[string]*Variant
	index    atomic.Pointer[Index]
}

// Load reads the variant catalog from a JSON file.
func Load(path string) (*Catalog, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	var variants []*Variant
	if err := pjson.Unmarshal(buf, &variants); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return FromVariants(variants)
}

// FromVariants builds a catalog from an already-parsed variant list.
func FromVariants(variants []*Variant) (*Catalog, error) {
	c := &Catalog{variants: variants, byKey: make(map[string]*Variant, len(variants))}
	for _, v := range variants {
		if v.Key == "" {
			return nil, fmt.Errorf("catalog entry %q has no key", v.Name)
		}
		k := strings.ToLower(v.Key)
		if _, dup := c.byKey[k]; dup {
			return nil, fmt.Errorf("duplicate catalog key %q", v.Key)
		}
		c.byKey[k] = v
	}
	return c, nil
}

// Variants returns the catalog entries in their configured order.
func (c *Catalog) Variants() []*Variant {
	return c.variants
}

// Get returns the variant for a key, case-insensitively, or nil.
func (c *Catalog) Get(key string) *Variant {
	return c.byKey[strings.ToLower(strings.TrimSpace(key))]
}

// Index returns the current local index snapshot, possibly nil.
func (c *Catalog) Index() *Index {
	return c.index.Load()
}

// SetIndexBytes parses a local index document and swaps it in. Used both
// at startup and by on-demand reloads.
func (c *Catalog) SetIndexBytes(buf []byte) error {
	idx, err := ParseIndex(buf)
	if err != nil {
		return err
	}
	c.index.Store(idx)
	return nil
}

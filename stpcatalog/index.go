package stpcatalog

import (
	"fmt"

	"github.com/KarpelesLab/pjson"
)

// IndexRow is one precomputed entry of the local index, keyed by the
// ASCII asset name. It short-circuits the on-chain matching heuristics.
type IndexRow struct {
	Variant string          `json:"variant"`
	Image   string          `json:"image,omitempty"`
	Number  string          `json:"number,omitempty"`
	Traits  map[string]bool `json:"traits,omitempty"`
}

// Index maps ASCII asset names to their precomputed rows.
type Index struct {
	rows map[string]*IndexRow
}

// ParseIndex parses a local index JSON document, a single object keyed by
// ASCII asset name.
func ParseIndex(buf []byte) (*Index, error) {
	var rows map[string]*IndexRow
	if err := pjson.Unmarshal(buf, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse local index: %w", err)
	}
	return &Index{rows: rows}, nil
}

// Lookup returns the row for an exact ASCII asset name, or nil.
func (i *Index) Lookup(assetName string) *IndexRow {
	if i == nil {
		return nil
	}
	return i.rows[assetName]
}

// Len returns the number of indexed asset names.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.rows)
}

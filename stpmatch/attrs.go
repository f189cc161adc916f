package stpmatch

import (
	"strings"

	"github.com/Constitosh/stamps/stpcatalog"
	"github.com/Constitosh/stamps/stpledger"
	"github.com/KarpelesLab/typutil"
)

// attributeBag locates the attributes/traits object inside the on-chain
// metadata, case-insensitively. On-chain schemas vary per collection so
// the result stays a loose string-keyed bag.
func attributeBag(info *stpledger.AssetInfo) map[string]any {
	for k, v := range info.OnchainMetadata {
		switch strings.ToLower(k) {
		case "attributes", "traits":
			if m, ok := v.(map[string]any); ok {
				return m
			}
		}
	}
	return nil
}

// bagValue fetches a bag entry by case-insensitive key.
func bagValue(bag map[string]any, key string) (any, bool) {
	for k, v := range bag {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// bagString fetches a bag entry coerced to a trimmed string, or "".
func bagString(bag map[string]any, key string) string {
	v, ok := bagValue(bag, key)
	if !ok {
		return ""
	}
	s, err := typutil.As[string](v)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// bagBool reports whether a bag entry is a true boolean (or a truthy
// "true"/"yes" string, which some collections use).
func bagBool(bag map[string]any, key string) bool {
	v, ok := bagValue(bag, key)
	if !ok {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes":
			return true
		}
	}
	return false
}

// traitVocab is the fixed vocabulary of trait flags detected from
// on-chain attributes.
var traitVocab = []string{"gold", "holo", "misprint"}

// maxTraits caps every tally's trait-flag set.
const maxTraits = 3

// deriveTraits merges trait flags from on-chain attribute detection, the
// matched local index row, and the variant's always-on icons. Everything
// is lower-cased and deduplicated; the merged set is capped at maxTraits,
// order beyond the cap is unspecified.
func deriveTraits(attrs map[string]any, row *stpcatalog.IndexRow, v *stpcatalog.Variant) []string {
	var out []string
	add := func(t string) {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || len(out) >= maxTraits {
			return
		}
		for _, seen := range out {
			if seen == t {
				return
			}
		}
		out = append(out, t)
	}

	freeText := bagString(attrs, "trait")
	for _, word := range traitVocab {
		if bagBool(attrs, word) {
			add(word)
			continue
		}
		if freeText != "" && strings.Contains(strings.ToLower(freeText), word) {
			add(word)
		}
	}
	if row != nil {
		for t, on := range row.Traits {
			if on {
				add(t)
			}
		}
	}
	for _, icon := range v.Icons {
		add(icon)
	}
	return out
}

// MergeTraits folds new flags into an existing tally set under the same
// lower-case/dedupe/cap rules. Used by the aggregator.
func MergeTraits(dst, src []string) []string {
	for _, t := range src {
		if len(dst) >= maxTraits {
			break
		}
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		dup := false
		for _, seen := range dst {
			if seen == t {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, t)
		}
	}
	return dst
}

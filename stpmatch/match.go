package stpmatch

import (
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"

	"github.com/Constitosh/stamps/stpcatalog"
	"github.com/Constitosh/stamps/stpledger"
)

// Result describes one variant an asset was classified into, plus the
// display attributes derived for it.
type Result struct {
	Variant *stpcatalog.Variant
	Name    string // decoded ASCII asset name, "" when not valid hex
	Image   string
	Number  string
	Traits  []string
}

// Match classifies one asset against the catalog. Strategies run in fixed
// precedence, first success wins:
//
//  1. local index row for the exact ASCII asset name
//  2. on-chain "slot" attribute equal to a catalog key
//  3. name prefix "<KEY>_" on the upper-cased ASCII name
//
// The prefix heuristic alone may match several variants at once; each gets
// its own result. No strategy matching means the asset belongs to no
// variant and the return is empty. Malformed or missing metadata never
// raises, it simply fails to match.
func Match(info *stpledger.AssetInfo, idx *stpcatalog.Index, cat *stpcatalog.Catalog) []*Result {
	if info == nil {
		return nil
	}
	name := asciiName(info)
	attrs := attributeBag(info)

	// local index first
	if row := idx.Lookup(name); row != nil {
		v := cat.Get(row.Variant)
		if v == nil {
			// indexed under a key the catalog doesn't know
			return nil
		}
		return []*Result{buildResult(v, info, attrs, name, row)}
	}

	// on-chain slot attribute
	if slot := bagString(attrs, "slot"); slot != "" {
		if v := cat.Get(slot); v != nil {
			return []*Result{buildResult(v, info, attrs, name, nil)}
		}
	}

	// name prefix heuristic, evaluated per variant
	var out []*Result
	upper := strings.ToUpper(name)
	for _, v := range cat.Variants() {
		if strings.HasPrefix(upper, strings.ToUpper(v.Key)+"_") {
			out = append(out, buildResult(v, info, attrs, name, nil))
		}
	}
	return out
}

func buildResult(v *stpcatalog.Variant, info *stpledger.AssetInfo, attrs map[string]any, name string, row *stpcatalog.IndexRow) *Result {
	r := &Result{Variant: v, Name: name}
	if row != nil {
		r.Image = row.Image
		r.Number = row.Number
	}
	if r.Image == "" {
		r.Image = metaImage(info)
	}
	if r.Number == "" {
		r.Number = deriveNumber(info, attrs, name)
	}
	r.Traits = deriveTraits(attrs, row, v)
	return r
}

// asciiName decodes the hex asset name to its ASCII text. A name that is
// not valid hex yields "".
func asciiName(info *stpledger.AssetInfo) string {
	buf, err := hex.DecodeString(info.AssetName)
	if err != nil {
		return ""
	}
	return string(buf)
}

var trailingNum = regexp.MustCompile(`_(\d+)$`)

// unitTailLen is the fixed-width tail slice of the unit hex used as the
// display number of last resort.
const unitTailLen = 8

// deriveNumber picks the display number: an explicit STAMP attribute, else
// the trailing _NNNN digit run of the ASCII name, else a tail slice of the
// unit hex.
func deriveNumber(info *stpledger.AssetInfo, attrs map[string]any, name string) string {
	if s := stampNumber(attrs); s != "" {
		return s
	}
	if s := stampNumber(info.OnchainMetadata); s != "" {
		return s
	}
	if m := trailingNum.FindStringSubmatch(name); m != nil {
		s := strings.TrimLeft(m[1], "0")
		if s == "" {
			s = "0"
		}
		return s
	}
	if len(info.Unit) >= unitTailLen {
		return info.Unit[len(info.Unit)-unitTailLen:]
	}
	return ""
}

func stampNumber(bag map[string]any) string {
	v, ok := bagValue(bag, "stamp")
	if !ok {
		return ""
	}
	switch n := v.(type) {
	case float64:
		return strconv.FormatInt(int64(n), 10)
	case int64:
		return strconv.FormatInt(n, 10)
	case uint64:
		return strconv.FormatUint(n, 10)
	case string:
		n = strings.TrimSpace(n)
		if _, err := strconv.Atoi(n); err == nil {
			return n
		}
	}
	return ""
}

// metaImage extracts an image URI from the on-chain metadata. Some
// collections store the image as a list of string chunks.
func metaImage(info *stpledger.AssetInfo) string {
	v, ok := bagValue(info.OnchainMetadata, "image")
	if !ok {
		return ""
	}
	switch img := v.(type) {
	case string:
		return img
	case []any:
		var sb strings.Builder
		for _, part := range img {
			s, ok := part.(string)
			if !ok {
				return ""
			}
			sb.WriteString(s)
		}
		return sb.String()
	}
	return ""
}

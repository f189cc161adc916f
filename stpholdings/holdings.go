package stpholdings

import (
	"context"
	"strings"
	"sync"

	"github.com/Constitosh/stamps/stpcache"
	"github.com/Constitosh/stamps/stpcatalog"
	"github.com/Constitosh/stamps/stpledger"
	"github.com/Constitosh/stamps/stpmatch"
	"golang.org/x/sync/errgroup"
)

// pageSize is the provider pagination size; a short page terminates the
// listing loop.
const pageSize = 100

// fetchLimit bounds concurrent per-unit metadata fetches within one call.
const fetchLimit = 8

// Tally is the per-variant aggregate for one holdings computation.
type Tally struct {
	Count  int      `json:"count"`
	Traits []string `json:"traits,omitempty"`
	Image  string   `json:"image,omitempty"`
}

// Holdings is the result of one aggregation: the flat list of matched
// units plus one tally per catalog variant, zero-count entries included.
type Holdings struct {
	Units        []string            `json:"units"`
	Tallies      map[string]*Tally   `json:"tallies"`
	VariantUnits map[string][]string `json:"-"`
}

// Aggregator orchestrates the caches and the matcher across a wallet's
// full asset listing. Constructed once at startup and shared; it holds no
// per-request state.
type Aggregator struct {
	ledger  stpledger.Ledger
	caches  *stpcache.Caches
	catalog *stpcatalog.Catalog
	policy  string // optional policy id prefix filter, lower-case hex
}

func New(ledger stpledger.Ledger, caches *stpcache.Caches, catalog *stpcatalog.Catalog, policyId string) *Aggregator {
	return &Aggregator{
		ledger:  ledger,
		caches:  caches,
		catalog: catalog,
		policy:  strings.ToLower(policyId),
	}
}

// listAssets pages through the provider until a short page, concatenating
// pages in provider order.
func (a *Aggregator) listAssets(ctx context.Context, stake string) ([]stpledger.AssetRow, error) {
	var all []stpledger.AssetRow
	for page := 1; ; page++ {
		rows, err := a.ledger.ListAccountAssets(ctx, stake, page, pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
		if len(rows) < pageSize {
			return all, nil
		}
	}
}

// ComputeHoldings resolves the wallet's asset listing (honoring force),
// filters it to the configured policy, classifies every unit and returns
// the per-variant tallies. Per-unit metadata fetches run concurrently;
// cancelling ctx stops issuing further fetches. An asset matching several
// variants increments each of them.
func (a *Aggregator) ComputeHoldings(ctx context.Context, stake string, force bool) (*Holdings, error) {
	rows, err := a.caches.AccountAssets(stake, force, func() ([]stpledger.AssetRow, error) {
		return a.listAssets(ctx, stake)
	})
	if err != nil {
		return nil, err
	}

	var units []string
	for _, row := range rows {
		if a.policy != "" && !strings.HasPrefix(strings.ToLower(row.Unit), a.policy) {
			continue
		}
		units = append(units, row.Unit)
	}

	h := &Holdings{
		Tallies:      make(map[string]*Tally),
		VariantUnits: make(map[string][]string),
	}
	for _, v := range a.catalog.Variants() {
		// callers must see zero-count entries for unheld variants
		h.Tallies[v.Key] = &Tally{}
	}

	idx := a.catalog.Index()
	matched := make([]bool, len(units))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchLimit)
	for i, unit := range units {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			info, err := a.caches.AssetInfo(unit, func() (*stpledger.AssetInfo, error) {
				return a.ledger.GetAssetInfo(gctx, unit)
			})
			if err != nil {
				return err
			}
			results := stpmatch.Match(info, idx, a.catalog)
			if len(results) == 0 {
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			matched[i] = true
			for _, r := range results {
				t := h.Tallies[r.Variant.Key]
				t.Count++
				t.Traits = stpmatch.MergeTraits(t.Traits, r.Traits)
				if t.Image == "" && r.Image != "" {
					// first image wins, later ones are ignored
					t.Image = r.Image
				}
				h.VariantUnits[r.Variant.Key] = append(h.VariantUnits[r.Variant.Key], unit)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		// cancelled mid-flight, tallies would be partial
		return nil, err
	}

	for i, unit := range units {
		if matched[i] {
			h.Units = append(h.Units, unit)
		}
	}
	return h, nil
}

// AssetEntry is one displayable asset of a variant.
type AssetEntry struct {
	Unit   string   `json:"unit"`
	Name   string   `json:"name,omitempty"`
	Number string   `json:"number,omitempty"`
	Image  string   `json:"image,omitempty"`
	Traits []string `json:"traits,omitempty"`
}

// VariantAssets returns the display entries for the wallet's assets
// matching one variant. The per-unit metadata comes straight from the
// info cache, so this is cheap right after a ComputeHoldings call.
func (a *Aggregator) VariantAssets(ctx context.Context, stake, variantKey string) ([]*AssetEntry, error) {
	v := a.catalog.Get(variantKey)
	if v == nil {
		return nil, nil
	}

	h, err := a.ComputeHoldings(ctx, stake, false)
	if err != nil {
		return nil, err
	}
	idx := a.catalog.Index()

	var out []*AssetEntry
	for _, unit := range h.VariantUnits[v.Key] {
		info, err := a.caches.AssetInfo(unit, func() (*stpledger.AssetInfo, error) {
			return a.ledger.GetAssetInfo(ctx, unit)
		})
		if err != nil {
			return nil, err
		}
		for _, r := range stpmatch.Match(info, idx, a.catalog) {
			if r.Variant != v {
				continue
			}
			out = append(out, &AssetEntry{
				Unit:   unit,
				Name:   r.Name,
				Number: r.Number,
				Image:  r.Image,
				Traits: r.Traits,
			})
			break
		}
	}
	return out, nil
}

package stpbase

import (
	"errors"
	"io/fs"

	"github.com/Constitosh/stamps/stpaddr"
	"github.com/Constitosh/stamps/stpwallet"
	"github.com/KarpelesLab/apirouter"
	"github.com/KarpelesLab/pobj"
)

func init() {
	pobj.RegisterStatic("Holdings:get", apiHoldingsGet)
	pobj.RegisterStatic("Holdings:assets", apiHoldingsAssets)
}

// getEnv fetches the process env from the request context.
func getEnv(ctx *apirouter.Context) *env {
	v, ok := ctx.GetObject("@env").(*env)
	if !ok {
		return nil
	}
	return v
}

// normalizeIdentifier turns a caller-supplied wallet identifier into its
// canonical staking address, mapping resolution outcomes to API errors.
func normalizeIdentifier(ctx *apirouter.Context, e *env, id string) (string, error) {
	stake, err := stpaddr.Normalize(ctx, e.network, id, e.ledger)
	if err != nil {
		return "", ErrUpstreamUnavailable
	}
	if stake == "" {
		return "", ErrBadAddress
	}
	return stake, nil
}

type variantSummary struct {
	Key      string   `json:"key"`
	Name     string   `json:"name"`
	Cluster  string   `json:"cluster,omitempty"`
	Count    int      `json:"count"`
	Traits   []string `json:"traits,omitempty"`
	Image    string   `json:"image,omitempty"`
	Revealed bool     `json:"revealed"`
}

func apiHoldingsGet(ctx *apirouter.Context, in struct {
	Id    string
	Force bool
}) (any, error) {
	e := getEnv(ctx)
	if e == nil {
		return nil, errors.New("failed to get env")
	}

	stake, err := normalizeIdentifier(ctx, e, in.Id)
	if err != nil {
		return nil, err
	}

	h, err := e.holdings.ComputeHoldings(ctx, stake, in.Force)
	if err != nil {
		return nil, ErrUpstreamUnavailable
	}

	rec, err := stpwallet.Touch(e, stake)
	if err != nil {
		return nil, ErrStoreUnavailable
	}

	var variants []*variantSummary
	for _, v := range e.catalog.Variants() {
		t := h.Tallies[v.Key]
		variants = append(variants, &variantSummary{
			Key:      v.Key,
			Name:     v.DisplayName(),
			Cluster:  v.Cluster,
			Count:    t.Count,
			Traits:   t.Traits,
			Image:    t.Image,
			Revealed: rec.Revealed(v.Key),
		})
	}

	return map[string]any{
		"stake":    stake,
		"variants": variants,
		"units":    h.Units,
	}, nil
}

func apiHoldingsAssets(ctx *apirouter.Context, in struct {
	Id      string
	Variant string
}) (any, error) {
	e := getEnv(ctx)
	if e == nil {
		return nil, errors.New("failed to get env")
	}

	stake, err := normalizeIdentifier(ctx, e, in.Id)
	if err != nil {
		return nil, err
	}
	v := e.catalog.Get(in.Variant)
	if v == nil {
		return nil, ErrUnknownVariant
	}

	items, err := e.holdings.VariantAssets(ctx, stake, v.Key)
	if err != nil {
		return nil, ErrUpstreamUnavailable
	}

	revealed := false
	if rec, err := stpwallet.ByStake(e, stake); err == nil {
		revealed = rec.Revealed(v.Key)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, ErrStoreUnavailable
	}

	return map[string]any{
		"stake":    stake,
		"variant":  v.Key,
		"revealed": revealed,
		"items":    items,
	}, nil
}

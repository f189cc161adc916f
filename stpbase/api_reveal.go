package stpbase

import (
	"errors"

	"github.com/Constitosh/stamps/stpwallet"
	"github.com/KarpelesLab/apirouter"
	"github.com/KarpelesLab/pobj"
)

func init() {
	pobj.RegisterStatic("Wallet:reveal", apiWalletReveal)
}

func apiWalletReveal(ctx *apirouter.Context, in struct {
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

	if e.cfg.requireHoldings() {
		h, err := e.holdings.ComputeHoldings(ctx, stake, false)
		if err != nil {
			return nil, ErrUpstreamUnavailable
		}
		if h.Tallies[v.Key].Count == 0 {
			return nil, stpwallet.ErrNotHolder
		}
	}

	rec, err := stpwallet.Touch(e, stake)
	if err != nil {
		return nil, ErrStoreUnavailable
	}
	if err := rec.AddReveal(e, v.Key); err != nil {
		return nil, ErrStoreUnavailable
	}

	return map[string]any{
		"stake":   stake,
		"reveals": rec.Reveals,
	}, nil
}

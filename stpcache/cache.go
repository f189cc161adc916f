package stpcache

import (
	"time"

	"github.com/Constitosh/stamps/stpledger"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// Defaults. Account listings go stale quickly since holdings move;
// per-asset metadata is near-immutable once minted.
const (
	DefaultAccountTTL = 30 * time.Second
	DefaultAccountCap = 512
	DefaultInfoTTL    = time.Hour
	DefaultInfoCap    = 8192
)

// Options overrides the cache sizing. Zero values fall back to defaults.
type Options struct {
	AccountTTL time.Duration
	AccountCap int
	InfoTTL    time.Duration
	InfoCap    int
}

// Caches holds the two bounded, time-expiring stores shared across
// requests: one for full account asset listings, one for per-unit asset
// metadata. Concurrent misses for the same key share a single provider
// fetch.
type Caches struct {
	accounts  *expirable.LRU[string, []stpledger.AssetRow]
	info      *expirable.LRU[string, *stpledger.AssetInfo]
	accountSF singleflight.Group
	infoSF    singleflight.Group
}

func New(opts Options) *Caches {
	if opts.AccountTTL == 0 {
		opts.AccountTTL = DefaultAccountTTL
	}
	if opts.AccountCap == 0 {
		opts.AccountCap = DefaultAccountCap
	}
	if opts.InfoTTL == 0 {
		opts.InfoTTL = DefaultInfoTTL
	}
	if opts.InfoCap == 0 {
		opts.InfoCap = DefaultInfoCap
	}
	return &Caches{
		accounts: expirable.NewLRU[string, []stpledger.AssetRow](opts.AccountCap, nil, opts.AccountTTL),
		info:     expirable.NewLRU[string, *stpledger.AssetInfo](opts.InfoCap, nil, opts.InfoTTL),
	}
}

// AccountAssets returns the cached asset listing for a staking address,
// calling fetch on a miss. force bypasses the cached entry (but does not
// invalidate it for concurrent readers) and always issues a fresh fetch;
// the fresh result replaces the entry either way. Force refreshes fly
// under their own key so they never piggyback on a miss fetch that
// started earlier.
func (c *Caches) AccountAssets(stake string, force bool, fetch func() ([]stpledger.AssetRow, error)) ([]stpledger.AssetRow, error) {
	key := stake
	if force {
		key = "!" + stake
	} else {
		if rows, ok := c.accounts.Get(stake); ok {
			return rows, nil
		}
	}
	v, err, _ := c.accountSF.Do(key, func() (any, error) {
		rows, err := fetch()
		if err != nil {
			return nil, err
		}
		c.accounts.Add(stake, rows)
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]stpledger.AssetRow), nil
}

// AssetInfo returns the cached metadata for an asset unit, calling fetch
// on a miss. A fetch already in flight for the same unit is shared, so a
// burst of requests produces a single provider call.
func (c *Caches) AssetInfo(unit string, fetch func() (*stpledger.AssetInfo, error)) (*stpledger.AssetInfo, error) {
	if info, ok := c.info.Get(unit); ok {
		return info, nil
	}
	v, err, _ := c.infoSF.Do(unit, func() (any, error) {
		info, err := fetch()
		if err != nil {
			return nil, err
		}
		c.info.Add(unit, info)
		return info, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*stpledger.AssetInfo), nil
}

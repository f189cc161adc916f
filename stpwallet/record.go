package stpwallet

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/Constitosh/stamps/stpintf"
	"github.com/KarpelesLab/xuid"
	"gorm.io/gorm"
)

// Record is the persisted per-wallet state: which variants the wallet has
// revealed, keyed by the canonical staking address. Created on first
// holdings query or reveal; never deleted by this service.
type Record struct {
	Id      *xuid.XUID `gorm:"primaryKey"`
	Stake   string     `gorm:"index:Stake,unique"`
	Reveals []string   `gorm:"serializer:json"`
	Created time.Time  `gorm:"autoCreateTime"` // first seen
	Updated time.Time  `gorm:"autoUpdateTime"` // last seen
}

func (r *Record) save(e stpintf.Env) error {
	if r.Id == nil {
		r.Id = xuid.Must(xuid.NewRandom("wlr"))
	}
	return e.Save(r)
}

// ByStake loads the record for a staking address. Misses map to
// fs.ErrNotExist like the rest of the store layer.
func ByStake(e stpintf.Env, stake string) (*Record, error) {
	var r *Record
	err := e.FirstWhere(&r, map[string]any{"Stake": stake})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fs.ErrNotExist
		}
		return nil, err
	}
	return r, nil
}

// Touch returns the record for a staking address, creating it on first
// sight. The Updated timestamp refreshes on save.
func Touch(e stpintf.Env, stake string) (*Record, error) {
	r, err := ByStake(e, stake)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	r = &Record{Stake: stake}
	if err := r.save(e); err != nil {
		return nil, err
	}
	return r, nil
}

// Revealed reports whether a variant key is in the reveal list,
// case-insensitively.
func (r *Record) Revealed(variantKey string) bool {
	for _, k := range r.Reveals {
		if strings.EqualFold(k, variantKey) {
			return true
		}
	}
	return false
}

// addRevealKey appends a variant key with set semantics, reporting
// whether the list changed.
func (r *Record) addRevealKey(variantKey string) bool {
	if r.Revealed(variantKey) {
		return false
	}
	r.Reveals = append(r.Reveals, variantKey)
	return true
}

// AddReveal persists a reveal for the wallet and emits a wallet:reveal
// event. Idempotent per variant key.
func (r *Record) AddReveal(e stpintf.Env, variantKey string) error {
	if !r.addRevealKey(variantKey) {
		return nil
	}
	if err := r.save(e); err != nil {
		return err
	}
	e.Emitter().Emit(context.Background(), "wallet:reveal", r.Stake, variantKey)
	return nil
}

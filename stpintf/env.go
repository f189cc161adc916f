package stpintf

import (
	"context"
	"errors"
	"time"

	"github.com/Constitosh/stamps/stpaddr"
	"github.com/Constitosh/stamps/stpcatalog"
	"github.com/Constitosh/stamps/stpholdings"
	"github.com/Constitosh/stamps/stpledger"
	"github.com/Constitosh/stamps/stpproof"
	"github.com/KarpelesLab/apirouter"
	"github.com/KarpelesLab/emitter"
)

// Env is the process environment handed to every component: persistence
// helpers plus the service singletons constructed once at startup.
type Env interface {
	Save(obj any) error
	Delete(obj any) error
	First(res any) error
	FirstId(res, id any) error
	FirstWhere(res any, where map[string]any) error
	Find(res any, where map[string]any) error
	Count(obj any) int64
	AutoMigrate(obj any)
	ListHelper(ctx context.Context, target any, sort string, searchKey ...string) error

	// kv store
	DBSimpleGet(bucket, key []byte) (r []byte, err error)
	DBSimpleDel(bucket []byte, keys ...[]byte) error
	DBSimpleSet(bucket, key, val []byte) error

	Emitter() *emitter.Hub
	CacheGet(ctx context.Context, u string, timeout, refresh time.Duration) ([]byte, error)

	// service components
	Network() stpaddr.Network
	Ledger() stpledger.Ledger
	Catalog() *stpcatalog.Catalog
	Holdings() *stpholdings.Aggregator
	Proofs() *stpproof.Store
}

func GetEnv(ctx context.Context) Env {
	var c *apirouter.Context
	ctx.Value(&c)
	if c == nil {
		return nil
	}
	v, ok := c.GetObject("@env").(Env)
	if ok {
		return v
	}
	return nil
}

func ByPrimaryKey[T any](e Env, id any) (*T, error) {
	var res *T
	err := e.FirstId(&res, id)
	return res, err
}

func ListHelper[T any](ctx context.Context, sort string, searchKey ...string) (any, error) {
	var res []*T
	e := GetEnv(ctx)
	if e == nil {
		return nil, errors.New("failed to get env")
	}
	err := e.ListHelper(ctx, &res, sort, searchKey...)
	return res, err
}

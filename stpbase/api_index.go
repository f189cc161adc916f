package stpbase

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/KarpelesLab/apirouter"
	"github.com/KarpelesLab/pobj"
)

func init() {
	pobj.RegisterStatic("Index:reload", apiIndexReload)
}

// reloadIndex re-reads the configured local index source and swaps in the
// fresh snapshot. The source may be a local file or an HTTP URL; URLs go
// through the bolt-backed HTTP cache so a flapping origin falls back to
// the last good copy.
func (e *env) reloadIndex() error {
	src := e.cfg.IndexSource
	if src == "" {
		return errors.New("no index source configured")
	}

	var buf []byte
	var err error
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		buf, err = e.CacheGet(e, src, 30*time.Second, 0)
	} else {
		buf, err = os.ReadFile(src)
	}
	if err != nil {
		return err
	}

	if err := e.catalog.SetIndexBytes(buf); err != nil {
		return err
	}
	e.em.Emit(context.Background(), "index:reload", e.catalog.Index().Len())
	return nil
}

func apiIndexReload(ctx *apirouter.Context) (any, error) {
	e := getEnv(ctx)
	if e == nil {
		return nil, errors.New("failed to get env")
	}

	if err := e.reloadIndex(); err != nil {
		return nil, err
	}
	return map[string]any{"entries": e.catalog.Index().Len()}, nil
}

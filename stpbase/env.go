package stpbase

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"log"
	"os"
	"path/filepath"

	"github.com/Constitosh/stamps/stpaddr"
	"github.com/Constitosh/stamps/stpcache"
	"github.com/Constitosh/stamps/stpcatalog"
	"github.com/Constitosh/stamps/stpholdings"
	"github.com/Constitosh/stamps/stpledger"
	"github.com/Constitosh/stamps/stpproof"
	"github.com/Constitosh/stamps/stpwallet"
	"github.com/KarpelesLab/apirouter"
	"github.com/KarpelesLab/emitter"
	_ "github.com/glebarez/go-sqlite"
	bolt "go.etcd.io/bbolt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

type env struct {
	context.Context
	dataDir  string
	cfg      *Config
	db       *bolt.DB
	sql      *gorm.DB
	em       *emitter.Hub
	network  stpaddr.Network
	ledger   stpledger.Ledger
	caches   *stpcache.Caches
	catalog  *stpcatalog.Catalog
	holdings *stpholdings.Aggregator
	proofs   *stpproof.Store
}

func InitEnv(dataDir string) (any, error) {
	e := &env{Context: context.Background(), dataDir: dataDir, em: emitter.New()}
	if err := e.init(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *env) init() error {
	var err error

	// make sure dataDir exists and is a directory
	if st, err := os.Stat(e.dataDir); err != nil {
		err = os.MkdirAll(e.dataDir, 0755)
		if err != nil {
			return err
		}
	} else if !st.IsDir() {
		return errors.New("dataDir exists but is not a directory")
	}

	e.cfg, err = loadConfig(e.dataDir)
	if err != nil {
		return err
	}
	e.network = stpaddr.ParseNetwork(e.cfg.Network)

	// open bolt db
	e.db, err = bolt.Open(filepath.Join(e.dataDir, "data.db"), 0600, nil)
	if err != nil {
		return err
	}

	currentVersion := []byte{0, 0, 0, 1}
	if v, err := e.DBSimpleGet([]byte("info"), []byte("version")); err == nil && bytes.Equal(v, currentVersion) {
		// all good
	} else {
		e.DBSimpleSet([]byte("info"), []byte("version"), currentVersion)
	}

	// open sql database
	e.sql, err = gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: filepath.Join(e.dataDir, "sql.db") + "?_pragma=journal_mode(WAL)"}), &gorm.Config{NamingStrategy: schema.NamingStrategy{SingularTable: true, NoLowerCase: true}})
	if err != nil {
		return err
	}
	e.AutoMigrate(&stpwallet.Record{})

	// variant catalog
	e.catalog, err = stpcatalog.Load(e.cfg.catalogPath(e.dataDir))
	if err != nil {
		return err
	}
	if e.cfg.IndexSource != "" {
		if err := e.reloadIndex(); err != nil {
			// index is an optimization, keep serving without it
			log.Printf("local index unavailable at startup: %s", err)
		}
	}

	e.ledger = stpledger.NewClient(e.cfg.LedgerURL, e.cfg.LedgerProjectId)
	e.caches = stpcache.New(stpcache.Options{
		AccountTTL: e.cfg.accountTTL(),
		InfoTTL:    e.cfg.infoTTL(),
	})
	e.holdings = stpholdings.New(e.ledger, e.caches, e.catalog, e.cfg.PolicyId)
	e.proofs = stpproof.NewStore(e.proofSecret())

	return nil
}

// proofSecret returns the configured credential secret, generating and
// persisting one on first run so credentials survive restarts.
func (e *env) proofSecret() []byte {
	if e.cfg.ProofSecret != "" {
		return []byte(e.cfg.ProofSecret)
	}
	if v, err := e.DBSimpleGet([]byte("info"), []byte("proof_secret")); err == nil {
		return v
	}
	secret := make([]byte, 32)
	rand.Read(secret)
	e.DBSimpleSet([]byte("info"), []byte("proof_secret"), secret)
	return secret
}

func (e *env) Emitter() *emitter.Hub {
	return e.em
}

func (e *env) Network() stpaddr.Network {
	return e.network
}

func (e *env) Ledger() stpledger.Ledger {
	return e.ledger
}

func (e *env) Catalog() *stpcatalog.Catalog {
	return e.catalog
}

func (e *env) Holdings() *stpholdings.Aggregator {
	return e.holdings
}

func (e *env) Proofs() *stpproof.Store {
	return e.proofs
}

func (e *env) ListHelper(ctx context.Context, target any, sort string, searchKey ...string) error {
	var c *apirouter.Context
	if ctx != nil {
		ctx.Value(&c)
	}

	tx := e.sql
	if c != nil {
		tx = tx.Scopes(c.Paginate(50))
	}
	if sort != "" {
		tx = tx.Order(sort)
	}

	if len(searchKey) > 0 && c != nil {
		where := make(map[string]any)
		for _, k := range searchKey {
			if v := c.GetParam(k); v != nil {
				where[k] = v
			}
		}
		if len(where) > 0 {
			tx = tx.Where(where)
		}
	}

	tx = tx.Find(target)
	return tx.Error
}

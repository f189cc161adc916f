package stpbase

import (
	"os"
	"path/filepath"
	"time"

	"github.com/KarpelesLab/pjson"
)

// Config is the process configuration read from config.json in the data
// directory. Only LedgerURL and the catalog are required in practice.
type Config struct {
	Network         string `json:"network,omitempty"`   // mainnet | testnet
	PolicyId        string `json:"policy_id,omitempty"` // collection scope filter
	LedgerURL       string `json:"ledger_url"`          // blockfrost-compatible base URL
	LedgerProjectId string `json:"ledger_project_id,omitempty"`
	ProofSecret     string `json:"proof_secret,omitempty"`      // HMAC secret for credentials
	CatalogPath     string `json:"catalog_path,omitempty"`      // defaults to catalog.json in dataDir
	IndexSource     string `json:"index_source,omitempty"`      // local path or http(s) URL, optional
	RequireHoldings *bool  `json:"require_holdings,omitempty"`  // reveal gating, default true
	AccountCacheTTL int    `json:"account_cache_ttl,omitempty"` // seconds
	InfoCacheTTL    int    `json:"info_cache_ttl,omitempty"`    // seconds
}

func loadConfig(dataDir string) (*Config, error) {
	cfg := &Config{}
	buf, err := os.ReadFile(filepath.Join(dataDir, "config.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := pjson.Unmarshal(buf, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) catalogPath(dataDir string) string {
	if c.CatalogPath != "" {
		return c.CatalogPath
	}
	return filepath.Join(dataDir, "catalog.json")
}

func (c *Config) requireHoldings() bool {
	if c.RequireHoldings == nil {
		return true
	}
	return *c.RequireHoldings
}

func (c *Config) accountTTL() time.Duration {
	return time.Duration(c.AccountCacheTTL) * time.Second
}

func (c *Config) infoTTL() time.Duration {
	return time.Duration(c.InfoCacheTTL) * time.Second
}

package stpledger

import "context"

// AssetRow is one entry of a wallet's on-chain asset listing.
type AssetRow struct {
	Unit     string `json:"unit"`
	Quantity string `json:"quantity"`
}

// AssetInfo is the per-asset metadata returned by the provider. The unit
// is the policy id concatenated with the hex asset name. OnchainMetadata
// is an open bag whose shape varies per collection.
type AssetInfo struct {
	Unit            string         `json:"asset"`
	PolicyId        string         `json:"policy_id"`
	AssetName       string         `json:"asset_name"` // hex encoded
	Fingerprint     string         `json:"fingerprint,omitempty"`
	Quantity        string         `json:"quantity,omitempty"`
	OnchainMetadata map[string]any `json:"onchain_metadata"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// Ledger is the blockchain data provider used by the service. All calls
// are expected to be bounded by the caller's context; failures surface as
// retryable errors and are never retried here.
type Ledger interface {
	// ListAccountAssets returns one page of asset holdings for a staking
	// address. Pages are 1-based.
	ListAccountAssets(ctx context.Context, stake string, page, count int) ([]AssetRow, error)
	// GetAssetInfo returns the metadata for one asset unit.
	GetAssetInfo(ctx context.Context, unit string) (*AssetInfo, error)
	// ResolveStakeAddress returns the staking address associated with a
	// payment address, or "" if the address has no stake part.
	ResolveStakeAddress(ctx context.Context, paymentAddr string) (string, error)
}

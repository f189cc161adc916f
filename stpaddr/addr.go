package stpaddr

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ModChain/base58"
	"github.com/btcsuite/btcd/btcutil/bech32"
)

// Address header type tags, stored in the high nibble of the first address
// byte. Tags 0-7 are payment address families, 14 and 15 are reward
// (staking) addresses.
const (
	rewardKeyType    = 14
	rewardScriptType = 15
)

// keyHashLen is the size of a blake2b-224 stake key hash.
const keyHashLen = 28

// StakeResolver resolves a payment address to its associated staking
// address. Satisfied by stpledger.Ledger. An empty result with a nil error
// means the address has no registered stake part.
type StakeResolver interface {
	ResolveStakeAddress(ctx context.Context, paymentAddr string) (string, error)
}

// Normalize converts any supported wallet identifier into its canonical
// bech32 staking address form. Accepted inputs are a staking address
// (returned as-is), a payment address (shelley bech32 or byron base58,
// resolved through the provider), a 28-byte hex stake key hash, or hex
// encoded full address bytes. Unrecognized input yields ("", nil); the
// only error path is a failed provider resolution.
func Normalize(ctx context.Context, n Network, input string, r StakeResolver) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", nil
	}

	switch {
	case hasBech32Prefix(input, n.StakePrefix()):
		// already canonical, just check it decodes
		if _, _, err := decodeAddress(input); err != nil {
			return "", nil
		}
		return strings.ToLower(input), nil
	case hasBech32Prefix(input, n.PaymentPrefix()):
		if _, _, err := decodeAddress(input); err != nil {
			return "", nil
		}
		return resolve(ctx, input, r)
	case isByronAddress(input):
		// legacy base58 address, only the provider can resolve these
		return resolve(ctx, input, r)
	}

	buf, err := hex.DecodeString(strings.ToLower(input))
	if err != nil {
		return "", nil
	}

	switch {
	case len(buf) == keyHashLen:
		// raw stake key hash
		addr, err := EncodeReward(n, buf)
		if err != nil {
			return "", nil
		}
		return addr, nil
	case len(buf) >= keyHashLen+1:
		return normalizeRawAddress(ctx, buf, r)
	}
	return "", nil
}

// normalizeRawAddress handles hex input carrying full address bytes,
// header included. Reward addresses encode directly; payment addresses go
// through the provider resolver.
func normalizeRawAddress(ctx context.Context, buf []byte, r StakeResolver) (string, error) {
	typ := buf[0] >> 4
	netw := Network(buf[0] & 0x0f)
	if netw != Mainnet && netw != Testnet {
		return "", nil
	}

	switch {
	case typ == rewardKeyType || typ == rewardScriptType:
		addr, err := encodeBech32(netw.StakePrefix(), buf)
		if err != nil {
			return "", nil
		}
		return addr, nil
	case typ <= 7:
		addr, err := encodeBech32(netw.PaymentPrefix(), buf)
		if err != nil {
			return "", nil
		}
		return resolve(ctx, addr, r)
	}
	return "", nil
}

func resolve(ctx context.Context, payment string, r StakeResolver) (string, error) {
	if r == nil {
		return "", nil
	}
	stake, err := r.ResolveStakeAddress(ctx, payment)
	if err != nil {
		return "", fmt.Errorf("failed to resolve stake address for %s: %w", payment, err)
	}
	return stake, nil
}

// EncodeReward builds the canonical staking address for a raw 28-byte
// stake key hash. Pure derivation, no provider involved.
func EncodeReward(n Network, keyHash []byte) (string, error) {
	if len(keyHash) != keyHashLen {
		return "", fmt.Errorf("stake key hash must be %d bytes, got %d", keyHashLen, len(keyHash))
	}
	buf := make([]byte, 0, keyHashLen+1)
	buf = append(buf, byte(rewardKeyType<<4)|byte(n))
	buf = append(buf, keyHash...)
	return encodeBech32(n.StakePrefix(), buf)
}

// KeyHash extracts the 28-byte stake key hash from a canonical staking
// address.
func KeyHash(stake string) ([]byte, error) {
	_, buf, err := decodeAddress(stake)
	if err != nil {
		return nil, err
	}
	if len(buf) != keyHashLen+1 {
		return nil, fmt.Errorf("unexpected stake address payload length %d", len(buf))
	}
	if typ := buf[0] >> 4; typ != rewardKeyType && typ != rewardScriptType {
		return nil, errors.New("not a reward address")
	}
	return buf[1:], nil
}

func encodeBech32(hrp string, data []byte) (string, error) {
	conv, err := bech32.ConvertBits(data, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(hrp, conv)
}

// decodeAddress decodes a bech32 address into its hrp and raw bytes.
// Cardano addresses exceed the BIP-173 length cap, hence DecodeNoLimit.
func decodeAddress(addr string) (string, []byte, error) {
	hrp, data, err := bech32.DecodeNoLimit(strings.ToLower(addr))
	if err != nil {
		return "", nil, err
	}
	buf, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", nil, err
	}
	return hrp, buf, nil
}

func hasBech32Prefix(s, hrp string) bool {
	return strings.HasPrefix(strings.ToLower(s), hrp+"1")
}

// isByronAddress detects legacy byron-era payment addresses, which are
// base58 rather than bech32.
func isByronAddress(s string) bool {
	if !strings.HasPrefix(s, "Ddz") && !strings.HasPrefix(s, "Ae2") {
		return false
	}
	_, err := base58.Bitcoin.Decode(s)
	return err == nil
}

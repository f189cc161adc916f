package stpproof

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// CIP-30 signData returns a COSE_Sign1 signature and a COSE_Key; wallets
// doing raw Ed25519 hand over 32/64-byte hex instead. Both forms are
// accepted here.

type coseSign1 struct {
	_           struct{} `cbor:",toarray"`
	Protected   []byte
	Unprotected map[any]any
	Payload     []byte
	Signature   []byte
}

type sigStructure struct {
	_         struct{} `cbor:",toarray"`
	Context   string
	Protected []byte
	External  []byte
	Payload   []byte
}

// parsePublicKey decodes a hex public key, either 32 raw Ed25519 bytes or
// a CBOR COSE_Key whose -2 entry carries them.
func parsePublicKey(keyHex string) (ed25519.PublicKey, error) {
	buf, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("public key is not hex: %w", err)
	}
	if len(buf) == ed25519.PublicKeySize {
		return ed25519.PublicKey(buf), nil
	}

	var m map[int64]any
	if err := cbor.Unmarshal(buf, &m); err != nil {
		return nil, fmt.Errorf("public key is neither raw nor COSE_Key: %w", err)
	}
	x, ok := m[-2].([]byte)
	if !ok || len(x) != ed25519.PublicKeySize {
		return nil, errors.New("COSE_Key has no usable x coordinate")
	}
	return ed25519.PublicKey(x), nil
}

// signedMessage decodes the signature blob and returns the raw signature
// plus the exact message ed25519 must verify. For a raw 64-byte signature
// that message is the issued payload itself; for a COSE_Sign1 it is the
// CBOR Sig_structure, and the embedded payload must equal the issued one.
func signedMessage(sigHex string, expectedPayload []byte) (sig, msg []byte, err error) {
	buf, err := hex.DecodeString(sigHex)
	if err != nil {
		return nil, nil, fmt.Errorf("signature is not hex: %w", err)
	}
	if len(buf) == ed25519.SignatureSize {
		return buf, expectedPayload, nil
	}

	cs, err := decodeSign1(buf)
	if err != nil {
		return nil, nil, err
	}
	if !bytes.Equal(cs.Payload, expectedPayload) {
		return nil, nil, errors.New("COSE_Sign1 payload does not match issued challenge")
	}
	msg, err = cbor.Marshal(&sigStructure{
		Context:   "Signature1",
		Protected: cs.Protected,
		External:  []byte{},
		Payload:   cs.Payload,
	})
	if err != nil {
		return nil, nil, err
	}
	return cs.Signature, msg, nil
}

func decodeSign1(buf []byte) (*coseSign1, error) {
	var cs coseSign1
	if err := cbor.Unmarshal(buf, &cs); err == nil {
		return &cs, nil
	}
	// some wallets emit the tagged form (tag 18)
	var tag cbor.RawTag
	if err := cbor.Unmarshal(buf, &tag); err != nil {
		return nil, errors.New("signature is neither raw nor COSE_Sign1")
	}
	if tag.Number != 18 {
		return nil, fmt.Errorf("unexpected CBOR tag %d", tag.Number)
	}
	if err := cbor.Unmarshal(tag.Content, &cs); err != nil {
		return nil, err
	}
	return &cs, nil
}

package stpproof

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/Constitosh/stamps/stpaddr"
	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"
)

// testWallet generates an Ed25519 staking key and the matching mainnet
// staking address.
func testWallet(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey, string) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	h, _ := blake2b.New(28, nil)
	h.Write(pub)
	stake, err := stpaddr.EncodeReward(stpaddr.Mainnet, h.Sum(nil))
	if err != nil {
		t.Fatalf("EncodeReward: %v", err)
	}
	return pub, priv, stake
}

func TestIssueVerifyRaw(t *testing.T) {
	pub, priv, stake := testWallet(t)
	s := NewStore([]byte("test secret"))

	ch, err := s.Issue(stake)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	payload, err := hex.DecodeString(ch.PayloadHex)
	if err != nil {
		t.Fatalf("bad payload hex: %v", err)
	}
	if string(payload) != ch.Payload {
		t.Fatal("payload and payload_hex disagree")
	}

	sig := ed25519.Sign(priv, payload)
	token, err := s.Verify(stake, hex.EncodeToString(pub), hex.EncodeToString(sig), payload)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	got, err := s.ParseCredential(token)
	if err != nil {
		t.Fatalf("ParseCredential: %v", err)
	}
	if got != stake {
		t.Fatalf("credential subject = %q, want %q", got, stake)
	}
}

func TestVerifyTamperedSignature(t *testing.T) {
	pub, priv, stake := testWallet(t)
	s := NewStore([]byte("test secret"))

	ch, _ := s.Issue(stake)
	payload := []byte(ch.Payload)
	sig := ed25519.Sign(priv, payload)

	bad := append([]byte(nil), sig...)
	bad[0] ^= 0xff
	if _, err := s.Verify(stake, hex.EncodeToString(pub), hex.EncodeToString(bad), payload); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}

	// the challenge survives a failed attempt and can be retried
	if _, err := s.Verify(stake, hex.EncodeToString(pub), hex.EncodeToString(sig), payload); err != nil {
		t.Fatalf("retry after bad signature failed: %v", err)
	}
}

func TestVerifySingleUse(t *testing.T) {
	pub, priv, stake := testWallet(t)
	s := NewStore([]byte("test secret"))

	ch, _ := s.Issue(stake)
	payload := []byte(ch.Payload)
	sig := ed25519.Sign(priv, payload)

	if _, err := s.Verify(stake, hex.EncodeToString(pub), hex.EncodeToString(sig), payload); err != nil {
		t.Fatalf("first Verify failed: %v", err)
	}
	if _, err := s.Verify(stake, hex.EncodeToString(pub), hex.EncodeToString(sig), payload); !errors.Is(err, ErrNoChallenge) {
		t.Fatalf("expected ErrNoChallenge on reuse, got %v", err)
	}
}

func TestVerifyNoChallenge(t *testing.T) {
	pub, priv, stake := testWallet(t)
	s := NewStore([]byte("test secret"))

	payload := []byte("whatever")
	sig := ed25519.Sign(priv, payload)
	if _, err := s.Verify(stake, hex.EncodeToString(pub), hex.EncodeToString(sig), payload); !errors.Is(err, ErrNoChallenge) {
		t.Fatalf("expected ErrNoChallenge, got %v", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	pub, priv, stake := testWallet(t)
	s := NewStore([]byte("test secret"))
	s.ttl = time.Nanosecond

	ch, _ := s.Issue(stake)
	payload := []byte(ch.Payload)
	sig := ed25519.Sign(priv, payload)
	time.Sleep(time.Millisecond)

	if _, err := s.Verify(stake, hex.EncodeToString(pub), hex.EncodeToString(sig), payload); !errors.Is(err, ErrChallengeExpired) {
		t.Fatalf("expected ErrChallengeExpired, got %v", err)
	}
	// the expired entry is gone, further attempts see no challenge
	if _, err := s.Verify(stake, hex.EncodeToString(pub), hex.EncodeToString(sig), payload); !errors.Is(err, ErrNoChallenge) {
		t.Fatalf("expected ErrNoChallenge after expiry, got %v", err)
	}
}

func TestVerifyWrongKeyForAddress(t *testing.T) {
	_, priv, stake := testWallet(t)
	otherPub, _, _ := ed25519.GenerateKey(rand.Reader)
	s := NewStore([]byte("test secret"))

	ch, _ := s.Issue(stake)
	payload := []byte(ch.Payload)
	sig := ed25519.Sign(priv, payload)

	// valid signature shape, but the key does not hash to the address
	if _, err := s.Verify(stake, hex.EncodeToString(otherPub), hex.EncodeToString(sig), payload); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature for foreign key, got %v", err)
	}
}

func TestVerifyTamperedPayload(t *testing.T) {
	pub, priv, stake := testWallet(t)
	s := NewStore([]byte("test secret"))

	s.Issue(stake)
	forged := []byte("stamps.login v1\nstake: " + stake + "\nnonce: 00")
	sig := ed25519.Sign(priv, forged)
	if _, err := s.Verify(stake, hex.EncodeToString(pub), hex.EncodeToString(sig), forged); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature for forged payload, got %v", err)
	}
}

func TestConsumeSkipsReissuedChallenge(t *testing.T) {
	pub, priv, stake := testWallet(t)
	s := NewStore([]byte("test secret"))

	s.Issue(stake)
	s.mu.Lock()
	old := s.live[stake]
	s.mu.Unlock()

	// a re-issue lands between validation and consumption of the old
	// challenge; consuming the old one must not void the new one
	second, _ := s.Issue(stake)
	s.consume(stake, old)

	payload := []byte(second.Payload)
	sig := ed25519.Sign(priv, payload)
	if _, err := s.Verify(stake, hex.EncodeToString(pub), hex.EncodeToString(sig), payload); err != nil {
		t.Fatalf("re-issued challenge was consumed by a stale verify: %v", err)
	}
}

func TestVerifyCOSE(t *testing.T) {
	pub, priv, stake := testWallet(t)
	s := NewStore([]byte("test secret"))

	ch, _ := s.Issue(stake)
	payload := []byte(ch.Payload)

	// build a CIP-8 style COSE_Sign1 over the issued payload
	protected, err := cbor.Marshal(map[int64]any{1: -8})
	if err != nil {
		t.Fatalf("marshal protected: %v", err)
	}
	msg, err := cbor.Marshal(&sigStructure{
		Context:   "Signature1",
		Protected: protected,
		External:  []byte{},
		Payload:   payload,
	})
	if err != nil {
		t.Fatalf("marshal Sig_structure: %v", err)
	}
	sign1, err := cbor.Marshal(&coseSign1{
		Protected:   protected,
		Unprotected: map[any]any{},
		Payload:     payload,
		Signature:   ed25519.Sign(priv, msg),
	})
	if err != nil {
		t.Fatalf("marshal COSE_Sign1: %v", err)
	}

	coseKey, err := cbor.Marshal(map[int64]any{1: 1, 3: -8, -1: 6, -2: []byte(pub)})
	if err != nil {
		t.Fatalf("marshal COSE_Key: %v", err)
	}

	token, err := s.Verify(stake, hex.EncodeToString(coseKey), hex.EncodeToString(sign1), payload)
	if err != nil {
		t.Fatalf("COSE Verify failed: %v", err)
	}
	if got, _ := s.ParseCredential(token); got != stake {
		t.Fatalf("credential subject = %q", got)
	}
}

func TestIssueReplacesPriorChallenge(t *testing.T) {
	pub, priv, stake := testWallet(t)
	s := NewStore([]byte("test secret"))

	first, _ := s.Issue(stake)
	second, _ := s.Issue(stake)
	if first.Payload == second.Payload {
		t.Fatal("expected fresh nonce on re-issue")
	}

	// the first challenge is dead
	payload := []byte(first.Payload)
	sig := ed25519.Sign(priv, payload)
	if _, err := s.Verify(stake, hex.EncodeToString(pub), hex.EncodeToString(sig), payload); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature for superseded challenge, got %v", err)
	}

	// the second one works
	payload = []byte(second.Payload)
	sig = ed25519.Sign(priv, payload)
	if _, err := s.Verify(stake, hex.EncodeToString(pub), hex.EncodeToString(sig), payload); err != nil {
		t.Fatalf("verify of live challenge failed: %v", err)
	}
}

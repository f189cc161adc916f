package stpproof

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/Constitosh/stamps/stpaddr"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

const (
	nonceLen     = 32
	challengeTTL = 5 * time.Minute
	credTTL      = 15 * time.Minute
)

// Challenge is an issued ownership challenge. The wallet must sign the
// byte-exact payload with its staking key.
type Challenge struct {
	Stake      string `json:"stake"`
	Payload    string `json:"payload"`
	PayloadHex string `json:"payload_hex"`
}

type pending struct {
	nonce  []byte
	issued time.Time
}

// Store keeps the live challenges, one per staking address, and turns
// verified signatures into short-lived credentials. In-memory only; a
// restart voids live challenges, which is fine given their 5 minute life.
type Store struct {
	mu     sync.Mutex
	live   map[string]*pending
	secret []byte
	ttl    time.Duration
}

func NewStore(secret []byte) *Store {
	return &Store{
		live:   make(map[string]*pending),
		secret: secret,
		ttl:    challengeTTL,
	}
}

// buildPayload is the fixed human-readable signing target binding the
// canonical stake address to the nonce.
func buildPayload(stake string, nonce []byte) string {
	return fmt.Sprintf("stamps.login v1\nstake: %s\nnonce: %s", stake, hex.EncodeToString(nonce))
}

// Issue generates a fresh challenge for a canonical staking address,
// silently replacing any prior unconsumed one for the same address.
func (s *Store) Issue(stake string) (*Challenge, error) {
	nonce := make([]byte, nonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	s.mu.Lock()
	s.live[stake] = &pending{nonce: nonce, issued: time.Now()}
	s.mu.Unlock()

	payload := buildPayload(stake, nonce)
	return &Challenge{
		Stake:      stake,
		Payload:    payload,
		PayloadHex: hex.EncodeToString([]byte(payload)),
	}, nil
}

// Verify checks a wallet signature over the issued payload and, on
// success, consumes the nonce and returns a signed credential asserting
// control of the stake address. The key and signature are hex strings
// carrying either raw Ed25519 material or CIP-8 COSE structures. A failed
// signature leaves the challenge in place so the wallet can retry within
// the expiry window.
func (s *Store) Verify(stake, keyHex, sigHex string, payload []byte) (string, error) {
	s.mu.Lock()
	p, ok := s.live[stake]
	if ok && time.Since(p.issued) > s.ttl {
		delete(s.live, stake)
		s.mu.Unlock()
		return "", ErrChallengeExpired
	}
	s.mu.Unlock()
	if !ok {
		return "", ErrNoChallenge
	}

	expected := []byte(buildPayload(stake, p.nonce))
	if !bytes.Equal(payload, expected) {
		return "", ErrBadSignature
	}

	pub, err := parsePublicKey(keyHex)
	if err != nil {
		return "", ErrBadSignature
	}
	sig, msg, err := signedMessage(sigHex, expected)
	if err != nil {
		return "", ErrBadSignature
	}
	if !ed25519.Verify(pub, msg, sig) {
		return "", ErrBadSignature
	}
	if !keyMatchesStake(pub, stake) {
		return "", ErrBadSignature
	}

	s.consume(stake, p)

	return s.credential(stake)
}

// consume removes a validated challenge. Only the entry that was
// actually validated is removed, a concurrent re-issue may have replaced
// it and the newer challenge must stay live.
func (s *Store) consume(stake string, p *pending) {
	s.mu.Lock()
	if s.live[stake] == p {
		delete(s.live, stake)
	}
	s.mu.Unlock()
}

// keyMatchesStake requires blake2b-224 of the public key to equal the
// key hash inside the challenged address, binding key to wallet.
func keyMatchesStake(pub ed25519.PublicKey, stake string) bool {
	want, err := stpaddr.KeyHash(stake)
	if err != nil {
		return false
	}
	h, err := blake2b.New(28, nil)
	if err != nil {
		return false
	}
	h.Write(pub)
	return bytes.Equal(h.Sum(nil), want)
}

// credential issues the HS256 token returned to a verified caller.
func (s *Store) credential(stake string) (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": stake,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(credTTL).Unix(),
	})
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign credential: %w", err)
	}
	return signed, nil
}

// ParseCredential validates a credential and returns the stake address it
// asserts control of.
func (s *Store) ParseCredential(token string) (string, error) {
	tok, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", err
	}
	sub, err := tok.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("credential has no subject")
	}
	return sub, nil
}

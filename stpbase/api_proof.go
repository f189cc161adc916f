package stpbase

import (
	"context"
	"encoding/hex"
	"errors"

	"github.com/Constitosh/stamps/stpproof"
	"github.com/KarpelesLab/apirouter"
	"github.com/KarpelesLab/pobj"
)

func init() {
	pobj.RegisterStatic("Proof:challenge", apiProofChallenge)
	pobj.RegisterStatic("Proof:verify", apiProofVerify)
}

func apiProofChallenge(ctx *apirouter.Context, in struct {
	Id string
}) (any, error) {
	e := getEnv(ctx)
	if e == nil {
		return nil, errors.New("failed to get env")
	}

	stake, err := normalizeIdentifier(ctx, e, in.Id)
	if err != nil {
		return nil, err
	}
	return e.proofs.Issue(stake)
}

func apiProofVerify(ctx *apirouter.Context, in struct {
	Id        string
	Key       string
	Signature string
	Payload   string // hex of the issued payload bytes
}) (any, error) {
	e := getEnv(ctx)
	if e == nil {
		return nil, errors.New("failed to get env")
	}

	stake, err := normalizeIdentifier(ctx, e, in.Id)
	if err != nil {
		return nil, err
	}
	payload, err := hex.DecodeString(in.Payload)
	if err != nil {
		return nil, stpproof.ErrBadSignature
	}

	token, err := e.proofs.Verify(stake, in.Key, in.Signature, payload)
	if err != nil {
		return nil, err
	}

	e.em.Emit(context.Background(), "proof:verified", stake)

	return map[string]any{
		"stake": stake,
		"token": token,
	}, nil
}

package stpproof

import (
	"net/http"

	"github.com/KarpelesLab/apirouter"
)

var (
	ErrNoChallenge      = &apirouter.Error{Message: "no live challenge for this address", Token: "error_no_challenge", Code: http.StatusPreconditionFailed}
	ErrChallengeExpired = &apirouter.Error{Message: "challenge expired, request a new one", Token: "error_challenge_expired", Code: http.StatusGone}
	ErrBadSignature     = &apirouter.Error{Message: "signature verification failed", Token: "error_bad_signature", Code: http.StatusForbidden}
)

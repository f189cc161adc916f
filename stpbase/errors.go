package stpbase

import (
	"net/http"

	"github.com/KarpelesLab/apirouter"
)

var (
	ErrBadAddress          = &apirouter.Error{Message: "unrecognized wallet identifier", Token: "error_bad_address", Code: http.StatusBadRequest}
	ErrUnknownVariant      = &apirouter.Error{Message: "unknown variant", Token: "error_unknown_variant", Code: http.StatusNotFound}
	ErrUpstreamUnavailable = &apirouter.Error{Message: "ledger provider unavailable, retry later", Token: "error_upstream_unavailable", Code: http.StatusBadGateway}
	ErrStoreUnavailable    = &apirouter.Error{Message: "wallet store unavailable, retry later", Token: "error_store_unavailable", Code: http.StatusServiceUnavailable}
)

package stpwallet

import (
	"errors"
	"net/http"

	"github.com/Constitosh/stamps/stpintf"
	"github.com/KarpelesLab/apirouter"
	"github.com/KarpelesLab/pobj"
	"github.com/KarpelesLab/xuid"
)

var ErrNotHolder = &apirouter.Error{Message: "wallet does not hold this variant", Token: "error_not_holder", Code: http.StatusForbidden}

func init() {
	pobj.RegisterActions[Record]("Wallet",
		&pobj.ObjectActions{
			Fetch: pobj.Static(apiFetchRecord),
			List:  pobj.Static(apiListRecord),
		},
	)
}

func apiFetchRecord(ctx *apirouter.Context, in struct{ Id string }) (any, error) {
	e := stpintf.GetEnv(ctx)
	if e == nil {
		return nil, errors.New("failed to get env")
	}

	id, err := xuid.ParsePrefix(in.Id, "wlr")
	if err != nil {
		return nil, err
	}

	return stpintf.ByPrimaryKey[Record](e, id)
}

func apiListRecord(ctx *apirouter.Context) (any, error) {
	return stpintf.ListHelper[Record](ctx, "", "Stake")
}

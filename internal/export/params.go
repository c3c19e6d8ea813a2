package export

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/checho651/bfx-report/internal/registry"
	"github.com/checho651/bfx-report/internal/service"
)

// ParseParams reads the row selection and the naming flags of an export
// request. Malformed params yield service.ErrInvalidParams.
func ParseParams(raw json.RawMessage) (service.QueryParams, NameParams, error) {
	qp, err := service.ParseQueryParams(raw)
	if err != nil {
		return service.QueryParams{}, NameParams{}, err
	}

	var np NameParams
	if qp.Start != nil {
		np.Start = *qp.Start
	}
	if qp.End != nil {
		np.End = *qp.End
	}
	if len(raw) > 0 {
		obj := gjson.ParseBytes(raw)
		np.IsBaseNameInName = obj.Get("isBaseNameInName").Bool()
		np.Flags = registry.LabelFlags{
			IsTradingPair: obj.Get("isTradingPair").Bool(),
			IsDeposits:    obj.Get("isDeposits").Bool(),
			IsWithdrawals: obj.Get("isWithdrawals").Bool(),
		}
		if names := obj.Get("fileNamesMap"); names.Exists() {
			np.FileNamesMap = names.Value()
		}
	}
	return qp, np, nil
}

// rowFilter returns the predicate applied to exported rows. Movements
// exports limited to deposits or withdrawals keep the rows whose amount has
// the matching sign.
func rowFilter(method string, flags registry.LabelFlags) func(registry.Row) bool {
	if method != "getMovements" || flags.IsDeposits == flags.IsWithdrawals {
		return nil
	}
	wantPositive := flags.IsDeposits
	return func(r registry.Row) bool {
		amount, ok := r["amount"].(float64)
		if !ok {
			if n, isInt := r["amount"].(int64); isInt {
				amount, ok = float64(n), true
			}
		}
		if !ok {
			return false
		}
		if wantPositive {
			return amount > 0
		}
		return amount < 0
	}
}

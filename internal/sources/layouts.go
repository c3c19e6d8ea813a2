package sources

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/checho651/bfx-report/internal/registry"
)

// column maps one position of a remote array row onto a model column
type column struct {
	index int
	name  string
}

// layout describes how the rows of one collection are laid out on the wire
type layout struct {
	columns []column
	// derive fills computed columns once the positional ones are set
	derive func(registry.Row)
}

func at(pairs ...any) []column {
	out := make([]column, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, column{index: pairs[i].(int), name: pairs[i+1].(string)})
	}
	return out
}

func amountExecuted(r registry.Row) {
	amount, ok1 := r["amount"].(float64)
	orig, ok2 := r["amountOrig"].(float64)
	if ok1 && ok2 {
		r["amountExecuted"] = orig - amount
	}
}

var fundingLoanLayout = at(
	0, "id", 1, "symbol", 2, "side", 3, "mtsCreate", 4, "mtsUpdate", 5, "amount",
	6, "flags", 7, "status", 11, "rate", 12, "period", 13, "mtsOpening",
	14, "mtsLastPayout", 15, "notify", 16, "hidden", 18, "renew", 19, "rateReal", 20, "noClose",
)

var layouts = map[string]layout{
	registry.Ledgers: {columns: at(
		0, "id", 1, "currency", 2, "wallet", 3, "mts", 5, "amount", 6, "balance", 8, "description",
	)},
	registry.Trades: {columns: at(
		0, "id", 1, "symbol", 2, "mtsCreate", 3, "orderID", 4, "execAmount", 5, "execPrice",
		6, "orderType", 7, "orderPrice", 8, "maker", 9, "fee", 10, "feeCurrency",
	)},
	registry.PublicTrades: {columns: at(
		0, "id", 1, "mts", 2, "amount", 3, "price",
	)},
	registry.Orders: {
		columns: at(
			0, "id", 1, "gid", 2, "cid", 3, "symbol", 4, "mtsCreate", 5, "mtsUpdate", 6, "amount",
			7, "amountOrig", 8, "type", 9, "typePrev", 12, "flags", 13, "status", 16, "price",
			17, "priceAvg", 18, "priceTrailing", 19, "priceAuxLimit", 23, "notify", 25, "placedId",
		),
		derive: func(r registry.Row) {
			r["_lastAmount"] = r["amount"]
			amountExecuted(r)
		},
	},
	registry.Movements: {columns: at(
		0, "id", 1, "currency", 2, "currencyName", 5, "mtsStarted", 6, "mtsUpdated", 9, "status",
		12, "amount", 13, "fees", 16, "destinationAddress", 20, "transactionId",
	)},
	registry.FundingOfferHistory: {
		columns: at(
			0, "id", 1, "symbol", 2, "mtsCreate", 3, "mtsUpdate", 4, "amount", 5, "amountOrig",
			6, "type", 9, "flags", 10, "status", 14, "rate", 15, "period", 16, "notify",
			17, "hidden", 19, "renew", 20, "rateReal",
		),
		derive: amountExecuted,
	},
	registry.FundingLoanHistory:   {columns: fundingLoanLayout},
	registry.FundingCreditHistory: {columns: append(append([]column{}, fundingLoanLayout...), column{21, "positionPair"})},
}

// decodeRows maps a JSON array of positional rows onto model m
func decodeRows(data []byte, collection string, m registry.Model) ([]registry.Row, error) {
	l, ok := layouts[collection]
	if !ok {
		return nil, fmt.Errorf("no wire layout for collection %s", collection)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON in %s response", collection)
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsArray() {
		return nil, fmt.Errorf("expected an array of %s rows, got %s", collection, doc.Type)
	}

	items := doc.Array()
	rows := make([]registry.Row, 0, len(items))
	for i, item := range items {
		if !item.IsArray() {
			return nil, fmt.Errorf("%s row %d is not an array", collection, i)
		}
		row := make(registry.Row, len(l.columns)+2)
		for _, c := range l.columns {
			col, ok := m.Column(c.name)
			if !ok {
				return nil, fmt.Errorf("layout column %s.%s is not in the model", collection, c.name)
			}
			row[c.name] = convert(item.Get(fmt.Sprint(c.index)), col.Type)
		}
		if l.derive != nil {
			l.derive(row)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// convert turns one JSON value into the Go value stored in a column of type t
func convert(v gjson.Result, t registry.ColumnType) any {
	switch {
	case !v.Exists() || v.Type == gjson.Null:
		return nil
	case v.IsArray() || v.IsObject():
		return v.Raw
	case t.IsInteger():
		return v.Int()
	case t.IsNumeric():
		return v.Float()
	}
	return v.String()
}

package registry

// Collection names.
const (
	Ledgers              = "ledgers"
	Trades               = "trades"
	PublicTrades         = "publicTrades"
	Orders               = "orders"
	Movements            = "movements"
	FundingOfferHistory  = "fundingOfferHistory"
	FundingLoanHistory   = "fundingLoanHistory"
	FundingCreditHistory = "fundingCreditHistory"
	Symbols              = "symbols"
	Currencies           = "currencies"
	PublicTradesConf     = "publicTradesConf"
)

var (
	privateHistory = Type{Visibility: Private, Mutability: AppendOnly, Shape: ObjectArray}
	publicHistory  = Type{Visibility: Public, Mutability: AppendOnly, Shape: ObjectArray}
)

func desc(field string) []Sort { return []Sort{{Field: field, Direction: Desc}} }

func builtinDescriptors() []Descriptor {
	return []Descriptor{
		{
			Method:    "getLedgers", Name: Ledgers, MaxLimit: 5000,
			DateField: "mts", SymbolField: "currency", Sort: desc("mts"),
			Type:      privateHistory, UniqueFields: []string{"id", "mts"}, Model: Ledgers,
		},
		{
			Method:    "getTrades", Name: Trades, MaxLimit: 1500,
			DateField: "mtsCreate", SymbolField: "symbol", Sort: desc("mtsCreate"),
			Type:      privateHistory, UniqueFields: []string{"id", "mtsCreate", "orderID", "fee"}, Model: Trades,
		},
		{
			Method:    "getPublicTrades", Name: PublicTrades, MaxLimit: 1000,
			DateField: "mts", SymbolField: "_symbol", Sort: desc("mts"),
			Start:     Start{PerSymbol: []SymbolStart{}},
			Type:      publicHistory, UniqueFields: []string{"id", "mts", "_symbol"}, Model: PublicTrades,
		},
		{
			Method:    "getOrders", Name: Orders, MaxLimit: 5000,
			DateField: "mtsUpdate", SymbolField: "symbol", Sort: desc("mtsUpdate"),
			Type:      privateHistory, UniqueFields: []string{"id", "mtsUpdate"}, Model: Orders,
		},
		{
			Method:    "getMovements", Name: Movements, MaxLimit: 25,
			DateField: "mtsUpdated", SymbolField: "currency", Sort: desc("mtsUpdated"),
			Type:      privateHistory, UniqueFields: []string{"id", "mtsUpdated"}, Model: Movements,
		},
		{
			Method:    "getFundingOfferHistory", Name: FundingOfferHistory, MaxLimit: 5000,
			DateField: "mtsUpdate", SymbolField: "symbol", Sort: desc("mtsUpdate"),
			Type:      privateHistory, UniqueFields: []string{"id", "mtsUpdate"}, Model: FundingOfferHistory,
		},
		{
			Method:    "getFundingLoanHistory", Name: FundingLoanHistory, MaxLimit: 5000,
			DateField: "mtsUpdate", SymbolField: "symbol", Sort: desc("mtsUpdate"),
			Type:      privateHistory, UniqueFields: []string{"id", "mtsUpdate"}, Model: FundingLoanHistory,
		},
		{
			Method:    "getFundingCreditHistory", Name: FundingCreditHistory, MaxLimit: 5000,
			DateField: "mtsUpdate", SymbolField: "symbol", Sort: desc("mtsUpdate"),
			Type:      privateHistory, UniqueFields: []string{"id", "mtsUpdate"}, Model: FundingCreditHistory,
		},
		{
			Method:     "getSymbols", Name: Symbols, MaxLimit: 5000,
			Sort:       []Sort{{Field: "pairs", Direction: Asc}},
			Type:       Type{Visibility: Public, Mutability: Replaceable, Shape: ScalarArray},
			Fields:     []string{"pairs"},
			HasNewData: true,
			Model:      Symbols,
		},
		{
			Method:     "getCurrencies", Name: Currencies, MaxLimit: 5000,
			Sort:       []Sort{{Field: "name", Direction: Asc}},
			Type:       Type{Visibility: Public, Mutability: Replaceable, Shape: ObjectArray},
			Fields:     []string{"id", "name", "pool", "explorer"},
			HasNewData: true,
			Model:      Currencies,
		},
	}
}

func cols(spec ...any) []Column {
	out := make([]Column, 0, len(spec)/2)
	for i := 0; i+1 < len(spec); i += 2 {
		out = append(out, Column{Name: spec[i].(string), Type: spec[i+1].(ColumnType)})
	}
	return out
}

func fundingLoanColumns() []Column {
	return cols(
		"id", BigInt,
		"symbol", VarChar,
		"side", Int,
		"mtsCreate", BigInt,
		"mtsUpdate", BigInt,
		"amount", Decimal,
		"flags", Text,
		"status", Text,
		"rate", Decimal,
		"period", BigInt,
		"mtsOpening", BigInt,
		"mtsLastPayout", BigInt,
		"notify", Int,
		"hidden", Int,
		"renew", Int,
		"rateReal", Decimal,
		"noClose", Int,
	)
}

func builtinModels() []Model {
	return []Model{
		{Name: Ledgers, Visibility: Private, Columns: cols(
			"id", BigInt,
			"currency", VarChar,
			"mts", BigInt,
			"amount", Decimal,
			"balance", Decimal,
			"description", Text,
			"wallet", VarChar,
		)},
		{Name: Trades, Visibility: Private, Columns: cols(
			"id", BigInt,
			"symbol", VarChar,
			"mtsCreate", BigInt,
			"orderID", BigInt,
			"execAmount", Decimal,
			"execPrice", Decimal,
			"orderType", VarChar,
			"orderPrice", Decimal,
			"maker", Int,
			"fee", Decimal,
			"feeCurrency", VarChar,
		)},
		{Name: PublicTrades, Visibility: Public, Columns: cols(
			"id", BigInt,
			"mts", BigInt,
			"amount", Decimal,
			"price", Decimal,
			"_symbol", VarChar,
		)},
		{Name: Orders, Visibility: Private, Columns: cols(
			"id", BigInt,
			"gid", BigInt,
			"cid", BigInt,
			"symbol", VarChar,
			"mtsCreate", BigInt,
			"mtsUpdate", BigInt,
			"amount", Decimal,
			"amountOrig", Decimal,
			"type", VarChar,
			"typePrev", VarChar,
			"flags", Int,
			"status", VarChar,
			"price", Decimal,
			"priceAvg", Decimal,
			"priceTrailing", Decimal,
			"priceAuxLimit", Decimal,
			"notify", Int,
			"placedId", BigInt,
			"_lastAmount", Decimal,
			"amountExecuted", Decimal,
		)},
		{Name: Movements, Visibility: Private, Columns: cols(
			"id", BigInt,
			"currency", VarChar,
			"currencyName", VarChar,
			"mtsStarted", BigInt,
			"mtsUpdated", BigInt,
			"status", VarChar,
			"amount", Decimal,
			"fees", Decimal,
			"destinationAddress", VarChar,
			"transactionId", VarChar,
		)},
		{Name: FundingOfferHistory, Visibility: Private, Columns: cols(
			"id", BigInt,
			"symbol", VarChar,
			"mtsCreate", BigInt,
			"mtsUpdate", BigInt,
			"amount", Decimal,
			"amountOrig", Decimal,
			"type", VarChar,
			"flags", Text,
			"status", Text,
			"rate", VarChar,
			"period", Int,
			"notify", Int,
			"hidden", Int,
			"renew", Int,
			"rateReal", Int,
			"amountExecuted", Decimal,
		)},
		{Name: FundingLoanHistory, Visibility: Private, Columns: fundingLoanColumns()},
		{Name: FundingCreditHistory, Visibility: Private, Columns: append(fundingLoanColumns(),
			Column{Name: "positionPair", Type: VarChar},
		)},
		{Name: PublicTradesConf, Visibility: Private, Columns: cols(
			"symbol", VarChar,
			"start", BigInt,
		)},
		{Name: Symbols, Visibility: Public, Columns: cols(
			"pairs", VarChar,
		)},
		{Name: Currencies, Visibility: Public, Columns: cols(
			"id", VarChar,
			"name", VarChar,
			"pool", VarChar,
			"explorer", Text,
		)},
	}
}

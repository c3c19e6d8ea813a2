package registry

import (
	"strings"

	"github.com/ettle/strcase"
)

const (
	publicTradesMethod  = "getPublicTrades"
	publicFundingMethod = "getPublicFunding"
	movementsMethod     = "getMovements"

	// DepositsLabel is the label of a movements export restricted to deposits.
	DepositsLabel = "deposits"
	// WithdrawalsLabel is the label of a movements export restricted to withdrawals.
	WithdrawalsLabel = "withdrawals"
	// MultiExportLabel is shared by every multi-collection export.
	MultiExportLabel = "multiple-exports"
)

func builtinLabels() [][2]string {
	return [][2]string{
		{"getTrades", "trades"},
		{"getOrderTrades", "order_trades"},
		{"getFundingTrades", "funding_trades"},
		{"getPublicTrades", "public_trades"},
		{"getPublicFunding", "public_funding"},
		{"getLedgers", "ledgers"},
		{"getOrders", "orders"},
		{"getActiveOrders", "active_orders"},
		{"getMovements", "movements"},
		{"getFundingOfferHistory", "funding_offers_history"},
		{"getFundingLoanHistory", "funding_loans_history"},
		{"getFundingCreditHistory", "funding_credits_history"},
		{"getPositionsHistory", "positions_history"},
		{"getPositionsAudit", "positions_audit"},
		{"getWallets", "wallets"},
		{"getTickersHistory", "tickers_history"},
		{"getActivePositions", "active_positions"},
		{"getLogins", "logins"},
		{"getChangeLogs", "change_logs"},
	}
}

// LabelFlags are the request flags that affect label resolution.
type LabelFlags struct {
	IsTradingPair bool
	IsDeposits    bool
	IsWithdrawals bool
	IsMultiExport bool
}

// ParseOverrides validates a loosely typed override table. It accepts
// [][2]string, [][]string and []any whose items are two-element sequences of
// strings. The second return value is false when raw is malformed, in which
// case the whole table must be ignored.
func ParseOverrides(raw any) ([][2]string, bool) {
	switch v := raw.(type) {
	case nil:
		return nil, true
	case [][2]string:
		return append([][2]string(nil), v...), true
	case [][]string:
		out := make([][2]string, 0, len(v))
		for _, item := range v {
			if len(item) != 2 {
				return nil, false
			}
			out = append(out, [2]string{item[0], item[1]})
		}
		return out, true
	case []any:
		out := make([][2]string, 0, len(v))
		for _, item := range v {
			pair, ok := parsePair(item)
			if !ok {
				return nil, false
			}
			out = append(out, pair)
		}
		return out, true
	default:
		return nil, false
	}
}

func parsePair(item any) ([2]string, bool) {
	switch p := item.(type) {
	case [2]string:
		return p, true
	case []string:
		if len(p) == 2 {
			return [2]string{p[0], p[1]}, true
		}
	case []any:
		if len(p) == 2 {
			k, ok1 := p[0].(string)
			v, ok2 := p[1].(string)
			if ok1 && ok2 {
				return [2]string{k, v}, true
			}
		}
	}
	return [2]string{}, false
}

// FallbackLabel derives a label mechanically from a method name by dropping a
// leading "get" and converting the rest to snake case.
func FallbackLabel(method string) string {
	return strcase.ToSnake(strings.TrimPrefix(method, "get"))
}

func resolveLabel(labels map[string]string, method string, flags LabelFlags) string {
	if method == publicTradesMethod && !flags.IsTradingPair {
		return labels[publicFundingMethod]
	}
	if method == movementsMethod && (flags.IsDeposits || flags.IsWithdrawals) {
		if flags.IsDeposits {
			return DepositsLabel
		}
		return WithdrawalsLabel
	}
	if flags.IsMultiExport {
		return MultiExportLabel
	}
	if label, ok := labels[method]; ok {
		return label
	}
	return FallbackLabel(method)
}

package helpers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// LedgerEntry is one ledger row served by the fake remote API
type LedgerEntry struct {
	ID          int64
	Currency    string
	Mts         int64
	Amount      float64
	Balance     float64
	Description string
}

// MockRemoteBuilder builds a fake of the remote REST API. Only the api key
// given to WithAccount is accepted; every history endpoint other than
// ledgers answers with an empty page.
type MockRemoteBuilder struct {
	apiKey   string
	email    string
	username string
	ledgers  []LedgerEntry
	pairs    []string
}

// NewMockRemoteBuilder creates a new fake remote API builder
func NewMockRemoteBuilder() *MockRemoteBuilder {
	return &MockRemoteBuilder{pairs: []string{"BTCUSD", "ETHUSD"}}
}

// WithAccount sets the accepted api key and the account it belongs to
func (b *MockRemoteBuilder) WithAccount(apiKey, email, username string) *MockRemoteBuilder {
	b.apiKey, b.email, b.username = apiKey, email, username
	return b
}

// WithLedgers sets the ledger history, newest first
func (b *MockRemoteBuilder) WithLedgers(entries ...LedgerEntry) *MockRemoteBuilder {
	b.ledgers = entries
	return b
}

// MockRemote is a running fake remote API
type MockRemote struct {
	*httptest.Server

	mu       sync.Mutex
	requests map[string]int
}

// Requests returns how many times path was requested
func (m *MockRemote) Requests(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[path]
}

// Build starts the fake remote API
func (b *MockRemoteBuilder) Build() *MockRemote {
	m := &MockRemote{requests: make(map[string]int)}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.requests[r.URL.Path]++
		m.mu.Unlock()

		if strings.HasPrefix(r.URL.Path, "/v2/auth/") {
			b.serveAuth(w, r)
			return
		}
		b.servePublic(w, r)
	}))
	return m
}

func (b *MockRemoteBuilder) serveAuth(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("bfx-apikey") != b.apiKey || r.Header.Get("bfx-signature") == "" {
		writeJSON(w, http.StatusInternalServerError, []any{"error", 10100, "apikey: invalid"})
		return
	}

	var page struct {
		Start int64 `json:"start"`
		End   int64 `json:"end"`
		Limit int   `json:"limit"`
	}
	body, _ := io.ReadAll(r.Body)
	if len(body) > 0 {
		_ = json.Unmarshal(body, &page)
	}

	switch {
	case r.URL.Path == "/v2/auth/r/info/user":
		writeJSON(w, http.StatusOK, []any{1, b.email, b.username, 1600000000000, 1, 1, nil, "UTC"})
	case r.URL.Path == "/v2/auth/r/ledgers/hist":
		rows := []any{}
		for _, e := range b.ledgers {
			if e.Mts < page.Start || (page.End > 0 && e.Mts > page.End) {
				continue
			}
			if page.Limit > 0 && len(rows) == page.Limit {
				break
			}
			rows = append(rows, []any{e.ID, e.Currency, "exchange", e.Mts, nil, e.Amount, e.Balance, nil, e.Description})
		}
		writeJSON(w, http.StatusOK, rows)
	case strings.HasSuffix(r.URL.Path, "/hist"):
		writeJSON(w, http.StatusOK, []any{})
	default:
		writeJSON(w, http.StatusNotFound, []any{"error", 10020, "unknown endpoint"})
	}
}

func (b *MockRemoteBuilder) servePublic(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/v2/conf/pub:list:pair:exchange":
		writeJSON(w, http.StatusOK, []any{b.pairs})
	case strings.HasPrefix(r.URL.Path, "/v2/conf/pub:list:currency"):
		writeJSON(w, http.StatusOK, []any{
			[]string{"BTC", "USD"},
			[][]string{{"BTC", "Bitcoin"}},
			[]any{},
			[]any{},
		})
	case strings.HasPrefix(r.URL.Path, "/v2/trades/"):
		writeJSON(w, http.StatusOK, []any{})
	default:
		writeJSON(w, http.StatusNotFound, []any{"error", 10020, "unknown endpoint"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

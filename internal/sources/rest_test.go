package sources

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/checho651/bfx-report/internal/auth"
	"github.com/checho651/bfx-report/internal/httpclient"
	"github.com/checho651/bfx-report/internal/registry"
)

type recordedRequest struct {
	method string
	path   string
	query  string
	header http.Header
	body   []byte
}

// newRemote starts a fake remote API answering every request with respond
func newRemote(t *testing.T, status int, respond string) (*httptest.Server, *[]recordedRequest) {
	t.Helper()

	var requests []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, recordedRequest{
			method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, header: r.Header.Clone(), body: body,
		})
		w.WriteHeader(status)
		_, _ = w.Write([]byte(respond))
	}))
	server.Config.SetKeepAlivesEnabled(false)
	t.Cleanup(server.Close)
	return server, &requests
}

func newTestSource(t *testing.T, endpoint string) *RESTSource {
	t.Helper()
	fixed := time.UnixMilli(1700000000000)
	return NewRESTSource(httpclient.NewDefaultClient(5*time.Second), registry.New(nil),
		WithEndpoint(endpoint), WithClock(func() time.Time { return fixed }))
}

func descriptor(t *testing.T, method string) registry.Descriptor {
	t.Helper()
	d, ok := registry.New(nil).Descriptor(method)
	require.True(t, ok)
	return d
}

var keyPair = auth.Credentials{APIKey: "fake-key", APISecret: "fake-secret"}

func TestRESTSource_FetchPage_Ledgers(t *testing.T) {
	t.Parallel()

	server, requests := newRemote(t, http.StatusOK,
		`[[2,"BTC","exchange",1700000000500,null,0.5,1.5,null,"Deposit"],[1,"USD","margin",1700000000000,null,-10,90,null,"Fee"]]`)
	src := newTestSource(t, server.URL)

	rows, err := src.FetchPage(context.Background(), keyPair, descriptor(t, "getLedgers"),
		PageRequest{Start: 0, End: 1700000001000, Limit: 5000})
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, registry.Row{
		"id": int64(2), "currency": "BTC", "wallet": "exchange", "mts": int64(1700000000500),
		"amount": 0.5, "balance": 1.5, "description": "Deposit",
	}, rows[0])

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/v2/auth/r/ledgers/hist", req.path)
	assert.JSONEq(t, `{"start":0,"end":1700000001000,"limit":5000}`, string(req.body))
	assert.Equal(t, "fake-key", req.header.Get("bfx-apikey"))

	nonce := req.header.Get("bfx-nonce")
	assert.Equal(t, "1700000000000000", nonce)
	assert.Equal(t, Sign("fake-secret", "/v2/auth/r/ledgers/hist", nonce, req.body), req.header.Get("bfx-signature"))
}

func TestRESTSource_FetchPage_TokenAndSymbol(t *testing.T) {
	t.Parallel()

	server, requests := newRemote(t, http.StatusOK, `[]`)
	src := newTestSource(t, server.URL)

	rows, err := src.FetchPage(context.Background(), auth.Credentials{AuthToken: "tok"},
		descriptor(t, "getTrades"), PageRequest{Symbol: "tBTCUSD", End: 10, Limit: 1})
	require.NoError(t, err)
	assert.Empty(t, rows)

	req := (*requests)[0]
	assert.Equal(t, "/v2/auth/r/trades/tBTCUSD/hist", req.path)
	assert.Equal(t, "tok", req.header.Get("bfx-token"))
	assert.Empty(t, req.header.Get("bfx-signature"))
}

func TestRESTSource_FetchPage_OrdersDeriveColumns(t *testing.T) {
	t.Parallel()

	order := make([]any, 26)
	order[0], order[3], order[4], order[5] = 7, "tBTCUSD", 100, 200
	order[6], order[7], order[8], order[13] = 0.25, 1.0, "EXCHANGE LIMIT", "EXECUTED @ 100"
	order[16], order[23] = 100.5, true
	payload, err := json.Marshal([]any{order})
	require.NoError(t, err)

	server, _ := newRemote(t, http.StatusOK, string(payload))
	src := newTestSource(t, server.URL)

	rows, err := src.FetchPage(context.Background(), keyPair, descriptor(t, "getOrders"), PageRequest{End: 300, Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, int64(7), row["id"])
	assert.Equal(t, int64(200), row["mtsUpdate"])
	assert.Equal(t, 0.25, row["_lastAmount"])
	assert.InDelta(t, 0.75, row["amountExecuted"], 1e-9)
	assert.Equal(t, int64(1), row["notify"])
	assert.Nil(t, row["gid"])
}

func TestRESTSource_FetchPage_PublicTrades(t *testing.T) {
	t.Parallel()

	server, requests := newRemote(t, http.StatusOK, `[[11,1700000000100,0.1,35000],[10,1700000000000,-0.2,34990]]`)
	src := newTestSource(t, server.URL)

	rows, err := src.FetchPage(context.Background(), auth.Credentials{}, descriptor(t, "getPublicTrades"),
		PageRequest{Symbol: "tBTCUSD", Start: 5, End: 1700000000100, Limit: 1000})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "tBTCUSD", rows[0]["_symbol"])
	assert.Equal(t, int64(1700000000100), rows[0]["mts"])
	assert.Equal(t, 35000.0, rows[0]["price"])

	req := (*requests)[0]
	assert.Equal(t, http.MethodGet, req.method)
	assert.Equal(t, "/v2/trades/tBTCUSD/hist", req.path)
	assert.Equal(t, "end=1700000000100&limit=1000&sort=-1&start=5", req.query)

	_, err = src.FetchPage(context.Background(), auth.Credentials{}, descriptor(t, "getPublicTrades"), PageRequest{})
	require.Error(t, err)
}

func TestRESTSource_FetchSnapshot(t *testing.T) {
	t.Parallel()

	t.Run("pairs", func(t *testing.T) {
		t.Parallel()

		server, requests := newRemote(t, http.StatusOK, `[["BTCUSD","ETHUSD","ETHBTC"]]`)
		rows, err := newTestSource(t, server.URL).FetchSnapshot(context.Background(), descriptor(t, "getSymbols"))
		require.NoError(t, err)
		assert.Equal(t, []registry.Row{{"pairs": "btcusd"}, {"pairs": "ethusd"}, {"pairs": "ethbtc"}}, rows)
		assert.Equal(t, "/v2/conf/pub:list:pair:exchange", (*requests)[0].path)
	})

	t.Run("currencies", func(t *testing.T) {
		t.Parallel()

		server, _ := newRemote(t, http.StatusOK,
			`[["BTC","USDT"],[["BTC","Bitcoin"]],[["USDT","ETH"]],[["BTC",["https://explorer"]]]]`)
		rows, err := newTestSource(t, server.URL).FetchSnapshot(context.Background(), descriptor(t, "getCurrencies"))
		require.NoError(t, err)
		assert.Equal(t, []registry.Row{
			{"id": "BTC", "name": "Bitcoin", "pool": nil, "explorer": `["https://explorer"]`},
			{"id": "USDT", "name": "USDT", "pool": "ETH", "explorer": nil},
		}, rows)
	})

	t.Run("append-only collections have no snapshot", func(t *testing.T) {
		t.Parallel()

		_, err := newTestSource(t, "http://unused").FetchSnapshot(context.Background(), descriptor(t, "getLedgers"))
		require.Error(t, err)
	})
}

func TestRESTSource_UserInfo(t *testing.T) {
	t.Parallel()

	server, requests := newRemote(t, http.StatusOK,
		`[42,"fake@email.fake","fake",1600000000000,1,1,null,"Europe/Riga"]`)

	info, err := newTestSource(t, server.URL).UserInfo(context.Background(), keyPair)
	require.NoError(t, err)
	assert.Equal(t, auth.UserInfo{ID: 42, Email: "fake@email.fake", Username: "fake", Timezone: "Europe/Riga"}, info)
	assert.Equal(t, "/v2/auth/r/info/user", (*requests)[0].path)
}

func TestRESTSource_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		status     int
		body       string
		creds      auth.Credentials
		wantStatus int
		wantUnauth bool
	}{
		{
			name:       "rejected api key is normalized to 401",
			status:     http.StatusInternalServerError,
			body:       `["error",10100,"apikey: invalid"]`,
			creds:      keyPair,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "other remote errors keep their status",
			status:     http.StatusInternalServerError,
			body:       `["error",11010,"ratelimit: error"]`,
			creds:      keyPair,
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "empty credentials never reach the remote",
			status:     http.StatusOK,
			body:       `[]`,
			creds:      auth.Credentials{},
			wantUnauth: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server, requests := newRemote(t, tt.status, tt.body)
			_, err := newTestSource(t, server.URL).FetchPage(context.Background(), tt.creds,
				descriptor(t, "getLedgers"), PageRequest{End: 1, Limit: 1})
			require.Error(t, err)

			if tt.wantUnauth {
				require.ErrorIs(t, err, auth.ErrUnauthorized)
				assert.Empty(t, *requests)
				return
			}
			var httpErr *httpclient.HTTPError
			require.True(t, errors.As(err, &httpErr))
			assert.Equal(t, tt.wantStatus, httpErr.StatusCode)
		})
	}
}

func TestRESTSource_NonceIsStrictlyIncreasing(t *testing.T) {
	t.Parallel()

	src := newTestSource(t, "http://unused")
	first := src.nextNonce()
	second := src.nextNonce()
	assert.Equal(t, "1700000000000000", first)
	assert.Equal(t, "1700000000000001", second)
}

func TestDecodeRows_RejectsMalformedPayloads(t *testing.T) {
	t.Parallel()

	m, _ := registry.New(nil).Schema(registry.Ledgers)

	tests := []struct {
		name string
		data string
	}{
		{name: "invalid json", data: `[[1,`},
		{name: "object instead of array", data: `{"error":"x"}`},
		{name: "row is not an array", data: `[1,2]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := decodeRows([]byte(tt.data), registry.Ledgers, m)
			require.Error(t, err)
		})
	}

	_, err := decodeRows([]byte(`[]`), registry.Symbols, m)
	require.Error(t, err)
}

package sources

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/checho651/bfx-report/internal/auth"
	"github.com/checho651/bfx-report/internal/httpclient"
	"github.com/checho651/bfx-report/internal/registry"
)

const (
	authPathPrefix = "/v2/auth/r/"
	signaturePath  = "/api"

	// authErrorCode is the remote error code of rejected credentials
	authErrorCode = 10100
)

// private collections and the path segment of their history endpoint
var historyPaths = map[string]string{
	registry.Ledgers:              "ledgers",
	registry.Trades:               "trades",
	registry.Orders:               "orders",
	registry.Movements:            "movements",
	registry.FundingOfferHistory:  "funding/offers",
	registry.FundingLoanHistory:   "funding/loans",
	registry.FundingCreditHistory: "funding/credits",
}

// RESTSource reads collections from the v2 REST API
type RESTSource struct {
	client         httpclient.Client
	endpoint       string
	publicEndpoint string
	schemas        map[string]registry.Model
	now            func() time.Time

	mu        sync.Mutex
	lastNonce int64
}

// RESTOption customises a RESTSource
type RESTOption func(*RESTSource)

// WithEndpoint sets the base URL of authenticated requests
func WithEndpoint(endpoint string) RESTOption {
	return func(s *RESTSource) { s.endpoint = strings.TrimRight(endpoint, "/") }
}

// WithPublicEndpoint sets the base URL of public requests
func WithPublicEndpoint(endpoint string) RESTOption {
	return func(s *RESTSource) { s.publicEndpoint = strings.TrimRight(endpoint, "/") }
}

// WithClock replaces the clock used for request nonces
func WithClock(now func() time.Time) RESTOption {
	return func(s *RESTSource) { s.now = now }
}

// NewRESTSource creates a RESTSource decoding rows with the models of reg
func NewRESTSource(client httpclient.Client, reg *registry.Registry, opts ...RESTOption) *RESTSource {
	s := &RESTSource{
		client:  client,
		schemas: reg.Schemas(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.publicEndpoint == "" {
		s.publicEndpoint = s.endpoint
	}
	return s
}

// FetchPage implements Source
func (s *RESTSource) FetchPage(
	ctx context.Context, creds auth.Credentials, d registry.Descriptor, req PageRequest,
) ([]registry.Row, error) {
	m, ok := s.schemas[d.Model]
	if !ok {
		return nil, fmt.Errorf("unknown model %s", d.Model)
	}

	if d.Name == registry.PublicTrades {
		return s.fetchPublicTrades(ctx, m, req)
	}

	segment, ok := historyPaths[d.Name]
	if !ok {
		return nil, fmt.Errorf("collection %s has no history endpoint", d.Name)
	}
	path := authPathPrefix + segment
	if req.Symbol != "" {
		path += "/" + url.PathEscape(req.Symbol)
	}
	path += "/hist"

	body := map[string]any{"start": req.Start, "end": req.End, "limit": req.Limit}
	data, err := s.postAuth(ctx, creds, path, body)
	if err != nil {
		return nil, err
	}
	return decodeRows(data, d.Name, m)
}

func (s *RESTSource) fetchPublicTrades(ctx context.Context, m registry.Model, req PageRequest) ([]registry.Row, error) {
	if req.Symbol == "" {
		return nil, fmt.Errorf("public trades require a symbol")
	}
	q := url.Values{}
	q.Set("start", strconv.FormatInt(req.Start, 10))
	q.Set("end", strconv.FormatInt(req.End, 10))
	q.Set("limit", strconv.Itoa(req.Limit))
	q.Set("sort", "-1")

	data, err := s.client.Get(ctx,
		s.publicEndpoint+"/v2/trades/"+url.PathEscape(req.Symbol)+"/hist?"+q.Encode())
	if err != nil {
		return nil, normalizeError(err)
	}
	rows, err := decodeRows(data, registry.PublicTrades, m)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		r["_symbol"] = req.Symbol
	}
	return rows, nil
}

// FetchSnapshot implements Source
func (s *RESTSource) FetchSnapshot(ctx context.Context, d registry.Descriptor) ([]registry.Row, error) {
	switch d.Name {
	case registry.Symbols:
		return s.fetchPairs(ctx)
	case registry.Currencies:
		return s.fetchCurrencies(ctx)
	}
	return nil, fmt.Errorf("collection %s has no snapshot endpoint", d.Name)
}

func (s *RESTSource) fetchPairs(ctx context.Context) ([]registry.Row, error) {
	data, err := s.client.Get(ctx, s.publicEndpoint+"/v2/conf/pub:list:pair:exchange")
	if err != nil {
		return nil, normalizeError(err)
	}
	list := gjson.GetBytes(data, "0")
	if !list.IsArray() {
		return nil, fmt.Errorf("unexpected pairs payload")
	}

	rows := make([]registry.Row, 0, len(list.Array()))
	for _, p := range list.Array() {
		rows = append(rows, registry.Row{"pairs": strings.ToLower(p.String())})
	}
	return rows, nil
}

func (s *RESTSource) fetchCurrencies(ctx context.Context) ([]registry.Row, error) {
	data, err := s.client.Get(ctx, s.publicEndpoint+
		"/v2/conf/pub:list:currency,pub:map:currency:label,pub:map:currency:pool,pub:map:currency:explorer")
	if err != nil {
		return nil, normalizeError(err)
	}
	doc := gjson.ParseBytes(data)
	ids := doc.Get("0")
	if !ids.IsArray() {
		return nil, fmt.Errorf("unexpected currencies payload")
	}

	toMap := func(r gjson.Result) map[string]gjson.Result {
		out := make(map[string]gjson.Result)
		for _, pair := range r.Array() {
			out[pair.Get("0").String()] = pair.Get("1")
		}
		return out
	}
	labels := toMap(doc.Get("1"))
	pools := toMap(doc.Get("2"))
	explorers := toMap(doc.Get("3"))

	rows := make([]registry.Row, 0, len(ids.Array()))
	for _, idResult := range ids.Array() {
		id := idResult.String()
		row := registry.Row{"id": id, "name": id, "pool": nil, "explorer": nil}
		if label, ok := labels[id]; ok && label.String() != "" {
			row["name"] = label.String()
		}
		if pool, ok := pools[id]; ok {
			row["pool"] = pool.String()
		}
		if explorer, ok := explorers[id]; ok {
			row["explorer"] = explorer.Raw
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// UserInfo implements Source and auth.UserInfoFetcher
func (s *RESTSource) UserInfo(ctx context.Context, creds auth.Credentials) (auth.UserInfo, error) {
	data, err := s.postAuth(ctx, creds, authPathPrefix+"info/user", map[string]any{})
	if err != nil {
		return auth.UserInfo{}, err
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsArray() {
		return auth.UserInfo{}, fmt.Errorf("unexpected user info payload")
	}
	return auth.UserInfo{
		ID:       doc.Get("0").Int(),
		Email:    doc.Get("1").String(),
		Username: doc.Get("2").String(),
		Timezone: doc.Get("7").String(),
	}, nil
}

func (s *RESTSource) postAuth(ctx context.Context, creds auth.Credentials, path string, body any) ([]byte, error) {
	if creds.IsEmpty() {
		return nil, auth.ErrUnauthorized
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	nonce := s.nextNonce()
	headers := map[string]string{"bfx-nonce": nonce}
	if creds.IsToken() {
		headers["bfx-token"] = creds.AuthToken
	} else {
		headers["bfx-apikey"] = creds.APIKey
		headers["bfx-signature"] = Sign(creds.APISecret, path, nonce, payload)
	}

	data, err := s.client.Post(ctx, s.endpoint+path, payload, headers)
	if err != nil {
		return nil, normalizeError(err)
	}
	return data, nil
}

// nextNonce returns a strictly increasing microsecond timestamp
func (s *RESTSource) nextNonce() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.now().UnixMicro()
	if n <= s.lastNonce {
		n = s.lastNonce + 1
	}
	s.lastNonce = n
	return strconv.FormatInt(n, 10)
}

// Sign computes the hex HMAC-SHA384 signature of an authenticated request
func Sign(secret, path, nonce string, body []byte) string {
	mac := hmac.New(sha512.New384, []byte(secret))
	mac.Write([]byte(signaturePath + path + nonce))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// normalizeError turns the remote ["error", code, message] payload of
// rejected credentials into a 401, whatever status it came with.
func normalizeError(err error) error {
	var httpErr *httpclient.HTTPError
	if !errors.As(err, &httpErr) {
		return err
	}
	body := gjson.Parse(httpErr.Message)
	if body.Get("0").String() == "error" && body.Get("1").Int() == authErrorCode {
		return httpclient.NewHTTPError(401, httpErr.URL, body.Get("2").String())
	}
	return err
}

package export

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/checho651/bfx-report/internal/registry"
	"github.com/checho651/bfx-report/internal/service"
)

func TestParseParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		raw       string
		wantQuery service.QueryParams
		wantName  NameParams
		wantErr   bool
	}{
		{name: "empty"},
		{
			name:      "window and flags",
			raw:       `{"start": 10, "end": 20, "isBaseNameInName": true, "isDeposits": true}`,
			wantQuery: service.QueryParams{Start: ptr(int64(10)), End: ptr(int64(20))},
			wantName: NameParams{
				Start: 10, End: 20, IsBaseNameInName: true,
				Flags: registry.LabelFlags{IsDeposits: true},
			},
		},
		{
			name:      "trading pair",
			raw:       `{"symbol": "tBTCUSD", "isTradingPair": true}`,
			wantQuery: service.QueryParams{Symbols: []string{"tBTCUSD"}},
			wantName:  NameParams{Flags: registry.LabelFlags{IsTradingPair: true}},
		},
		{
			name:     "file names map",
			raw:      `{"fileNamesMap": [["getLedgers", "ledger-entries"]]}`,
			wantName: NameParams{FileNamesMap: []any{[]any{"getLedgers", "ledger-entries"}}},
		},
		{
			name:     "malformed file names map is kept raw",
			raw:      `{"fileNamesMap": "x"}`,
			wantName: NameParams{FileNamesMap: "x"},
		},
		{name: "not an object", raw: `[1]`, wantErr: true},
		{name: "start after end", raw: `{"start": 2, "end": 1}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			query, name, err := ParseParams(json.RawMessage(tt.raw))
			if tt.wantErr {
				assert.ErrorIs(t, err, service.ErrInvalidParams)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantQuery, query)
			assert.Equal(t, tt.wantName, name)
		})
	}
}

func TestRowFilter(t *testing.T) {
	t.Parallel()

	deposit := registry.Row{"amount": 1.5}
	withdrawal := registry.Row{"amount": int64(-3)}
	noAmount := registry.Row{"currency": "BTC"}

	assert.Nil(t, rowFilter("getLedgers", registry.LabelFlags{IsDeposits: true}))
	assert.Nil(t, rowFilter("getMovements", registry.LabelFlags{}))
	assert.Nil(t, rowFilter("getMovements", registry.LabelFlags{IsDeposits: true, IsWithdrawals: true}))

	deposits := rowFilter("getMovements", registry.LabelFlags{IsDeposits: true})
	require.NotNil(t, deposits)
	assert.True(t, deposits(deposit))
	assert.False(t, deposits(withdrawal))
	assert.False(t, deposits(noAmount))

	withdrawals := rowFilter("getMovements", registry.LabelFlags{IsWithdrawals: true})
	require.NotNil(t, withdrawals)
	assert.False(t, withdrawals(deposit))
	assert.True(t, withdrawals(withdrawal))
}

func ptr[T any](v T) *T { return &v }

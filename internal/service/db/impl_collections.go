package database

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/checho651/bfx-report/internal/db"
	"github.com/checho651/bfx-report/internal/otel"
	"github.com/checho651/bfx-report/internal/registry"
	"github.com/checho651/bfx-report/internal/service"
)

// collectionHandler serves the rows of one collection. History collections
// answer with an ordered, bounded row list and snapshots with every row.
func (s *dbService) collectionHandler(d registry.Descriptor) handlerFunc {
	return func(ctx context.Context, user *db.User, raw json.RawMessage) (any, error) {
		params, err := service.ParseQueryParams(raw)
		if err != nil {
			return nil, err
		}
		if d.IsAppendOnly() {
			params.Limit = clampLimit(params.Limit, d.MaxLimit)
		} else {
			params = service.QueryParams{}
		}

		rows, err := s.queryRows(ctx, *user, d, params)
		if err != nil {
			return nil, err
		}
		if d.Type.Shape == registry.ScalarArray {
			return flatten(rows, d), nil
		}
		return rows, nil
	}
}

// clampLimit bounds a requested limit to the page size of the collection.
// A missing or non-positive limit selects a full page.
func clampLimit(limit, maxLimit int) int {
	if limit <= 0 || limit > maxLimit {
		return maxLimit
	}
	return limit
}

// flatten turns single-field rows into the list of their values. Scalar
// collections name their one field in Fields.
func flatten(rows []registry.Row, d registry.Descriptor) []any {
	out := make([]any, len(rows))
	if len(d.Fields) == 0 {
		return out[:0]
	}
	for i, r := range rows {
		out[i] = r[d.Fields[0]]
	}
	return out
}

// fields returns the served columns of d, which are all columns of m unless
// the descriptor restricts them
func fields(d registry.Descriptor, m registry.Model) []string {
	if len(d.Fields) > 0 {
		return d.Fields
	}
	return m.ColumnNames()
}

// getSymbols answers with the pairs and currencies snapshots together. The
// answer is cached and rebuilt once a sync flags either snapshot as new.
func (s *dbService) getSymbols(ctx context.Context, user *db.User, _ json.RawMessage) (any, error) {
	s.symbolsMu.Lock()
	defer s.symbolsMu.Unlock()

	q := db.New(s.sqlDB)
	changed := false
	for _, name := range []string{registry.Symbols, registry.Currencies} {
		consumed, err := q.ConsumeNewData(ctx, name)
		if err != nil {
			if changed {
				s.symbols = nil
			}
			return nil, fmt.Errorf("failed to read the refresh flag of %s: %w", name, err)
		}
		changed = changed || consumed
	}
	if s.symbols != nil && !changed {
		return s.symbols, nil
	}

	pairsDesc, ok := s.reg.DescriptorByName(registry.Symbols)
	if !ok {
		return nil, fmt.Errorf("collection %s is not registered", registry.Symbols)
	}
	currenciesDesc, ok := s.reg.DescriptorByName(registry.Currencies)
	if !ok {
		return nil, fmt.Errorf("collection %s is not registered", registry.Currencies)
	}

	s.symbols = nil
	pairs, err := s.queryRows(ctx, *user, pairsDesc, service.QueryParams{})
	if err != nil {
		return nil, err
	}
	currencies, err := s.queryRows(ctx, *user, currenciesDesc, service.QueryParams{})
	if err != nil {
		return nil, err
	}

	s.symbols = map[string]any{
		"pairs":      flatten(pairs, pairsDesc),
		"currencies": currencies,
	}
	return s.symbols, nil
}

func (s *dbService) queryRows(
	ctx context.Context, user db.User, d registry.Descriptor, params service.QueryParams,
) ([]registry.Row, error) {
	rows := []registry.Row{}
	err := s.scan(ctx, user, d, params, func(r registry.Row) error {
		rows = append(rows, r)
		return nil
	})
	return rows, err
}

// Columns returns the fields of the rows of a collection method
func (s *dbService) Columns(method string) ([]string, error) {
	d, m, err := s.collection(method)
	if err != nil {
		return nil, err
	}
	return fields(d, m), nil
}

// ScanRows streams the rows a collection method selects for user
func (s *dbService) ScanRows(
	ctx context.Context, user db.User, method string, params service.QueryParams, fn func(registry.Row) error,
) error {
	d, _, err := s.collection(method)
	if err != nil {
		return err
	}
	return s.scan(ctx, user, d, params, fn)
}

func (s *dbService) collection(method string) (registry.Descriptor, registry.Model, error) {
	d, ok := s.reg.Descriptor(method)
	if !ok {
		return registry.Descriptor{}, registry.Model{}, fmt.Errorf("%w: %q", service.ErrUnknownMethod, method)
	}
	m, ok := s.reg.Schema(d.Model)
	if !ok {
		return registry.Descriptor{}, registry.Model{}, fmt.Errorf("model %s of %s is not registered", d.Model, method)
	}
	return d, m, nil
}

func (s *dbService) scan(
	ctx context.Context, user db.User, d registry.Descriptor, params service.QueryParams, fn func(registry.Row) error,
) error {
	m, ok := s.reg.Schema(d.Model)
	if !ok {
		return fmt.Errorf("model %s is not registered", d.Model)
	}

	ctx, span := s.startSpan(ctx, "dbService.scan",
		trace.WithAttributes(
			otel.AttrCollection.String(d.Name),
			otel.AttrPageSize.Int(params.Limit),
		))
	defer span.End()

	rq := db.RowQuery{
		Model:       m,
		DateField:   d.DateField,
		SymbolField: d.SymbolField,
		Symbols:     params.Symbols,
		Start:       params.Start,
		End:         params.End,
		Limit:       params.Limit,
		Sort:        d.Sort,
		Fields:      fields(d, m),
	}
	if m.OwnedByUser() {
		rq.UserID = &user.ID
	}

	var count int
	err := db.New(s.sqlDB).ScanRows(ctx, rq, func(r registry.Row) error {
		count++
		return fn(r)
	})
	if err != nil {
		otel.RecordError(span, err)
		return fmt.Errorf("failed to read %s: %w", d.Name, err)
	}
	span.SetAttributes(otel.AttrResultCount.Int(count))
	return nil
}

package service

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// QueryParams is the range selection of a collection query
type QueryParams struct {
	// Symbols restricts rows to these partitions; empty means all
	Symbols []string
	Start   *int64
	End     *int64
	Limit   int
}

// ParseQueryParams reads symbol, start, end and limit from a params object.
// Missing or null params select everything. Anything that is not an object,
// or fields of the wrong type, yield ErrInvalidParams.
func ParseQueryParams(raw json.RawMessage) (QueryParams, error) {
	var p QueryParams
	res, err := paramsObject(raw)
	if err != nil || !res.Exists() {
		return p, err
	}

	switch sym := res.Get("symbol"); {
	case !present(sym):
	case sym.Type == gjson.String:
		if sym.Str != "" {
			p.Symbols = []string{sym.Str}
		}
	case sym.IsArray():
		for _, s := range sym.Array() {
			if s.Type != gjson.String {
				return p, fmt.Errorf("%w: symbol must be a string or a list of strings", ErrInvalidParams)
			}
			p.Symbols = append(p.Symbols, s.Str)
		}
	default:
		return p, fmt.Errorf("%w: symbol must be a string or a list of strings", ErrInvalidParams)
	}

	if p.Start, err = optionalInt(res, "start"); err != nil {
		return p, err
	}
	if p.End, err = optionalInt(res, "end"); err != nil {
		return p, err
	}
	limit, err := optionalInt(res, "limit")
	if err != nil {
		return p, err
	}
	if limit != nil {
		p.Limit = int(*limit)
	}

	if p.Start != nil && p.End != nil && *p.Start > *p.End {
		return p, fmt.Errorf("%w: start is after end", ErrInvalidParams)
	}
	return p, nil
}

// paramsObject returns the parsed params, or a non-existing result when raw
// is empty or null
func paramsObject(raw json.RawMessage) (gjson.Result, error) {
	if len(raw) == 0 {
		return gjson.Result{}, nil
	}
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, fmt.Errorf("%w: params are not valid JSON", ErrInvalidParams)
	}
	res := gjson.ParseBytes(raw)
	if res.Type == gjson.Null {
		return gjson.Result{}, nil
	}
	if !res.IsObject() {
		return gjson.Result{}, fmt.Errorf("%w: params must be an object", ErrInvalidParams)
	}
	return res, nil
}

func present(r gjson.Result) bool {
	return r.Exists() && r.Type != gjson.Null
}

func optionalInt(obj gjson.Result, field string) (*int64, error) {
	v := obj.Get(field)
	if !present(v) {
		return nil, nil
	}
	if v.Type != gjson.Number {
		return nil, fmt.Errorf("%w: %s must be a number", ErrInvalidParams, field)
	}
	n := v.Int()
	return &n, nil
}

// ParsePublicTradesConf reads a single {symbol, start} object or a list of
// them
func ParsePublicTradesConf(raw json.RawMessage) ([]PublicTradesConf, error) {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: public trades config is required", ErrInvalidParams)
	}
	res := gjson.ParseBytes(raw)

	var items []gjson.Result
	switch {
	case res.IsArray():
		items = res.Array()
	case res.IsObject():
		items = []gjson.Result{res}
	default:
		return nil, fmt.Errorf("%w: public trades config must be an object or a list", ErrInvalidParams)
	}

	out := make([]PublicTradesConf, 0, len(items))
	seen := make(map[string]bool, len(items))
	for i, item := range items {
		sym := item.Get("symbol")
		if !item.IsObject() || sym.Type != gjson.String || sym.Str == "" {
			return nil, fmt.Errorf("%w: item %d needs a symbol", ErrInvalidParams, i)
		}
		start, err := optionalInt(item, "start")
		if err != nil {
			return nil, err
		}
		conf := PublicTradesConf{Symbol: sym.Str}
		if start != nil {
			if *start < 0 {
				return nil, fmt.Errorf("%w: item %d has a negative start", ErrInvalidParams, i)
			}
			conf.Start = *start
		}
		if seen[conf.Symbol] {
			return nil, fmt.Errorf("%w: symbol %s is listed twice", ErrInvalidParams, conf.Symbol)
		}
		seen[conf.Symbol] = true
		out = append(out, conf)
	}
	return out, nil
}

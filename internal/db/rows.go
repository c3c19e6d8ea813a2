package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/checho651/bfx-report/internal/registry"
)

// InsertRows inserts rows into the table of m, silently skipping rows that
// collide with the unique index. userID must be set for private models. It
// returns the number of rows actually inserted.
func (q *Queries) InsertRows(ctx context.Context, m registry.Model, userID *int64, rows []registry.Row) (int64, error) {
	return q.insertRows(ctx, m, userID, rows, " ON CONFLICT DO NOTHING")
}

// ReplaceRows deletes every row of the table of m (scoped to userID for
// private models) and inserts rows in their place.
func (q *Queries) ReplaceRows(ctx context.Context, m registry.Model, userID *int64, rows []registry.Row) (int64, error) {
	where, args, err := ownerFilter(m, userID)
	if err != nil {
		return 0, err
	}
	if _, err := q.db.ExecContext(ctx, `DELETE FROM `+quoteIdent(m.Name)+where, args...); err != nil {
		return 0, fmt.Errorf("failed to clear %s: %w", m.Name, err)
	}
	return q.insertRows(ctx, m, userID, rows, "")
}

func (q *Queries) insertRows(
	ctx context.Context, m registry.Model, userID *int64, rows []registry.Row, conflict string,
) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if m.OwnedByUser() && userID == nil {
		return 0, fmt.Errorf("table %s requires a user", m.Name)
	}

	names := make([]string, 0, len(m.Columns)+1)
	marks := make([]string, 0, len(m.Columns)+1)
	for _, c := range m.Columns {
		names = append(names, quoteIdent(c.Name))
		marks = append(marks, "?")
	}
	if m.OwnedByUser() {
		names = append(names, UserIDColumn)
		marks = append(marks, "?")
	}

	stmt, err := q.db.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)%s",
		quoteIdent(m.Name), strings.Join(names, ", "), strings.Join(marks, ", "), conflict))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert into %s: %w", m.Name, err)
	}
	defer stmt.Close()

	var inserted int64
	args := make([]any, len(names))
	for _, row := range rows {
		for i, c := range m.Columns {
			args[i] = toColumnValue(row[c.Name], c.Type)
		}
		if m.OwnedByUser() {
			args[len(args)-1] = *userID
		}
		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert into %s: %w", m.Name, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return inserted, err
		}
		inserted += n
	}
	return inserted, nil
}

// MaxDate returns the greatest persisted value of dateField, optionally
// restricted to one symbol partition. ok is false when the table is empty.
func (q *Queries) MaxDate(
	ctx context.Context, m registry.Model, dateField string, userID *int64, symbolField, symbol string,
) (value int64, ok bool, err error) {
	where, args, err := ownerFilter(m, userID)
	if err != nil {
		return 0, false, err
	}
	if symbolField != "" && symbol != "" {
		where = appendCond(where, quoteIdent(symbolField)+" = ?")
		args = append(args, symbol)
	}

	var maxValue sql.NullInt64
	err = q.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT MAX(%s) FROM %s%s", quoteIdent(dateField), quoteIdent(m.Name), where), args...,
	).Scan(&maxValue)
	if err != nil {
		return 0, false, err
	}
	return maxValue.Int64, maxValue.Valid, nil
}

// CountRows counts the rows of the table of m owned by userID.
func (q *Queries) CountRows(ctx context.Context, m registry.Model, userID *int64) (int64, error) {
	where, args, err := ownerFilter(m, userID)
	if err != nil {
		return 0, err
	}
	var n int64
	err = q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoteIdent(m.Name)+where, args...).Scan(&n)
	return n, err
}

// RowQuery is a sorted, bounded range scan over one table.
type RowQuery struct {
	Model       registry.Model
	UserID      *int64
	DateField   string
	SymbolField string
	Symbols     []string
	Start       *int64
	End         *int64
	// Limit bounds the result; 0 means unbounded.
	Limit  int
	Sort   []registry.Sort
	Fields []string
}

// QueryRows runs rq and collects the result.
func (q *Queries) QueryRows(ctx context.Context, rq RowQuery) ([]registry.Row, error) {
	out := []registry.Row{}
	err := q.ScanRows(ctx, rq, func(r registry.Row) error {
		out = append(out, r)
		return nil
	})
	return out, err
}

// ScanRows runs rq and calls fn for every row in order. Iteration stops at the
// first error returned by fn.
func (q *Queries) ScanRows(ctx context.Context, rq RowQuery, fn func(registry.Row) error) error {
	fields := rq.Fields
	if len(fields) == 0 {
		fields = rq.Model.ColumnNames()
	}
	selected := make([]string, len(fields))
	for i, f := range fields {
		if _, ok := rq.Model.Column(f); !ok {
			return fmt.Errorf("unknown column %s.%s", rq.Model.Name, f)
		}
		selected[i] = quoteIdent(f)
	}

	where, args, err := ownerFilter(rq.Model, rq.UserID)
	if err != nil {
		return err
	}
	if rq.SymbolField != "" && len(rq.Symbols) > 0 {
		marks := make([]string, len(rq.Symbols))
		for i, s := range rq.Symbols {
			marks[i] = "?"
			args = append(args, s)
		}
		where = appendCond(where, fmt.Sprintf("%s IN (%s)", quoteIdent(rq.SymbolField), strings.Join(marks, ", ")))
	}
	if rq.DateField != "" && rq.Start != nil {
		where = appendCond(where, quoteIdent(rq.DateField)+" >= ?")
		args = append(args, *rq.Start)
	}
	if rq.DateField != "" && rq.End != nil {
		where = appendCond(where, quoteIdent(rq.DateField)+" <= ?")
		args = append(args, *rq.End)
	}

	query := fmt.Sprintf("SELECT %s FROM %s%s", strings.Join(selected, ", "), quoteIdent(rq.Model.Name), where)
	if len(rq.Sort) > 0 {
		keys := make([]string, len(rq.Sort))
		for i, s := range rq.Sort {
			keys[i] = quoteIdent(s.Field) + " " + s.Direction.SQL()
		}
		query += " ORDER BY " + strings.Join(keys, ", ") + ", _id " + rq.Sort[0].Direction.SQL()
	}
	if rq.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, rq.Limit)
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", rq.Model.Name, err)
	}
	defer rows.Close()

	values := make([]any, len(fields))
	ptrs := make([]any, len(fields))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		row := make(registry.Row, len(fields))
		for i, f := range fields {
			row[f] = fromColumnValue(values[i])
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return rows.Err()
}

func ownerFilter(m registry.Model, userID *int64) (string, []any, error) {
	if !m.OwnedByUser() {
		return "", nil, nil
	}
	if userID == nil {
		return "", nil, fmt.Errorf("table %s requires a user", m.Name)
	}
	return " WHERE " + UserIDColumn + " = ?", []any{*userID}, nil
}

func appendCond(where, cond string) string {
	if where == "" {
		return " WHERE " + cond
	}
	return where + " AND " + cond
}

// toColumnValue converts a decoded value to what the column stores.
func toColumnValue(v any, t registry.ColumnType) any {
	switch x := v.(type) {
	case nil:
		return nil
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case float64:
		if t.IsInteger() && x == math.Trunc(x) {
			return int64(x)
		}
		if !t.IsNumeric() {
			return strconv.FormatFloat(x, 'f', -1, 64)
		}
		return x
	case int:
		return int64(x)
	case int64, string:
		return x
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

func fromColumnValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

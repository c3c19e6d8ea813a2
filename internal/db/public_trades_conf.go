package db

import (
	"context"

	"github.com/checho651/bfx-report/internal/registry"
)

// PublicTradesConf is one public symbol a user follows.
type PublicTradesConf struct {
	Symbol string
	Start  int64
}

// ListPublicTradesConf returns the symbols followed by a user.
func (q *Queries) ListPublicTradesConf(ctx context.Context, userID int64) ([]PublicTradesConf, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT symbol, start FROM "publicTradesConf" WHERE user_id = ? ORDER BY symbol`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []PublicTradesConf{}
	for rows.Next() {
		var c PublicTradesConf
		if err := rows.Scan(&c.Symbol, &c.Start); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ReplacePublicTradesConf replaces the followed symbols of a user.
func (q *Queries) ReplacePublicTradesConf(ctx context.Context, userID int64, confs []PublicTradesConf) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM "publicTradesConf" WHERE user_id = ?`, userID); err != nil {
		return err
	}
	for _, c := range confs {
		if _, err := q.db.ExecContext(ctx,
			`INSERT INTO "publicTradesConf" (symbol, start, user_id) VALUES (?, ?, ?)`,
			c.Symbol, c.Start, userID); err != nil {
			return err
		}
	}
	return nil
}

// ListPublicSymbols returns every symbol followed by a syncable user with the
// earliest requested start.
func (q *Queries) ListPublicSymbols(ctx context.Context) ([]registry.SymbolStart, error) {
	rows, err := q.db.QueryContext(ctx, `
SELECT c.symbol, MIN(c.start)
FROM "publicTradesConf" c
JOIN users u ON u._id = c.user_id
WHERE u.active = 1 AND u.isDataFromDb = 0
GROUP BY c.symbol
ORDER BY c.symbol`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []registry.SymbolStart
	for rows.Next() {
		var s registry.SymbolStart
		if err := rows.Scan(&s.Symbol, &s.Start); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

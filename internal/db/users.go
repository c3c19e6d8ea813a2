package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// User is a row of the users table.
type User struct {
	ID           int64
	Email        string
	Username     string
	APIKey       string
	APISecret    string
	AuthToken    string
	Active       bool
	IsDataFromDB bool
	Timezone     string
}

const userColumns = `_id, email, username, apiKey, apiSecret, authToken, active, isDataFromDb, timezone`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var (
		u                                                       User
		email, username, apiKey, apiSecret, authToken, timezone sql.NullString
		active, isDataFromDB                                    int
	)
	if err := row.Scan(&u.ID, &email, &username, &apiKey, &apiSecret, &authToken, &active, &isDataFromDB, &timezone); err != nil {
		return User{}, err
	}
	u.Email = email.String
	u.Username = username.String
	u.APIKey = apiKey.String
	u.APISecret = apiSecret.String
	u.AuthToken = authToken.String
	u.Active = active != 0
	u.IsDataFromDB = isDataFromDB != 0
	u.Timezone = timezone.String
	return u, nil
}

// GetUser returns the user with id, or sql.ErrNoRows.
func (q *Queries) GetUser(ctx context.Context, id int64) (User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE _id = ?`, id)
	return scanUser(row)
}

// GetUserByCredentials looks a user up by key pair, or by token when the key
// pair is empty. It returns sql.ErrNoRows when nothing matches.
func (q *Queries) GetUserByCredentials(ctx context.Context, apiKey, apiSecret, authToken string) (User, error) {
	if apiKey != "" && apiSecret != "" {
		row := q.db.QueryRowContext(ctx,
			`SELECT `+userColumns+` FROM users WHERE apiKey = ? AND apiSecret = ?`, apiKey, apiSecret)
		return scanUser(row)
	}
	if authToken != "" {
		row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE authToken = ?`, authToken)
		return scanUser(row)
	}
	return User{}, sql.ErrNoRows
}

// UpsertUser inserts u or updates the profile of the user owning the same
// credentials. The stored row is returned.
func (q *Queries) UpsertUser(ctx context.Context, u User) (User, error) {
	existing, err := q.GetUserByCredentials(ctx, u.APIKey, u.APISecret, u.AuthToken)
	switch {
	case err == nil:
		_, err = q.db.ExecContext(ctx, `
UPDATE users
SET email = ?, username = ?, active = ?, timezone = COALESCE(?, timezone)
WHERE _id = ?`,
			nullString(u.Email), nullString(u.Username), boolInt(u.Active), nullString(u.Timezone), existing.ID)
		if err != nil {
			return User{}, fmt.Errorf("failed to update user: %w", err)
		}
		return q.GetUser(ctx, existing.ID)
	case errors.Is(err, sql.ErrNoRows):
		res, err := q.db.ExecContext(ctx, `
INSERT INTO users (email, username, apiKey, apiSecret, authToken, active, isDataFromDb, timezone)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			nullString(u.Email), nullString(u.Username), nullString(u.APIKey), nullString(u.APISecret),
			nullString(u.AuthToken), boolInt(u.Active), boolInt(u.IsDataFromDB), nullString(u.Timezone))
		if err != nil {
			return User{}, fmt.Errorf("failed to insert user: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return User{}, err
		}
		return q.GetUser(ctx, id)
	default:
		return User{}, err
	}
}

func (q *Queries) listUsers(ctx context.Context, query string, args ...any) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ListUsers returns every user ordered by id.
func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	return q.listUsers(ctx, `SELECT `+userColumns+` FROM users ORDER BY _id`)
}

// ListSyncableUsers returns active users whose data is not a frozen import.
func (q *Queries) ListSyncableUsers(ctx context.Context) ([]User, error) {
	return q.listUsers(ctx,
		`SELECT `+userColumns+` FROM users WHERE active = 1 AND isDataFromDb = 0 ORDER BY _id`)
}

// SetUserFlags updates the active and isDataFromDb flags of a user.
func (q *Queries) SetUserFlags(ctx context.Context, id int64, active, isDataFromDB bool) error {
	_, err := q.db.ExecContext(ctx, `UPDATE users SET active = ?, isDataFromDb = ? WHERE _id = ?`,
		boolInt(active), boolInt(isDataFromDB), id)
	return err
}

// DeleteUser removes a user; owned rows are removed by cascade.
func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM users WHERE _id = ?`, id)
	return err
}

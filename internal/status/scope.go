package status

import (
	"strconv"
	"strings"
)

// Scope is the partition over which a collection's rows and cursor are
// tracked independently.
type Scope struct {
	// UserID owns the scope. Nil for public collections.
	UserID     *int64
	Collection string
	// Symbol is set for public per-symbol collections.
	Symbol string
	// Start is the initial cursor used while no progress is stored.
	Start int64
}

// Key returns the stable identity of the scope, e.g. "u:7/ledgers/" or
// "public/publicTrades/tBTCUSD".
func (s Scope) Key() string {
	var b strings.Builder
	if s.UserID != nil {
		b.WriteString("u:")
		b.WriteString(strconv.FormatInt(*s.UserID, 10))
	} else {
		b.WriteString("public")
	}
	b.WriteByte('/')
	b.WriteString(s.Collection)
	b.WriteByte('/')
	b.WriteString(s.Symbol)
	return b.String()
}

func (s Scope) String() string { return s.Key() }

// IsPublic reports whether the scope is shared by all users.
func (s Scope) IsPublic() bool { return s.UserID == nil }

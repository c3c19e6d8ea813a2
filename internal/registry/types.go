package registry

import "fmt"

// Visibility tells whether a collection belongs to a user or is shared.
type Visibility int

const (
	// Private collections are owned by a single user and carry a user_id column.
	Private Visibility = iota
	// Public collections are shared by every user.
	Public
)

func (v Visibility) String() string {
	switch v {
	case Private:
		return "private"
	case Public:
		return "public"
	default:
		return fmt.Sprintf("visibility(%d)", int(v))
	}
}

// Mutability selects the merge policy applied to fetched rows.
type Mutability int

const (
	// AppendOnly collections only grow; duplicates are skipped through the unique index.
	AppendOnly Mutability = iota
	// Replaceable collections are overwritten wholesale by every fetched snapshot.
	Replaceable
)

func (m Mutability) String() string {
	switch m {
	case AppendOnly:
		return "append-only"
	case Replaceable:
		return "replaceable"
	default:
		return fmt.Sprintf("mutability(%d)", int(m))
	}
}

// Shape describes how rows of a collection are returned to readers.
type Shape int

const (
	// ObjectArray rows are returned as objects keyed by column.
	ObjectArray Shape = iota
	// ScalarArray rows hold a single field and are returned as a flat list of values.
	ScalarArray
)

func (s Shape) String() string {
	switch s {
	case ObjectArray:
		return "object-array"
	case ScalarArray:
		return "scalar-array"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// Type is the combination of the three independent collection tags.
type Type struct {
	Visibility Visibility
	Mutability Mutability
	Shape      Shape
}

func (t Type) String() string {
	return t.Visibility.String() + ":" + t.Mutability.String() + ":" + t.Shape.String()
}

// SortDirection is the ordering of a sort key.
type SortDirection int

const (
	// Desc orders from the highest value to the lowest.
	Desc SortDirection = iota
	// Asc orders from the lowest value to the highest.
	Asc
)

// SQL returns the SQL keyword for the direction.
func (d SortDirection) SQL() string {
	if d == Asc {
		return "ASC"
	}
	return "DESC"
}

// Sort is a single ordering key.
type Sort struct {
	Field     string
	Direction SortDirection
}

// SymbolStart is the initial cursor of one symbol partition of a public collection.
type SymbolStart struct {
	Symbol string
	Start  int64
}

// Start is the initial cursor of a collection. Per-user collections use Scalar;
// public per-symbol collections list one entry per symbol in PerSymbol.
type Start struct {
	Scalar    int64
	PerSymbol []SymbolStart
}

// For returns the initial cursor for symbol, falling back to Scalar.
func (s Start) For(symbol string) int64 {
	for _, ss := range s.PerSymbol {
		if ss.Symbol == symbol {
			return ss.Start
		}
	}
	return s.Scalar
}

// Row is a single record of a collection keyed by column name.
type Row map[string]any

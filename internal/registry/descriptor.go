package registry

import "slices"

// Descriptor is the sync strategy of one collection.
type Descriptor struct {
	// Method is the reporting method that reads the collection, e.g. "getLedgers".
	Method string
	// Name is the collection name, which is also its table name.
	Name string
	// MaxLimit bounds the number of rows requested per remote page.
	MaxLimit int
	// DateField is the pagination axis. Empty for replaceable collections.
	DateField string
	// SymbolField is the optional partition key.
	SymbolField string
	Sort        []Sort
	Start       Start
	Type        Type
	// UniqueFields is the composite dedup key. Empty for replaceable collections.
	UniqueFields []string
	// Fields restricts the columns served to readers. Empty means every model column.
	Fields []string
	// HasNewData is the initial value of the cursor flag for replaceable collections.
	HasNewData bool
	// Model names the table schema in the catalog.
	Model string
}

// IsAppendOnly reports whether fetched rows are merged with insert-or-ignore.
func (d Descriptor) IsAppendOnly() bool { return d.Type.Mutability == AppendOnly }

// IsPublic reports whether the collection is shared by all users.
func (d Descriptor) IsPublic() bool { return d.Type.Visibility == Public }

// IsPerSymbol reports whether the collection is synced per symbol partition.
func (d Descriptor) IsPerSymbol() bool {
	return d.IsPublic() && d.IsAppendOnly() && d.SymbolField != ""
}

// PrimarySort returns the first sort key, defaulting to the date field descending.
func (d Descriptor) PrimarySort() Sort {
	if len(d.Sort) > 0 {
		return d.Sort[0]
	}
	return Sort{Field: d.DateField, Direction: Desc}
}

// Clone returns a deep copy of d.
func (d Descriptor) Clone() Descriptor {
	c := d
	c.Sort = slices.Clone(d.Sort)
	c.UniqueFields = slices.Clone(d.UniqueFields)
	c.Fields = slices.Clone(d.Fields)
	c.Start.PerSymbol = slices.Clone(d.Start.PerSymbol)
	return c
}

// ColumnType is the SQL type of a model column.
type ColumnType string

// Column types used by the catalog.
const (
	BigInt  ColumnType = "BIGINT"
	Decimal ColumnType = "DECIMAL(22,12)"
	VarChar ColumnType = "VARCHAR(255)"
	Text    ColumnType = "TEXT"
	Int     ColumnType = "INT"
)

// IsInteger reports whether values of the column are stored as integers.
func (t ColumnType) IsInteger() bool { return t == BigInt || t == Int }

// IsNumeric reports whether values of the column are numbers.
func (t ColumnType) IsNumeric() bool { return t.IsInteger() || t == Decimal }

// Column is a single model column.
type Column struct {
	Name string
	Type ColumnType
}

// Model is the column schema of a table. Every table gets an autoincrement
// _id primary key; private models also get a user_id foreign key to users with
// cascading update and delete.
type Model struct {
	Name       string
	Columns    []Column
	Visibility Visibility
}

// OwnedByUser reports whether the table carries a user_id foreign key.
func (m Model) OwnedByUser() bool { return m.Visibility == Private }

// ColumnNames returns the column names in declaration order.
func (m Model) ColumnNames() []string {
	names := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name.
func (m Model) Column(name string) (Column, bool) {
	for _, c := range m.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Clone returns a deep copy of m.
func (m Model) Clone() Model {
	c := m
	c.Columns = slices.Clone(m.Columns)
	return c
}

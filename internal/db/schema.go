package db

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"github.com/checho651/bfx-report/database"
	"github.com/checho651/bfx-report/internal/registry"
)

// UserIDColumn is the owner column of private tables.
const UserIDColumn = "user_id"

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// EnsureSchema applies the embedded migrations and then creates every table
// and index of the registry catalog that does not exist yet.
func EnsureSchema(ctx context.Context, sqlDB *sql.DB, reg *registry.Registry) error {
	if err := database.MigrateUp(sqlDB, 0); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	stmts := CatalogDDL(reg)
	return RunTx(ctx, sqlDB, func(tx *sql.Tx) error {
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to create collection schema: %w", err)
			}
		}
		return nil
	})
}

// CatalogDDL returns the statements creating every model of reg together with
// the unique and range-scan indexes derived from its descriptors.
func CatalogDDL(reg *registry.Registry) []string {
	schemas := reg.Schemas()
	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	slices.Sort(names)

	byModel := make(map[string]registry.Descriptor)
	for _, d := range reg.Descriptors() {
		byModel[d.Model] = d
	}

	var stmts []string
	for _, name := range names {
		m := schemas[name]
		stmts = append(stmts, createTableSQL(m))
		stmts = append(stmts, indexSQL(m, byModel[name])...)
	}
	return stmts
}

func createTableSQL(m registry.Model) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", quoteIdent(m.Name))
	b.WriteString("  _id INTEGER PRIMARY KEY AUTOINCREMENT")
	for _, c := range m.Columns {
		fmt.Fprintf(&b, ",\n  %s %s", quoteIdent(c.Name), c.Type)
	}
	if m.OwnedByUser() {
		fmt.Fprintf(&b, ",\n  %s INT NOT NULL", UserIDColumn)
		fmt.Fprintf(&b, ",\n  FOREIGN KEY (%s) REFERENCES users (_id) ON UPDATE CASCADE ON DELETE CASCADE", UserIDColumn)
	}
	b.WriteString("\n)")
	return b.String()
}

func indexSQL(m registry.Model, d registry.Descriptor) []string {
	var stmts []string
	if len(d.UniqueFields) > 0 {
		fields := make([]string, 0, len(d.UniqueFields)+1)
		if m.OwnedByUser() {
			fields = append(fields, UserIDColumn)
		}
		for _, f := range d.UniqueFields {
			fields = append(fields, quoteIdent(f))
		}
		stmts = append(stmts, fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (%s)",
			quoteIdent(m.Name+"_uniq"), quoteIdent(m.Name), strings.Join(fields, ", ")))
	}
	if d.DateField != "" {
		fields := make([]string, 0, 3)
		if m.OwnedByUser() {
			fields = append(fields, UserIDColumn)
		}
		if d.IsPerSymbol() {
			fields = append(fields, quoteIdent(d.SymbolField))
		}
		fields = append(fields, quoteIdent(d.DateField))
		stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
			quoteIdent(m.Name+"_"+d.DateField), quoteIdent(m.Name), strings.Join(fields, ", ")))
	}
	if m.OwnedByUser() && len(d.UniqueFields) == 0 {
		stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
			quoteIdent(m.Name+"_"+UserIDColumn), quoteIdent(m.Name), UserIDColumn))
	}
	return stmts
}

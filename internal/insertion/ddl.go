package insertion

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/biostage/biostage/internal/inference"
	"github.com/biostage/biostage/pkg/types"
)

// CreateTables emits the DDL for every table and junction the schema names,
// always before any row is inserted into them. A table whose own DDL fails
// falls back to the minimal (id INTEGER PRIMARY KEY AUTOINCREMENT, data_json
// TEXT) shape so the run can proceed.
func CreateTables(ctx context.Context, db *sql.DB, schema *inference.Schema) error {
	idTypeOf := make(map[string]types.StorageClass, len(schema.Tables))
	for _, t := range schema.Tables {
		idTypeOf[t.Name] = idColumnType(t)
	}

	for _, t := range schema.Tables {
		stmt := buildCreateTable(t)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			fallback := fmt.Sprintf(
				`CREATE TABLE IF NOT EXISTS %s (id INTEGER PRIMARY KEY AUTOINCREMENT, data_json TEXT)`, t.Name)
			if _, ferr := db.ExecContext(ctx, fallback); ferr != nil {
				return fmt.Errorf("creating table %s (fallback also failed: %v): %w", t.Name, ferr, err)
			}
		}
	}

	for _, j := range schema.Junctions {
		stmt := buildCreateJunction(j, idTypeOf)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating junction table %s: %w", j.Table, err)
		}
	}

	return nil
}

func idColumnType(t types.TableDef) types.StorageClass {
	for _, c := range t.Columns {
		if c.PrimaryKey {
			return c.Type
		}
	}
	return types.Integer
}

func buildCreateTable(t types.TableDef) string {
	var cols []string
	for _, c := range t.Columns {
		cols = append(cols, buildColumnDef(c))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", t.Name, strings.Join(cols, ", "))
}

func buildColumnDef(c types.ColumnDef) string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte(' ')
	b.WriteString(string(c.Type))
	if c.PrimaryKey {
		b.WriteString(" PRIMARY KEY")
		if c.AutoIncrement {
			b.WriteString(" AUTOINCREMENT")
		}
	}
	if c.NotNull {
		b.WriteString(" NOT NULL")
	}
	if c.Default != "" {
		b.WriteString(" DEFAULT ")
		b.WriteString(c.Default)
	}
	if c.ForeignKey != "" {
		b.WriteString(" REFERENCES ")
		b.WriteString(c.ForeignKey)
		b.WriteString("(id)")
	}
	return b.String()
}

func buildCreateJunction(j types.JunctionDef, idTypeOf map[string]types.StorageClass) string {
	typeA := idTypeOf[j.TypeA]
	if typeA == "" {
		typeA = types.Integer
	}
	typeB := idTypeOf[j.TypeB]
	if typeB == "" {
		typeB = types.Integer
	}
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (%s %s REFERENCES %s(id), %s %s REFERENCES %s(id), PRIMARY KEY(%s, %s))",
		j.Table, j.ColA, typeA, j.TypeA, j.ColB, typeB, j.TypeB, j.ColA, j.ColB)
}

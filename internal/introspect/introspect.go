// Package introspect summarizes a staged compartment's schema for analytic
// callers: per-table column, foreign-key, and index metadata, plus a
// handful of sample rows. Reserved chunk-store system tables are never
// listed; a single table's introspection failure is isolated onto that
// table's record rather than failing the whole summary.
package introspect

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/biostage/biostage/internal/chunkstore"
	"github.com/biostage/biostage/pkg/types"
)

const sampleRowLimit = 3

// Summarize builds an IntrospectResult covering every user table and view
// in db.
func Summarize(ctx context.Context, db *sql.DB) (types.IntrospectResult, error) {
	var result types.IntrospectResult
	result.Schema.Tables = make(map[string]types.TableInfo)

	objects, err := listObjects(ctx, db)
	if err != nil {
		return result, fmt.Errorf("listing schema objects: %w", err)
	}

	for _, obj := range objects {
		result.Schema.Tables[obj.name] = summarizeOne(ctx, db, obj)
	}

	result.Success = true
	result.Schema.DatabaseSummary = fmt.Sprintf("%d tables/views", len(result.Schema.Tables))
	return result, nil
}

type schemaObject struct {
	name string
	kind string // "table" or "view"
}

func listObjects(ctx context.Context, db *sql.DB) ([]schemaObject, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name, type FROM sqlite_master WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var objects []schemaObject
	for rows.Next() {
		var name, kind string
		if err := rows.Scan(&name, &kind); err != nil {
			return nil, err
		}
		if chunkstore.SystemTableNames[name] {
			continue
		}
		objects = append(objects, schemaObject{name: name, kind: kind})
	}
	return objects, rows.Err()
}

// summarizeOne never returns an error: a failure at any step is recorded on
// the returned TableInfo's Error field instead, so one broken table cannot
// take down the whole introspection response.
func summarizeOne(ctx context.Context, db *sql.DB, obj schemaObject) types.TableInfo {
	info := types.TableInfo{Type: obj.kind}

	columns, err := tableColumns(ctx, db, obj.name)
	if err != nil {
		info.Error = fmt.Sprintf("reading columns: %v", err)
		return info
	}
	info.Columns = columns

	fks, err := foreignKeyHints(ctx, db, obj.name)
	if err != nil {
		info.Error = fmt.Sprintf("reading foreign keys: %v", err)
		return info
	}
	info.ForeignKeys = fks

	indexes, err := indexes(ctx, db, obj.name)
	if err != nil {
		info.Error = fmt.Sprintf("reading indexes: %v", err)
		return info
	}
	info.Indexes = indexes

	if obj.kind == "table" {
		count, err := rowCount(ctx, db, obj.name)
		if err != nil {
			info.Error = fmt.Sprintf("counting rows: %v", err)
			return info
		}
		info.RowCount = count

		samples, err := sampleRows(ctx, db, obj.name, columns)
		if err != nil {
			info.Error = fmt.Sprintf("reading sample rows: %v", err)
			return info
		}
		info.SampleData = samples
	}

	return info
}

func tableColumns(ctx context.Context, db *sql.DB, table string) ([]types.ColumnInfo, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%q)`, table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []types.ColumnInfo
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull int
		var dflt sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		columns = append(columns, types.ColumnInfo{
			Name:       name,
			Type:       colType,
			NotNull:    notNull != 0,
			Default:    dflt.String,
			PrimaryKey: pk != 0,
		})
	}
	return columns, rows.Err()
}

func foreignKeyHints(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA foreign_key_list(%q)`, table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hints []string
	for rows.Next() {
		var id, seq int
		var refTable, from, to string
		var onUpdate, onDelete, match string
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}
		hints = append(hints, fmt.Sprintf("%s -> %s.%s", from, refTable, to))
	}
	return hints, rows.Err()
}

func indexes(ctx context.Context, db *sql.DB, table string) ([]types.IndexInfo, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA index_list(%q)`, table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []types.IndexInfo
	for rows.Next() {
		var seq int
		var name string
		var unique int
		var origin, partial string
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return nil, err
		}
		result = append(result, types.IndexInfo{Name: name, Unique: unique != 0})
	}
	return result, rows.Err()
}

func rowCount(ctx context.Context, db *sql.DB, table string) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %q`, table)).Scan(&count)
	return count, err
}

func sampleRows(ctx context.Context, db *sql.DB, table string, columns []types.ColumnInfo) ([]map[string]any, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`SELECT * FROM %q LIMIT %d`, table, sampleRowLimit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var samples []map[string]any
	for rows.Next() {
		raw := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(names))
		for i, name := range names {
			if b, ok := raw[i].([]byte); ok {
				row[name] = string(b)
			} else {
				row[name] = raw[i]
			}
		}
		samples = append(samples, row)
	}
	return samples, rows.Err()
}

// TableColumns answers the table_columns operation for a single named
// table.
func TableColumns(ctx context.Context, db *sql.DB, table string) (types.TableColumnsResult, error) {
	columns, err := tableColumns(ctx, db, table)
	if err != nil {
		return types.TableColumnsResult{}, fmt.Errorf("reading columns for %s: %w", table, err)
	}
	if len(columns) == 0 {
		return types.TableColumnsResult{}, fmt.Errorf("table %s not found", table)
	}
	return types.TableColumnsResult{Success: true, Table: table, Columns: columns}, nil
}

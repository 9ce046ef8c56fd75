package insertion

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/biostage/biostage/internal/chunkstore"
	"github.com/biostage/biostage/internal/inference"
	"github.com/biostage/biostage/internal/normalize"
	"github.com/biostage/biostage/internal/sqltype"
	"github.com/biostage/biostage/pkg/types"
)

// insertFallback materialises one of the three degenerate shapes a payload
// takes when discovery found no entities at all: a bare scalar, an array of
// scalars, or an object with no entity-shaped fields.
func insertFallback(ctx context.Context, db *sql.DB, payload any, kind string, cfg types.Config) (int, error) {
	switch kind {
	case "scalar_data":
		return insertScalarData(ctx, db, payload, cfg)
	case "array_data":
		elements, _ := payload.([]any)
		return insertArrayData(ctx, db, elements, cfg)
	case "root_object":
		obj, _ := payload.(map[string]any)
		return insertRootObject(ctx, db, obj, cfg)
	default:
		return 0, fmt.Errorf("unknown fallback shape %q", kind)
	}
}

// fallbackScalar chunks a string value against the default threshold only
// — fallback tables carry no entity type for a descriptor lookup to key on.
func fallbackScalar(ctx context.Context, db *sql.DB, val any, cfg types.Config) (any, error) {
	s, ok := val.(string)
	if !ok {
		return val, nil
	}
	threshold := cfg.ChunkThreshold
	if threshold == 0 {
		threshold = types.DefaultChunkThreshold
	}
	if !chunkstore.ShouldChunk(len(s), nil, threshold) {
		return s, nil
	}
	return chunkstore.Store(ctx, db, s, chunkstore.ContentTypeText, cfg)
}

func insertScalarData(ctx context.Context, db *sql.DB, payload any, cfg types.Config) (int, error) {
	class := sqltype.ClassOf(payload)
	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS scalar_data (id INTEGER PRIMARY KEY AUTOINCREMENT, value %s)", class)
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return 0, fmt.Errorf("creating scalar_data: %w", err)
	}

	val, err := fallbackScalar(ctx, db, payload, cfg)
	if err != nil {
		return 0, err
	}
	res, err := db.ExecContext(ctx, "INSERT INTO scalar_data (value) VALUES (?)", coerceForColumn(class, val))
	if err != nil {
		return 0, fmt.Errorf("inserting scalar_data row: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func insertArrayData(ctx context.Context, db *sql.DB, elements []any, cfg types.Config) (int, error) {
	encoded := make([]any, len(elements))
	set := sqltype.NewSet()
	for i, el := range elements {
		switch el.(type) {
		case map[string]any, []any:
			b, err := json.Marshal(el)
			if err != nil {
				return 0, fmt.Errorf("encoding array_data element %d: %w", i, err)
			}
			encoded[i] = string(b)
		default:
			encoded[i] = el
		}
		set.Observe(encoded[i])
	}
	class := sqltype.Resolve(set)

	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS array_data (id INTEGER PRIMARY KEY AUTOINCREMENT, value %s)", class)
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return 0, fmt.Errorf("creating array_data: %w", err)
	}

	inserted := 0
	for _, val := range encoded {
		v, err := fallbackScalar(ctx, db, val, cfg)
		if err != nil {
			return inserted, err
		}
		res, err := db.ExecContext(ctx, "INSERT INTO array_data (value) VALUES (?)", coerceForColumn(class, v))
		if err != nil {
			return inserted, fmt.Errorf("inserting array_data row: %w", err)
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
	}
	return inserted, nil
}

func insertRootObject(ctx context.Context, db *sql.DB, obj map[string]any, cfg types.Config) (int, error) {
	dec := inference.DecomposeEntity(obj)

	type colVal struct {
		name  string
		class types.StorageClass
		val   any
	}
	var cols []colVal

	for field, val := range dec.Scalars {
		cols = append(cols, colVal{normalize.Column(field), sqltype.ClassOf(val), val})
	}
	for field, m := range dec.FlatMaps {
		for sub, val := range m {
			switch val.(type) {
			case nil, bool, float64, string:
			default:
				continue
			}
			cols = append(cols, colVal{normalize.Column(field) + "_" + normalize.Column(sub), sqltype.ClassOf(val), val})
		}
	}
	for field, val := range dec.JSONFields {
		b, err := json.Marshal(val)
		if err != nil {
			continue
		}
		cols = append(cols, colVal{normalize.Column(field) + "_json", types.Text, string(b)})
	}

	var defs []string
	var names []string
	var args []any
	for _, c := range cols {
		defs = append(defs, fmt.Sprintf("%s %s", c.name, c.class))
		names = append(names, c.name)
		v, err := fallbackScalar(ctx, db, c.val, cfg)
		if err != nil {
			return 0, err
		}
		args = append(args, coerceForColumn(c.class, v))
	}

	createStmt := "CREATE TABLE IF NOT EXISTS root_object (id INTEGER PRIMARY KEY AUTOINCREMENT"
	if len(defs) > 0 {
		createStmt += ", " + strings.Join(defs, ", ")
	}
	createStmt += ")"
	if _, err := db.ExecContext(ctx, createStmt); err != nil {
		return 0, fmt.Errorf("creating root_object: %w", err)
	}

	var insertStmt string
	if len(names) == 0 {
		insertStmt = "INSERT INTO root_object DEFAULT VALUES"
	} else {
		placeholders := strings.TrimRight(strings.Repeat("?, ", len(names)), ", ")
		insertStmt = fmt.Sprintf("INSERT INTO root_object (%s) VALUES (%s)", strings.Join(names, ", "), placeholders)
	}
	res, err := db.ExecContext(ctx, insertStmt, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting root_object row: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

package gate

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/biostage/biostage/internal/chunkstore"
	"github.com/biostage/biostage/pkg/types"
)

// Execute validates sql, runs it against db, and returns the result with any
// chunk-reference token found in a TEXT cell resolved back to its original
// content. A token that itself resolves to more chunk-reference tokens is
// never re-resolved: resolution is a single pass over the driver's raw
// output, not a fixpoint walk.
func Execute(ctx context.Context, db *sql.DB, sql_ string) (types.QueryResult, error) {
	queryType, err := Validate(sql_)
	if err != nil {
		return types.QueryResult{Success: false, Error: err.Error(), Query: sql_}, err
	}

	rows, err := db.QueryContext(ctx, sql_)
	if err != nil {
		return types.QueryResult{Success: false, Error: err.Error(), Query: sql_, QueryType: queryType}, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return types.QueryResult{Success: false, Error: err.Error(), Query: sql_, QueryType: queryType}, err
	}

	resolvedAny := false
	var results []map[string]any
	for rows.Next() {
		raw := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return types.QueryResult{Success: false, Error: err.Error(), Query: sql_, QueryType: queryType}, err
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			value := raw[i]
			if s, ok := asString(value); ok && chunkstore.IsToken(s) {
				resolved, wasResolved := resolveChunk(ctx, db, s)
				if wasResolved {
					resolvedAny = true
				}
				row[col] = resolved
				continue
			}
			row[col] = value
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return types.QueryResult{Success: false, Error: err.Error(), Query: sql_, QueryType: queryType}, err
	}

	return types.QueryResult{
		Success:                true,
		Results:                results,
		RowCount:               len(results),
		ColumnNames:            columns,
		QueryType:              queryType,
		ChunkedContentResolved: resolvedAny,
		Query:                 sql_,
	}, nil
}

// asString reports whether value, as scanned from the driver, is a string
// (modernc.org/sqlite returns TEXT columns as string or []byte depending on
// declared type, so both are handled).
func asString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	default:
		return "", false
	}
}

// resolveChunk resolves one chunk-reference token, falling back to a
// sentinel string on failure so the caller never sees a partial result.
// wasResolved is true only when the underlying content was actually found
// and decoded.
func resolveChunk(ctx context.Context, db *sql.DB, token string) (any, bool) {
	content, err := chunkstore.Retrieve(ctx, db, token)
	if err != nil {
		contentID, _ := chunkstore.ContentID(token)
		if errors.Is(err, types.ErrMissingChunkContent) {
			return fmt.Sprintf("[CHUNKED_CONTENT_NOT_FOUND:%s]", contentID), false
		}
		return fmt.Sprintf("[CHUNKED_CONTENT_ERROR:%s]", err.Error()), false
	}

	var parsed any
	if err := json.Unmarshal([]byte(content), &parsed); err == nil {
		return parsed, true
	}
	return content, true
}

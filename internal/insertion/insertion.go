// Package insertion materialises a payload into its synthesised tables:
// Phase A walks the payload a second time, inserting one row per
// discovered entity and memoising by payload object identity so a shared
// entity is only ever inserted once; Phase B inserts the junction rows
// accumulated while Phase A walked each entity's array-of-entity fields.
package insertion

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/biostage/biostage/internal/descriptor"
	"github.com/biostage/biostage/internal/inference"
	"github.com/biostage/biostage/pkg/types"
)

// Result summarises one Insert call for the Stage response.
type Result struct {
	RowsInserted int
	Warnings     []string
}

// Insert runs DDL creation followed by Phase A and Phase B against db, for
// payload already shaped by schema (the output of inference.Synthesize
// over the same payload). desc may be nil; cfg governs chunking.
func Insert(ctx context.Context, db *sql.DB, payload any, schema *inference.Schema, desc *descriptor.Graph, cfg types.Config) (*Result, error) {
	res := &Result{}

	if schema.Fallback != "" {
		n, err := insertFallback(ctx, db, payload, schema.Fallback, cfg)
		if err != nil {
			return res, fmt.Errorf("%w: %v", types.ErrStagingFailure, err)
		}
		res.RowsInserted = n
		return res, nil
	}

	if err := CreateTables(ctx, db, schema); err != nil {
		return res, fmt.Errorf("%w: %v", types.ErrStagingFailure, err)
	}

	ins := newInserter(ctx, db, schema, desc, cfg)
	if _, err := ins.walk(payload, "", ""); err != nil {
		return res, fmt.Errorf("%w: %v", types.ErrStagingFailure, err)
	}

	n, err := ins.insertJunctions()
	if err != nil {
		return res, fmt.Errorf("%w: %v", types.ErrStagingFailure, err)
	}

	res.RowsInserted = ins.rowsInserted + n
	res.Warnings = ins.warnings
	return res, nil
}

package insertion

import (
	"context"
	"database/sql"

	"github.com/biostage/biostage/internal/descriptor"
	"github.com/biostage/biostage/internal/inference"
	"github.com/biostage/biostage/pkg/types"
)

// pairKey is one de-duplicated (parentID, childID) pair awaiting a
// junction-row insert.
type pairKey struct {
	A, B any
}

// inserter carries the state of a single Insert call: the identity-memo
// and the accumulated relationship pairs. Not shared across calls.
type inserter struct {
	ctx  context.Context
	db   *sql.DB
	desc *descriptor.Graph
	cfg  types.Config

	tables       map[string]types.TableDef   // entity type -> its TableDef
	junctionDefs map[string]types.JunctionDef // table name -> its JunctionDef

	memo  map[uintptr]any          // payload object identity -> assigned row id
	pairs map[string]map[pairKey]bool // junction table name -> de-duplicated pairs

	typeCounter  int
	rowsInserted int
	warnings     []string
}

func newInserter(ctx context.Context, db *sql.DB, schema *inference.Schema, desc *descriptor.Graph, cfg types.Config) *inserter {
	tables := make(map[string]types.TableDef, len(schema.Tables))
	for _, t := range schema.Tables {
		tables[t.EntityType] = t
	}
	junctionDefs := make(map[string]types.JunctionDef, len(schema.Junctions))
	for _, j := range schema.Junctions {
		junctionDefs[j.Table] = j
	}
	return &inserter{
		ctx:          ctx,
		db:           db,
		desc:         desc,
		cfg:          cfg,
		tables:       tables,
		junctionDefs: junctionDefs,
		memo:         make(map[uintptr]any),
		pairs:        make(map[string]map[pairKey]bool),
	}
}

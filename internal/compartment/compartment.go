// Package compartment orchestrates one isolated staging compartment: the
// SQLite file backing it, the schema-inference and insertion passes that
// fill it from a fetched payload, and the read-only gate and introspector
// that read it back. A Manager tracks compartments by access identifier and
// serializes operations against each one independently.
package compartment

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
	"go.uber.org/zap"

	"github.com/biostage/biostage/internal/chunkstore"
	"github.com/biostage/biostage/internal/descriptor"
	"github.com/biostage/biostage/internal/gate"
	"github.com/biostage/biostage/internal/inference"
	"github.com/biostage/biostage/internal/insertion"
	"github.com/biostage/biostage/internal/introspect"
	"github.com/biostage/biostage/pkg/types"
)

// Compartment owns one isolated SQLite file and every operation against it.
type Compartment struct {
	mu      sync.Mutex
	id      string
	db      *sql.DB
	logger  *zap.Logger
	dataDir string
	cfg     types.Config
	desc    *descriptor.Graph
}

// dbFileName returns the on-disk file name for a compartment's SQLite
// database, derived from its access identifier.
func dbFileName(id string) string {
	return id + ".db"
}

// open creates (or reopens) the compartment's SQLite file under dataDir and
// initializes the chunk store's reserved system tables. It does not create
// any user table: those come from the first Stage call.
func open(ctx context.Context, id, dataDir string, cfg types.Config, desc *descriptor.Graph, logger *zap.Logger) (*Compartment, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating compartment directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFileName(id))
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening compartment database: %w", err)
	}

	if err := chunkstore.Init(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing chunk store: %w", err)
	}

	return &Compartment{
		id:      id,
		db:      db,
		logger:  logger,
		dataDir: dataDir,
		cfg:     cfg,
		desc:    desc,
	}, nil
}

// Close releases the underlying database handle without removing the
// compartment's data from disk.
func (c *Compartment) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db.Close()
}

// Delete closes the database handle and removes the compartment's SQLite
// file from disk.
func (c *Compartment) Delete() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.db.Close(); err != nil {
		return fmt.Errorf("closing compartment before delete: %w", err)
	}
	path := filepath.Join(c.dataDir, dbFileName(c.id))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing compartment file: %w", err)
	}
	return nil
}

// Stage unwraps payload's top-level {"data": ...} envelope when present,
// infers a schema, materializes it, and summarizes the result. Table
// creation always completes before any row is inserted, and every entity
// row is inserted before the junction-row pass runs, following
// insertion.Insert's own ordering.
func (c *Compartment) Stage(ctx context.Context, payload any) (types.StageResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	unwrapped, pagination := unwrapEnvelope(payload)

	schema, _ := inference.Synthesize(unwrapped)
	result, err := insertion.Insert(ctx, c.db, unwrapped, schema, c.desc, c.cfg)
	if err != nil {
		return types.StageResult{Success: false, Message: err.Error()}, err
	}

	schemas, err := summarizeSchemas(ctx, c.db, schema)
	if err != nil {
		c.logger.Warn("summarizing staged schema", zap.Error(err))
	}

	message := fmt.Sprintf("staged %d rows across %d tables", result.RowsInserted, len(schemas))
	skipped := 0
	for _, n := range schema.MixedArraySkips {
		skipped += n
	}
	if skipped > 0 {
		message += fmt.Sprintf("; skipped %d array elements whose entity type differed from the first element of their array", skipped)
	}

	return types.StageResult{
		Success:    true,
		Message:    message,
		Schemas:    schemas,
		TableCount: len(schemas),
		TotalRows:  result.RowsInserted,
		Pagination: pagination,
	}, nil
}

// unwrapEnvelope strips a single top-level {"data": {...}} key when payload
// takes that shape, and lifts pagination info from any page-info child
// reporting hasNextPage.
func unwrapEnvelope(payload any) (any, *types.PaginationInfo) {
	obj, ok := payload.(map[string]any)
	if !ok {
		return payload, nil
	}

	inner := obj
	if len(obj) == 1 {
		if data, ok := obj["data"]; ok {
			if dataObj, ok := data.(map[string]any); ok {
				inner = dataObj
			} else {
				return data, nil
			}
		}
	}

	pagination := findPagination(inner)
	return inner, pagination
}

// findPagination searches one level into inner for a page-info child
// reporting hasNextPage == true, and lifts it into a PaginationInfo.
func findPagination(inner map[string]any) *types.PaginationInfo {
	for _, v := range inner {
		obj, ok := v.(map[string]any)
		if !ok {
			continue
		}
		pageInfo, ok := obj["pageInfo"].(map[string]any)
		if !ok {
			continue
		}
		hasNext, _ := pageInfo["hasNextPage"].(bool)
		if !hasNext {
			continue
		}
		info := &types.PaginationInfo{HasNextPage: true}
		if b, ok := pageInfo["hasPreviousPage"].(bool); ok {
			info.HasPreviousPage = b
		}
		if s, ok := pageInfo["endCursor"].(string); ok {
			info.EndCursor = s
		}
		if s, ok := pageInfo["startCursor"].(string); ok {
			info.StartCursor = s
		}
		if edges, ok := obj["edges"].([]any); ok {
			info.CurrentCount = len(edges)
		}
		info.Suggestion = "additional pages are available; refetch with the supplied cursor to continue staging"
		return info
	}
	return nil
}

// summarizeSchemas builds one SchemaSummary per table the just-completed
// Stage call synthesized, reusing the introspector's column/row-count/
// sample-row logic rather than duplicating it.
func summarizeSchemas(ctx context.Context, db *sql.DB, schema *inference.Schema) (map[string]types.SchemaSummary, error) {
	if schema.Fallback != "" {
		return summarizeTableNames(ctx, db, []string{schema.Fallback})
	}
	names := make([]string, 0, len(schema.Tables)+len(schema.Junctions))
	for _, t := range schema.Tables {
		names = append(names, t.Name)
	}
	for _, j := range schema.Junctions {
		names = append(names, j.Table)
	}
	return summarizeTableNames(ctx, db, names)
}

func summarizeTableNames(ctx context.Context, db *sql.DB, names []string) (map[string]types.SchemaSummary, error) {
	full, err := introspect.Summarize(ctx, db)
	if err != nil {
		return nil, err
	}
	summaries := make(map[string]types.SchemaSummary, len(names))
	for _, name := range names {
		info, ok := full.Schema.Tables[name]
		if !ok {
			continue
		}
		columns := make([]string, len(info.Columns))
		for i, col := range info.Columns {
			columns[i] = col.Name
		}
		summaries[name] = types.SchemaSummary{
			Columns:    columns,
			RowCount:   info.RowCount,
			SampleData: info.SampleData,
		}
	}
	return summaries, nil
}

// Query runs sql_ through the analytic SQL gate.
func (c *Compartment) Query(ctx context.Context, sql_ string) (types.QueryResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gate.Execute(ctx, c.db, sql_)
}

// Introspect summarizes every user table and view in the compartment.
func (c *Compartment) Introspect(ctx context.Context) (types.IntrospectResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return introspect.Summarize(ctx, c.db)
}

// TableColumns answers the table_columns operation for one named table.
func (c *Compartment) TableColumns(ctx context.Context, table string) (types.TableColumnsResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return introspect.TableColumns(ctx, c.db, table)
}

// ChunkingStats aggregates chunk-store statistics for the compartment.
func (c *Compartment) ChunkingStats(ctx context.Context) (types.ChunkingStatsResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return chunkstore.Stats(ctx, c.db)
}

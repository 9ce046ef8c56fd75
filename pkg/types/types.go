// Package types defines the data model shared across the staging engine:
// the payload tree shape, storage classes, table/junction descriptors, and
// the response envelopes returned by the engine's external operations.
package types

// JSON is any value that can appear in a decoded JSON payload: nil, bool,
// float64/json.Number, string, []any, or map[string]any.
type JSON = any

// StorageClass is a SQLite column affinity as produced by the type resolver.
type StorageClass string

const (
	Integer StorageClass = "INTEGER"
	Real    StorageClass = "REAL"
	Text    StorageClass = "TEXT"
	Blob    StorageClass = "BLOB"
	Numeric StorageClass = "NUMERIC"
)

// ColumnDef describes one column of an inferred table.
type ColumnDef struct {
	Name           string
	Type           StorageClass
	NotNull        bool
	PrimaryKey     bool
	AutoIncrement  bool
	Default        string
	ForeignKey     string // referenced table name, if this is a <field>_id column
}

// TableDef is the synthesised shape of one entity type's table.
type TableDef struct {
	Name       string // normalised SQL table name
	EntityType string // the inferred entity type name this table carries
	Columns    []ColumnDef
}

// JunctionDef is a many-to-many link table between two distinct entity types.
type JunctionDef struct {
	Table string // canonical alphabetical name, e.g. "disease_target"
	TypeA string
	TypeB string
	ColA  string // "<TypeA>_id"
	ColB  string // "<TypeB>_id"
}

// ChunkPriority controls how the chunk store treats a field's size.
type ChunkPriority string

const (
	PriorityNever     ChunkPriority = "never"
	PriorityAlways    ChunkPriority = "always"
	PrioritySizeBased ChunkPriority = "size-based"
)

// ChunkingRule overrides the default chunk-store threshold for one field.
type ChunkingRule struct {
	Priority  ChunkPriority
	Threshold int // bytes; meaning depends on Priority
}

// SchemaSummary describes one table in a Stage response.
type SchemaSummary struct {
	Columns   []string         `json:"columns"`
	RowCount  int              `json:"row_count"`
	SampleData []map[string]any `json:"sample_data"`
}

// PaginationInfo is lifted from a graph-query page-info node when present.
type PaginationInfo struct {
	HasNextPage     bool   `json:"hasNextPage"`
	HasPreviousPage bool   `json:"hasPreviousPage"`
	CurrentCount    int    `json:"currentCount"`
	TotalCount      int    `json:"totalCount"`
	EndCursor       string `json:"endCursor,omitempty"`
	StartCursor     string `json:"startCursor,omitempty"`
	Suggestion      string `json:"suggestion,omitempty"`
}

// StageResult is the response of the stage operation.
type StageResult struct {
	Success    bool                     `json:"success"`
	Message    string                   `json:"message"`
	Schemas    map[string]SchemaSummary `json:"schemas,omitempty"`
	TableCount int                      `json:"table_count"`
	TotalRows  int                      `json:"total_rows"`
	Pagination *PaginationInfo          `json:"pagination,omitempty"`
}

// QueryResult is the response of the query operation.
type QueryResult struct {
	Success               bool             `json:"success"`
	Results               []map[string]any `json:"results,omitempty"`
	RowCount              int              `json:"row_count"`
	ColumnNames           []string         `json:"column_names,omitempty"`
	QueryType             string           `json:"query_type,omitempty"`
	ChunkedContentResolved bool            `json:"chunked_content_resolved,omitempty"`
	Error                 string           `json:"error,omitempty"`
	Query                 string           `json:"query,omitempty"`
}

// ColumnInfo is per-column metadata returned by introspection.
type ColumnInfo struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	NotNull    bool   `json:"not_null"`
	Default    string `json:"default,omitempty"`
	PrimaryKey bool   `json:"primary_key"`
}

// IndexInfo is per-index metadata returned by introspection.
type IndexInfo struct {
	Name   string `json:"name"`
	Unique bool   `json:"unique"`
}

// TableInfo is the full introspection record for one table or view.
type TableInfo struct {
	Type        string           `json:"type"` // "table" or "view"
	RowCount    int              `json:"row_count"`
	Columns     []ColumnInfo     `json:"columns"`
	ForeignKeys []string         `json:"foreign_keys,omitempty"`
	Indexes     []IndexInfo      `json:"indexes,omitempty"`
	SampleData  []map[string]any `json:"sample_data,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// IntrospectResult is the response of the introspect operation.
type IntrospectResult struct {
	Success bool `json:"success"`
	Schema  struct {
		DatabaseSummary string               `json:"database_summary"`
		Tables          map[string]TableInfo `json:"tables"`
	} `json:"schema_info"`
}

// TableColumnsResult is the response of the table_columns operation.
type TableColumnsResult struct {
	Success bool         `json:"success"`
	Table   string       `json:"table"`
	Columns []ColumnInfo `json:"columns"`
}

// ChunkingStatsResult is the response of the chunking_stats operation.
type ChunkingStatsResult struct {
	Metadata struct {
		TotalChunkedItems int     `json:"total_chunked_items"`
		TotalOriginalSize int64   `json:"total_original_size"`
		AvgOriginalSize   float64 `json:"avg_original_size"`
		TotalChunks       int     `json:"total_chunks"`
		CompressedItems   int     `json:"compressed_items"`
	} `json:"metadata"`
	Chunks struct {
		TotalChunkRecords int     `json:"total_chunk_records"`
		TotalStoredSize   int64   `json:"total_stored_size"`
		AvgChunkSize      float64 `json:"avg_chunk_size"`
	} `json:"chunks"`
	CompressionRatio float64 `json:"compression_ratio"`
}

package chunkstore

// System table DDL for the chunk store. These two tables are reserved:
// user-table name collisions with them are avoided by the schema
// inference engine.
const (
	createContentChunks = `CREATE TABLE IF NOT EXISTS content_chunks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    content_id TEXT NOT NULL,
    chunk_index INTEGER NOT NULL,
    chunk_data TEXT NOT NULL,
    chunk_size INTEGER NOT NULL,
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    UNIQUE(content_id, chunk_index)
);`

	createChunkMetadata = `CREATE TABLE IF NOT EXISTS chunk_metadata (
    content_id TEXT PRIMARY KEY,
    total_chunks INTEGER NOT NULL,
    original_size INTEGER NOT NULL,
    content_type TEXT NOT NULL,
    compressed INTEGER NOT NULL DEFAULT 0,
    encoding TEXT,
    created_at TEXT NOT NULL DEFAULT (datetime('now'))
);`

	idxContentChunksLookup = `CREATE INDEX IF NOT EXISTS idx_content_chunks_lookup ON content_chunks(content_id, chunk_index);`
	idxChunkMetadataSize   = `CREATE INDEX IF NOT EXISTS idx_chunk_metadata_size ON chunk_metadata(original_size);`
)

// SchemaDDL lists every statement needed to create the chunk store's
// reserved system tables and their indexes, in dependency order.
var SchemaDDL = []string{
	createContentChunks,
	createChunkMetadata,
	idxContentChunksLookup,
	idxChunkMetadataSize,
}

// SystemTableNames lists the reserved table names the chunk store owns.
// The schema inference engine must never synthesise a user table with one
// of these names.
var SystemTableNames = map[string]bool{
	"content_chunks": true,
	"chunk_metadata": true,
}

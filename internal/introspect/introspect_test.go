package introspect

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/biostage/biostage/internal/chunkstore"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, chunkstore.Init(context.Background(), db))
	_, err = db.Exec(`CREATE TABLE target (id TEXT PRIMARY KEY, approved_symbol TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE disease (id TEXT PRIMARY KEY, name TEXT, target_id TEXT REFERENCES target(id))`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO target (id, approved_symbol) VALUES ('ENSG1', 'AR')`)
	require.NoError(t, err)
	return db
}

func TestSummarizeExcludesSystemTables(t *testing.T) {
	db := openTestDB(t)
	result, err := Summarize(context.Background(), db)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Contains(t, result.Schema.Tables, "target")
	assert.Contains(t, result.Schema.Tables, "disease")
	assert.NotContains(t, result.Schema.Tables, "content_chunks")
	assert.NotContains(t, result.Schema.Tables, "chunk_metadata")
}

func TestSummarizeReportsColumnsRowCountAndSamples(t *testing.T) {
	db := openTestDB(t)
	result, err := Summarize(context.Background(), db)
	require.NoError(t, err)

	target := result.Schema.Tables["target"]
	assert.Equal(t, "table", target.Type)
	assert.Equal(t, 1, target.RowCount)
	assert.Empty(t, target.Error)
	assert.Len(t, target.SampleData, 1)

	var names []string
	for _, c := range target.Columns {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"id", "approved_symbol"}, names)
}

func TestSummarizeCapturesForeignKeyHint(t *testing.T) {
	db := openTestDB(t)
	result, err := Summarize(context.Background(), db)
	require.NoError(t, err)

	disease := result.Schema.Tables["disease"]
	assert.Contains(t, disease.ForeignKeys, "target_id -> target.id")
}

func TestTableColumnsUnknownTable(t *testing.T) {
	db := openTestDB(t)
	_, err := TableColumns(context.Background(), db, "nonexistent")
	assert.Error(t, err)
}

func TestTableColumnsKnownTable(t *testing.T) {
	db := openTestDB(t)
	result, err := TableColumns(context.Background(), db, "target")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "target", result.Table)
	assert.Len(t, result.Columns, 2)
}

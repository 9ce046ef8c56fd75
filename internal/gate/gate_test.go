package gate

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/biostage/biostage/internal/chunkstore"
	"github.com/biostage/biostage/pkg/types"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, chunkstore.Init(context.Background(), db))
	_, err = db.Exec(`CREATE TABLE target (id TEXT PRIMARY KEY, approved_symbol TEXT, description TEXT)`)
	require.NoError(t, err)
	return db
}

func TestValidateAllowsSelectAndRejectsMutation(t *testing.T) {
	cases := []struct {
		sql     string
		allowed bool
	}{
		{"SELECT * FROM target", true},
		{"  with x as (select 1) select * from x", true},
		{"PRAGMA table_info(target)", true},
		{"EXPLAIN SELECT * FROM target", true},
		{"CREATE TEMP TABLE scratch AS SELECT * FROM target", true},
		{"CREATE TEMPORARY VIEW v AS SELECT 1", true},
		{"DROP TEMP TABLE scratch", true},
		{"DELETE FROM target", false},
		{"UPDATE target SET approved_symbol = 'x'", false},
		{"INSERT INTO target (id) VALUES ('x')", false},
		{"DROP TABLE target", false},
		{"DROP TABLE temp_cache", false},
		{"CREATE TABLE temp_lookalike (id TEXT)", false},
		{"ALTER TABLE target ADD COLUMN x TEXT", false},
		{"CREATE TABLE evil (id TEXT)", false},
		{"INSERT INTO scratch (id) VALUES ('x')", false},
		{"ATTACH DATABASE 'x.db' AS x", false},
		{"", false},
	}
	for _, tc := range cases {
		_, err := Validate(tc.sql)
		if tc.allowed {
			assert.NoError(t, err, tc.sql)
		} else {
			assert.ErrorIs(t, err, types.ErrOperationNotAllowed, tc.sql)
		}
	}
}

func TestValidateQueryTypeLabels(t *testing.T) {
	qt, err := Validate("SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, "select", qt)

	qt, err = Validate("WITH x AS (SELECT 1) SELECT * FROM x")
	require.NoError(t, err)
	assert.Equal(t, "cte", qt)

	qt, err = Validate("PRAGMA table_info(target)")
	require.NoError(t, err)
	assert.Equal(t, "pragma", qt)

	qt, err = Validate("EXPLAIN SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, "explain", qt)

	qt, err = Validate("CREATE TEMP TABLE scratch AS SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, "create_temp", qt)
}

func TestExecuteReturnsRowsInColumnOrder(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_, err := db.Exec(`INSERT INTO target (id, approved_symbol) VALUES ('ENSG1', 'AR')`)
	require.NoError(t, err)

	result, err := Execute(ctx, db, "SELECT id, approved_symbol FROM target")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, []string{"id", "approved_symbol"}, result.ColumnNames)
	assert.Equal(t, 1, result.RowCount)
	assert.Equal(t, "AR", result.Results[0]["approved_symbol"])
	assert.False(t, result.ChunkedContentResolved)
}

func TestExecuteRejectsMutation(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	result, err := Execute(ctx, db, "DELETE FROM target")
	assert.ErrorIs(t, err, types.ErrOperationNotAllowed)
	assert.False(t, result.Success)
}

func TestExecuteResolvesChunkedContent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	cfg := types.Config{StorageRoot: "unused", Compress: false, ChunkThreshold: 10, ChunkSize: 16, CompressMin: 1 << 30}
	token, err := chunkstore.Store(ctx, db, `{"summary":"a very long description indeed"}`, chunkstore.ContentTypeJSON, cfg)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO target (id, description) VALUES ('ENSG1', ?)`, token)
	require.NoError(t, err)

	result, err := Execute(ctx, db, "SELECT id, description FROM target")
	require.NoError(t, err)
	assert.True(t, result.ChunkedContentResolved)
	assert.Equal(t, map[string]any{"summary": "a very long description indeed"}, result.Results[0]["description"])
}

func TestExecuteReportsMissingChunk(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.Exec(`INSERT INTO target (id, description) VALUES ('ENSG1', ?)`, chunkstore.Token("chunk_doesnotexist"))
	require.NoError(t, err)

	result, err := Execute(ctx, db, "SELECT description FROM target")
	require.NoError(t, err)
	assert.Equal(t, "[CHUNKED_CONTENT_NOT_FOUND:chunk_doesnotexist]", result.Results[0]["description"])
	assert.False(t, result.ChunkedContentResolved)
}

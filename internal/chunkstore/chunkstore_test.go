package chunkstore

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/biostage/biostage/pkg/types"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, Init(context.Background(), db))
	return db
}

func testConfig() types.Config {
	return types.Config{
		StorageRoot:    "unused",
		Compress:       true,
		ChunkThreshold: types.DefaultChunkThreshold,
		ChunkSize:      types.DefaultChunkSize,
		CompressMin:    types.DefaultCompressMin,
	}
}

func TestStoreRetrieveRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	cfg := testConfig()

	content := strings.Repeat("x", types.DefaultChunkThreshold+100)
	token, err := Store(ctx, db, content, ContentTypeText, cfg)
	require.NoError(t, err)
	require.True(t, IsToken(token))

	got, err := Retrieve(ctx, db, token)
	require.NoError(t, err)
	require.Equal(t, content, got)
}

func TestStoreRetrieveSmallUncompressed(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	cfg := testConfig()
	cfg.Compress = false

	content := "short value well under compress-min"
	token, err := Store(ctx, db, content, ContentTypeText, cfg)
	require.NoError(t, err)

	got, err := Retrieve(ctx, db, token)
	require.NoError(t, err)
	require.Equal(t, content, got)
}

func TestRetrieveMissingContent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := Retrieve(ctx, db, Token("chunk_doesnotexist"))
	require.ErrorIs(t, err, types.ErrMissingChunkContent)
}

func TestRetrieveCorruptChunkSet(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	cfg := testConfig()
	cfg.Compress = false

	content := strings.Repeat("y", types.DefaultChunkSize*3)
	token, err := Store(ctx, db, content, ContentTypeText, cfg)
	require.NoError(t, err)
	contentID, _ := ContentID(token)

	_, err = db.ExecContext(ctx, `DELETE FROM content_chunks WHERE content_id = ? AND chunk_index = 1`, contentID)
	require.NoError(t, err)

	_, err = Retrieve(ctx, db, token)
	require.ErrorIs(t, err, types.ErrCorruptChunkSet)
}

func TestShouldChunkPriorities(t *testing.T) {
	require.True(t, ShouldChunk(1000, nil, 500))
	require.False(t, ShouldChunk(100, nil, 500))

	never := &types.ChunkingRule{Priority: types.PriorityNever, Threshold: 1}
	require.False(t, ShouldChunk(1_000_000, never, 500))

	always := &types.ChunkingRule{Priority: types.PriorityAlways, Threshold: 10}
	require.True(t, ShouldChunk(20, always, 50000))

	sized := &types.ChunkingRule{Priority: types.PrioritySizeBased, Threshold: 1000}
	require.False(t, ShouldChunk(500, sized, 1))
	require.True(t, ShouldChunk(2000, sized, 1))
}

func TestStatsEmpty(t *testing.T) {
	db := openTestDB(t)
	stats, err := Stats(context.Background(), db)
	require.NoError(t, err)
	require.Equal(t, 0, stats.Metadata.TotalChunkedItems)
	require.Equal(t, float64(0), stats.CompressionRatio)
}

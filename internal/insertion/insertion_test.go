package insertion

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/biostage/biostage/internal/chunkstore"
	"github.com/biostage/biostage/internal/descriptor"
	"github.com/biostage/biostage/internal/inference"
	"github.com/biostage/biostage/pkg/types"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, chunkstore.Init(context.Background(), db))
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

func TestInsertSingleEntity(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	payload := map[string]any{
		"target": map[string]any{
			"id":             "ENSG00000169083",
			"approvedSymbol": "AR",
			"biotype":        "protein_coding",
		},
	}
	schema, _ := inference.Synthesize(payload)

	res, err := Insert(ctx, db, payload, schema, nil, testConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, res.RowsInserted)

	var symbol string
	require.NoError(t, db.QueryRowContext(ctx, "SELECT approved_symbol FROM target WHERE id = ?", "ENSG00000169083").Scan(&symbol))
	assert.Equal(t, "AR", symbol)
}

func TestInsertOneToManyJunction(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	payload := map[string]any{
		"target": map[string]any{
			"id":             "T1",
			"approvedSymbol": "AR",
			"associatedDiseases": map[string]any{
				"rows": []any{
					map[string]any{
						"disease": map[string]any{"id": "D1", "name": "a"},
						"score":   0.9,
					},
					map[string]any{
						"disease": map[string]any{"id": "D2", "name": "b"},
						"score":   0.7,
					},
				},
			},
		},
	}
	schema, _ := inference.Synthesize(payload)

	_, err := Insert(ctx, db, payload, schema, nil, testConfig())
	require.NoError(t, err)

	var targetCount, diseaseCount, junctionCount int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM target").Scan(&targetCount))
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM disease").Scan(&diseaseCount))
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM disease_target").Scan(&junctionCount))
	assert.Equal(t, 1, targetCount)
	assert.Equal(t, 2, diseaseCount)
	assert.Equal(t, 2, junctionCount)

	var score float64
	require.NoError(t, db.QueryRowContext(ctx, "SELECT score FROM disease WHERE id = ?", "D1").Scan(&score))
	assert.Equal(t, 0.9, score)
}

func TestInsertOversizedFieldChunks(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	big := strings.Repeat("x", types.DefaultChunkThreshold+1024)
	payload := map[string]any{
		"target": map[string]any{
			"id":          "T1",
			"name":        "AR",
			"description": big,
		},
	}
	schema, _ := inference.Synthesize(payload)

	_, err := Insert(ctx, db, payload, schema, nil, testConfig())
	require.NoError(t, err)

	var stored string
	require.NoError(t, db.QueryRowContext(ctx, "SELECT description FROM target WHERE id = ?", "T1").Scan(&stored))
	assert.True(t, chunkstore.IsToken(stored))

	retrieved, err := chunkstore.Retrieve(ctx, db, stored)
	require.NoError(t, err)
	assert.Equal(t, big, retrieved)
}

func TestInsertNeverChunksIdentifierFieldEvenWhenDescriptorSaysAlways(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	bigID := strings.Repeat("x", types.DefaultChunkThreshold+1024)
	payload := map[string]any{
		"target": map[string]any{
			"id":   bigID,
			"name": "AR",
		},
	}
	schema, _ := inference.Synthesize(payload)

	desc, err := descriptor.Parse("type Target {\n  id(chunk: always, threshold: 1): ID!\n  name: String\n}\n")
	require.NoError(t, err)

	_, err = Insert(ctx, db, payload, schema, desc, testConfig())
	require.NoError(t, err)

	var stored string
	require.NoError(t, db.QueryRowContext(ctx, "SELECT id FROM target WHERE id = ?", bigID).Scan(&stored))
	assert.Equal(t, bigID, stored)
	assert.False(t, chunkstore.IsToken(stored))
}

func TestInsertDeduplicatesSharedEntityByIdentity(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	shared := map[string]any{"id": "D1", "name": "shared disease"}
	payload := map[string]any{
		"targets": []any{
			map[string]any{"id": "T1", "name": "a", "diseases": []any{shared}},
			map[string]any{"id": "T2", "name": "b", "diseases": []any{shared}},
		},
	}
	schema, _ := inference.Synthesize(payload)

	_, err := Insert(ctx, db, payload, schema, nil, testConfig())
	require.NoError(t, err)

	var diseaseCount, junctionCount int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM disease").Scan(&diseaseCount))
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM disease_target").Scan(&junctionCount))
	assert.Equal(t, 1, diseaseCount)
	assert.Equal(t, 2, junctionCount)
}

func TestInsertFallbackScalar(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	schema, _ := inference.Synthesize(nil)
	res, err := Insert(ctx, db, nil, schema, nil, testConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, res.RowsInserted)

	var value sql.NullString
	require.NoError(t, db.QueryRowContext(ctx, "SELECT value FROM scalar_data").Scan(&value))
	assert.False(t, value.Valid)
}

func TestInsertFallbackArrayWidensToText(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	payload := []any{float64(1), float64(2), "x"}
	schema, _ := inference.Synthesize(payload)

	res, err := Insert(ctx, db, payload, schema, nil, testConfig())
	require.NoError(t, err)
	assert.Equal(t, 3, res.RowsInserted)

	rows, err := db.QueryContext(ctx, "SELECT value FROM array_data ORDER BY id")
	require.NoError(t, err)
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		require.NoError(t, rows.Scan(&v))
		values = append(values, v)
	}
	assert.Equal(t, []string{"1", "2", "x"}, values)
}

func TestInsertFallbackRootObjectEmpty(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	payload := map[string]any{}
	schema, _ := inference.Synthesize(payload)

	res, err := Insert(ctx, db, payload, schema, nil, testConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, res.RowsInserted)

	var id int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT id FROM root_object").Scan(&id))
	assert.Equal(t, 1, id)
}

func TestInsertSelfRelationSuppressedNoJunctionTable(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	payload := map[string]any{
		"target": map[string]any{
			"id":   "T1",
			"name": "AR",
			"targets": []any{
				map[string]any{"id": "T2", "name": "BRCA1"},
			},
		},
	}
	schema, _ := inference.Synthesize(payload)
	require.Empty(t, schema.Junctions)

	_, err := Insert(ctx, db, payload, schema, nil, testConfig())
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM target").Scan(&count))
	assert.Equal(t, 2, count)
}

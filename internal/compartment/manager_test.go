package compartment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biostage/biostage/pkg/types"
)

func testConfig() types.Config {
	return types.Config{
		StorageRoot:    "unused",
		Compress:       true,
		ChunkThreshold: types.DefaultChunkThreshold,
		ChunkSize:      types.DefaultChunkSize,
		CompressMin:    types.DefaultCompressMin,
	}
}

func TestManagerStageThenQuery(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(t.TempDir(), testConfig(), nil, nil)

	payload := map[string]any{
		"data": map[string]any{
			"target": map[string]any{
				"id":             "ENSG00000169083",
				"approvedSymbol": "AR",
			},
		},
	}

	staged, err := mgr.Stage(ctx, "genes", payload)
	require.NoError(t, err)
	assert.True(t, staged.Success)
	assert.Equal(t, 1, staged.TotalRows)
	assert.Contains(t, staged.Schemas, "target")

	result, err := mgr.Query(ctx, "genes", "SELECT approved_symbol FROM target WHERE id = 'ENSG00000169083'")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "AR", result.Results[0]["approved_symbol"])
}

func TestManagerQueryUnknownCompartment(t *testing.T) {
	mgr := NewManager(t.TempDir(), testConfig(), nil, nil)
	_, err := mgr.Query(context.Background(), "missing", "SELECT 1")
	assert.ErrorIs(t, err, types.ErrCompartmentNotFound)
}

func TestManagerDeleteUnknownCompartment(t *testing.T) {
	mgr := NewManager(t.TempDir(), testConfig(), nil, nil)
	err := mgr.Delete("missing")
	assert.ErrorIs(t, err, types.ErrCompartmentNotFound)
}

func TestManagerStageIsolatesCompartmentsByIdentifier(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(t.TempDir(), testConfig(), nil, nil)

	genePayload := map[string]any{"target": map[string]any{"id": "ENSG1", "approvedSymbol": "AR"}}
	diseasePayload := map[string]any{"disease": map[string]any{"id": "EFO1", "name": "asthma"}}

	_, err := mgr.Stage(ctx, "genes", genePayload)
	require.NoError(t, err)
	_, err = mgr.Stage(ctx, "diseases", diseasePayload)
	require.NoError(t, err)

	_, err = mgr.Query(ctx, "genes", "SELECT * FROM disease")
	assert.Error(t, err)

	result, err := mgr.Query(ctx, "diseases", "SELECT name FROM disease")
	require.NoError(t, err)
	assert.Equal(t, "asthma", result.Results[0]["name"])
}

func TestManagerDeleteRemovesCompartment(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(t.TempDir(), testConfig(), nil, nil)

	_, err := mgr.Stage(ctx, "genes", map[string]any{"target": map[string]any{"id": "ENSG1", "approvedSymbol": "AR"}})
	require.NoError(t, err)

	require.NoError(t, mgr.Delete("genes"))

	_, err = mgr.Query(ctx, "genes", "SELECT 1")
	assert.ErrorIs(t, err, types.ErrCompartmentNotFound)
}

package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biostage/biostage/pkg/types"
)

func columnNames(table types.TableDef) []string {
	names := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		names[i] = c.Name
	}
	return names
}

func findTable(schema *Schema, name string) (types.TableDef, bool) {
	for _, t := range schema.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return types.TableDef{}, false
}

func TestSingleEntity(t *testing.T) {
	payload := map[string]any{
		"target": map[string]any{
			"id":             "ENSG00000169083",
			"approvedSymbol": "AR",
			"biotype":        "protein_coding",
		},
	}

	schema, _ := Synthesize(payload)
	require.Empty(t, schema.Fallback)
	require.Len(t, schema.Tables, 1)

	table := schema.Tables[0]
	assert.Equal(t, "target", table.Name)
	assert.Contains(t, columnNames(table), "approved_symbol")
	assert.Contains(t, columnNames(table), "biotype")

	idCol := table.Columns[0]
	assert.Equal(t, "id", idCol.Name)
	assert.Equal(t, types.Text, idCol.Type)
	assert.False(t, idCol.AutoIncrement)
}

func TestOneToManyJunction(t *testing.T) {
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

	schema, discovery := Synthesize(payload)
	require.Empty(t, schema.Fallback)

	_, hasTarget := findTable(schema, "target")
	_, hasDisease := findTable(schema, "disease")
	require.True(t, hasTarget)
	require.True(t, hasDisease)

	require.Len(t, schema.Junctions, 1)
	junction := schema.Junctions[0]
	assert.Equal(t, "disease_target", junction.Table)

	require.Len(t, discovery.Entities["disease"], 2)
}

func TestWideningAcrossObservations(t *testing.T) {
	payload := map[string]any{
		"xs": []any{
			map[string]any{"id": "x1", "v": float64(1)},
			map[string]any{"id": "x2", "v": float64(1.5)},
			map[string]any{"id": "x3", "v": "a"},
		},
	}
	schema, _ := Synthesize(payload)
	table, ok := findTable(schema, "x")
	require.True(t, ok)
	var vCol *types.ColumnDef
	for i := range table.Columns {
		if table.Columns[i].Name == "v" {
			vCol = &table.Columns[i]
		}
	}
	require.NotNil(t, vCol)
	assert.Equal(t, types.Text, vCol.Type)
}

func TestFallbackScalar(t *testing.T) {
	schema, discovery := Synthesize(nil)
	assert.Equal(t, "scalar_data", schema.Fallback)
	assert.Empty(t, discovery.Entities)
}

func TestFallbackArray(t *testing.T) {
	schema, _ := Synthesize([]any{float64(1), float64(2), "x"})
	assert.Equal(t, "array_data", schema.Fallback)
}

func TestFallbackRootObject(t *testing.T) {
	schema, _ := Synthesize(map[string]any{})
	assert.Equal(t, "root_object", schema.Fallback)
}

func TestMixedEntityArrayFirstWins(t *testing.T) {
	payload := map[string]any{
		"target": map[string]any{
			"id":             "T0",
			"approvedSymbol": "AR",
			"items": []any{
				map[string]any{"__typename": "Item", "id": "T1", "approvedSymbol": "AR"},
				map[string]any{"__typename": "Disease", "id": "D1", "name": "some disease"},
			},
		},
	}
	d := Discover(payload)

	require.Len(t, d.Entities["item"], 1)
	require.Equal(t, 1, d.MixedArraySkips["item"])
}

func TestGraphWrapperTransparency(t *testing.T) {
	payload := map[string]any{
		"targets": map[string]any{
			"edges": []any{
				map[string]any{"node": map[string]any{"id": "T1", "approvedSymbol": "AR"}},
				map[string]any{"node": map[string]any{"id": "T2", "approvedSymbol": "BRCA1"}},
			},
		},
	}
	d := Discover(payload)
	require.Len(t, d.Entities["target"], 2)
}

func TestSelfRelationSuppressed(t *testing.T) {
	payload := map[string]any{
		"target": map[string]any{
			"id":             "T1",
			"approvedSymbol": "AR",
			"targets": []any{
				map[string]any{"id": "T2", "approvedSymbol": "BRCA1"},
			},
		},
	}
	schema, _ := Synthesize(payload)
	assert.Empty(t, schema.Junctions)
}

package inference

import (
	"sort"

	"github.com/biostage/biostage/internal/chunkstore"
	"github.com/biostage/biostage/internal/normalize"
	"github.com/biostage/biostage/internal/sqltype"
	"github.com/biostage/biostage/pkg/types"
)

// Schema is the full inferred relational shape of one staged payload:
// user tables, junction tables, and (when phase 1 discovered nothing) a
// fallback table name.
type Schema struct {
	Tables          []types.TableDef
	Junctions       []types.JunctionDef
	Fallback        string // "scalar_data", "array_data", "root_object", or ""
	MixedArraySkips map[string]int
}

// Synthesize runs discovery over payload, then synthesises a table per
// discovered entity type and a junction table per distinct relationship,
// falling back to one of the three degenerate shapes when no entities are
// found at all.
func Synthesize(payload any) (*Schema, *Discovery) {
	discovery := Discover(payload)

	if len(discovery.Entities) == 0 {
		return &Schema{Fallback: fallbackTableFor(payload)}, discovery
	}

	schema := &Schema{MixedArraySkips: discovery.MixedArraySkips}

	typeNames := make([]string, 0, len(discovery.Entities))
	for typ := range discovery.Entities {
		typeNames = append(typeNames, typ)
	}
	sort.Strings(typeNames)

	tableNameOf := make(map[string]string, len(typeNames))
	for _, typ := range typeNames {
		table := synthesizeTable(typ, discovery.Entities[typ])
		tableNameOf[typ] = table.Name
		schema.Tables = append(schema.Tables, table)
	}

	schema.Junctions = synthesizeJunctions(discovery.Relationships, tableNameOf)
	return schema, discovery
}

// synthesizeTable builds one entity type's TableDef: an id column (surrogate
// or explicit, depending on whether every observation supplied an
// identifier), then the folded column set from every observation's
// decomposed fields.
func synthesizeTable(entityType string, observations []*EntityObservation) types.TableDef {
	idCol := synthesizeIDColumn(observations)

	scalarSets := make(map[string]sqltype.Set)
	fkTarget := make(map[string]string)
	order := []string{}
	recordOrder := func(name string) {
		if _, seen := scalarSets[name]; !seen {
			order = append(order, name)
		}
	}

	refTypeSynth := 0
	for _, obs := range observations {
		dec := DecomposeEntity(obs.Node)

		for field, val := range dec.Scalars {
			col := normalize.Column(field)
			recordOrder(col)
			set := scalarSets[col]
			if set == nil {
				set = sqltype.NewSet()
				scalarSets[col] = set
			}
			set.Observe(val)
		}

		for field, ref := range dec.EntityRefs {
			col := normalize.Column(field) + "_id"
			recordOrder(col)
			set := scalarSets[col]
			if set == nil {
				set = sqltype.NewSet()
				scalarSets[col] = set
			}
			if key, ok := IdentifierField(ref); ok {
				set.Observe(ref[key])
			} else {
				set.Observe(nil)
			}
			if _, known := fkTarget[col]; !known {
				fkTarget[col] = normalize.Table(EntityTypeName(ref, field, &refTypeSynth))
			}
		}

		for field, m := range dec.FlatMaps {
			for sub, val := range m {
				switch val.(type) {
				case nil, bool, float64, string:
				default:
					continue
				}
				col := normalize.Column(field) + "_" + normalize.Column(sub)
				recordOrder(col)
				set := scalarSets[col]
				if set == nil {
					set = sqltype.NewSet()
					scalarSets[col] = set
				}
				set.Observe(val)
			}
		}

		for field := range dec.JSONFields {
			col := normalize.Column(field) + "_json"
			recordOrder(col)
			scalarSets[col] = sqltype.NewSet() // always TEXT; set stays empty
		}
	}

	columns := []types.ColumnDef{idCol}
	for _, col := range order {
		class := sqltype.Resolve(scalarSets[col])
		columns = append(columns, types.ColumnDef{Name: col, Type: class, ForeignKey: fkTarget[col]})
	}

	tableName := normalize.Table(entityType)
	if chunkstore.SystemTableNames[tableName] {
		tableName += "_tbl"
	}

	return types.TableDef{Name: tableName, EntityType: entityType, Columns: columns}
}

// synthesizeIDColumn picks the id column's shape: a surrogate
// autoincrementing integer when any observation lacked an identifier;
// otherwise the identifier's own resolved storage class, used directly
// (no surrogate).
func synthesizeIDColumn(observations []*EntityObservation) types.ColumnDef {
	set := sqltype.NewSet()
	allSupplied := len(observations) > 0
	for _, obs := range observations {
		key, ok := IdentifierField(obs.Node)
		if !ok {
			allSupplied = false
			continue
		}
		set.Observe(obs.Node[key])
	}

	if !allSupplied {
		return types.ColumnDef{Name: "id", Type: types.Integer, PrimaryKey: true, AutoIncrement: true}
	}
	return types.ColumnDef{Name: "id", Type: sqltype.Resolve(set), PrimaryKey: true}
}

// synthesizeJunctions builds one JunctionDef per distinct type pair seen in
// relationships, canonically named by alphabetically ordering the two
// (already-normalised) table names.
func synthesizeJunctions(relationships map[RelationKey]bool, tableNameOf map[string]string) []types.JunctionDef {
	seen := make(map[string]bool)
	var junctions []types.JunctionDef

	keys := make([]RelationKey, 0, len(relationships))
	for k := range relationships {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].From != keys[j].From {
			return keys[i].From < keys[j].From
		}
		return keys[i].To < keys[j].To
	})

	for _, rel := range keys {
		a, b := tableNameOf[rel.From], tableNameOf[rel.To]
		if a == "" || b == "" || a == b {
			continue
		}
		typeA, typeB := a, b
		if typeA > typeB {
			typeA, typeB = typeB, typeA
		}
		junctionName := typeA + "_" + typeB
		if seen[junctionName] {
			continue
		}
		seen[junctionName] = true
		junctions = append(junctions, types.JunctionDef{
			Table: junctionName,
			TypeA: typeA,
			TypeB: typeB,
			ColA:  typeA + "_id",
			ColB:  typeB + "_id",
		})
	}
	return junctions
}

package insertion

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/biostage/biostage/internal/chunkstore"
	"github.com/biostage/biostage/internal/inference"
	"github.com/biostage/biostage/internal/normalize"
	"github.com/biostage/biostage/pkg/types"
)

// walk mirrors inference.Discovery.walk exactly (graph-wrapper transparency,
// relationship-attribute elision, entity detection) but performs the insert
// as a side effect instead of only recording it, returning the id of
// whatever single entity this subtree ultimately resolved to (nil when it
// resolved to no entity at all; for an array or graph wrapper, the id of its
// last element — the return value is only meaningful to callers that know,
// from decomposition, that the field in question is itself a single
// entity-shaped reference).
func (ins *inserter) walk(node any, parentType, pathSegment string) (any, error) {
	switch v := node.(type) {
	case []any:
		var last any
		for _, el := range v {
			id, err := ins.walk(el, parentType, pathSegment)
			if err != nil {
				return nil, err
			}
			last = id
		}
		return last, nil

	case map[string]any:
		if elements, ok := inference.UnwrapGraphWrapper(v); ok {
			var last any
			for _, el := range elements {
				id, err := ins.walk(el, parentType, pathSegment)
				if err != nil {
					return nil, err
				}
				last = id
			}
			return last, nil
		}
		if childField, child, attrs, ok := inference.RelationshipAttributes(v); ok {
			return ins.walk(inference.MergeRelationshipAttrs(child, attrs), parentType, childField)
		}
		if inference.IsEntity(v) {
			typ := inference.EntityTypeName(v, pathSegment, &ins.typeCounter)
			return ins.insertEntity(typ, v)
		}
		for fieldName, fieldVal := range v {
			if _, err := ins.walk(fieldVal, parentType, fieldName); err != nil {
				return nil, err
			}
		}
		return nil, nil

	default:
		return nil, nil
	}
}

// insertEntity composes and inserts one row for node under typ, memoising
// by payload object identity so a shared entity reached via multiple
// traversal paths is only ever inserted once.
func (ins *inserter) insertEntity(typ string, node map[string]any) (any, error) {
	identity := reflect.ValueOf(node).Pointer()
	if id, ok := ins.memo[identity]; ok {
		return id, nil
	}

	table, ok := ins.tables[typ]
	if !ok {
		ins.warnings = append(ins.warnings, fmt.Sprintf("no table synthesised for entity type %q; row skipped", typ))
		return nil, nil
	}

	dec := inference.DecomposeEntity(node)
	values := make(map[string]any)

	for field, val := range dec.Scalars {
		v, err := ins.scalarValue(typ, field, val)
		if err != nil {
			return nil, err
		}
		values[normalize.Column(field)] = v
	}

	for field, m := range dec.FlatMaps {
		for sub, val := range m {
			switch val.(type) {
			case nil, bool, float64, string:
			default:
				continue
			}
			v, err := ins.scalarValue(typ, field, val)
			if err != nil {
				return nil, err
			}
			values[normalize.Column(field)+"_"+normalize.Column(sub)] = v
		}
	}

	for field, val := range dec.JSONFields {
		encoded, err := json.Marshal(val)
		if err != nil {
			ins.warnings = append(ins.warnings, fmt.Sprintf("%s.%s: encoding json: %v", typ, field, err))
			continue
		}
		v, err := ins.maybeChunk(typ, field, string(encoded), chunkstore.ContentTypeJSON)
		if err != nil {
			return nil, err
		}
		values[normalize.Column(field)+"_json"] = v
	}

	for field, ref := range dec.EntityRefs {
		childID, err := ins.walk(ref, typ, field)
		if err != nil {
			return nil, err
		}
		values[normalize.Column(field)+"_id"] = childID
	}

	id, err := ins.writeRow(table, dec, values)
	if err != nil {
		return nil, err
	}
	ins.memo[identity] = id

	for field, elements := range dec.ArrayEntityFields {
		if err := ins.processArrayField(typ, id, field, elements); err != nil {
			return nil, err
		}
	}

	return id, nil
}

// writeRow emits the INSERT OR IGNORE for one composed row and resolves
// the effective id: the payload's own identifier when supplied, otherwise
// the driver's last-insert-id.
func (ins *inserter) writeRow(table types.TableDef, dec inference.Decomposition, values map[string]any) (any, error) {
	idCol := table.Columns[0].Name

	var cols []string
	var args []any
	if dec.IdentifierKey != "" {
		cols = append(cols, idCol)
		args = append(args, coerceForColumn(table.Columns[0].Type, dec.IdentifierVal))
	}
	for _, c := range table.Columns[1:] {
		if v, ok := values[c.Name]; ok {
			cols = append(cols, c.Name)
			args = append(args, coerceForColumn(c.Type, v))
		}
	}

	placeholders := make([]string, len(cols))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	stmt := fmt.Sprintf("INSERT OR IGNORE INTO %s (%s) VALUES (%s)",
		table.Name, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	res, err := ins.db.ExecContext(ins.ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("inserting row into %s: %w", table.Name, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		ins.rowsInserted++
	}

	if dec.IdentifierKey != "" {
		return dec.IdentifierVal, nil
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading back id for %s: %w", table.Name, err)
	}
	return lastID, nil
}

// processArrayField mirrors inference.Discovery.handleArrayField: the first
// entity-shaped element's type governs the whole field; later elements of a
// different type are skipped (already counted as diagnostics by the
// discovery pass). Matched elements are inserted and paired with the
// parent for the junction-row pass.
func (ins *inserter) processArrayField(parentType string, parentID any, fieldName string, elements []any) error {
	chosenType := ""
	chosenSet := false

	for _, el := range elements {
		m, isMap := el.(map[string]any)
		if !isMap {
			if _, err := ins.walk(el, parentType, fieldName); err != nil {
				return err
			}
			continue
		}
		if unwrapped, ok := inference.UnwrapGraphWrapper(m); ok {
			for _, inner := range unwrapped {
				if innerMap, ok := inner.(map[string]any); ok {
					if err := ins.processArrayField(parentType, parentID, fieldName, []any{innerMap}); err != nil {
						return err
					}
				} else if _, err := ins.walk(inner, parentType, fieldName); err != nil {
					return err
				}
			}
			continue
		}

		effectiveNode := m
		effectiveSegment := fieldName
		if childField, child, attrs, ok := inference.RelationshipAttributes(m); ok {
			effectiveNode = inference.MergeRelationshipAttrs(child, attrs)
			effectiveSegment = childField
		}

		if !inference.IsEntity(effectiveNode) {
			if _, err := ins.walk(effectiveNode, parentType, effectiveSegment); err != nil {
				return err
			}
			continue
		}

		t := inference.EntityTypeName(effectiveNode, effectiveSegment, &ins.typeCounter)
		if !chosenSet {
			chosenType, chosenSet = t, true
		}
		if t != chosenType {
			continue
		}

		childID, err := ins.insertEntity(chosenType, effectiveNode)
		if err != nil {
			return err
		}
		if chosenType == parentType {
			continue
		}
		ins.recordPair(parentType, parentID, chosenType, childID)
	}
	return nil
}

// recordPair accumulates one (parentID, childID) pair under the canonical
// alphabetically-ordered junction table name, matching the name the DDL
// pass already created the table under.
func (ins *inserter) recordPair(parentType string, parentID any, childType string, childID any) {
	parentTable, ok := ins.tables[parentType]
	if !ok {
		return
	}
	childTable, ok := ins.tables[childType]
	if !ok {
		return
	}

	a, b := parentTable.Name, childTable.Name
	aID, bID := parentID, childID
	if a > b {
		a, b = b, a
		aID, bID = bID, aID
	}
	if a == b {
		return
	}

	name := a + "_" + b
	if _, exists := ins.junctionDefs[name]; !exists {
		return
	}

	set := ins.pairs[name]
	if set == nil {
		set = make(map[pairKey]bool)
		ins.pairs[name] = set
	}
	set[pairKey{A: aID, B: bID}] = true
}

// insertJunctions is Phase B: one INSERT OR IGNORE per de-duplicated pair,
// for every junction table that accumulated at least one.
func (ins *inserter) insertJunctions() (int, error) {
	inserted := 0
	for name, set := range ins.pairs {
		def, ok := ins.junctionDefs[name]
		if !ok || len(set) == 0 {
			continue
		}
		stmt := fmt.Sprintf("INSERT OR IGNORE INTO %s (%s, %s) VALUES (?, ?)", def.Table, def.ColA, def.ColB)
		for pair := range set {
			res, err := ins.db.ExecContext(ins.ctx, stmt, pair.A, pair.B)
			if err != nil {
				return inserted, fmt.Errorf("inserting junction row into %s: %w", def.Table, err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				inserted += int(n)
			}
		}
	}
	return inserted, nil
}

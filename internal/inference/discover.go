package inference

import (
	"reflect"
)

// EntityObservation is one occurrence of an entity node recorded during
// discovery, carrying the raw node alongside the payload-object-identity
// key used to deduplicate repeat visits.
type EntityObservation struct {
	Node     map[string]any
	Identity uintptr
}

// RelationKey identifies a directed "contains-array-of-entity" relation
// between two distinct entity types, as recorded during Phase 1.
type RelationKey struct {
	From string
	To   string
}

// Discovery is the accumulated result of Phase 1's depth-first walk.
type Discovery struct {
	Entities        map[string][]*EntityObservation
	Relationships   map[RelationKey]bool
	MixedArraySkips map[string]int

	seen        map[uintptr]*EntityObservation
	typeCounter int
}

func newDiscovery() *Discovery {
	return &Discovery{
		Entities:        make(map[string][]*EntityObservation),
		Relationships:   make(map[RelationKey]bool),
		MixedArraySkips: make(map[string]int),
		seen:            make(map[uintptr]*EntityObservation),
	}
}

// Discover walks payload and returns the discovered entity observations
// and directed relationships.
func Discover(payload any) *Discovery {
	d := newDiscovery()
	d.walk(payload, "", "")
	return d
}

// walk recurses through the payload tree. parentType is the entity type
// context inherited from the nearest enclosing entity (used only for
// diagnostics, never for naming); pathSegment is the enclosing map key or
// array field name, used to derive an entity type name when needed.
func (d *Discovery) walk(node any, parentType, pathSegment string) {
	switch v := node.(type) {
	case []any:
		for _, el := range v {
			d.walk(el, parentType, pathSegment)
		}
	case map[string]any:
		if elements, ok := UnwrapGraphWrapper(v); ok {
			for _, el := range elements {
				d.walk(el, parentType, pathSegment)
			}
			return
		}
		if childField, child, attrs, ok := relationshipAttributes(v); ok {
			d.walk(mergeRelationshipAttrs(child, attrs), parentType, childField)
			return
		}
		if IsEntity(v) {
			typ := entityTypeName(v, pathSegment, &d.typeCounter)
			d.processEntity(typ, v)
			return
		}
		for fieldName, fieldVal := range v {
			d.walk(fieldVal, parentType, fieldName)
		}
	}
}

// processEntity records node under typ (deduplicating by object identity)
// and recurses into its fields, routing array-of-entity fields through
// handleArrayField so relationships get recorded.
func (d *Discovery) processEntity(typ string, node map[string]any) {
	identity := reflect.ValueOf(node).Pointer()
	if _, dup := d.seen[identity]; dup {
		return
	}
	obs := &EntityObservation{Node: node, Identity: identity}
	d.seen[identity] = obs
	d.Entities[typ] = append(d.Entities[typ], obs)

	for fieldName, fieldVal := range node {
		if elements, ok := ResolveArrayElements(fieldVal); ok {
			d.handleArrayField(typ, fieldName, elements)
			continue
		}
		d.walk(fieldVal, typ, fieldName)
	}
}

// handleArrayField processes one array-valued field of an entity. The type
// of the first entity-shaped element governs the whole array; later
// elements resolving to a different type are counted as skipped rather
// than inserted under a second type.
func (d *Discovery) handleArrayField(parentType, fieldName string, elements []any) {
	chosenType := ""
	chosenSet := false

	for _, el := range elements {
		m, isMap := el.(map[string]any)
		if !isMap {
			d.walk(el, parentType, fieldName)
			continue
		}
		if unwrapped, ok := UnwrapGraphWrapper(m); ok {
			for _, inner := range unwrapped {
				if innerMap, ok := inner.(map[string]any); ok {
					d.handleArrayField(parentType, fieldName, []any{innerMap})
				} else {
					d.walk(inner, parentType, fieldName)
				}
			}
			continue
		}
		effectiveNode := m
		effectiveSegment := fieldName
		if childField, child, attrs, ok := relationshipAttributes(m); ok {
			effectiveNode = mergeRelationshipAttrs(child, attrs)
			effectiveSegment = childField
		}

		if !IsEntity(effectiveNode) {
			d.walk(effectiveNode, parentType, effectiveSegment)
			continue
		}

		t := entityTypeName(effectiveNode, effectiveSegment, &d.typeCounter)
		if !chosenSet {
			chosenType, chosenSet = t, true
		}
		if t != chosenType {
			d.MixedArraySkips[chosenType]++
			continue
		}

		if chosenType != parentType {
			d.Relationships[RelationKey{From: parentType, To: chosenType}] = true
		}
		d.processEntity(chosenType, effectiveNode)
	}
}

// UnwrapGraphWrapper recognises the two graph-wrapper shapes
// ({edges: [{node: …}, …]} and {rows: […]}) and returns the inner element
// list, elided of the wrapper itself. Exported for reuse by the insertion
// engine's mirrored traversal.
func UnwrapGraphWrapper(m map[string]any) ([]any, bool) {
	if edges, ok := m["edges"].([]any); ok && len(m) <= 2 {
		nodes := make([]any, 0, len(edges))
		for _, edge := range edges {
			if edgeMap, ok := edge.(map[string]any); ok {
				if n, ok := edgeMap["node"]; ok {
					nodes = append(nodes, n)
					continue
				}
			}
			nodes = append(nodes, edge)
		}
		return nodes, true
	}
	if rows, ok := m["rows"].([]any); ok && len(m) <= 2 {
		return rows, true
	}
	return nil, false
}

// ResolveArrayElements normalises a field value into an element slice if
// it is directly an array, or a graph wrapper holding one; it reports
// false for any other shape.
func ResolveArrayElements(fieldVal any) ([]any, bool) {
	if arr, ok := fieldVal.([]any); ok {
		return arr, true
	}
	if m, ok := fieldVal.(map[string]any); ok {
		return UnwrapGraphWrapper(m)
	}
	return nil, false
}

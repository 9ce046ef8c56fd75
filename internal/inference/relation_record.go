package inference

// relationshipAttributes recognises a common graph-query shape: a record
// carrying exactly one nested entity-shaped field plus scalar attributes
// about the relationship itself (e.g. {disease: {...}, score: 0.9}). Such
// a record is not an entity in its own right — its scalar fields merge
// onto the nested entity's own row as extra columns, and the record
// itself is elided, the same way a graph wrapper is.
func relationshipAttributes(m map[string]any) (childField string, child map[string]any, attrs map[string]any, ok bool) {
	if hasIdentifier(m) {
		return "", nil, nil, false
	}

	entityFields := 0
	for k, v := range m {
		if cm, isMap := v.(map[string]any); isMap && IsEntity(cm) {
			entityFields++
			childField, child = k, cm
		}
	}
	if entityFields != 1 {
		return "", nil, nil, false
	}

	attrs = make(map[string]any)
	for k, v := range m {
		if k == childField {
			continue
		}
		switch v.(type) {
		case nil, bool, float64, string:
			attrs[k] = v
		default:
			return "", nil, nil, false
		}
	}
	return childField, child, attrs, true
}

// hasIdentifier reports whether m carries a designated identifier key.
func hasIdentifier(m map[string]any) bool {
	_, ok := IdentifierField(m)
	return ok
}

// RelationshipAttributes is the exported form of relationshipAttributes,
// reused by the insertion engine's own mirrored traversal so both phases
// elide the same relationship-attribute wrapper records.
func RelationshipAttributes(m map[string]any) (childField string, child map[string]any, attrs map[string]any, ok bool) {
	return relationshipAttributes(m)
}

// mergeRelationshipAttrs returns a fresh map combining child's own fields
// with the relationship record's scalar attributes, child's fields taking
// precedence on collision.
// MergeRelationshipAttrs is the exported form of mergeRelationshipAttrs.
func MergeRelationshipAttrs(child, attrs map[string]any) map[string]any {
	return mergeRelationshipAttrs(child, attrs)
}

func mergeRelationshipAttrs(child, attrs map[string]any) map[string]any {
	merged := make(map[string]any, len(child)+len(attrs))
	for k, v := range child {
		merged[k] = v
	}
	for k, v := range attrs {
		if _, exists := merged[k]; !exists {
			merged[k] = v
		}
	}
	return merged
}

// Package inference walks a decoded JSON payload and infers the relational
// shape it should take once staged: which map nodes are entities, what
// table each entity type needs, and which pairs of types need a junction
// table.
package inference

import (
	"fmt"
	"strings"

	"github.com/biostage/biostage/internal/normalize"
)

// identifierKeyTypes maps a domain-specific identifier field name to its
// canonical entity type. These cover the gene/disease/compound identifiers
// this engine's payloads carry.
var identifierKeyTypes = map[string]string{
	"ensemblId": "target",
	"targetId":  "target",
	"diseaseId": "disease",
	"efoId":     "disease",
	"compoundId": "compound",
	"drugId":     "compound",
	"chemblId":   "compound",
}

// humanMeaningfulFields are the field names whose presence, alongside at
// least one other field, qualifies a map node as an entity.
var humanMeaningfulFields = map[string]bool{
	"name": true, "symbol": true, "description": true, "type": true, "score": true,
}

// typeDiscriminatorField is the explicit type-discriminator key consulted
// before any identifier-key or path-derived naming. Graph-query clients for
// this domain commonly tag nodes this way.
const typeDiscriminatorField = "__typename"

// IsEntity reports whether node qualifies as an entity: it carries a
// designated identifier key, or it has at least two fields including one
// human-meaningful one.
func IsEntity(node map[string]any) bool {
	if node == nil {
		return false
	}
	if _, ok := node["id"]; ok {
		return true
	}
	for key := range identifierKeyTypes {
		if _, ok := node[key]; ok {
			return true
		}
	}
	if len(node) < 2 {
		return false
	}
	for key := range node {
		if humanMeaningfulFields[strings.ToLower(key)] {
			return true
		}
	}
	return false
}

// entityTypeName derives a stable type name for an entity node, in priority
// order: explicit discriminator, known identifier key, singularised
// enclosing path segment, else a synthesised name.
func entityTypeName(node map[string]any, pathSegment string, synth *int) string {
	if t, ok := node[typeDiscriminatorField].(string); ok && t != "" {
		return normalize.Table(t)
	}
	for key, typ := range identifierKeyTypes {
		if _, ok := node[key]; ok {
			return typ
		}
	}
	if pathSegment != "" {
		return normalize.Table(singularize(pathSegment))
	}
	*synth++
	return fmt.Sprintf("entity_%d", *synth)
}

// singularize applies two plural rules: "-ies" becomes "-y"; a trailing
// "-s" (not "-ss") is stripped. Anything else is left unchanged.
func singularize(word string) string {
	lower := strings.ToLower(word)
	switch {
	case strings.HasSuffix(lower, "ies") && len(lower) > 3:
		return lower[:len(lower)-3] + "y"
	case strings.HasSuffix(lower, "s") && !strings.HasSuffix(lower, "ss"):
		return lower[:len(lower)-1]
	default:
		return lower
	}
}

// EntityTypeName is the exported form of the type-naming rule, reused by
// the insertion engine's own mirrored traversal so both phases derive
// identical type names for identical nodes.
func EntityTypeName(node map[string]any, pathSegment string, synth *int) string {
	return entityTypeName(node, pathSegment, synth)
}

// IdentifierField returns the identifier key present on node, preferring
// the generic "id" field over any domain-specific identifier when both
// are present (decision recorded in DESIGN.md).
func IdentifierField(node map[string]any) (key string, ok bool) {
	if _, present := node["id"]; present {
		return "id", true
	}
	for idKey := range identifierKeyTypes {
		if _, present := node[idKey]; present {
			return idKey, true
		}
	}
	return "", false
}

// IsIdentifierField reports whether fieldName names an identifier-carrying
// field: the generic "id" key or one of the domain-specific identifier keys
// in identifierKeyTypes. Callers use this to pin identifier fields away from
// chunking regardless of size or descriptor rule, since a chunked identifier
// breaks the joins and foreign-key lookups built on it.
func IsIdentifierField(fieldName string) bool {
	if fieldName == "id" {
		return true
	}
	_, ok := identifierKeyTypes[fieldName]
	return ok
}

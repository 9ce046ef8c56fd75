// Package descriptor parses an optional, line-oriented type-graph
// description into per-field typing, relationship, and chunking rules.
// Its output is informative only: a missing or unparseable descriptor
// degrades the engine to pure structural inference, never a hard failure.
package descriptor

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/biostage/biostage/pkg/types"
)

// FieldSpec describes one field of one type block in the descriptor.
type FieldSpec struct {
	BaseType string
	IsList   bool
	Nullable bool
}

// Cardinality labels a directed relationship edge.
type Cardinality string

const (
	OneToOne  Cardinality = "one-to-one"
	OneToMany Cardinality = "one-to-many"
)

// Relationship is one directed edge discovered while parsing field types.
type Relationship struct {
	FromType    string
	ToType      string
	FieldName   string
	Cardinality Cardinality
}

// Graph is the parsed form of a type-graph description.
type Graph struct {
	Fields        map[string]map[string]FieldSpec
	Relationships []Relationship
	Extraction    map[string]map[string]string        // type -> field -> extraction hint
	Chunking      map[string]map[string]types.ChunkingRule // type -> field -> chunking rule
}

// skipSuffixes, skipPrefixes and skipExact identify type-block names the
// parser ignores outright: introspection types, input/filter/ordering types,
// connection/edge/payload wrappers, root operation types, PageInfo and Node.
// Enum blocks never match parseTypeHeader, so they are skipped as well.
var skipSuffixes = []string{"input", "connection", "edge", "payload", "filter", "orderby", "sortinput"}
var skipPrefixes = []string{"__"}
var skipExact = map[string]bool{
	"query": true, "mutation": true, "subscription": true,
	"pageinfo": true, "node": true,
}

func shouldSkipType(name string) bool {
	lower := strings.ToLower(name)
	if skipExact[lower] {
		return true
	}
	for _, p := range skipPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	for _, s := range skipSuffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

// Parse reads a type-graph description of the form:
//
//	type Target {
//	  id: ID!
//	  approvedSymbol: String
//	  associatedDiseases: [Disease]
//	  description(chunk: always, threshold: 4096): String
//	}
//
// and returns the field table, directed relationships, and per-field
// extraction/chunking rules. Unparseable or empty input yields an empty,
// non-nil Graph and no error: the descriptor is advisory, not load-bearing.
func Parse(src string) (*Graph, error) {
	g := &Graph{
		Fields:     make(map[string]map[string]FieldSpec),
		Extraction: make(map[string]map[string]string),
		Chunking:   make(map[string]map[string]types.ChunkingRule),
	}

	scanner := bufio.NewScanner(strings.NewReader(src))
	var currentType string
	inBlock := false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		if !inBlock {
			typeName, ok := parseTypeHeader(line)
			if !ok {
				continue
			}
			if shouldSkipType(typeName) {
				// Still need to consume the block body if it opened here.
				if strings.Contains(line, "{") {
					inBlock = true
					currentType = "" // sentinel: swallow fields until closing brace
				}
				continue
			}
			currentType = typeName
			if strings.Contains(line, "{") {
				inBlock = true
				if g.Fields[currentType] == nil {
					g.Fields[currentType] = make(map[string]FieldSpec)
				}
			}
			continue
		}

		if line == "}" {
			inBlock = false
			currentType = ""
			continue
		}

		if currentType == "" {
			// Inside a skipped type's block; ignore its fields.
			continue
		}

		parseFieldLine(g, currentType, line)
	}

	deriveRelationships(g)

	return g, scanner.Err()
}

// parseTypeHeader recognises "type Name {" or "type Name implements X {"
// headers and returns the bare type name.
func parseTypeHeader(line string) (string, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != "type" {
		return "", false
	}
	return fields[1], true
}

// parseFieldLine parses a line of the form:
//
//	name(arg: val, arg2: val2): Type!
//	name: [Type]
//
// and records a FieldSpec plus any extraction/chunking args.
func parseFieldLine(g *Graph, typeName, line string) {
	line = strings.TrimSuffix(line, ",")
	colon := strings.Index(line, ":")
	if open := strings.Index(line, "("); open >= 0 && open < colon {
		// The arg list has colons of its own; the type separator follows ")".
		colon = -1
		if close := strings.Index(line[open:], ")"); close >= 0 {
			if c := strings.Index(line[open+close:], ":"); c >= 0 {
				colon = open + close + c
			}
		}
	}
	if colon < 0 {
		return
	}
	head := strings.TrimSpace(line[:colon])
	typeExpr := strings.TrimSpace(line[colon+1:])

	fieldName := head
	var args string
	if open := strings.Index(head, "("); open >= 0 {
		fieldName = strings.TrimSpace(head[:open])
		close := strings.LastIndex(head, ")")
		if close > open {
			args = head[open+1 : close]
		}
	}
	if fieldName == "" {
		return
	}

	spec := parseTypeExpr(typeExpr)
	if g.Fields[typeName] == nil {
		g.Fields[typeName] = make(map[string]FieldSpec)
	}
	g.Fields[typeName][fieldName] = spec

	if args == "" {
		return
	}
	applyFieldArgs(g, typeName, fieldName, args)
}

// parseTypeExpr classifies a GraphQL-ish type expression: "[Foo]!" is a
// non-nullable list of Foo, "Foo" is a nullable scalar/reference to Foo.
func parseTypeExpr(expr string) FieldSpec {
	nullable := !strings.HasSuffix(expr, "!")
	expr = strings.TrimSuffix(expr, "!")
	isList := strings.HasPrefix(expr, "[") && strings.HasSuffix(expr, "]")
	base := expr
	if isList {
		base = strings.TrimSuffix(strings.TrimPrefix(expr, "["), "]")
		base = strings.TrimSuffix(base, "!")
	}
	return FieldSpec{BaseType: strings.TrimSpace(base), IsList: isList, Nullable: nullable}
}

// applyFieldArgs recognises "chunk: <priority>" and "threshold: <n>"
// arguments, plus an "extract" hint, on a field's parenthesised arg list.
func applyFieldArgs(g *Graph, typeName, fieldName, args string) {
	var priority types.ChunkPriority
	threshold := -1
	for _, part := range strings.Split(args, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		val := strings.TrimSpace(kv[1])
		switch key {
		case "chunk":
			priority = types.ChunkPriority(val)
		case "threshold":
			if n, err := strconv.Atoi(val); err == nil {
				threshold = n
			}
		case "extract":
			if g.Extraction[typeName] == nil {
				g.Extraction[typeName] = make(map[string]string)
			}
			g.Extraction[typeName][fieldName] = val
		}
	}
	if priority != "" {
		if g.Chunking[typeName] == nil {
			g.Chunking[typeName] = make(map[string]types.ChunkingRule)
		}
		g.Chunking[typeName][fieldName] = types.ChunkingRule{Priority: priority, Threshold: threshold}
	}
}

// ChunkingRule looks up a per-field chunking override declared under
// typeName.fieldName, matching typeName case-insensitively (declared type
// blocks are typically PascalCase; inferred entity types are lowercase).
func (g *Graph) ChunkingRule(typeName, fieldName string) (types.ChunkingRule, bool) {
	for t, fields := range g.Chunking {
		if !strings.EqualFold(t, typeName) {
			continue
		}
		if rule, ok := fields[fieldName]; ok {
			return rule, true
		}
	}
	return types.ChunkingRule{}, false
}

// deriveRelationships walks every parsed field and records a directed
// one-to-many or one-to-one relationship whenever a field's base type is
// itself a known type block, skipping self-relations.
func deriveRelationships(g *Graph) {
	for fromType, fields := range g.Fields {
		for fieldName, spec := range fields {
			if spec.BaseType == "" || spec.BaseType == fromType {
				continue
			}
			if _, known := g.Fields[spec.BaseType]; !known {
				continue
			}
			card := OneToOne
			if spec.IsList {
				card = OneToMany
			}
			g.Relationships = append(g.Relationships, Relationship{
				FromType:    fromType,
				ToType:      spec.BaseType,
				FieldName:   fieldName,
				Cardinality: card,
			})
		}
	}
}

package insertion

import (
	"fmt"

	"github.com/biostage/biostage/internal/chunkstore"
	"github.com/biostage/biostage/internal/inference"
	"github.com/biostage/biostage/pkg/types"
)

// scalarValue passes non-string values through untouched and routes string
// values through the chunk-size check before they become a column value.
func (ins *inserter) scalarValue(typ, fieldName string, val any) (any, error) {
	s, ok := val.(string)
	if !ok {
		return val, nil
	}
	return ins.maybeChunk(typ, fieldName, s, chunkstore.ContentTypeText)
}

// coerceForColumn renders val as its text form when the destination column
// resolved to TEXT (typically because other observations widened it) but
// val itself is a non-string Go value, so a TEXT-affinity column holds the
// same textual representation other rows in the same column would.
func coerceForColumn(class types.StorageClass, val any) any {
	if class != types.Text {
		return val
	}
	switch v := val.(type) {
	case nil, string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

// maybeChunk decides whether one field's content should be chunked: a
// per-field override from the descriptor, when present, otherwise the
// configured default threshold. Identifier-carrying fields are pinned to
// never chunk, overriding any descriptor rule or threshold, since a chunked
// identifier breaks the joins and foreign-key lookups built on it.
func (ins *inserter) maybeChunk(typ, fieldName, content, contentType string) (any, error) {
	if inference.IsIdentifierField(fieldName) {
		return content, nil
	}

	var rulePtr *types.ChunkingRule
	if ins.desc != nil {
		if rule, ok := ins.desc.ChunkingRule(typ, fieldName); ok {
			rulePtr = &rule
		}
	}

	threshold := ins.cfg.ChunkThreshold
	if threshold == 0 {
		threshold = types.DefaultChunkThreshold
	}
	if !chunkstore.ShouldChunk(len(content), rulePtr, threshold) {
		return content, nil
	}

	token, err := chunkstore.Store(ins.ctx, ins.db, content, contentType, ins.cfg)
	if err != nil {
		return nil, fmt.Errorf("chunking %s.%s: %w", typ, fieldName, err)
	}
	return token, nil
}

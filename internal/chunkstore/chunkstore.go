// Package chunkstore splits oversized text/JSON payloads into size-bounded,
// optionally-compressed chunks and reassembles them transparently on read.
// It owns the content_chunks and chunk_metadata reserved system tables.
package chunkstore

import (
	"bytes"
	"compress/gzip"
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/biostage/biostage/pkg/types"
)

// TokenPrefix is the literal chunk-reference-token prefix.
const TokenPrefix = "__CHUNKED__:"

// ContentTypeJSON and ContentTypeText are the two recognised content-type
// tags recorded on a chunk_metadata row.
const (
	ContentTypeJSON = "json"
	ContentTypeText = "text"
)

// Init executes the chunk store's schema DDL against db. Safe to call
// repeatedly (every statement is CREATE ... IF NOT EXISTS).
func Init(ctx context.Context, db *sql.DB) error {
	for _, stmt := range SchemaDDL {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("chunk store schema: %w", err)
		}
	}
	return nil
}

// newContentID formats a fresh, random content identifier; Token wraps it
// as a chunk-reference token.
func newContentID() string {
	return "chunk_" + strings.ReplaceAll(uuid.New().String(), "-", "")
}

// Token formats contentID as a chunk-reference token.
func Token(contentID string) string {
	return TokenPrefix + contentID
}

// ContentID extracts the content identifier from a chunk-reference token.
// ok is false if s does not carry the token prefix.
func ContentID(s string) (id string, ok bool) {
	if !strings.HasPrefix(s, TokenPrefix) {
		return "", false
	}
	return strings.TrimPrefix(s, TokenPrefix), true
}

// IsToken reports whether s is a chunk-reference token.
func IsToken(s string) bool {
	_, ok := ContentID(s)
	return ok
}

// ShouldChunk decides whether content of length size should be chunked,
// honoring a per-field priority override when one applies. rule is nil
// when no schema descriptor applies to this field, in which case the
// default threshold governs.
func ShouldChunk(size int, rule *types.ChunkingRule, defaultThreshold int) bool {
	if rule == nil {
		return size > defaultThreshold
	}
	switch rule.Priority {
	case types.PriorityNever:
		return false
	case types.PriorityAlways:
		return size > rule.Threshold
	case types.PrioritySizeBased:
		return size > rule.Threshold
	default:
		return size > defaultThreshold
	}
}

// Store chunks content (already decided to exceed the threshold by the
// caller via ShouldChunk) into content_chunks/chunk_metadata rows and
// returns the chunk-reference token. content is the original UTF-8 string;
// contentType is ContentTypeJSON or ContentTypeText.
func Store(ctx context.Context, db *sql.DB, content, contentType string, cfg types.Config) (string, error) {
	original := []byte(content)
	payload := original
	compressed := false
	encoding := sql.NullString{}

	if cfg.Compress && len(original) > cfg.CompressMin {
		if gz, err := gzipBytes(original); err == nil && len(gz) < len(original) {
			payload = gz
			compressed = true
			encoding = sql.NullString{String: "gzip", Valid: true}
		}
	}

	encoded := base64.StdEncoding.EncodeToString(payload)
	contentID := newContentID()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin chunk store transaction: %w", err)
	}
	defer tx.Rollback()

	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = types.DefaultChunkSize
	}

	total := 0
	for offset := 0; offset < len(encoded); offset += chunkSize {
		end := offset + chunkSize
		if end > len(encoded) {
			end = len(encoded)
		}
		slice := encoded[offset:end]
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO content_chunks (content_id, chunk_index, chunk_data, chunk_size) VALUES (?, ?, ?, ?)`,
			contentID, total, slice, len(slice)); err != nil {
			return "", fmt.Errorf("inserting chunk %d: %w", total, err)
		}
		total++
	}
	if total == 0 {
		// Zero-length content still gets one empty chunk so total_chunks >= 1
		// and retrieval's count check holds.
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO content_chunks (content_id, chunk_index, chunk_data, chunk_size) VALUES (?, 0, '', 0)`,
			contentID); err != nil {
			return "", fmt.Errorf("inserting empty chunk: %w", err)
		}
		total = 1
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO chunk_metadata (content_id, total_chunks, original_size, content_type, compressed, encoding)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		contentID, total, len(original), contentType, boolToInt(compressed), encoding); err != nil {
		return "", fmt.Errorf("inserting chunk metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing chunk store transaction: %w", err)
	}

	return Token(contentID), nil
}

// Retrieve resolves a chunk-reference token back to its original UTF-8
// string.
func Retrieve(ctx context.Context, db *sql.DB, token string) (string, error) {
	contentID, ok := ContentID(token)
	if !ok {
		return "", fmt.Errorf("%w: not a chunk reference token", types.ErrMissingChunkContent)
	}

	var totalChunks, originalSize int
	var compressedFlag int
	var encoding sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT total_chunks, original_size, compressed, encoding FROM chunk_metadata WHERE content_id = ?`,
		contentID).Scan(&totalChunks, &originalSize, &compressedFlag, &encoding)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: %s", types.ErrMissingChunkContent, contentID)
	}
	if err != nil {
		return "", fmt.Errorf("loading chunk metadata: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT chunk_data FROM content_chunks WHERE content_id = ? ORDER BY chunk_index`, contentID)
	if err != nil {
		return "", fmt.Errorf("loading chunks: %w", err)
	}
	defer rows.Close()

	var sb strings.Builder
	count := 0
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return "", fmt.Errorf("scanning chunk: %w", err)
		}
		sb.WriteString(data)
		count++
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	if count != totalChunks {
		return "", fmt.Errorf("%w: expected %d chunks, found %d", types.ErrCorruptChunkSet, totalChunks, count)
	}

	raw, err := base64.StdEncoding.DecodeString(sb.String())
	if err != nil {
		return "", fmt.Errorf("decoding chunk payload: %w", err)
	}

	if compressedFlag != 0 {
		raw, err = gunzipBytes(raw)
		if err != nil {
			return "", fmt.Errorf("decompressing chunk payload: %w", err)
		}
	}

	return string(raw), nil
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gunzipBytes(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

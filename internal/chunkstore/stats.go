package chunkstore

import (
	"context"
	"database/sql"

	"github.com/biostage/biostage/pkg/types"
)

// Stats aggregates chunking statistics from the two system tables.
func Stats(ctx context.Context, db *sql.DB) (types.ChunkingStatsResult, error) {
	var result types.ChunkingStatsResult

	var totalItems, totalChunks, compressedItems sql.NullInt64
	var totalOriginalSize sql.NullFloat64
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total_chunks), 0), COALESCE(SUM(original_size), 0),
		       COALESCE(SUM(compressed), 0)
		FROM chunk_metadata`).Scan(&totalItems, &totalChunks, &totalOriginalSize, &compressedItems)
	if err != nil {
		return result, err
	}

	result.Metadata.TotalChunkedItems = int(totalItems.Int64)
	result.Metadata.TotalChunks = int(totalChunks.Int64)
	result.Metadata.TotalOriginalSize = int64(totalOriginalSize.Float64)
	result.Metadata.CompressedItems = int(compressedItems.Int64)
	if result.Metadata.TotalChunkedItems > 0 {
		result.Metadata.AvgOriginalSize = totalOriginalSize.Float64 / float64(result.Metadata.TotalChunkedItems)
	}

	var totalRecords sql.NullInt64
	var totalStoredSize sql.NullFloat64
	err = db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(chunk_size), 0) FROM content_chunks`).
		Scan(&totalRecords, &totalStoredSize)
	if err != nil {
		return result, err
	}
	result.Chunks.TotalChunkRecords = int(totalRecords.Int64)
	result.Chunks.TotalStoredSize = int64(totalStoredSize.Float64)
	if result.Chunks.TotalChunkRecords > 0 {
		result.Chunks.AvgChunkSize = totalStoredSize.Float64 / float64(result.Chunks.TotalChunkRecords)
	}

	if result.Chunks.TotalStoredSize > 0 {
		result.CompressionRatio = float64(result.Metadata.TotalOriginalSize) / float64(result.Chunks.TotalStoredSize)
	}

	return result, nil
}

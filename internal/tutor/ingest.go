package tutor

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"history-tutor/internal/parser"
)

// ChunkStore is the append side of the knowledge store.
type ChunkStore interface {
	Ingest(ctx context.Context, chunks []string, sourceID string) (int, error)
}

// Ingestor turns uploaded documents into knowledge-store chunks. Upload is a
// user-facing operation: every failure becomes a clean (false, message)
// result, never an error or a panic.
type Ingestor struct {
	store ChunkStore
}

func NewIngestor(store ChunkStore) *Ingestor {
	return &Ingestor{store: store}
}

// IngestDocument parses raw upload bytes and appends the extracted chunks
// under the filename as source ID.
func (i *Ingestor) IngestDocument(ctx context.Context, data []byte, filename string) (bool, string) {
	chunks, err := parser.Parse(data, filename)
	if err != nil {
		log.Warn().Err(err).Str("filename", filename).Msg("document parse failed")
		return false, fmt.Sprintf("Could not read %s: %v", filename, err)
	}
	if len(chunks) == 0 {
		return false, fmt.Sprintf("No text could be extracted from %s.", filename)
	}

	n, err := i.store.Ingest(ctx, chunks, filename)
	if err != nil {
		log.Warn().Err(err).Str("filename", filename).Msg("document ingestion failed")
		return false, fmt.Sprintf("No text could be extracted from %s.", filename)
	}
	log.Info().Str("filename", filename).Int("chunks", n).Msg("document ingested")
	return true, fmt.Sprintf("Added %d chunks from %s to the knowledge base.", n, filename)
}

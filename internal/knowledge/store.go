// Package knowledge wraps a chromem-go collection as the tutor's persistent
// nearest-neighbor index. The store is append-only: chunks are never mutated
// or deleted once written.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"history-tutor/internal/models"
	"history-tutor/internal/notes"
)

// ErrNoContentExtracted signals that an ingestion produced zero usable
// chunks. Upload callers turn it into a clean failure message.
var ErrNoContentExtracted = errors.New("no content extracted from document")

const compress = false

// Store owns one chromem collection. Queries may run concurrently with
// ingestion; the mutex only guards the size-read-then-add window so chunk ID
// offsets stay unique.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection

	mu sync.Mutex
}

// NewStore opens (or creates) the persistent database at path and its single
// collection. Pass inMemory=true in tests to avoid touching disk.
func NewStore(path, collectionName string, inMemory bool, embed chromem.EmbeddingFunc) (*Store, error) {
	var db *chromem.DB
	var err error
	if inMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %v", err)
		}
	}

	c, err := db.GetOrCreateCollection(collectionName, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %v", err)
	}

	return &Store{db: db, collection: c}, nil
}

// Size reports the number of stored chunks.
func (s *Store) Size() int {
	return s.collection.Count()
}

// Ingest appends chunks under sourceID and returns how many were added.
// Chunk IDs are sourceID plus an offset starting at the current store size,
// so re-uploading a same-named document appends a disjoint ID range instead
// of overwriting the earlier one.
func (s *Store) Ingest(ctx context.Context, chunks []string, sourceID string) (int, error) {
	var docs []chromem.Document

	s.mu.Lock()
	defer s.mu.Unlock()

	offset := s.collection.Count()
	for _, text := range chunks {
		if text == "" {
			continue
		}
		// number by kept position, not slice index: skipped empties must not
		// leave gaps that a later ingest would re-occupy and overwrite
		seq := offset + len(docs)
		docs = append(docs, chromem.Document{
			ID:      fmt.Sprintf("%s-%d", sourceID, seq),
			Content: text,
			Metadata: map[string]string{
				"source":   sourceID,
				"sequence": fmt.Sprintf("%d", seq),
			},
		})
	}
	if len(docs) == 0 {
		return 0, ErrNoContentExtracted
	}

	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return 0, fmt.Errorf("failed to add documents: %v", err)
	}
	return len(docs), nil
}

// Query returns up to k chunk texts nearest to the query text. An empty
// store, or no neighbors, yields the single no-results sentinel rather than
// an error.
func (s *Store) Query(ctx context.Context, text string, k int) ([]string, error) {
	count := s.collection.Count()
	if count == 0 {
		return []string{models.NoResultsMessage}, nil
	}
	if k < 1 {
		k = 1
	}
	if k > count {
		k = count
	}

	results, err := s.collection.Query(ctx, text, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}
	if len(results) == 0 {
		return []string{models.NoResultsMessage}, nil
	}

	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Content)
	}
	return out, nil
}

// Bootstrap bulk-ingests the static notes corpus the first time the store is
// opened against an empty backing directory. Idempotent: a non-empty store is
// left untouched, so repeated process starts never duplicate content.
func (s *Store) Bootstrap(ctx context.Context, corpus string) error {
	if s.Size() > 0 {
		return nil
	}
	if corpus == "" {
		log.Warn().Msg("notes corpus is empty, skipping knowledge store bootstrap")
		return nil
	}

	paragraphs := notes.SplitParagraphs(corpus)
	n, err := s.Ingest(ctx, paragraphs, models.NotesSourceID)
	if err != nil {
		return fmt.Errorf("bootstrapping knowledge store: %w", err)
	}
	log.Info().Int("chunks", n).Msg("knowledge store bootstrapped from notes")
	return nil
}

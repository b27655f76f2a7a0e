// Package evidence implements the tool-selection policy: a deterministic
// waterfall over the retrieval sources, local and specific before online and
// broad, bounded in both consultations and output size.
package evidence

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"history-tutor/internal/lookup"
	"history-tutor/internal/models"
)

// Source names used for snippet provenance.
const (
	SourceVector    = "vector"
	SourceNotes     = "notes"
	SourceWikipedia = "wikipedia"
	SourceWeb       = "web"
)

// VectorStore is the nearest-neighbor index facet the aggregator needs.
type VectorStore interface {
	Query(ctx context.Context, text string, k int) ([]string, error)
}

// KeywordIndex is the static notes search facet.
type KeywordIndex interface {
	Search(query string) string
}

// Searcher is the shape shared by both online adapters.
type Searcher interface {
	Search(ctx context.Context, query string) string
}

// Aggregator queries sources in priority order and merges the results into a
// bounded digest. It holds no per-request state.
type Aggregator struct {
	store VectorStore
	notes KeywordIndex
	wiki  Searcher
	web   Searcher

	topK     int
	minLocal int
	maxCalls int
}

func NewAggregator(store VectorStore, notes KeywordIndex, wiki, web Searcher, topK, minLocal, maxCalls int) *Aggregator {
	return &Aggregator{
		store:    store,
		notes:    notes,
		wiki:     wiki,
		web:      web,
		topK:     topK,
		minLocal: minLocal,
		maxCalls: maxCalls,
	}
}

// Gather runs the waterfall: vector store first; if it yields too little,
// the keyword notes; then Wikipedia; then web search. Online sources stop at
// the first usable result. The consultation cap counts the vector store and
// the two online adapters (the notes fallback is an in-process file read,
// not a tool call). Error-shaped adapter output is tagged invalid by
// classify and never becomes a digest item.
func (a *Aggregator) Gather(ctx context.Context, question string) models.Digest {
	var digest models.Digest
	calls := 0

	// vector store: cheapest and most specific
	calls++
	results, err := a.store.Query(ctx, question, a.topK)
	if err != nil {
		log.Warn().Err(err).Msg("vector store query failed")
	}
	for _, r := range results {
		add(&digest, classify(r, SourceVector))
	}

	if len(digest.Items) < a.minLocal {
		// second local source before going online
		for _, p := range splitResult(a.notes.Search(question)) {
			add(&digest, classify(p, SourceNotes))
		}
	}

	if len(digest.Items) < a.minLocal && calls < a.maxCalls {
		calls++
		for _, p := range splitResult(a.wiki.Search(ctx, question)) {
			add(&digest, classify(p, SourceWikipedia))
		}
	}

	if digest.Empty() && calls < a.maxCalls {
		calls++
		for _, p := range splitResult(a.web.Search(ctx, question)) {
			add(&digest, classify(p, SourceWeb))
		}
	}

	log.Debug().Int("snippets", len(digest.Items)).Int("source_calls", calls).Msg("evidence gathered")
	return digest
}

// add keeps only valid snippets; error-shaped text is logged and dropped.
func add(d *models.Digest, s models.Snippet) {
	if !s.Valid {
		if s.Text != "" {
			log.Debug().Str("source", s.Source).Str("text", s.Text).Msg("discarding non-evidence text")
		}
		return
	}
	d.Add(s)
}

// classify tags sentinel and error-shaped adapter output as invalid.
func classify(text, source string) models.Snippet {
	text = strings.TrimSpace(text)
	s := models.Snippet{Text: text, Source: source, Valid: true}
	switch {
	case text == "":
		s.Valid = false
	case text == models.NoResultsMessage,
		text == models.NotesMissingMessage,
		text == lookup.MissingKeyMessage:
		s.Valid = false
	case strings.HasPrefix(text, "Error"),
		strings.HasPrefix(text, "No results found"),
		strings.HasPrefix(text, "No Wikipedia results"):
		s.Valid = false
	}
	return s
}

// splitResult breaks a multi-paragraph adapter response into snippet-sized
// pieces, keeping error strings whole so classify can recognize them. An
// attribution line stays attached to the paragraph before it instead of
// becoming a snippet of its own.
func splitResult(result string) []string {
	result = strings.TrimSpace(result)
	if result == "" {
		return nil
	}
	if strings.HasPrefix(result, "Error") || strings.HasPrefix(result, "No ") {
		return []string{result}
	}
	var parts []string
	for _, p := range strings.Split(result, "\n\n") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if strings.HasPrefix(p, "Source:") && len(parts) > 0 {
			parts[len(parts)-1] += "\n" + p
			continue
		}
		parts = append(parts, p)
	}
	return parts
}

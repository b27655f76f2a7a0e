// Package notes implements a keyword search over the static WW2 course
// notes. It is the cheapest retrieval source: plain term overlap, no
// embeddings, no network.
package notes

import (
	"os"
	"sort"
	"strings"

	"history-tutor/internal/models"
)

const topParagraphs = 3

// Index scores blank-line-delimited paragraphs of a notes file by query term
// overlap. The file is read lazily on each search so edits are picked up
// without a restart.
type Index struct {
	path string
}

func NewIndex(path string) *Index {
	return &Index{path: path}
}

// SplitParagraphs breaks text on blank-line boundaries, trimming whitespace
// and dropping empty entries. Shared with the knowledge-store bootstrap so
// both sources chunk the corpus identically.
func SplitParagraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Search returns the top 3 paragraphs by descending term-overlap score, ties
// keeping corpus order. With no scoring paragraph the full corpus is returned
// unfiltered, so callers must tolerate a large response. A missing notes file
// yields models.NotesMissingMessage, never an error.
func (ix *Index) Search(query string) string {
	data, err := os.ReadFile(ix.path)
	if err != nil {
		return models.NotesMissingMessage
	}
	text := string(data)

	paragraphs := SplitParagraphs(text)
	terms := strings.Fields(strings.ToLower(query))

	type scored struct {
		score int
		order int
		text  string
	}
	var hits []scored
	for i, p := range paragraphs {
		lower := strings.ToLower(p)
		score := 0
		for _, t := range terms {
			if strings.Contains(lower, t) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, scored{score: score, order: i, text: p})
		}
	}

	if len(hits) == 0 {
		return text
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})

	n := topParagraphs
	if len(hits) < n {
		n = len(hits)
	}
	parts := make([]string, 0, n)
	for _, h := range hits[:n] {
		parts = append(parts, h.text)
	}
	return strings.Join(parts, "\n\n")
}

// Corpus returns the raw notes text, or "" if the file is missing. Used by
// the knowledge-store bootstrap.
func (ix *Index) Corpus() string {
	data, err := os.ReadFile(ix.path)
	if err != nil {
		return ""
	}
	return string(data)
}

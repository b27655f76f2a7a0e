package notes

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"history-tutor/internal/models"
)

const testCorpus = `The Battle of Britain was fought in the air in 1940.

The siege of Stalingrad lasted from 1942 to 1943 and the Stalingrad pocket destroyed the Sixth Army.

D-Day was the Normandy invasion of June 1944.`

func writeCorpus(t *testing.T, text string) *Index {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return NewIndex(path)
}

func TestSearchRanksByTermOverlap(t *testing.T) {
	ix := writeCorpus(t, testCorpus)

	got := ix.Search("Stalingrad siege")

	parts := strings.Split(got, "\n\n")
	require.NotEmpty(t, parts)
	// two matching terms beat zero; non-matching paragraphs are dropped
	assert.Contains(t, parts[0], "Stalingrad")
	for _, p := range parts {
		assert.NotContains(t, p, "D-Day")
		assert.NotContains(t, p, "Battle of Britain")
	}
}

func TestSearchTieKeepsCorpusOrder(t *testing.T) {
	ix := writeCorpus(t, "alpha war one.\n\nbeta war two.\n\ngamma war three.")

	got := ix.Search("war")

	parts := strings.Split(got, "\n\n")
	require.Len(t, parts, 3)
	assert.Equal(t, "alpha war one.", parts[0])
	assert.Equal(t, "beta war two.", parts[1])
	assert.Equal(t, "gamma war three.", parts[2])
}

func TestSearchReturnsTopThreeOnly(t *testing.T) {
	ix := writeCorpus(t, "war a\n\nwar b\n\nwar c\n\nwar d")

	got := ix.Search("war")
	assert.Len(t, strings.Split(got, "\n\n"), 3)
}

func TestSearchFallsBackToFullCorpus(t *testing.T) {
	ix := writeCorpus(t, testCorpus)

	got := ix.Search("zzzz qqqq")
	assert.Equal(t, testCorpus, got)
}

func TestSearchMissingFileReturnsSentinel(t *testing.T) {
	ix := NewIndex(filepath.Join(t.TempDir(), "does-not-exist.txt"))

	assert.Equal(t, models.NotesMissingMessage, ix.Search("Stalingrad"))
	assert.Empty(t, ix.Corpus())
}

func TestSplitParagraphs(t *testing.T) {
	got := SplitParagraphs("one\n\n\n\n  two  \n\n")
	assert.Equal(t, []string{"one", "two"}, got)
}

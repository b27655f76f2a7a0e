package models

import (
	"fmt"
	"strings"
)

// Mode selects the shape of the composed answer.
type Mode int

const (
	ModeRegularAnswer Mode = iota
	ModeSummary
	ModeExplanation
	ModeQuiz
)

func (m Mode) String() string {
	switch m {
	case ModeSummary:
		return "Summary"
	case ModeExplanation:
		return "Explanation"
	case ModeQuiz:
		return "Quiz"
	default:
		return "Regular answer"
	}
}

// ParseMode accepts the UI labels ("Regular answer", "Summary", ...) in any case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "regular", "regular answer", "answer":
		return ModeRegularAnswer, nil
	case "summary":
		return ModeSummary, nil
	case "explanation", "explain":
		return ModeExplanation, nil
	case "quiz":
		return ModeQuiz, nil
	default:
		return ModeRegularAnswer, fmt.Errorf("unknown mode: %q", s)
	}
}

// KnowledgeChunk is one retrievable unit of text. SourceID plus
// SequenceIndex is unique within the store.
type KnowledgeChunk struct {
	Text          string
	SourceID      string
	SequenceIndex int
}

// Snippet is one piece of retrieved text with provenance. Valid is false for
// error-shaped adapter output, which must never be treated as evidence.
type Snippet struct {
	Text   string
	Source string
	Valid  bool
}

// MaxDigestItems bounds the evidence passed to the compose stage.
const MaxDigestItems = 6

// Digest is the bounded, ordered evidence set handed from retrieval to
// generation. Built fresh per request.
type Digest struct {
	Items []Snippet
}

// Add appends a snippet, dropping it silently once the digest is full.
func (d *Digest) Add(s Snippet) {
	if len(d.Items) >= MaxDigestItems {
		return
	}
	d.Items = append(d.Items, s)
}

func (d *Digest) Empty() bool {
	return len(d.Items) == 0
}

// Render joins the snippet texts as bullet lines for prompting.
func (d *Digest) Render() string {
	var b strings.Builder
	for _, s := range d.Items {
		b.WriteString("- ")
		b.WriteString(s.Text)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Role of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is one exchange unit. The pipeline treats turn history as
// read-only input supplied by the caller.
type ConversationTurn struct {
	Role    Role
	Content string
	Mode    Mode
}

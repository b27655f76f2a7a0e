// Package tutor drives the two-stage response pipeline: a research pass that
// condenses retrieved evidence into a bounded digest, then a compose pass
// whose instruction and persona depend on the requested mode.
package tutor

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"history-tutor/internal/llmservice"
	"history-tutor/internal/models"
)

// Gatherer is the retrieval facet the pipeline depends on.
type Gatherer interface {
	Gather(ctx context.Context, question string) models.Digest
}

// Pipeline is stateless across requests; every Run is independent and
// synchronous. Callers wanting timeouts wrap the context.
type Pipeline struct {
	gatherer Gatherer
	gen      llmservice.Generator
}

func NewPipeline(gatherer Gatherer, gen llmservice.Generator) *Pipeline {
	return &Pipeline{gatherer: gatherer, gen: gen}
}

// modePolicy is the single mode dispatch table: compose instruction plus
// target persona. Quiz routes to the quiz-author persona, everything else to
// the tutor.
var modePolicy = map[models.Mode]struct {
	instruction string
	persona     string
}{
	models.ModeRegularAnswer: {models.RegularAnswerInstruction, models.TutorPersona},
	models.ModeSummary:       {models.SummaryInstruction, models.TutorPersona},
	models.ModeExplanation:   {models.ExplanationInstruction, models.TutorPersona},
	models.ModeQuiz:          {models.QuizInstruction, models.QuizAuthorPersona},
}

// Run answers one question. history is an optional pre-rendered block of
// "User:/Assistant:" lines, most recent last; the pipeline never mutates it.
// Retrieval failures degrade silently; only malformed input or a generation
// failure surfaces as an error.
func (p *Pipeline) Run(ctx context.Context, question string, mode models.Mode, history string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("question must not be empty")
	}

	contextPart := ""
	if history != "" {
		contextPart = fmt.Sprintf("Conversation so far:\n%s\n\n", history)
	}

	// research stage
	digest := p.gatherer.Gather(ctx, question)
	digestText := digest.Render()
	if digest.Empty() {
		digestText = "(no evidence was retrieved; say so explicitly)"
	}

	researchPrompt := fmt.Sprintf(models.ResearchPromptTemplate, contextPart, question, digestText)
	findings, err := p.gen.Generate(ctx, models.ResearchPersona, researchPrompt)
	if err != nil {
		return "", fmt.Errorf("research stage: %w", err)
	}
	log.Debug().Str("mode", mode.String()).Int("evidence_items", len(digest.Items)).Msg("research stage complete")

	// compose stage: unconditional, even on thin evidence
	policy, ok := modePolicy[mode]
	if !ok {
		policy = modePolicy[models.ModeRegularAnswer]
	}
	composePrompt := fmt.Sprintf(models.ComposePromptTemplate, contextPart, policy.instruction, findings, question)
	answer, err := p.gen.Generate(ctx, policy.persona, composePrompt)
	if err != nil {
		return "", fmt.Errorf("compose stage: %w", err)
	}
	return answer, nil
}

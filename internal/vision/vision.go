// Package vision is the single-shot image captioning entry point,
// independent of the text pipeline.
package vision

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"

	"history-tutor/internal/models"
)

// Multimodal is the image-capable generation facet.
type Multimodal interface {
	GenerateMultimodal(ctx context.Context, parts []llms.ContentPart) (string, error)
}

type Analyzer struct {
	gen Multimodal
}

func NewAnalyzer(gen Multimodal) *Analyzer {
	return &Analyzer{gen: gen}
}

// Describe captions an uploaded image, identifying WW2-era objects where
// possible. Failures come back as explanatory text, matching the adapters'
// degradation contract.
func (a *Analyzer) Describe(ctx context.Context, data []byte) string {
	mime := http.DetectContentType(data)
	parts := []llms.ContentPart{
		llms.TextPart(models.VisionPrompt),
		llms.BinaryPart(mime, data),
	}
	out, err := a.gen.GenerateMultimodal(ctx, parts)
	if err != nil {
		log.Warn().Err(err).Msg("image analysis failed")
		return fmt.Sprintf("Could not analyze image: %v", err)
	}
	return out
}

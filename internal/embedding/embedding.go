package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"github.com/philippgille/chromem-go"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// localDims is the dimensionality of the built-in embedder.
const localDims = 256

// NewLocalFunc returns a deterministic embedding function that needs no
// external model: a hashed bag-of-words over lowercased tokens, L2-normalized.
// Quality is far below a real embedding model but it is free, offline, and
// stable across runs, which the persisted store depends on.
func NewLocalFunc() chromem.EmbeddingFunc {
	return func(_ context.Context, text string) ([]float32, error) {
		vec := make([]float32, localDims)
		for _, tok := range strings.Fields(strings.ToLower(text)) {
			tok = strings.Trim(tok, ".,;:!?\"'()[]")
			if tok == "" {
				continue
			}
			h := fnv.New32a()
			h.Write([]byte(tok))
			vec[h.Sum32()%localDims]++
		}
		var norm float64
		for _, v := range vec {
			norm += float64(v) * float64(v)
		}
		if norm == 0 {
			vec[0] = 1 // avoid a zero vector for empty input
			return vec, nil
		}
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
		return vec, nil
	}
}

// NewOpenAIFunc builds an embedding function backed by an OpenAI-compatible
// endpoint, for deployments that want real semantic embeddings.
func NewOpenAIFunc(key, baseURL, model string) (chromem.EmbeddingFunc, error) {
	llm, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithToken(strings.TrimPrefix(key, "Bearer ")),
		openai.WithModel(model),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, err
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, text string) ([]float32, error) {
		return embedder.EmbedQuery(ctx, text)
	}, nil
}

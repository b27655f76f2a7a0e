package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissingCredential is returned when the mandatory generation-service key
// is absent. Detected at load time so startup fails fast instead of failing
// mid-request.
var ErrMissingCredential = errors.New("missing llm credential")

type LLMConfig struct {
	Key            string  `yaml:"key"`
	BaseURL        string  `yaml:"base_url"`
	Model          string  `yaml:"model"`
	EmbeddingModel string  `yaml:"embedding_model"`
	Temperature    float64 `yaml:"temperature"`
	RatePerMinute  int     `yaml:"rate_per_minute"`
}

type SearchConfig struct {
	SerpAPIKey string `yaml:"serpapi_key"`
}

type StoreConfig struct {
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
	InMemory   bool   `yaml:"in_memory"`
}

type NotesConfig struct {
	Path string `yaml:"path"`
}

type RAGConfig struct {
	TopK            int `yaml:"top_k"`
	MinLocalResults int `yaml:"min_local_results"`
	MaxSourceCalls  int `yaml:"max_source_calls"`
}

type Config struct {
	LLM    LLMConfig    `yaml:"llm"`
	Search SearchConfig `yaml:"search"`
	Store  StoreConfig  `yaml:"store"`
	Notes  NotesConfig  `yaml:"notes"`
	RAG    RAGConfig    `yaml:"rag"`
}

const (
	defaultBaseURL        = "https://api.openai.com/v1"
	defaultModel          = "gpt-4o-mini"
	defaultStorePath      = "./tutordb"
	defaultCollection     = "ww2_knowledge"
	defaultNotesPath      = "./data/ww2_history_notes.txt"
	defaultTopK           = 3
	defaultMinLocal       = 2
	defaultMaxSourceCalls = 3
	defaultRatePerMinute  = 20
	defaultTemperature    = 0.3
)

// Load reads the YAML config and applies environment overrides. A .env file
// is honored if present. The LLM key is mandatory; the SerpAPI key is not.
// Defaults are filled in before unmarshaling, so an explicit zero in the file
// (temperature 0, rate_per_minute 0 for unlimited) is kept as configured.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // no .env is fine, rely on the environment

	cfg := defaults()
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.Key = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("SERPAPI_API_KEY"); v != "" {
		cfg.Search.SerpAPIKey = v
	}

	if cfg.LLM.Key == "" {
		return nil, fmt.Errorf("%w: set llm.key in %s or OPENAI_API_KEY", ErrMissingCredential, path)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		LLM: LLMConfig{
			BaseURL:       defaultBaseURL,
			Model:         defaultModel,
			Temperature:   defaultTemperature,
			RatePerMinute: defaultRatePerMinute,
		},
		Store: StoreConfig{
			Path:       defaultStorePath,
			Collection: defaultCollection,
		},
		Notes: NotesConfig{Path: defaultNotesPath},
		RAG: RAGConfig{
			TopK:            defaultTopK,
			MinLocalResults: defaultMinLocal,
			MaxSourceCalls:  defaultMaxSourceCalls,
		},
	}
}

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"history-tutor/internal/api"
	"history-tutor/internal/config"
	"history-tutor/internal/embedding"
	"history-tutor/internal/evidence"
	"history-tutor/internal/helper"
	"history-tutor/internal/knowledge"
	"history-tutor/internal/llmservice"
	"history-tutor/internal/lookup"
	"history-tutor/internal/models"
	"history-tutor/internal/notes"
	"history-tutor/internal/tutor"
	"history-tutor/internal/vision"
)

const configFilePath = "./configs/config.yaml"

type app struct {
	cfg      *config.Config
	pipeline *tutor.Pipeline
	ingestor *tutor.Ingestor
	analyzer *vision.Analyzer
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", configFilePath, "Path to the config file")
	question := flag.String("question", "", "Ask a single question and exit")
	mode := flag.String("mode", "Regular answer", "Response mode: Regular answer, Summary, Explanation, Quiz")
	filePath := flag.String("file", "", "Ingest a document into the knowledge base")
	imagePath := flag.String("image", "", "Analyze an image and exit")
	serve := flag.Bool("serve", false, "Run the HTTP server")
	addr := flag.String("addr", ":8080", "HTTP listen address")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	a := buildApp(*configPath)
	ctx := context.Background()

	switch {
	case *filePath != "":
		ingestFile(ctx, a, *filePath)
	case *imagePath != "":
		analyzeImage(ctx, a, *imagePath)
	case *question != "":
		askOnce(ctx, a, *question, *mode)
	case *serve:
		runServer(a, *addr)
	default:
		runChatLoop(ctx, a)
	}
}

func buildApp(configPath string) *app {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	notesIndex := notes.NewIndex(cfg.Notes.Path)

	var embed chromem.EmbeddingFunc
	if cfg.LLM.EmbeddingModel != "" {
		embed, err = embedding.NewOpenAIFunc(cfg.LLM.Key, cfg.LLM.BaseURL, cfg.LLM.EmbeddingModel)
		if err != nil {
			log.Fatal().Err(err).Msg("Error initializing embedder")
		}
	} else {
		embed = embedding.NewLocalFunc()
	}

	if !cfg.Store.InMemory {
		if err := helper.CreateFolder(cfg.Store.Path); err != nil {
			log.Fatal().Err(err).Msg("Error creating store folder")
		}
	}
	store, err := knowledge.NewStore(cfg.Store.Path, cfg.Store.Collection, cfg.Store.InMemory, embed)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening knowledge store")
	}
	if err := store.Bootstrap(context.Background(), notesIndex.Corpus()); err != nil {
		log.Fatal().Err(err).Msg("Error bootstrapping knowledge store")
	}

	gen, err := llmservice.NewClient(&cfg.LLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing llm client")
	}

	aggregator := evidence.NewAggregator(
		store,
		notesIndex,
		lookup.NewWikipedia(),
		lookup.NewSerpAPI(cfg.Search.SerpAPIKey),
		cfg.RAG.TopK,
		cfg.RAG.MinLocalResults,
		cfg.RAG.MaxSourceCalls,
	)

	return &app{
		cfg:      cfg,
		pipeline: tutor.NewPipeline(aggregator, gen),
		ingestor: tutor.NewIngestor(store),
		analyzer: vision.NewAnalyzer(gen),
	}
}

func ingestFile(ctx context.Context, a *app, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Error reading document")
	}
	ok, message := a.ingestor.IngestDocument(ctx, data, path)
	if !ok {
		log.Fatal().Msg(message)
	}
	fmt.Println(message)
}

func analyzeImage(ctx context.Context, a *app, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Error reading image")
	}
	fmt.Println(a.analyzer.Describe(ctx, data))
}

func askOnce(ctx context.Context, a *app, question, modeStr string) {
	mode, err := models.ParseMode(modeStr)
	if err != nil {
		log.Fatal().Err(err).Msg("Error parsing mode")
	}
	answer, err := a.pipeline.Run(ctx, question, mode, "")
	if err != nil {
		log.Fatal().Err(err).Msg("Error answering question")
	}
	fmt.Printf("%s\n", answer)
}

func runServer(a *app, addr string) {
	server := api.NewServer(a.pipeline, a.ingestor, a.analyzer)
	log.Info().Str("addr", addr).Msg("serving history tutor")
	if err := http.ListenAndServe(addr, server.Router()); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
}

func runChatLoop(ctx context.Context, a *app) {
	history := tutor.NewHistory()
	mode := models.ModeRegularAnswer

	fmt.Println("History Tutor (World War II)")
	fmt.Println("Type your question, '/mode <name>' to switch modes, or 'quit' to exit.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			fmt.Println("\nGoodbye!")
			return
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "quit" || input == "exit" {
			fmt.Println("Goodbye!")
			return
		}
		if after, ok := strings.CutPrefix(input, "/mode "); ok {
			m, err := models.ParseMode(after)
			if err != nil {
				fmt.Println(err)
				continue
			}
			mode = m
			fmt.Printf("Mode set to %s.\n", mode)
			continue
		}

		fmt.Println("\n[Thinking... please wait]")
		answer, err := a.pipeline.Run(ctx, input, mode, history.Render(tutor.HistoryWindow))
		if err != nil {
			fmt.Printf("[ERROR] Something went wrong: %v\n", err)
			continue
		}

		history.Append(models.RoleUser, input, mode)
		history.Append(models.RoleAssistant, answer, mode)
		fmt.Printf("\nAssistant:\n%s\n\n", answer)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"cardsavvy/api/chat"
	"cardsavvy/api/config"
	"cardsavvy/api/handlers"
	"cardsavvy/api/llm"
	"cardsavvy/api/logger"
	"cardsavvy/api/recommend"
	"cardsavvy/api/storage"
	"cardsavvy/api/vector"
	"cardsavvy/api/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		fmt.Println("no .env file found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.IsDevelopment(), cfg.LogLevel); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close(context.Background())
	log.Info("storage ready", zap.String("backend", cfg.StorageBackend))

	llmClient := llm.NewClient(cfg.OpenAIKey, cfg.ChatModel, cfg.EmbeddingModel, "")

	source, err := openCandidateSource(ctx, cfg, llmClient)
	if err != nil {
		return err
	}

	pipeline := recommend.New(llmClient, llmClient, source, cfg.RetrievalMode, cfg.RecommendationLimit)
	assistant := chat.NewAssistant(llmClient, store)

	pool := worker.NewPool(cfg.ChatWorkers, assistant)
	pool.Start()
	defer pool.Stop()

	api := handlers.New(store, pipeline, assistant, pool, cfg)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: api.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

func openStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.StorageBackend {
	case config.BackendPostgres:
		store, err := storage.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendMongo:
		store, err := storage.NewMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return storage.NewMemory(), nil
	}
}

// openCandidateSource connects to Qdrant when configured, seeding the builtin
// corpus into an empty index, and falls back to the static in-process corpus
// otherwise.
func openCandidateSource(ctx context.Context, cfg *config.Config, llmClient *llm.Client) (recommend.CandidateSource, error) {
	if cfg.QdrantURL == "" {
		logger.Get().Warn("QDRANT_URL not set, using static card corpus")
		return vector.NewStaticSource(), nil
	}

	index, err := vector.NewCardIndex(cfg.QdrantURL, cfg.QdrantAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}
	if err := index.EnsureCollection(ctx); err != nil {
		return nil, err
	}
	if err := seedIndex(ctx, index, llmClient); err != nil {
		// A stale or partially seeded index still serves queries.
		logger.Get().Warn("failed to seed card index", zap.Error(err))
	}
	return index, nil
}

func seedIndex(ctx context.Context, index *vector.CardIndex, llmClient *llm.Client) error {
	existing, err := index.FetchAll(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	docs := vector.BuiltinCards()
	vectors := make([][]float32, 0, len(docs))
	for _, doc := range docs {
		vec, err := llmClient.Embed(ctx, doc.CardName+" "+doc.MITCContent)
		if err != nil {
			return fmt.Errorf("failed to embed %s: %w", doc.CardName, err)
		}
		vectors = append(vectors, vec)
	}

	if err := index.UpsertCards(ctx, docs, vectors); err != nil {
		return err
	}
	logger.Get().Info("seeded card index", zap.Int("cards", len(docs)))
	return nil
}

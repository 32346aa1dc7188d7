package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/creastat/catalog/app"
	"github.com/creastat/catalog/chunker"
	"github.com/creastat/catalog/config"
	"github.com/creastat/catalog/embedding"
	"github.com/creastat/catalog/embedding/gemini"
	"github.com/creastat/catalog/embedding/openai"
	"github.com/creastat/catalog/indexing"
	"github.com/creastat/catalog/listing"
	"github.com/creastat/catalog/listing/supabase"
	"github.com/creastat/catalog/logger"
	"github.com/creastat/catalog/search"
	"github.com/creastat/catalog/vectorstore"
	"github.com/creastat/catalog/vectorstore/memory"
	"github.com/creastat/catalog/vectorstore/pgvector"
	"github.com/creastat/catalog/vectorstore/qdrant"
)

// AppContext holds everything a command needs.
type AppContext struct {
	Config  *config.Config
	Service *app.Service
	Logger  *slog.Logger

	closers []func() error
}

// NewAppContext loads configuration and builds the service graph.
func NewAppContext(ctx context.Context, envFile string) (*AppContext, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	appLogger := logger.New(logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
	})

	ac := &AppContext{Config: cfg, Logger: appLogger}

	store, err := ac.newListingStore()
	if err != nil {
		ac.Close()
		return nil, err
	}

	embedder, err := ac.newEmbedder(ctx)
	if err != nil {
		ac.Close()
		return nil, err
	}

	gateway, err := ac.newGateway(ctx, embedder)
	if err != nil {
		ac.Close()
		return nil, err
	}

	manager := indexing.NewManager(store, gateway,
		indexing.WithNamespace(cfg.VectorStore.Namespace),
		indexing.WithLogger(appLogger),
	)

	engine := search.NewEngine(store, gateway,
		search.WithOptions(search.Options{
			Namespace:       cfg.VectorStore.Namespace,
			OverfetchFactor: cfg.Search.OverfetchFactor,
			ScoreThreshold:  float32(cfg.Search.ScoreThreshold),
			DefaultLimit:    cfg.Search.DefaultLimit,
			MaxLimit:        cfg.Search.MaxLimit,
			ChunkContext: vectorstore.ChunkContext{
				Before: cfg.Search.ContextBefore,
				After:  cfg.Search.ContextAfter,
			},
			MaxContextTokens: cfg.Search.MaxContextTokens,
		}),
		search.WithLogger(appLogger),
	)

	ac.Service = app.NewService(manager, engine, app.WithLogger(appLogger))
	return ac, nil
}

// Close releases every backend connection.
func (ac *AppContext) Close() error {
	var errs []error
	for i := len(ac.closers) - 1; i >= 0; i-- {
		if err := ac.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	ac.closers = nil
	return errors.Join(errs...)
}

func (ac *AppContext) newListingStore() (listing.Store, error) {
	cfg := ac.Config.Supabase
	if cfg.URL == "" {
		ac.Logger.Warn("SUPABASE_URL not set, using an empty in-memory listing store")
		store := listing.NewMemoryStore()
		ac.closers = append(ac.closers, store.Close)
		return store, nil
	}

	store, err := supabase.New(supabase.Config{
		URL:      cfg.URL,
		APIKey:   cfg.APIKey,
		Table:    cfg.Table,
		CacheTTL: cfg.CacheTTL,
	})
	if err != nil {
		return nil, err
	}
	ac.closers = append(ac.closers, store.Close)
	return store, nil
}

func (ac *AppContext) newEmbedder(ctx context.Context) (embedding.Embedder, error) {
	cfg := ac.Config.Embedding

	var embedder embedding.Embedder
	switch cfg.Provider {
	case "gemini":
		e, err := gemini.New(ctx, gemini.Config{
			APIKey:    cfg.GeminiAPIKey,
			Model:     cfg.Model,
			Dimension: cfg.Dimension,
		})
		if err != nil {
			return nil, err
		}
		embedder = e
	case "openai":
		var opts []openai.Option
		if cfg.Model != "" {
			opts = append(opts, openai.WithModel(cfg.Model))
		}
		if cfg.Dimension > 0 {
			opts = append(opts, openai.WithDimension(cfg.Dimension))
		}
		embedder = openai.New(cfg.OpenAIAPIKey, opts...)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}

	cache, err := ac.newCache()
	if err != nil {
		return nil, err
	}
	if cache == nil {
		return embedder, nil
	}
	ac.closers = append(ac.closers, cache.Close)
	return embedding.NewCachedEmbedder(embedder, cache, embedding.WithLogger(ac.Logger)), nil
}

func (ac *AppContext) newCache() (embedding.Cache, error) {
	cfg := ac.Config.Cache
	opts := []embedding.CacheOption{
		embedding.WithTTL(cfg.TTL),
		embedding.WithLogger(ac.Logger),
	}

	switch cfg.Driver {
	case "none", "":
		return nil, nil
	case "memory":
		return embedding.NewCache(embedding.CacheTypeMemory, opts...)
	case "redis":
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis URL: %w", err)
		}
		opts = append(opts, embedding.WithRedisClient(redis.NewClient(redisOpts)))
		return embedding.NewCache(embedding.CacheTypeRedis, opts...)
	default:
		return nil, fmt.Errorf("unknown embedding cache %q", cfg.Driver)
	}
}

func (ac *AppContext) newGateway(ctx context.Context, embedder embedding.Embedder) (vectorstore.Gateway, error) {
	cfg := ac.Config.VectorStore
	chunking := chunker.Options{
		MaxTokens:     cfg.ChunkTokens,
		OverlapTokens: cfg.OverlapTokens,
	}

	var gateway vectorstore.Gateway
	switch cfg.Driver {
	case "memory":
		gateway = memory.New(embedder, chunking)
	case "qdrant":
		g, err := qdrant.New(qdrant.Config{
			URL:            cfg.QdrantURL,
			APIKey:         cfg.QdrantAPIKey,
			CollectionName: cfg.QdrantCollection,
			Chunking:       chunking,
		}, embedder)
		if err != nil {
			return nil, err
		}
		gateway = g
	case "pgvector":
		g, err := pgvector.New(ctx, pgvector.Config{
			DSN:      cfg.PostgresDSN,
			Chunking: chunking,
		}, embedder)
		if err != nil {
			return nil, err
		}
		gateway = g
	default:
		return nil, fmt.Errorf("unknown vector store %q", cfg.Driver)
	}

	ac.closers = append(ac.closers, gateway.Close)
	return gateway, nil
}

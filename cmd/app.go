package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobrec/internal/catalog"
	"github.com/spigell/jobrec/internal/embedding"
	"github.com/spigell/jobrec/internal/embedding/gemini"
	"github.com/spigell/jobrec/internal/embedding/openai"
	"github.com/spigell/jobrec/internal/feed"
	"github.com/spigell/jobrec/internal/index"
	"github.com/spigell/jobrec/internal/indexer"
	"github.com/spigell/jobrec/internal/matching"
	"github.com/spigell/jobrec/internal/profile"
	"github.com/spigell/jobrec/internal/recommend"
	"github.com/spigell/jobrec/internal/secrets"
	"github.com/spigell/jobrec/internal/taxonomy"
)

// engine is everything a command needs to answer recommendation requests.
type engine struct {
	catalog   *catalog.Catalog
	index     *index.Memory
	recommend *recommend.Engine

	closers []func()
}

func (e *engine) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

// newEngine loads the catalog from every configured feed, builds the
// embedding index and wires the orchestrator.
func newEngine(ctx context.Context, config *Config, logger *zap.Logger) (*engine, error) {
	tax := taxonomy.Default()
	if path := strings.TrimSpace(config.TaxonomyFile); path != "" {
		loaded, err := taxonomy.Load(path)
		if err != nil {
			return nil, fmt.Errorf("loading taxonomy: %w", err)
		}
		tax = loaded
	}

	provider, err := newProvider(ctx, config.Embedding, logger)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.New(logger)
	if err != nil {
		return nil, err
	}
	e := &engine{catalog: cat, index: index.NewMemory(provider.Dimension())}
	e.closers = append(e.closers, func() { _ = cat.Close() })

	retrying := embedding.NewRetrying(provider, config.Embedding.MaxAttempts, config.Embedding.Backoff, logger)
	ix := indexer.New(cat, e.index, embedding.NewCached(retrying), logger, config.Embedding.Workers)

	sources, err := newSources(ctx, config.Catalog, logger, e)
	if err != nil {
		e.Close()
		return nil, err
	}
	if len(sources) == 0 {
		e.Close()
		return nil, errors.New("no catalog feed configured (set catalog.file, catalog.url or catalog.database-url-file)")
	}

	for _, src := range sources {
		n, err := ix.Load(ctx, src)
		if err != nil {
			// Partially invalid feeds still contribute their valid postings.
			if n == 0 {
				e.Close()
				return nil, fmt.Errorf("loading catalog: %w", err)
			}
			logger.Warn("some postings were rejected", zap.Error(err))
		}
		logger.Info("catalog feed loaded", zap.Int("postings", n))
	}

	if err := ix.Build(ctx); err != nil {
		e.Close()
		return nil, fmt.Errorf("building embedding index: %w", err)
	}

	extractor := profile.NewExtractor(tax, retrying, logger)
	e.recommend = recommend.New(extractor, e.index, cat, matching.NewScorer(tax), logger, recommend.Config{
		Timeout: config.Recommend.Timeout,
		Workers: config.Recommend.Workers,
	})

	return e, nil
}

func newProvider(ctx context.Context, cfg *EmbeddingConfig, logger *zap.Logger) (embedding.Provider, error) {
	name := strings.TrimSpace(strings.ToLower(cfg.Provider))
	dim := cfg.Dimension
	if dim <= 0 {
		dim = embedding.DefaultDimension
	}

	switch name {
	case "", "hash":
		return embedding.NewHash(dim), nil
	case "gemini", "openai":
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: name + " api key",
		File: cfg.APIKeyFile,
		Env:  strings.ToUpper(name) + "_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set embedding.api-key-file or JOBREC_EMBEDDING_API_KEY_FILE)", err)
	}

	if name == "gemini" {
		provider, err := gemini.New(ctx, apiKey, cfg.Model, dim, logger)
		if err != nil {
			return nil, err
		}
		return provider, nil
	}

	provider, err := openai.New(openai.Config{
		APIKey:    apiKey,
		BaseURL:   cfg.BaseURL,
		Model:     cfg.Model,
		Dimension: dim,
	}, logger)
	if err != nil {
		return nil, err
	}
	return provider, nil
}

func newSources(ctx context.Context, cfg *CatalogConfig, logger *zap.Logger, e *engine) ([]indexer.Source, error) {
	var sources []indexer.Source

	if path := strings.TrimSpace(cfg.File); path != "" {
		sources = append(sources, feed.NewFile(path))
	}

	if url := strings.TrimSpace(cfg.URL); url != "" {
		token, err := secrets.Optional(secrets.Source{Name: "feed token", File: cfg.TokenFile})
		if err != nil {
			return nil, err
		}
		sources = append(sources, feed.NewHTTP(url, cfg.Feed, token, logger))
	}

	if strings.TrimSpace(cfg.DatabaseURLFile) != "" {
		databaseURL, err := secrets.Load(secrets.Source{Name: "database url", File: cfg.DatabaseURLFile})
		if err != nil {
			return nil, err
		}
		pg, err := feed.NewPostgres(ctx, databaseURL, cfg.Table, logger)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, pg.Close)
		sources = append(sources, pg)
	}

	return sources, nil
}

// Package indexer keeps the embedding index in step with the catalog.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/jobrec/internal/embedding"
	"github.com/spigell/jobrec/internal/logger"
	"github.com/spigell/jobrec/internal/posting"
)

const defaultWorkers = 4

type Catalog interface {
	Upsert(p *posting.JobPosting) error
	Remove(id string) bool
	GetByID(id string) (*posting.JobPosting, bool)
	GetAll() []*posting.JobPosting
}

type VectorIndex interface {
	Upsert(id string, vector []float32) error
	Remove(id string)
	MarkReady()
	Dimension() int
}

// Source yields postings from some external feed.
type Source interface {
	Load(ctx context.Context) ([]*posting.JobPosting, error)
}

// Indexer embeds postings and writes their vectors to the index. A posting
// is always stored in the catalog before its vector is written.
type Indexer struct {
	catalog  Catalog
	index    VectorIndex
	provider embedding.Provider
	fallback embedding.Provider
	logger   *zap.Logger
	workers  int

	mu     sync.Mutex
	hashes map[string]string
}

func New(catalog Catalog, index VectorIndex, provider embedding.Provider, log *zap.Logger, workers int) *Indexer {
	if log == nil {
		log = zap.NewNop()
	}
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Indexer{
		catalog:  catalog,
		index:    index,
		provider: provider,
		fallback: embedding.NewHash(index.Dimension()),
		logger:   logger.WithCommonFields(log, provider.Name(), embedding.ModelOf(provider)),
		workers:  workers,
		hashes:   make(map[string]string),
	}
}

// Build embeds every catalog posting and then marks the index ready.
func (i *Indexer) Build(ctx context.Context) error {
	postings := i.catalog.GetAll()
	if err := i.indexAll(ctx, postings); err != nil {
		return err
	}

	i.index.MarkReady()
	i.logger.Info("embedding index is ready", zap.Int("postings", len(postings)))
	return nil
}

// Ingest stores postings in the catalog and indexes them. Invalid postings
// are skipped and reported in the returned error; the rest are still indexed.
func (i *Indexer) Ingest(ctx context.Context, postings ...*posting.JobPosting) (int, error) {
	var (
		stored  []*posting.JobPosting
		invalid []error
	)
	for _, p := range postings {
		if err := i.catalog.Upsert(p); err != nil {
			invalid = append(invalid, err)
			continue
		}
		// Index what the catalog kept, not the caller's copy.
		if kept, ok := i.catalog.GetByID(strings.TrimSpace(p.ID)); ok {
			stored = append(stored, kept)
		}
	}

	if len(invalid) > 0 {
		i.logger.Warn("skipped invalid postings", zap.Int("count", len(invalid)), zap.Error(errors.Join(invalid...)))
	}

	if err := i.indexAll(ctx, stored); err != nil {
		return 0, err
	}

	return len(stored), errors.Join(invalid...)
}

// Load pulls postings from src and ingests them.
func (i *Indexer) Load(ctx context.Context, src Source) (int, error) {
	postings, err := src.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading postings: %w", err)
	}
	return i.Ingest(ctx, postings...)
}

// Remove drops a posting from the index and then from the catalog.
func (i *Indexer) Remove(id string) bool {
	i.index.Remove(id)

	i.mu.Lock()
	delete(i.hashes, id)
	i.mu.Unlock()

	return i.catalog.Remove(id)
}

func (i *Indexer) indexAll(ctx context.Context, postings []*posting.JobPosting) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(i.workers)

	for _, p := range postings {
		g.Go(func() error {
			return i.indexOne(ctx, p)
		})
	}

	return g.Wait()
}

// indexOne recomputes the vector only when the posting text changed.
func (i *Indexer) indexOne(ctx context.Context, p *posting.JobPosting) error {
	hash := p.TextHash()

	i.mu.Lock()
	unchanged := i.hashes[p.ID] == hash
	i.mu.Unlock()
	if unchanged {
		return nil
	}

	vector, fallback, err := i.embed(ctx, p)
	if err != nil {
		return err
	}

	if err := i.index.Upsert(p.ID, vector); err != nil {
		return fmt.Errorf("indexing posting %q: %w", p.ID, err)
	}

	i.mu.Lock()
	if fallback {
		// A hashed vector is temporary: the next Build or Ingest retries the provider.
		delete(i.hashes, p.ID)
	} else {
		i.hashes[p.ID] = hash
	}
	i.mu.Unlock()
	return nil
}

// embed reports whether the vector came from the hash fallback.
func (i *Indexer) embed(ctx context.Context, p *posting.JobPosting) ([]float32, bool, error) {
	text := p.Text()

	vector, err := i.provider.Embed(ctx, text)
	if err == nil && !embedding.IsZero(vector) {
		return vector, false, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, false, ctxErr
	}

	i.logger.Warn("embedding posting failed, using hashed embedding",
		zap.String(logger.FieldPostingID, p.ID),
		zap.Error(err),
	)
	vector, err = i.fallback.Embed(ctx, text)
	return vector, true, err
}

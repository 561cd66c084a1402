// Package recommend ranks catalog postings for a resume.
//
// Each call moves through Extracting, Retrieving, Filtering, Scoring and
// Ranking. A failing dependency moves the call to Degraded, which still
// answers from the catalog with placeholder scores. Only an embedding
// dimension mismatch and invalid options reach the caller as errors.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/jobrec/internal/filtering"
	"github.com/spigell/jobrec/internal/index"
	"github.com/spigell/jobrec/internal/logger"
	"github.com/spigell/jobrec/internal/matching"
	"github.com/spigell/jobrec/internal/posting"
	"github.com/spigell/jobrec/internal/profile"
	"github.com/spigell/jobrec/internal/resume"
)

const (
	DefaultLimit   = 10
	DefaultTimeout = 10 * time.Second
	DefaultWorkers = 8

	// overFetch multiplies the limit when retrieving candidates so filters
	// still leave enough to rank.
	overFetch = 2
)

type State string

const (
	StateExtracting State = "extracting"
	StateRetrieving State = "retrieving"
	StateFiltering  State = "filtering"
	StateScoring    State = "scoring"
	StateRanking    State = "ranking"
	StateDone       State = "done"
	StateDegraded   State = "degraded"
)

var (
	ErrPostingNotFound = errors.New("posting not found")
	ErrInvalidOptions  = errors.New("invalid recommendation options")
)

type Extractor interface {
	Extract(ctx context.Context, doc *resume.Document) *profile.Profile
}

type Index interface {
	Search(ctx context.Context, query []float32, k int) ([]index.Hit, error)
}

type Catalog interface {
	Get(ctx context.Context, ids []string) ([]*posting.JobPosting, error)
	All(ctx context.Context) ([]*posting.JobPosting, error)
	GetByID(id string) (*posting.JobPosting, bool)
}

type Options struct {
	Limit   int                `json:"limit,omitempty" mapstructure:"limit" binding:"omitempty,gte=1,lte=100"`
	Filters filtering.Criteria `json:"filters" mapstructure:"filters"`
	// Preferences override what the extractor infers from the resume.
	Preferences *resume.Preferences `json:"preferences,omitempty" mapstructure:"preferences"`
}

func (o Options) limit() int {
	if o.Limit <= 0 {
		return DefaultLimit
	}
	return o.Limit
}

type Config struct {
	// Timeout bounds a whole Recommend call. Exceeding it degrades the call.
	Timeout time.Duration `mapstructure:"timeout"`
	// Workers bounds how many candidates are scored at once.
	Workers int `mapstructure:"workers"`
}

type Engine struct {
	extractor Extractor
	index     Index
	catalog   Catalog
	scorer    *matching.Scorer
	logger    *zap.Logger

	timeout time.Duration
	workers int
}

func New(extractor Extractor, idx Index, catalog Catalog, scorer *matching.Scorer, log *zap.Logger, cfg Config) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if scorer == nil {
		scorer = matching.NewScorer(nil)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	return &Engine{
		extractor: extractor,
		index:     idx,
		catalog:   catalog,
		scorer:    scorer,
		logger:    log,
		timeout:   cfg.Timeout,
		workers:   cfg.Workers,
	}
}

// call carries the per-request state of one Recommend invocation.
type call struct {
	engine  *Engine
	logger  *zap.Logger
	opts    Options
	filters *filtering.Filtering
	profile *profile.Profile
	state   State
}

func (c *call) enter(state State) {
	c.state = state
	c.logger.Debug("recommendation state", zap.String("state", string(state)))
}

// Recommend returns at most opts.Limit recommendations, best first.
func (e *Engine) Recommend(ctx context.Context, doc *resume.Document, opts Options) ([]*matching.Recommendation, error) {
	log := logger.WithRequest(e.logger, RequestID(ctx))
	c := &call{
		engine:  e,
		logger:  log,
		opts:    opts,
		filters: filtering.New(filtering.Steps(opts.Filters), log),
	}
	if err := c.filters.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	c.enter(StateExtracting)
	c.profile = e.extract(ctx, doc, opts.Preferences)

	recs, err := c.run(ctx)
	if err == nil {
		c.enter(StateDone)
		return recs, nil
	}
	if errors.Is(err, index.ErrDimensionMismatch) {
		c.logger.Error("profile embedding does not fit the index", zap.String("state", string(c.state)), zap.Error(err))
		return nil, err
	}

	c.logger.Warn("recommendation degraded", zap.String("state", string(c.state)), zap.Error(err))
	c.enter(StateDegraded)
	return c.degraded(ctx), nil
}

func (e *Engine) extract(ctx context.Context, doc *resume.Document, prefs *resume.Preferences) *profile.Profile {
	p := e.extractor.Extract(ctx, doc)
	p.Override(prefs)
	return p
}

func (c *call) run(ctx context.Context) ([]*matching.Recommendation, error) {
	limit := c.opts.limit()

	c.enter(StateRetrieving)
	hits, err := c.engine.index.Search(ctx, c.profile.Vector, overFetch*limit)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	ids := make([]string, 0, len(hits))
	for _, hit := range hits {
		ids = append(ids, hit.ID)
	}

	c.enter(StateFiltering)
	candidates, err := c.engine.catalog.Get(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolving candidates: %w", err)
	}
	filtered, err := c.filters.Run(ctx, posting.New(candidates...))
	if err != nil {
		return nil, fmt.Errorf("filtering candidates: %w", err)
	}

	c.enter(StateScoring)
	recs := c.score(filtered.Items)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scoring candidates: %w", err)
	}

	c.enter(StateRanking)
	Rank(recs)
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// score runs the scorer once per candidate. A candidate whose scoring fails
// or panics is dropped.
func (c *call) score(candidates []*posting.JobPosting) []*matching.Recommendation {
	results := make([]*matching.Recommendation, len(candidates))

	var g errgroup.Group
	g.SetLimit(c.engine.workers)
	for i, job := range candidates {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					c.logger.Warn("scoring posting panicked", zap.String(logger.FieldPostingID, job.ID), zap.Any("panic", r))
				}
			}()

			rec, err := c.engine.scorer.Score(c.profile, job)
			if err != nil {
				c.logger.Warn("scoring posting failed", zap.String(logger.FieldPostingID, job.ID), zap.Error(err))
				return nil
			}
			results[i] = rec
			return nil
		})
	}
	_ = g.Wait()

	recs := make([]*matching.Recommendation, 0, len(results))
	for _, rec := range results {
		if rec != nil {
			recs = append(recs, rec)
		}
	}
	return recs
}

// Rank orders by match score, then newer postings, then id.
func Rank(recs []*matching.Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.MatchScore != b.MatchScore {
			return a.MatchScore > b.MatchScore
		}
		if !a.PostedDate.Equal(b.PostedDate) {
			return a.PostedDate.After(b.PostedDate)
		}
		return a.JobID < b.JobID
	})
}

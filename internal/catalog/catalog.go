// Package catalog is the authoritative in-memory store of job postings.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/spigell/jobrec/internal/filtering"
	"github.com/spigell/jobrec/internal/posting"
)

var ErrInvalidPosting = errors.New("invalid posting")

// Catalog stores postings by id. Readers receive copies, so nothing handed
// out can change the stored records.
type Catalog struct {
	mu       sync.RWMutex
	postings map[string]*posting.JobPosting

	text     bleve.Index
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

// textDocument is what the full-text index sees for a posting.
type textDocument struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Skills      string `json:"skills"`
	Level       string `json:"level"`
}

func New(logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating catalog text index: %w", err)
	}

	return &Catalog{
		postings: make(map[string]*posting.JobPosting),
		text:     index,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
		now:      time.Now,
	}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	doc := bleve.NewDocumentMapping()

	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name

	exact := bleve.NewKeywordFieldMapping()
	exact.Analyzer = keyword.Name

	doc.AddFieldMappingsAt("title", text)
	doc.AddFieldMappingsAt("company", text)
	doc.AddFieldMappingsAt("location", text)
	doc.AddFieldMappingsAt("description", text)
	doc.AddFieldMappingsAt("skills", text)
	doc.AddFieldMappingsAt("level", exact)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	m.DefaultAnalyzer = standard.Name
	return m
}

// Upsert validates and stores a copy of the posting, then makes it
// searchable. The caller's value is never retained.
func (c *Catalog) Upsert(p *posting.JobPosting) error {
	if p == nil {
		return fmt.Errorf("%w: nil posting", ErrInvalidPosting)
	}

	stored := p.Clone()
	stored.Normalize()
	if err := c.validate.Struct(stored); err != nil {
		return fmt.Errorf("%w %q: %s", ErrInvalidPosting, stored.ID, err)
	}
	if stored.PostedDate.IsZero() {
		stored.PostedDate = c.now().UTC()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.postings[stored.ID] = stored
	if err := c.text.Index(stored.ID, toTextDocument(stored)); err != nil {
		// The record stays authoritative; only Query loses it.
		c.logger.Warn("indexing posting text failed", zap.String("posting_id", stored.ID), zap.Error(err))
	}

	return nil
}

func toTextDocument(p *posting.JobPosting) textDocument {
	return textDocument{
		Title:       p.Title,
		Company:     p.Company,
		Location:    p.Location,
		Description: p.Description,
		Skills:      strings.Join(append(append([]string(nil), p.RequiredSkills...), p.PreferredSkills...), " "),
		Level:       string(p.ExperienceLevel),
	}
}

// Remove deletes a posting and reports whether it existed.
func (c *Catalog) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.postings[id]; !ok {
		return false
	}
	delete(c.postings, id)
	if err := c.text.Delete(id); err != nil {
		c.logger.Warn("removing posting text failed", zap.String("posting_id", id), zap.Error(err))
	}
	return true
}

func (c *Catalog) GetByID(id string) (*posting.JobPosting, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.postings[id]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.postings)
}

// GetAll returns every posting, most recent first.
func (c *Catalog) GetAll() []*posting.JobPosting {
	c.mu.RLock()
	items := make([]*posting.JobPosting, 0, len(c.postings))
	for _, p := range c.postings {
		items = append(items, p.Clone())
	}
	c.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		return items[i].NewerThan(items[j])
	})
	return items
}

// Search returns every posting matching the criteria, most recent first.
// An empty result is not an error.
func (c *Catalog) Search(ctx context.Context, criteria filtering.Criteria) ([]*posting.JobPosting, error) {
	all := posting.New(c.GetAll()...)
	result, err := filtering.New(filtering.Steps(criteria), c.logger).Run(ctx, all)
	if err != nil {
		return nil, fmt.Errorf("filtering catalog: %w", err)
	}
	return result.Items, nil
}

// Query runs a full-text match over title, company, location, description
// and skills, returning at most limit postings in relevance order.
func (c *Catalog) Query(text string, limit int) ([]*posting.JobPosting, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		all := c.GetAll()
		if limit > 0 && len(all) > limit {
			all = all[:limit]
		}
		return all, nil
	}
	if limit <= 0 {
		limit = 10
	}

	req := bleve.NewSearchRequestOptions(bleve.NewMatchQuery(text), limit, 0, false)
	result, err := c.text.Search(req)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}

	items := make([]*posting.JobPosting, 0, len(result.Hits))
	for _, hit := range result.Hits {
		if p, ok := c.GetByID(hit.ID); ok {
			items = append(items, p)
		}
	}
	return items, nil
}

// Get resolves ids to postings in the order given. Unknown ids are skipped.
func (c *Catalog) Get(ctx context.Context, ids []string) ([]*posting.JobPosting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items := make([]*posting.JobPosting, 0, len(ids))
	for _, id := range ids {
		if p, ok := c.GetByID(id); ok {
			items = append(items, p)
		}
	}
	return items, nil
}

// All is GetAll for callers that carry a context.
func (c *Catalog) All(ctx context.Context) ([]*posting.JobPosting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.GetAll(), nil
}

func (c *Catalog) Close() error {
	return c.text.Close()
}

package profile

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/jobrec/internal/embedding"
	"github.com/spigell/jobrec/internal/logger"
	"github.com/spigell/jobrec/internal/posting"
	"github.com/spigell/jobrec/internal/resume"
	"github.com/spigell/jobrec/internal/taxonomy"
	"github.com/spigell/jobrec/internal/utils"
)

const (
	defaultLocation = "Remote"
	maxLogLength    = 120
)

// Extractor builds profiles. Extract never fails: missing sections add
// nothing and embedding failures fall back to a hashed vector.
type Extractor struct {
	taxonomy *taxonomy.Taxonomy
	provider embedding.Provider
	fallback embedding.Provider
	logger   *zap.Logger
	now      func() time.Time
}

// NewExtractor uses provider for embeddings; callers wanting retries pass an
// embedding.Retrying.
func NewExtractor(tax *taxonomy.Taxonomy, provider embedding.Provider, log *zap.Logger) *Extractor {
	if tax == nil {
		tax = taxonomy.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{
		taxonomy: tax,
		provider: provider,
		fallback: embedding.NewHash(provider.Dimension()),
		logger:   logger.WithCommonFields(log, provider.Name(), embedding.ModelOf(provider)),
		now:      time.Now,
	}
}

func (e *Extractor) Dimension() int { return e.provider.Dimension() }

func (e *Extractor) Extract(ctx context.Context, doc *resume.Document) *Profile {
	if doc == nil {
		doc = &resume.Document{}
	}

	p := &Profile{
		Skills:     e.skills(doc),
		Experience: e.experience(doc.AllExperience()),
		Education:  education(doc.Education),
	}

	salary := EstimateSalary(p.Experience.TotalYears)
	p.Preferences = Preferences{
		Locations:   []string{defaultLocation},
		JobTypes:    []posting.JobType{posting.FullTime},
		SalaryRange: &salary,
	}
	p.Override(doc.Preferences)

	p.Text = embeddingText(p.Skills, doc)
	p.Vector, p.EmbeddingFallback = e.embed(ctx, p.Text)

	e.logger.Debug("profile extracted",
		zap.Int("skills", len(p.Skills)),
		zap.Float64("total_years", p.Experience.TotalYears),
		zap.Strings("industries", p.Experience.Industries),
		zap.Bool("embedding_fallback", p.EmbeddingFallback),
	)

	return p
}

// skills unions the explicit list, taxonomy keywords found in free text and
// technology-shaped terms, lower-cased, in that order.
func (e *Extractor) skills(doc *resume.Document) []string {
	explicit := doc.SkillNames()
	for _, project := range doc.Projects {
		explicit = append(explicit, project.Technologies...)
	}

	free := doc.FreeText()
	lowered := strings.ToLower(free)

	var found []string
	for _, keyword := range e.taxonomy.SkillKeywords() {
		if containsTerm(lowered, keyword) {
			found = append(found, keyword)
		}
	}

	all := make([]string, 0, len(explicit)+len(found))
	all = append(all, explicit...)
	all = append(all, found...)
	all = append(all, techTerms(free)...)
	return unique(all, true)
}

func (e *Extractor) experience(entries []resume.Experience) Experience {
	now := e.now()
	var (
		total      float64
		industries []string
		roles      []string
		companies  []string
	)

	for _, entry := range entries {
		total += yearsBetween(entry.StartDate, entry.EndDate, entry.Current, now)
		roles = append(roles, entry.Position)
		companies = append(companies, entry.Company)
		if industry := e.taxonomy.IndustryFor(entry.Company + " " + entry.Position); industry != "" {
			industries = append(industries, industry)
		}
	}

	return Experience{
		TotalYears: total,
		Industries: unique(industries, false),
		Roles:      unique(roles, false),
		Companies:  unique(companies, false),
	}
}

func education(entries []resume.Education) Education {
	var edu Education
	for _, entry := range entries {
		if v := strings.TrimSpace(entry.Degree); v != "" {
			edu.Degrees = append(edu.Degrees, v)
		}
		if v := entry.Subject(); v != "" {
			edu.Majors = append(edu.Majors, v)
		}
		if v := strings.TrimSpace(entry.School); v != "" {
			edu.Schools = append(edu.Schools, v)
		}
	}
	return edu
}

// embeddingText is skills, then experience text, then project text. An
// empty resume yields an empty document, which still embeds.
func embeddingText(skills []string, doc *resume.Document) string {
	parts := make([]string, 0, 3)
	if len(skills) > 0 {
		parts = append(parts, strings.Join(skills, ", "))
	}
	if text := doc.ExperienceText(); text != "" {
		parts = append(parts, text)
	}
	if text := doc.ProjectText(); text != "" {
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n")
}

func (e *Extractor) embed(ctx context.Context, text string) ([]float32, bool) {
	e.logger.Debug("embedding profile", zap.String("text_preview", utils.TruncateForLog(text, maxLogLength)))

	vector, err := e.provider.Embed(ctx, text)
	if err == nil && !embedding.IsZero(vector) {
		return vector, false
	}

	e.logger.Warn("profile embedding failed, using hashed embedding", zap.Error(err))

	// The hash provider only fails on a cancelled context; embed without it
	// so the profile still gets a vector.
	vector, hashErr := e.fallback.Embed(context.WithoutCancel(ctx), text)
	if hashErr != nil {
		e.logger.Error("hashed embedding failed", zap.Error(hashErr))
	}
	return vector, true
}

package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/jobrec/internal/embedding"
	"github.com/spigell/jobrec/internal/posting"
	"github.com/spigell/jobrec/internal/resume"
	"github.com/spigell/jobrec/internal/taxonomy"
)

type failingProvider struct{ dim int }

func (f failingProvider) Name() string   { return "failing" }
func (f failingProvider) Dimension() int { return f.dim }
func (f failingProvider) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("provider unavailable")
}

type zeroProvider struct{ dim int }

func (z zeroProvider) Name() string   { return "zero" }
func (z zeroProvider) Dimension() int { return z.dim }
func (z zeroProvider) Embed(context.Context, string) ([]float32, error) {
	return make([]float32, z.dim), nil
}

func newExtractor(p embedding.Provider, log *zap.Logger) *Extractor {
	e := NewExtractor(taxonomy.Default(), p, log)
	e.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	return e
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func TestExtractEmptyResume(t *testing.T) {
	t.Parallel()

	for _, doc := range []*resume.Document{nil, {}} {
		p := newExtractor(embedding.NewHash(64), nil).Extract(context.Background(), doc)

		if len(p.Vector) != 64 || embedding.IsZero(p.Vector) {
			t.Fatalf("expected non-zero vector of length 64, got %v", p.Vector)
		}
		if len(p.Skills) != 0 || p.Experience.TotalYears != 0 {
			t.Fatalf("expected empty profile, got %+v", p)
		}
		if len(p.Preferences.Locations) != 1 || p.Preferences.Locations[0] != "Remote" {
			t.Fatalf("expected default location, got %v", p.Preferences.Locations)
		}
		if len(p.Preferences.JobTypes) != 1 || p.Preferences.JobTypes[0] != posting.FullTime {
			t.Fatalf("expected default job type, got %v", p.Preferences.JobTypes)
		}
		if *p.Preferences.SalaryRange != (posting.SalaryRange{Min: 50000, Max: 70000}) {
			t.Fatalf("expected junior salary band, got %+v", p.Preferences.SalaryRange)
		}
	}
}

func TestExtractSkills(t *testing.T) {
	t.Parallel()

	doc := &resume.Document{
		Skills: []resume.Skill{{Name: "JavaScript"}, {Name: "javascript"}, {Name: "React"}},
		Experiences: []resume.Experience{{
			Position:    "Engineer",
			Description: "Migrated services to Kubernetes and AWS. Built APIs with GraphQL and C++; going forward we use Docker.",
		}},
		Projects: []resume.Project{{Description: "Mobile app", Technologies: []string{"Flutter"}}},
	}

	p := newExtractor(embedding.NewHash(32), nil).Extract(context.Background(), doc)

	for _, want := range []string{"javascript", "react", "flutter", "kubernetes", "aws", "docker", "graphql", "c++"} {
		if !contains(p.Skills, want) {
			t.Fatalf("expected skill %q in %v", want, p.Skills)
		}
	}
	if contains(p.Skills, "go") {
		t.Fatalf("did not expect %q to match inside another word: %v", "go", p.Skills)
	}
	if p.Skills[0] != "javascript" || p.Skills[1] != "react" {
		t.Fatalf("expected explicit skills first and deduplicated, got %v", p.Skills)
	}
}

func TestExtractExperience(t *testing.T) {
	t.Parallel()

	doc := &resume.Document{
		Experiences: []resume.Experience{
			{Company: "Acme Software", Position: "Developer", StartDate: "2019-03", EndDate: "2021-01"},
			{Company: "First Bank", Position: "Analyst", StartDate: "2021-02", Current: true},
			{Company: "Mystery", Position: "Consultant", StartDate: "sometime", EndDate: "later"},
		},
		LegacyExperience: []resume.Experience{
			{Company: "Acme Software", Position: "Intern", StartDate: "2018", EndDate: "Present"},
		},
	}

	p := newExtractor(embedding.NewHash(32), nil).Extract(context.Background(), doc)

	// 2 + 3 + 0 + 6
	if p.Experience.TotalYears != 11 {
		t.Fatalf("expected 11 years, got %v", p.Experience.TotalYears)
	}
	if len(p.Experience.Industries) != 2 || p.Experience.Industries[0] != "technology" || p.Experience.Industries[1] != "finance" {
		t.Fatalf("unexpected industries: %v", p.Experience.Industries)
	}
	if len(p.Experience.Companies) != 3 {
		t.Fatalf("expected duplicate companies to collapse, got %v", p.Experience.Companies)
	}
	if *p.Preferences.SalaryRange != (posting.SalaryRange{Min: 130000, Max: 180000}) {
		t.Fatalf("expected lead salary band, got %+v", p.Preferences.SalaryRange)
	}
}

func TestExtractEducationAndPreferences(t *testing.T) {
	t.Parallel()

	doc := &resume.Document{
		Education: []resume.Education{
			{School: "MIT", Degree: "BSc", Field: "Computer Science"},
			{School: " ", Degree: "", Major: "Design"},
		},
		Preferences: &resume.Preferences{
			Locations:   []string{"Berlin", "berlin"},
			JobTypes:    []string{"Contract"},
			SalaryRange: &resume.SalaryRange{Min: 90000, Max: 120000},
		},
	}

	p := newExtractor(embedding.NewHash(32), nil).Extract(context.Background(), doc)

	if len(p.Education.Degrees) != 1 || len(p.Education.Schools) != 1 || len(p.Education.Majors) != 2 {
		t.Fatalf("unexpected education: %+v", p.Education)
	}
	if len(p.Preferences.Locations) != 1 || p.Preferences.Locations[0] != "Berlin" {
		t.Fatalf("unexpected locations: %v", p.Preferences.Locations)
	}
	if p.Preferences.JobTypes[0] != posting.Contract {
		t.Fatalf("unexpected job types: %v", p.Preferences.JobTypes)
	}
	if p.Preferences.SalaryRange.Min != 90000 {
		t.Fatalf("expected resume salary to override estimate, got %+v", p.Preferences.SalaryRange)
	}
}

func TestExtractFallsBackWhenProviderFails(t *testing.T) {
	t.Parallel()

	for _, provider := range []embedding.Provider{failingProvider{dim: 16}, zeroProvider{dim: 16}} {
		core, observed := observer.New(zapcore.WarnLevel)
		doc := &resume.Document{Skills: []resume.Skill{{Name: "Go"}}}

		p := newExtractor(provider, zap.New(core)).Extract(context.Background(), doc)

		if !p.EmbeddingFallback || len(p.Vector) != 16 || embedding.IsZero(p.Vector) {
			t.Fatalf("%s: expected hashed fallback vector, got fallback=%v vector=%v", provider.Name(), p.EmbeddingFallback, p.Vector)
		}
		if observed.FilterMessage("profile embedding failed, using hashed embedding").Len() != 1 {
			t.Fatalf("%s: expected fallback warning", provider.Name())
		}
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	t.Parallel()

	doc := &resume.Document{Skills: []resume.Skill{{Name: "Python"}}, Projects: []resume.Project{{Description: "ETL with Spark"}}}
	e := newExtractor(embedding.NewHash(32), nil)

	a := e.Extract(context.Background(), doc)
	b := e.Extract(context.Background(), doc)
	if a.Text != b.Text {
		t.Fatalf("expected identical text")
	}
	for i := range a.Vector {
		if a.Vector[i] != b.Vector[i] {
			t.Fatalf("expected identical vectors")
		}
	}
}

func TestLooksTechnical(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"TypeScript": true,
		"iOS":        true,
		"AWS":        true,
		"node.js":    true,
		"C#":         true,
		"e.g":        false,
		"Built":      false,
		"CEO":        false,
		"2021":       false,
		"v1.2":       false,
		"me@mail.io": false,
	}
	for token, expect := range tests {
		if got := looksTechnical(token); got != expect {
			t.Fatalf("looksTechnical(%q): expected %v, got %v", token, expect, got)
		}
	}
}

func TestEstimateSalary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		years float64
		min   float64
	}{
		{0, 50000}, {1.9, 50000}, {2, 70000}, {4, 70000}, {5, 100000}, {7, 100000}, {8, 130000}, {30, 130000},
	}
	for _, tt := range tests {
		if got := EstimateSalary(tt.years); got.Min != tt.min {
			t.Fatalf("EstimateSalary(%v): expected min %v, got %+v", tt.years, tt.min, got)
		}
	}
}

package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobrec/internal/filtering"
	"github.com/spigell/jobrec/internal/posting"
	"github.com/spigell/jobrec/internal/recommend"
	"github.com/spigell/jobrec/internal/resume"
)

func TestCriteriaFromFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	addFilterFlags(cmd)

	if err := cmd.ParseFlags([]string{"--remote", "--level", "Senior", "-k", "go,rust"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	got := criteriaFromFlags(cmd, filtering.Criteria{Location: "Berlin", SalaryMin: 5000})

	if got.Remote == nil || !*got.Remote {
		t.Fatalf("expected remote filter, got %+v", got.Remote)
	}
	if got.ExperienceLevel != posting.LevelSenior {
		t.Fatalf("expected senior level, got %q", got.ExperienceLevel)
	}
	if len(got.Keywords) != 2 || got.Keywords[1] != "rust" {
		t.Fatalf("unexpected keywords %v", got.Keywords)
	}
	if got.Location != "Berlin" || got.SalaryMin != 5000 {
		t.Fatalf("unset flags must keep configured values, got %+v", got)
	}
}

func TestNewProvider(t *testing.T) {
	p, err := newProvider(context.Background(), &EmbeddingConfig{}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "hash" || p.Dimension() != 256 {
		t.Fatalf("expected default hash provider, got %s/%d", p.Name(), p.Dimension())
	}

	if _, err := newProvider(context.Background(), &EmbeddingConfig{Provider: "word2vec"}, zap.NewNop()); err == nil {
		t.Fatalf("expected an error for an unknown provider")
	}

	t.Setenv("OPENAI_API_KEY", "")
	if _, err := newProvider(context.Background(), &EmbeddingConfig{Provider: "openai"}, zap.NewNop()); err == nil {
		t.Fatalf("expected an error without an api key")
	}
}

func TestNewEngineFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "postings.json")
	data := `[
		{"id":"1","title":"Go Developer","company":"Acme","experienceLevel":"mid","requiredSkills":["Go"],"remote":true},
		{"id":"2","title":"Accountant","company":"Initech","experienceLevel":"senior","requiredSkills":["Excel"]},
		{"id":"3","title":"Broken","experienceLevel":"mid"}
	]`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	config := &Config{
		Catalog:   &CatalogConfig{File: path},
		Embedding: &EmbeddingConfig{Dimension: 32, MaxAttempts: 1},
		Recommend: &RecommendConfig{},
		Server:    &ServerConfig{},
	}

	e, err := newEngine(context.Background(), config, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer e.Close()

	if e.catalog.Len() != 2 || e.index.Len() != 2 || !e.index.Ready() {
		t.Fatalf("expected 2 indexed postings, got catalog=%d index=%d", e.catalog.Len(), e.index.Len())
	}

	recs, err := e.recommend.Recommend(context.Background(), &resume.Document{Skills: []resume.Skill{{Name: "Go"}}}, recommend.Options{Limit: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 || recs[0].JobID != "1" {
		t.Fatalf("expected the Go posting, got %+v", recs)
	}
}

func TestNewEngineRequiresFeed(t *testing.T) {
	config := &Config{
		Catalog:   &CatalogConfig{},
		Embedding: &EmbeddingConfig{},
		Recommend: &RecommendConfig{},
		Server:    &ServerConfig{},
	}
	if _, err := newEngine(context.Background(), config, zap.NewNop()); err == nil {
		t.Fatalf("expected an error without any feed")
	}
}

package recommend

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spigell/jobrec/internal/matching"
)

func TestExplain(t *testing.T) {
	t.Parallel()

	cat := newCatalog(t)
	engine := newEngine(t, newIndex(t, cat), cat, nil, Config{})

	text, err := engine.Explain(context.Background(), "go-1", goResume(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"Go Developer at Acme", "You have the required skill: go", "Skills to develop:", "PostgreSQL"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in explanation:\n%s", want, text)
		}
	}
}

func TestExplainUnknownPosting(t *testing.T) {
	t.Parallel()

	cat := newCatalog(t)
	engine := newEngine(t, newIndex(t, cat), cat, nil, Config{})

	if _, err := engine.Explain(context.Background(), "nope", goResume(), nil); !errors.Is(err, ErrPostingNotFound) {
		t.Fatalf("expected ErrPostingNotFound, got %v", err)
	}
}

func TestFormatExplanationTruncates(t *testing.T) {
	t.Parallel()

	rec := &matching.Recommendation{
		Title: "SRE", Company: "Acme", MatchScore: 55,
		Reasons: []matching.Reason{
			{Description: "r1"}, {Description: "r2"}, {Description: "r3"}, {Description: "r4"},
		},
		MissingSkills: []string{"a", "b", "c", "d"},
	}

	text := FormatExplanation(rec)
	if strings.Contains(text, "r4") || strings.Contains(text, "- d") {
		t.Fatalf("expected at most 3 reasons and 3 missing skills:\n%s", text)
	}
	if !strings.HasPrefix(text, "SRE at Acme: 55% match") {
		t.Fatalf("unexpected header:\n%s", text)
	}
}

package resume

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sample = `{
  "personalInfo": {"name": "Ada", "title": "Frontend Engineer", "summary": "Builds UIs"},
  "experiences": [
    {"company": "Acme", "position": "Engineer", "startDate": "2019-01", "endDate": "2021-06",
     "description": "Built dashboards with React", "achievements": ["Cut load time by 40%"]}
  ],
  "experience": [
    {"company": "Old Co", "position": "Intern", "startDate": "2018-01", "endDate": "2018-06"}
  ],
  "education": [{"school": "MIT", "degree": "BSc", "field": "Computer Science"}],
  "skills": ["JavaScript", {"name": "React", "level": "Expert"}, "  "],
  "projects": [{"name": "Portfolio", "description": "Static site", "technologies": ["Hugo"]}],
  "preferences": {"locations": ["Berlin"], "jobTypes": ["contract"]}
}`

func TestParse(t *testing.T) {
	doc, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	names := doc.SkillNames()
	if len(names) != 2 || names[0] != "JavaScript" || names[1] != "React" {
		t.Fatalf("unexpected skill names: %v", names)
	}
	if doc.Skills[1].Level != "Expert" {
		t.Fatalf("expected object skill level to be decoded, got %+v", doc.Skills[1])
	}

	if got := len(doc.AllExperience()); got != 2 {
		t.Fatalf("expected both experience spellings to be merged, got %d", got)
	}

	if doc.Education[0].Subject() != "Computer Science" {
		t.Fatalf("expected field to be used as subject, got %q", doc.Education[0].Subject())
	}

	if doc.Preferences == nil || doc.Preferences.JobTypes[0] != "contract" {
		t.Fatalf("expected preferences to be decoded, got %+v", doc.Preferences)
	}

	free := doc.FreeText()
	for _, want := range []string{"Frontend Engineer", "Built dashboards with React", "Cut load time", "Hugo"} {
		if !strings.Contains(free, want) {
			t.Fatalf("expected free text to contain %q, got %q", want, free)
		}
	}
}

func TestParseReportsEverySchemaError(t *testing.T) {
	_, err := Parse([]byte(`{"skills": [42], "experiences": "none"}`))
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}

	if !strings.Contains(err.Error(), "skills") || !strings.Contains(err.Error(), "experiences") {
		t.Fatalf("expected both violations to be reported, got %v", err)
	}
}

func TestLoadEmptyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.FreeText() != "" || len(doc.SkillNames()) != 0 {
		t.Fatalf("expected empty document, got %+v", doc)
	}
}

func TestNilDocumentHelpers(t *testing.T) {
	var doc *Document
	if doc.FreeText() != "" || doc.SkillNames() != nil || doc.AllExperience() != nil {
		t.Fatalf("expected nil document helpers to return zero values")
	}
}

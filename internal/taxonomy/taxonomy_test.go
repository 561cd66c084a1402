package taxonomy

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultTables(t *testing.T) {
	tax := Default()

	if len(tax.SkillDomains) != 7 {
		t.Fatalf("expected 7 skill domains, got %d", len(tax.SkillDomains))
	}
	if tax.SkillDomains[0].Name != "frontend" {
		t.Fatalf("expected frontend first, got %q", tax.SkillDomains[0].Name)
	}
	if len(tax.Industries) != 5 {
		t.Fatalf("expected 5 industries, got %d", len(tax.Industries))
	}
	if !tax.IsEmerging("Kubernetes") {
		t.Fatalf("expected kubernetes to be emerging")
	}
	if tax.IsEmerging("cobol") {
		t.Fatalf("did not expect cobol to be emerging")
	}
}

func TestIndustryFor(t *testing.T) {
	t.Parallel()

	tax := Default()
	tests := []struct {
		name   string
		text   string
		expect string
	}{
		{name: "technology", text: "Senior Software Engineer at Acme", expect: "technology"},
		{name: "finance", text: "Analyst at First Bank", expect: "finance"},
		{name: "first match wins", text: "Software for hospital billing", expect: "technology"},
		{name: "no match", text: "Barista", expect: ""},
		{name: "empty", text: "  ", expect: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tax.IndustryFor(tt.text); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestSameCluster(t *testing.T) {
	t.Parallel()

	idx := Default().SynonymIndex()
	tests := []struct {
		a, b   string
		expect bool
	}{
		{a: "js", b: "NodeJS", expect: true},
		{a: "django", b: "py", expect: true},
		{a: "mysql", b: "sql", expect: true},
		{a: "react", b: "javascript", expect: false},
		{a: "rust", b: "rust", expect: false},
	}

	for _, tt := range tests {
		if got := idx.SameCluster(tt.a, tt.b); got != tt.expect {
			t.Fatalf("SameCluster(%q, %q): expected %v, got %v", tt.a, tt.b, tt.expect, got)
		}
		if idx.SameCluster(tt.a, tt.b) != idx.SameCluster(tt.b, tt.a) {
			t.Fatalf("SameCluster(%q, %q) is not symmetric", tt.a, tt.b)
		}
	}
}

func TestLoadFallsBackForMissingSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxonomy.toml")
	content := `
emerging = ["Rust"]

[[synonyms]]
terms = ["golang", "go"]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	tax, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !tax.IsEmerging("rust") || tax.IsEmerging("kubernetes") {
		t.Fatalf("expected emerging set to be overridden, got %v", tax.Emerging)
	}
	if !tax.SynonymIndex().SameCluster("golang", "Go") {
		t.Fatalf("expected custom synonym cluster")
	}
	if len(tax.SkillDomains) != 7 || len(tax.Industries) != 5 {
		t.Fatalf("expected default domains and industries to be kept")
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxonomy.toml")
	if err := os.WriteFile(path, []byte(`colour = "blue"`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

// Package taxonomy holds the keyword tables used to extract skills and
// industries from free text and to decide when two skills are equivalent.
package taxonomy

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed default.toml
var defaultTables []byte

// Group is a named list of keywords (a skill domain or an industry).
type Group struct {
	Name     string   `toml:"name"`
	Keywords []string `toml:"keywords"`
}

// Cluster is a set of terms treated as the same skill.
type Cluster struct {
	Terms []string `toml:"terms"`
}

// Taxonomy is the full set of lookup tables. Slices keep file order, so the
// first matching industry wins.
type Taxonomy struct {
	SkillDomains []Group   `toml:"skill_domains"`
	Industries   []Group   `toml:"industries"`
	Synonyms     []Cluster `toml:"synonyms"`
	Emerging     []string  `toml:"emerging"`

	synonyms *SynonymIndex
	emerging map[string]struct{}
}

// Default returns the built-in tables.
func Default() *Taxonomy {
	t, err := Parse(defaultTables)
	if err != nil {
		panic(fmt.Sprintf("decoding embedded taxonomy: %v", err))
	}
	return t
}

// Load reads tables from a TOML file. Sections missing from the file are
// taken from the built-in tables.
func Load(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading taxonomy file %q: %w", path, err)
	}

	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("taxonomy file %q: %w", path, err)
	}

	defaults := Default()
	if len(t.SkillDomains) == 0 {
		t.SkillDomains = defaults.SkillDomains
	}
	if len(t.Industries) == 0 {
		t.Industries = defaults.Industries
	}
	if len(t.Synonyms) == 0 {
		t.Synonyms = defaults.Synonyms
	}
	if len(t.Emerging) == 0 {
		t.Emerging = defaults.Emerging
	}
	t.build()

	return t, nil
}

// Parse decodes TOML tables and normalizes every keyword to lower case.
func Parse(data []byte) (*Taxonomy, error) {
	var t Taxonomy
	md, err := toml.Decode(string(data), &t)
	if err != nil {
		return nil, fmt.Errorf("decoding taxonomy: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown taxonomy keys: %v", undecoded)
	}

	for i := range t.SkillDomains {
		t.SkillDomains[i].Keywords = normalize(t.SkillDomains[i].Keywords)
	}
	for i := range t.Industries {
		t.Industries[i].Keywords = normalize(t.Industries[i].Keywords)
	}
	for i := range t.Synonyms {
		t.Synonyms[i].Terms = normalize(t.Synonyms[i].Terms)
	}
	t.Emerging = normalize(t.Emerging)
	t.build()

	return &t, nil
}

func (t *Taxonomy) build() {
	t.synonyms = NewSynonymIndex(t.Synonyms)
	t.emerging = make(map[string]struct{}, len(t.Emerging))
	for _, skill := range t.Emerging {
		t.emerging[skill] = struct{}{}
	}
}

// SkillKeywords returns every skill keyword across all domains, in table order.
func (t *Taxonomy) SkillKeywords() []string {
	var keywords []string
	for _, group := range t.SkillDomains {
		keywords = append(keywords, group.Keywords...)
	}
	return keywords
}

// SynonymIndex returns the cluster index built from the tables.
func (t *Taxonomy) SynonymIndex() *SynonymIndex {
	return t.synonyms
}

// IsEmerging reports whether the skill is in the emerging set.
func (t *Taxonomy) IsEmerging(skill string) bool {
	_, ok := t.emerging[strings.ToLower(strings.TrimSpace(skill))]
	return ok
}

// IndustryFor returns the first industry whose keyword appears in text, or
// an empty string when nothing matches.
func (t *Taxonomy) IndustryFor(text string) string {
	text = strings.ToLower(text)
	if strings.TrimSpace(text) == "" {
		return ""
	}

	for _, industry := range t.Industries {
		for _, keyword := range industry.Keywords {
			if strings.Contains(text, keyword) {
				return industry.Name
			}
		}
	}
	return ""
}

func normalize(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.ToLower(strings.TrimSpace(value))
		if value == "" {
			continue
		}
		out = append(out, value)
	}
	return out
}

package feed

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/spigell/jobrec/internal/posting"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	var records []any
	raw := `[{
		"id": 42,
		"title": "Backend Engineer",
		"company": "Acme",
		"description": "<p>Build <b>APIs</b></p><ul><li>Go</li><li>SQL</li></ul>",
		"requiredSkills": ["Go", "SQL"],
		"experienceLevel": "Senior",
		"jobType": "full-time",
		"remote": true,
		"salaryRange": {"min": 90000, "max": 120000},
		"postedDate": "2024-05-01"
	}]`
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		t.Fatalf("fixture: %v", err)
	}

	postings, err := Decode(records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(postings))
	}

	p := postings[0]
	if p.ID != "42" {
		t.Fatalf("expected numeric id to decode as \"42\", got %q", p.ID)
	}
	if p.ExperienceLevel != posting.LevelSenior || p.JobType != posting.FullTime {
		t.Fatalf("unexpected enums: %q %q", p.ExperienceLevel, p.JobType)
	}
	if p.SalaryRange == nil || p.SalaryRange.Max != 120000 {
		t.Fatalf("unexpected salary: %+v", p.SalaryRange)
	}
	if !p.PostedDate.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected posted date: %v", p.PostedDate)
	}
	if p.Description != "Build APIs Go SQL" {
		t.Fatalf("unexpected description: %q", p.Description)
	}
}

func TestDecodeRejectsBadTime(t *testing.T) {
	t.Parallel()

	_, err := Decode([]any{map[string]any{"id": "1", "postedDate": "yesterday"}})
	if err == nil {
		t.Fatalf("expected an error for an unparseable date")
	}
}

func TestHTMLToText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "  plain text ", want: "plain text"},
		{in: "<div>one</div><div>two</div>", want: "one two"},
		{in: "<p>keep</p><script>drop()</script><style>p{}</style>", want: "keep"},
		{in: "R&amp;D", want: "R&D"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		if got := HTMLToText(tt.in); got != tt.want {
			t.Fatalf("HTMLToText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFileLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "postings.json")
	data := `[{"id":"a","title":"SRE","company":"Acme","experienceLevel":"mid"},
	          {"id":"b","title":"QA","company":"Globex","experienceLevel":"entry"}]`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	postings, err := NewFile(path).Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 2 || postings[1].ID != "b" {
		t.Fatalf("unexpected postings: %+v", postings)
	}

	if _, err := NewFile(filepath.Join(t.TempDir(), "missing.json")).Load(context.Background()); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

func TestBuildParams(t *testing.T) {
	t.Parallel()

	q := buildParams(&Params{
		Text:      "golang",
		Locations: []string{"Berlin", "Remote"},
		Remote:    true,
		PerPage:   50,
	})

	if q.Get("text") != "golang" || q.Get("remote") != "true" || q.Get("per_page") != "50" {
		t.Fatalf("unexpected params: %v", q)
	}
	if got := q["location"]; len(got) != 2 || got[0] != "Berlin" {
		t.Fatalf("expected repeated location params, got %v", got)
	}
	for _, key := range []string{"experience", "company", "period"} {
		if q.Has(key) {
			t.Fatalf("unset param %q must be omitted", key)
		}
	}
}

func TestHTTPLoadFollowsPagesAndGzip(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		resp := itemResponse{
			Items:   []any{map[string]any{"id": "p" + strconv.Itoa(page), "title": "Dev", "company": "Acme", "experienceLevel": "mid"}},
			Found:   3,
			Pages:   3,
			Page:    page,
			PerPage: 1,
		}

		w.Header().Set("Content-Type", "application/json")
		if page == 1 {
			w.Header().Set("Content-Encoding", "gzip")
			gz := gzip.NewWriter(w)
			defer gz.Close()
			_ = json.NewEncoder(gz).Encode(resp)
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)

	postings, err := NewHTTP(srv.URL, &Params{Text: "dev"}, "secret", nil).Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 3 {
		t.Fatalf("expected 3 postings across pages, got %d", len(postings))
	}
	for i, p := range postings {
		if p.ID != "p"+strconv.Itoa(i) {
			t.Fatalf("unexpected posting order: %s at %d", p.ID, i)
		}
	}
}

func TestHTTPLoadBadStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	if _, err := NewHTTP(srv.URL, nil, "", nil).Load(context.Background()); err == nil {
		t.Fatalf("expected an error for a bad status")
	}
}

func TestRowToPosting(t *testing.T) {
	t.Parallel()

	location, jobType := "Berlin", "part-time"
	maxSalary := 80000.0
	posted := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	p := row{
		ID: "db-1", Title: "Analyst", Company: "Initech", Location: &location,
		ExperienceLevel: "junior", JobType: &jobType, SalaryMax: &maxSalary, PostedDate: &posted,
	}.posting()

	if p.Location != "Berlin" || p.ExperienceLevel != posting.LevelEntry || p.JobType != posting.PartTime {
		t.Fatalf("unexpected posting: %+v", p)
	}
	if p.SalaryRange == nil || p.SalaryRange.Min != 0 || p.SalaryRange.Max != 80000 {
		t.Fatalf("unexpected salary: %+v", p.SalaryRange)
	}
	if !p.PostedDate.Equal(posted) || p.Description != "" {
		t.Fatalf("unexpected fields: %+v", p)
	}
}

func TestSelectQueryQuotesTable(t *testing.T) {
	t.Parallel()

	got := selectQuery("jobs.postings")
	want := `FROM "jobs"."postings" ORDER BY`
	if !strings.Contains(got, want) {
		t.Fatalf("expected %q in %q", want, got)
	}
}

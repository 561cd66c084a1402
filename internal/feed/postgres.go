package feed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spigell/jobrec/internal/posting"
)

const DefaultTable = "job_postings"

// Postgres reads postings from a table with one row per posting.
type Postgres struct {
	pool   *pgxpool.Pool
	table  string
	logger *zap.Logger
}

// row is the table layout. Nullable columns are pointers.
type row struct {
	ID              string     `db:"id"`
	Title           string     `db:"title"`
	Company         string     `db:"company"`
	Location        *string    `db:"location"`
	Description     *string    `db:"description"`
	RequiredSkills  []string   `db:"required_skills"`
	PreferredSkills []string   `db:"preferred_skills"`
	ExperienceLevel string     `db:"experience_level"`
	SalaryMin       *float64   `db:"salary_min"`
	SalaryMax       *float64   `db:"salary_max"`
	JobType         *string    `db:"job_type"`
	Remote          bool       `db:"remote"`
	Benefits        []string   `db:"benefits"`
	PostedDate      *time.Time `db:"posted_date"`
	ApplicationURL  *string    `db:"application_url"`
}

var columns = []string{
	"id", "title", "company", "location", "description", "required_skills", "preferred_skills",
	"experience_level", "salary_min", "salary_max", "job_type", "remote", "benefits", "posted_date",
	"application_url",
}

// NewPostgres connects a pool and verifies the connection.
func NewPostgres(ctx context.Context, databaseURL, table string, logger *zap.Logger) (*Postgres, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if table == "" {
		table = DefaultTable
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{pool: pool, table: table, logger: logger}, nil
}

func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

func (p *Postgres) Load(ctx context.Context) ([]*posting.JobPosting, error) {
	query := selectQuery(p.table)
	p.logger.Debug("loading postings from database", zap.String("query", query))

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query postings: %w", err)
	}

	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[row])
	if err != nil {
		return nil, fmt.Errorf("failed to scan postings: %w", err)
	}

	postings := make([]*posting.JobPosting, 0, len(records))
	for _, r := range records {
		postings = append(postings, r.posting())
	}
	return postings, nil
}

// selectQuery quotes the table name, which may be schema-qualified.
func selectQuery(table string) string {
	ident := pgx.Identifier(strings.Split(table, "."))
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY posted_date DESC NULLS LAST, id",
		strings.Join(columns, ", "), ident.Sanitize())
}

func (r row) posting() *posting.JobPosting {
	p := &posting.JobPosting{
		ID:              r.ID,
		Title:           r.Title,
		Company:         r.Company,
		Location:        deref(r.Location),
		Description:     HTMLToText(deref(r.Description)),
		RequiredSkills:  r.RequiredSkills,
		PreferredSkills: r.PreferredSkills,
		ExperienceLevel: posting.ParseExperienceLevel(r.ExperienceLevel),
		JobType:         posting.ParseJobType(deref(r.JobType)),
		Remote:          r.Remote,
		Benefits:        r.Benefits,
		ApplicationURL:  deref(r.ApplicationURL),
	}
	if r.SalaryMin != nil || r.SalaryMax != nil {
		p.SalaryRange = &posting.SalaryRange{}
		if r.SalaryMin != nil {
			p.SalaryRange.Min = *r.SalaryMin
		}
		if r.SalaryMax != nil {
			p.SalaryRange.Max = *r.SalaryMax
		}
	}
	if r.PostedDate != nil {
		p.PostedDate = *r.PostedDate
	}
	return p
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spigell/jobrec/internal/posting"
)

// File reads a JSON array of postings.
type File struct {
	Path string
}

func NewFile(path string) *File {
	return &File{Path: path}
}

func (f *File) Load(ctx context.Context) ([]*posting.JobPosting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("reading postings file: %w", err)
	}

	var records []any
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing postings file %s: %w", f.Path, err)
	}

	return Decode(records)
}

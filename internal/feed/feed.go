// Package feed loads job postings from external sources: a JSON file, a
// paged HTTP API or a Postgres table.
package feed

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/jobrec/internal/posting"
)

// Source yields postings from some external feed.
type Source interface {
	Load(ctx context.Context) ([]*posting.JobPosting, error)
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Decode converts loosely typed records, as produced by json.Unmarshal into
// []any, into postings. Field names follow the posting's json tags.
func Decode(records []any) ([]*posting.JobPosting, error) {
	var postings []*posting.JobPosting

	cfg := &mapstructure.DecoderConfig{
		Result:           &postings,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			stringToTimeHook,
			mapstructure.TextUnmarshallerHookFunc(),
		),
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(records); err != nil {
		return nil, fmt.Errorf("decoding postings: %w", err)
	}

	for _, p := range postings {
		if p != nil {
			p.Description = HTMLToText(p.Description)
		}
	}
	return postings, nil
}

func stringToTimeHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(time.Time{}) {
		return data, nil
	}

	s := strings.TrimSpace(data.(string))
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("unsupported time %q", s)
}

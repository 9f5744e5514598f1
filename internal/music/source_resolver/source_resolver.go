package source_resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/keshon/jukebox/internal/music/sources"
)

var ErrNoMatchingSource = errors.New("no matching source found")

// SourceResolver routes an input to the source that can handle it. Plain
// text goes to the search source; URLs go to the first source that matches,
// checked in registration order.
type SourceResolver struct {
	search  sources.Source
	sources []sources.Source
}

// New registers search for text queries and URL matching, followed by the
// remaining sources. Put catch-all sources last.
func New(search sources.Source, rest ...sources.Source) *SourceResolver {
	return &SourceResolver{
		search:  search,
		sources: append([]sources.Source{search}, rest...),
	}
}

func (r *SourceResolver) Resolve(ctx context.Context, input string) ([]sources.Track, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, sources.ErrNoResults
	}

	if !isURL(input) {
		return r.search.Resolve(ctx, input)
	}

	for _, s := range r.sources {
		if s.Match(input) {
			tracks, err := s.Resolve(ctx, input)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", s.SourceName(), err)
			}
			return tracks, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoMatchingSource, input)
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

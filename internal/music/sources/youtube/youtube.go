package youtube

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/keshon/jukebox/internal/music/parsers"
	"github.com/keshon/jukebox/internal/music/sources"
)

// DefaultCandidates is how many search hits get their metadata fetched.
const DefaultCandidates = 3

var ErrUnsupportedURL = errors.New("unsupported YouTube URL")

type MetadataFetcher interface {
	Metadata(ctx context.Context, url string) (parsers.Metadata, error)
}

type Source struct {
	search     *Searcher
	meta       MetadataFetcher
	Candidates int
	log        zerolog.Logger
}

func New(search *Searcher, meta MetadataFetcher, logger zerolog.Logger) *Source {
	return &Source{
		search:     search,
		meta:       meta,
		Candidates: DefaultCandidates,
		log:        logger.With().Str("component", "youtube").Logger(),
	}
}

func (y *Source) Match(input string) bool {
	return isYouTubeURL(input)
}

func (y *Source) SourceName() string {
	return sources.SourceYouTube
}

func (y *Source) Resolve(ctx context.Context, input string) ([]sources.Track, error) {
	input = strings.TrimSpace(input)

	if isYouTubeURL(input) {
		id, ok := VideoID(input)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedURL, input)
		}
		track, err := y.track(ctx, WatchURL(id))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", sources.ErrNoResults, err)
		}
		return []sources.Track{track}, nil
	}

	if isURL(input) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedURL, input)
	}

	ids, err := y.search.SearchIDs(ctx, input)
	if err != nil {
		return nil, err
	}
	if len(ids) > y.Candidates {
		ids = ids[:y.Candidates]
	}

	results := make([]*sources.Track, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			track, err := y.track(ctx, WatchURL(id))
			if err != nil {
				y.log.Debug().Err(err).Str("video", id).Msg("skipping candidate")
				return
			}
			results[i] = &track
		}()
	}
	wg.Wait()

	var tracks []sources.Track
	for _, t := range results {
		if t != nil {
			tracks = append(tracks, *t)
		}
	}
	if len(tracks) == 0 {
		return nil, sources.ErrNoResults
	}
	return tracks, nil
}

func (y *Source) track(ctx context.Context, url string) (sources.Track, error) {
	md, err := y.meta.Metadata(ctx, url)
	if err != nil {
		return sources.Track{}, err
	}
	return sources.Track{
		Title:    md.Title,
		URL:      url,
		Duration: md.Duration,
		Source:   sources.SourceYouTube,
	}, nil
}

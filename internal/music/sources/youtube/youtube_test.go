package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/jukebox/internal/music/parsers"
	"github.com/keshon/jukebox/internal/music/sources"
)

const resultsPage = `{"contents":[` +
	`{"url":"/watch?v=aaaaaaaaaaa&pp=x"},` +
	`{"url":"/watch?v=bbbbbbbbbbb"},` +
	`{"url":"/watch?v=aaaaaaaaaaa"},` +
	`{"url":"/watch?v=ccccccccccc"},` +
	`{"url":"/watch?v=ddddddddddd"}]}`

type fakeMeta struct {
	fail map[string]bool
}

func (f fakeMeta) Metadata(ctx context.Context, url string) (parsers.Metadata, error) {
	if f.fail[url] {
		return parsers.Metadata{}, errors.New("unavailable")
	}
	return parsers.Metadata{Title: "title of " + url[len(url)-11:], Duration: 3 * time.Minute}, nil
}

func newTestSource(t *testing.T, handler http.HandlerFunc, meta MetadataFetcher) *Source {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s := NewSearcher(srv.Client())
	s.BaseURL = srv.URL
	s.retry.InitialDelay = time.Millisecond
	s.retry.RateLimitDelay = time.Millisecond
	s.retry.Jitter = false
	return New(s, meta, zerolog.Nop())
}

func TestSearchOrdersAndDedups(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/results", r.URL.Path)
		assert.Equal(t, "never gonna", r.URL.Query().Get("search_query"))
		fmt.Fprint(w, resultsPage)
	}, fakeMeta{})

	tracks, err := src.Resolve(context.Background(), "never gonna")
	require.NoError(t, err)
	require.Len(t, tracks, DefaultCandidates)
	assert.Equal(t, WatchURL("aaaaaaaaaaa"), tracks[0].URL)
	assert.Equal(t, WatchURL("bbbbbbbbbbb"), tracks[1].URL)
	assert.Equal(t, WatchURL("ccccccccccc"), tracks[2].URL)
	assert.Equal(t, "title of aaaaaaaaaaa", tracks[0].Title)
	assert.Equal(t, sources.SourceYouTube, tracks[0].Source)
}

func TestSearchSkipsFailedCandidates(t *testing.T) {
	meta := fakeMeta{fail: map[string]bool{WatchURL("aaaaaaaaaaa"): true}}
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, resultsPage)
	}, meta)

	tracks, err := src.Resolve(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, WatchURL("bbbbbbbbbbb"), tracks[0].URL)
}

func TestSearchNoResults(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"contents":[]}`)
	}, fakeMeta{})

	_, err := src.Resolve(context.Background(), "zzzz")
	assert.ErrorIs(t, err, sources.ErrNoResults)
}

func TestSearchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, resultsPage)
	}, fakeMeta{})

	tracks, err := src.Resolve(context.Background(), "q")
	require.NoError(t, err)
	assert.NotEmpty(t, tracks)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSearchDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}, fakeMeta{})

	_, err := src.Resolve(context.Background(), "q")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestResolveDirectURL(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("search must not be called for URLs")
	}, fakeMeta{})

	tracks, err := src.Resolve(context.Background(), "https://youtu.be/aaaaaaaaaaa?t=42")
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, WatchURL("aaaaaaaaaaa"), tracks[0].URL)

	_, err = src.Resolve(context.Background(), "https://www.youtube.com/@channel")
	assert.ErrorIs(t, err, ErrUnsupportedURL)
}

func TestVideoID(t *testing.T) {
	tests := map[string]string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=RD":  "dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ":                         "dQw4w9WgXcQ",
		"youtube.com/shorts/dQw4w9WgXcQ":                       "dQw4w9WgXcQ",
		"https://music.youtube.com/watch?v=dQw4w9WgXcQ&si=abc": "dQw4w9WgXcQ",
		"https://www.youtube.com/playlist?list=PL123":          "",
	}
	for in, want := range tests {
		got, ok := VideoID(in)
		assert.Equal(t, want != "", ok, in)
		assert.Equal(t, want, got, in)
	}
}

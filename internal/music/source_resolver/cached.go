package source_resolver

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/keshon/jukebox/internal/cache"
	"github.com/keshon/jukebox/internal/music/sources"
)

type Resolver interface {
	Resolve(ctx context.Context, input string) ([]sources.Track, error)
}

// Cached remembers successful resolutions. Cache failures are logged and
// never fail a lookup.
type Cached struct {
	next  Resolver
	cache cache.Cache
	ttl   time.Duration
	log   zerolog.Logger
}

func NewCached(next Resolver, c cache.Cache, ttl time.Duration, logger zerolog.Logger) *Cached {
	return &Cached{
		next:  next,
		cache: c,
		ttl:   ttl,
		log:   logger.With().Str("component", "search-cache").Logger(),
	}
}

// CacheKey normalises case and whitespace of a plain query. Links keep their
// path and query as given, since video IDs are case-sensitive; only the
// scheme and host are lower-cased.
func CacheKey(input string) string {
	input = strings.TrimSpace(input)
	if u, ok := parseLink(input); ok {
		u.Host = strings.ToLower(u.Host)
		return "url:" + u.String()
	}
	return "search:" + strings.ToLower(strings.Join(strings.Fields(input), " "))
}

// parseLink accepts http(s) URLs and scheme-less links such as
// "youtu.be/ID", which sources also match.
func parseLink(input string) (*url.URL, bool) {
	if input == "" || strings.ContainsAny(input, " \t\n") {
		return nil, false
	}
	raw, bare := input, !strings.Contains(input, "://")
	if bare {
		raw = "https://" + input
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, false
	}
	if bare && (!strings.Contains(u.Host, ".") || u.Path == "" || u.Path == "/") {
		return nil, false
	}
	return u, true
}

func (c *Cached) Resolve(ctx context.Context, input string) ([]sources.Track, error) {
	key := CacheKey(input)

	if raw, ok, err := c.cache.Get(ctx, key); err != nil {
		c.log.Warn().Err(err).Msg("cache get failed")
	} else if ok {
		var tracks []sources.Track
		if err := json.Unmarshal([]byte(raw), &tracks); err == nil && len(tracks) > 0 {
			c.log.Debug().Str("key", key).Msg("cache hit")
			return tracks, nil
		}
	}

	tracks, err := c.next.Resolve(ctx, input)
	if err != nil || len(tracks) == 0 {
		return tracks, err
	}

	if data, err := json.Marshal(tracks); err == nil {
		if err := c.cache.Set(ctx, key, string(data), c.ttl); err != nil {
			c.log.Warn().Err(err).Msg("cache set failed")
		}
	}
	return tracks, nil
}

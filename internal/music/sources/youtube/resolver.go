package youtube

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/keshon/jukebox/pkg/retrylimit"
)

var watchURLPattern = regexp.MustCompile(`"url":"/watch\?v=([a-zA-Z0-9_-]{11})`)

// Searcher scrapes the YouTube results page for video IDs.
type Searcher struct {
	BaseURL string
	Client  *http.Client
	limiter *retrylimit.AdaptiveLimiter
	retry   retrylimit.RetryConfig
}

func NewSearcher(client *http.Client) *Searcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	retry := retrylimit.DefaultRetryConfig()
	retry.MaxAttempts = 3
	return &Searcher{
		BaseURL: "https://www.youtube.com",
		Client:  client,
		limiter: retrylimit.NewAdaptiveLimiter(2, 1, 5, 1, 0.5),
		retry:   retry,
	}
}

// SearchIDs returns video IDs in page order, without duplicates.
func (s *Searcher) SearchIDs(ctx context.Context, query string) ([]string, error) {
	searchURL := fmt.Sprintf("%s/results?search_query=%s", s.BaseURL, url.QueryEscape(query))

	var body []byte
	err := retrylimit.WithRetryConfig(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
		if err != nil {
			return retrylimit.Fatal(err)
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")

		resp, err := s.Client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			statusErr := &retrylimit.StatusError{Code: resp.StatusCode, URL: searchURL}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return statusErr
			}
			return retrylimit.Fatal(statusErr)
		}

		body, err = io.ReadAll(resp.Body)
		return err
	}, s.limiter, s.retry)
	if err != nil {
		return nil, fmt.Errorf("youtube search %q: %w", query, err)
	}

	return extractIDs(body), nil
}

func extractIDs(body []byte) []string {
	matches := watchURLPattern.FindAllSubmatch(body, -1)
	seen := make(map[string]struct{}, len(matches))
	var ids []string
	for _, m := range matches {
		id := string(m[1])
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

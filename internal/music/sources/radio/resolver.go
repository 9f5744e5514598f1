package radio

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

var validContentTypes = []string{
	"audio/",
	"video/",
	"application/vnd.apple.mpegurl",
	"application/x-mpegurl",
	"application/ogg",
	"application/x-scpls",
	"application/xspf+xml",
	"application/octet-stream", // risky but often used for streams
}

// Probe is what a stream URL reports about itself.
type Probe struct {
	ContentType string
	FinalURL    string
	Name        string // icy-name, if the server sends one
}

// Prober validates streaming radio links by checking headers and heuristics.
type Prober struct {
	Client *http.Client
}

func NewProber() *Prober {
	return &Prober{
		Client: &http.Client{
			Timeout: 5 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
	}
}

// Check fetches headers for rawURL and rejects anything that does not look
// like an audio stream or playlist.
func (p *Prober) Check(ctx context.Context, rawURL string) (Probe, error) {
	probe, err := p.fetch(ctx, rawURL)
	if err != nil {
		return Probe{}, fmt.Errorf("probe %s: %w", rawURL, err)
	}
	if isAllowedType(probe.ContentType) || isLikelyPlaylist(probe.FinalURL) {
		return probe, nil
	}
	return Probe{}, fmt.Errorf("invalid stream content-type %q for %s", probe.ContentType, probe.FinalURL)
}

func (p *Prober) fetch(ctx context.Context, rawURL string) (Probe, error) {
	resp, err := p.do(ctx, http.MethodHead, rawURL)
	if err != nil || resp.StatusCode >= 400 {
		if resp != nil {
			resp.Body.Close()
		}
		// some servers refuse HEAD; the body of a live stream is never read
		resp, err = p.do(ctx, http.MethodGet, rawURL)
		if err != nil {
			return Probe{}, err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return Probe{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return Probe{
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    resp.Request.URL.String(),
		Name:        strings.TrimSpace(resp.Header.Get("icy-name")),
	}, nil
}

func (p *Prober) do(ctx context.Context, method, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Icy-MetaData", "1")
	return p.Client.Do(req)
}

func isAllowedType(contentType string) bool {
	contentType, _, _ = strings.Cut(contentType, ";")
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	for _, allowed := range validContentTypes {
		if strings.HasPrefix(contentType, allowed) {
			return true
		}
	}
	return false
}

func isLikelyPlaylist(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	switch strings.ToLower(path.Ext(u.Path)) {
	case ".m3u", ".m3u8", ".pls", ".xspf", ".asx":
		return true
	}
	return false
}

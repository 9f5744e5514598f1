package kkdai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	_ "github.com/bdandy/go-socks4"
	youtube "github.com/kkdai/youtube/v2"
	"github.com/rs/zerolog"
	"golang.org/x/net/proxy"

	"github.com/keshon/jukebox/internal/music/parsers"
)

var ErrNoAudioFormats = errors.New("no audio formats found for video")

// Resolver turns YouTube URLs into metadata, raw media streams and direct
// stream URLs.
type Resolver struct {
	client *youtube.Client
	log    zerolog.Logger
}

// NewResolver builds a resolver. proxyStr may be empty, or an http, https,
// socks5 or socks4 URL.
func NewResolver(proxyStr string, logger zerolog.Logger) (*Resolver, error) {
	httpClient, err := newHTTPClient(proxyStr)
	if err != nil {
		return nil, err
	}
	logger = logger.With().Str("component", "kkdai").Logger()
	if proxyStr != "" {
		logger.Info().Str("proxy", redact(proxyStr)).Msg("using proxy")
	}
	return &Resolver{
		client: &youtube.Client{HTTPClient: httpClient},
		log:    logger,
	}, nil
}

func newHTTPClient(proxyStr string) (*http.Client, error) {
	const timeout = 15 * time.Second
	if proxyStr == "" {
		return &http.Client{Timeout: timeout}, nil
	}

	proxyURL, err := url.Parse(proxyStr)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy %q: %w", redact(proxyStr), err)
	}

	var transport *http.Transport
	switch proxyURL.Scheme {
	case "http", "https":
		transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	case "socks5", "socks4":
		// socks4 is registered with x/net/proxy by go-socks4
		dialer, err := proxy.FromURL(proxyURL, &net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 10 * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("%s dialer: %w", proxyURL.Scheme, err)
		}
		transport = &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				if cd, ok := dialer.(proxy.ContextDialer); ok {
					return cd.DialContext(ctx, network, addr)
				}
				return dialer.Dial(network, addr)
			},
		}
	default:
		return nil, fmt.Errorf("unsupported proxy scheme: %s", proxyURL.Scheme)
	}

	return &http.Client{Timeout: timeout, Transport: transport}, nil
}

func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid>"
	}
	return u.Redacted()
}

func (r *Resolver) video(ctx context.Context, rawURL string) (*youtube.Video, error) {
	video, err := r.client.GetVideoContext(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("get video %s: %w", rawURL, err)
	}
	return video, nil
}

// Metadata returns the title and duration of a video.
func (r *Resolver) Metadata(ctx context.Context, rawURL string) (parsers.Metadata, error) {
	video, err := r.video(ctx, rawURL)
	if err != nil {
		return parsers.Metadata{}, err
	}
	return parsers.Metadata{Title: video.Title, Duration: video.Duration}, nil
}

// Resolve opens the raw audio stream of a video at the given quality tier.
func (r *Resolver) Resolve(ctx context.Context, rawURL string, tier int) (*parsers.Media, error) {
	video, err := r.video(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	format, err := PickFormat(video.Formats, tier)
	if err != nil {
		return nil, err
	}

	stream, _, err := r.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return nil, fmt.Errorf("get stream: %w", err)
	}

	r.log.Debug().
		Str("video", video.ID).
		Int("itag", format.ItagNo).
		Int("bitrate", format.Bitrate).
		Str("mime", format.MimeType).
		Msg("resolved media stream")

	return &parsers.Media{ReadCloser: stream, Container: Container(format.MimeType)}, nil
}

// StreamURL returns a direct media URL suitable for ffmpeg.
func (r *Resolver) StreamURL(ctx context.Context, rawURL string, tier int) (string, error) {
	video, err := r.video(ctx, rawURL)
	if err != nil {
		return "", err
	}
	format, err := PickFormat(video.Formats, tier)
	if err != nil {
		return "", err
	}
	link, err := r.client.GetStreamURLContext(ctx, video, format)
	if err != nil {
		return "", fmt.Errorf("get stream url: %w", err)
	}
	return link, nil
}

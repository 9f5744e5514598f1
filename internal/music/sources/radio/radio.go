package radio

import (
	"context"
	"net/url"
	"path"
	"strings"

	"github.com/keshon/jukebox/internal/music/sources"
)

type Source struct {
	prober *Prober
}

func New(prober *Prober) *Source {
	if prober == nil {
		prober = NewProber()
	}
	return &Source{prober: prober}
}

func (r *Source) Match(input string) bool {
	return strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://")
}

func (r *Source) SourceName() string {
	return sources.SourceRadio
}

// Resolve validates the stream and names it after its icy-name header, or
// after the last path element of the URL.
func (r *Source) Resolve(ctx context.Context, input string) ([]sources.Track, error) {
	input = strings.TrimSpace(input)
	probe, err := r.prober.Check(ctx, input)
	if err != nil {
		return nil, err
	}

	title := probe.Name
	if title == "" {
		title = titleFromURL(input)
	}

	return []sources.Track{{
		Title:  title,
		URL:    input,
		Source: sources.SourceRadio,
	}}, nil
}

func titleFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if base := path.Base(u.Path); base != "/" && base != "." && base != "" {
		return base
	}
	return u.Host
}

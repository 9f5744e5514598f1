package ytdlp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/keshon/jukebox/internal/music/parsers"
)

var ErrEmptyURL = errors.New("empty URL returned from yt-dlp")

type Resolver struct {
	Path string
}

func New(path string) *Resolver {
	if path == "" {
		path = "yt-dlp"
	}
	return &Resolver{Path: path}
}

type Info struct {
	URL string
	parsers.Metadata
}

// Info runs `yt-dlp -j -f bestaudio` and returns the direct URL plus metadata.
func (r *Resolver) Info(ctx context.Context, rawURL string) (Info, error) {
	out, err := exec.CommandContext(ctx, r.Path, "-j", "-f", "bestaudio", "--no-playlist", rawURL).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return Info{}, fmt.Errorf("yt-dlp: %w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return Info{}, fmt.Errorf("yt-dlp: %w", err)
	}
	return parseInfo(out)
}

// StreamURL returns only the direct media URL.
func (r *Resolver) StreamURL(ctx context.Context, rawURL string) (string, error) {
	info, err := r.Info(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func parseInfo(data []byte) (Info, error) {
	type fragment struct {
		Duration float64 `json:"duration"`
	}
	type format struct {
		URL       string     `json:"url"`
		Fragments []fragment `json:"fragments,omitempty"`
	}
	var raw struct {
		Title    string   `json:"title"`
		Duration float64  `json:"duration"`
		Formats  []format `json:"formats"`
		URL      string   `json:"url"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Info{}, fmt.Errorf("decode yt-dlp json: %w", err)
	}

	// live streams report no root duration
	if raw.Duration == 0 && len(raw.Formats) > 0 && len(raw.Formats[0].Fragments) > 0 {
		raw.Duration = raw.Formats[0].Fragments[0].Duration
	}

	link := strings.TrimSpace(raw.URL)
	if link == "" && len(raw.Formats) > 0 {
		link = strings.TrimSpace(raw.Formats[0].URL)
	}
	if link == "" {
		return Info{}, ErrEmptyURL
	}

	return Info{
		URL: link,
		Metadata: parsers.Metadata{
			Title:    raw.Title,
			Duration: time.Duration(raw.Duration * float64(time.Second)),
		},
	}, nil
}

package sources

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	SourceYouTube = "youtube"
	SourceRadio   = "radio"
)

var ErrNoResults = errors.New("no results")

type Requester struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Track is a resolved, playable item. It is not modified after resolution.
type Track struct {
	Title       string        `json:"title"`
	URL         string        `json:"url"`
	Duration    time.Duration `json:"duration"`
	Source      string        `json:"source"`
	RequestedBy Requester     `json:"requested_by"`
}

// DurationString renders m:ss, or h:mm:ss from one hour up. Live streams
// (zero duration) render as "live".
func (t Track) DurationString() string {
	if t.Duration <= 0 {
		return "live"
	}
	total := int64(t.Duration / time.Second)
	h, m, s := total/3600, total/60%60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func (t Track) DurationMS() int64 {
	return t.Duration.Milliseconds()
}

type Source interface {
	// Match checks if this source can handle the given input
	Match(input string) bool

	// Resolve turns an input into ordered candidate tracks
	Resolve(ctx context.Context, input string) ([]Track, error)

	// SourceName returns the string identifier ("youtube", "radio")
	SourceName() string
}

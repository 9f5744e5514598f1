package youtube

import (
	"net/url"
	"regexp"
	"strings"
)

var youtubeURLPattern = regexp.MustCompile(`^(?:https?://)?(?:www\.|m\.|music\.)?(youtube\.com|youtu\.be)/\S+`)

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func isYouTubeURL(input string) bool {
	return youtubeURLPattern.MatchString(input)
}

// VideoID extracts the video ID from watch, short, shorts and music URLs.
func VideoID(raw string) (string, bool) {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	var id string
	switch strings.TrimPrefix(u.Hostname(), "www.") {
	case "youtu.be":
		id = strings.Trim(u.Path, "/")
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		switch {
		case u.Path == "/watch":
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/shorts/"):
			id = strings.TrimPrefix(u.Path, "/shorts/")
		}
	}

	if len(id) != 11 {
		return "", false
	}
	return id, true
}

// CleanVideoURL drops playlist, timestamp and tracking parameters.
func CleanVideoURL(raw string) string {
	if id, ok := VideoID(raw); ok {
		return WatchURL(id)
	}
	return raw
}

func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

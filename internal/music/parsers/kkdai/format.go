package kkdai

import (
	"cmp"
	"slices"
	"strings"

	youtube "github.com/kkdai/youtube/v2"

	"github.com/keshon/jukebox/internal/music/parsers"
)

// PickFormat chooses an audio format for a quality tier. Audio-only webm
// (opus) formats are preferred, then any audio-only format, then anything
// that carries audio. Candidates are ranked by bitrate: QualityLow picks the
// lowest, QualityHigh the highest and QualityMedium the middle one.
func PickFormat(formats youtube.FormatList, tier int) (*youtube.Format, error) {
	withAudio := formats.WithAudioChannels()

	var webm, audioOnly youtube.FormatList
	for _, f := range withAudio {
		switch {
		case strings.HasPrefix(f.MimeType, "audio/webm"):
			webm = append(webm, f)
			audioOnly = append(audioOnly, f)
		case strings.HasPrefix(f.MimeType, "audio/"):
			audioOnly = append(audioOnly, f)
		}
	}

	candidates := webm
	if len(candidates) == 0 {
		candidates = audioOnly
	}
	if len(candidates) == 0 {
		candidates = withAudio
	}
	if len(candidates) == 0 {
		return nil, ErrNoAudioFormats
	}

	sorted := slices.Clone(candidates)
	slices.SortStableFunc(sorted, func(a, b youtube.Format) int {
		return cmp.Compare(a.Bitrate, b.Bitrate)
	})

	tier = min(max(tier, parsers.QualityLow), parsers.QualityHigh)
	idx := (len(sorted) - 1) * tier / parsers.QualityHigh
	return &sorted[idx], nil
}

// Container extracts the container name from a mime type:
// `audio/webm; codecs="opus"` becomes "webm".
func Container(mime string) string {
	_, sub, ok := strings.Cut(mime, "/")
	if !ok {
		return ""
	}
	sub, _, _ = strings.Cut(sub, ";")
	return strings.TrimSpace(sub)
}

package playback

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/keshon/jukebox/internal/music/parsers"
	"github.com/keshon/jukebox/internal/music/parsers/ffmpeg"
	"github.com/keshon/jukebox/internal/music/player"
	"github.com/keshon/jukebox/internal/music/sources"
	"github.com/keshon/jukebox/internal/music/stream"
)

// MediaResolver fetches the raw media of a URL at a quality tier.
type MediaResolver interface {
	Resolve(ctx context.Context, url string, tier int) (*parsers.Media, error)
}

// Transcoded is a running transcode. Err reports process failures and is
// closed when the process exits.
type Transcoded interface {
	io.ReadCloser
	Err() <-chan error
}

type Transcoder interface {
	Transcode(ctx context.Context, in io.ReadCloser, opts ffmpeg.Options) (Transcoded, error)
}

// FFmpeg adapts an ffmpeg.Transcoder to Transcoder.
type FFmpeg struct {
	*ffmpeg.Transcoder
}

func (f FFmpeg) Transcode(ctx context.Context, in io.ReadCloser, opts ffmpeg.Options) (Transcoded, error) {
	out, err := f.Transcoder.Transcode(ctx, in, opts)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// BufferedStream returns a stream hook that fetches YouTube media itself at
// tier and transcodes it to Ogg/Opus. Other sources are declined.
func BufferedStream(resolver MediaResolver, transcoder Transcoder, tier int, logger zerolog.Logger) player.StreamHook {
	log := logger.With().Str("component", "buffered_stream").Logger()

	return func(ctx context.Context, track sources.Track, source string) (*stream.Stream, error) {
		if source != sources.SourceYouTube {
			return nil, nil
		}

		media, err := resolver.Resolve(ctx, track.URL, tier)
		if err != nil {
			return nil, fmt.Errorf("resolve media: %w", err)
		}

		opts := ffmpeg.DefaultOptions()
		if media.Container != "" {
			opts.InputFormat = media.Container
		}
		out, err := transcoder.Transcode(ctx, media, opts)
		if err != nil {
			return nil, fmt.Errorf("transcode: %w", err)
		}

		go func() {
			for err := range out.Err() {
				log.Error().Err(err).Str("track", track.Title).Str("url", track.URL).Msg("transcoding failed")
			}
		}()

		log.Debug().Str("track", track.Title).Str("input", opts.InputFormat).Msg("buffered stream opened")
		return &stream.Stream{ReadCloser: out, Format: stream.FormatOggOpus}, nil
	}
}

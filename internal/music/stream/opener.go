package stream

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/keshon/jukebox/internal/music/parsers/ffmpeg"
)

// URLResolver returns a direct media URL for a page URL at a quality tier.
type URLResolver interface {
	StreamURL(ctx context.Context, url string, tier int) (string, error)
}

// FallbackResolver is tried when the URLResolver fails.
type FallbackResolver interface {
	StreamURL(ctx context.Context, url string) (string, error)
}

// Decoder turns a media URL into s16le PCM.
type Decoder interface {
	Decode(ctx context.Context, url string) (io.ReadCloser, error)
}

// Opener is the default way to get audio for a track: resolve a direct URL
// and decode it to PCM.
type Opener struct {
	Primary  URLResolver
	Fallback FallbackResolver
	Decoder  Decoder
	Quality  int
	Log      zerolog.Logger
}

// Open returns a PCM stream for url. YouTube URLs are resolved first; any
// other source is handed to the decoder as is.
func (o *Opener) Open(ctx context.Context, url, source string) (*Stream, error) {
	link := url
	if source == "youtube" {
		var err error
		if link, err = o.resolve(ctx, url); err != nil {
			return nil, err
		}
	}

	rc, err := o.Decoder.Decode(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", source, err)
	}
	return &Stream{ReadCloser: rc, Format: FormatPCM}, nil
}

func (o *Opener) resolve(ctx context.Context, url string) (string, error) {
	var errs []error
	if o.Primary != nil {
		link, err := o.Primary.StreamURL(ctx, url, o.Quality)
		if err == nil {
			return link, nil
		}
		o.Log.Warn().Err(err).Str("url", url).Msg("primary resolver failed")
		errs = append(errs, err)
	}
	if o.Fallback != nil {
		link, err := o.Fallback.StreamURL(ctx, url)
		if err == nil {
			return link, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return "", errors.New("no resolver configured")
	}
	return "", fmt.Errorf("resolve %s: %w", url, errors.Join(errs...))
}

// FFmpegDecoder adapts an ffmpeg.Transcoder to Decoder and logs process
// failures.
type FFmpegDecoder struct {
	Transcoder *ffmpeg.Transcoder
	Log        zerolog.Logger
}

func (d FFmpegDecoder) Decode(ctx context.Context, url string) (io.ReadCloser, error) {
	out, err := d.Transcoder.DecodeURL(ctx, url)
	if err != nil {
		return nil, err
	}
	go func() {
		for err := range out.Err() {
			d.Log.Warn().Err(err).Msg("decoder exited")
		}
	}()
	return out, nil
}

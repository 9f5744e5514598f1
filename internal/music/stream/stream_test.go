package stream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v3/pkg/media/oggwriter"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func oggOpus(t *testing.T, payloads ...[]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := oggwriter.NewWith(&buf, 48000, 2)
	require.NoError(t, err)
	for i, p := range payloads {
		require.NoError(t, w.WriteRTP(&rtp.Packet{
			Header:  rtp.Header{SequenceNumber: uint16(i), Timestamp: uint32(i * 960)},
			Payload: p,
		}))
	}
	return buf.Bytes()
}

func TestOggFrames(t *testing.T) {
	data := oggOpus(t, []byte{0xfc, 1, 2}, []byte{0xfc, 3, 4, 5}, []byte{0xfc, 6})
	fr, err := NewFrameReader(&Stream{ReadCloser: io.NopCloser(bytes.NewReader(data)), Format: FormatOggOpus})
	require.NoError(t, err)
	defer fr.Close()

	var got [][]byte
	for {
		frame, err := fr.ReadFrame()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, frame)
	}

	assert.Equal(t, [][]byte{{0xfc, 1, 2}, {0xfc, 3, 4, 5}, {0xfc, 6}}, got)
}

func TestOggFramesRejectsGarbage(t *testing.T) {
	_, err := NewFrameReader(&Stream{ReadCloser: io.NopCloser(strings.NewReader("not an ogg stream at all")), Format: FormatOggOpus})
	assert.Error(t, err)
}

func TestUnknownFormat(t *testing.T) {
	_, err := NewFrameReader(&Stream{ReadCloser: io.NopCloser(strings.NewReader("")), Format: Format(9)})
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

type fakePrimary struct {
	link string
	err  error
}

func (f fakePrimary) StreamURL(ctx context.Context, url string, tier int) (string, error) {
	return f.link, f.err
}

type fakeFallback struct {
	link string
	err  error
}

func (f fakeFallback) StreamURL(ctx context.Context, url string) (string, error) {
	return f.link, f.err
}

type fakeDecoder struct{ urls []string }

func (f *fakeDecoder) Decode(ctx context.Context, url string) (io.ReadCloser, error) {
	f.urls = append(f.urls, url)
	return io.NopCloser(strings.NewReader("pcm")), nil
}

func TestOpenerYouTubeFallsBack(t *testing.T) {
	dec := &fakeDecoder{}
	o := &Opener{
		Primary:  fakePrimary{err: errors.New("signature")},
		Fallback: fakeFallback{link: "https://cdn/ytdlp"},
		Decoder:  dec,
		Log:      zerolog.Nop(),
	}

	s, err := o.Open(context.Background(), "https://youtu.be/abc", "youtube")
	require.NoError(t, err)
	assert.Equal(t, FormatPCM, s.Format)
	assert.Equal(t, []string{"https://cdn/ytdlp"}, dec.urls)
}

func TestOpenerYouTubeAllFail(t *testing.T) {
	o := &Opener{
		Primary:  fakePrimary{err: errors.New("one")},
		Fallback: fakeFallback{err: errors.New("two")},
		Decoder:  &fakeDecoder{},
		Log:      zerolog.Nop(),
	}
	_, err := o.Open(context.Background(), "https://youtu.be/abc", "youtube")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "one")
	assert.Contains(t, err.Error(), "two")
}

func TestOpenerRadioDecodesDirectly(t *testing.T) {
	dec := &fakeDecoder{}
	o := &Opener{Primary: fakePrimary{link: "unused"}, Decoder: dec, Log: zerolog.Nop()}

	_, err := o.Open(context.Background(), "https://radio.example/live", "radio")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://radio.example/live"}, dec.urls)
}

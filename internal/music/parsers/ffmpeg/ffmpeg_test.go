package ffmpeg

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscodeArgs(t *testing.T) {
	args := TranscodeArgs(DefaultOptions())
	joined := strings.Join(args, " ")

	assert.Contains(t, joined, "-f webm -i pipe:0 -vn")
	assert.Contains(t, joined, "-c:a libopus -ar 48000 -ac 2")
	assert.Contains(t, joined, "-frame_duration 20 -page_duration 20000")
	assert.Equal(t, []string{"-f", "opus", "pipe:1"}, args[len(args)-3:])
}

func TestTranscodeArgsProbe(t *testing.T) {
	args := TranscodeArgs(Options{Codec: "pcm_s16le", Container: "s16le"})
	joined := strings.Join(args, " ")

	assert.Contains(t, joined, "-loglevel warning -i pipe:0")
	assert.NotContains(t, joined, "frame_duration")
	assert.Equal(t, []string{"-f", "s16le", "pipe:1"}, args[len(args)-3:])
}

func TestDecodeArgs(t *testing.T) {
	args := DecodeArgs("https://radio.example/stream")
	joined := strings.Join(args, " ")

	assert.Contains(t, joined, "-reconnect 1 -reconnect_streamed 1 -reconnect_delay_max 5 -i https://radio.example/stream")
	assert.Contains(t, joined, "-f s16le -ar 48000 -ac 2 pipe:1")
}

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestTranscodeMissingBinaryClosesInput(t *testing.T) {
	in := &closeTracker{Reader: strings.NewReader("data")}
	_, err := New("/nonexistent/ffmpeg").Transcode(context.Background(), in, DefaultOptions())
	require.Error(t, err)
	assert.True(t, in.closed)
}

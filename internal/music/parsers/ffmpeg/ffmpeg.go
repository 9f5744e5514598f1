package ffmpeg

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/keshon/jukebox/internal/music/parsers"
)

// Options describe a transcode of an input stream.
type Options struct {
	InputFormat string // demuxer for stdin, e.g. "webm"; empty lets ffmpeg probe
	Codec       string // audio encoder, e.g. "libopus"
	Container   string // output muxer, e.g. "opus"
}

// DefaultOptions produce Ogg/Opus with one 20ms packet per page.
func DefaultOptions() Options {
	return Options{InputFormat: "webm", Codec: "libopus", Container: "opus"}
}

type Transcoder struct {
	Path string
}

func New(path string) *Transcoder {
	if path == "" {
		path = "ffmpeg"
	}
	return &Transcoder{Path: path}
}

// TranscodeArgs builds the argument list for reading stdin and writing stdout.
func TranscodeArgs(opts Options) []string {
	args := []string{"-hide_banner", "-loglevel", "warning"}
	if opts.InputFormat != "" {
		args = append(args, "-f", opts.InputFormat)
	}
	args = append(args, "-i", "pipe:0", "-vn")

	codec := opts.Codec
	if codec == "" {
		codec = "libopus"
	}
	args = append(args,
		"-c:a", codec,
		"-ar", strconv.Itoa(parsers.SampleRate),
		"-ac", strconv.Itoa(parsers.Channels),
	)
	if codec == "libopus" {
		args = append(args, "-b:a", "128k", "-frame_duration", "20", "-page_duration", "20000")
	}

	container := opts.Container
	if container == "" {
		container = "opus"
	}
	return append(args, "-f", container, "pipe:1")
}

// DecodeArgs builds the argument list for decoding a URL into s16le PCM.
func DecodeArgs(url string) []string {
	return []string{
		"-hide_banner", "-loglevel", "warning",
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
		"-i", url,
		"-vn",
		"-f", "s16le",
		"-ar", strconv.Itoa(parsers.SampleRate),
		"-ac", strconv.Itoa(parsers.Channels),
		"pipe:1",
	}
}

// Transcode pipes in through ffmpeg. The returned Output owns in and closes it.
func (t *Transcoder) Transcode(ctx context.Context, in io.ReadCloser, opts Options) (*Output, error) {
	out, err := t.start(ctx, in, TranscodeArgs(opts))
	if err != nil {
		in.Close()
		return nil, err
	}
	return out, nil
}

// DecodeURL streams url as s16le 48kHz stereo PCM.
func (t *Transcoder) DecodeURL(ctx context.Context, url string) (*Output, error) {
	return t.start(ctx, nil, DecodeArgs(url))
}

func (t *Transcoder) start(ctx context.Context, in io.ReadCloser, args []string) (*Output, error) {
	cmd := exec.CommandContext(ctx, t.Path, args...)
	cmd.WaitDelay = 5 * time.Second

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	stderr := &tail{max: 2048}
	cmd.Stderr = stderr
	if in != nil {
		cmd.Stdin = in
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	o := &Output{
		pr:   pr,
		cmd:  cmd,
		in:   in,
		errs: make(chan error, 1),
		done: make(chan struct{}),
	}

	go func() {
		err := cmd.Wait()
		pw.Close()
		if err != nil && !o.closing.Load() {
			if msg := stderr.String(); msg != "" {
				err = fmt.Errorf("%w: %s", err, msg)
			}
			o.errs <- fmt.Errorf("ffmpeg: %w", err)
		}
		close(o.errs)
		close(o.done)
	}()

	return o, nil
}

// Output is the stdout of a running ffmpeg process.
type Output struct {
	pr        *io.PipeReader
	cmd       *exec.Cmd
	in        io.Closer
	errs      chan error
	done      chan struct{}
	closing   atomic.Bool
	closeOnce sync.Once
}

func (o *Output) Read(p []byte) (int, error) { return o.pr.Read(p) }

// Err delivers at most one process failure and is closed when ffmpeg exits.
// Failures caused by Close are not reported.
func (o *Output) Err() <-chan error { return o.errs }

// Close kills ffmpeg and waits for it to exit.
func (o *Output) Close() error {
	o.closeOnce.Do(func() {
		o.closing.Store(true)
		// the process may already be gone
		_ = o.cmd.Process.Kill()
		o.pr.Close()
		if o.in != nil {
			o.in.Close()
		}
	})
	<-o.done
	return nil
}

type tail struct {
	mu  sync.Mutex
	buf []byte
	max int
}

func (t *tail) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}

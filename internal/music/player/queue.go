package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/keshon/jukebox/internal/music/sources"
	"github.com/keshon/jukebox/internal/music/stream"
)

const frameDuration = 20 * time.Millisecond

// Queue is the playback state of one guild.
type Queue struct {
	m       *Manager
	guildID string
	opts    QueueOptions

	mu      sync.Mutex
	tracks  []sources.Track
	current *sources.Track
	paused  bool
	resume  chan struct{} // closed while not paused
	conn    VoiceConnection
	cancel  context.CancelFunc
	gen     uint64
	deleted bool

	elapsed atomic.Int64 // milliseconds into the current track
}

func newQueue(m *Manager, guildID string, opts QueueOptions) *Queue {
	resume := make(chan struct{})
	close(resume)
	return &Queue{m: m, guildID: guildID, opts: opts, resume: resume}
}

func (q *Queue) GuildID() string { return q.guildID }

func (q *Queue) Metadata() Metadata { return q.opts.Metadata }

// Connect joins channelID unless the queue is already connected there. A
// connection to another channel is replaced.
func (q *Queue) Connect(ctx context.Context, channelID string) error {
	q.mu.Lock()
	if q.deleted {
		q.mu.Unlock()
		return ErrQueueDeleted
	}
	if q.conn != nil && q.conn.ChannelID() == channelID {
		q.mu.Unlock()
		return nil
	}
	q.mu.Unlock()

	conn, err := q.m.joiner.JoinVoice(ctx, q.guildID, channelID)
	if err != nil {
		return fmt.Errorf("join voice channel %s: %w", channelID, err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.deleted {
		_ = conn.Disconnect()
		return ErrQueueDeleted
	}
	if q.conn != nil && q.conn != conn {
		_ = q.conn.Disconnect()
	}
	q.conn = conn
	return nil
}

func (q *Queue) Connection() VoiceConnection {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.conn
}

func (q *Queue) AddTrack(track sources.Track) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.deleted {
		return
	}
	q.tracks = append(q.tracks, track)
}

// Play starts the head of the queue. It is a no-op while a track is current.
func (q *Queue) Play() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	switch {
	case q.deleted:
		return ErrQueueDeleted
	case q.conn == nil:
		return ErrNotConnected
	case q.current != nil:
		return nil
	case len(q.tracks) == 0:
		return ErrQueueEmpty
	}
	q.startNextLocked()
	return nil
}

func (q *Queue) startNextLocked() {
	track := q.tracks[0]
	q.tracks = slices.Delete(q.tracks, 0, 1)
	q.current = &track
	q.setPausedLocked(false)
	q.elapsed.Store(0)
	q.gen++

	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel
	go q.run(ctx, q.gen, track, q.conn)
}

func (q *Queue) stopLocked() {
	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}
	q.gen++
	q.current = nil
	q.setPausedLocked(false)
	q.elapsed.Store(0)
}

// Skip ends the current track and starts the next one, if any. It returns
// the skipped track.
func (q *Queue) Skip() (sources.Track, bool) {
	q.mu.Lock()
	if q.current == nil {
		q.mu.Unlock()
		return sources.Track{}, false
	}
	skipped := *q.current
	q.stopLocked()

	idle := q.nextOrIdleLocked()
	q.mu.Unlock()

	if idle {
		q.m.emit(Event{Type: EventQueueEmpty, GuildID: q.guildID, Metadata: q.opts.Metadata})
	}
	return skipped, true
}

// nextOrIdleLocked starts the head of the queue, or silences the connection
// and reports true when nothing is left.
func (q *Queue) nextOrIdleLocked() bool {
	if len(q.tracks) > 0 {
		q.startNextLocked()
		return false
	}
	if q.conn != nil {
		_ = q.conn.Speaking(false)
	}
	return true
}

// SetPaused pauses or resumes the current track and reports whether the
// state changed.
func (q *Queue) SetPaused(paused bool) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current == nil || q.paused == paused {
		return false
	}
	q.setPausedLocked(paused)
	if q.conn != nil {
		_ = q.conn.Speaking(!paused)
	}
	return true
}

func (q *Queue) setPausedLocked(paused bool) {
	if q.paused == paused {
		return
	}
	q.paused = paused
	if paused {
		q.resume = make(chan struct{})
	} else {
		close(q.resume)
	}
}

func (q *Queue) IsPaused() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.paused
}

// IsPlaying is true while a track is current, paused or not.
func (q *Queue) IsPlaying() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current != nil
}

// Tracks returns the pending tracks, excluding the current one.
func (q *Queue) Tracks() []sources.Track {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.tracks)
}

// Shuffle reorders the pending tracks. The current track is not affected.
func (q *Queue) Shuffle() {
	q.mu.Lock()
	defer q.mu.Unlock()
	rand.Shuffle(len(q.tracks), func(i, j int) {
		q.tracks[i], q.tracks[j] = q.tracks[j], q.tracks[i]
	})
}

func (q *Queue) CurrentTrack() (sources.Track, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current == nil {
		return sources.Track{}, false
	}
	return *q.current, true
}

// StreamTime is how much of the current track has been sent.
func (q *Queue) StreamTime() time.Duration {
	return time.Duration(q.elapsed.Load()) * time.Millisecond
}

func (q *Queue) destroy() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.deleted = true
	q.stopLocked()
	q.tracks = nil
	if q.conn != nil {
		_ = q.conn.Disconnect()
		q.conn = nil
	}
}

func (q *Queue) run(ctx context.Context, gen uint64, track sources.Track, conn VoiceConnection) {
	log := q.m.log.With().Str("guild", q.guildID).Str("track", track.Title).Logger()
	meta := q.opts.Metadata

	log.Info().Str("url", track.URL).Msg("track started")
	q.m.emit(Event{Type: EventTrackStart, GuildID: q.guildID, Metadata: meta, Track: track})

	err := q.play(ctx, track, conn)
	if ctx.Err() != nil {
		// skipped, stopped or deleted
		q.m.emit(Event{Type: EventTrackEnd, GuildID: q.guildID, Metadata: meta, Track: track})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("playback failed")
		q.m.emit(Event{Type: EventError, GuildID: q.guildID, Metadata: meta, Track: track, Err: err})
	}
	q.m.emit(Event{Type: EventTrackEnd, GuildID: q.guildID, Metadata: meta, Track: track})
	q.advance(gen)
}

// advance moves to the next track once the track of generation gen ended
// on its own.
func (q *Queue) advance(gen uint64) {
	q.mu.Lock()
	if q.gen != gen || q.deleted {
		q.mu.Unlock()
		return
	}
	q.stopLocked()
	idle := q.nextOrIdleLocked()
	q.mu.Unlock()

	if idle {
		q.m.emit(Event{Type: EventQueueEmpty, GuildID: q.guildID, Metadata: q.opts.Metadata})
	}
}

func (q *Queue) play(ctx context.Context, track sources.Track, conn VoiceConnection) error {
	s, err := q.openStream(ctx, track)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}

	fr, frame, err := q.firstFrame(ctx, s)
	if err != nil {
		return err
	}
	defer fr.Close()

	_ = conn.Speaking(true)

	for {
		if err := q.waitResume(ctx); err != nil {
			return err
		}
		if err := conn.SendOpus(ctx, frame); err != nil {
			return fmt.Errorf("send frame: %w", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		q.elapsed.Add(frameDuration.Milliseconds())

		frame, err = fr.ReadFrame()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}
	}
}

func (q *Queue) openStream(ctx context.Context, track sources.Track) (*stream.Stream, error) {
	if hook := q.opts.OnBeforeCreateStream; hook != nil {
		s, err := hook(ctx, track, track.Source)
		switch {
		case err != nil:
			q.m.log.Warn().Err(err).Str("guild", q.guildID).Str("track", track.Title).
				Msg("stream hook failed, using default stream")
		case s != nil:
			return s, nil
		}
	}
	return q.m.opener.Open(ctx, track.URL, track.Source)
}

type firstFrameResult struct {
	fr    stream.FrameReader
	frame []byte
	err   error
}

// firstFrame waits up to the buffering timeout for the stream to produce audio.
func (q *Queue) firstFrame(ctx context.Context, s *stream.Stream) (stream.FrameReader, []byte, error) {
	ch := make(chan firstFrameResult, 1)
	go func() {
		fr, err := stream.NewFrameReader(s)
		if err != nil {
			ch <- firstFrameResult{err: err}
			return
		}
		frame, err := fr.ReadFrame()
		if err != nil {
			fr.Close()
			ch <- firstFrameResult{err: err}
			return
		}
		ch <- firstFrameResult{fr: fr, frame: frame}
	}()

	timer := time.NewTimer(q.m.opts.BufferingTimeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, nil, fmt.Errorf("read first frame: %w", r.err)
		}
		return r.fr, r.frame, nil
	case <-timer.C:
		s.Close()
		go discardFirstFrame(ch)
		return nil, nil, ErrBufferingTimeout
	case <-ctx.Done():
		s.Close()
		go discardFirstFrame(ch)
		return nil, nil, ctx.Err()
	}
}

func discardFirstFrame(ch <-chan firstFrameResult) {
	if r := <-ch; r.fr != nil {
		r.fr.Close()
	}
}

func (q *Queue) waitResume(ctx context.Context) error {
	q.mu.Lock()
	resume := q.resume
	q.mu.Unlock()

	select {
	case <-resume:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

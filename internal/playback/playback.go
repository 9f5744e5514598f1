// Package playback is the facade the command router uses to drive the
// per-guild queues of the playback engine.
package playback

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/keshon/jukebox/internal/music/player"
	"github.com/keshon/jukebox/internal/music/sources"
)

// Queue is the part of a guild queue the router and the facade rely on.
// *player.Queue implements it.
type Queue interface {
	GuildID() string
	Connection() player.VoiceConnection
	Connect(ctx context.Context, channelID string) error
	AddTrack(track sources.Track)
	Play() error
	Skip() (sources.Track, bool)
	SetPaused(paused bool) bool
	IsPaused() bool
	IsPlaying() bool
	Tracks() []sources.Track
	Shuffle()
	CurrentTrack() (sources.Track, bool)
	StreamTime() time.Duration
}

type Options struct {
	LeaveOnEmptyCooldown time.Duration
	ConnectionTimeout    time.Duration
	Logger               zerolog.Logger
}

// Facade wraps the process-wide player.Manager.
type Facade struct {
	engine *player.Manager
	hook   player.StreamHook
	opts   Options
	log    zerolog.Logger
}

// New returns a facade over engine. hook, when not nil, is installed on every
// queue the facade creates.
func New(engine *player.Manager, hook player.StreamHook, opts Options) *Facade {
	if opts.LeaveOnEmptyCooldown <= 0 {
		opts.LeaveOnEmptyCooldown = 5 * time.Minute
	}
	if opts.ConnectionTimeout <= 0 {
		opts.ConnectionTimeout = 30 * time.Second
	}
	return &Facade{
		engine: engine,
		hook:   hook,
		opts:   opts,
		log:    opts.Logger.With().Str("component", "playback").Logger(),
	}
}

// Search resolves query into candidate tracks. An empty result means nothing
// was found.
func (f *Facade) Search(ctx context.Context, query string, requester sources.Requester) ([]sources.Track, error) {
	return f.engine.Search(ctx, query, requester)
}

// GetOrCreateQueue returns the guild's queue, creating one bound to
// textChannelID when none exists.
func (f *Facade) GetOrCreateQueue(guildID, textChannelID string) Queue {
	return f.engine.Create(guildID, player.QueueOptions{
		Metadata:             player.Metadata{ChannelID: textChannelID},
		LeaveOnEmptyCooldown: f.opts.LeaveOnEmptyCooldown,
		OnBeforeCreateStream: f.hook,
	})
}

func (f *Facade) Queue(guildID string) (Queue, bool) {
	q, ok := f.engine.Get(guildID)
	if !ok {
		return nil, false
	}
	return q, true
}

// EnsureConnected joins voiceChannelID unless q already has a connection.
func (f *Facade) EnsureConnected(ctx context.Context, q Queue, voiceChannelID string) error {
	if q.Connection() != nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, f.opts.ConnectionTimeout)
	defer cancel()

	if err := q.Connect(ctx, voiceChannelID); err != nil {
		return fmt.Errorf("connect guild %s: %w", q.GuildID(), err)
	}
	f.log.Debug().Str("guild", q.GuildID()).Str("channel", voiceChannelID).Msg("voice connected")
	return nil
}

// EnqueueAndMaybeStart appends track and starts playback when the queue is
// idle. started reports whether track is now playing.
func (f *Facade) EnqueueAndMaybeStart(ctx context.Context, q Queue, track sources.Track) (started bool, err error) {
	q.AddTrack(track)
	if q.IsPlaying() {
		return false, nil
	}
	if err := q.Play(); err != nil {
		return false, fmt.Errorf("start playback: %w", err)
	}
	return true, nil
}

// Destroy stops playback, clears the queue and leaves voice.
func (f *Facade) Destroy(guildID string) bool {
	return f.engine.Delete(guildID)
}

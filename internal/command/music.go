package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/keshon/jukebox/internal/music/sources"
	"github.com/keshon/jukebox/internal/playback"
	"github.com/keshon/jukebox/internal/storage"
	"github.com/keshon/jukebox/pkg/cmd"
)

const (
	msgNotInVoice    = "❌ You must be in a voice channel to play music!"
	msgNoQuery       = "❌ Please provide a song name or YouTube URL."
	msgNoResults     = "❌ No results found!"
	msgPlayFailed    = "❌ An error occurred while trying to play the music."
	msgNotPlaying    = "❌ No music is currently playing."
	msgAlreadyPaused = "⏸ The music is already paused."
	msgNotPaused     = "❌ The music is not paused."
	msgQueueEmpty    = "❌ The queue is empty."
	msgNoHistory     = "❌ No playback history yet."

	msgStopped  = "⏹ Music stopped and queue cleared!"
	msgPaused   = "⏸ Music paused!"
	msgResumed  = "▶ Music resumed!"
	msgShuffled = "🔀 Queue shuffled!"
)

// Playback is what the music commands need from the playback facade.
type Playback interface {
	Search(ctx context.Context, query string, requester sources.Requester) ([]sources.Track, error)
	GetOrCreateQueue(guildID, textChannelID string) playback.Queue
	Queue(guildID string) (playback.Queue, bool)
	EnsureConnected(ctx context.Context, q playback.Queue, voiceChannelID string) error
	EnqueueAndMaybeStart(ctx context.Context, q playback.Queue, track sources.Track) (bool, error)
	Destroy(guildID string) bool
}

// History lists recently played tracks of a guild, newest first.
type History interface {
	Tracks(ctx context.Context, guildID string) ([]storage.TrackRecord, error)
}

type Deps struct {
	Playback Playback
	History  History // nil disables !history
	Prefix   string
	Logger   zerolog.Logger
}

// call is the state a guard or action sees: the session plus the guild's
// queue, looked up once before the guards run.
type call struct {
	*Session
	queue playback.Queue
}

// guard returns a rejection reply, or "" to let the command run.
type guard func(ctx context.Context, c *call) string

type action func(ctx context.Context, c *call) string

// entry is one row of the command table.
type entry struct {
	name    string
	aliases []string
	usage   string
	desc    string
	guards  []guard
	action  action
	pb      Playback
}

func (e *entry) Name() string        { return e.name }
func (e *entry) Description() string { return e.desc }
func (e *entry) Aliases() []string   { return e.aliases }
func (e *entry) Usage() string       { return e.usage }

// Run checks the guards in order and replies exactly once.
func (e *entry) Run(ctx context.Context, inv *cmd.Invocation) error {
	s, ok := inv.Data.(*Session)
	if !ok {
		return fmt.Errorf("%s: unexpected invocation data %T", e.name, inv.Data)
	}

	c := &call{Session: s}
	if e.pb != nil {
		if q, ok := e.pb.Queue(s.GuildID); ok {
			c.queue = q
		}
	}

	for _, g := range e.guards {
		if msg := g(ctx, c); msg != "" {
			return s.Reply(ctx, msg)
		}
	}
	return s.Reply(ctx, e.action(ctx, c))
}

type music struct {
	pb      Playback
	history History
	prefix  string
	log     zerolog.Logger
}

// Register adds the music commands and help to reg, each wrapped in mws.
func Register(reg *cmd.Registry, d Deps, mws ...cmd.Middleware) {
	m := &music{
		pb:      d.Playback,
		history: d.History,
		prefix:  d.Prefix,
		log:     d.Logger.With().Str("component", "music").Logger(),
	}
	for _, e := range m.table(reg) {
		e.pb = m.pb
		reg.Register(cmd.Apply(e, mws...))
	}
}

func (m *music) table(reg *cmd.Registry) []*entry {
	return []*entry{
		{
			name:   "play",
			usage:  "<song name or URL>",
			desc:   "Play a song or add it to the queue",
			guards: []guard{inVoice, hasQuery},
			action: m.play,
		},
		{
			name:   "stop",
			desc:   "Stop the music and clear the queue",
			guards: []guard{queuePlaying},
			action: m.stop,
		},
		{
			name:   "skip",
			desc:   "Skip the current song",
			guards: []guard{queuePlaying},
			action: skip,
		},
		{
			name:   "pause",
			desc:   "Pause the current song",
			guards: []guard{queuePlaying, notPaused},
			action: pause,
		},
		{
			name:   "resume",
			desc:   "Resume the paused song",
			guards: []guard{queuePaused},
			action: resume,
		},
		{
			name:   "queue",
			desc:   "Show the upcoming songs",
			guards: []guard{hasTracks},
			action: showQueue,
		},
		{
			name:   "shuffle",
			desc:   "Shuffle the upcoming songs",
			guards: []guard{hasTracks},
			action: shuffle,
		},
		{
			name:    "nowplaying",
			aliases: []string{"np"},
			desc:    "Show the current song and its progress",
			guards:  []guard{hasCurrent},
			action:  nowPlaying,
		},
		{
			name:   "history",
			desc:   "Show recently played songs",
			guards: []guard{m.historyEnabled},
			action: m.showHistory,
		},
		{
			name: "help",
			desc: "Show this list of commands",
			action: func(ctx context.Context, c *call) string {
				return renderHelp(m.prefix, reg.All())
			},
		},
	}
}

func inVoice(_ context.Context, c *call) string {
	if c.VoiceChannelID() == "" {
		return msgNotInVoice
	}
	return ""
}

func hasQuery(_ context.Context, c *call) string {
	if strings.TrimSpace(c.Raw) == "" {
		return msgNoQuery
	}
	return ""
}

func queuePlaying(_ context.Context, c *call) string {
	if c.queue == nil || !c.queue.IsPlaying() {
		return msgNotPlaying
	}
	return ""
}

func notPaused(_ context.Context, c *call) string {
	if c.queue.IsPaused() {
		return msgAlreadyPaused
	}
	return ""
}

func queuePaused(_ context.Context, c *call) string {
	if c.queue == nil || !c.queue.IsPaused() {
		return msgNotPaused
	}
	return ""
}

func hasTracks(_ context.Context, c *call) string {
	if c.queue == nil || len(c.queue.Tracks()) == 0 {
		return msgQueueEmpty
	}
	return ""
}

func hasCurrent(_ context.Context, c *call) string {
	if c.queue == nil {
		return msgNotPlaying
	}
	if _, ok := c.queue.CurrentTrack(); !ok {
		return msgNotPlaying
	}
	return ""
}

func (m *music) historyEnabled(_ context.Context, _ *call) string {
	if m.history == nil {
		return msgNoHistory
	}
	return ""
}

// play is the failure boundary around search, connection and enqueue.
func (m *music) play(ctx context.Context, c *call) (reply string) {
	log := m.log.With().
		Str("guild", c.GuildID).
		Str("query", c.Raw).
		Str("invocation", c.InvocationID).
		Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("play panicked")
			reply = msgPlayFailed
		}
	}()

	tracks, err := m.pb.Search(ctx, c.Raw, c.Requester())
	if err != nil {
		log.Error().Err(err).Msg("search failed")
		return msgPlayFailed
	}
	if len(tracks) == 0 {
		return msgNoResults
	}
	track := tracks[0]

	q := m.pb.GetOrCreateQueue(c.GuildID, c.ChannelID)
	if err := m.pb.EnsureConnected(ctx, q, c.VoiceChannelID()); err != nil {
		log.Error().Err(err).Str("voice_channel", c.VoiceChannelID()).Msg("voice connection failed")
		return msgPlayFailed
	}

	started, err := m.pb.EnqueueAndMaybeStart(ctx, q, track)
	if err != nil {
		log.Error().Err(err).Str("track", track.Title).Msg("enqueue failed")
		return msgPlayFailed
	}

	log.Info().Str("track", track.Title).Bool("started", started).Msg("track queued")
	if started {
		return fmt.Sprintf("🎶 Now playing: **%s**", track.Title)
	}
	return fmt.Sprintf("🎶 Added to queue: **%s**", track.Title)
}

func (m *music) stop(_ context.Context, c *call) string {
	m.pb.Destroy(c.GuildID)
	return msgStopped
}

func skip(_ context.Context, c *call) string {
	t, ok := c.queue.Skip()
	if !ok {
		return msgNotPlaying
	}
	return fmt.Sprintf("⏭ Skipped **%s**!", t.Title)
}

func pause(_ context.Context, c *call) string {
	if !c.queue.SetPaused(true) {
		return msgAlreadyPaused
	}
	return msgPaused
}

func resume(_ context.Context, c *call) string {
	if !c.queue.SetPaused(false) {
		return msgNotPaused
	}
	return msgResumed
}

func showQueue(_ context.Context, c *call) string {
	return "🎶 **Current Queue:**\n" + FormatQueue(c.queue.Tracks())
}

func shuffle(_ context.Context, c *call) string {
	c.queue.Shuffle()
	return msgShuffled
}

func nowPlaying(_ context.Context, c *call) string {
	t, ok := c.queue.CurrentTrack()
	if !ok {
		return msgNotPlaying
	}
	total := "LIVE"
	if t.Duration > 0 {
		total = FormatClock(t.Duration)
	}
	return fmt.Sprintf("🎶 **Now Playing:**\n**%s**\nProgress: **%s / %s**",
		t.Title, FormatClock(c.queue.StreamTime()), total)
}

func (m *music) showHistory(ctx context.Context, c *call) string {
	recs, err := m.history.Tracks(ctx, c.GuildID)
	if err != nil {
		m.log.Error().Err(err).Str("guild", c.GuildID).Msg("load history failed")
		return msgNoHistory
	}
	if len(recs) == 0 {
		return msgNoHistory
	}
	return "📜 **Recently Played:**\n" + FormatHistory(recs)
}

package player

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/keshon/jukebox/internal/music/sources"
	"github.com/keshon/jukebox/internal/music/stream"
	"github.com/keshon/jukebox/pkg/jobmgr"
)

var (
	ErrNotConnected     = errors.New("queue has no voice connection")
	ErrQueueEmpty       = errors.New("no tracks in queue")
	ErrQueueDeleted     = errors.New("queue was deleted")
	ErrBufferingTimeout = errors.New("stream did not start in time")
)

// Resolver turns a query or URL into ordered candidate tracks.
type Resolver interface {
	Resolve(ctx context.Context, input string) ([]sources.Track, error)
}

// StreamOpener is the default way to obtain audio for a track.
type StreamOpener interface {
	Open(ctx context.Context, url, source string) (*stream.Stream, error)
}

// StreamHook may replace the default stream of a track. Returning nil, nil
// declines; an error is logged and the default path is used.
type StreamHook func(ctx context.Context, track sources.Track, source string) (*stream.Stream, error)

type Options struct {
	// BufferingTimeout bounds the wait for the first frame of a stream.
	BufferingTimeout time.Duration
	Observer         Observer
	Logger           zerolog.Logger
}

// Metadata is caller data bound to a queue.
type Metadata struct {
	ChannelID string // text channel the queue reports to
}

type QueueOptions struct {
	Metadata             Metadata
	LeaveOnEmptyCooldown time.Duration
	OnBeforeCreateStream StreamHook
}

// Manager owns one Queue per guild. A single Manager serves the process.
type Manager struct {
	mu     sync.Mutex
	queues map[string]*Queue

	resolver Resolver
	opener   StreamOpener
	joiner   VoiceJoiner
	jobs     *jobmgr.Manager
	opts     Options
	log      zerolog.Logger
}

func NewManager(resolver Resolver, opener StreamOpener, joiner VoiceJoiner, opts Options) *Manager {
	if opts.BufferingTimeout <= 0 {
		opts.BufferingTimeout = 5 * time.Second
	}
	log := opts.Logger.With().Str("component", "player").Logger()
	return &Manager{
		queues:   make(map[string]*Queue),
		resolver: resolver,
		opener:   opener,
		joiner:   joiner,
		opts:     opts,
		log:      log,
		jobs: jobmgr.NewManager(func(msg string) {
			log.Debug().Str("job", msg).Msg("job status")
		}),
	}
}

// Search resolves query into candidate tracks requested by requester. No
// results is an empty slice, not an error.
func (m *Manager) Search(ctx context.Context, query string, requester sources.Requester) ([]sources.Track, error) {
	tracks, err := m.resolver.Resolve(ctx, query)
	if errors.Is(err, sources.ErrNoResults) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]sources.Track, len(tracks))
	for i, t := range tracks {
		t.RequestedBy = requester
		out[i] = t
	}
	return out, nil
}

// Create returns the guild's queue, creating it with opts if absent. Options
// of an existing queue are left untouched.
func (m *Manager) Create(guildID string, opts QueueOptions) *Queue {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q, ok := m.queues[guildID]; ok {
		return q
	}
	q := newQueue(m, guildID, opts)
	m.queues[guildID] = q
	m.log.Debug().Str("guild", guildID).Msg("queue created")
	return q
}

func (m *Manager) Get(guildID string) (*Queue, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queues[guildID]
	return q, ok
}

// Delete stops playback, clears the queue and leaves voice. It reports
// whether a queue existed.
func (m *Manager) Delete(guildID string) bool {
	m.mu.Lock()
	q, ok := m.queues[guildID]
	delete(m.queues, guildID)
	m.mu.Unlock()
	if !ok {
		return false
	}

	_ = m.jobs.Stop(evictJob(guildID))
	q.destroy()
	m.log.Info().Str("guild", guildID).Msg("queue deleted")
	m.emit(Event{Type: EventDeleted, GuildID: guildID, Metadata: q.Metadata()})
	return true
}

// Close deletes every queue and stops pending eviction timers.
func (m *Manager) Close() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.queues))
	for id := range m.queues {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.Delete(id)
	}
	m.jobs.Shutdown()
}

// SetChannelEmpty is told whether the queue's voice channel has no humans
// left. An empty channel starts the leave cooldown; anyone rejoining cancels it.
func (m *Manager) SetChannelEmpty(guildID string, empty bool) {
	q, ok := m.Get(guildID)
	if !ok {
		return
	}
	name := evictJob(guildID)

	if !empty {
		if m.jobs.Stop(name) == nil {
			m.log.Debug().Str("guild", guildID).Msg("eviction canceled")
		}
		return
	}

	if m.jobs.Running(name) {
		return
	}
	cooldown := q.opts.LeaveOnEmptyCooldown
	err := m.jobs.StartAfter(name, cooldown, func(ctx context.Context) error {
		if !m.deleteIf(guildID, q) {
			return ErrQueueDeleted
		}
		return nil
	})
	if err == nil {
		m.log.Debug().Str("guild", guildID).Dur("cooldown", cooldown).Msg("voice channel empty, eviction scheduled")
	}
}

// deleteIf deletes the guild's queue only if it is still q.
func (m *Manager) deleteIf(guildID string, q *Queue) bool {
	m.mu.Lock()
	current, ok := m.queues[guildID]
	m.mu.Unlock()
	if !ok || current != q {
		return false
	}
	return m.Delete(guildID)
}

func (m *Manager) emit(ev Event) {
	if m.opts.Observer != nil {
		m.opts.Observer(ev)
	}
}

func evictJob(guildID string) string {
	return "evict:" + guildID
}

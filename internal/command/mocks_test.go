package command

import (
	"context"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/keshon/jukebox/internal/music/player"
	"github.com/keshon/jukebox/internal/music/sources"
	"github.com/keshon/jukebox/internal/playback"
	"github.com/keshon/jukebox/internal/storage"
)

type MockPlayback struct {
	mock.Mock
}

func (m *MockPlayback) Search(ctx context.Context, query string, requester sources.Requester) ([]sources.Track, error) {
	args := m.Called(ctx, query, requester)
	tracks, _ := args.Get(0).([]sources.Track)
	return tracks, args.Error(1)
}

func (m *MockPlayback) GetOrCreateQueue(guildID, textChannelID string) playback.Queue {
	args := m.Called(guildID, textChannelID)
	q, _ := args.Get(0).(playback.Queue)
	return q
}

func (m *MockPlayback) Queue(guildID string) (playback.Queue, bool) {
	args := m.Called(guildID)
	q, _ := args.Get(0).(playback.Queue)
	return q, args.Bool(1)
}

func (m *MockPlayback) EnsureConnected(ctx context.Context, q playback.Queue, voiceChannelID string) error {
	args := m.Called(ctx, q, voiceChannelID)
	return args.Error(0)
}

func (m *MockPlayback) EnqueueAndMaybeStart(ctx context.Context, q playback.Queue, track sources.Track) (bool, error) {
	args := m.Called(ctx, q, track)
	return args.Bool(0), args.Error(1)
}

func (m *MockPlayback) Destroy(guildID string) bool {
	args := m.Called(guildID)
	return args.Bool(0)
}

// fakeQueue is an in-memory playback.Queue.
type fakeQueue struct {
	mu      sync.Mutex
	guildID string
	tracks  []sources.Track
	current *sources.Track
	paused  bool
	elapsed time.Duration
	conn    player.VoiceConnection
}

func newFakeQueue(current *sources.Track, pending ...sources.Track) *fakeQueue {
	return &fakeQueue{guildID: "g1", current: current, tracks: pending}
}

func (q *fakeQueue) GuildID() string { return q.guildID }

func (q *fakeQueue) Connection() player.VoiceConnection {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.conn
}

func (q *fakeQueue) Connect(ctx context.Context, channelID string) error {
	conn, err := player.NewNullVoice().JoinVoice(ctx, q.guildID, channelID)
	if err != nil {
		return err
	}
	q.mu.Lock()
	q.conn = conn
	q.mu.Unlock()
	return nil
}

func (q *fakeQueue) AddTrack(t sources.Track) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tracks = append(q.tracks, t)
}

func (q *fakeQueue) Play() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current == nil && len(q.tracks) > 0 {
		t := q.tracks[0]
		q.tracks = q.tracks[1:]
		q.current = &t
	}
	return nil
}

func (q *fakeQueue) Skip() (sources.Track, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current == nil {
		return sources.Track{}, false
	}
	skipped := *q.current
	q.current, q.paused = nil, false
	if len(q.tracks) > 0 {
		t := q.tracks[0]
		q.tracks = q.tracks[1:]
		q.current = &t
	}
	return skipped, true
}

func (q *fakeQueue) SetPaused(paused bool) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current == nil || q.paused == paused {
		return false
	}
	q.paused = paused
	return true
}

func (q *fakeQueue) IsPaused() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.paused
}

func (q *fakeQueue) IsPlaying() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current != nil
}

func (q *fakeQueue) Tracks() []sources.Track {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.tracks)
}

func (q *fakeQueue) Shuffle() {
	q.mu.Lock()
	defer q.mu.Unlock()
	rand.Shuffle(len(q.tracks), func(i, j int) {
		q.tracks[i], q.tracks[j] = q.tracks[j], q.tracks[i]
	})
}

func (q *fakeQueue) CurrentTrack() (sources.Track, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current == nil {
		return sources.Track{}, false
	}
	return *q.current, true
}

func (q *fakeQueue) StreamTime() time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.elapsed
}

type recorder struct {
	mu      sync.Mutex
	replies []string
}

func (r *recorder) Reply(ctx context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, text)
	return nil
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.replies)
}

func (r *recorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.replies) == 0 {
		return ""
	}
	return r.replies[len(r.replies)-1]
}

type voiceMap map[string]string

func (v voiceMap) VoiceChannel(guildID, userID string) string { return v[userID] }

type staticHistory []storage.TrackRecord

func (h staticHistory) Tracks(ctx context.Context, guildID string) ([]storage.TrackRecord, error) {
	return h, nil
}

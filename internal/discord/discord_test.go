package discord

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/jukebox/internal/music/player"
	"github.com/keshon/jukebox/internal/music/sources"
	"github.com/keshon/jukebox/internal/storage"
)

func TestCountHumans(t *testing.T) {
	bots := map[string]bool{"music-bot": true}
	states := []*discordgo.VoiceState{
		{UserID: "self", ChannelID: "v1"},
		{UserID: "alice", ChannelID: "v1"},
		{UserID: "music-bot", ChannelID: "v1"},
		{UserID: "tagged-bot", ChannelID: "v1", Member: &discordgo.Member{User: &discordgo.User{ID: "tagged-bot", Bot: true}}},
		{UserID: "bob", ChannelID: "v2"},
	}
	isBot := func(id string) bool { return bots[id] }

	assert.Equal(t, 1, countHumans(states, "v1", "self", isBot))
	assert.Equal(t, 1, countHumans(states, "v2", "self", isBot))
	assert.Equal(t, 0, countHumans(states, "v3", "self", isBot))
	assert.Equal(t, 0, countHumans(states[:1], "v1", "self", isBot))
}

func TestFollowMove(t *testing.T) {
	conn := &voiceConn{channelID: "v1"}

	assert.False(t, followMove(conn, "v1"))
	assert.False(t, followMove(conn, ""))
	assert.Equal(t, "v1", conn.ChannelID())

	assert.True(t, followMove(conn, "v2"))
	assert.Equal(t, "v2", conn.ChannelID())

	states := []*discordgo.VoiceState{
		{UserID: "self", ChannelID: "v2"},
		{UserID: "alice", ChannelID: "v2"},
		{UserID: "bob", ChannelID: "v1"},
	}
	assert.Equal(t, 1, countHumans(states, conn.ChannelID(), "self", func(string) bool { return false }))

	null, err := player.NewNullVoice().JoinVoice(context.Background(), "g1", "v1")
	require.NoError(t, err)
	assert.False(t, followMove(null, "v3"), "only gateway connections are tracked")
}

func TestToMessage(t *testing.T) {
	m := toMessage(&discordgo.Message{
		ID:        "m1",
		GuildID:   "g1",
		ChannelID: "c1",
		Content:   "!play x",
		Author:    &discordgo.User{ID: "u1", Username: "alice", Bot: true},
	})
	assert.Equal(t, "g1", m.GuildID)
	assert.Equal(t, "alice", m.AuthorName)
	assert.True(t, m.AuthorBot)

	m = toMessage(&discordgo.Message{ChannelID: "c1"})
	assert.Empty(t, m.AuthorID)
}

type fakePoster struct {
	mu   sync.Mutex
	sent map[string][]string
	err  error
}

func (p *fakePoster) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sent == nil {
		p.sent = map[string][]string{}
	}
	p.sent[channelID] = append(p.sent[channelID], content)
	return &discordgo.Message{}, p.err
}

func (p *fakePoster) messages(channelID string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.sent[channelID]...)
}

func TestNotifierPostsFailures(t *testing.T) {
	poster := &fakePoster{}
	n := NewNotifier(poster, nil, zerolog.Nop())

	n.Observe(player.Event{
		Type:     player.EventError,
		GuildID:  "g1",
		Metadata: player.Metadata{ChannelID: "text-1"},
		Track:    sources.Track{Title: "Broken"},
		Err:      errors.New("ffmpeg: exit status 1"),
	})
	n.Observe(player.Event{Type: player.EventTrackEnd, GuildID: "g1", Metadata: player.Metadata{ChannelID: "text-1"}})

	require.Eventually(t, func() bool { return len(poster.messages("text-1")) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"❌ Failed to play **Broken**"}, poster.messages("text-1"))
}

func TestNotifierRecordsHistory(t *testing.T) {
	store, err := storage.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	n := NewNotifier(nil, store, zerolog.Nop())
	n.Observe(player.Event{
		Type:    player.EventTrackStart,
		GuildID: "g1",
		Track: sources.Track{
			Title:       "A",
			URL:         "https://youtu.be/a",
			Source:      sources.SourceYouTube,
			Duration:    3 * time.Minute,
			RequestedBy: sources.Requester{ID: "u1", Name: "alice"},
		},
	})

	require.Eventually(t, func() bool {
		recs, err := store.Tracks(context.Background(), "g1")
		return err == nil && len(recs) == 1
	}, time.Second, 5*time.Millisecond)

	recs, err := store.Tracks(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, "alice", recs[0].RequestedBy)
	assert.Equal(t, 3*time.Minute, recs[0].Duration)
}

package app

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/jukebox/internal/command"
	"github.com/keshon/jukebox/internal/config"
	"github.com/keshon/jukebox/internal/music/player"
)

type replies struct {
	mu   sync.Mutex
	text []string
}

func (r *replies) Reply(ctx context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.text = append(r.text, text)
	return nil
}

type inVoice string

func (v inVoice) VoiceChannel(guildID, userID string) string { return string(v) }

func newTestApp(t *testing.T, storagePath string) *App {
	t.Helper()
	cfg, err := config.LoadFrom(map[string]string{"DISCORD_TOKEN": "token"})
	require.NoError(t, err)
	cfg.StoragePath = storagePath

	a, err := New(context.Background(), cfg, Options{
		Joiner:  player.NewNullVoice(),
		Locator: inVoice("voice-1"),
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestRouterServesCommands(t *testing.T) {
	a := newTestApp(t, ":memory:")
	require.NotNil(t, a.Store)

	r := &replies{}
	msg := command.Message{GuildID: "g1", ChannelID: "c1", AuthorID: "u1", AuthorName: "alice"}
	ctx := context.Background()

	for _, content := range []string{"!help", "!queue", "!skip", "!history"} {
		msg.Content = content
		assert.True(t, a.Router.Handle(ctx, msg, r), content)
	}
	require.Len(t, r.text, 4)
	assert.Contains(t, r.text[0], "Music Commands")
	assert.Equal(t, "❌ The queue is empty.", r.text[1])
	assert.Equal(t, "❌ No music is currently playing.", r.text[2])
	assert.Equal(t, "❌ No playback history yet.", r.text[3])

	logged, err := a.Store.Commands(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, logged, 4)
}

func TestStorageDisabled(t *testing.T) {
	a := newTestApp(t, "")
	assert.Nil(t, a.Store)

	r := &replies{}
	ok := a.Router.Handle(context.Background(), command.Message{GuildID: "g1", AuthorID: "u1", Content: "!history"}, r)
	assert.True(t, ok)
	assert.Equal(t, []string{"❌ No playback history yet."}, r.text)
}

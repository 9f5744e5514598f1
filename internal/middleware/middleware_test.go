package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/jukebox/internal/command"
	"github.com/keshon/jukebox/internal/storage"
	"github.com/keshon/jukebox/pkg/cmd"
)

type stubCommand struct {
	calls int
	run   func(inv *cmd.Invocation) error
}

func (c *stubCommand) Name() string        { return "play" }
func (c *stubCommand) Description() string { return "stub" }

func (c *stubCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	c.calls++
	if c.run != nil {
		return c.run(inv)
	}
	return nil
}

func invocation(guildID string) *cmd.Invocation {
	s := command.NewSession(command.Message{
		GuildID:    guildID,
		ChannelID:  "text-1",
		AuthorID:   "u1",
		AuthorName: "alice",
	}, nil, nil)
	s.Raw = "never gonna"
	return &cmd.Invocation{Name: "play", Raw: s.Raw, Data: s}
}

func TestWithGuildOnly(t *testing.T) {
	inner := &stubCommand{}
	c := cmd.Apply(inner, WithGuildOnly())

	require.NoError(t, c.Run(context.Background(), invocation("")))
	assert.Equal(t, 0, inner.calls)

	require.NoError(t, c.Run(context.Background(), invocation("g1")))
	assert.Equal(t, 1, inner.calls)
}

func TestWithRecover(t *testing.T) {
	inner := &stubCommand{run: func(*cmd.Invocation) error { panic("boom") }}
	c := cmd.Apply(inner, WithRecover(zerolog.Nop()))

	var err error
	assert.NotPanics(t, func() { err = c.Run(context.Background(), invocation("g1")) })
	assert.ErrorContains(t, err, "panicked: boom")
}

func TestWithCommandLogger(t *testing.T) {
	store, err := storage.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	var seen string
	inner := &stubCommand{run: func(inv *cmd.Invocation) error {
		seen = inv.Data.(*command.Session).InvocationID
		return errors.New("reply failed")
	}}
	c := cmd.Apply(inner, WithCommandLogger(store, zerolog.Nop()))

	err = c.Run(context.Background(), invocation("g1"))
	assert.EqualError(t, err, "reply failed")
	_, perr := uuid.Parse(seen)
	assert.NoError(t, perr)

	recs, err := store.Commands(context.Background(), "g1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "play", recs[0].Command)
	assert.Equal(t, "never gonna", recs[0].Param)
	assert.Equal(t, "alice", recs[0].Username)
	assert.Equal(t, seen, recs[0].InvocationID)
}

func TestWithCommandLoggerWithoutStore(t *testing.T) {
	inner := &stubCommand{}
	c := cmd.Apply(inner, WithCommandLogger(nil, zerolog.Nop()))

	require.NoError(t, c.Run(context.Background(), invocation("g1")))
	assert.Equal(t, 1, inner.calls)
}

func TestOrderGuildOnlyOutermost(t *testing.T) {
	store, err := storage.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	inner := &stubCommand{}
	c := cmd.Apply(inner, WithRecover(zerolog.Nop()), WithCommandLogger(store, zerolog.Nop()), WithGuildOnly())

	require.NoError(t, c.Run(context.Background(), invocation("")))
	assert.Equal(t, 0, inner.calls)

	recs, err := store.Commands(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, recs)
}
